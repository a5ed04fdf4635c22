// Package optimizer calibrates scenario parameters so that an equilibrium
// outcome reaches a target value.
package optimizer

import (
	"context"
	"fmt"

	"github.com/mauriciotejada/labor-economics/internal/config"
	"github.com/mauriciotejada/labor-economics/pkg/equilibrium"
	"github.com/mauriciotejada/labor-economics/pkg/optimization"
	"github.com/mauriciotejada/labor-economics/pkg/rootfind"
	"go.uber.org/zap"
)

// DefaultTolerance is the width of the parameter interval at which the
// calibration search stops.
const DefaultTolerance = 1e-8

// Runner calibrates the scenarios of one configuration.
type Runner struct {
	logger *zap.Logger
	conf   *config.Configuration
	search rootfind.Settings
}

// NewRunner constructs a Runner for the provided configuration.
func NewRunner(logger *zap.Logger, conf *config.Configuration) (*Runner, error) {
	if conf == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	search := rootfind.DefaultSettings()
	search.Tolerance = DefaultTolerance

	return &Runner{logger: logger, conf: conf, search: search}, nil
}

// Calibrate searches the scenario's calibration interval for the parameter
// value at which the outcome equals the target. The outcome must cross the
// target inside the interval. The returned scenario carries the calibrated
// value as an override; the input scenario is not modified.
func (r *Runner) Calibrate(ctx context.Context, scenario config.Scenario) (config.Scenario, optimization.Summary, error) {
	c := scenario.Calibration
	if c == nil {
		return scenario, optimization.Summary{}, fmt.Errorf("scenario %s has no calibration", scenario.Name)
	}
	if err := c.Validate(); err != nil {
		return scenario, optimization.Summary{}, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	original, err := scenario.Parameters.Apply(r.conf.Common.Parameters).Value(c.Parameter)
	if err != nil {
		return scenario, optimization.Summary{}, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	opts := r.conf.SolverOptions()
	gap := func(value float64) (float64, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		outcome, err := r.evaluate(ctx, scenario, c, value, opts)
		if err != nil {
			return 0, err
		}
		r.logger.Debug("calibration step",
			zap.String("op", "optimizer.Calibrate"),
			zap.String("scenario", scenario.Name),
			zap.String("parameter", c.Parameter),
			zap.Float64("value", value),
			zap.String("outcome", c.Outcome),
			zap.Float64("achieved", outcome),
		)
		return outcome - c.Target, nil
	}

	root, err := rootfind.Brent(gap, c.Min, c.Max, r.search)
	if err != nil {
		return scenario, optimization.Summary{}, fmt.Errorf("calibrating %s of scenario %s to %s = %v: %w",
			c.Parameter, scenario.Name, c.Outcome, c.Target, err)
	}

	calibrated := scenario
	if err := calibrated.Parameters.Set(c.Parameter, root.Root); err != nil {
		return scenario, optimization.Summary{}, err
	}
	calibrated.Calibration = nil

	summary := optimization.Summary{
		Parameter:   c.Parameter,
		Outcome:     c.Outcome,
		Target:      c.Target,
		Original:    original,
		Value:       root.Root,
		Achieved:    c.Target + root.Value,
		Iterations:  root.Iterations,
		Evaluations: root.Evaluations,
	}

	r.logger.Info("optimizer calibrated parameter",
		zap.String("op", "optimizer.Calibrate"),
		zap.String("scenario", scenario.Name),
		zap.String("parameter", summary.Parameter),
		zap.Float64("original", summary.Original),
		zap.Float64("calibrated", summary.Value),
		zap.String("outcome", summary.Outcome),
		zap.Float64("target", summary.Target),
		zap.Float64("achieved", summary.Achieved),
		zap.Int("evaluations", summary.Evaluations),
	)

	return calibrated, summary, nil
}

func (r *Runner) evaluate(ctx context.Context, scenario config.Scenario, c *config.Calibration, value float64, opts equilibrium.Options) (float64, error) {
	trial := scenario
	if err := trial.Parameters.Set(c.Parameter, value); err != nil {
		return 0, err
	}
	params, err := r.conf.ScenarioParameters(trial)
	if err != nil {
		return 0, err
	}
	result, err := equilibrium.SolveModel(ctx, params, opts)
	if err != nil {
		return 0, err
	}
	return Outcome(result, c.Outcome)
}

// Outcome extracts the named outcome from result.
func Outcome(result equilibrium.Result, name string) (float64, error) {
	switch name {
	case config.OutcomeReservationProductivity:
		return result.ReservationProductivity, nil
	case config.OutcomeTightness:
		return result.Tightness, nil
	case config.OutcomeUnemployment:
		return result.Unemployment, nil
	case config.OutcomeVacancies:
		return result.Vacancies, nil
	default:
		return 0, fmt.Errorf("unknown outcome %q", name)
	}
}
