// Package market solves the labor market equilibrium for every active
// scenario of a configuration.
package market

import (
	"context"
	"fmt"
	"time"

	"github.com/mauriciotejada/labor-economics/internal/config"
	"github.com/mauriciotejada/labor-economics/internal/optimizer"
	"github.com/mauriciotejada/labor-economics/pkg/equilibrium"
	"github.com/mauriciotejada/labor-economics/pkg/optimization"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

// Equilibrium holds the solved steady state of one scenario.
type Equilibrium struct {
	Name         string `json:"name"`
	Productivity string `json:"productivity"`

	ReservationProductivity float64 `json:"reservationProductivity"`
	Tightness               float64 `json:"tightness"`
	Unemployment            float64 `json:"unemployment"`
	Vacancies               float64 `json:"vacancies"`

	OuterIterations int `json:"outerIterations"`
	InnerIterations int `json:"innerIterations"`

	// Calibration is set when the scenario asked for a parameter to be
	// calibrated before solving.
	Calibration optimization.Summary `json:"calibration,omitzero"`
}

// Calibrated reports whether a calibration was applied.
func (e Equilibrium) Calibrated() bool {
	return e.Calibration.Parameter != ""
}

// GetEquilibria solves all active scenarios concurrently. Results follow
// configuration order. The first failure cancels the remaining solves.
func GetEquilibria(ctx context.Context, logger *zap.Logger, conf config.Configuration) ([]Equilibrium, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, scenario := range conf.Scenarios {
		if !scenario.Active {
			logger.Debug(fmt.Sprintf("skipping scenario %s because it is inactive", scenario.Name),
				zap.String("op", "market.GetEquilibria"),
			)
		}
	}

	active := conf.ActiveScenarios()
	results := make([]Equilibrium, len(active))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(conf.Solver.ParallelismOrDefault())
	for i, scenario := range active {
		i, scenario := i, scenario
		g.Go(func() error {
			result, err := Solve(gctx, logger, &conf, scenario)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// Solve computes the equilibrium of a single scenario, calibrating it
// first when it carries a calibration. The scenario's parameters are built
// fresh for this call and solver.timeout, when set, bounds its wall-clock
// time including any calibration.
func Solve(ctx context.Context, logger *zap.Logger, conf *config.Configuration, scenario config.Scenario) (Equilibrium, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if conf.Solver.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, conf.Solver.Timeout)
		defer cancel()
	}

	var calibration optimization.Summary
	if scenario.Calibration != nil {
		runner, err := optimizer.NewRunner(logger, conf)
		if err != nil {
			return Equilibrium{}, err
		}
		scenario, calibration, err = runner.Calibrate(ctx, scenario)
		if err != nil {
			logger.Error("failed to calibrate scenario",
				zap.String("op", "market.Solve"),
				zap.String("scenario", scenario.Name),
				zap.Error(err),
			)
			return Equilibrium{}, err
		}
	}

	params, err := conf.ScenarioParameters(scenario)
	if err != nil {
		return Equilibrium{}, err
	}

	opts := conf.SolverOptions()
	opts.Observer = NewLogObserver(logger, scenario.Name)

	start := time.Now()
	result, err := equilibrium.SolveModel(ctx, params, opts)
	if err != nil {
		logger.Error("failed to solve scenario",
			zap.String("op", "market.Solve"),
			zap.String("scenario", scenario.Name),
			zap.Error(err),
		)
		return Equilibrium{}, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	logger.Info("solved scenario",
		zap.String("op", "market.Solve"),
		zap.String("scenario", scenario.Name),
		zap.Float64("reservationProductivity", result.ReservationProductivity),
		zap.Float64("tightness", result.Tightness),
		zap.Float64("unemployment", result.Unemployment),
		zap.Float64("vacancies", result.Vacancies),
		zap.Int("outerIterations", result.OuterIterations),
		zap.Int("innerIterations", result.InnerIterations),
		zap.Duration("elapsed", time.Since(start)),
	)

	return Equilibrium{
		Name:                    scenario.Name,
		Productivity:            describe(params.Productivity),
		ReservationProductivity: result.ReservationProductivity,
		Tightness:               result.Tightness,
		Unemployment:            result.Unemployment,
		Vacancies:               result.Vacancies,
		OuterIterations:         result.OuterIterations,
		InnerIterations:         result.InnerIterations,
		Calibration:             calibration,
	}, nil
}

// NewLogObserver reports every solver step as a debug log line.
func NewLogObserver(logger *zap.Logger, scenario string) equilibrium.Observer {
	return equilibrium.ObserverFunc(func(it equilibrium.Iteration) {
		ce := logger.Check(zapcore.DebugLevel, "solver iteration")
		if ce == nil {
			return
		}
		ce.Write(
			zap.String("op", "market.Solve"),
			zap.String("scenario", scenario),
			zap.String("loop", string(it.Loop)),
			zap.Int("outer", it.Outer),
			zap.Int("inner", it.Inner),
			zap.Float64("tightness", it.Tightness),
			zap.Float64("reservation", it.Reservation),
			zap.Float64("proposed", it.Proposed),
			zap.Float64("diff", it.Diff),
		)
	})
}

func describe(p any) string {
	if s, ok := p.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", p)
}
