package optimizer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mauriciotejada/labor-economics/internal/config"
	"github.com/mauriciotejada/labor-economics/pkg/distribution"
	"github.com/mauriciotejada/labor-economics/pkg/equilibrium"
	"github.com/mauriciotejada/labor-economics/pkg/rootfind"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gonum.org/v1/gonum/floats/scalar"
)

func testConfiguration() *config.Configuration {
	return &config.Configuration{
		Common: config.Common{
			Parameters: config.ModelParameters{
				UnemploymentIncome: 1,
				SeparationRate:     0.05,
				MatchingScale:      1,
				MatchingElasticity: 0.5,
				BargainingPower:    0.5,
				DiscountRate:       0.1,
				VacancyCost:        1,
			},
			Productivity: distribution.Config{Kind: "lognormal", Mu: 0.8, Sigma: 0.5},
		},
	}
}

func calibratedScenario(c config.Calibration) config.Scenario {
	return config.Scenario{Name: "calibrated", Active: true, Calibration: &c}
}

func TestNewRunner(t *testing.T) {
	if _, err := NewRunner(zap.NewNop(), nil); err == nil {
		t.Fatalf("expected error for nil configuration")
	}
	runner, err := NewRunner(nil, testConfiguration())
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	if runner.logger == nil {
		t.Fatalf("expected a no-op logger when none is given")
	}
}

func TestCalibrateVacancyCostToUnemployment(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	runner, err := NewRunner(zap.New(core), testConfiguration())
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}

	scenario := calibratedScenario(config.Calibration{
		Parameter: "vacancyCost",
		Outcome:   config.OutcomeUnemployment,
		Target:    0.08,
		Min:       0.1,
		Max:       5,
	})

	calibrated, summary, err := runner.Calibrate(context.Background(), scenario)
	if err != nil {
		t.Fatalf("Calibrate() error = %v", err)
	}

	if !scalar.EqualWithinAbs(summary.Value, 0.3019, 1e-3) {
		t.Errorf("calibrated vacancy cost = %v, want about 0.3019", summary.Value)
	}
	if !scalar.EqualWithinAbs(summary.Achieved, 0.08, 1e-5) {
		t.Errorf("achieved unemployment = %v, want 0.08", summary.Achieved)
	}
	if summary.Original != 1 {
		t.Errorf("original vacancy cost = %v, want 1", summary.Original)
	}
	if summary.Parameter != "vacancyCost" || summary.Outcome != config.OutcomeUnemployment || summary.Target != 0.08 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if summary.Evaluations < 3 {
		t.Errorf("expected several evaluations, got %d", summary.Evaluations)
	}
	if !scalar.EqualWithinAbs(summary.Residual(), 0, 1e-5) {
		t.Errorf("residual = %v", summary.Residual())
	}

	if calibrated.Calibration != nil {
		t.Errorf("calibrated scenario should not carry the calibration directive")
	}
	if calibrated.Parameters.VacancyCost == nil || *calibrated.Parameters.VacancyCost != summary.Value {
		t.Errorf("calibrated scenario override = %v, want %v", calibrated.Parameters.VacancyCost, summary.Value)
	}
	if scenario.Parameters.VacancyCost != nil || scenario.Calibration == nil {
		t.Errorf("input scenario was modified")
	}

	if logs.FilterMessage("calibration step").Len() != summary.Evaluations {
		t.Errorf("logged %d steps, want %d", logs.FilterMessage("calibration step").Len(), summary.Evaluations)
	}
	if logs.FilterMessage("optimizer calibrated parameter").Len() != 1 {
		t.Errorf("expected one calibration summary log")
	}
}

func TestCalibratedScenarioReproducesTarget(t *testing.T) {
	conf := testConfiguration()
	runner, err := NewRunner(zap.NewNop(), conf)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}

	calibrated, summary, err := runner.Calibrate(context.Background(), calibratedScenario(config.Calibration{
		Parameter: "unemploymentIncome",
		Outcome:   config.OutcomeReservationProductivity,
		Target:    2.9,
		Min:       0.5,
		Max:       1.5,
	}))
	if err != nil {
		t.Fatalf("Calibrate() error = %v", err)
	}
	if !(summary.Value > 1 && summary.Value < 1.5) {
		t.Errorf("calibrated unemployment income = %v, want in (1, 1.5)", summary.Value)
	}

	params, err := conf.ScenarioParameters(calibrated)
	if err != nil {
		t.Fatalf("ScenarioParameters() error = %v", err)
	}
	result, err := equilibrium.SolveModel(context.Background(), params, conf.SolverOptions())
	if err != nil {
		t.Fatalf("SolveModel() error = %v", err)
	}
	if !scalar.EqualWithinAbs(result.ReservationProductivity, 2.9, 1e-5) {
		t.Errorf("re-solved reservation productivity = %v, want 2.9", result.ReservationProductivity)
	}
}

func TestCalibrateErrors(t *testing.T) {
	runner, err := NewRunner(zap.NewNop(), testConfiguration())
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}

	tests := []struct {
		name     string
		scenario config.Scenario
		message  string
		target   error
	}{
		{
			name:     "No calibration",
			scenario: config.Scenario{Name: "plain"},
			message:  "has no calibration",
		},
		{
			name: "Unknown parameter",
			scenario: calibratedScenario(config.Calibration{
				Parameter: "wage", Outcome: config.OutcomeUnemployment, Target: 0.1, Min: 0, Max: 1,
			}),
			message: "calibration parameter",
		},
		{
			name: "Unknown outcome",
			scenario: calibratedScenario(config.Calibration{
				Parameter: "vacancyCost", Outcome: "wages", Target: 0.1, Min: 0.1, Max: 1,
			}),
			message: "calibration outcome",
		},
		{
			name: "Empty interval",
			scenario: calibratedScenario(config.Calibration{
				Parameter: "vacancyCost", Outcome: config.OutcomeUnemployment, Target: 0.1, Min: 2, Max: 1,
			}),
			message: "min < max",
		},
		{
			name: "Unreachable target",
			scenario: calibratedScenario(config.Calibration{
				Parameter: "vacancyCost", Outcome: config.OutcomeUnemployment, Target: 0.5, Min: 0.1, Max: 5,
			}),
			target: rootfind.ErrNoBracket,
		},
		{
			name: "Invalid parameter inside interval",
			scenario: calibratedScenario(config.Calibration{
				Parameter: "matchingElasticity", Outcome: config.OutcomeUnemployment, Target: 0.1, Min: 0.5, Max: 1.5,
			}),
			message: "matchingElasticity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runner.Calibrate(context.Background(), tt.scenario)
			if err == nil {
				t.Fatalf("expected error")
			}
			if tt.message != "" && !strings.Contains(err.Error(), tt.message) {
				t.Errorf("error %q does not contain %q", err, tt.message)
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("error %v is not %v", err, tt.target)
			}
		})
	}
}

func TestCalibrateCancelled(t *testing.T) {
	runner, err := NewRunner(zap.NewNop(), testConfiguration())
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err = runner.Calibrate(ctx, calibratedScenario(config.Calibration{
		Parameter: "vacancyCost", Outcome: config.OutcomeUnemployment, Target: 0.08, Min: 0.1, Max: 5,
	}))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestOutcome(t *testing.T) {
	result := equilibrium.Result{ReservationProductivity: 1, Tightness: 2, Unemployment: 0.3, Vacancies: 0.6}
	tests := map[string]float64{
		config.OutcomeReservationProductivity: 1,
		config.OutcomeTightness:               2,
		config.OutcomeUnemployment:            0.3,
		config.OutcomeVacancies:               0.6,
	}
	for name, want := range tests {
		got, err := Outcome(result, name)
		if err != nil || got != want {
			t.Errorf("Outcome(%s) = %v, %v; want %v", name, got, err, want)
		}
	}
	if _, err := Outcome(result, "wages"); err == nil {
		t.Errorf("expected error for unknown outcome")
	}
}
