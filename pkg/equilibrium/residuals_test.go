package equilibrium

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/mauriciotejada/labor-economics/pkg/distribution"
	"github.com/mauriciotejada/labor-economics/pkg/quadrature"
	"gonum.org/v1/gonum/floats/scalar"
)

func TestExpectedSurplusExponential(t *testing.T) {
	params := baselineParameters(t)
	rate := 0.5
	productivity, err := distribution.Exponential(rate)
	if err != nil {
		t.Fatalf("Exponential() error = %v", err)
	}
	params.Productivity = productivity

	tests := []struct {
		name        string
		reservation float64
		expected    float64
	}{
		{"Inside support", 2.0, math.Exp(-rate*2.0) / rate},
		{"At support bound", 0, 1 / rate},
		{"Below support", -1.0, 1/rate + 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpectedSurplus(tt.reservation, params, quadrature.DefaultSettings())
			if err != nil {
				t.Fatalf("ExpectedSurplus() error = %v", err)
			}
			if !scalar.EqualWithinAbs(got, tt.expected, 1e-8) {
				t.Errorf("ExpectedSurplus(%v) = %.12f, expected %.12f", tt.reservation, got, tt.expected)
			}
		})
	}
}

func TestExpectedSurplusInfiniteMean(t *testing.T) {
	params := baselineParameters(t)
	heavy, err := distribution.Pareto(1, 0.8)
	if err != nil {
		t.Fatalf("Pareto() error = %v", err)
	}
	params.Productivity = heavy

	if _, err := ExpectedSurplus(2, params, quadrature.DefaultSettings()); !errors.Is(err, ErrInfiniteMean) {
		t.Errorf("expected ErrInfiniteMean, got %v", err)
	}

	_, err = ReservationResidual(2, 1, params)
	var integrationErr *IntegrationError
	if !errors.As(err, &integrationErr) {
		t.Fatalf("expected *IntegrationError, got %v", err)
	}
	if integrationErr.Tightness != 1 || integrationErr.Reservation != 2 {
		t.Errorf("unexpected iterate in error: %+v", integrationErr)
	}
}

func TestReservationResidual(t *testing.T) {
	params := baselineParameters(t)
	rate := 0.5
	productivity, err := distribution.Exponential(rate)
	if err != nil {
		t.Fatalf("Exponential() error = %v", err)
	}
	params.Productivity = productivity

	reservation, tightness := 1.5, 2.0
	coefficient := params.MatchingScale * math.Pow(tightness, params.MatchingElasticity) *
		params.BargainingPower / (params.SeparationRate + params.DiscountRate)
	expected := params.UnemploymentIncome + coefficient*math.Exp(-rate*reservation)/rate

	got, err := ReservationResidual(reservation, tightness, params)
	if err != nil {
		t.Fatalf("ReservationResidual() error = %v", err)
	}
	if !scalar.EqualWithinAbs(got, expected, 1e-8) {
		t.Errorf("ReservationResidual() = %.12f, expected %.12f", got, expected)
	}
}

func TestJobCreationResidual(t *testing.T) {
	params := baselineParameters(t)
	rate := 0.5
	productivity, err := distribution.Exponential(rate)
	if err != nil {
		t.Fatalf("Exponential() error = %v", err)
	}
	params.Productivity = productivity

	reservation, tightness := 1.5, 2.0
	value := params.MatchingScale * math.Pow(tightness, params.MatchingElasticity) * (1 - params.BargainingPower) /
		(tightness * (params.DiscountRate + params.SeparationRate)) * math.Exp(-rate*reservation) / rate
	expected := params.VacancyCost - value

	got, err := JobCreationResidual(tightness, reservation, params)
	if err != nil {
		t.Fatalf("JobCreationResidual() error = %v", err)
	}
	if !scalar.EqualWithinAbs(got, expected, 1e-8) {
		t.Errorf("JobCreationResidual() = %.12f, expected %.12f", got, expected)
	}
}

func TestJobCreationResidualRejectsNonPositiveTightness(t *testing.T) {
	params := baselineParameters(t)

	for _, tightness := range []float64{0, -0.5, math.NaN(), math.Inf(1)} {
		got, err := JobCreationResidual(tightness, 2, params)
		var paramErr *ParameterError
		if !errors.As(err, &paramErr) {
			t.Fatalf("JobCreationResidual(%v) error = %v, expected *ParameterError", tightness, err)
		}
		if paramErr.Field != "tightness" {
			t.Errorf("ParameterError.Field = %s, expected tightness", paramErr.Field)
		}
		if got != 0 {
			t.Errorf("JobCreationResidual(%v) returned %v alongside an error", tightness, got)
		}
	}
}

func TestJobCreationResidualSignChange(t *testing.T) {
	params := baselineParameters(t)
	result, err := SolveModel(context.Background(), params, DefaultOptions())
	if err != nil {
		t.Fatalf("SolveModel() error = %v", err)
	}

	below, err := JobCreationResidual(0.9*result.Tightness, result.ReservationProductivity, params)
	if err != nil {
		t.Fatalf("JobCreationResidual() below error = %v", err)
	}
	above, err := JobCreationResidual(1.1*result.Tightness, result.ReservationProductivity, params)
	if err != nil {
		t.Fatalf("JobCreationResidual() above error = %v", err)
	}
	if !(below < 0 && above > 0) {
		t.Errorf("expected a sign change around %v: residual %v below, %v above", result.Tightness, below, above)
	}

	at, err := JobCreationResidual(result.Tightness, result.ReservationProductivity, params)
	if err != nil {
		t.Fatalf("JobCreationResidual() at equilibrium error = %v", err)
	}
	if math.Abs(at) > 1e-5 {
		t.Errorf("residual at equilibrium = %v, expected ~0", at)
	}
}

func TestExpectedSurplusHeavyTails(t *testing.T) {
	phi := func(x float64) float64 { return 0.5 * math.Erfc(-x/math.Sqrt2) }
	logNormalExcess := func(mu, sigma, k float64) float64 {
		d1 := (mu + sigma*sigma - math.Log(k)) / sigma
		return math.Exp(mu+sigma*sigma/2)*phi(d1) - k*phi(d1-sigma)
	}

	tests := []struct {
		name        string
		build       func() (distribution.Distribution, error)
		reservation float64
		expected    float64
	}{
		{"Pareto shape 1.5", func() (distribution.Distribution, error) { return distribution.Pareto(1, 1.5) }, 1, 2},
		{"Pareto shape 2.5", func() (distribution.Distribution, error) { return distribution.Pareto(1, 2.5) }, 1, 2.0 / 3},
		{"Pareto shape 2.5 above scale", func() (distribution.Distribution, error) { return distribution.Pareto(1, 2.5) }, 3, math.Pow(3, -1.5) / 1.5},
		{"Log-normal sigma 1", func() (distribution.Distribution, error) { return distribution.LogNormal(0.8, 1) }, 1, logNormalExcess(0.8, 1, 1)},
		{"Log-normal sigma 1 far tail", func() (distribution.Distribution, error) { return distribution.LogNormal(0.8, 1) }, 7.993, logNormalExcess(0.8, 1, 7.993)},
		{"Log-normal sigma 1.5", func() (distribution.Distribution, error) { return distribution.LogNormal(0.8, 1.5) }, 2, logNormalExcess(0.8, 1.5, 2)},
		{"Log-normal mu 4", func() (distribution.Distribution, error) { return distribution.LogNormal(4, 0.5) }, 1, logNormalExcess(4, 0.5, 1)},
		{"Log-normal mu 3", func() (distribution.Distribution, error) { return distribution.LogNormal(3, 0.5) }, 2, logNormalExcess(3, 0.5, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			productivity, err := tt.build()
			if err != nil {
				t.Fatalf("failed to build distribution: %v", err)
			}
			params := baselineParameters(t)
			params.Productivity = productivity

			got, err := ExpectedSurplus(tt.reservation, params, quadrature.Settings{})
			if err != nil {
				t.Fatalf("ExpectedSurplus() error = %v", err)
			}
			if !scalar.EqualWithinAbsOrRel(got, tt.expected, 1e-8, 1e-8) {
				t.Errorf("ExpectedSurplus(%v) = %.12f, expected %.12f", tt.reservation, got, tt.expected)
			}
		})
	}
}

func TestReservationResidualPareto(t *testing.T) {
	params := baselineParameters(t)
	productivity, err := distribution.Pareto(1, 2.5)
	if err != nil {
		t.Fatalf("Pareto() error = %v", err)
	}
	params.Productivity = productivity

	// b + A·θ^α·β/(λ+r) · 2/3 at θ = 1.
	expected := 1 + 0.5/0.15*2.0/3

	got, err := ReservationResidual(1, 1, params)
	if err != nil {
		t.Fatalf("ReservationResidual() error = %v", err)
	}
	if !scalar.EqualWithinAbs(got, expected, 1e-8) {
		t.Errorf("ReservationResidual() = %.12f, expected %.12f", got, expected)
	}
}
