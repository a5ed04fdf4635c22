package equilibrium

import (
	"math"
	"strconv"

	"github.com/mauriciotejada/labor-economics/pkg/distribution"
	"github.com/mauriciotejada/labor-economics/pkg/mathutil"
	"github.com/mauriciotejada/labor-economics/pkg/quadrature"
)

// ReservationResidual returns the reservation productivity implied by the
// reservation-value equation when reservation is the current guess:
//
//	b + A·θ^α·β/(λ+r) · ∫_{yR}^{∞} (y − yR)·f(y) dy
func ReservationResidual(reservation, tightness float64, params Parameters) (float64, error) {
	return reservationResidual(reservation, tightness, params, residualSettings())
}

// JobCreationResidual returns the gap between the vacancy cost and the
// expected discounted value of posting a vacancy:
//
//	c − A·θ^α·(1−β)/(θ·(r+λ)) · ∫_{yR}^{∞} (y − yR)·f(y) dy
//
// It is zero at the equilibrium tightness for the given reservation
// productivity. A non-positive tightness returns a *ParameterError.
func JobCreationResidual(tightness, reservation float64, params Parameters) (float64, error) {
	if err := checkTightness(tightness); err != nil {
		return 0, err
	}
	surplus, err := ExpectedSurplus(reservation, params, residualSettings())
	if err != nil {
		return 0, &IntegrationError{Tightness: tightness, Reservation: reservation, Err: err}
	}
	return jobCreationGap(tightness, surplus, params)
}

// ExpectedSurplus evaluates ∫_{yR}^{∞} (y − yR)·f(y) dy. Integration starts at
// the support lower bound when the distribution reports one above yR. Unless
// s sets a scale, the distribution mean scales the change of variables.
func ExpectedSurplus(reservation float64, params Parameters, s quadrature.Settings) (float64, error) {
	if !mathutil.IsFinite(reservation) {
		return 0, quadrature.ErrNonFinite
	}
	if m, ok := params.Productivity.(distribution.Meaner); ok {
		mean := m.Mean()
		if math.IsInf(mean, 1) {
			return 0, ErrInfiniteMean
		}
		if s.Scale <= 0 && mean > 0 && mathutil.IsFinite(mean) {
			s.Scale = mean
		}
	}

	lower := reservation
	if lb, ok := params.Productivity.(distribution.LowerBounder); ok {
		lower = mathutil.Max(lower, lb.LowerBound())
	}
	integrand := func(y float64) float64 {
		return (y - reservation) * params.Productivity.Prob(y)
	}
	est, err := quadrature.Tail(integrand, lower, s)
	if err != nil {
		return 0, err
	}
	return est.Value, nil
}

func reservationResidual(reservation, tightness float64, params Parameters, s quadrature.Settings) (float64, error) {
	if err := checkTightness(tightness); err != nil {
		return 0, err
	}
	rate, err := params.matchingRate(tightness)
	if err != nil {
		return 0, err
	}
	surplus, err := ExpectedSurplus(reservation, params, s)
	if err != nil {
		return 0, &IntegrationError{Tightness: tightness, Reservation: reservation, Err: err}
	}
	return reservationUpdate(reservationCoefficient(rate, params), surplus, params)
}

// reservationCoefficient is A·θ^α·β/(λ+r) for a precomputed matching rate.
func reservationCoefficient(rate float64, params Parameters) float64 {
	return rate * params.BargainingPower / (params.SeparationRate + params.DiscountRate)
}

func reservationUpdate(coefficient, surplus float64, params Parameters) (float64, error) {
	next := params.UnemploymentIncome + coefficient*surplus
	if !mathutil.IsFinite(next) {
		return 0, &ParameterError{Field: "reservation", Value: next, Reason: "reservation update is not finite"}
	}
	return next, nil
}

func jobCreationGap(tightness, surplus float64, params Parameters) (float64, error) {
	if err := checkTightness(tightness); err != nil {
		return 0, err
	}
	rate, err := params.matchingRate(tightness)
	if err != nil {
		return 0, err
	}
	value := rate * (1 - params.BargainingPower) / (tightness * (params.DiscountRate + params.SeparationRate)) * surplus
	gap := params.VacancyCost - value
	if !mathutil.IsFinite(gap) {
		return 0, &ParameterError{Field: "tightness", Value: tightness, Reason: "job-creation residual is not finite"}
	}
	return gap, nil
}

func checkTightness(tightness float64) error {
	if !(tightness > 0) || !mathutil.IsFinite(tightness) {
		return &ParameterError{Field: "tightness", Value: tightness, Reason: "must be positive and finite"}
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// residualSettings are the quadrature defaults without a fixed scale, so
// the productivity mean sets it.
func residualSettings() quadrature.Settings {
	s := quadrature.DefaultSettings()
	s.Scale = 0
	return s
}
