package equilibrium

import (
	"math"

	"github.com/mauriciotejada/labor-economics/pkg/distribution"
	"github.com/mauriciotejada/labor-economics/pkg/mathutil"
)

// Parameters holds the structural parameters of the model. The solver
// receives it by value and never modifies it.
type Parameters struct {
	UnemploymentIncome float64 // b, flow value while unemployed
	SeparationRate     float64 // λ
	MatchingScale      float64 // A
	MatchingElasticity float64 // α
	BargainingPower    float64 // β, worker share of the surplus
	DiscountRate       float64 // r
	VacancyCost        float64 // c

	// Productivity is the distribution of match productivity.
	Productivity distribution.Provider
}

// Validate returns a *ParameterError for the first invalid field.
func (p Parameters) Validate() error {
	if !mathutil.IsFinite(p.UnemploymentIncome) {
		return &ParameterError{Field: "unemploymentIncome", Value: p.UnemploymentIncome, Reason: "must be finite"}
	}
	positive := []struct {
		field string
		value float64
	}{
		{"separationRate", p.SeparationRate},
		{"matchingScale", p.MatchingScale},
		{"discountRate", p.DiscountRate},
		{"vacancyCost", p.VacancyCost},
	}
	for _, f := range positive {
		if !(f.value > 0) || !mathutil.IsFinite(f.value) {
			return &ParameterError{Field: f.field, Value: f.value, Reason: "must be positive and finite"}
		}
	}
	if !(p.MatchingElasticity > 0 && p.MatchingElasticity < 1) {
		return &ParameterError{Field: "matchingElasticity", Value: p.MatchingElasticity, Reason: "must lie in (0, 1)"}
	}
	if !(p.BargainingPower >= 0 && p.BargainingPower <= 1) {
		return &ParameterError{Field: "bargainingPower", Value: p.BargainingPower, Reason: "must lie in [0, 1]"}
	}

	probe := 1.0
	if m, ok := p.Productivity.(distribution.Meaner); ok {
		if mean := m.Mean(); mathutil.IsFinite(mean) && mean > 0 {
			probe = mean
		}
	}
	if err := distribution.Check(p.Productivity, probe); err != nil {
		return &ParameterError{Field: "productivity", Value: math.NaN(), Reason: err.Error()}
	}
	return nil
}

// matchingRate returns the job-finding rate per searcher A·θ^α.
func (p Parameters) matchingRate(tightness float64) (float64, error) {
	rate := p.MatchingScale * math.Pow(tightness, p.MatchingElasticity)
	if !mathutil.IsFinite(rate) {
		return 0, &ParameterError{Field: "matchingElasticity", Value: p.MatchingElasticity,
			Reason: "matching rate is not finite at tightness " + formatFloat(tightness)}
	}
	return rate, nil
}

// acceptance returns the probability that a match is acceptable at the
// given reservation productivity.
func (p Parameters) acceptance(reservation float64) float64 {
	return 1 - p.Productivity.CDF(reservation)
}
