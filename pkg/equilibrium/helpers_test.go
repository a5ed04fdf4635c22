package equilibrium

import (
	"testing"

	"github.com/mauriciotejada/labor-economics/pkg/distribution"
)

// baselineParameters returns b=1, λ=0.05, A=1, α=0.5, β=0.5, r=0.1, c=1 with
// log-normal productivity (μ=0.8, σ=0.5).
func baselineParameters(t *testing.T) Parameters {
	t.Helper()
	productivity, err := distribution.LogNormal(0.8, 0.5)
	if err != nil {
		t.Fatalf("failed to build productivity distribution: %v", err)
	}
	return Parameters{
		UnemploymentIncome: 1,
		SeparationRate:     0.05,
		MatchingScale:      1,
		MatchingElasticity: 0.5,
		BargainingPower:    0.5,
		DiscountRate:       0.1,
		VacancyCost:        1,
		Productivity:       productivity,
	}
}

// uniformUnit is a uniform distribution on (0, 1) with no optional
// capabilities.
type uniformUnit struct{}

func (uniformUnit) Prob(y float64) float64 {
	if y <= 0 || y >= 1 {
		return 0
	}
	return 1
}

func (uniformUnit) CDF(y float64) float64 {
	switch {
	case y <= 0:
		return 0
	case y >= 1:
		return 1
	default:
		return y
	}
}
