// Package quadrature integrates scalar functions over semi-infinite
// intervals with an explicit error estimate.
package quadrature

import (
	"errors"
	"fmt"
	"math"

	"github.com/mauriciotejada/labor-economics/pkg/constants"
	"github.com/mauriciotejada/labor-economics/pkg/mathutil"
	"gonum.org/v1/gonum/integrate/quad"
)

var (
	// ErrNotConverged is returned when adaptive subdivision cannot bring the
	// error estimate within tolerance.
	ErrNotConverged = errors.New("quadrature: integral did not converge")

	// ErrNonFinite is returned when the integrand or the estimate is NaN or
	// infinite.
	ErrNonFinite = errors.New("quadrature: non-finite integral")
)

// Settings controls the quadrature resolution and acceptance test.
type Settings struct {
	// Points is the number of Gauss-Legendre nodes per panel.
	Points       int
	RelTolerance float64
	AbsTolerance float64
	// Scale is the distance beyond lower over which the integrand's mass
	// spreads. It shapes the change of variables only, never the result.
	Scale     float64
	MaxPanels int
}

// DefaultSettings returns the settings used outside a solve.
func DefaultSettings() Settings {
	return Settings{
		Points:       constants.DefaultQuadraturePoints,
		RelTolerance: constants.DefaultQuadratureRelTolerance,
		AbsTolerance: constants.DefaultQuadratureAbsTolerance,
		Scale:        1,
		MaxPanels:    constants.DefaultQuadratureMaxPanels,
	}
}

func (s Settings) normalized() Settings {
	def := DefaultSettings()
	if s.Points <= 0 {
		s.Points = def.Points
	}
	if s.RelTolerance <= 0 {
		s.RelTolerance = def.RelTolerance
	}
	if s.AbsTolerance <= 0 {
		s.AbsTolerance = def.AbsTolerance
	}
	if !(s.Scale > 0) || !mathutil.IsFinite(s.Scale) {
		s.Scale = def.Scale
	}
	if s.MaxPanels <= 0 {
		s.MaxPanels = def.MaxPanels
	}
	return s
}

// Estimate is an integral value together with its absolute error estimate.
type Estimate struct {
	Value    float64
	AbsError float64
	Panels   int
}

// minPanelWidth is the narrowest panel that may still be bisected.
const minPanelWidth = 1e-12

// Tail approximates the integral of f from lower to +Inf.
//
// The interval is mapped onto [0, 1) by y = lower + scale·((1−t)^−2 − 1),
// which turns tails decaying like y^−1.5 or faster into bounded integrands.
// Each panel is integrated with a Gauss-Legendre rule on the whole panel and
// on its two halves; the difference is the panel's error estimate. The panel
// with the largest error is bisected until the summed error meets the
// tolerance. A tail that decays too slowly keeps its error concentrated near
// t = 1 and is reported as ErrNotConverged once the panel budget or the
// panel width runs out.
func Tail(f func(float64) float64, lower float64, s Settings) (Estimate, error) {
	if !mathutil.IsFinite(lower) {
		return Estimate{}, fmt.Errorf("%w: lower bound %v", ErrNonFinite, lower)
	}
	s = s.normalized()

	r := newRule(f, lower, s)
	panels := []panel{r.panel(0, 1)}
	for {
		est := sum(panels)
		if !mathutil.AllFinite(est.Value, est.AbsError) {
			return est, fmt.Errorf("%w: estimate %v with error %v from %v", ErrNonFinite, est.Value, est.AbsError, lower)
		}
		if est.AbsError <= math.Max(s.AbsTolerance, s.RelTolerance*math.Abs(est.Value)) {
			return est, nil
		}
		if len(panels) >= s.MaxPanels {
			return est, fmt.Errorf("%w: error %g on %v after %d panels from %v",
				ErrNotConverged, est.AbsError, est.Value, len(panels), lower)
		}

		i := worst(panels)
		p := panels[i]
		mid := p.lo + (p.hi-p.lo)/2
		if p.hi-p.lo < minPanelWidth || !(p.lo < mid && mid < p.hi) {
			return est, fmt.Errorf("%w: error %g on %v concentrated in [%v, %v] from %v",
				ErrNotConverged, est.AbsError, est.Value, p.lo, p.hi, lower)
		}
		panels[i] = r.panel(p.lo, mid)
		panels = append(panels, r.panel(mid, p.hi))
	}
}

type panel struct {
	lo, hi float64
	value  float64
	err    float64
}

func sum(panels []panel) Estimate {
	est := Estimate{Panels: len(panels)}
	for _, p := range panels {
		est.Value += p.value
		est.AbsError += p.err
	}
	return est
}

func worst(panels []panel) int {
	idx := 0
	for i, p := range panels {
		if p.err > panels[idx].err {
			idx = i
		}
	}
	return idx
}

// rule holds the mapped integrand and the Gauss-Legendre nodes on [-1, 1].
type rule struct {
	f       func(float64) float64
	lower   float64
	scale   float64
	nodes   []float64
	weights []float64
}

func newRule(f func(float64) float64, lower float64, s Settings) rule {
	r := rule{
		f:       f,
		lower:   lower,
		scale:   s.Scale,
		nodes:   make([]float64, s.Points),
		weights: make([]float64, s.Points),
	}
	quad.Legendre{}.FixedLocations(r.nodes, r.weights, -1, 1)
	return r
}

// mapped is the integrand in t, including the Jacobian
// dy/dt = 2·scale·(1−t)^−3.
func (r rule) mapped(t float64) float64 {
	u := 1 - t
	y := r.lower + r.scale*(1/(u*u)-1)
	return r.f(y) * 2 * r.scale / (u * u * u)
}

func (r rule) gauss(lo, hi float64) float64 {
	center, half := (lo+hi)/2, (hi-lo)/2
	total := 0.0
	for i, x := range r.nodes {
		total += r.weights[i] * r.mapped(center+half*x)
	}
	return half * total
}

func (r rule) panel(lo, hi float64) panel {
	mid := lo + (hi-lo)/2
	whole := r.gauss(lo, hi)
	left, right := r.gauss(lo, mid), r.gauss(mid, hi)
	return panel{lo: lo, hi: hi, value: left + right, err: math.Abs(whole - left - right)}
}
