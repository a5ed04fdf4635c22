// Package rootfind locates roots of scalar functions on the positive half
// line: the bracket is grown multiplicatively around an initial guess so no
// probe ever leaves (0, +Inf), then refined with Brent's method.
package rootfind

import (
	"errors"
	"fmt"
	"math"

	"github.com/mauriciotejada/labor-economics/pkg/constants"
	"github.com/mauriciotejada/labor-economics/pkg/mathutil"
)

var (
	// ErrInvalidGuess is returned for a non-positive or non-finite guess.
	ErrInvalidGuess = errors.New("rootfind: initial guess must be positive and finite")

	// ErrNoBracket is returned when no sign change was found.
	ErrNoBracket = errors.New("rootfind: no sign change found")

	// ErrNotConverged is returned when the iteration cap is reached.
	ErrNotConverged = errors.New("rootfind: iteration limit reached")

	// ErrNonFinite is returned when the function evaluates to NaN or Inf.
	ErrNonFinite = errors.New("rootfind: non-finite function value")
)

// Func is a scalar function that may fail. Errors are returned to the caller
// of the root finder unchanged (wrapped with context).
type Func func(x float64) (float64, error)

// Settings controls bracketing and refinement.
type Settings struct {
	Tolerance     float64
	MaxIterations int
	MaxExpansions int
	Factor        float64
}

// DefaultSettings returns the settings used by the equilibrium solver.
func DefaultSettings() Settings {
	return Settings{
		Tolerance:     constants.DefaultRootTolerance,
		MaxIterations: constants.DefaultRootMaxIterations,
		MaxExpansions: constants.DefaultBracketExpansions,
		Factor:        constants.DefaultBracketFactor,
	}
}

func (s Settings) normalized() Settings {
	def := DefaultSettings()
	if s.Tolerance <= 0 {
		s.Tolerance = def.Tolerance
	}
	if s.MaxIterations <= 0 {
		s.MaxIterations = def.MaxIterations
	}
	if s.MaxExpansions <= 0 {
		s.MaxExpansions = def.MaxExpansions
	}
	if s.Factor <= 1 {
		s.Factor = def.Factor
	}
	return s
}

// Result describes a located root.
type Result struct {
	Root        float64
	Value       float64
	Iterations  int
	Evaluations int
}

// Bracket is an interval [Lo, Hi] over which the function changes sign.
type Bracket struct {
	Lo, Hi   float64
	FLo, FHi float64
}

type counter struct {
	f     Func
	evals int
}

func (c *counter) eval(x float64) (float64, error) {
	c.evals++
	v, err := c.f(x)
	if err != nil {
		return 0, fmt.Errorf("evaluating at %v: %w", x, err)
	}
	if !mathutil.IsFinite(v) {
		return 0, fmt.Errorf("%w: f(%v) = %v", ErrNonFinite, x, v)
	}
	return v, nil
}

// FindNear finds a root of f starting from the positive guess x0.
func FindNear(f Func, x0 float64, s Settings) (Result, error) {
	s = s.normalized()
	c := &counter{f: f}

	br, exact, err := bracketPositive(c, x0, s)
	if err != nil {
		return Result{Evaluations: c.evals}, err
	}
	if exact != nil {
		exact.Evaluations = c.evals
		return *exact, nil
	}
	return brent(c, br, s)
}

// Brent refines a root of f inside [lo, hi], where f(lo) and f(hi) must
// differ in sign.
func Brent(f Func, lo, hi float64, s Settings) (Result, error) {
	s = s.normalized()
	c := &counter{f: f}
	flo, err := c.eval(lo)
	if err != nil {
		return Result{Evaluations: c.evals}, err
	}
	fhi, err := c.eval(hi)
	if err != nil {
		return Result{Evaluations: c.evals}, err
	}
	return brent(c, Bracket{Lo: lo, Hi: hi, FLo: flo, FHi: fhi}, s)
}

func bracketPositive(c *counter, x0 float64, s Settings) (Bracket, *Result, error) {
	if !(x0 > 0) || !mathutil.IsFinite(x0) {
		return Bracket{}, nil, fmt.Errorf("%w: got %v", ErrInvalidGuess, x0)
	}

	f0, err := c.eval(x0)
	if err != nil {
		return Bracket{}, nil, err
	}
	if f0 == 0 {
		return Bracket{}, &Result{Root: x0, Value: 0}, nil
	}

	up, fup := x0, f0
	down, fdown := x0, f0
	for k := 1; k <= s.MaxExpansions; k++ {
		next := up * s.Factor
		fnext, err := c.eval(next)
		if err != nil {
			return Bracket{}, nil, err
		}
		if fnext == 0 {
			return Bracket{}, &Result{Root: next, Value: 0}, nil
		}
		if !mathutil.SameSign(fup, fnext) {
			return Bracket{Lo: up, Hi: next, FLo: fup, FHi: fnext}, nil, nil
		}
		up, fup = next, fnext

		prev := down / s.Factor
		fprev, err := c.eval(prev)
		if err != nil {
			return Bracket{}, nil, err
		}
		if fprev == 0 {
			return Bracket{}, &Result{Root: prev, Value: 0}, nil
		}
		if !mathutil.SameSign(fprev, fdown) {
			return Bracket{Lo: prev, Hi: down, FLo: fprev, FHi: fdown}, nil, nil
		}
		down, fdown = prev, fprev
	}

	return Bracket{}, nil, fmt.Errorf("%w: searched [%g, %g] from %v", ErrNoBracket, down, up, x0)
}

func brent(c *counter, br Bracket, s Settings) (Result, error) {
	a, b := br.Lo, br.Hi
	fa, fb := br.FLo, br.FHi
	if fa == 0 {
		return Result{Root: a, Evaluations: c.evals}, nil
	}
	if fb == 0 {
		return Result{Root: b, Evaluations: c.evals}, nil
	}
	if mathutil.SameSign(fa, fb) {
		return Result{Evaluations: c.evals}, fmt.Errorf("%w: f(%v) = %v and f(%v) = %v", ErrNoBracket, a, fa, b, fb)
	}

	const eps = 2.220446049250313e-16
	cx, fc := b, fb
	var d, e float64
	for iter := 1; iter <= s.MaxIterations; iter++ {
		if mathutil.SameSign(fb, fc) {
			cx, fc = a, fa
			d = b - a
			e = d
		}
		if math.Abs(fc) < math.Abs(fb) {
			a, b, cx = b, cx, b
			fa, fb, fc = fb, fc, fb
		}

		tol := 2*eps*math.Abs(b) + 0.5*s.Tolerance
		xm := 0.5 * (cx - b)
		if math.Abs(xm) <= tol || fb == 0 {
			return Result{Root: b, Value: fb, Iterations: iter, Evaluations: c.evals}, nil
		}

		if math.Abs(e) >= tol && math.Abs(fa) > math.Abs(fb) {
			// Inverse quadratic interpolation, or secant when only two
			// distinct points are available.
			sr := fb / fa
			var p, q float64
			if a == cx {
				p = 2 * xm * sr
				q = 1 - sr
			} else {
				qa := fa / fc
				r := fb / fc
				p = sr * (2*xm*qa*(qa-r) - (b-a)*(r-1))
				q = (qa - 1) * (r - 1) * (sr - 1)
			}
			if p > 0 {
				q = -q
			}
			p = math.Abs(p)
			if 2*p < math.Min(3*xm*q-math.Abs(tol*q), math.Abs(e*q)) {
				e = d
				d = p / q
			} else {
				d = xm
				e = d
			}
		} else {
			d = xm
			e = d
		}

		a, fa = b, fb
		if math.Abs(d) > tol {
			b += d
		} else {
			b += math.Copysign(tol, xm)
		}
		var err error
		fb, err = c.eval(b)
		if err != nil {
			return Result{Iterations: iter, Evaluations: c.evals}, err
		}
	}

	return Result{Root: b, Value: fb, Iterations: s.MaxIterations, Evaluations: c.evals},
		fmt.Errorf("%w: %d iterations, last estimate %v", ErrNotConverged, s.MaxIterations, b)
}
