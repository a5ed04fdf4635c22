// Package equilibrium solves a search-and-matching labor market model with
// endogenous job acceptance.
//
// The equilibrium is the reservation productivity yR, tightness θ,
// unemployment u and vacancy rate v satisfying the reservation-value
// equation, the job-creation condition and the steady-state flow identity.
// SolveModel nests a damped fixed point over yR inside a damped iteration
// over θ, locating each θ update with a root finder, then derives u and v in
// closed form.
//
// A solve owns all of its state; independent solves may run concurrently.
package equilibrium

import (
	"context"
	"fmt"
	"math"

	"github.com/mauriciotejada/labor-economics/pkg/constants"
	"github.com/mauriciotejada/labor-economics/pkg/mathutil"
	"github.com/mauriciotejada/labor-economics/pkg/quadrature"
	"github.com/mauriciotejada/labor-economics/pkg/rootfind"
)

// Options tunes SolveModel.
type Options struct {
	// Tolerance is the absolute convergence threshold of both loops.
	Tolerance float64
	// Step is the relaxation factor in (0, 1]; 1 disables damping.
	Step float64
	// MaxIterations caps each loop separately.
	MaxIterations int

	InitialTightness   float64
	InitialReservation float64

	// Observer, when set, receives every inner and outer step.
	Observer Observer

	RootFinder rootfind.Settings
	// Quadrature tolerances left at zero are derived from Tolerance.
	Quadrature quadrature.Settings
}

// DefaultOptions returns tolerance 1e-6, step 0.5 and both initial guesses
// at 1.
func DefaultOptions() Options {
	return Options{
		Tolerance:          constants.DefaultTolerance,
		Step:               constants.DefaultStep,
		MaxIterations:      constants.DefaultMaxIterations,
		InitialTightness:   constants.DefaultInitialTightness,
		InitialReservation: constants.DefaultInitialReservation,
		RootFinder:         rootfind.DefaultSettings(),
	}
}

// quadratureSettings returns the integration settings of a solve. Tolerances not
// set explicitly follow the solver tolerance.
func (o Options) quadratureSettings() quadrature.Settings {
	q := o.Quadrature
	if q.AbsTolerance <= 0 {
		q.AbsTolerance = o.Tolerance * constants.QuadratureToleranceRatio
	}
	if q.RelTolerance <= 0 {
		q.RelTolerance = o.Tolerance * constants.QuadratureToleranceRatio
	}
	return q
}

// Validate returns a *ParameterError for the first invalid option.
func (o Options) Validate() error {
	if !(o.Tolerance > 0) || !mathutil.IsFinite(o.Tolerance) {
		return &ParameterError{Field: "tolerance", Value: o.Tolerance, Reason: "must be positive and finite"}
	}
	if !(o.Step > 0 && o.Step <= 1) {
		return &ParameterError{Field: "step", Value: o.Step, Reason: "must lie in (0, 1]"}
	}
	if o.MaxIterations <= 0 {
		return &ParameterError{Field: "maxIterations", Value: float64(o.MaxIterations), Reason: "must be positive"}
	}
	if !(o.InitialTightness > 0) || !mathutil.IsFinite(o.InitialTightness) {
		return &ParameterError{Field: "initialTightness", Value: o.InitialTightness, Reason: "must be positive and finite"}
	}
	if !mathutil.IsFinite(o.InitialReservation) {
		return &ParameterError{Field: "initialReservation", Value: o.InitialReservation, Reason: "must be finite"}
	}
	return nil
}

// Result is a converged equilibrium.
type Result struct {
	ReservationProductivity float64
	Tightness               float64
	Unemployment            float64
	Vacancies               float64

	OuterIterations int
	InnerIterations int
}

// SolveModel computes the equilibrium for params.
//
// Both loops test convergence on the undamped proposal and then advance
// with the damped value. The reservation fixed point is fully re-converged
// for every tightness iterate before the root finder runs. The context is
// checked on every step so a deadline bounds the wall-clock time of a solve.
func SolveModel(ctx context.Context, params Parameters, opts Options) (Result, error) {
	if err := params.Validate(); err != nil {
		return Result{}, err
	}
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	obs := opts.Observer
	if obs == nil {
		obs = nopObserver{}
	}

	s := solve{params: params, opts: opts, quad: opts.quadratureSettings(), obs: obs}
	return s.run(ctx)
}

// solve carries the iteration state of a single SolveModel call.
type solve struct {
	params Parameters
	opts   Options
	quad   quadrature.Settings
	obs    Observer

	tightness   float64
	reservation float64
	inner       int
}

func (s *solve) run(ctx context.Context) (Result, error) {
	s.tightness = s.opts.InitialTightness
	s.reservation = s.opts.InitialReservation

	diff := math.Inf(1)
	for outer := 1; outer <= s.opts.MaxIterations; outer++ {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("equilibrium: solve interrupted after %d tightness iterations: %w", outer-1, err)
		}

		if err := s.convergeReservation(ctx, outer); err != nil {
			return Result{}, err
		}

		proposed, err := s.solveTightness()
		if err != nil {
			return Result{}, err
		}

		diff = math.Abs(proposed - s.tightness)
		s.tightness = mathutil.Damp(s.opts.Step, proposed, s.tightness)
		s.obs.Observe(Iteration{
			Loop:        LoopTightness,
			Outer:       outer,
			Tightness:   s.tightness,
			Reservation: s.reservation,
			Proposed:    proposed,
			Diff:        diff,
		})

		if diff <= s.opts.Tolerance {
			return s.aggregate(proposed, outer)
		}
	}

	return Result{}, &ConvergenceError{
		Loop:       LoopTightness,
		Iterations: s.opts.MaxIterations,
		Diff:       diff,
		Tolerance:  s.opts.Tolerance,
	}
}

// convergeReservation runs the damped fixed point over the reservation
// productivity at the current tightness.
func (s *solve) convergeReservation(ctx context.Context, outer int) error {
	rate, err := s.params.matchingRate(s.tightness)
	if err != nil {
		return err
	}
	coefficient := reservationCoefficient(rate, s.params)

	diff := math.Inf(1)
	for inner := 1; inner <= s.opts.MaxIterations; inner++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("equilibrium: solve interrupted in reservation loop: %w", err)
		}

		surplus, err := ExpectedSurplus(s.reservation, s.params, s.quad)
		if err != nil {
			return &IntegrationError{Tightness: s.tightness, Reservation: s.reservation, Err: err}
		}
		proposed, err := reservationUpdate(coefficient, surplus, s.params)
		if err != nil {
			return err
		}

		diff = math.Abs(proposed - s.reservation)
		s.reservation = mathutil.Damp(s.opts.Step, proposed, s.reservation)
		s.inner++
		s.obs.Observe(Iteration{
			Loop:        LoopReservation,
			Outer:       outer,
			Inner:       inner,
			Tightness:   s.tightness,
			Reservation: s.reservation,
			Proposed:    proposed,
			Diff:        diff,
		})

		if diff < s.opts.Tolerance {
			return nil
		}
	}

	return &ConvergenceError{
		Loop:       LoopReservation,
		Iterations: s.opts.MaxIterations,
		Diff:       diff,
		Tolerance:  s.opts.Tolerance,
	}
}

// solveTightness finds the tightness satisfying the job-creation condition
// at the current reservation productivity, starting from the current
// tightness. The expected surplus does not depend on tightness, so it is
// evaluated once per root search.
func (s *solve) solveTightness() (float64, error) {
	surplus, err := ExpectedSurplus(s.reservation, s.params, s.quad)
	if err != nil {
		return 0, &IntegrationError{Tightness: s.tightness, Reservation: s.reservation, Err: err}
	}

	gap := func(tightness float64) (float64, error) {
		return jobCreationGap(tightness, surplus, s.params)
	}
	root, err := rootfind.FindNear(gap, s.tightness, s.opts.RootFinder)
	if err != nil {
		return 0, &RootFindingError{Guess: s.tightness, Reservation: s.reservation, Err: err}
	}
	return root.Root, nil
}

// aggregate derives the steady-state unemployment and vacancy rates from
// the converged tightness and reservation productivity.
func (s *solve) aggregate(tightness float64, outer int) (Result, error) {
	rate, err := s.params.matchingRate(tightness)
	if err != nil {
		return Result{}, err
	}
	lambda := s.params.SeparationRate
	unemployment := lambda / (rate*s.params.acceptance(s.reservation) + lambda)
	vacancies := tightness * unemployment

	if !mathutil.AllFinite(unemployment, vacancies) || !(unemployment > 0 && unemployment < 1) {
		return Result{}, &ParameterError{
			Field:  "unemployment",
			Value:  unemployment,
			Reason: "steady-state unemployment must lie in (0, 1); no acceptable matches at the reservation productivity",
		}
	}

	return Result{
		ReservationProductivity: s.reservation,
		Tightness:               tightness,
		Unemployment:            unemployment,
		Vacancies:               vacancies,
		OuterIterations:         outer,
		InnerIterations:         s.inner,
	}, nil
}
