package equilibrium

import (
	"errors"
	"fmt"
	"math"
)

// ErrInfiniteMean reports a productivity distribution whose mean is infinite,
// for which the expected surplus above any reservation level diverges.
var ErrInfiniteMean = errors.New("productivity distribution has an infinite mean")

// Loop identifies one of the two solver loops.
type Loop string

const (
	// LoopReservation is the inner fixed point over reservation productivity.
	LoopReservation Loop = "reservation"

	// LoopTightness is the outer iteration over market tightness.
	LoopTightness Loop = "tightness"
)

// ParameterError reports structurally invalid input or a parameter
// combination that produces non-finite model quantities.
type ParameterError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ParameterError) Error() string {
	if math.IsNaN(e.Value) {
		return fmt.Sprintf("equilibrium: invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("equilibrium: invalid %s = %v: %s", e.Field, e.Value, e.Reason)
}

// IntegrationError reports a tail integral that failed to converge for the
// given iterate.
type IntegrationError struct {
	Tightness   float64
	Reservation float64
	Err         error
}

func (e *IntegrationError) Error() string {
	return fmt.Sprintf("equilibrium: expected surplus integral failed at tightness=%g reservation=%g: %v",
		e.Tightness, e.Reservation, e.Err)
}

func (e *IntegrationError) Unwrap() error {
	return e.Err
}

// RootFindingError reports that no tightness solving the job-creation
// condition could be located from the given guess.
type RootFindingError struct {
	Guess       float64
	Reservation float64
	Err         error
}

func (e *RootFindingError) Error() string {
	return fmt.Sprintf("equilibrium: job-creation root not found from tightness=%g at reservation=%g: %v",
		e.Guess, e.Reservation, e.Err)
}

func (e *RootFindingError) Unwrap() error {
	return e.Err
}

// ConvergenceError reports a loop that hit its iteration cap before the
// change between iterates fell under the tolerance.
type ConvergenceError struct {
	Loop       Loop
	Iterations int
	Diff       float64
	Tolerance  float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("equilibrium: %s loop did not converge after %d iterations (last change %g, tolerance %g)",
		e.Loop, e.Iterations, e.Diff, e.Tolerance)
}
