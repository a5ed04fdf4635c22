package equilibrium

// Iteration describes one step of either solver loop.
//
// For the reservation loop, Tightness is the value held fixed, Proposed is
// the undamped reservation update and Reservation the damped next iterate.
// For the tightness loop, Proposed is the root of the job-creation
// condition, Tightness the damped next iterate and Reservation the
// converged inner value.
type Iteration struct {
	Loop        Loop
	Outer       int
	Inner       int
	Tightness   float64
	Reservation float64
	Proposed    float64
	Diff        float64
}

// Observer receives per-iteration diagnostics. It must not retain or
// mutate solver state; it is called synchronously from the solve.
type Observer interface {
	Observe(Iteration)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Iteration)

// Observe calls f(it).
func (f ObserverFunc) Observe(it Iteration) {
	f(it)
}

type nopObserver struct{}

func (nopObserver) Observe(Iteration) {}
