package sim

import "math"

// State is a dense vector of compartment values.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

// IsValid reports whether the state is free of NaN and Inf components.
func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Sum returns the total across all compartments.
func (s State) Sum() float64 {
	total := 0.0
	for _, v := range s {
		total += v
	}
	return total
}

// System defines the ordinary differential equations governing a model.
// Derive must be pure: no retained references to x, no side effects. The
// integrator evaluates it on trial states that may transiently leave the
// physically meaningful domain.
type System interface {
	Derive(x State, t float64) State
	Dim() int
}

// Bounded is implemented by systems whose states must stay inside a
// physical domain. The integrator rejects accepted steps that land on an
// inadmissible state and retries with a smaller step.
type Bounded interface {
	Admissible(x State) bool
}

// Conserver is implemented by systems with a conserved scalar quantity.
// The integrator checks drift of the conserved value against the initial
// state and treats violations as step-control defects.
type Conserver interface {
	Conserved(x State) float64
}

// Stats records what the integrator did to produce a trajectory.
type Stats struct {
	StepsAccepted int
	StepsRejected int
	Evaluations   int
	// StiffSwitch is true when the solver abandoned the explicit scheme
	// for the implicit one.
	StiffSwitch bool
}

// Trajectory is the solution sampled at the requested observation times,
// in increasing time order, one state per time.
type Trajectory struct {
	Times  []float64
	States []State
	Stats  Stats
}

// Len returns the number of observation points.
func (tr *Trajectory) Len() int { return len(tr.Times) }

// At returns the i-th observation time and state.
func (tr *Trajectory) At(i int) (float64, State) {
	return tr.Times[i], tr.States[i]
}
