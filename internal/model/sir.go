package model

import (
	"fmt"

	"github.com/epilab/episim/internal/sim"
)

// Compartment indices into a sim.State for the SIR model.
const (
	S = 0
	I = 1
	R = 2

	Dim = 3
)

// Compartments holds the canonical compartment names in state order.
var Compartments = [Dim]string{"S", "I", "R"}

// negTolerance is how far below zero a compartment may sit before the
// state counts as inadmissible. Transient dips of this size are ordinary
// floating-point noise near the end of an epidemic.
const negTolerance = 1e-9

// Parameters are the transmission and removal rates of the SIR model.
// Both must be strictly positive.
type Parameters struct {
	Beta  float64
	Gamma float64
}

// R0 returns the basic reproduction number β/γ.
func (p Parameters) R0() float64 { return p.Beta / p.Gamma }

// InfectiousPeriod returns the mean infectious period 1/γ.
func (p Parameters) InfectiousPeriod() float64 { return 1 / p.Gamma }

// FromR0 derives rate parameters from the epidemiological pair
// (R0, infectious period in time units): γ = 1/period, β = R0·γ.
func FromR0(r0, infectiousPeriod float64) Parameters {
	gamma := 1 / infectiousPeriod
	return Parameters{Beta: r0 * gamma, Gamma: gamma}
}

func (p Parameters) Validate() error {
	if p.Beta <= 0 {
		return &sim.InputError{Field: "beta", Reason: fmt.Sprintf("must be positive, got %g", p.Beta)}
	}
	if p.Gamma <= 0 {
		return &sim.InputError{Field: "gamma", Reason: fmt.Sprintf("must be positive, got %g", p.Gamma)}
	}
	return nil
}

// SIR is the fully-mixed deterministic Susceptible-Infectious-Removed
// model on a population normalized to its initial total.
//
//	dS/dt = -β·S·I
//	dI/dt =  β·S·I - γ·I
//	dR/dt =  γ·I
type SIR struct {
	params Parameters
}

func NewSIR(p Parameters) *SIR { return &SIR{params: p} }

func (m *SIR) Dim() int { return Dim }

func (m *SIR) Params() Parameters { return m.params }

// Derive evaluates the right-hand side. The system is autonomous, so t is
// unused. No clamping happens here: the integrator may probe states with
// slightly negative compartments and its error control owns suppressing
// them.
func (m *SIR) Derive(x sim.State, _ float64) sim.State {
	infection := m.params.Beta * x[S] * x[I]
	removal := m.params.Gamma * x[I]
	return sim.State{-infection, infection - removal, removal}
}

// Admissible reports whether every compartment is non-negative beyond
// floating-point noise.
func (m *SIR) Admissible(x sim.State) bool {
	for _, v := range x {
		if v < -negTolerance {
			return false
		}
	}
	return true
}

// Conserved returns S+I+R. For a closed population the integrator must
// hold this constant to within its error tolerance.
func (m *SIR) Conserved(x sim.State) float64 {
	return x.Sum()
}

// InitialState builds a normalized initial condition with infectious
// fraction i0, removed fraction r0, and the remainder susceptible.
func InitialState(i0, r0 float64) sim.State {
	return sim.State{1 - i0 - r0, i0, r0}
}

// ValidateInitial checks an initial compartment state for the SIR model.
func ValidateInitial(x sim.State) error {
	if len(x) != Dim {
		return &sim.InputError{Field: "initial state", Reason: fmt.Sprintf("expected %d compartments, got %d", Dim, len(x))}
	}
	if !x.IsValid() {
		return &sim.InputError{Field: "initial state", Reason: "contains NaN or Inf"}
	}
	for i, v := range x {
		if v < -negTolerance {
			return &sim.InputError{Field: "initial state", Reason: fmt.Sprintf("compartment %s is negative: %g", Compartments[i], v)}
		}
	}
	return nil
}
