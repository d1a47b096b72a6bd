// Package scenario defines one fully specified model parameterization to
// be integrated and reported independently.
package scenario

import (
	"fmt"

	"github.com/epilab/episim/internal/model"
	"github.com/epilab/episim/internal/sim"
)

// Scenario couples an identifier with model parameters, an initial
// compartment state, and the observation times. Immutable once
// constructed; consumed exactly once by the integrator.
type Scenario struct {
	ID      string
	Params  model.Parameters
	Initial sim.State
	Times   []float64
}

// New validates and constructs a scenario. The initial state and times
// are copied so later mutation by the caller cannot reach the sweep.
func New(id string, params model.Parameters, initial sim.State, times []float64) (Scenario, error) {
	s := Scenario{
		ID:      id,
		Params:  params,
		Initial: initial.Clone(),
		Times:   append([]float64(nil), times...),
	}
	if err := s.Validate(); err != nil {
		return Scenario{}, err
	}
	return s, nil
}

// FromR0 builds a scenario from the epidemiological parameterization,
// labeled by its R0 value, observed daily for the given number of days.
func FromR0(r0, infectiousPeriod, i0 float64, days int) (Scenario, error) {
	return New(
		fmt.Sprintf("r0=%.2f", r0),
		model.FromR0(r0, infectiousPeriod),
		model.InitialState(i0, 0),
		Days(days),
	)
}

// Validate checks the scenario without doing any integration work.
func (s Scenario) Validate() error {
	if s.ID == "" {
		return &sim.InputError{Field: "id", Reason: "empty"}
	}
	if err := s.Params.Validate(); err != nil {
		return err
	}
	if err := model.ValidateInitial(s.Initial); err != nil {
		return err
	}
	if len(s.Times) == 0 {
		return &sim.InputError{Field: "observation times", Reason: "empty"}
	}
	if s.Times[0] < 0 {
		return &sim.InputError{Field: "observation times", Reason: fmt.Sprintf("first time %g precedes initial time 0", s.Times[0])}
	}
	for i := 1; i < len(s.Times); i++ {
		if s.Times[i] <= s.Times[i-1] {
			return &sim.InputError{Field: "observation times", Reason: fmt.Sprintf("not strictly increasing at index %d", i)}
		}
	}
	return nil
}

// Days returns the conventional daily observation grid 1..n.
func Days(n int) []float64 {
	times := make([]float64, n)
	for i := range times {
		times[i] = float64(i + 1)
	}
	return times
}
