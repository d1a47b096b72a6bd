package runner

import (
	"github.com/epilab/episim/internal/model"
	"github.com/epilab/episim/internal/sim"
)

// Record is one long-form result row: the value of one compartment of one
// scenario at one observation time.
type Record struct {
	Scenario    string
	Time        float64
	Compartment string
	Value       float64
}

// Table is the unioned long-form result set across a sweep. Records are
// grouped by scenario in sweep input order, time-ordered within a
// scenario. Values are exactly those the integrator produced.
type Table []Record

// FromTrajectory relabels a trajectory into long-form records. Pure
// transformation: no rounding, resampling, or aggregation.
func FromTrajectory(id string, traj *sim.Trajectory) Table {
	records := make(Table, 0, traj.Len()*model.Dim)
	for i := 0; i < traj.Len(); i++ {
		t, x := traj.At(i)
		for c := 0; c < model.Dim; c++ {
			records = append(records, Record{
				Scenario:    id,
				Time:        t,
				Compartment: model.Compartments[c],
				Value:       x[c],
			})
		}
	}
	return records
}

// Scenarios returns the distinct scenario IDs in first-appearance order.
func (t Table) Scenarios() []string {
	seen := make(map[string]bool)
	ids := make([]string, 0)
	for _, r := range t {
		if !seen[r.Scenario] {
			seen[r.Scenario] = true
			ids = append(ids, r.Scenario)
		}
	}
	return ids
}

// Series extracts the (times, values) of one compartment of one scenario,
// in time order.
func (t Table) Series(id, compartment string) ([]float64, []float64) {
	var times, values []float64
	for _, r := range t {
		if r.Scenario == id && r.Compartment == compartment {
			times = append(times, r.Time)
			values = append(values, r.Value)
		}
	}
	return times, values
}
