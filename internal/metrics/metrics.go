// Package metrics accumulates per-trajectory epidemic summaries. Each
// metric observes the trajectory point by point and reduces to a single
// value keyed by its name.
package metrics

import (
	"math"

	"github.com/epilab/episim/internal/model"
	"github.com/epilab/episim/internal/sim"
)

type Metric interface {
	Name() string
	Observe(x sim.State, t float64)
	Value() float64
	Reset()
}

// Default returns fresh accumulators for the standard epidemic summary:
// peak prevalence and its timing, final size, and conservation drift.
func Default() []Metric {
	return []Metric{
		NewPeakPrevalence(),
		NewPeakTime(),
		NewFinalSize(),
		NewDrift(),
	}
}

// PeakPrevalence tracks the maximum infectious fraction seen.
type PeakPrevalence struct {
	max float64
}

func NewPeakPrevalence() *PeakPrevalence { return &PeakPrevalence{} }

func (p *PeakPrevalence) Name() string { return "peak_prevalence" }

func (p *PeakPrevalence) Observe(x sim.State, _ float64) {
	if x[model.I] > p.max {
		p.max = x[model.I]
	}
}

func (p *PeakPrevalence) Value() float64 { return p.max }
func (p *PeakPrevalence) Reset()         { p.max = 0 }

// PeakTime tracks when the infectious fraction peaked.
type PeakTime struct {
	max  float64
	at   float64
	seen bool
}

func NewPeakTime() *PeakTime { return &PeakTime{} }

func (p *PeakTime) Name() string { return "peak_time" }

func (p *PeakTime) Observe(x sim.State, t float64) {
	if !p.seen || x[model.I] > p.max {
		p.max = x[model.I]
		p.at = t
		p.seen = true
	}
}

func (p *PeakTime) Value() float64 { return p.at }
func (p *PeakTime) Reset()         { *p = PeakTime{} }

// FinalSize reports the cumulative infected fraction over the observation
// window: the seeded prevalence plus everyone who left S. Initially
// removed individuals never count.
type FinalSize struct {
	first sim.State
	last  sim.State
}

func NewFinalSize() *FinalSize { return &FinalSize{} }

func (f *FinalSize) Name() string { return "final_size" }

func (f *FinalSize) Observe(x sim.State, _ float64) {
	if f.first == nil {
		f.first = x.Clone()
	}
	f.last = x.Clone()
}

func (f *FinalSize) Value() float64 {
	if f.last == nil {
		return 0
	}
	return f.first[model.S] - f.last[model.S] + f.first[model.I]
}

func (f *FinalSize) Reset() { f.first, f.last = nil, nil }

// Drift reports the worst observed deviation of S+I+R from its initial
// value. Anything above solver tolerance means step control misbehaved.
type Drift struct {
	ref   float64
	worst float64
	seen  bool
}

func NewDrift() *Drift { return &Drift{} }

func (d *Drift) Name() string { return "conservation_drift" }

func (d *Drift) Observe(x sim.State, _ float64) {
	if !d.seen {
		d.ref = x.Sum()
		d.seen = true
		return
	}
	if dev := math.Abs(x.Sum() - d.ref); dev > d.worst {
		d.worst = dev
	}
}

func (d *Drift) Value() float64 { return d.worst }
func (d *Drift) Reset()         { *d = Drift{} }
