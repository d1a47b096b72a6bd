// Package runner evaluates a collection of scenarios, in parallel, into
// one long-form result table.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/google/uuid"

	"github.com/epilab/episim/internal/integrators"
	"github.com/epilab/episim/internal/metrics"
	"github.com/epilab/episim/internal/model"
	"github.com/epilab/episim/internal/scenario"
	"github.com/epilab/episim/internal/sim"
)

// ScenarioError attributes a failure to the scenario that produced it.
type ScenarioError struct {
	Scenario string
	Err      error
}

func (e ScenarioError) Error() string {
	return fmt.Sprintf("scenario %s: %v", e.Scenario, e.Err)
}

func (e ScenarioError) Unwrap() error { return e.Err }

// SweepResult is the output of one sweep: the unioned table plus
// per-scenario summary metrics, tagged with a run identity.
type SweepResult struct {
	RunID   string
	Table   Table
	Metrics map[string]map[string]float64
}

// Observer is notified as each scenario finishes, successfully or not.
// Calls are serialized; trajectories of successful scenarios are passed
// through unmodified.
type Observer func(id string, records Table, err error)

// Runner fans scenarios out over a worker pool. Scenarios share no mutable
// state, so the table content is identical regardless of worker count or
// scheduling: each worker writes into its scenario's slot and the slots
// are concatenated in input order afterwards.
type Runner struct {
	opts    integrators.Options
	workers int
	logger  *slog.Logger

	mu       sync.Mutex
	observer Observer
}

// New creates a runner with the given solver options. workers <= 0 uses
// one worker per available CPU.
func New(opts integrators.Options, workers int) *Runner {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Runner{opts: opts, workers: workers}
}

// WithLogger attaches a logger for per-scenario failure reporting.
func (r *Runner) WithLogger(logger *slog.Logger) *Runner {
	r.logger = logger
	return r
}

// WithObserver attaches a completion observer (used by the live view).
func (r *Runner) WithObserver(obs Observer) *Runner {
	r.observer = obs
	return r
}

// Run integrates every scenario and assembles the result table. Scenario
// IDs key the table and the metrics map, so they must be unique: a
// scenario repeating an earlier ID fails with an invalid-input error and
// is not run. A failing scenario never aborts its siblings: its error is
// recorded and the sweep continues, so partial results remain valid
// output.
func (r *Runner) Run(ctx context.Context, scenarios []scenario.Scenario) (*SweepResult, []ScenarioError) {
	tables := make([]Table, len(scenarios))
	mets := make([]map[string]float64, len(scenarios))
	errs := make([]error, len(scenarios))

	seen := make(map[string]int, len(scenarios))
	for i, sc := range scenarios {
		if first, dup := seen[sc.ID]; dup {
			errs[i] = &sim.InputError{Field: "scenario id", Reason: fmt.Sprintf("%q duplicates scenario %d", sc.ID, first)}
			continue
		}
		seen[sc.ID] = i
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	workers := r.workers
	if workers > len(scenarios) {
		workers = len(scenarios)
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				sc := scenarios[idx]
				table, met, err := r.runOne(ctx, sc)
				tables[idx] = table
				mets[idx] = met
				errs[idx] = err
				r.notify(sc.ID, table, err)
			}
		}()
	}

	for i := range scenarios {
		if errs[i] != nil {
			r.notify(scenarios[i].ID, nil, errs[i])
			continue
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	result := &SweepResult{
		RunID:   uuid.NewString(),
		Metrics: make(map[string]map[string]float64),
	}
	var failures []ScenarioError
	for i, sc := range scenarios {
		if errs[i] != nil {
			failures = append(failures, ScenarioError{Scenario: sc.ID, Err: errs[i]})
			continue
		}
		result.Table = append(result.Table, tables[i]...)
		result.Metrics[sc.ID] = mets[i]
	}
	return result, failures
}

func (r *Runner) runOne(ctx context.Context, sc scenario.Scenario) (Table, map[string]float64, error) {
	if err := sc.Validate(); err != nil {
		return nil, nil, err
	}

	sys := model.NewSIR(sc.Params)
	traj, err := integrators.Solve(ctx, sys, sc.Initial, 0, sc.Times, r.opts)
	if err != nil {
		return nil, nil, err
	}

	return FromTrajectory(sc.ID, traj), observeMetrics(traj), nil
}

func observeMetrics(traj *sim.Trajectory) map[string]float64 {
	set := metrics.Default()
	for i := 0; i < traj.Len(); i++ {
		t, x := traj.At(i)
		for _, m := range set {
			m.Observe(x, t)
		}
	}
	out := make(map[string]float64, len(set))
	for _, m := range set {
		out[m.Name()] = m.Value()
	}
	return out
}

func (r *Runner) notify(id string, records Table, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil && r.logger != nil {
		r.logger.Error("scenario failed", "scenario", id, "err", err)
	}
	if r.observer != nil {
		r.observer(id, records, err)
	}
}
