package integrators

import (
	"context"
	"fmt"
	"math"

	"github.com/epilab/episim/internal/sim"
)

// Step-size controller constants, shared by both stepping schemes.
const (
	safety   = 0.9
	minScale = 0.2
	maxScale = 10.0
)

// Options configure a Solve call. Zero values select the defaults.
type Options struct {
	// AbsTol is the per-component floor on local error. Default 1e-6.
	AbsTol float64
	// RelTol is the fractional local error bound. Default 1e-6.
	RelTol float64
	// InitialStep is the first trial step size. Default: derived from the
	// initial derivative magnitude.
	InitialStep float64
	// MaxStep bounds the internal step size. Default: unbounded.
	MaxStep float64
	// MaxSteps caps accepted internal steps per solve. Default 100000.
	MaxSteps int
	// MaxRetries caps rejections of a single step before the solve fails.
	// Default 20.
	MaxRetries int
	// StiffThreshold is the run of consecutive rejections that triggers
	// the switch to the implicit scheme. Default 8.
	StiffThreshold int
}

const (
	defaultTol            = 1e-6
	defaultMaxSteps       = 100000
	defaultMaxRetries     = 20
	defaultStiffThreshold = 8
)

func (o Options) withDefaults() Options {
	if o.AbsTol == 0 {
		o.AbsTol = defaultTol
	}
	if o.RelTol == 0 {
		o.RelTol = defaultTol
	}
	if o.MaxSteps == 0 {
		o.MaxSteps = defaultMaxSteps
	}
	if o.MaxRetries == 0 {
		o.MaxRetries = defaultMaxRetries
	}
	if o.StiffThreshold == 0 {
		o.StiffThreshold = defaultStiffThreshold
	}
	return o
}

func (o Options) validate() error {
	if o.AbsTol < 0 {
		return &sim.InputError{Field: "absolute_tolerance", Reason: "must not be negative"}
	}
	if o.RelTol < 0 {
		return &sim.InputError{Field: "relative_tolerance", Reason: "must not be negative"}
	}
	if o.InitialStep < 0 {
		return &sim.InputError{Field: "initial_step", Reason: "must not be negative"}
	}
	if o.MaxStep < 0 {
		return &sim.InputError{Field: "max_step", Reason: "must not be negative"}
	}
	return nil
}

// stepAttempt is one trial advance produced by a stepping scheme.
type stepAttempt struct {
	x     sim.State // proposed solution at t+h
	err   float64   // weighted RMS error norm; accept when <= 1
	kLow  sim.State // derivative at t
	kHigh sim.State // derivative at t+h
	dense denseOutput
	evals int
}

// stepper is a single-step scheme with an embedded error estimate.
type stepper interface {
	attempt(sys sim.System, x sim.State, k1 sim.State, t, h, atol, rtol float64) stepAttempt
	order() float64
	name() string
}

// Solve advances x0 from t0 through every requested observation time and
// returns the state at each, controlling local truncation error against
// atol + rtol·|x|. Steps land on observation times when convenient;
// otherwise the state there is interpolated from the accepted step's own
// polynomial, so observation density never perturbs step control.
//
// Context cancellation, step-budget exhaustion, and step-size collapse all
// surface as a *sim.ConvergenceError; malformed inputs as a
// *sim.InputError before any integration work.
func Solve(ctx context.Context, sys sim.System, x0 sim.State, t0 float64, times []float64, opts Options) (*sim.Trajectory, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	if err := validateInputs(sys, x0, t0, times); err != nil {
		return nil, err
	}

	traj := &sim.Trajectory{
		Times:  make([]float64, 0, len(times)),
		States: make([]sim.State, 0, len(times)),
	}

	bounded, hasBounds := sys.(sim.Bounded)
	conserver, conserves := sys.(sim.Conserver)
	var conserved0 float64
	if conserves {
		conserved0 = conserver.Conserved(x0)
	}
	// Conservation drift beyond this is a defect in step control, not in
	// the model.
	driftTol := 10 * (opts.AbsTol + opts.RelTol*math.Abs(conserved0))

	x := x0.Clone()
	t := t0
	tEnd := times[len(times)-1]
	obs := 0

	// Observation times coincident with t0 take the initial state.
	for obs < len(times) && times[obs] <= t0+timeEps(t0) {
		traj.Times = append(traj.Times, times[obs])
		traj.States = append(traj.States, x0.Clone())
		obs++
	}

	var current stepper = NewRK45(sys.Dim())
	k1 := sys.Derive(x, t)
	traj.Stats.Evaluations++

	h := opts.InitialStep
	if h == 0 {
		h = initialStep(x, k1, tEnd-t0, opts)
	}

	retries := 0
	rejectRun := 0

	for obs < len(times) {
		select {
		case <-ctx.Done():
			return nil, &sim.ConvergenceError{Time: t, Steps: traj.Stats.StepsAccepted, Reason: fmt.Sprintf("canceled: %v", ctx.Err())}
		default:
		}

		if traj.Stats.StepsAccepted >= opts.MaxSteps {
			return nil, &sim.ConvergenceError{Time: t, Steps: traj.Stats.StepsAccepted, Reason: "step budget exhausted"}
		}

		if opts.MaxStep > 0 && h > opts.MaxStep {
			h = opts.MaxStep
		}
		if t+h > tEnd {
			h = tEnd - t
		}
		if h < minStep(t) {
			return nil, &sim.ConvergenceError{Time: t, Steps: traj.Stats.StepsAccepted, Reason: "step size underflow"}
		}

		att := current.attempt(sys, x, k1, t, h, opts.AbsTol, opts.RelTol)
		traj.Stats.Evaluations += att.evals

		reason := ""
		accepted := att.err <= 1 && att.x.IsValid()
		if !accepted {
			reason = "local error above tolerance"
		}
		if accepted && hasBounds && !bounded.Admissible(att.x) {
			accepted = false
			reason = (&sim.AnomalyError{Time: t + h, Reason: "state left admissible domain"}).Error()
		}
		if accepted && conserves {
			if drift := math.Abs(conserver.Conserved(att.x) - conserved0); drift > driftTol {
				accepted = false
				reason = (&sim.AnomalyError{Time: t + h, Reason: fmt.Sprintf("conserved quantity drifted by %.3g", drift)}).Error()
			}
		}

		if !accepted {
			traj.Stats.StepsRejected++
			retries++
			rejectRun++
			if retries > opts.MaxRetries {
				return nil, &sim.ConvergenceError{Time: t, Steps: traj.Stats.StepsAccepted, Reason: fmt.Sprintf("retry budget exhausted: %s", reason)}
			}
			if rejectRun >= opts.StiffThreshold && current.name() == "rk45" {
				// Explicit stepping is grinding: a stability problem, not
				// an accuracy one. Hand the step to the implicit scheme.
				current = NewTrapezoid()
				traj.Stats.StiffSwitch = true
				rejectRun = 0
				continue
			}
			if att.err > 1 {
				h *= shrinkScale(att.err, current.order())
			} else {
				// Rejected on a domain check, not the error estimate:
				// the estimate offers no shrink ratio, so halve.
				h *= 0.5
			}
			continue
		}

		// Emit every observation time covered by the accepted step.
		for obs < len(times) && times[obs] <= t+h+timeEps(t+h) {
			tau := times[obs]
			var xs sim.State
			if math.Abs(tau-(t+h)) <= timeEps(t+h) {
				xs = att.x.Clone()
			} else {
				xs = att.dense.at((tau - t) / h)
			}
			traj.Times = append(traj.Times, tau)
			traj.States = append(traj.States, xs)
			obs++
		}

		x = att.x
		k1 = att.kHigh
		t += h
		traj.Stats.StepsAccepted++
		retries = 0
		rejectRun = 0
		h *= growScale(att.err, current.order())
	}

	return traj, nil
}

func validateInputs(sys sim.System, x0 sim.State, t0 float64, times []float64) error {
	if len(x0) != sys.Dim() {
		return &sim.InputError{Field: "initial state", Reason: fmt.Sprintf("dimension %d does not match system dimension %d", len(x0), sys.Dim())}
	}
	if !x0.IsValid() {
		return &sim.InputError{Field: "initial state", Reason: "contains NaN or Inf"}
	}
	if len(times) == 0 {
		return &sim.InputError{Field: "observation times", Reason: "empty"}
	}
	if times[0] < t0-timeEps(t0) {
		return &sim.InputError{Field: "observation times", Reason: fmt.Sprintf("first time %g precedes initial time %g", times[0], t0)}
	}
	for i := 1; i < len(times); i++ {
		if times[i] <= times[i-1] {
			return &sim.InputError{Field: "observation times", Reason: fmt.Sprintf("not strictly increasing at index %d (%g after %g)", i, times[i], times[i-1])}
		}
	}
	return nil
}

// initialStep guesses a first step from the initial derivative magnitude
// so callers rarely need to tune it.
func initialStep(x, dx sim.State, span float64, opts Options) float64 {
	d0 := scaledNorm(x, x, opts)
	d1 := scaledNorm(dx, x, opts)

	var h float64
	if d0 < 1e-5 || d1 < 1e-5 {
		h = 1e-6
	} else {
		h = 0.01 * d0 / d1
	}
	h = math.Min(h, span)
	if opts.MaxStep > 0 {
		h = math.Min(h, opts.MaxStep)
	}
	return h
}

func scaledNorm(v, ref sim.State, opts Options) float64 {
	sum := 0.0
	for i := range v {
		scale := opts.AbsTol + opts.RelTol*math.Abs(ref[i])
		r := v[i] / scale
		sum += r * r
	}
	return math.Sqrt(sum / float64(len(v)))
}

func shrinkScale(errNorm, order float64) float64 {
	if math.IsInf(errNorm, 1) || errNorm == 0 {
		return minScale
	}
	return math.Max(minScale, safety*math.Pow(errNorm, -1/(order-1)))
}

func growScale(errNorm, order float64) float64 {
	if errNorm == 0 {
		return maxScale
	}
	return math.Min(maxScale, safety*math.Pow(errNorm, -1/order))
}

func timeEps(t float64) float64 {
	return 1e-12 * math.Max(math.Abs(t), 1)
}

func minStep(t float64) float64 {
	return 16 * 2.220446049250313e-16 * math.Max(math.Abs(t), 1)
}
