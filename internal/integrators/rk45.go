package integrators

import (
	"math"

	"github.com/epilab/episim/internal/sim"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// RK45 is the explicit Dormand-Prince 5(4) embedded pair. The fifth-order
// solution propagates; the difference against the fourth-order solution is
// the local error estimate. The pair is FSAL: the derivative at the end of
// an accepted step is the first stage of the next one.
//
// stage is scratch reused across attempts; each Solve call owns its own
// RK45, so no synchronization is needed.
type RK45 struct {
	stage sim.State
}

func NewRK45(dim int) *RK45 {
	return &RK45{stage: make(sim.State, dim)}
}

func (r *RK45) name() string   { return "rk45" }
func (r *RK45) order() float64 { return 5 }

// attempt advances one trial step of size h from (t, x). k1 is the
// derivative at (t, x) and may be nil on the first step.
func (r *RK45) attempt(sys sim.System, x sim.State, k1 sim.State, t, h, atol, rtol float64) stepAttempt {
	n := len(x)
	evals := 0

	if k1 == nil {
		k1 = sys.Derive(x, t)
		evals++
	}

	stage := r.stage
	for i := 0; i < n; i++ {
		stage[i] = x[i] + h*b21*k1[i]
	}
	k2 := sys.Derive(stage, t+a2*h)

	for i := 0; i < n; i++ {
		stage[i] = x[i] + h*(b31*k1[i]+b32*k2[i])
	}
	k3 := sys.Derive(stage, t+a3*h)

	for i := 0; i < n; i++ {
		stage[i] = x[i] + h*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	k4 := sys.Derive(stage, t+a4*h)

	for i := 0; i < n; i++ {
		stage[i] = x[i] + h*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	k5 := sys.Derive(stage, t+a5*h)

	for i := 0; i < n; i++ {
		stage[i] = x[i] + h*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	k6 := sys.Derive(stage, t+h)

	xNew := make(sim.State, n)
	for i := 0; i < n; i++ {
		xNew[i] = x[i] + h*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}

	k7 := sys.Derive(xNew, t+h)
	evals += 6

	errSum := 0.0
	for i := 0; i < n; i++ {
		est := h * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
		scale := atol + rtol*math.Max(math.Abs(x[i]), math.Abs(xNew[i]))
		ratio := est / scale
		errSum += ratio * ratio
	}

	return stepAttempt{
		x:     xNew,
		err:   math.Sqrt(errSum / float64(n)),
		kLow:  k1,
		kHigh: k7,
		dense: newDopriDense(h, x, xNew, k1, k3, k4, k5, k6, k7),
		evals: evals,
	}
}
