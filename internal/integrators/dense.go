package integrators

import "github.com/epilab/episim/internal/sim"

// denseOutput evaluates the interpolating polynomial of an accepted step
// at theta in [0,1], where theta=0 is the step's start and theta=1 its
// end. It lets the solver report states at observation times inside a
// step without shortening the step.
type denseOutput interface {
	at(theta float64) sim.State
}

// Dense-output coefficients for the Dormand-Prince pair (Hairer's CONTD5).
var (
	d1 = -12715105075.0 / 11282082432.0
	d3 = 87487479700.0 / 32700410799.0
	d4 = -10690763975.0 / 1880347072.0
	d5 = 701980252875.0 / 199316789632.0
	d6 = -1453857185.0 / 822651844.0
	d7 = 69997945.0 / 29380423.0
)

// dopriDense is the fourth-order continuous extension of the
// Dormand-Prince step, built from the step's own stages.
type dopriDense struct {
	rcont [5]sim.State
}

func newDopriDense(h float64, x0, x1 sim.State, k1, k3, k4, k5, k6, k7 sim.State) *dopriDense {
	n := len(x0)
	d := &dopriDense{}
	for i := range d.rcont {
		d.rcont[i] = make(sim.State, n)
	}
	for i := 0; i < n; i++ {
		ydiff := x1[i] - x0[i]
		bspl := h*k1[i] - ydiff
		d.rcont[0][i] = x0[i]
		d.rcont[1][i] = ydiff
		d.rcont[2][i] = bspl
		d.rcont[3][i] = ydiff - h*k7[i] - bspl
		d.rcont[4][i] = h * (d1*k1[i] + d3*k3[i] + d4*k4[i] + d5*k5[i] + d6*k6[i] + d7*k7[i])
	}
	return d
}

func (d *dopriDense) at(theta float64) sim.State {
	theta1 := 1 - theta
	out := make(sim.State, len(d.rcont[0]))
	for i := range out {
		out[i] = d.rcont[0][i] + theta*(d.rcont[1][i]+theta1*(d.rcont[2][i]+theta*(d.rcont[3][i]+theta1*d.rcont[4][i])))
	}
	return out
}

// hermiteDense is the cubic Hermite interpolant over a step, used by the
// implicit stepper, whose second-order solution it comfortably covers.
type hermiteDense struct {
	h      float64
	x0, x1 sim.State
	k0, k1 sim.State
}

func (d *hermiteDense) at(theta float64) sim.State {
	t2 := theta * theta
	t3 := t2 * theta

	h00 := 2*t3 - 3*t2 + 1
	h10 := t3 - 2*t2 + theta
	h01 := -2*t3 + 3*t2
	h11 := t3 - t2

	out := make(sim.State, len(d.x0))
	for i := range out {
		out[i] = h00*d.x0[i] + h10*d.h*d.k0[i] + h01*d.x1[i] + h11*d.h*d.k1[i]
	}
	return out
}
