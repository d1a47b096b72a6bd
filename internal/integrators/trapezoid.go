package integrators

import (
	"math"

	"github.com/epilab/episim/internal/sim"
)

const (
	newtonMaxIters = 12
	newtonTol      = 1e-2
	jacobianEps    = 1e-8
)

// Trapezoid is the A-stable implicit trapezoidal rule with a backward
// Euler companion solution for error estimation. The solver falls back to
// it when the explicit pair shows stiffness (runs of rejected steps with a
// collapsing step size). Newton iterations use a finite-difference
// Jacobian, frozen per attempt; the compartment counts this engine sees
// make the dense linear solve trivial.
type Trapezoid struct{}

func NewTrapezoid() *Trapezoid { return &Trapezoid{} }

func (tr *Trapezoid) name() string   { return "trapezoid" }
func (tr *Trapezoid) order() float64 { return 2 }

func (tr *Trapezoid) attempt(sys sim.System, x sim.State, k1 sim.State, t, h, atol, rtol float64) stepAttempt {
	n := len(x)
	evals := 0

	if k1 == nil {
		k1 = sys.Derive(x, t)
		evals++
	}

	jac, jevals := numericalJacobian(sys, x, t)
	evals += jevals

	// Trapezoidal solve: y = x + h/2 (f(t,x) + f(t+h,y)).
	iterMat := newtonMatrix(jac, h/2)
	yTrap, tevals, ok := solveImplicit(sys, x, t, h, atol, rtol, iterMat, func(fy sim.State, i int) float64 {
		return x[i] + h/2*(k1[i]+fy[i])
	})
	evals += tevals
	if !ok {
		return stepAttempt{x: x.Clone(), err: math.Inf(1), kLow: k1, kHigh: k1, evals: evals}
	}

	// Backward Euler companion: z = x + h f(t+h,z).
	beMat := newtonMatrix(jac, h)
	zBE, bevals, ok := solveImplicit(sys, x, t, h, atol, rtol, beMat, func(fz sim.State, i int) float64 {
		return x[i] + h*fz[i]
	})
	evals += bevals
	if !ok {
		return stepAttempt{x: x.Clone(), err: math.Inf(1), kLow: k1, kHigh: k1, evals: evals}
	}

	errSum := 0.0
	for i := 0; i < n; i++ {
		scale := atol + rtol*math.Max(math.Abs(x[i]), math.Abs(yTrap[i]))
		ratio := (yTrap[i] - zBE[i]) / scale
		errSum += ratio * ratio
	}

	kHigh := sys.Derive(yTrap, t+h)
	evals++

	return stepAttempt{
		x:     yTrap,
		err:   math.Sqrt(errSum / float64(n)),
		kLow:  k1,
		kHigh: kHigh,
		dense: &hermiteDense{h: h, x0: x.Clone(), x1: yTrap, k0: k1, k1: kHigh},
		evals: evals,
	}
}

// solveImplicit runs Newton iterations on the fixed-point form
// y_i = rhs(f(y), i), using a pre-factored iteration matrix. Returns the
// converged state, the evaluation count, and whether it converged.
func solveImplicit(sys sim.System, x sim.State, t, h, atol, rtol float64, mat [][]float64, rhs func(fy sim.State, i int) float64) (sim.State, int, bool) {
	n := len(x)
	evals := 0

	// Explicit Euler predictor.
	f0 := sys.Derive(x, t)
	evals++
	y := make(sim.State, n)
	for i := 0; i < n; i++ {
		y[i] = x[i] + h*f0[i]
	}

	residual := make([]float64, n)
	for iter := 0; iter < newtonMaxIters; iter++ {
		fy := sys.Derive(y, t+h)
		evals++
		for i := 0; i < n; i++ {
			residual[i] = rhs(fy, i) - y[i]
		}

		delta, ok := solveDense(mat, residual)
		if !ok {
			return nil, evals, false
		}

		norm := 0.0
		for i := 0; i < n; i++ {
			y[i] += delta[i]
			scale := atol + rtol*math.Abs(y[i])
			r := delta[i] / scale
			norm += r * r
		}
		if math.Sqrt(norm/float64(n)) < newtonTol {
			return y, evals, true
		}
	}
	return nil, evals, false
}

// newtonMatrix builds I - c·J.
func newtonMatrix(jac [][]float64, c float64) [][]float64 {
	n := len(jac)
	m := make([][]float64, n)
	for i := 0; i < n; i++ {
		m[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			m[i][j] = -c * jac[i][j]
		}
		m[i][i] += 1
	}
	return m
}

// numericalJacobian approximates df/dx by forward differences.
func numericalJacobian(sys sim.System, x sim.State, t float64) ([][]float64, int) {
	n := len(x)
	f0 := sys.Derive(x, t)
	jac := make([][]float64, n)
	for i := range jac {
		jac[i] = make([]float64, n)
	}

	xp := x.Clone()
	for j := 0; j < n; j++ {
		dx := jacobianEps * math.Max(math.Abs(x[j]), 1)
		xp[j] = x[j] + dx
		fj := sys.Derive(xp, t)
		xp[j] = x[j]
		for i := 0; i < n; i++ {
			jac[i][j] = (fj[i] - f0[i]) / dx
		}
	}
	return jac, n + 1
}

// solveDense solves m·x = b by Gaussian elimination with partial
// pivoting. m is copied; b is not modified.
func solveDense(m [][]float64, b []float64) ([]float64, bool) {
	n := len(b)
	a := make([][]float64, n)
	x := make([]float64, n)
	for i := 0; i < n; i++ {
		a[i] = append([]float64(nil), m[i]...)
		x[i] = b[i]
	}

	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < 1e-300 {
			return nil, false
		}
		a[col], a[pivot] = a[pivot], a[col]
		x[col], x[pivot] = x[pivot], x[col]

		for row := col + 1; row < n; row++ {
			factor := a[row][col] / a[col][col]
			for k := col; k < n; k++ {
				a[row][k] -= factor * a[col][k]
			}
			x[row] -= factor * x[col]
		}
	}

	for row := n - 1; row >= 0; row-- {
		for k := row + 1; k < n; k++ {
			x[row] -= a[row][k] * x[k]
		}
		x[row] /= a[row][row]
	}
	return x, true
}
