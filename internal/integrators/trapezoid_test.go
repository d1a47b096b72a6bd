package integrators

import (
	"math"
	"testing"

	"github.com/epilab/episim/internal/sim"
)

// linear2 is the coupled linear system x' = -x + y, y' = -2y.
type linear2 struct{}

func (linear2) Derive(x sim.State, _ float64) sim.State {
	return sim.State{-x[0] + x[1], -2 * x[1]}
}
func (linear2) Dim() int { return 2 }

func TestTrapezoid_StepAccuracy(t *testing.T) {
	tr := NewTrapezoid()
	h := 0.01

	att := tr.attempt(decay{}, sim.State{1.0}, nil, 0, h, 1e-9, 1e-9)

	want := math.Exp(-h)
	if math.Abs(att.x[0]-want) > 1e-6 {
		t.Errorf("step result %.10f, want %.10f", att.x[0], want)
	}
}

func TestTrapezoid_StableOnStiffStep(t *testing.T) {
	// A step far beyond the explicit stability limit must stay bounded.
	sys := relaxation{rate: 1000}
	tr := NewTrapezoid()

	att := tr.attempt(sys, sim.State{2.0}, nil, 0, 1.0, 1e-6, 1e-6)

	if !att.x.IsValid() {
		t.Fatal("implicit step produced invalid state")
	}
	if math.Abs(att.x[0]) > 2.0 {
		t.Errorf("implicit step diverged: %v", att.x[0])
	}
}

func TestNumericalJacobian(t *testing.T) {
	jac, evals := numericalJacobian(linear2{}, sim.State{1.0, 1.0}, 0)

	want := [2][2]float64{{-1, 1}, {0, -2}}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if math.Abs(jac[i][j]-want[i][j]) > 1e-5 {
				t.Errorf("jac[%d][%d] = %v, want %v", i, j, jac[i][j], want[i][j])
			}
		}
	}
	if evals != 3 {
		t.Errorf("expected 3 evaluations, got %d", evals)
	}
}

func TestSolveDense(t *testing.T) {
	m := [][]float64{
		{2, 1, -1},
		{-3, -1, 2},
		{-2, 1, 2},
	}
	b := []float64{8, -11, -3}

	x, ok := solveDense(m, b)
	if !ok {
		t.Fatal("solve failed")
	}

	want := []float64{2, 3, -1}
	for i := range want {
		if math.Abs(x[i]-want[i]) > 1e-10 {
			t.Errorf("x[%d] = %v, want %v", i, x[i], want[i])
		}
	}
}

func TestSolveDense_Singular(t *testing.T) {
	m := [][]float64{
		{1, 1},
		{1, 1},
	}
	if _, ok := solveDense(m, []float64{1, 2}); ok {
		t.Error("expected failure on a singular matrix")
	}
}
