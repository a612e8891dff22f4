package accelerator

import (
	"math"
	"testing"
)

/* fixedPoint is spec.md section 8 scenario 2's contractive map: f(x) = 0.5x + 1, fixed point 2. */
func fixedPoint(x float64) float64 {
	return 0.5*x + 1
}

func TestConstantUnderRelaxation(t *testing.T) {
	c := &Constant{Omega: 0.5}
	out := c.Accelerate([]float64{0}, []float64{2})
	if got := out[0]; got != 1 {
		t.Errorf("Accelerate = %v, want 1", got)
	}
}

func TestConstantConvergesOnFixedPoint(t *testing.T) {
	c := &Constant{Omega: 0.5}
	x := 0.0
	converged := false
	for i := 0; i < 11; i++ {
		y := fixedPoint(x)
		next := c.Accelerate([]float64{x}, []float64{y})
		x = next[0]
		if math.Abs(x-2) < 1e-3 {
			converged = true
			break
		}
	}
	if !converged {
		t.Fatalf("did not converge to 2 within 11 iterations, x=%v", x)
	}
}

func TestAitkenFirstIterationUsesInitialOmega(t *testing.T) {
	a := NewAitken(0.5)
	out := a.Accelerate([]float64{0}, []float64{2})
	if got := out[0]; got != 1 {
		t.Errorf("first Aitken iteration = %v, want 1 (initial omega 0.5)", got)
	}
}

func TestAitkenConvergesOnFixedPoint(t *testing.T) {
	a := NewAitken(0.5)
	x := 0.0
	converged := false
	for i := 0; i < 11; i++ {
		y := fixedPoint(x)
		next := a.Accelerate([]float64{x}, []float64{y})
		x = next[0]
		if math.Abs(x-2) < 1e-3 {
			converged = true
			break
		}
	}
	if !converged {
		t.Fatalf("Aitken did not converge to 2 within 11 iterations, x=%v", x)
	}
}

func TestAitkenResetClearsHistory(t *testing.T) {
	a := NewAitken(0.5)
	a.Accelerate([]float64{0}, []float64{2})
	a.Reset()
	out := a.Accelerate([]float64{0}, []float64{2})
	if got := out[0]; got != 1 {
		t.Errorf("post-reset Aitken iteration = %v, want 1 (back to initial omega)", got)
	}
}

func TestQuasiNewtonFirstIterationFallsBackToConstant(t *testing.T) {
	q := NewQuasiNewton(0.5, 4)
	out := q.Accelerate([]float64{0}, []float64{2})
	if got := out[0]; got != 1 {
		t.Errorf("first QuasiNewton iteration = %v, want 1 (constant fallback)", got)
	}
}

func TestQuasiNewtonConvergesOnLinearMap(t *testing.T) {
	q := NewQuasiNewton(0.5, 8)
	x := 0.0
	converged := false
	for i := 0; i < 11; i++ {
		y := fixedPoint(x)
		next := q.Accelerate([]float64{x}, []float64{y})
		x = next[0]
		if math.Abs(x-2) < 1e-3 {
			converged = true
			break
		}
	}
	if !converged {
		t.Fatalf("QuasiNewton did not converge to 2 within 11 iterations, x=%v", x)
	}
}
