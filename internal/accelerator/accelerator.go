/*-------------------------------------------------------------------------
 *
 * accelerator.go
 *    Fixed-point acceleration for implicit coupling iterations
 *
 * Copyright (c) 2024-2026, precice-go, Inc. <support@precice-go.dev>
 *
 * IDENTIFICATION
 *    internal/accelerator/accelerator.go
 *
 *-------------------------------------------------------------------------
 */

// Package accelerator implements the fixed-point accelerators an implicit
// CouplingScheme applies between iterations: constant under-relaxation,
// Aitken's dynamic relaxation, and an IQN-ILS-style quasi-Newton update.
// BLAS backends are out of scope per spec.md; the quasi-Newton least-squares
// solve instead uses gonum's pure-Go linear algebra, the only such library
// in the example pack.
package accelerator

import (
	"gonum.org/v1/gonum/mat"
)

/* Accelerator maps a residual (difference between the coupling iterate
 * the solver returned and the value it was given) onto an accelerated
 * next guess. Consumed as an interface so the scheme never depends on a
 * specific acceleration strategy. */
type Accelerator interface {
	/* Accelerate returns the next iterate given the previous input xOld and
	 * the solver's output xNew (same length, concatenated across all
	 * accelerated CouplingData). */
	Accelerate(xOld, xNew []float64) []float64
	/* Reset clears accumulated iteration history; called at the start of each time window */
	Reset()
}

/* Constant applies under-relaxation with a fixed factor: x = xOld + omega*(xNew-xOld) */
type Constant struct {
	Omega float64
}

func (c *Constant) Accelerate(xOld, xNew []float64) []float64 {
	out := make([]float64, len(xOld))
	for i := range xOld {
		out[i] = xOld[i] + c.Omega*(xNew[i]-xOld[i])
	}
	return out
}

func (c *Constant) Reset() {}

/* Aitken applies Aitken's Δ² dynamic relaxation: the factor is re-derived
 * each iteration from the current and previous residuals. */
type Aitken struct {
	InitialOmega float64

	omega       float64
	prevResidual []float64
	first       bool
}

func NewAitken(initialOmega float64) *Aitken {
	return &Aitken{InitialOmega: initialOmega, first: true}
}

func (a *Aitken) Accelerate(xOld, xNew []float64) []float64 {
	residual := make([]float64, len(xOld))
	for i := range xOld {
		residual[i] = xNew[i] - xOld[i]
	}

	if a.first {
		a.omega = a.InitialOmega
		a.first = false
	} else {
		var num, den float64
		for i := range residual {
			diff := residual[i] - a.prevResidual[i]
			num += diff * a.prevResidual[i]
			den += diff * diff
		}
		if den != 0 {
			a.omega = -a.omega * num / den
		}
	}

	a.prevResidual = residual

	out := make([]float64, len(xOld))
	for i := range xOld {
		out[i] = xOld[i] + a.omega*residual[i]
	}
	return out
}

func (a *Aitken) Reset() {
	a.first = true
	a.prevResidual = nil
	a.omega = 0
}

/* QuasiNewton implements an IQN-ILS-style least-squares update: it keeps a
 * window of past (input, residual) difference pairs and solves a
 * least-squares problem for the combination coefficients that would have
 * zeroed the residual, then applies that combination to predict the next
 * iterate. */
type QuasiNewton struct {
	InitialOmega  float64
	MaxHistory    int

	inputs    []*mat.VecDense /* xOld history, most recent last */
	residuals []*mat.VecDense /* residual history, most recent last */
	constant  Constant
}

func NewQuasiNewton(initialOmega float64, maxHistory int) *QuasiNewton {
	if maxHistory <= 0 {
		maxHistory = 8
	}
	return &QuasiNewton{InitialOmega: initialOmega, MaxHistory: maxHistory, constant: Constant{Omega: initialOmega}}
}

func (q *QuasiNewton) Accelerate(xOld, xNew []float64) []float64 {
	n := len(xOld)
	residual := make([]float64, n)
	for i := range xOld {
		residual[i] = xNew[i] - xOld[i]
	}

	if len(q.residuals) == 0 {
		q.inputs = append(q.inputs, mat.NewVecDense(n, append([]float64(nil), xOld...)))
		q.residuals = append(q.residuals, mat.NewVecDense(n, append([]float64(nil), residual...)))
		return q.constant.Accelerate(xOld, xNew)
	}

	/* Build V (residual differences) and W (output differences, output = input + residual) over the stored history */
	k := len(q.residuals)
	curRes := mat.NewVecDense(n, residual)
	curIn := mat.NewVecDense(n, append([]float64(nil), xOld...))

	V := mat.NewDense(n, k, nil)
	W := mat.NewDense(n, k, nil)
	for j := 0; j < k; j++ {
		for i := 0; i < n; i++ {
			V.Set(i, j, curRes.AtVec(i)-q.residuals[j].AtVec(i))
			W.Set(i, j, (curIn.AtVec(i)-q.inputs[j].AtVec(i))+(curRes.AtVec(i)-q.residuals[j].AtVec(i)))
		}
	}

	/* Solve min ||V*alpha + curRes||^2 via QR least squares */
	var qr mat.QR
	qr.Factorize(V)
	alpha := mat.NewVecDense(k, nil)
	negRes := mat.NewVecDense(n, nil)
	negRes.ScaleVec(-1, curRes)
	if err := qr.SolveVecTo(alpha, false, negRes); err != nil {
		/* Ill-conditioned history: fall back to constant relaxation this iteration */
		out := q.constant.Accelerate(xOld, xNew)
		q.pushHistory(curIn, curRes, n)
		return out
	}

	/* Next iterate: xOld + curRes + W*alpha (standard IQN-ILS update) */
	correction := mat.NewVecDense(n, nil)
	correction.MulVec(W, alpha)

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = xOld[i] + residual[i] + correction.AtVec(i)
	}

	q.pushHistory(curIn, curRes, n)
	return out
}

func (q *QuasiNewton) pushHistory(in, res *mat.VecDense, n int) {
	q.inputs = append(q.inputs, in)
	q.residuals = append(q.residuals, res)
	if len(q.inputs) > q.MaxHistory {
		q.inputs = q.inputs[1:]
		q.residuals = q.residuals[1:]
	}
}

func (q *QuasiNewton) Reset() {
	q.inputs = nil
	q.residuals = nil
}
