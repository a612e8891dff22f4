/*-------------------------------------------------------------------------
 *
 * data.go
 *    Per-(mesh,data) coupling state: current values, old-iteration values,
 *    and the extrapolation history used to predict the next window
 *
 * Copyright (c) 2024-2026, precice-go, Inc. <support@precice-go.dev>
 *
 * IDENTIFICATION
 *    internal/coupling/data.go
 *
 *-------------------------------------------------------------------------
 */

// Package coupling owns the per-window numerical state exchanged between
// participants: the CouplingData buffers a scheme reads from and writes to,
// plus the extrapolation that predicts a window's initial values from the
// history of completed windows.
package coupling

import (
	"math"

	"github.com/precice-go/precice/internal/mesh"
)

/* ExtrapolationOrder caps how many past windows feed the predictor */
type ExtrapolationOrder int

const (
	NoExtrapolation ExtrapolationOrder = 0
	Linear          ExtrapolationOrder = 1
	Quadratic       ExtrapolationOrder = 2
)

/* Data is the coupling-scheme view of one mesh Data array: current values,
 * the previous-iteration snapshot used by convergence measures, and up to
 * two prior completed-window snapshots used for extrapolation. */
type Data struct {
	ID          int
	MeshData    *mesh.Data
	Order       ExtrapolationOrder
	history     [][]float64 /* index 0 = window N-1, index 1 = window N-2 */
	Requires    bool        /* participant declared initial data for this Data */
}

/* New wraps a mesh.Data as coupling state */
func New(id int, md *mesh.Data, order ExtrapolationOrder) *Data {
	return &Data{ID: id, MeshData: md, Order: order}
}

/* Values returns the current values buffer */
func (d *Data) Values() []float64 {
	return d.MeshData.Values
}

/* StoreIterationCheckpoint snapshots current values as the "old iteration" buffer */
func (d *Data) StoreIterationCheckpoint() {
	copy(d.MeshData.OldValues, d.MeshData.Values)
}

/* RestoreIterationCheckpoint rewinds current values to the last checkpoint, for a rejected implicit iteration */
func (d *Data) RestoreIterationCheckpoint() {
	copy(d.MeshData.Values, d.MeshData.OldValues)
}

/* RelativeL2Change computes ||current-old|| / ||old|| (if old is all-zero: 1 when current differs, else 0), the
 * convergence measure spec.md section 8 scenario 2 asks for. */
func (d *Data) RelativeL2Change() float64 {
	var diffSq, oldSq float64
	for i, cur := range d.MeshData.Values {
		old := d.MeshData.OldValues[i]
		diff := cur - old
		diffSq += diff * diff
		oldSq += old * old
	}
	if oldSq == 0 {
		if diffSq == 0 {
			return 0
		}
		return 1
	}
	return math.Sqrt(diffSq) / math.Sqrt(oldSq)
}

/* CompleteWindow shifts the extrapolation history and, if Order > 0, predicts
 * the next window's initial values in place. Call once per converged window. */
func (d *Data) CompleteWindow() {
	if d.Order == NoExtrapolation {
		return
	}

	cur := make([]float64, len(d.MeshData.Values))
	copy(cur, d.MeshData.Values)

	switch d.Order {
	case Linear:
		if len(d.history) >= 1 {
			prev := d.history[0]
			predicted := make([]float64, len(cur))
			for i := range cur {
				predicted[i] = 2*cur[i] - prev[i]
			}
			d.MeshData.Values = predicted
		}
	case Quadratic:
		if len(d.history) >= 2 {
			prev1, prev2 := d.history[0], d.history[1]
			predicted := make([]float64, len(cur))
			for i := range cur {
				predicted[i] = 3*cur[i] - 3*prev1[i] + prev2[i]
			}
			d.MeshData.Values = predicted
		} else if len(d.history) == 1 {
			prev := d.history[0]
			predicted := make([]float64, len(cur))
			for i := range cur {
				predicted[i] = 2*cur[i] - prev[i]
			}
			d.MeshData.Values = predicted
		}
	}

	d.history = append([][]float64{cur}, d.history...)
	if len(d.history) > 2 {
		d.history = d.history[:2]
	}
}
