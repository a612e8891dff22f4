/*-------------------------------------------------------------------------
 *
 * mapping.go
 *    Interpolation operator lifecycle
 *
 * The concrete interpolation kernels (nearest-neighbor, RBF, projection)
 * are out of scope: this package only defines the lifecycle contract the
 * dispatcher drives, plus an Identity mapping used by tests and by
 * same-mesh coupling where no geometric interpolation is required.
 *
 * Copyright (c) 2024-2026, precice-go, Inc. <support@precice-go.dev>
 *
 * IDENTIFICATION
 *    internal/mapping/mapping.go
 *
 *-------------------------------------------------------------------------
 */

package mapping

import (
	"github.com/precice-go/precice/internal/cerr"
	"github.com/precice-go/precice/internal/mesh"
)

/* Timing controls when a Mapping is (re)computed relative to a time window */
type Timing int

const (
	/* Initial mappings are computed once at initialize() and never cleared */
	Initial Timing = iota
	/* OnAdvance mappings are recomputed every time window */
	OnAdvance
)

/* Mapping is an opaque interpolation operator from one mesh's data array to another's */
type Mapping interface {
	ComputeMapping() error
	HasComputedMapping() bool
	Map(inData, outData *mesh.Data) error
	Clear()
}

/* Identity maps in -> out verbatim; requires the two meshes have equal vertex counts */
type Identity struct {
	From, To *mesh.Mesh
	computed bool
}

/* NewIdentity builds an Identity mapping between two meshes */
func NewIdentity(from, to *mesh.Mesh) *Identity {
	return &Identity{From: from, To: to}
}

func (id *Identity) ComputeMapping() error {
	if id.From.VertexCount() != id.To.VertexCount() {
		return cerr.UsageError("identity mapping requires equal vertex counts: %d vs %d",
			id.From.VertexCount(), id.To.VertexCount())
	}
	id.computed = true
	return nil
}

func (id *Identity) HasComputedMapping() bool {
	return id.computed
}

func (id *Identity) Map(inData, outData *mesh.Data) error {
	if !id.computed {
		return cerr.InternalError("identity mapping used before ComputeMapping")
	}
	if len(inData.Values) != len(outData.Values) {
		return cerr.InternalError("identity mapping: value buffer size mismatch %d vs %d",
			len(inData.Values), len(outData.Values))
	}
	copy(outData.Values, inData.Values)
	return nil
}

func (id *Identity) Clear() {
	id.computed = false
}
