package mapping

import (
	"testing"

	"github.com/precice-go/precice/internal/mesh"
)

func newMeshWithData(vertices int, dataName string) (*mesh.Mesh, *mesh.Data) {
	m := mesh.New(1, "surface", 2)
	for i := 0; i < vertices; i++ {
		if _, err := m.SetVertex([]float64{float64(i), 0}); err != nil {
			panic(err)
		}
	}
	d := m.AllocateData(dataName, 1)
	return m, d
}

func TestDispatchComputesOnceAndMaps(t *testing.T) {
	from, fromData := newMeshWithData(3, "temperature")
	to, toData := newMeshWithData(3, "temperature")
	copy(fromData.Values, []float64{1, 2, 3})

	id := NewIdentity(from, to)
	ctx := NewContext(id, Initial, fromData, toData)
	d := NewDispatcher("solid", ctx)

	if err := d.Dispatch(); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !id.HasComputedMapping() {
		t.Error("mapping not computed after first Dispatch")
	}
	for i, v := range toData.Values {
		if v != fromData.Values[i] {
			t.Errorf("toData.Values[%d] = %v, want %v", i, v, fromData.Values[i])
		}
	}
}

func TestDispatchClearsOnAdvanceOnly(t *testing.T) {
	from, fromData := newMeshWithData(2, "pressure")
	to, toData := newMeshWithData(2, "pressure")

	onAdvance := NewIdentity(from, to)
	ctxAdvance := NewContext(onAdvance, OnAdvance, fromData, toData)

	initial := NewIdentity(from, to)
	ctxInitial := NewContext(initial, Initial, fromData, toData)

	d := NewDispatcher("fluid", ctxAdvance, ctxInitial)
	if err := d.Dispatch(); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if onAdvance.HasComputedMapping() {
		t.Error("OnAdvance mapping still computed after Dispatch, want cleared")
	}
	if !initial.HasComputedMapping() {
		t.Error("Initial mapping was cleared, want it to remain computed")
	}
}

func TestDispatchDoesNotReapplyInitialContext(t *testing.T) {
	from, fromData := newMeshWithData(1, "flux")
	to, toData := newMeshWithData(1, "flux")
	fromData.Values[0] = 7

	id := NewIdentity(from, to)
	ctx := NewContext(id, Initial, fromData, toData)
	d := NewDispatcher("solid", ctx)

	if err := d.Dispatch(); err != nil {
		t.Fatalf("first Dispatch: %v", err)
	}
	fromData.Values[0] = 42 /* simulate a second Dispatch() call without a new window */
	if err := d.Dispatch(); err != nil {
		t.Fatalf("second Dispatch: %v", err)
	}
	if toData.Values[0] != 7 {
		t.Errorf("toData.Values[0] = %v, want 7 (no re-application once hasMappedData is set)", toData.Values[0])
	}
}
