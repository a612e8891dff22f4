package mesh

import (
	"testing"

	"github.com/precice-go/precice/internal/cerr"
)

func TestSetVertexIDsAreContiguous(t *testing.T) {
	m := New(1, "fluid-surface", 2)
	positions := [][]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	ids, err := m.SetVertices(positions)
	if err != nil {
		t.Fatalf("SetVertices: %v", err)
	}
	for i, id := range ids {
		if int(id) != i {
			t.Errorf("vertex %d got id %d, want %d", i, id, i)
		}
	}
	if m.VertexCount() != len(positions) {
		t.Errorf("VertexCount() = %d, want %d", m.VertexCount(), len(positions))
	}
}

func TestGetMeshVerticesRoundTrips(t *testing.T) {
	m := New(1, "fluid-surface", 3)
	want := [][]float64{{1, 2, 3}, {4, 5, 6}}
	ids, err := m.SetVertices(want)
	if err != nil {
		t.Fatalf("SetVertices: %v", err)
	}
	for i, id := range ids {
		v, err := m.Vertex(id)
		if err != nil {
			t.Fatalf("Vertex(%d): %v", id, err)
		}
		for j := range want[i] {
			if v.Coords[j] != want[i][j] {
				t.Errorf("vertex %d coord %d = %v, want %v", id, j, v.Coords[j], want[i][j])
			}
		}
	}
}

func TestLockRejectsVertexMutationUntilReset(t *testing.T) {
	m := New(1, "fluid-surface", 2)
	if _, err := m.SetVertex([]float64{0, 0}); err != nil {
		t.Fatalf("SetVertex before lock: %v", err)
	}

	m.Lock()
	if !m.Locked() {
		t.Fatal("Locked() = false after Lock()")
	}
	if _, err := m.SetVertex([]float64{1, 1}); !cerr.Is(err, cerr.Usage) {
		t.Fatalf("SetVertex after Lock: got %v, want UsageError", err)
	}

	m.Reset()
	if m.Locked() {
		t.Fatal("Locked() = true after Reset()")
	}
	if _, err := m.SetVertex([]float64{2, 2}); err != nil {
		t.Fatalf("SetVertex after Reset: %v", err)
	}
}

func TestVertexIDFromPositionExactMatch(t *testing.T) {
	m := New(1, "fluid-surface", 2)
	if _, err := m.SetVertices([][]float64{{0, 0}, {3, 4}}); err != nil {
		t.Fatalf("SetVertices: %v", err)
	}
	id, err := m.VertexIDFromPosition([]float64{3, 4})
	if err != nil {
		t.Fatalf("VertexIDFromPosition: %v", err)
	}
	if id != 1 {
		t.Errorf("VertexIDFromPosition = %d, want 1", id)
	}
	if _, err := m.VertexIDFromPosition([]float64{9, 9}); !cerr.Is(err, cerr.Usage) {
		t.Fatalf("VertexIDFromPosition miss: got %v, want UsageError", err)
	}
}

func TestCreateUniqueEdgeDeduplicates(t *testing.T) {
	m := New(1, "solid-surface", 2)
	if _, err := m.SetVertices([][]float64{{0, 0}, {1, 0}}); err != nil {
		t.Fatalf("SetVertices: %v", err)
	}
	e1, err := m.CreateUniqueEdge(0, 1)
	if err != nil {
		t.Fatalf("CreateUniqueEdge: %v", err)
	}
	e2, err := m.CreateUniqueEdge(1, 0)
	if err != nil {
		t.Fatalf("CreateUniqueEdge reversed: %v", err)
	}
	if e1 != e2 {
		t.Errorf("edge(0,1) = %d, edge(1,0) = %d, want equal", e1, e2)
	}
	if len(m.Edges) != 1 {
		t.Errorf("len(Edges) = %d, want 1", len(m.Edges))
	}
}

func TestCheckDimension(t *testing.T) {
	m := New(1, "fluid-surface", 3)
	scalar := m.AllocateData("pressure", 1)
	vector := m.AllocateData("velocity", 3)

	if err := scalar.CheckDimension(true); err != nil {
		t.Errorf("scalar.CheckDimension(true): %v", err)
	}
	if err := scalar.CheckDimension(false); !cerr.Is(err, cerr.Usage) {
		t.Errorf("scalar.CheckDimension(false) = %v, want UsageError", err)
	}
	if err := vector.CheckDimension(false); err != nil {
		t.Errorf("vector.CheckDimension(false): %v", err)
	}
	if err := vector.CheckDimension(true); !cerr.Is(err, cerr.Usage) {
		t.Errorf("vector.CheckDimension(true) = %v, want UsageError", err)
	}
}
