package partition

import (
	"testing"

	"github.com/precice-go/precice/internal/com"
	"github.com/precice-go/precice/internal/mesh"
)

func buildSourceMesh() *mesh.Mesh {
	m := mesh.New(1, "fluid-surface", 2)
	for _, c := range [][]float64{{0, 0}, {5, 0}, {10, 0}, {15, 0}} {
		if _, err := m.SetVertex(c); err != nil {
			panic(err)
		}
	}
	return m
}

func TestProvidedReceivedRoundTripNoFilter(t *testing.T) {
	a, b := com.InMemoryPair()
	source := buildSourceMesh()
	provided := NewProvided(source, []com.Channel{a})

	target := mesh.New(2, "fluid-surface", 2)
	received := NewReceived(target, b, 1.0, NoFilter, BoundingBox{})

	done := make(chan error, 1)
	go func() { done <- provided.Communicate() }()
	if err := received.Communicate(); err != nil {
		t.Fatalf("Communicate: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("provided.Communicate: %v", err)
	}

	if err := provided.Compute(); err != nil {
		t.Fatalf("provided.Compute: %v", err)
	}
	if err := received.Compute(); err != nil {
		t.Fatalf("received.Compute: %v", err)
	}

	if target.VertexCount() != source.VertexCount() {
		t.Fatalf("VertexCount() = %d, want %d", target.VertexCount(), source.VertexCount())
	}
	for i := 0; i < source.VertexCount(); i++ {
		sv, _ := source.Vertex(mesh.VertexID(i))
		tv, _ := target.Vertex(mesh.VertexID(i))
		for j := range sv.Coords {
			if sv.Coords[j] != tv.Coords[j] {
				t.Errorf("vertex %d coord %d = %v, want %v", i, j, tv.Coords[j], sv.Coords[j])
			}
		}
	}
}

func TestReceivedAppliesGeometricFilter(t *testing.T) {
	a, b := com.InMemoryPair()
	source := buildSourceMesh()
	provided := NewProvided(source, []com.Channel{a})

	target := mesh.New(2, "fluid-surface", 2)
	bbox := BoundingBox{Min: []float64{0, 0}, Max: []float64{6, 0}}
	received := NewReceived(target, b, 1.0, OnSlaves, bbox)

	done := make(chan error, 1)
	go func() { done <- provided.Communicate() }()
	if err := received.Communicate(); err != nil {
		t.Fatalf("Communicate: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("provided.Communicate: %v", err)
	}
	if err := received.Compute(); err != nil {
		t.Fatalf("received.Compute: %v", err)
	}

	/* only the two vertices within [0,6] on the x-axis survive the filter */
	if target.VertexCount() != 2 {
		t.Fatalf("VertexCount() = %d, want 2 (filtered)", target.VertexCount())
	}
}

func TestBoundingBoxContainsInflatesBySafetyFactor(t *testing.T) {
	b := BoundingBox{Min: []float64{0}, Max: []float64{10}}
	if !b.Contains([]float64{10.4}, 1.1) {
		t.Error("Contains(10.4, factor 1.1) = false, want true (within inflated box)")
	}
	if b.Contains([]float64{20}, 1.1) {
		t.Error("Contains(20, factor 1.1) = true, want false")
	}
}

func TestBoundingBoxEmptyIsUnbounded(t *testing.T) {
	var b BoundingBox
	if !b.Contains([]float64{1e9}, 1.0) {
		t.Error("empty BoundingBox.Contains = false, want true (unbounded)")
	}
}
