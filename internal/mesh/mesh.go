/*-------------------------------------------------------------------------
 *
 * mesh.go
 *    Vertices, edges, faces and per-vertex data arrays
 *
 * Copyright (c) 2024-2026, precice-go, Inc. <support@precice-go.dev>
 *
 * IDENTIFICATION
 *    internal/mesh/mesh.go
 *
 *-------------------------------------------------------------------------
 */

package mesh

import (
	"fmt"

	"github.com/precice-go/precice/internal/cerr"
)

/* VertexID identifies a vertex within one Mesh; dense 0..N-1 */
type VertexID int

/* EdgeID identifies an edge within one Mesh */
type EdgeID int

/* Vertex is a point in 2D or 3D space with an owning rank */
type Vertex struct {
	ID          VertexID
	Coords      []float64
	OwnerRank   int
}

/* Edge is an unordered pair of vertex IDs */
type Edge struct {
	ID       EdgeID
	Vertices [2]VertexID
}

/* Triangle is a tuple of three edge IDs */
type Triangle struct {
	Edges [3]EdgeID
}

/* Quad is a tuple of four edge IDs */
type Quad struct {
	Edges [4]EdgeID
}

/* Data is a named per-vertex array with a fixed dimensionality */
type Data struct {
	ID            int
	Name          string
	Dimension     int /* 1 = scalar, spaceDim = vector */
	Values        []float64
	OldValues     []float64          /* previous-iteration buffer, for implicit convergence measures */
	ExtrapolationHistory [][]float64 /* up to order 2 of prior completed-window values, newest first */
	Extrapolate   bool
}

/* Mesh is an ordered collection of geometric primitives plus named Data */
type Mesh struct {
	ID        int
	Name      string
	SpaceDim  int
	Vertices  []Vertex
	Edges     []Edge
	Triangles []Triangle
	Quads     []Quad
	Data      map[string]*Data

	edgeIndex map[[2]VertexID]EdgeID
	locked    bool
}

/* New creates an empty, unlocked mesh */
func New(id int, name string, spaceDim int) *Mesh {
	return &Mesh{
		ID:        id,
		Name:      name,
		SpaceDim:  spaceDim,
		Data:      make(map[string]*Data),
		edgeIndex: make(map[[2]VertexID]EdgeID),
	}
}

/* Locked reports whether geometry mutation is currently rejected */
func (m *Mesh) Locked() bool {
	return m.locked
}

/* Lock engages the mesh-lock; geometry mutation is rejected until Reset */
func (m *Mesh) Lock() {
	m.locked = true
}

/* Reset clears all geometry and data and re-unlocks the mesh */
func (m *Mesh) Reset() {
	m.Vertices = nil
	m.Edges = nil
	m.Triangles = nil
	m.Quads = nil
	m.edgeIndex = make(map[[2]VertexID]EdgeID)
	for _, d := range m.Data {
		d.Values = nil
		d.OldValues = nil
	}
	m.locked = false
}

func (m *Mesh) requireUnlocked(op string) error {
	if m.locked {
		return cerr.UsageError("%s rejected: mesh %q is locked", op, m.Name)
	}
	return nil
}

/* SetVertex appends a vertex, returning its freshly assigned dense ID */
func (m *Mesh) SetVertex(coords []float64) (VertexID, error) {
	if err := m.requireUnlocked("setMeshVertex"); err != nil {
		return 0, err
	}
	if len(coords) != m.SpaceDim {
		return 0, cerr.UsageError("setMeshVertex: expected %d coordinates, got %d", m.SpaceDim, len(coords))
	}
	id := VertexID(len(m.Vertices))
	cp := make([]float64, len(coords))
	copy(cp, coords)
	m.Vertices = append(m.Vertices, Vertex{ID: id, Coords: cp})
	for _, d := range m.Data {
		d.Values = append(d.Values, make([]float64, d.Dimension)...)
	}
	return id, nil
}

/* SetVertices appends n vertices in bulk */
func (m *Mesh) SetVertices(positions [][]float64) ([]VertexID, error) {
	ids := make([]VertexID, 0, len(positions))
	for _, p := range positions {
		id, err := m.SetVertex(p)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

/* Vertex returns the vertex at the given ID */
func (m *Mesh) Vertex(id VertexID) (Vertex, error) {
	if int(id) < 0 || int(id) >= len(m.Vertices) {
		return Vertex{}, cerr.UsageError("vertex index %d out of range [0,%d)", id, len(m.Vertices))
	}
	return m.Vertices[id], nil
}

/* VertexIDFromPosition does an exact-match coordinate lookup */
func (m *Mesh) VertexIDFromPosition(coords []float64) (VertexID, error) {
	for _, v := range m.Vertices {
		if floatsEqual(v.Coords, coords) {
			return v.ID, nil
		}
	}
	return 0, cerr.UsageError("no vertex at position %v in mesh %q", coords, m.Name)
}

func floatsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

/* CreateUniqueEdge returns the edge between v and w, creating it if absent */
func (m *Mesh) CreateUniqueEdge(v, w VertexID) (EdgeID, error) {
	if err := m.requireUnlocked("createUniqueEdge"); err != nil {
		return 0, err
	}
	key := edgeKey(v, w)
	if id, ok := m.edgeIndex[key]; ok {
		return id, nil
	}
	id := EdgeID(len(m.Edges))
	m.Edges = append(m.Edges, Edge{ID: id, Vertices: [2]VertexID{v, w}})
	m.edgeIndex[key] = id
	return id, nil
}

func edgeKey(v, w VertexID) [2]VertexID {
	if v <= w {
		return [2]VertexID{v, w}
	}
	return [2]VertexID{w, v}
}

/* SetTriangle builds a triangle from three vertices, creating edges as needed */
func (m *Mesh) SetTriangle(a, b, c VertexID) error {
	if err := m.requireUnlocked("setMeshTriangle"); err != nil {
		return err
	}
	e0, err := m.CreateUniqueEdge(a, b)
	if err != nil {
		return err
	}
	e1, err := m.CreateUniqueEdge(b, c)
	if err != nil {
		return err
	}
	e2, err := m.CreateUniqueEdge(c, a)
	if err != nil {
		return err
	}
	m.Triangles = append(m.Triangles, Triangle{Edges: [3]EdgeID{e0, e1, e2}})
	return nil
}

/* SetTriangleWithEdges builds a triangle directly from three existing edge IDs */
func (m *Mesh) SetTriangleWithEdges(e0, e1, e2 EdgeID) error {
	if err := m.requireUnlocked("setMeshTriangleWithEdges"); err != nil {
		return err
	}
	m.Triangles = append(m.Triangles, Triangle{Edges: [3]EdgeID{e0, e1, e2}})
	return nil
}

/* SetQuad builds a quad from four vertices, creating edges as needed */
func (m *Mesh) SetQuad(a, b, c, d VertexID) error {
	if err := m.requireUnlocked("setMeshQuad"); err != nil {
		return err
	}
	e0, err := m.CreateUniqueEdge(a, b)
	if err != nil {
		return err
	}
	e1, err := m.CreateUniqueEdge(b, c)
	if err != nil {
		return err
	}
	e2, err := m.CreateUniqueEdge(c, d)
	if err != nil {
		return err
	}
	e3, err := m.CreateUniqueEdge(d, a)
	if err != nil {
		return err
	}
	m.Quads = append(m.Quads, Quad{Edges: [4]EdgeID{e0, e1, e2, e3}})
	return nil
}

/* SetQuadWithEdges builds a quad directly from four existing edge IDs */
func (m *Mesh) SetQuadWithEdges(e0, e1, e2, e3 EdgeID) error {
	if err := m.requireUnlocked("setMeshQuadWithEdges"); err != nil {
		return err
	}
	m.Quads = append(m.Quads, Quad{Edges: [4]EdgeID{e0, e1, e2, e3}})
	return nil
}

/* AllocateData creates or re-sizes a named Data array to match VertexCount()*dimension */
func (m *Mesh) AllocateData(name string, dimension int) *Data {
	d, ok := m.Data[name]
	if !ok {
		d = &Data{Name: name, Dimension: dimension, ID: len(m.Data)}
		m.Data[name] = d
	}
	size := len(m.Vertices) * d.Dimension
	if len(d.Values) != size {
		d.Values = make([]float64, size)
	}
	if len(d.OldValues) != size {
		d.OldValues = make([]float64, size)
	}
	return d
}

/* VertexCount returns the number of vertices currently in the mesh */
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

/* GetData looks up a Data array by name */
func (m *Mesh) GetData(name string) (*Data, error) {
	d, ok := m.Data[name]
	if !ok {
		return nil, cerr.UsageError("mesh %q has no data %q", m.Name, name)
	}
	return d, nil
}

/* CheckDimension returns a UsageError if op does not match the data's arity */
func (d *Data) CheckDimension(wantScalar bool) error {
	isScalar := d.Dimension == 1
	if wantScalar != isScalar {
		return cerr.UsageError("data %q has dimension %d, operation expects %s", d.Name, d.Dimension,
			map[bool]string{true: "scalar", false: "vector"}[wantScalar])
	}
	return nil
}

/* String implements fmt.Stringer for debugging */
func (m *Mesh) String() string {
	return fmt.Sprintf("Mesh(%s, vertices=%d, edges=%d, tris=%d, quads=%d)",
		m.Name, len(m.Vertices), len(m.Edges), len(m.Triangles), len(m.Quads))
}
