/*-------------------------------------------------------------------------
 *
 * mesh.go
 *    ID-validated mesh geometry operations
 *
 * Copyright (c) 2024-2026, precice-go, Inc. <support@precice-go.dev>
 *
 * IDENTIFICATION
 *    internal/session/mesh.go
 *
 *-------------------------------------------------------------------------
 */

package session

import (
	"github.com/precice-go/precice/internal/cerr"
	"github.com/precice-go/precice/internal/mesh"
)

func (s *Session) meshByID(id int) (*mesh.Mesh, error) {
	name, ok := s.meshNameByID[id]
	if !ok {
		return nil, cerr.UsageError("mesh id %d is not a configured mesh", id)
	}
	return s.meshes[name], nil
}

/* HasMesh reports whether a mesh of the given name is configured */
func (s *Session) HasMesh(name string) bool {
	_, ok := s.meshIDByName[name]
	return ok
}

/* GetMeshID resolves a configured mesh's name to its ID */
func (s *Session) GetMeshID(name string) (int, error) {
	id, ok := s.meshIDByName[name]
	if !ok {
		return 0, cerr.UsageError("getMeshID: mesh %q not configured", name)
	}
	s.meshUsed[id] = true
	return id, nil
}

/* GetMeshIDs returns every configured mesh's ID */
func (s *Session) GetMeshIDs() []int {
	ids := make([]int, 0, len(s.meshNameByID))
	for id := range s.meshNameByID {
		ids = append(ids, id)
	}
	return ids
}

/* GetMeshVertexSize returns the current vertex count of the mesh with the given ID */
func (s *Session) GetMeshVertexSize(meshID int) (int, error) {
	m, err := s.meshByID(meshID)
	if err != nil {
		return 0, err
	}
	return m.VertexCount(), nil
}

/* SetMeshVertex appends one vertex to the mesh with the given ID, returning its vertex ID */
func (s *Session) SetMeshVertex(meshID int, coords []float64) (int, error) {
	m, err := s.meshByID(meshID)
	if err != nil {
		return 0, err
	}
	id, err := m.SetVertex(coords)
	return int(id), err
}

/* SetMeshVertices appends n vertices in bulk, returning their assigned vertex IDs */
func (s *Session) SetMeshVertices(meshID int, positions [][]float64) ([]int, error) {
	m, err := s.meshByID(meshID)
	if err != nil {
		return nil, err
	}
	ids, err := m.SetVertices(positions)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out, nil
}

/* GetMeshVertices returns the coordinates of the given vertex IDs, in order */
func (s *Session) GetMeshVertices(meshID int, vertexIDs []int) ([][]float64, error) {
	m, err := s.meshByID(meshID)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(vertexIDs))
	for i, vid := range vertexIDs {
		v, err := m.Vertex(mesh.VertexID(vid))
		if err != nil {
			return nil, err
		}
		out[i] = v.Coords
	}
	return out, nil
}

/* GetMeshVertexIDsFromPositions does an exact-match coordinate lookup for each position */
func (s *Session) GetMeshVertexIDsFromPositions(meshID int, positions [][]float64) ([]int, error) {
	m, err := s.meshByID(meshID)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(positions))
	for i, p := range positions {
		vid, err := m.VertexIDFromPosition(p)
		if err != nil {
			return nil, err
		}
		out[i] = int(vid)
	}
	return out, nil
}

/* ResetMesh clears a mesh's geometry and data, re-enabling vertex/edge mutation */
func (s *Session) ResetMesh(meshID int) error {
	m, err := s.meshByID(meshID)
	if err != nil {
		return err
	}
	m.Reset()
	return nil
}

/* SetMeshEdge creates (or reuses) the edge between two vertices */
func (s *Session) SetMeshEdge(meshID, first, second int) (int, error) {
	m, err := s.meshByID(meshID)
	if err != nil {
		return 0, err
	}
	id, err := m.CreateUniqueEdge(mesh.VertexID(first), mesh.VertexID(second))
	return int(id), err
}

/* SetMeshTriangle builds a triangle from three vertex IDs, creating edges as needed */
func (s *Session) SetMeshTriangle(meshID, a, b, c int) error {
	m, err := s.meshByID(meshID)
	if err != nil {
		return err
	}
	return m.SetTriangle(mesh.VertexID(a), mesh.VertexID(b), mesh.VertexID(c))
}

/* SetMeshTriangleWithEdges builds a triangle directly from three edge IDs */
func (s *Session) SetMeshTriangleWithEdges(meshID, e0, e1, e2 int) error {
	m, err := s.meshByID(meshID)
	if err != nil {
		return err
	}
	return m.SetTriangleWithEdges(mesh.EdgeID(e0), mesh.EdgeID(e1), mesh.EdgeID(e2))
}

/* SetMeshQuad builds a quad from four vertex IDs, creating edges as needed */
func (s *Session) SetMeshQuad(meshID, a, b, c, d int) error {
	m, err := s.meshByID(meshID)
	if err != nil {
		return err
	}
	return m.SetQuad(mesh.VertexID(a), mesh.VertexID(b), mesh.VertexID(c), mesh.VertexID(d))
}

/* SetMeshQuadWithEdges builds a quad directly from four edge IDs */
func (s *Session) SetMeshQuadWithEdges(meshID, e0, e1, e2, e3 int) error {
	m, err := s.meshByID(meshID)
	if err != nil {
		return err
	}
	return m.SetQuadWithEdges(mesh.EdgeID(e0), mesh.EdgeID(e1), mesh.EdgeID(e2), mesh.EdgeID(e3))
}

/* NewWatchpoint registers a named watchpoint at the given vertex of the given mesh */
func (s *Session) NewWatchpoint(name string, meshID, vertexID int) error {
	m, err := s.meshByID(meshID)
	if err != nil {
		return err
	}
	wp, err := s.exporter.NewWatchpoint(name, m, mesh.VertexID(vertexID))
	if err != nil {
		return err
	}
	s.watchpoints[name] = wp
	return nil
}
