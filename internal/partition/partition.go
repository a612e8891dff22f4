/*-------------------------------------------------------------------------
 *
 * partition.go
 *    Mesh partitioning between a providing and a receiving participant
 *
 * Copyright (c) 2024-2026, precice-go, Inc. <support@precice-go.dev>
 *
 * IDENTIFICATION
 *    internal/partition/partition.go
 *
 *-------------------------------------------------------------------------
 */

package partition

import (
	"github.com/precice-go/precice/internal/cerr"
	"github.com/precice-go/precice/internal/com"
	"github.com/precice-go/precice/internal/mesh"
)

/* FilterMode controls where ReceivedPartition applies its geometric bounding-box filter */
type FilterMode int

const (
	/* OnMaster: Compute filters the received mesh against LocalBBox, exactly as
	 * for OnSlaves; the master does not distribute per-rank shares */
	OnMaster FilterMode = iota
	/* OnSlaves: each slave filters its own share independently */
	OnSlaves
	/* NoFilter: every rank keeps the full mesh */
	NoFilter
)

/* Partition decides which vertices of a Mesh live on which rank of the receiving participant */
type Partition interface {
	Communicate() error
	Compute() error
}

/* wireMesh is the wire form of a mesh's geometry, sent as one JSON control message (not as a length-prefixed double buffer) */
type wireMesh struct {
	Coords    [][]float64 `json:"coords"`
	Edges     [][2]int    `json:"edges"`
	Triangles [][3]int    `json:"triangles"`
	Quads     [][4]int    `json:"quads"`
	Owners    []int       `json:"owners"`
}

func encode(m *mesh.Mesh) wireMesh {
	w := wireMesh{}
	for _, v := range m.Vertices {
		w.Coords = append(w.Coords, v.Coords)
		w.Owners = append(w.Owners, v.OwnerRank)
	}
	for _, e := range m.Edges {
		w.Edges = append(w.Edges, [2]int{int(e.Vertices[0]), int(e.Vertices[1])})
	}
	for _, t := range m.Triangles {
		w.Triangles = append(w.Triangles, [3]int{int(t.Edges[0]), int(t.Edges[1]), int(t.Edges[2])})
	}
	for _, q := range m.Quads {
		w.Quads = append(w.Quads, [4]int{int(q.Edges[0]), int(q.Edges[1]), int(q.Edges[2]), int(q.Edges[3])})
	}
	return w
}

func decodeInto(m *mesh.Mesh, w wireMesh) error {
	m.Reset()
	for i, c := range w.Coords {
		id, err := m.SetVertex(c)
		if err != nil {
			return err
		}
		m.Vertices[id].OwnerRank = w.Owners[i]
	}
	for _, e := range w.Edges {
		if _, err := m.CreateUniqueEdge(mesh.VertexID(e[0]), mesh.VertexID(e[1])); err != nil {
			return err
		}
	}
	for _, t := range w.Triangles {
		if err := m.SetTriangleWithEdges(mesh.EdgeID(t[0]), mesh.EdgeID(t[1]), mesh.EdgeID(t[2])); err != nil {
			return err
		}
	}
	for _, q := range w.Quads {
		if err := m.SetQuadWithEdges(mesh.EdgeID(q[0]), mesh.EdgeID(q[1]), mesh.EdgeID(q[2]), mesh.EdgeID(q[3])); err != nil {
			return err
		}
	}
	return nil
}

/* Provided is the owner-side partition: it broadcasts its full mesh to every registered consumer */
type Provided struct {
	Mesh      *mesh.Mesh
	Consumers []com.Channel /* one per registered consumer M2N master channel */
}

func NewProvided(m *mesh.Mesh, consumers []com.Channel) *Provided {
	return &Provided{Mesh: m, Consumers: consumers}
}

/* Communicate sends the full mesh to each consumer */
func (p *Provided) Communicate() error {
	w := encode(p.Mesh)
	for _, c := range p.Consumers {
		if err := c.SendMessage(w); err != nil {
			return cerr.TransportErrorf(err, "provided partition: send mesh %q failed", p.Mesh.Name)
		}
	}
	return nil
}

/* Compute is a no-op on the providing side: ownership is already assigned locally */
func (p *Provided) Compute() error {
	return nil
}

/* Received is the consumer-side partition: it receives the global mesh then applies a geometric filter */
type Received struct {
	Mesh         *mesh.Mesh
	Source       com.Channel
	SafetyFactor float64
	FilterMode   FilterMode
	LocalBBox    BoundingBox

	received wireMesh
}

/* BoundingBox is an axis-aligned box in the mesh's coordinate space */
type BoundingBox struct {
	Min, Max []float64
}

/* Contains reports whether coords lie within the box inflated by factor */
func (b BoundingBox) Contains(coords []float64, factor float64) bool {
	if len(b.Min) == 0 {
		return true /* empty box = unbounded, used when no filtering is configured */
	}
	for i, c := range coords {
		extent := (b.Max[i] - b.Min[i]) * (factor - 1) / 2
		if c < b.Min[i]-extent || c > b.Max[i]+extent {
			return false
		}
	}
	return true
}

func NewReceived(m *mesh.Mesh, source com.Channel, safetyFactor float64, filterMode FilterMode, bbox BoundingBox) *Received {
	if safetyFactor <= 0 {
		safetyFactor = 1.0
	}
	return &Received{Mesh: m, Source: source, SafetyFactor: safetyFactor, FilterMode: filterMode, LocalBBox: bbox}
}

/* Communicate receives the global mesh from the source */
func (r *Received) Communicate() error {
	var w wireMesh
	if err := r.Source.ReceiveMessage(&w); err != nil {
		return cerr.TransportErrorf(err, "received partition: receive mesh %q failed", r.Mesh.Name)
	}
	r.received = w
	return nil
}

/* Compute applies the geometric filter and installs the filtered mesh locally */
func (r *Received) Compute() error {
	w := r.received
	if r.FilterMode == NoFilter {
		return decodeInto(r.Mesh, w)
	}

	filtered := wireMesh{}
	keep := make(map[int]int) /* original index -> filtered index */
	for i, c := range w.Coords {
		if r.LocalBBox.Contains(c, r.SafetyFactor) {
			keep[i] = len(filtered.Coords)
			filtered.Coords = append(filtered.Coords, c)
			filtered.Owners = append(filtered.Owners, w.Owners[i])
		}
	}
	for _, e := range w.Edges {
		i0, ok0 := keep[e[0]]
		i1, ok1 := keep[e[1]]
		if ok0 && ok1 {
			filtered.Edges = append(filtered.Edges, [2]int{i0, i1})
		}
	}
	return decodeInto(r.Mesh, filtered)
}
