/*-------------------------------------------------------------------------
 *
 * precice.go
 *    Public embedding API: the surface a solver links against
 *
 * Copyright (c) 2024-2026, precice-go, Inc. <support@precice-go.dev>
 *
 * IDENTIFICATION
 *    pkg/precice/precice.go
 *
 *-------------------------------------------------------------------------
 */

// Package precice is the public embedding API for the coupling runtime: a
// thin, stable wrapper around internal/session.Session that solvers import
// directly. Transport, the coupling scheme and acceleration are set up by
// explicit calls (ConnectPeer, UseScheme, SetAccelerator); mesh partitioning
// is not reachable from this package.
package precice

import (
	"context"

	"github.com/precice-go/precice/internal/accelerator"
	"github.com/precice-go/precice/internal/coupling"
	"github.com/precice-go/precice/internal/cplscheme"
	"github.com/precice-go/precice/internal/groupcomm"
	"github.com/precice-go/precice/internal/m2n"
	"github.com/precice-go/precice/internal/mapping"
	"github.com/precice-go/precice/internal/session"
)

/* Participant is the embedding program's single handle onto a configured coupling run */
type Participant struct {
	sess *session.Session
}

/* New creates an unconfigured Participant for the given participant name; call Configure next */
func New(name string) *Participant {
	return &Participant{sess: session.New(name)}
}

/* Configure loads the YAML coupling configuration and freezes the mesh/data ID tables */
func (p *Participant) Configure(configPath string) error {
	return p.sess.Configure(configPath)
}

/* ConnectPeer dials (listen=false) or accepts (listen=true) the M2N connection to peer */
func (p *Participant) ConnectPeer(peer string, listen bool) (*m2n.M2N, error) {
	return p.sess.ConnectPeer(peer, listen)
}

/* ConnectPeerChannel installs an already-established M2N connection, for in-process tests */
func (p *Participant) ConnectPeerChannel(peer string, conn *m2n.M2N) {
	p.sess.ConnectPeerChannel(peer, conn)
}

/* CouplingData exposes the named mesh data as a coupling.Data for building a CouplingScheme */
func (p *Participant) CouplingData(meshName, dataName string, order coupling.ExtrapolationOrder) (*coupling.Data, error) {
	return p.sess.CouplingData(meshName, dataName, order)
}

/* UseScheme installs the CouplingScheme this run advances */
func (p *Participant) UseScheme(scheme *cplscheme.Scheme) {
	p.sess.BuildScheme(scheme)
}

/* SetAccelerator installs the implicit-iteration accelerator the scheme uses between iterations */
func (p *Participant) SetAccelerator(a accelerator.Accelerator) error {
	return p.sess.SetAccelerator(a)
}

/* ConnectRankGroup installs the intra-participant master<->slave group used to verify
 * every rank proposes the same computedTimestepLength to Advance, for multi-rank runs. */
func (p *Participant) ConnectRankGroup(gc *groupcomm.GroupComm) {
	p.sess.ConnectRankGroup(gc)
}

/* AddWriteMapping registers a write-side mapping context, dispatched before every exchange */
func (p *Participant) AddWriteMapping(ctx *mapping.Context) {
	p.sess.AddWriteMapping(ctx)
}

/* AddReadMapping registers a read-side mapping context, dispatched after every exchange */
func (p *Participant) AddReadMapping(ctx *mapping.Context) {
	p.sess.AddReadMapping(ctx)
}

/* Initialize performs the first data exchange and returns the max timestep length for the first advance() */
func (p *Participant) Initialize(ctx context.Context) (float64, error) {
	return p.sess.Initialize(ctx)
}

/* InitializeData exchanges each participant's declared initial data, once, before the first advance() */
func (p *Participant) InitializeData(ctx context.Context) error {
	return p.sess.InitializeData(ctx)
}

/* Advance runs one coupling step of at most computedTimestepLength, returning the next step's max length */
func (p *Participant) Advance(ctx context.Context, computedTimestepLength float64) (float64, error) {
	return p.sess.Advance(ctx, computedTimestepLength)
}

/* Finalize drains and tears down every M2N connection; requester selects the handshake side */
func (p *Participant) Finalize(requester bool) error {
	return p.sess.Finalize(requester)
}

/* --- introspection --- */

func (p *Participant) IsCouplingOngoing() bool   { return p.sess.IsCouplingOngoing() }
func (p *Participant) IsTimestepComplete() bool  { return p.sess.IsTimestepComplete() }
func (p *Participant) IsReadDataAvailable() bool { return p.sess.IsReadDataAvailable() }

func (p *Participant) IsActionRequired(action string) bool { return p.sess.IsActionRequired(action) }
func (p *Participant) MarkActionFulfilled(action string)   { p.sess.MarkActionFulfilled(action) }

func (p *Participant) GetDimensions(meshName string) (int, error) { return p.sess.GetDimensions(meshName) }
func (p *Participant) HasMesh(name string) bool                   { return p.sess.HasMesh(name) }
func (p *Participant) GetMeshID(name string) (int, error)         { return p.sess.GetMeshID(name) }
func (p *Participant) GetMeshIDs() []int                          { return p.sess.GetMeshIDs() }
func (p *Participant) GetMeshVertexSize(meshID int) (int, error)  { return p.sess.GetMeshVertexSize(meshID) }

func (p *Participant) HasData(meshName, dataName string) bool { return p.sess.HasData(meshName, dataName) }
func (p *Participant) GetDataID(meshName, dataName string) (int, error) {
	return p.sess.GetDataID(meshName, dataName)
}

/* --- geometry --- */

func (p *Participant) SetMeshVertex(meshID int, coords []float64) (int, error) {
	return p.sess.SetMeshVertex(meshID, coords)
}
func (p *Participant) SetMeshVertices(meshID int, positions [][]float64) ([]int, error) {
	return p.sess.SetMeshVertices(meshID, positions)
}
func (p *Participant) GetMeshVertices(meshID int, vertexIDs []int) ([][]float64, error) {
	return p.sess.GetMeshVertices(meshID, vertexIDs)
}
func (p *Participant) GetMeshVertexIDsFromPositions(meshID int, positions [][]float64) ([]int, error) {
	return p.sess.GetMeshVertexIDsFromPositions(meshID, positions)
}
func (p *Participant) ResetMesh(meshID int) error { return p.sess.ResetMesh(meshID) }

func (p *Participant) SetMeshEdge(meshID, first, second int) (int, error) {
	return p.sess.SetMeshEdge(meshID, first, second)
}
func (p *Participant) SetMeshTriangle(meshID, a, b, c int) error {
	return p.sess.SetMeshTriangle(meshID, a, b, c)
}
func (p *Participant) SetMeshTriangleWithEdges(meshID, e0, e1, e2 int) error {
	return p.sess.SetMeshTriangleWithEdges(meshID, e0, e1, e2)
}
func (p *Participant) SetMeshQuad(meshID, a, b, c, d int) error {
	return p.sess.SetMeshQuad(meshID, a, b, c, d)
}
func (p *Participant) SetMeshQuadWithEdges(meshID, e0, e1, e2, e3 int) error {
	return p.sess.SetMeshQuadWithEdges(meshID, e0, e1, e2, e3)
}

func (p *Participant) NewWatchpoint(name string, meshID, vertexID int) error {
	return p.sess.NewWatchpoint(name, meshID, vertexID)
}

/* --- data I/O --- */

func (p *Participant) WriteScalarData(meshID, dataID, vertexID int, value float64) error {
	return p.sess.WriteScalarData(meshID, dataID, vertexID, value)
}
func (p *Participant) ReadScalarData(meshID, dataID, vertexID int) (float64, error) {
	return p.sess.ReadScalarData(meshID, dataID, vertexID)
}
func (p *Participant) WriteVectorData(meshID, dataID, vertexID int, value []float64) error {
	return p.sess.WriteVectorData(meshID, dataID, vertexID, value)
}
func (p *Participant) ReadVectorData(meshID, dataID, vertexID int) ([]float64, error) {
	return p.sess.ReadVectorData(meshID, dataID, vertexID)
}
func (p *Participant) WriteBlockScalarData(meshID, dataID int, vertexIDs []int, values []float64) error {
	return p.sess.WriteBlockScalarData(meshID, dataID, vertexIDs, values)
}
func (p *Participant) ReadBlockScalarData(meshID, dataID int, vertexIDs []int) ([]float64, error) {
	return p.sess.ReadBlockScalarData(meshID, dataID, vertexIDs)
}
func (p *Participant) WriteBlockVectorData(meshID, dataID int, vertexIDs []int, values [][]float64) error {
	return p.sess.WriteBlockVectorData(meshID, dataID, vertexIDs, values)
}
func (p *Participant) ReadBlockVectorData(meshID, dataID int, vertexIDs []int) ([][]float64, error) {
	return p.sess.ReadBlockVectorData(meshID, dataID, vertexIDs)
}

func (p *Participant) SetMapping(targetDataID int, m mapping.Mapping) {
	p.sess.SetMapping(targetDataID, m)
}
func (p *Participant) MapWriteDataFrom(fromMeshID, fromDataID, toMeshID, toDataID int) error {
	return p.sess.MapWriteDataFrom(fromMeshID, fromDataID, toMeshID, toDataID)
}
func (p *Participant) MapReadDataTo(fromMeshID, fromDataID, toMeshID, toDataID int) error {
	return p.sess.MapReadDataTo(fromMeshID, fromDataID, toMeshID, toDataID)
}
