/*-------------------------------------------------------------------------
 *
 * data.go
 *    ID-validated, arity-checked data read/write operations
 *
 * Copyright (c) 2024-2026, precice-go, Inc. <support@precice-go.dev>
 *
 * IDENTIFICATION
 *    internal/session/data.go
 *
 *-------------------------------------------------------------------------
 */

package session

import (
	"github.com/precice-go/precice/internal/cerr"
	"github.com/precice-go/precice/internal/mapping"
	"github.com/precice-go/precice/internal/mesh"
)

func (s *Session) dataByID(meshID, dataID int) (*mesh.Mesh, *mesh.Data, error) {
	m, err := s.meshByID(meshID)
	if err != nil {
		return nil, nil, err
	}
	names, ok := s.dataIDs[meshID]
	if !ok {
		return nil, nil, cerr.UsageError("mesh id %d has no registered data", meshID)
	}
	for name, id := range names {
		if id == dataID {
			d, err := m.GetData(name)
			return m, d, err
		}
	}
	return nil, nil, cerr.UsageError("data id %d is not registered on mesh id %d", dataID, meshID)
}

/* checkWritable rejects writes to a data array the participant did not declare as write-data */
func (s *Session) checkWritable(dataID int) error {
	if !s.writableData[dataID] {
		return cerr.UsageError("write: participant %q did not declare write-data for %s", s.participant, s.dataNameByID[dataID])
	}
	return nil
}

/* checkReadable rejects reads of a data array the participant did not declare as read-data */
func (s *Session) checkReadable(dataID int) error {
	if !s.readableData[dataID] {
		return cerr.UsageError("read: participant %q did not declare read-data for %s", s.participant, s.dataNameByID[dataID])
	}
	return nil
}

/* HasData reports whether the named data array exists on the named mesh */
func (s *Session) HasData(meshName, dataName string) bool {
	m, ok := s.meshes[meshName]
	if !ok {
		return false
	}
	_, err := m.GetData(dataName)
	return err == nil
}

/* GetDataID resolves a (mesh, data) name pair to its data ID */
func (s *Session) GetDataID(meshName, dataName string) (int, error) {
	meshID, ok := s.meshIDByName[meshName]
	if !ok {
		return 0, cerr.UsageError("getDataID: mesh %q not configured", meshName)
	}
	id, ok := s.dataIDs[meshID][dataName]
	if !ok {
		return 0, cerr.UsageError("getDataID: mesh %q has no data %q", meshName, dataName)
	}
	return id, nil
}

/* WriteScalarData writes one scalar value at the given vertex */
func (s *Session) WriteScalarData(meshID, dataID, vertexID int, value float64) error {
	_, d, err := s.dataByID(meshID, dataID)
	if err != nil {
		return err
	}
	if err := s.checkWritable(dataID); err != nil {
		return err
	}
	if err := d.CheckDimension(true); err != nil {
		return err
	}
	if vertexID < 0 || vertexID >= len(d.Values) {
		return cerr.UsageError("writeScalarData: vertex id %d out of range", vertexID)
	}
	d.Values[vertexID] = value
	return nil
}

/* ReadScalarData reads one scalar value at the given vertex */
func (s *Session) ReadScalarData(meshID, dataID, vertexID int) (float64, error) {
	_, d, err := s.dataByID(meshID, dataID)
	if err != nil {
		return 0, err
	}
	if err := s.checkReadable(dataID); err != nil {
		return 0, err
	}
	if err := d.CheckDimension(true); err != nil {
		return 0, err
	}
	if vertexID < 0 || vertexID >= len(d.Values) {
		return 0, cerr.UsageError("readScalarData: vertex id %d out of range", vertexID)
	}
	return d.Values[vertexID], nil
}

/* WriteVectorData writes a spaceDim-length vector at the given vertex */
func (s *Session) WriteVectorData(meshID, dataID, vertexID int, value []float64) error {
	m, d, err := s.dataByID(meshID, dataID)
	if err != nil {
		return err
	}
	if err := s.checkWritable(dataID); err != nil {
		return err
	}
	if err := d.CheckDimension(false); err != nil {
		return err
	}
	if len(value) != m.SpaceDim {
		return cerr.UsageError("writeVectorData: expected %d components, got %d", m.SpaceDim, len(value))
	}
	lo := vertexID * d.Dimension
	if vertexID < 0 || lo+d.Dimension > len(d.Values) {
		return cerr.UsageError("writeVectorData: vertex id %d out of range", vertexID)
	}
	copy(d.Values[lo:lo+d.Dimension], value)
	return nil
}

/* ReadVectorData reads the spaceDim-length vector at the given vertex */
func (s *Session) ReadVectorData(meshID, dataID, vertexID int) ([]float64, error) {
	_, d, err := s.dataByID(meshID, dataID)
	if err != nil {
		return nil, err
	}
	if err := s.checkReadable(dataID); err != nil {
		return nil, err
	}
	if err := d.CheckDimension(false); err != nil {
		return nil, err
	}
	lo := vertexID * d.Dimension
	if vertexID < 0 || lo+d.Dimension > len(d.Values) {
		return nil, cerr.UsageError("readVectorData: vertex id %d out of range", vertexID)
	}
	out := make([]float64, d.Dimension)
	copy(out, d.Values[lo:lo+d.Dimension])
	return out, nil
}

/* WriteBlockScalarData writes one scalar value per given vertex ID */
func (s *Session) WriteBlockScalarData(meshID, dataID int, vertexIDs []int, values []float64) error {
	if len(vertexIDs) != len(values) {
		return cerr.UsageError("writeBlockScalarData: %d vertex ids but %d values", len(vertexIDs), len(values))
	}
	for i, vid := range vertexIDs {
		if err := s.WriteScalarData(meshID, dataID, vid, values[i]); err != nil {
			return err
		}
	}
	return nil
}

/* ReadBlockScalarData reads one scalar value per given vertex ID */
func (s *Session) ReadBlockScalarData(meshID, dataID int, vertexIDs []int) ([]float64, error) {
	out := make([]float64, len(vertexIDs))
	for i, vid := range vertexIDs {
		v, err := s.ReadScalarData(meshID, dataID, vid)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

/* WriteBlockVectorData writes one spaceDim-length vector per given vertex ID */
func (s *Session) WriteBlockVectorData(meshID, dataID int, vertexIDs []int, values [][]float64) error {
	if len(vertexIDs) != len(values) {
		return cerr.UsageError("writeBlockVectorData: %d vertex ids but %d values", len(vertexIDs), len(values))
	}
	for i, vid := range vertexIDs {
		if err := s.WriteVectorData(meshID, dataID, vid, values[i]); err != nil {
			return err
		}
	}
	return nil
}

/* ReadBlockVectorData reads one spaceDim-length vector per given vertex ID */
func (s *Session) ReadBlockVectorData(meshID, dataID int, vertexIDs []int) ([][]float64, error) {
	out := make([][]float64, len(vertexIDs))
	for i, vid := range vertexIDs {
		v, err := s.ReadVectorData(meshID, dataID, vid)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

/* SetMapping registers an explicit interpolation operator from one mesh's data to another's,
 * keyed by the target data ID so MapWriteDataFrom/MapReadDataTo can look it up. */
func (s *Session) SetMapping(targetDataID int, m mapping.Mapping) {
	s.mappings[targetDataID] = m
}

/* MapWriteDataFrom computes (if not already computed) and applies the mapping into fromDataID's
 * data, writing the interpolated result into toDataID. */
func (s *Session) MapWriteDataFrom(fromMeshID, fromDataID, toMeshID, toDataID int) error {
	_, fromData, err := s.dataByID(fromMeshID, fromDataID)
	if err != nil {
		return err
	}
	_, toData, err := s.dataByID(toMeshID, toDataID)
	if err != nil {
		return err
	}
	mp, ok := s.mappings[toDataID]
	if !ok {
		return cerr.UsageError("mapWriteDataFrom: no mapping registered for data id %d", toDataID)
	}
	if !mp.HasComputedMapping() {
		if err := mp.ComputeMapping(); err != nil {
			return err
		}
	}
	return mp.Map(fromData, toData)
}

/* MapReadDataTo computes (if not already computed) and applies the mapping from fromDataID's
 * data into toDataID. */
func (s *Session) MapReadDataTo(fromMeshID, fromDataID, toMeshID, toDataID int) error {
	return s.MapWriteDataFrom(fromMeshID, fromDataID, toMeshID, toDataID)
}
