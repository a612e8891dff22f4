/*-------------------------------------------------------------------------
 *
 * runtime.go
 *    Process-wide state, bound to an explicit value instead of globals
 *
 * Copyright (c) 2024-2026, precice-go, Inc. <support@precice-go.dev>
 *
 * IDENTIFICATION
 *    internal/runtime/runtime.go
 *
 *-------------------------------------------------------------------------
 */

// Package runtime binds the state spec.md section 9 calls out as
// "process-wide" (testMode, syncMode, ID counters) to an explicit value
// created at configure() and threaded through, so that multiple Runtimes
// in one test binary stay independent.
package runtime

import "sync"

/* SyncMode controls whether inter-participant waits are real or, in TestMode, short-circuited */
type SyncMode int

const (
	SyncNormal SyncMode = iota
	SyncTest
)

/* Runtime is the single process-wide value a configured session owns */
type Runtime struct {
	TestMode bool
	SyncMode SyncMode

	mu          sync.Mutex
	nextMeshID  int
	nextDataID  int
}

/* New creates an independent Runtime */
func New() *Runtime {
	return &Runtime{}
}

/* NextMeshID allocates the next mesh ID */
func (r *Runtime) NextMeshID() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextMeshID
	r.nextMeshID++
	return id
}

/* NextDataID allocates the next data ID, process-wide across all meshes */
func (r *Runtime) NextDataID() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextDataID
	r.nextDataID++
	return id
}
