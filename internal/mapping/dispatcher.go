/*-------------------------------------------------------------------------
 *
 * dispatcher.go
 *    Sequences computeMapping/map/clear across a participant's write- or
 *    read-side mapping contexts at the correct point in the time loop
 *
 * Copyright (c) 2024-2026, precice-go, Inc. <support@precice-go.dev>
 *
 * IDENTIFICATION
 *    internal/mapping/dispatcher.go
 *
 *-------------------------------------------------------------------------
 */

package mapping

import (
	"github.com/precice-go/precice/internal/mesh"
	"github.com/precice-go/precice/internal/telemetry"
)

/* Context links one source Data to one target Data through a Mapping, with
 * the Timing that controls when the Mapping is (re)computed and cleared. */
type Context struct {
	Mapping Mapping
	Timing  Timing
	From    *mesh.Data
	To      *mesh.Data

	hasMappedData bool
}

/* NewContext builds a write- or read-side mapping context */
func NewContext(m Mapping, timing Timing, from, to *mesh.Data) *Context {
	return &Context{Mapping: m, Timing: timing, From: from, To: to}
}

/* Dispatcher sequences a participant's mapping contexts per spec.md 4.4:
 * compute any not-yet-computed mapping, apply every context that has not
 * yet mapped its data, then clear every ON_ADVANCE mapping (and its mapped
 * flag) so the next Dispatch computes and applies it again. An Initial
 * context is applied on the first Dispatch only. */
type Dispatcher struct {
	Participant string
	contexts    []*Context
}

/* NewDispatcher builds a Dispatcher over a fixed list of mapping contexts */
func NewDispatcher(participant string, contexts ...*Context) *Dispatcher {
	return &Dispatcher{Participant: participant, contexts: contexts}
}

/* Dispatch runs one pass of the three-phase algorithm. Called once before
 * exchange (write-side) and once after (read-side); hasMappedData on each
 * Context prevents double application when a window's read-side dispatch
 * is invoked from both initializeData and advance. */
func (d *Dispatcher) Dispatch() error {
	for _, c := range d.contexts {
		if c.Mapping.HasComputedMapping() {
			continue
		}
		if err := c.Mapping.ComputeMapping(); err != nil {
			return err
		}
		telemetry.RecordMappingComputed(d.Participant)
	}

	for _, c := range d.contexts {
		if c.hasMappedData {
			continue
		}
		for i := range c.To.Values {
			c.To.Values[i] = 0
		}
		if err := c.Mapping.Map(c.From, c.To); err != nil {
			return err
		}
		c.hasMappedData = true
	}

	for _, c := range d.contexts {
		if c.Timing != OnAdvance {
			continue
		}
		c.Mapping.Clear()
		c.hasMappedData = false
	}

	return nil
}
