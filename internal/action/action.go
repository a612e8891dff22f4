/*-------------------------------------------------------------------------
 *
 * action.go
 *    Named, timed callbacks fired at fixed points in advance()
 *
 * Copyright (c) 2024-2026, precice-go, Inc. <support@precice-go.dev>
 *
 * IDENTIFICATION
 *    internal/action/action.go
 *
 *-------------------------------------------------------------------------
 */

// Package action implements spec.md section 4.1/9's action-timing bitmask:
// a single triggerActions(mask) replaces the five-valued timing enum's
// separate per-place set-membership tests.
package action

/* Timing is a bitmask over the points in advance() where actions can fire */
type Timing uint8

const (
	AlwaysPrior          Timing = 1 << iota /* after write-side mapping, before scheme.advance(), every advance() call */
	OnExchangePrior                         /* after write-side mapping, before scheme.advance(), only if this advance() will exchange */
	AlwaysPost                              /* after scheme.advance(), every call */
	OnExchangePost                          /* after scheme.advance(), only if this call exchanged */
	OnTimestepCompletePost                  /* after scheme.advance(), only if the window completed */
	BeforeIteration                         /* implicit schemes only: before each internal iteration's exchange */
	IterationRejected                       /* implicit schemes only: an iteration failed to converge and will repeat */
)

/* Action is a user-supplied callback invoked at its configured Timing */
type Action interface {
	Timing() Timing
	Perform() error
}

/* Named wraps a plain function as an Action with an explicit timing mask */
type Named struct {
	Name string
	When Timing
	Fn   func() error
}

func (n *Named) Timing() Timing     { return n.When }
func (n *Named) Perform() error { return n.Fn() }

/* Dispatcher holds the registered actions for one participant */
type Dispatcher struct {
	actions []Action
}

func NewDispatcher(actions ...Action) *Dispatcher {
	return &Dispatcher{actions: actions}
}

/* Trigger runs every registered action whose Timing intersects mask */
func (d *Dispatcher) Trigger(mask Timing) error {
	for _, a := range d.actions {
		if a.Timing()&mask != 0 {
			if err := a.Perform(); err != nil {
				return err
			}
		}
	}
	return nil
}

/* Required-action vocabulary the core itself uses; user-defined tags are opaque strings.
 * WriteIterationCheckpoint/ReadIterationCheckpoint are conventionally the Name of an Action
 * registered with When=BeforeIteration / When=IterationRejected respectively, so a solver
 * embedded in the same process can save/restore its own state synchronously inside the
 * implicit scheme's internal iteration loop. */
const (
	WriteIterationCheckpoint = "write-iteration-checkpoint"
	ReadIterationCheckpoint  = "read-iteration-checkpoint"
	PlotOutput               = "plot-output"
)

/* RequiredActions tracks which named actions the embedding program must fulfil before the next call */
type RequiredActions struct {
	pending map[string]bool
}

func NewRequiredActions() *RequiredActions {
	return &RequiredActions{pending: make(map[string]bool)}
}

/* Require marks name as required until Fulfil is called */
func (r *RequiredActions) Require(name string) {
	r.pending[name] = true
}

/* IsRequired reports whether name is currently pending */
func (r *RequiredActions) IsRequired(name string) bool {
	return r.pending[name]
}

/* Fulfil clears name from the pending set */
func (r *RequiredActions) Fulfil(name string) {
	delete(r.pending, name)
}
