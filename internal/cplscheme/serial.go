/*-------------------------------------------------------------------------
 *
 * serial.go
 *    Two-participant staggered (Gauss-Seidel style) coupling scheme
 *
 * Copyright (c) 2024-2026, precice-go, Inc. <support@precice-go.dev>
 *
 * IDENTIFICATION
 *    internal/cplscheme/serial.go
 *
 *-------------------------------------------------------------------------
 */

package cplscheme

import (
	"context"

	"github.com/precice-go/precice/internal/action"
	"github.com/precice-go/precice/internal/cerr"
	"github.com/precice-go/precice/internal/m2n"
	"github.com/precice-go/precice/internal/telemetry"
)

/* serialImpl implements the SerialCouplingScheme: the first participant
 * sends first each window, the second receives first. No timestep length
 * crosses the connection (dtMessage.Dt is never set), so the second does not
 * learn or check the first's Δt. In Implicit mode only the second
 * participant evaluates convergence and broadcasts the decision back. */
type serialImpl struct {
	s       *State
	m2n     *m2n.M2N
	isFirst bool
}

/* NewSerial builds a Serial coupling scheme; isFirst selects whether this
 * participant is spec.md 4.6's "first" (sends first) or "second". */
func NewSerial(state *State, channel *m2n.M2N, isFirst bool) *Scheme {
	state.Kind = Serial
	impl := &serialImpl{s: state, m2n: channel, isFirst: isFirst}
	return &Scheme{State: state, impl: impl}
}

type dtMessage struct {
	Dt        float64 `json:"dt"`
	Converged bool    `json:"converged"`
}

func (sc *serialImpl) initialize(ctx context.Context) error {
	return nil
}

func (sc *serialImpl) initializeData(ctx context.Context) error {
	if sc.isFirst {
		return sendReceiveOnce(sc.m2n, sc.s.SendData, sc.s.ReceiveData, true)
	}
	return sendReceiveOnce(sc.m2n, sc.s.SendData, sc.s.ReceiveData, false)
}

func (sc *serialImpl) advance(ctx context.Context) error {
	if sc.s.Mode == Explicit {
		return sc.explicitAdvance(ctx)
	}
	return sc.implicitAdvance(ctx)
}

func (sc *serialImpl) explicitAdvance(ctx context.Context) error {
	if sc.isFirst {
		if err := sc.sendThenReceive(); err != nil {
			return err
		}
	} else {
		if err := sc.receiveThenSend(); err != nil {
			return err
		}
	}
	sc.s.HasDataBeenExchanged = true
	sc.s.completeWindow()
	return nil
}

func (sc *serialImpl) implicitAdvance(ctx context.Context) error {
	for {
		sc.s.Iteration++
		telemetry.RecordIteration(sc.s.LocalParticipant)
		sc.s.storeCheckpoint()
		if err := sc.s.triggerIterationAction(action.BeforeIteration); err != nil {
			return err
		}

		if sc.isFirst {
			if err := sc.sendThenReceive(); err != nil {
				return err
			}
			/* receive the convergence decision the second participant broadcasts */
			var msg dtMessage
			if err := sc.m2n.Master().ReceiveMessage(&msg); err != nil {
				return cerr.TransportErrorf(err, "serial scheme: receive convergence flag failed")
			}
			sc.s.IsConverged = msg.Converged
		} else {
			if err := sc.receiveThenSend(); err != nil {
				return err
			}
			sc.s.IsConverged = sc.s.checkConvergence()
			if !sc.s.IsConverged && sc.s.Iteration >= sc.s.MaxIterations {
				sc.s.IsConverged = true /* iteration budget exhausted: accept and move on */
			}
			if err := sc.m2n.Master().SendMessage(dtMessage{Converged: sc.s.IsConverged}); err != nil {
				return cerr.TransportErrorf(err, "serial scheme: send convergence flag failed")
			}
		}

		sc.s.HasDataBeenExchanged = true

		if sc.s.IsConverged {
			break
		}
		if err := sc.s.triggerIterationAction(action.IterationRejected); err != nil {
			return err
		}
		if sc.s.Accelerator != nil {
			sc.s.accelerate()
		}
	}
	sc.s.completeWindow()
	return nil
}

func (sc *serialImpl) sendThenReceive() error {
	return sendReceiveOnce(sc.m2n, sc.s.SendData, sc.s.ReceiveData, true)
}

func (sc *serialImpl) receiveThenSend() error {
	return sendReceiveOnce(sc.m2n, sc.s.SendData, sc.s.ReceiveData, false)
}
