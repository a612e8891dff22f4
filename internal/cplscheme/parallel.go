/*-------------------------------------------------------------------------
 *
 * parallel.go
 *    Two-participant Jacobi-style coupling scheme
 *
 * Copyright (c) 2024-2026, precice-go, Inc. <support@precice-go.dev>
 *
 * IDENTIFICATION
 *    internal/cplscheme/parallel.go
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

/* parallelImpl implements ParallelCouplingScheme: both participants send
 * their write data, then both receive, every round. In Implicit mode one
 * designated participant is the convergence authority and broadcasts the
 * decision to the other. */
type parallelImpl struct {
	s                    *State
	m2n                  *m2n.M2N
	isConvergenceAuthority bool
}

/* NewParallel builds a Parallel coupling scheme */
func NewParallel(state *State, channel *m2n.M2N, isConvergenceAuthority bool) *Scheme {
	state.Kind = Parallel
	impl := &parallelImpl{s: state, m2n: channel, isConvergenceAuthority: isConvergenceAuthority}
	return &Scheme{State: state, impl: impl}
}

func (pc *parallelImpl) initialize(ctx context.Context) error {
	return nil
}

func (pc *parallelImpl) initializeData(ctx context.Context) error {
	return sendReceiveOnce(pc.m2n, pc.s.SendData, pc.s.ReceiveData, true)
}

func (pc *parallelImpl) advance(ctx context.Context) error {
	if pc.s.Mode == Explicit {
		return pc.explicitAdvance(ctx)
	}
	return pc.implicitAdvance(ctx)
}

func (pc *parallelImpl) explicitAdvance(ctx context.Context) error {
	if err := sendReceiveOnce(pc.m2n, pc.s.SendData, pc.s.ReceiveData, true); err != nil {
		return err
	}
	pc.s.HasDataBeenExchanged = true
	pc.s.completeWindow()
	return nil
}

func (pc *parallelImpl) implicitAdvance(ctx context.Context) error {
	for {
		pc.s.Iteration++
		telemetry.RecordIteration(pc.s.LocalParticipant)
		pc.s.storeCheckpoint()
		if err := pc.s.triggerIterationAction(action.BeforeIteration); err != nil {
			return err
		}

		if err := sendReceiveOnce(pc.m2n, pc.s.SendData, pc.s.ReceiveData, true); err != nil {
			return err
		}
		pc.s.HasDataBeenExchanged = true

		if pc.isConvergenceAuthority {
			converged := pc.s.checkConvergence()
			if !converged && pc.s.Iteration >= pc.s.MaxIterations {
				converged = true
			}
			pc.s.IsConverged = converged
			if err := pc.m2n.Master().SendMessage(dtMessage{Converged: converged}); err != nil {
				return cerr.TransportErrorf(err, "parallel scheme: broadcast convergence flag failed")
			}
		} else {
			var msg dtMessage
			if err := pc.m2n.Master().ReceiveMessage(&msg); err != nil {
				return cerr.TransportErrorf(err, "parallel scheme: receive convergence flag failed")
			}
			pc.s.IsConverged = msg.Converged
		}

		if pc.s.IsConverged {
			break
		}
		if err := pc.s.triggerIterationAction(action.IterationRejected); err != nil {
			return err
		}
		if pc.s.Accelerator != nil {
			pc.s.accelerate()
		}
	}
	pc.s.completeWindow()
	return nil
}
