/*-------------------------------------------------------------------------
 *
 * multi.go
 *    One-controller, N-peer multi-coupling scheme; always implicit
 *
 * Copyright (c) 2024-2026, precice-go, Inc. <support@precice-go.dev>
 *
 * IDENTIFICATION
 *    internal/cplscheme/multi.go
 *
 *-------------------------------------------------------------------------
 */

package cplscheme

import (
	"context"

	"github.com/precice-go/precice/internal/action"
	"github.com/precice-go/precice/internal/coupling"
	"github.com/precice-go/precice/internal/m2n"
	"github.com/precice-go/precice/internal/telemetry"
)

/* Peer describes one of the controller's N channels: the per-peer subset of
 * send/receive data, keyed by name into the scheme's SendData/ReceiveData maps. */
type Peer struct {
	Name         string
	M2N          *m2n.M2N
	SendNames    []string
	ReceiveNames []string
}

/* multiImpl implements MultiCouplingScheme: per iteration, for each peer in
 * fixed order, send that peer's subset of send-data then receive its subset
 * of receive-data. All receive buffers are merged into the scheme's single
 * ReceiveData map so one accelerator sees the full coupled residual. */
type multiImpl struct {
	s     *State
	peers []Peer
}

/* NewMulti builds a Multi coupling scheme; always Implicit per spec.md section 4.8 */
func NewMulti(state *State, peers []Peer) *Scheme {
	state.Kind = Multi
	state.Mode = Implicit
	impl := &multiImpl{s: state, peers: peers}
	return &Scheme{State: state, impl: impl}
}

func (mc *multiImpl) initialize(ctx context.Context) error {
	return nil
}

func (mc *multiImpl) initializeData(ctx context.Context) error {
	return mc.round(true)
}

func (mc *multiImpl) advance(ctx context.Context) error {
	for {
		mc.s.Iteration++
		telemetry.RecordIteration(mc.s.LocalParticipant)
		mc.s.storeCheckpoint()
		if err := mc.s.triggerIterationAction(action.BeforeIteration); err != nil {
			return err
		}

		if err := mc.round(false); err != nil {
			return err
		}
		mc.s.HasDataBeenExchanged = true

		converged := mc.s.checkConvergence()
		if !converged && mc.s.Iteration >= mc.s.MaxIterations {
			converged = true
		}
		mc.s.IsConverged = converged
		if converged {
			break
		}
		if err := mc.s.triggerIterationAction(action.IterationRejected); err != nil {
			return err
		}
		if mc.s.Accelerator != nil {
			mc.s.accelerate()
		}
	}
	mc.s.completeWindow()
	return nil
}

/* round performs one (send-all, receive-all) pass across every peer in fixed order */
func (mc *multiImpl) round(ignoreCheckpoints bool) error {
	for _, peer := range mc.peers {
		send := subset(mc.s.SendData, peer.SendNames)
		recv := subset(mc.s.ReceiveData, peer.ReceiveNames)
		if err := sendReceiveOnce(peer.M2N, send, recv, true); err != nil {
			return err
		}
	}
	return nil
}

func subset(all map[string]*coupling.Data, names []string) map[string]*coupling.Data {
	out := make(map[string]*coupling.Data, len(names))
	for _, n := range names {
		if d, ok := all[n]; ok {
			out[n] = d
		}
	}
	return out
}
