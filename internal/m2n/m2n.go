/*-------------------------------------------------------------------------
 *
 * m2n.go
 *    Distributed inter-participant channel bundle
 *
 * One master<->master Channel plus, once a Mesh has been partitioned, one
 * Channel per rank that owns vertices the peer participant needs.
 *
 * Copyright (c) 2024-2026, precice-go, Inc. <support@precice-go.dev>
 *
 * IDENTIFICATION
 *    internal/m2n/m2n.go
 *
 *-------------------------------------------------------------------------
 */

package m2n

import (
	"sync"

	"github.com/google/uuid"

	"github.com/precice-go/precice/internal/cerr"
	"github.com/precice-go/precice/internal/com"
	"github.com/precice-go/precice/internal/telemetry"
)

/* M2N bundles the master channel and the per-rank slave channels to one peer participant */
type M2N struct {
	LocalParticipant string
	PeerParticipant  string
	ConnectionID     string /* random per-connection token, logged on both ends for correlating a single run's handshake */

	master com.Channel   /* rank-0 <-> rank-0 */
	slaves []com.Channel /* indexed by local rank, 1..size-1; nil until connectSlaves */

	mu sync.RWMutex
}

/* New builds an M2N with its master channel already connected */
func New(local, peer string, master com.Channel) *M2N {
	return &M2N{LocalParticipant: local, PeerParticipant: peer, ConnectionID: uuid.NewString(), master: master}
}

/* ConnectSlaves installs the per-rank slave channels, established after partitioning */
func (m *M2N) ConnectSlaves(slaves []com.Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slaves = slaves
}

/* Master returns the master<->master Channel */
func (m *M2N) Master() com.Channel {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.master
}

/* Slave returns the Channel for the given local rank, or an error if slaves are not yet connected */
func (m *M2N) Slave(rank int) (com.Channel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if rank == 0 {
		return m.master, nil
	}
	idx := rank - 1
	if idx < 0 || idx >= len(m.slaves) {
		return nil, cerr.InternalError("m2n %s<->%s: no slave channel for rank %d", m.LocalParticipant, m.PeerParticipant, rank)
	}
	return m.slaves[idx], nil
}

/* SendData sends a dense values buffer over the master channel and records
 * transfer metrics. Every scheme exchange goes through it; values are not
 * sharded per owner rank and the slave channels are not used for data. */
func (m *M2N) SendData(values []float64) error {
	if err := m.master.SendDoubles(values); err != nil {
		return err
	}
	telemetry.RecordM2NSend(m.LocalParticipant, m.PeerParticipant, 8*len(values))
	return nil
}

/* ReceiveData receives a dense values buffer over the master channel */
func (m *M2N) ReceiveData() ([]float64, error) {
	values, err := m.master.ReceiveDoubles()
	if err != nil {
		return nil, err
	}
	telemetry.RecordM2NReceive(m.LocalParticipant, m.PeerParticipant, 8*len(values))
	return values, nil
}

/* Close tears down every channel owned by this M2N */
func (m *M2N) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var firstErr error
	if m.master != nil {
		if err := m.master.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, s := range m.slaves {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

/* drainMessage tags a finalize handshake frame with the sender's connection ID,
 * so a log line on either side can be correlated to the same M2N connection. */
type drainMessage struct {
	Phase        string `json:"phase"` /* "ping" or "pong" */
	ConnectionID string `json:"connection_id"`
}

/* Drain performs the finalize ping/pong handshake so neither side closes a
 * socket while the peer is still sending: the requester sends "ping" first and
 * waits for "pong"; the acceptor waits for "ping" and replies "pong". */
func (m *M2N) Drain(requester bool) error {
	if requester {
		if err := m.master.SendMessage(drainMessage{Phase: "ping", ConnectionID: m.ConnectionID}); err != nil {
			return cerr.TransportErrorf(err, "finalize handshake: send ping failed")
		}
		var reply drainMessage
		if err := m.master.ReceiveMessage(&reply); err != nil {
			return cerr.TransportErrorf(err, "finalize handshake: receive pong failed")
		}
		if reply.Phase != "pong" {
			return cerr.ProtocolError("finalize handshake: expected pong, got %q", reply.Phase)
		}
		return nil
	}
	var req drainMessage
	if err := m.master.ReceiveMessage(&req); err != nil {
		return cerr.TransportErrorf(err, "finalize handshake: receive ping failed")
	}
	if req.Phase != "ping" {
		return cerr.ProtocolError("finalize handshake: expected ping, got %q", req.Phase)
	}
	if err := m.master.SendMessage(drainMessage{Phase: "pong", ConnectionID: m.ConnectionID}); err != nil {
		return cerr.TransportErrorf(err, "finalize handshake: send pong failed")
	}
	return nil
}
