/*-------------------------------------------------------------------------
 *
 * groupcomm.go
 *    Master<->slave intra-participant broadcast/gather
 *
 * Copyright (c) 2024-2026, precice-go, Inc. <support@precice-go.dev>
 *
 * IDENTIFICATION
 *    internal/groupcomm/groupcomm.go
 *
 *-------------------------------------------------------------------------
 */

// Package groupcomm implements the rank-group broadcast/gather primitives a
// participant's master rank uses to keep its slaves in lockstep: all control
// decisions (timestep size, convergence flag) are made on the master and
// broadcast, per spec.md section 5's ordering guarantee.
package groupcomm

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/precice-go/precice/internal/cerr"
	"github.com/precice-go/precice/internal/com"
)

/* GroupComm fans control scalars out from the master to its slaves and back */
type GroupComm struct {
	isMaster bool
	rank     int
	size     int
	slaves   []com.Channel /* master-only: one Channel per slave, ordered by rank */
	toMaster com.Channel   /* slave-only: channel back to the master */
}

/* NewMaster builds a GroupComm for rank 0, holding one Channel per slave */
func NewMaster(slaves []com.Channel) *GroupComm {
	return &GroupComm{isMaster: true, rank: 0, size: len(slaves) + 1, slaves: slaves}
}

/* NewSlave builds a GroupComm for a non-zero rank */
func NewSlave(rank, size int, toMaster com.Channel) *GroupComm {
	return &GroupComm{isMaster: false, rank: rank, size: size, toMaster: toMaster}
}

/* Size returns the rank-group size (1 + number of slaves) */
func (g *GroupComm) Size() int { return g.size }

/* IsMaster reports whether this GroupComm represents rank 0 */
func (g *GroupComm) IsMaster() bool { return g.isMaster }

/* Broadcast sends msg from the master to every slave; on a slave it receives and returns the master's value */
func (g *GroupComm) Broadcast(ctx context.Context, msg interface{}, recv interface{}) error {
	if g.isMaster {
		group, _ := errgroup.WithContext(ctx)
		for _, s := range g.slaves {
			s := s
			group.Go(func() error {
				if err := s.SendMessage(msg); err != nil {
					return cerr.TransportErrorf(err, "broadcast to slave failed")
				}
				return nil
			})
		}
		return group.Wait()
	}
	if err := g.toMaster.ReceiveMessage(recv); err != nil {
		return cerr.TransportErrorf(err, "broadcast receive from master failed")
	}
	return nil
}

/* Gather collects one value per slave on the master; on a slave it sends its value */
func (g *GroupComm) Gather(ctx context.Context, local interface{}, collected []interface{}) error {
	if g.isMaster {
		group, _ := errgroup.WithContext(ctx)
		for i, s := range g.slaves {
			i, s := i, s
			group.Go(func() error {
				if err := s.ReceiveMessage(collected[i]); err != nil {
					return cerr.TransportErrorf(err, "gather from slave failed")
				}
				return nil
			})
		}
		return group.Wait()
	}
	if err := g.toMaster.SendMessage(local); err != nil {
		return cerr.TransportErrorf(err, "gather send to master failed")
	}
	return nil
}
