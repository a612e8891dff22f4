/*-------------------------------------------------------------------------
 *
 * run.go
 *    runParticipant: a constant-data participant driven from a configuration
 *    document alone, for smoke-testing a coupled setup without writing a solver
 *
 * Copyright (c) 2024-2026, precice-go, Inc. <support@precice-go.dev>
 *
 * IDENTIFICATION
 *    cmd/precice-run/run.go
 *
 *-------------------------------------------------------------------------
 */

package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/precice-go/precice/internal/accelerator"
	"github.com/precice-go/precice/internal/config"
	"github.com/precice-go/precice/internal/coupling"
	"github.com/precice-go/precice/internal/cplscheme"
	"github.com/precice-go/precice/internal/telemetry"
	"github.com/precice-go/precice/pkg/precice"
)

/* runParticipant drives one named participant from cfg alone: it provides
 * one vertex per mesh the participant uses, writes a constant value into
 * every declared write-data, and advances until the scheme's time windows
 * are exhausted. It supports all three scheme kinds; Serial and Parallel
 * connect the single declared peer; under Multi the controller dials every
 * participant it exchanges data with, and every other participant listens
 * for the controller's single connection. */
func runParticipant(ctx context.Context, configPath, participant string, listen bool, dt float64) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	pc, err := cfg.Participant(participant)
	if err != nil {
		return err
	}

	p := precice.New(participant)
	if err := p.Configure(configPath); err != nil {
		return err
	}

	if err := seedMeshes(p, cfg, pc); err != nil {
		return err
	}

	state := cplscheme.NewState(participant, cfg.Scheme.TimeWindowSize, cfg.Scheme.MaxTime,
		cfg.Scheme.MaxTimeWindows, cfg.Scheme.MaxIterations, cfg.Scheme.ValidDigits)
	state.Mode = schemeMode(cfg.Scheme.Mode)
	if err := bindCouplingData(p, pc, state); err != nil {
		return err
	}
	if err := bindConvergenceMeasures(p, cfg, state); err != nil {
		return err
	}

	var scheme *cplscheme.Scheme
	var isFirst bool
	switch cfg.Scheme.Kind {
	case "serial", "parallel":
		peer, first, err := peerAndRole(cfg, participant)
		if err != nil {
			return err
		}
		isFirst = first
		conn, err := p.ConnectPeer(peer, listen)
		if err != nil {
			return err
		}
		if cfg.Scheme.Kind == "serial" {
			scheme = cplscheme.NewSerial(state, conn, isFirst)
		} else {
			scheme = cplscheme.NewParallel(state, conn, isFirst)
		}
	case "multi":
		isFirst = participant == cfg.Scheme.ControllerParticipant
		peers, err := buildMultiPeers(p, cfg, participant, isFirst)
		if err != nil {
			return err
		}
		scheme = cplscheme.NewMulti(state, peers)
	default:
		return fmt.Errorf("run: scheme kind %q is not one of serial, parallel, multi", cfg.Scheme.Kind)
	}
	p.UseScheme(scheme)

	if a := buildAccelerator(cfg.Scheme.Accelerator); a != nil {
		if err := p.SetAccelerator(a); err != nil {
			return err
		}
	}

	windowDt, err := p.Initialize(ctx)
	if err != nil {
		return err
	}
	if err := writeConstant(p, pc, dt); err != nil {
		return err
	}
	if err := p.InitializeData(ctx); err != nil {
		return err
	}

	step := dt
	if windowDt < step {
		step = windowDt
	}
	for p.IsCouplingOngoing() {
		if err := writeConstant(p, pc, dt); err != nil {
			return err
		}
		next, err := p.Advance(ctx, step)
		if err != nil {
			return err
		}
		step = dt
		if next < step {
			step = next
		}
		telemetry.Info(ctx, "advanced", map[string]interface{}{"participant": participant})
	}

	return p.Finalize(isFirst)
}

/* peerAndRole resolves the other participant in a two-participant scheme and
 * whether this participant is spec.md 4.6's "first" (controls the window size). */
func peerAndRole(cfg *config.Config, participant string) (peer string, isFirst bool, err error) {
	switch cfg.Scheme.Kind {
	case "serial", "parallel":
		switch participant {
		case cfg.Scheme.FirstParticipant:
			return cfg.Scheme.SecondParticipant, true, nil
		case cfg.Scheme.SecondParticipant:
			return cfg.Scheme.FirstParticipant, false, nil
		default:
			return "", false, fmt.Errorf("run: participant %q is not first-participant or second-participant in the configured scheme", participant)
		}
	default:
		return "", false, fmt.Errorf("run: scheme kind %q is not supported by this command", cfg.Scheme.Kind)
	}
}

func schemeMode(mode string) cplscheme.Mode {
	if mode == "implicit" {
		return cplscheme.Implicit
	}
	return cplscheme.Explicit
}

/* seedMeshes provides one vertex at the origin for every mesh the participant
 * uses, enough for a constant-data smoke test to exchange one value per data array. */
func seedMeshes(p *precice.Participant, cfg *config.Config, pc *config.ParticipantConfig) error {
	for _, use := range pc.UsesMeshes {
		mc, err := cfg.Mesh(use.Mesh)
		if err != nil {
			return err
		}
		meshID, err := p.GetMeshID(use.Mesh)
		if err != nil {
			return err
		}
		if _, err := p.SetMeshVertex(meshID, make([]float64, mc.SpaceDim)); err != nil {
			return err
		}
	}
	return nil
}

/* bindCouplingData registers every declared write/read data array into the
 * scheme state's SendData/ReceiveData maps. */
func bindCouplingData(p *precice.Participant, pc *config.ParticipantConfig, state *cplscheme.State) error {
	for _, w := range pc.Writes {
		d, err := p.CouplingData(w.Mesh, w.Data, coupling.NoExtrapolation)
		if err != nil {
			return err
		}
		state.SendData[w.Data] = d
	}
	for _, r := range pc.Reads {
		d, err := p.CouplingData(r.Mesh, r.Data, coupling.NoExtrapolation)
		if err != nil {
			return err
		}
		state.ReceiveData[r.Data] = d
	}
	return nil
}

/* bindConvergenceMeasures installs one ConvergenceMeasure per configured
 * convergence-measure entry; a scheme with none of these considers every
 * implicit iteration converged immediately, so this is required for an
 * implicit run driven purely from configuration to actually iterate. */
func bindConvergenceMeasures(p *precice.Participant, cfg *config.Config, state *cplscheme.State) error {
	for _, m := range cfg.Scheme.ConvergenceMeasures {
		d, err := p.CouplingData(m.Mesh, m.Data, coupling.NoExtrapolation)
		if err != nil {
			return err
		}
		state.ConvergenceMeasures = append(state.ConvergenceMeasures, &cplscheme.ConvergenceMeasure{
			Data:      d,
			Tolerance: m.Tolerance,
			Suffices:  m.Suffices,
		})
	}
	return nil
}

/* buildMultiPeers derives the Multi scheme's peer topology from the
 * configured exchange list: every other participant named as a from/to of
 * an exchange touching participant becomes one Peer, carrying only the
 * data names that actually flow across that specific connection. The
 * controller dials every peer; every other participant listens for the
 * controller's single incoming connection. */
func buildMultiPeers(p *precice.Participant, cfg *config.Config, participant string, isController bool) ([]cplscheme.Peer, error) {
	controller := cfg.Scheme.ControllerParticipant

	names := map[string]bool{}
	if isController {
		for _, ex := range cfg.Scheme.Exchanges {
			if ex.From == participant && ex.To != participant {
				names[ex.To] = true
			}
			if ex.To == participant && ex.From != participant {
				names[ex.From] = true
			}
		}
	} else {
		names[controller] = true
	}

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	peers := make([]cplscheme.Peer, 0, len(sorted))
	for _, name := range sorted {
		conn, err := p.ConnectPeer(name, !isController)
		if err != nil {
			return nil, err
		}
		var sendNames, receiveNames []string
		for _, ex := range cfg.Scheme.Exchanges {
			if ex.From == participant && ex.To == name {
				sendNames = append(sendNames, ex.Data)
			}
			if ex.From == name && ex.To == participant {
				receiveNames = append(receiveNames, ex.Data)
			}
		}
		peers = append(peers, cplscheme.Peer{Name: name, M2N: conn, SendNames: sendNames, ReceiveNames: receiveNames})
	}
	return peers, nil
}

/* writeConstant writes value into every vertex of every declared write-data array */
func writeConstant(p *precice.Participant, pc *config.ParticipantConfig, value float64) error {
	for _, w := range pc.Writes {
		meshID, err := p.GetMeshID(w.Mesh)
		if err != nil {
			return err
		}
		dataID, err := p.GetDataID(w.Mesh, w.Data)
		if err != nil {
			return err
		}
		size, err := p.GetMeshVertexSize(meshID)
		if err != nil {
			return err
		}
		for v := 0; v < size; v++ {
			if err := p.WriteScalarData(meshID, dataID, v, value); err != nil {
				return err
			}
		}
	}
	return nil
}

func buildAccelerator(cfg config.AcceleratorConfig) accelerator.Accelerator {
	switch cfg.Kind {
	case "constant":
		omega := cfg.Omega
		if omega <= 0 {
			omega = 1
		}
		return &accelerator.Constant{Omega: omega}
	case "aitken":
		omega := cfg.Omega
		if omega <= 0 {
			omega = 0.1
		}
		return accelerator.NewAitken(omega)
	case "quasi-newton":
		omega := cfg.Omega
		if omega <= 0 {
			omega = 0.1
		}
		return accelerator.NewQuasiNewton(omega, cfg.MaxHistory)
	default:
		return nil
	}
}
