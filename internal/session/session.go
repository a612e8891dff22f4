/*-------------------------------------------------------------------------
 *
 * session.go
 *    SessionFacade: the configure -> initialize -> advance* -> finalize
 *    lifecycle every embedding solver drives
 *
 * Copyright (c) 2024-2026, precice-go, Inc. <support@precice-go.dev>
 *
 * IDENTIFICATION
 *    internal/session/session.go
 *
 *-------------------------------------------------------------------------
 */

// Package session owns the mesh/data ID tables and lifecycle state machine
// a configured run drives: Configure freezes the ID tables, Initialize
// runs the scheme's initialize step and locks the meshes, InitializeData
// performs the initial data exchange, Advance steps the CouplingScheme, and
// Finalize drains every M2N connection before tearing it down.
package session

import (
	"context"
	"fmt"
	"math"

	"github.com/precice-go/precice/internal/accelerator"
	"github.com/precice-go/precice/internal/action"
	"github.com/precice-go/precice/internal/cerr"
	"github.com/precice-go/precice/internal/com"
	"github.com/precice-go/precice/internal/config"
	"github.com/precice-go/precice/internal/coupling"
	"github.com/precice-go/precice/internal/cplscheme"
	"github.com/precice-go/precice/internal/export"
	"github.com/precice-go/precice/internal/groupcomm"
	"github.com/precice-go/precice/internal/m2n"
	"github.com/precice-go/precice/internal/mapping"
	"github.com/precice-go/precice/internal/mesh"
	"github.com/precice-go/precice/internal/runtime"
	"github.com/precice-go/precice/internal/telemetry"
)

/* phase is the coarse lifecycle state; most operations are only legal in specific phases */
type phase int

const (
	phaseUnconfigured phase = iota
	phaseConfigured
	phaseInitialized
	phaseFinalized
)

/* Session is the embedding program's single handle onto a configured coupling run */
type Session struct {
	rt          *runtime.Runtime
	cfg         *config.Config
	participant string
	phase       phase

	meshes       map[string]*mesh.Mesh
	meshIDByName map[string]int
	meshNameByID map[int]string
	meshUsed     map[int]bool

	dataIDs      map[int]map[string]int /* meshID -> dataName -> dataID */
	dataNameByID map[int]string         /* dataID -> "mesh.data", for error messages */
	cplData      map[int]*coupling.Data /* dataID -> coupling-scheme view */

	writableData map[int]bool /* dataID -> this participant declared write-data for it */
	readableData map[int]bool /* dataID -> this participant declared read-data for it */

	scheme    *cplscheme.Scheme
	m2ns      map[string]*m2n.M2N     /* peer participant name -> connection */
	mappings  map[int]mapping.Mapping /* dataID -> explicit mapping, if configured */
	rankGroup *groupcomm.GroupComm    /* intra-participant master<->slave group, if this run is multi-rank */

	writeMappings []*mapping.Context /* dispatched before exchange, every advance()/initializeData() */
	readMappings  []*mapping.Context /* dispatched after exchange */

	actions  *action.Dispatcher
	required *action.RequiredActions

	exporter    *export.Exporter
	watchpoints map[string]*export.Watchpoint

	timeWindowCounter int
}

/* New creates an unconfigured Session for the named participant */
func New(participant string) *Session {
	return &Session{
		participant: participant,
		phase:       phaseUnconfigured,
		rt:          runtime.New(),
		meshes:      make(map[string]*mesh.Mesh),
		meshIDByName: make(map[string]int),
		meshNameByID: make(map[int]string),
		meshUsed:     make(map[int]bool),
		dataIDs:      make(map[int]map[string]int),
		dataNameByID: make(map[int]string),
		cplData:      make(map[int]*coupling.Data),
		writableData: make(map[int]bool),
		readableData: make(map[int]bool),
		m2ns:         make(map[string]*m2n.M2N),
		mappings:     make(map[int]mapping.Mapping),
		watchpoints:  make(map[string]*export.Watchpoint),
	}
}

func (s *Session) requirePhase(op string, want phase) error {
	if s.phase != want {
		return cerr.StateError("%s: illegal in lifecycle phase %d, expected %d", op, s.phase, want)
	}
	return nil
}

/* Configure loads a YAML configuration document and freezes the mesh/data ID tables.
 * Network wiring (M2N connections) happens afterward via ConnectPeer, since address
 * assignment may depend on how the embedding program launches its peers. */
func (s *Session) Configure(path string) error {
	if err := s.requirePhase("configure", phaseUnconfigured); err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	cfg.ApplyEnvOverrides()
	telemetry.InitLogging(cfg.Logging.Level, cfg.Logging.Format)
	s.cfg = cfg

	pc, err := cfg.Participant(s.participant)
	if err != nil {
		return err
	}

	for _, mc := range cfg.Meshes {
		id := s.rt.NextMeshID()
		m := mesh.New(id, mc.Name, mc.SpaceDim)
		for _, dc := range mc.Data {
			md := m.AllocateData(dc.Name, dc.Dimension)
			md.ID = s.rt.NextDataID()
			if s.dataIDs[id] == nil {
				s.dataIDs[id] = make(map[string]int)
			}
			s.dataIDs[id][dc.Name] = md.ID
			s.dataNameByID[md.ID] = fmt.Sprintf("%s.%s", mc.Name, dc.Name)
		}
		s.meshes[mc.Name] = m
		s.meshIDByName[mc.Name] = id
		s.meshNameByID[id] = mc.Name
	}

	for _, w := range pc.Writes {
		id, ok := s.dataIDs[s.meshIDByName[w.Mesh]][w.Data]
		if !ok {
			return cerr.ConfigError("participant %q declares write-data %q on undeclared mesh.data %q.%q", s.participant, w.Data, w.Mesh, w.Data)
		}
		s.writableData[id] = true
	}
	for _, r := range pc.Reads {
		id, ok := s.dataIDs[s.meshIDByName[r.Mesh]][r.Data]
		if !ok {
			return cerr.ConfigError("participant %q declares read-data %q on undeclared mesh.data %q.%q", s.participant, r.Data, r.Mesh, r.Data)
		}
		s.readableData[id] = true
	}

	exporter, err := export.New(cfg.Export.Directory)
	if err != nil {
		return err
	}
	s.exporter = exporter
	s.required = action.NewRequiredActions()
	s.actions = action.NewDispatcher()

	s.phase = phaseConfigured
	return nil
}

/* ConnectPeer establishes (or reuses) the M2N connection to peer, dialing if
 * listen is false or accepting a single inbound connection if listen is true. */
func (s *Session) ConnectPeer(peer string, listen bool) (*m2n.M2N, error) {
	if err := s.requirePhase("connectPeer", phaseConfigured); err != nil {
		return nil, err
	}
	if existing, ok := s.m2ns[peer]; ok {
		return existing, nil
	}
	peerCfg, err := s.cfg.Participant(peer)
	if err != nil {
		return nil, err
	}
	var ch com.Channel
	if listen {
		local, err := s.cfg.Participant(s.participant)
		if err != nil {
			return nil, err
		}
		ch, err = com.ListenTCP(local.Address)
		if err != nil {
			return nil, err
		}
	} else {
		ch, err = com.DialTCP(peerCfg.Address)
		if err != nil {
			return nil, err
		}
	}
	conn := m2n.New(s.participant, peer, ch)
	s.m2ns[peer] = conn
	return conn, nil
}

/* ConnectPeerChannel installs an already-established M2N connection, for tests
 * wiring participants in a single process via com.InMemoryPair. */
func (s *Session) ConnectPeerChannel(peer string, conn *m2n.M2N) {
	s.m2ns[peer] = conn
}

/* BuildScheme installs the CouplingScheme the embedding program has constructed
 * from this Session's coupling.Data (via CouplingData) and its M2N connections.
 * The session's action Dispatcher is wired in so implicit iterations can fire
 * BeforeIteration/IterationRejected actions (write/read-iteration-checkpoint). */
func (s *Session) BuildScheme(scheme *cplscheme.Scheme) {
	scheme.Actions = s.actions
	s.scheme = scheme
}

/* ConnectRankGroup installs the intra-participant master<->slave GroupComm used
 * to verify every rank submitted the same computedTimestepLength to advance(). */
func (s *Session) ConnectRankGroup(gc *groupcomm.GroupComm) {
	s.rankGroup = gc
}

/* AddWriteMapping registers a write-side mapping context: dispatched before
 * exchange, every advance()/initializeData() call, in registration order. */
func (s *Session) AddWriteMapping(ctx *mapping.Context) {
	s.writeMappings = append(s.writeMappings, ctx)
}

/* AddReadMapping registers a read-side mapping context: dispatched after
 * exchange, whenever HasDataBeenExchanged is set. */
func (s *Session) AddReadMapping(ctx *mapping.Context) {
	s.readMappings = append(s.readMappings, ctx)
}

func (s *Session) dispatchWriteMappings() error {
	if len(s.writeMappings) == 0 {
		return nil
	}
	return mapping.NewDispatcher(s.participant, s.writeMappings...).Dispatch()
}

func (s *Session) dispatchReadMappings() error {
	if len(s.readMappings) == 0 {
		return nil
	}
	return mapping.NewDispatcher(s.participant, s.readMappings...).Dispatch()
}

/* syncComputedTimestep verifies, via the intra-participant rank group, that every
 * slave proposed the same computedTimestepLength as the master; a no-op when this
 * Session is running single-rank (no GroupComm installed). */
func (s *Session) syncComputedTimestep(ctx context.Context, dt float64) error {
	if s.rankGroup == nil {
		return nil
	}
	if !s.rankGroup.IsMaster() {
		return s.rankGroup.Gather(ctx, dt, nil)
	}
	size := s.rankGroup.Size()
	slaveDts := make([]float64, size-1)
	collected := make([]interface{}, size-1)
	for i := range slaveDts {
		collected[i] = &slaveDts[i]
	}
	if err := s.rankGroup.Gather(ctx, dt, collected); err != nil {
		return err
	}
	tol := validDigitsTolerance(s.scheme.ValidDigits, dt)
	for _, other := range slaveDts {
		if math.Abs(other-dt) > tol {
			return cerr.ProtocolError("advance: computed timestep length mismatch across ranks: master %v, slave %v", dt, other)
		}
	}
	return nil
}

/* validDigitsTolerance mirrors the original's validDigits-driven near-equality
 * check: two Δt values agree if they match to the configured number of
 * significant digits, scaled by the reference value's magnitude (floored
 * at 1); callers pass the master's Δt as the reference. */
func validDigitsTolerance(validDigits int, reference float64) float64 {
	if validDigits <= 0 {
		validDigits = 10
	}
	scale := math.Abs(reference)
	if scale < 1 {
		scale = 1
	}
	return scale * math.Pow(10, -float64(validDigits))
}

/* lockMeshes engages the mesh-lock on every configured mesh */
func (s *Session) lockMeshes() {
	for _, m := range s.meshes {
		m.Lock()
	}
}

/* CouplingData wraps the named mesh data as a coupling.Data the caller can
 * register into a CouplingScheme's SendData/ReceiveData maps. */
func (s *Session) CouplingData(meshName, dataName string, order coupling.ExtrapolationOrder) (*coupling.Data, error) {
	m, ok := s.meshes[meshName]
	if !ok {
		return nil, cerr.UsageError("couplingData: mesh %q not configured", meshName)
	}
	md, err := m.GetData(dataName)
	if err != nil {
		return nil, err
	}
	if d, ok := s.cplData[md.ID]; ok {
		return d, nil
	}
	d := coupling.New(md.ID, md, order)
	s.cplData[md.ID] = d
	return d, nil
}

/* SetAccelerator installs the implicit-iteration accelerator the scheme's State uses */
func (s *Session) SetAccelerator(a accelerator.Accelerator) error {
	if s.scheme == nil {
		return cerr.StateError("setAccelerator: no coupling scheme installed")
	}
	s.scheme.Accelerator = a
	return nil
}

/* Initialize runs the scheme's initialize step, locks every mesh, and returns
 * the maximum timestep length the solver may take before the next advance()
 * call. The serial, parallel and multi schemes exchange no data here. */
func (s *Session) Initialize(ctx context.Context) (float64, error) {
	if err := s.requirePhase("initialize", phaseConfigured); err != nil {
		return 0, err
	}
	if s.scheme == nil {
		return 0, cerr.StateError("initialize: no coupling scheme installed")
	}
	dt, err := s.scheme.Initialize(ctx, 0, 1)
	if err != nil {
		return 0, err
	}
	if s.scheme.HasDataBeenExchanged {
		if err := s.dispatchReadMappings(); err != nil {
			return 0, err
		}
	}
	s.lockMeshes()
	s.phase = phaseInitialized
	for name, m := range s.meshes {
		if _, err := s.exporter.WriteMesh(m, s.participant, export.TagInit); err != nil {
			return 0, fmt.Errorf("initialize: export mesh %s failed: %w", name, err)
		}
	}
	return dt, nil
}

/* InitializeData exchanges each participant's declared initial data, once, before the first advance() */
func (s *Session) InitializeData(ctx context.Context) error {
	if err := s.requirePhase("initializeData", phaseInitialized); err != nil {
		return err
	}
	if err := s.dispatchWriteMappings(); err != nil {
		return err
	}
	if err := s.scheme.InitializeData(ctx); err != nil {
		return err
	}
	if s.scheme.HasDataBeenExchanged {
		if err := s.dispatchReadMappings(); err != nil {
			return err
		}
	}
	for _, wm := range s.writeMappings {
		for i := range wm.From.Values {
			wm.From.Values[i] = 0
		}
	}
	return nil
}

/* Advance runs exactly one coupling step of at most computedTimestepLength and
 * returns the maximum length the next step may take. */
func (s *Session) Advance(ctx context.Context, computedTimestepLength float64) (float64, error) {
	if err := s.requirePhase("advance", phaseInitialized); err != nil {
		return 0, err
	}
	if err := s.syncComputedTimestep(ctx, computedTimestepLength); err != nil {
		return 0, err
	}

	s.scheme.AddComputedTime(computedTimestepLength)
	if err := s.dispatchWriteMappings(); err != nil {
		return 0, err
	}
	/* the scheme exchanges only on the call that consumes the window's
	 * remainder, so ON_EXCHANGE_PRIOR fires only on that call */
	prior := action.AlwaysPrior
	if s.scheme.State.IsTimestepComplete() {
		prior |= action.OnExchangePrior
	}
	if err := s.actions.Trigger(prior); err != nil {
		return 0, err
	}

	if err := s.scheme.Advance(ctx); err != nil {
		return 0, err
	}

	if err := s.actions.Trigger(action.AlwaysPost); err != nil {
		return 0, err
	}
	if s.scheme.HasDataBeenExchanged {
		if err := s.actions.Trigger(action.OnExchangePost); err != nil {
			return 0, err
		}
		if err := s.dispatchReadMappings(); err != nil {
			return 0, err
		}
	}
	if s.scheme.IsTimestepComplete() {
		s.timeWindowCounter++
		if err := s.actions.Trigger(action.OnTimestepCompletePost); err != nil {
			return 0, err
		}
		for name, m := range s.meshes {
			if _, err := s.exporter.WriteMesh(m, s.participant, export.TimestepTag(s.timeWindowCounter)); err != nil {
				return 0, fmt.Errorf("advance: export mesh %s failed: %w", name, err)
			}
		}
	}
	for _, wp := range s.watchpoints {
		if err := wp.Record(s.scheme.Time); err != nil {
			return 0, err
		}
	}
	s.lockMeshes()

	return s.scheme.NextTimestepMaxLength(), nil
}

/* Finalize drains and closes every M2N connection and closes open watchpoint files.
 * Exactly one side of each connection must request the drain; the embedding
 * program passes requester=true for the participant spec.md designates as
 * initiating finalize (conventionally the scheme's "first"/controller participant). */
func (s *Session) Finalize(requester bool) error {
	if s.phase == phaseFinalized {
		return nil
	}
	for _, m := range s.meshes {
		if _, err := s.exporter.WriteMesh(m, s.participant, export.TagFinal); err != nil {
			return fmt.Errorf("finalize: export mesh failed: %w", err)
		}
	}
	var firstErr error
	for _, conn := range s.m2ns {
		if err := conn.Drain(requester); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, conn := range s.m2ns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, wp := range s.watchpoints {
		if err := wp.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.phase = phaseFinalized
	return firstErr
}

/* --- introspection --- */

/* IsCouplingOngoing reports whether the scheme has more time windows to run */
func (s *Session) IsCouplingOngoing() bool {
	return s.scheme != nil && s.scheme.IsCouplingOngoing()
}

/* IsTimestepComplete reports whether the most recent advance() completed a full time window */
func (s *Session) IsTimestepComplete() bool {
	return s.scheme != nil && s.scheme.IsTimestepComplete()
}

/* IsReadDataAvailable reports whether the scheme has exchanged data this step */
func (s *Session) IsReadDataAvailable() bool {
	return s.scheme != nil && s.scheme.HasDataBeenExchanged
}

/* IsActionRequired reports whether a named action is pending fulfilment */
func (s *Session) IsActionRequired(name string) bool {
	return s.required.IsRequired(name)
}

/* MarkActionFulfilled clears a named action's pending state */
func (s *Session) MarkActionFulfilled(name string) {
	s.required.Fulfil(name)
}

/* GetDimensions returns the space dimension declared for the named mesh */
func (s *Session) GetDimensions(meshName string) (int, error) {
	m, ok := s.meshes[meshName]
	if !ok {
		return 0, cerr.UsageError("getDimensions: mesh %q not configured", meshName)
	}
	return m.SpaceDim, nil
}
