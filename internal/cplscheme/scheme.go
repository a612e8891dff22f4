/*-------------------------------------------------------------------------
 *
 * scheme.go
 *    Shared coupling-scheme state and the Serial/Parallel/Multi x
 *    Explicit/Implicit tagged variant
 *
 * Design note: rather than an inheritance hierarchy of scheme subclasses,
 * the shared state below is a plain record passed by reference, and the
 * three scheme Kinds are small types (serialImpl, parallelImpl, multiImpl)
 * operating on it. Scheme reaches them through the schemeImpl interface,
 * one dynamic call per Initialize, InitializeData and Advance.
 *
 * Copyright (c) 2024-2026, precice-go, Inc. <support@precice-go.dev>
 *
 * IDENTIFICATION
 *    internal/cplscheme/scheme.go
 *
 *-------------------------------------------------------------------------
 */

package cplscheme

import (
	"context"
	"math"

	"github.com/precice-go/precice/internal/accelerator"
	"github.com/precice-go/precice/internal/action"
	"github.com/precice-go/precice/internal/cerr"
	"github.com/precice-go/precice/internal/coupling"
	"github.com/precice-go/precice/internal/m2n"
	"github.com/precice-go/precice/internal/telemetry"
)

/* Kind selects the distributed shape of the coupling scheme */
type Kind int

const (
	Serial Kind = iota
	Parallel
	Multi
)

/* Mode selects whether a window is accepted after one exchange (Explicit)
 * or iterated to convergence (Implicit) */
type Mode int

const (
	Explicit Mode = iota
	Implicit
)

/* ModelLevel distinguishes a coarse surrogate model from the fine model in
 * a (not otherwise elaborated) two-level optimization mode; see DESIGN.md
 * open question on hasToEvaluateSurrogateModel/hasToEvaluateFineModel. */
type ModelLevel int

const (
	ModelFine ModelLevel = iota
	ModelCoarse
)

const noTimeWindowSize = -1

/* UndefinedTime / UndefinedTimeWindows mirror the "unset limit" sentinels spec.md leaves implicit */
const (
	UndefinedTime        = math.MaxFloat64
	UndefinedTimeWindows = math.MaxInt32
)

/* ConvergenceMeasure decides, from a CouplingData's current vs. previous-iteration values, whether that data has converged */
type ConvergenceMeasure struct {
	Data      *coupling.Data
	Tolerance float64
	Suffices  bool /* if true, convergence of this measure alone ends the iteration */
}

/* Converged reports whether this measure's relative L2 change is within Tolerance */
func (c *ConvergenceMeasure) Converged() bool {
	return c.Data.RelativeL2Change() < c.Tolerance
}

/* State is the shared record every scheme Kind operates on */
type State struct {
	Kind Kind
	Mode Mode
	ModelLevel ModelLevel

	LocalParticipant string

	Time           float64
	TimeWindow     int /* 1-based count of the window currently in progress */
	TimeWindowSize float64
	Remainder      float64
	MaxTime        float64
	MaxTimeWindows int
	MaxIterations  int
	Iteration      int
	ValidDigits    int

	SendData    map[string]*coupling.Data
	ReceiveData map[string]*coupling.Data

	ConvergenceMeasures []*ConvergenceMeasure
	Accelerator         accelerator.Accelerator

	/* Actions fires BeforeIteration/IterationRejected around each implicit
	 * iteration, so a solver embedded in the same process can register a
	 * write-iteration-checkpoint / read-iteration-checkpoint Action and
	 * rewind its own state synchronously; nil is a valid no-op scheme. */
	Actions *action.Dispatcher

	/* set by Advance() for the SessionFacade to read back */
	HasDataBeenExchanged bool
	IsConverged          bool
}

/* triggerIterationAction is a no-op when no Actions dispatcher is installed */
func (s *State) triggerIterationAction(mask action.Timing) error {
	if s.Actions == nil {
		return nil
	}
	return s.Actions.Trigger(mask)
}

/* NewState builds a scheme's shared state; timeWindowSize <= 0 means "use the computed Δt each call" */
func NewState(local string, timeWindowSize, maxTime float64, maxTimeWindows, maxIterations, validDigits int) *State {
	tws := timeWindowSize
	if tws <= 0 {
		tws = noTimeWindowSize
	}
	return &State{
		LocalParticipant: local,
		TimeWindow:       1,
		TimeWindowSize:   tws,
		MaxTime:          maxTime,
		MaxTimeWindows:   maxTimeWindows,
		MaxIterations:    maxIterations,
		ValidDigits:      validDigits,
		SendData:         make(map[string]*coupling.Data),
		ReceiveData:      make(map[string]*coupling.Data),
	}
}

/* HasFixedWindowSize reports whether the scheme dictates the window size (vs. taking the solver's Δt) */
func (s *State) HasFixedWindowSize() bool {
	return s.TimeWindowSize != noTimeWindowSize
}

/* IsCouplingOngoing reports whether more windows remain */
func (s *State) IsCouplingOngoing() bool {
	if s.MaxTimeWindows != UndefinedTimeWindows && s.TimeWindow > s.MaxTimeWindows {
		return false
	}
	if s.MaxTime != UndefinedTime && s.Time >= s.MaxTime-1e-12 {
		return false
	}
	return true
}

/* IsTimestepComplete reports whether the current window's remainder has been fully consumed */
func (s *State) IsTimestepComplete() bool {
	return s.Remainder <= windowEpsilon
}

const windowEpsilon = 1e-10

/* AddComputedTime advances local time bookkeeping by dt and returns the part of dt inside the current window */
func (s *State) AddComputedTime(dt float64) float64 {
	length := dt
	if s.HasFixedWindowSize() {
		length = s.TimeWindowSize - s.windowElapsed()
		if length > dt {
			length = dt
		}
	}
	s.Remainder -= dt
	if s.Remainder < 0 {
		s.Remainder = 0
	}
	s.Time += dt
	return length
}

func (s *State) windowElapsed() float64 {
	return s.TimeWindowSize - s.Remainder
}

/* NextTimestepMaxLength returns the largest Δt the solver may choose for its next call */
func (s *State) NextTimestepMaxLength() float64 {
	if !s.HasFixedWindowSize() {
		return UndefinedTime
	}
	if s.Remainder <= windowEpsilon {
		return s.TimeWindowSize
	}
	return s.Remainder
}

/* initWindow resets the per-window remainder/iteration bookkeeping */
func (s *State) initWindow() {
	if s.HasFixedWindowSize() {
		s.Remainder = s.TimeWindowSize
	} else {
		s.Remainder = 0
	}
	s.Iteration = 0
}

/* completeWindow runs extrapolation, advances the window counter, and re-arms
 * the remainder/iteration bookkeeping for the window that follows. */
func (s *State) completeWindow() {
	for _, d := range s.SendData {
		d.CompleteWindow()
	}
	for _, d := range s.ReceiveData {
		d.CompleteWindow()
	}
	if s.Accelerator != nil {
		s.Accelerator.Reset()
	}
	s.TimeWindow++
	telemetry.RecordWindowCompleted(s.LocalParticipant)
	s.initWindow()
}

/* checkConvergence evaluates every registered measure; a "suffices" measure short-circuits to converged */
func (s *State) checkConvergence() bool {
	if len(s.ConvergenceMeasures) == 0 {
		return true
	}
	allConverged := true
	for _, m := range s.ConvergenceMeasures {
		converged := m.Converged()
		if m.Suffices && converged {
			return true
		}
		if !converged {
			allConverged = false
		}
	}
	return allConverged
}

/* storeCheckpoint snapshots every send/receive CouplingData's old-iteration buffer */
func (s *State) storeCheckpoint() {
	for _, d := range s.SendData {
		d.StoreIterationCheckpoint()
	}
	for _, d := range s.ReceiveData {
		d.StoreIterationCheckpoint()
	}
}

/* restoreCheckpoint rewinds every send/receive CouplingData to the last checkpoint */
func (s *State) restoreCheckpoint() {
	for _, d := range s.SendData {
		d.RestoreIterationCheckpoint()
	}
	for _, d := range s.ReceiveData {
		d.RestoreIterationCheckpoint()
	}
}

/* accelerate runs the configured Accelerator over the concatenation of every receive-side CouplingData */
func (s *State) accelerate() {
	if s.Accelerator == nil || len(s.ReceiveData) == 0 {
		return
	}
	var names []string
	for name := range s.ReceiveData {
		names = append(names, name)
	}
	var xOld, xNew []float64
	for _, name := range names {
		d := s.ReceiveData[name]
		xOld = append(xOld, d.MeshData.OldValues...)
		xNew = append(xNew, d.MeshData.Values...)
	}
	out := s.Accelerator.Accelerate(xOld, xNew)
	offset := 0
	for _, name := range names {
		d := s.ReceiveData[name]
		n := len(d.MeshData.Values)
		copy(d.MeshData.Values, out[offset:offset+n])
		offset += n
	}
}

/* Scheme is the common entry point SessionFacade drives; Serial/Parallel/Multi each construct one. */
type Scheme struct {
	*State
	impl schemeImpl

	windowCompleted bool /* set by Advance when its call completed a time window */
}

/* schemeImpl is implemented by serialImpl, parallelImpl, multiImpl */
type schemeImpl interface {
	initialize(ctx context.Context) error
	initializeData(ctx context.Context) error
	advance(ctx context.Context) error
}

func (s *Scheme) Initialize(ctx context.Context, startTime float64, startTimeWindow int) (float64, error) {
	s.Time = startTime
	s.TimeWindow = startTimeWindow
	s.initWindow()
	if err := s.impl.initialize(ctx); err != nil {
		return 0, err
	}
	return s.NextTimestepMaxLength(), nil
}

func (s *Scheme) InitializeData(ctx context.Context) error {
	return s.impl.initializeData(ctx)
}

/* Advance consumes one sub-step of AddComputedTime's accounting. It only
 * triggers the variant-specific exchange (and, for Implicit, the
 * convergence loop) once the window's remainder has been fully consumed;
 * earlier sub-steps of a subcycling solver return with no exchange. */
func (s *Scheme) Advance(ctx context.Context) error {
	s.HasDataBeenExchanged = false
	s.IsConverged = false
	s.windowCompleted = false
	if !s.State.IsTimestepComplete() {
		return nil
	}
	if err := s.impl.advance(ctx); err != nil {
		return err
	}
	s.windowCompleted = true
	return nil
}

/* IsTimestepComplete reports whether the most recent Advance completed a time
 * window. State.IsTimestepComplete cannot answer this after the fact, because
 * completeWindow has already re-armed Remainder for the next window. */
func (s *Scheme) IsTimestepComplete() bool {
	return s.windowCompleted
}

/* sendReceiveOnce performs one unconditional (send, then receive) round over m2n for every registered Data */
func sendReceiveOnce(local *m2n.M2N, sendData, receiveData map[string]*coupling.Data, sendFirst bool) error {
	doSend := func() error {
		for _, d := range orderedValues(sendData) {
			if err := local.SendData(d.Values()); err != nil {
				return cerr.TransportErrorf(err, "send data failed")
			}
		}
		return nil
	}
	doReceive := func() error {
		for _, d := range orderedValues(receiveData) {
			values, err := local.ReceiveData()
			if err != nil {
				return cerr.TransportErrorf(err, "receive data failed")
			}
			if len(values) != len(d.Values()) {
				return cerr.ProtocolError("received data length %d does not match expected %d", len(values), len(d.Values()))
			}
			copy(d.Values(), values)
		}
		return nil
	}

	if sendFirst {
		if err := doSend(); err != nil {
			return err
		}
		return doReceive()
	}
	if err := doReceive(); err != nil {
		return err
	}
	return doSend()
}

/* orderedValues returns map values in a stable order (sorted by data name) so both peers
 * iterate send/receive data in the same sequence. */
func orderedValues(m map[string]*coupling.Data) []*coupling.Data {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sortStrings(names)
	out := make([]*coupling.Data, 0, len(names))
	for _, n := range names {
		out = append(out, m[n])
	}
	return out
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
