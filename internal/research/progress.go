// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"sync"
	"time"

	"github.com/pdiddy/reason-search/pkg/types"
)

// Sink receives progress events in emission order. Implementations must not
// block for long; the run waits for Emit to return before continuing.
type Sink interface {
	Emit(evt types.ProgressEvent)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(types.ProgressEvent)

// Emit calls f(evt).
func (f SinkFunc) Emit(evt types.ProgressEvent) { f(evt) }

// MultiSink fans one event out to several sinks in order.
type MultiSink []Sink

// Emit forwards evt to every non-nil sink.
func (m MultiSink) Emit(evt types.ProgressEvent) {
	for _, s := range m {
		if s != nil {
			s.Emit(evt)
		}
	}
}

// Recorder is a Sink that keeps every event it receives.
type Recorder struct {
	mu     sync.Mutex
	events []types.ProgressEvent
}

// Emit appends evt.
func (r *Recorder) Emit(evt types.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []types.ProgressEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.ProgressEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Board is the consumer view of a progress stream: one card per event id.
// An event with Overwrite replaces the card sharing its id; any other event
// is appended as a new card.
type Board struct {
	mu    sync.Mutex
	cards []types.ProgressEvent
	index map[string]int
}

// Emit applies evt to the board so a Board can be used directly as a Sink.
func (b *Board) Emit(evt types.ProgressEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.index == nil {
		b.index = make(map[string]int)
	}
	if i, ok := b.index[evt.ID]; ok && evt.Overwrite {
		b.cards[i] = evt
		return
	}
	b.index[evt.ID] = len(b.cards)
	b.cards = append(b.cards, evt)
}

// Cards returns the current cards in first-seen order.
func (b *Board) Cards() []types.ProgressEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]types.ProgressEvent, len(b.cards))
	copy(out, b.cards)
	return out
}

// RunState is the working set of one run. Only the goroutine executing the
// run touches it.
type RunState struct {
	runID string
	topic string
	depth types.Depth
	sink  Sink
	now   func() time.Time

	seq        uint64
	totalSteps int
	completed  int
	reported   int

	// nextSearchIndex allocates ids for gap-filling searches; it continues
	// after the initial search steps.
	nextSearchIndex int

	plan     types.ResearchPlan
	records  []types.SearchRecord
	analyses []types.AnalysisResult
}

func newRunState(runID, topic string, depth types.Depth, sink Sink, now func() time.Time) *RunState {
	if sink == nil {
		sink = SinkFunc(func(types.ProgressEvent) {})
	}
	if now == nil {
		now = time.Now
	}
	return &RunState{runID: runID, topic: topic, depth: depth, sink: sink, now: now}
}

// RunID returns the identifier of the run.
func (s *RunState) RunID() string { return s.runID }

// TotalSteps returns the fixed step denominator, zero before the plan exists.
func (s *RunState) TotalSteps() int { return s.totalSteps }

// CompletedSteps returns the completed step count as last reported.
func (s *RunState) CompletedSteps() int { return s.reported }

// setTotal fixes the denominator once the plan is expanded. The basic
// pipeline adds one unit for gap analysis; advanced runs add one more for the
// follow-up wave and synthesis.
func (s *RunState) setTotal(searchSteps, analysisSteps int) {
	s.totalSteps = searchSteps + analysisSteps + 1
	if s.depth == types.DepthAdvanced {
		s.totalSteps++
	}
	s.nextSearchIndex = searchSteps
}

// advance records one finished unit of work. The reported count stays below
// TotalSteps until finish so the terminal event is the only one reaching it.
func (s *RunState) advance() {
	s.completed++
	s.report(s.completed)
}

func (s *RunState) report(n int) {
	if s.totalSteps > 0 && n > s.totalSteps-1 {
		n = s.totalSteps - 1
	}
	if n > s.reported {
		s.reported = n
	}
}

func (s *RunState) allocSearchIndex() int {
	n := s.nextSearchIndex
	s.nextSearchIndex++
	return n
}

func (s *RunState) addRecord(rec types.SearchRecord) {
	s.records = append(s.records, rec)
}

func (s *RunState) allResults() []types.SearchRecord {
	return s.records
}

// emit stamps run-level fields onto evt and hands it to the sink.
func (s *RunState) emit(evt types.ProgressEvent) {
	s.seq++
	evt.RunID = s.runID
	evt.Seq = s.seq
	evt.Timestamp = s.now()
	evt.CompletedSteps = s.reported
	evt.TotalSteps = s.totalSteps
	s.sink.Emit(evt)
}

// finish emits the terminal success event.
func (s *RunState) finish() {
	s.reported = s.totalSteps
	s.emit(types.ProgressEvent{
		ID:         progressEventID,
		Kind:       types.KindProgress,
		Status:     types.StatusCompleted,
		Title:      "Research Progress",
		Message:    "Research complete",
		Overwrite:  true,
		IsComplete: true,
	})
}

// fail emits the terminal failure event carrying err's message.
func (s *RunState) fail(err error) {
	s.emit(types.ProgressEvent{
		ID:        progressEventID,
		Kind:      types.KindProgress,
		Status:    types.StatusFailed,
		Title:     "Research Progress",
		Message:   "Research failed",
		Overwrite: true,
		Error:     err.Error(),
	})
}
