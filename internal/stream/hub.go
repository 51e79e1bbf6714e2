// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package stream fans research progress events out to live subscribers and
// keeps a bounded history per run for replay.
package stream

import (
	"sync"

	"github.com/pdiddy/reason-search/pkg/types"
)

const (
	defaultHistory  = 256
	defaultRetained = 128
)

// Hub is an in-memory pub/sub of progress events keyed by run id.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan types.ProgressEvent]struct{}
	history     map[string]*ring
	finished    map[string]bool
	order       []string // finished runs, oldest first
	capacity    int
	retained    int
}

// NewHub returns a hub that keeps up to capacity events per run and the
// histories of up to retained finished runs. Non-positive values use the
// defaults (256 and 128).
func NewHub(capacity, retained int) *Hub {
	if capacity <= 0 {
		capacity = defaultHistory
	}
	if retained <= 0 {
		retained = defaultRetained
	}
	return &Hub{
		subscribers: make(map[string]map[chan types.ProgressEvent]struct{}),
		history:     make(map[string]*ring),
		finished:    make(map[string]bool),
		capacity:    capacity,
		retained:    retained,
	}
}

// Subscribe registers a channel for runID's future events. The caller must
// drain it and call Unsubscribe, unless the hub closes it first when the
// run finishes. Subscribing to a finished run returns a closed channel.
func (h *Hub) Subscribe(runID string, buffer int) chan types.ProgressEvent {
	ch := make(chan types.ProgressEvent, buffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.finished[runID] {
		close(ch)
		return ch
	}
	subs := h.subscribers[runID]
	if subs == nil {
		subs = make(map[chan types.ProgressEvent]struct{})
		h.subscribers[runID] = subs
	}
	subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes ch and closes it. It is a no-op for channels the hub
// already closed.
func (h *Hub) Unsubscribe(runID string, ch chan types.ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.subscribers[runID]
	if !ok {
		return
	}
	if _, ok := subs[ch]; !ok {
		return
	}
	delete(subs, ch)
	close(ch)
	if len(subs) == 0 {
		delete(h.subscribers, runID)
	}
}

// Emit records evt in its run's history and forwards it to subscribers
// without blocking; a slow subscriber misses events rather than stalling
// the run. A terminal event closes every subscriber of the run.
func (h *Hub) Emit(evt types.ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rg := h.history[evt.RunID]
	if rg == nil {
		rg = newRing(h.capacity)
		h.history[evt.RunID] = rg
	}
	rg.push(evt)

	subs := h.subscribers[evt.RunID]
	for ch := range subs {
		select {
		case ch <- evt:
		default:
		}
	}

	if !Terminal(evt) {
		return
	}
	for ch := range subs {
		close(ch)
	}
	delete(h.subscribers, evt.RunID)
	h.markFinished(evt.RunID)
}

func (h *Hub) markFinished(runID string) {
	if h.finished[runID] {
		return
	}
	h.finished[runID] = true
	h.order = append(h.order, runID)
	for len(h.order) > h.retained {
		oldest := h.order[0]
		h.order = h.order[1:]
		delete(h.finished, oldest)
		delete(h.history, oldest)
	}
}

// ReplaySince returns runID's retained events with Seq greater than since.
func (h *Hub) ReplaySince(runID string, since uint64) []types.ProgressEvent {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rg := h.history[runID]
	if rg == nil {
		return nil
	}
	return rg.since(since)
}

// Subscribers returns the number of live subscribers of runID.
func (h *Hub) Subscribers(runID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[runID])
}

// Known reports whether the hub holds any history for runID.
func (h *Hub) Known(runID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.history[runID]
	return ok
}

// Finished reports whether runID has emitted its terminal event.
func (h *Hub) Finished(runID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.finished[runID]
}

// Terminal reports whether evt ends its run.
func Terminal(evt types.ProgressEvent) bool {
	if evt.Kind != types.KindProgress {
		return false
	}
	return evt.IsComplete || evt.Status == types.StatusFailed
}

// ring is a fixed-capacity buffer that overwrites its oldest event.
type ring struct {
	buf   []types.ProgressEvent
	start int
	count int
}

func newRing(capacity int) *ring { return &ring{buf: make([]types.ProgressEvent, capacity)} }

func (r *ring) push(e types.ProgressEvent) {
	if r.count < len(r.buf) {
		r.buf[(r.start+r.count)%len(r.buf)] = e
		r.count++
		return
	}
	r.buf[r.start] = e
	r.start = (r.start + 1) % len(r.buf)
}

func (r *ring) since(seq uint64) []types.ProgressEvent {
	out := make([]types.ProgressEvent, 0, r.count)
	for i := 0; i < r.count; i++ {
		ev := r.buf[(r.start+i)%len(r.buf)]
		if ev.Seq > seq {
			out = append(out, ev)
		}
	}
	return out
}
