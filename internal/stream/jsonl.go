// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stream

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/pdiddy/reason-search/pkg/types"
)

// JSONL writes each event as one JSON line. The first write error is kept
// and later events are dropped.
type JSONL struct {
	mu  sync.Mutex
	enc *json.Encoder
	err error
}

// NewJSONL returns a sink writing to w.
func NewJSONL(w io.Writer) *JSONL {
	return &JSONL{enc: json.NewEncoder(w)}
}

// Emit encodes evt followed by a newline.
func (j *JSONL) Emit(evt types.ProgressEvent) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return
	}
	j.err = j.enc.Encode(evt)
}

// Err returns the first write error, if any.
func (j *JSONL) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}
