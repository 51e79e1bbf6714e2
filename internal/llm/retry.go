// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/reason-search/pkg/types"
)

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// Retrying retries failed generation calls with exponential backoff:
// backoffBase, then double each attempt.
type Retrying struct {
	next       Generator
	maxRetries int
	logger     *zap.Logger
}

// NewRetrying wraps next so each call is attempted up to maxRetries+1 times.
func NewRetrying(next Generator, maxRetries int, logger *zap.Logger) *Retrying {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retrying{next: next, maxRetries: maxRetries, logger: logger}
}

// GenerateObject delegates to the wrapped generator, retrying on error.
// Context cancellation is returned immediately.
func (r *Retrying) GenerateObject(ctx context.Context, req types.ObjectRequest) (json.RawMessage, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			r.logger.Warn("generation failed, retrying",
				zap.String("object", req.Name),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		raw, err := r.next.GenerateObject(ctx, req)
		if err == nil {
			return raw, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("after %d retries: %w", r.maxRetries, lastErr)
}
