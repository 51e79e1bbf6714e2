// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pdiddy/reason-search/pkg/types"
)

const (
	defaultMaxLen  = 256
	publishTimeout = 2 * time.Second

	// Finished run streams expire after this long.
	finishedTTL = 24 * time.Hour
)

// StreamKey is the Redis stream holding runID's events.
func StreamKey(runID string) string {
	return "reason-search:run:" + runID + ":events"
}

// Redis appends progress events to one Redis stream per run so that other
// processes can follow or replay a run.
type Redis struct {
	client redis.UniversalClient
	maxLen int64
	logger *zap.Logger
}

// NewRedis returns a publisher writing through client. A non-positive
// maxLen uses the default of 256 entries per stream.
func NewRedis(client redis.UniversalClient, maxLen int64, logger *zap.Logger) *Redis {
	if maxLen <= 0 {
		maxLen = defaultMaxLen
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{client: client, maxLen: maxLen, logger: logger}
}

// Emit appends evt to its run's stream. Publishing failures are logged and
// never interrupt the run.
func (r *Redis) Emit(evt types.ProgressEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := r.Publish(ctx, evt); err != nil {
		r.logger.Warn("publishing progress event",
			zap.String("run_id", evt.RunID),
			zap.Uint64("seq", evt.Seq),
			zap.Error(err),
		)
	}
}

// Publish appends evt to its run's stream and sets the stream to expire
// once the run has finished.
func (r *Redis) Publish(ctx context.Context, evt types.ProgressEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	key := StreamKey(evt.RunID)
	_, err = r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: key,
		MaxLen: r.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"run_id":  evt.RunID,
			"seq":     strconv.FormatUint(evt.Seq, 10),
			"type":    string(evt.Kind),
			"status":  string(evt.Status),
			"payload": string(payload),
			"ts_nano": strconv.FormatInt(evt.Timestamp.UnixNano(), 10),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("XADD %s: %w", key, err)
	}
	if Terminal(evt) {
		if err := r.client.Expire(ctx, key, finishedTTL).Err(); err != nil {
			return fmt.Errorf("EXPIRE %s: %w", key, err)
		}
	}
	return nil
}

// ReplaySince reads runID's stream and returns events with Seq greater than
// since, in stream order.
func (r *Redis) ReplaySince(ctx context.Context, runID string, since uint64) ([]types.ProgressEvent, error) {
	msgs, err := r.client.XRange(ctx, StreamKey(runID), "-", "+").Result()
	if err != nil {
		return nil, fmt.Errorf("XRANGE %s: %w", StreamKey(runID), err)
	}

	var out []types.ProgressEvent
	for _, msg := range msgs {
		raw, ok := msg.Values["payload"].(string)
		if !ok {
			r.logger.Warn("stream entry without payload", zap.String("entry_id", msg.ID))
			continue
		}
		var evt types.ProgressEvent
		if err := json.Unmarshal([]byte(raw), &evt); err != nil {
			r.logger.Warn("decoding stream entry", zap.String("entry_id", msg.ID), zap.Error(err))
			continue
		}
		if evt.Seq > since {
			out = append(out, evt)
		}
	}
	return out, nil
}
