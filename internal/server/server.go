// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes research runs and quick searches over HTTP.
// Research progress is streamed as Server-Sent Events.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pdiddy/reason-search/internal/research"
	"github.com/pdiddy/reason-search/internal/search"
	"github.com/pdiddy/reason-search/internal/stream"
	"github.com/pdiddy/reason-search/pkg/types"
)

const (
	defaultRunTimeout = 10 * time.Minute
	followBuffer      = 64
)

// Researcher starts research runs.
type Researcher interface {
	Start(ctx context.Context, topic string, depth types.Depth, extra ...research.Sink) *research.Handle
}

// Server holds the HTTP handlers and their collaborators.
type Server struct {
	engine     Researcher
	web        search.WebSearcher
	prober     search.ImageValidator
	hub        *stream.Hub
	redis      *stream.Redis
	logger     *zap.Logger
	runTimeout time.Duration
	probeLimit int
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRedis also publishes every research event to Redis and uses it to
// replay runs the in-memory hub no longer holds.
func WithRedis(r *stream.Redis) Option {
	return func(s *Server) { s.redis = r }
}

// WithRunTimeout bounds each research run.
func WithRunTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.runTimeout = d
		}
	}
}

// WithProbeConcurrency bounds concurrent image probes per quick search.
func WithProbeConcurrency(n int) Option {
	return func(s *Server) { s.probeLimit = n }
}

// New returns a server. hub may be nil, in which case a default hub is
// created.
func New(engine Researcher, web search.WebSearcher, prober search.ImageValidator, hub *stream.Hub, opts ...Option) *Server {
	if hub == nil {
		hub = stream.NewHub(0, 0)
	}
	s := &Server{
		engine:     engine,
		web:        web,
		prober:     prober,
		hub:        hub,
		logger:     zap.NewNop(),
		runTimeout: defaultRunTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the gin engine serving every route.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.POST("/research", s.handleResearch)
	api.GET("/research/:id/events", s.handleReplay)
	api.POST("/search", s.handleSearch)
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

type researchRequest struct {
	Topic string `json:"topic" binding:"required"`
	Depth string `json:"depth"`
}

// handleResearch streams one run: a research_update event per progress
// event, then a result or error event.
func (s *Server) handleResearch(c *gin.Context) {
	var req researchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": research.ErrEmptyTopic.Error()})
		return
	}
	depth, err := types.ParseDepth(req.Depth)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.runTimeout)
	defer cancel()

	sinks := []research.Sink{s.hub}
	if s.redis != nil {
		sinks = append(sinks, s.redis)
	}
	h := s.engine.Start(ctx, topic, depth, sinks...)

	setSSEHeaders(c)
	var runID string
	for evt := range h.Events() {
		runID = evt.RunID
		c.SSEvent("research_update", evt)
		c.Writer.Flush()
	}

	result, err := h.Wait()
	if err != nil {
		s.logger.Warn("research run failed", zap.String("run_id", runID), zap.Error(err))
		c.SSEvent("error", gin.H{"run_id": runID, "error": err.Error(), "phase": phaseOf(err)})
		c.Writer.Flush()
		return
	}
	c.SSEvent("result", result)
	c.Writer.Flush()
}

func phaseOf(err error) string {
	var pe *research.PhaseError
	if errors.As(err, &pe) {
		return pe.Phase
	}
	return ""
}

// handleReplay returns the retained events of a run with seq greater than
// the since query parameter. A run still in flight is followed as an SSE
// stream until it ends.
func (s *Server) handleReplay(c *gin.Context) {
	runID := c.Param("id")
	var since uint64
	if v := c.Query("since"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be a non-negative integer"})
			return
		}
		since = n
	}

	if s.hub.Known(runID) {
		if !s.hub.Finished(runID) {
			s.followRun(c, runID, since)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"run_id":   runID,
			"finished": s.hub.Finished(runID),
			"events":   s.hub.ReplaySince(runID, since),
		})
		return
	}

	if s.redis != nil {
		events, err := s.redis.ReplaySince(c.Request.Context(), runID, since)
		if err != nil {
			s.logger.Warn("redis replay failed", zap.String("run_id", runID), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "event store unavailable"})
			return
		}
		if len(events) > 0 {
			c.JSON(http.StatusOK, gin.H{
				"run_id":   runID,
				"finished": stream.Terminal(events[len(events)-1]),
				"events":   events,
			})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "unknown run " + runID})
}

// followRun sends runID's backlog after since, then its live events, until
// the run ends or the client goes away. Events are written in seq order and
// at most once.
func (s *Server) followRun(c *gin.Context, runID string, since uint64) {
	ch := s.hub.Subscribe(runID, followBuffer)
	defer s.hub.Unsubscribe(runID, ch)
	s.logger.Debug("following run", zap.String("run_id", runID), zap.Uint64("since", since))

	setSSEHeaders(c)
	last := since
	send := func(evt types.ProgressEvent) {
		if evt.Seq <= last {
			return
		}
		last = evt.Seq
		c.SSEvent("research_update", evt)
	}
	for _, evt := range s.hub.ReplaySince(runID, since) {
		send(evt)
	}
	c.Writer.Flush()

	done := c.Request.Context().Done()
	for {
		select {
		case evt, ok := <-ch:
			if !ok {
				// The hub drops events for slow subscribers; the
				// retained history fills any hole before the stream ends.
				for _, evt := range s.hub.ReplaySince(runID, last) {
					send(evt)
				}
				c.Writer.Flush()
				return
			}
			send(evt)
			c.Writer.Flush()
		case <-done:
			return
		}
	}
}

// handleSearch runs a quick multi-query web search.
func (s *Server) handleSearch(c *gin.Context) {
	var req search.MultiSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := []search.MultiSearchOption{
		search.WithQueryCompletion(func(qc search.QueryCompletion) {
			s.logger.Debug("quick search query finished",
				zap.String("query", qc.Query),
				zap.Int("index", qc.Index),
				zap.Int("results", qc.ResultsCount),
				zap.Int("images", qc.ImagesCount),
			)
		}),
	}
	if s.probeLimit > 0 {
		opts = append(opts, search.WithProbeConcurrency(s.probeLimit))
	}

	results, err := search.MultiSearch(c.Request.Context(), s.web, s.prober, req, opts...)
	if err != nil {
		s.logger.Warn("quick search failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func setSSEHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
}
