// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research runs reasoned research: it turns a topic into a bounded
// plan, executes the plan's searches and analyses one step at a time, looks
// for gaps in coverage, optionally runs a gap-filling wave, and synthesizes
// the result. Every step transition is published to a Sink in order.
package research

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/pdiddy/reason-search/internal/metrics"
	"github.com/pdiddy/reason-search/pkg/types"
)

// TextGenerator produces a JSON object shaped like req.Shape.
type TextGenerator interface {
	GenerateObject(ctx context.Context, req types.ObjectRequest) (json.RawMessage, error)
}

// WebSearcher queries a web search provider.
type WebSearcher interface {
	SearchWeb(ctx context.Context, query string, opts types.WebSearchOptions) (types.SearchResponse, error)
}

// AcademicSearcher queries an academic search provider.
type AcademicSearcher interface {
	SearchAcademic(ctx context.Context, query string, opts types.AcademicSearchOptions) (types.SearchResponse, error)
}

const (
	defaultWebMaxResults      = 10
	defaultAcademicMaxResults = 5

	// Priority assigned to every gap-filling query.
	followupPriority = 3

	// Fixed result caps for gap-filling searches, still bounded by the
	// provider ceilings.
	gapWebMaxResults      = 5
	gapAcademicMaxResults = 3

	planTemperature      = 0.5
	analysisTemperature  = 0.5
	gapTemperature       = 0
	synthesisTemperature = 0
)

// Engine orchestrates research runs. An Engine holds no per-run state and is
// safe for concurrent runs.
type Engine struct {
	gen      TextGenerator
	web      WebSearcher
	academic AcademicSearcher

	logger      *zap.Logger
	tracer      trace.Tracer
	now         func() time.Time
	newRunID    func() string
	webMax      int
	academicMax int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards logs.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock sets the time source used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRunIDs sets the generator for run identifiers.
func WithRunIDs(gen func() string) Option {
	return func(e *Engine) { e.newRunID = gen }
}

// WithProviderLimits sets the per-query result ceilings for the web and
// academic providers. Non-positive values keep the defaults (10 and 5).
func WithProviderLimits(web, academic int) Option {
	return func(e *Engine) {
		if web > 0 {
			e.webMax = web
		}
		if academic > 0 {
			e.academicMax = academic
		}
	}
}

// NewEngine returns an Engine backed by the given capabilities.
func NewEngine(gen TextGenerator, web WebSearcher, academic AcademicSearcher, opts ...Option) *Engine {
	e := &Engine{
		gen:         gen,
		web:         web,
		academic:    academic,
		logger:      zap.NewNop(),
		tracer:      otel.Tracer("github.com/pdiddy/reason-search/internal/research"),
		now:         time.Now,
		newRunID:    uuid.NewString,
		webMax:      defaultWebMaxResults,
		academicMax: defaultAcademicMaxResults,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes one research run, publishing progress to sink, and returns
// the result once the terminal event has been emitted. Any provider or
// generation failure aborts the run; the sink then receives a terminal
// failed event and Run returns the error with no partial result.
func (e *Engine) Run(ctx context.Context, topic string, depth types.Depth, sink Sink) (*types.ResearchResult, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrEmptyTopic
	}
	if depth == "" {
		depth = types.DepthBasic
	}

	st := newRunState(e.newRunID(), topic, depth, sink, e.now)
	logger := e.logger.With(zap.String("run_id", st.runID), zap.String("depth", string(depth)))

	ctx, span := e.tracer.Start(ctx, "research.run", trace.WithAttributes(
		attribute.String("run_id", st.runID),
		attribute.String("depth", string(depth)),
	))
	defer span.End()

	start := time.Now()
	metrics.RunsStarted.WithLabelValues(string(depth)).Inc()
	logger.Info("research run started", zap.String("topic", topic))

	result, err := e.run(ctx, st, logger)

	status := "completed"
	if err != nil {
		status = "failed"
		st.fail(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("research run failed", zap.Error(err), zap.Int("completed_steps", st.CompletedSteps()))
	} else {
		logger.Info("research run completed",
			zap.Int("total_steps", st.TotalSteps()),
			zap.Int("results", len(result.AllResults())),
			zap.Bool("synthesis", result.Synthesis != nil),
		)
	}
	metrics.RunsCompleted.WithLabelValues(string(depth), status).Inc()
	metrics.RunDuration.WithLabelValues(string(depth)).Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) run(ctx context.Context, st *RunState, logger *zap.Logger) (*types.ResearchResult, error) {
	plan, err := e.generatePlan(ctx, st)
	if err != nil {
		return nil, err
	}
	logger.Debug("research plan ready",
		zap.Int("queries", len(plan.SearchQueries)),
		zap.Int("analyses", len(plan.RequiredAnalyses)),
		zap.Int("total_steps", st.TotalSteps()),
	)

	searchSteps, analysisSteps := AllocateSteps(plan)

	if err := e.executeSearches(ctx, st, searchSteps); err != nil {
		return nil, err
	}
	if err := e.runAnalyses(ctx, st, analysisSteps); err != nil {
		return nil, err
	}

	gaps, err := e.analyzeGaps(ctx, st)
	if err != nil {
		return nil, err
	}

	var synthesis *types.Synthesis
	if st.depth == types.DepthAdvanced && len(gaps.KnowledgeGaps) > 0 {
		additional, err := e.expandFollowups(ctx, st, gaps)
		if err != nil {
			return nil, err
		}
		logger.Debug("follow-up wave finished", zap.Int("queries", len(additional)))

		synthesis, err = e.synthesize(ctx, st, gaps, additional)
		if err != nil {
			return nil, err
		}
	}

	st.finish()

	return &types.ResearchResult{
		RunID:       st.runID,
		Topic:       st.topic,
		Depth:       st.depth,
		Plan:        plan,
		Results:     st.allResults(),
		Analyses:    st.analyses,
		GapAnalysis: gaps,
		Synthesis:   synthesis,
	}, nil
}

// generate asks the text generator for an object and decodes it into out.
func (e *Engine) generate(ctx context.Context, name, prompt string, temperature float32, out any) error {
	ctx, span := e.tracer.Start(ctx, "research.generate", trace.WithAttributes(attribute.String("object", name)))
	defer span.End()

	start := time.Now()
	raw, err := e.gen.GenerateObject(ctx, types.ObjectRequest{
		Name:        name,
		System:      systemPrompt,
		Prompt:      prompt,
		Shape:       out,
		Temperature: temperature,
	})
	metrics.ObserveProviderCall("generation", start, err)
	if err != nil {
		span.RecordError(err)
		return providerFailure(err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return malformed("decoding %s: %v", name, err)
	}
	return nil
}

// checkContext reports a cancelled or expired context as a phase error.
func checkContext(ctx context.Context, phase, stepID string) error {
	if err := ctx.Err(); err != nil {
		return &PhaseError{Phase: phase, StepID: stepID, Err: err}
	}
	return nil
}

// Handle is a research run executing in the background.
type Handle struct {
	events chan types.ProgressEvent
	done   chan struct{}
	result *types.ResearchResult
	err    error
}

// Start runs a research in a new goroutine. The caller must drain Events
// until it is closed, then call Wait for the result. Extra sinks receive
// every event before it is sent on the channel. If ctx ends while nobody is
// reading, further events are dropped from the channel.
func (e *Engine) Start(ctx context.Context, topic string, depth types.Depth, extra ...Sink) *Handle {
	h := &Handle{
		events: make(chan types.ProgressEvent, 64),
		done:   make(chan struct{}),
	}
	send := SinkFunc(func(evt types.ProgressEvent) {
		select {
		case h.events <- evt:
		case <-ctx.Done():
		}
	})
	sinks := append(MultiSink{}, extra...)
	sinks = append(sinks, send)

	go func() {
		defer close(h.done)
		defer close(h.events)
		h.result, h.err = e.Run(ctx, topic, depth, sinks)
	}()
	return h
}

// Events returns the ordered event stream. It is closed when the run ends.
func (h *Handle) Events() <-chan types.ProgressEvent { return h.events }

// Wait blocks until the run ends and returns its result.
func (h *Handle) Wait() (*types.ResearchResult, error) {
	<-h.done
	return h.result, h.err
}
