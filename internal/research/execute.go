// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pdiddy/reason-search/internal/metrics"
	"github.com/pdiddy/reason-search/pkg/types"
)

// maxResultsFor maps a query priority to a per-query result cap. Lower
// priority numbers request more results, within the provider ceiling.
func maxResultsFor(priority, providerMax int) int {
	n := 6 - priority
	if n > providerMax {
		n = providerMax
	}
	if n < 1 {
		n = 1
	}
	return n
}

// resultCap returns the maxResults requested for a step. Planned steps scale
// with priority; gap-filling steps use fixed caps.
func (e *Engine) resultCap(kind StepKind, priority int) int {
	switch kind {
	case StepGapWeb:
		return min(gapWebMaxResults, e.webMax)
	case StepGapAcademic:
		return min(gapAcademicMaxResults, e.academicMax)
	case StepAcademic:
		return maxResultsFor(priority, e.academicMax)
	default:
		return maxResultsFor(priority, e.webMax)
	}
}

// executeSearches runs the planned search steps one at a time in plan order.
// Step N's completed event is emitted before step N+1's running event.
func (e *Engine) executeSearches(ctx context.Context, st *RunState, steps []Step) error {
	for i := range steps {
		if err := checkContext(ctx, "search", steps[i].Ref.ID()); err != nil {
			return err
		}
		if err := e.runSearchStep(ctx, st, &steps[i], true); err != nil {
			return err
		}
	}
	return nil
}

// runSearchStep executes one web or academic search step and records its
// results. When advance is set the completed event carries the incremented
// step count.
func (e *Engine) runSearchStep(ctx context.Context, st *RunState, step *Step, advance bool) error {
	id := step.Ref.ID()
	kind := step.Ref.Kind
	q := step.Query

	running, completed := searchTitles(kind, q.Query)
	step.Status = StepRunning
	st.emit(types.ProgressEvent{
		ID:      id,
		Kind:    kind.EventKind(),
		Status:  types.StatusRunning,
		Title:   running,
		Query:   q.Query,
		Message: searchRunningMessage(kind, q),
	})

	ctx, span := e.tracer.Start(ctx, "research.search", trace.WithAttributes(
		attribute.String("step_id", id),
		attribute.String("kind", kind.String()),
	))
	start := time.Now()
	results, err := e.search(ctx, kind, q.Query, q.Priority, st.depth)
	metrics.StepDuration.WithLabelValues(kind.String()).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.End()
		return &PhaseError{Phase: "search", StepID: id, Err: err}
	}
	span.End()

	recorded := q
	recorded.Source = kind.Source()
	st.addRecord(types.SearchRecord{Type: kind.Source(), Query: recorded, Results: results})

	step.Status = StepCompleted
	if advance {
		st.advance()
	}

	message := fmt.Sprintf("Found %d results", len(results))
	if kind == StepGapAcademic {
		message = fmt.Sprintf("Found %d academic sources", len(results))
	}
	st.emit(types.ProgressEvent{
		ID:        id,
		Kind:      kind.EventKind(),
		Status:    types.StatusCompleted,
		Title:     completed,
		Query:     q.Query,
		Results:   results,
		Message:   message,
		Overwrite: true,
	})
	return nil
}

// search calls the provider for kind and normalizes its results.
func (e *Engine) search(ctx context.Context, kind StepKind, query string, priority int, depth types.Depth) ([]types.SearchResult, error) {
	start := time.Now()
	switch kind.Source() {
	case types.SourceAcademic:
		resp, err := e.academic.SearchAcademic(ctx, query, types.AcademicSearchOptions{
			MaxResults: e.resultCap(kind, priority),
			Summary:    true,
		})
		metrics.ObserveProviderCall("academic", start, err)
		if err != nil {
			return nil, providerFailure(err)
		}
		return normalize(resp.Results, types.SourceAcademic), nil
	default:
		resp, err := e.web.SearchWeb(ctx, query, types.WebSearchOptions{
			Depth:         types.SearchDepth(depth),
			MaxResults:    e.resultCap(kind, priority),
			IncludeAnswer: true,
		})
		metrics.ObserveProviderCall("web", start, err)
		if err != nil {
			return nil, providerFailure(err)
		}
		return normalize(resp.Results, types.SourceWeb), nil
	}
}

// normalize stamps the step's source on every result.
func normalize(in []types.SearchResult, source types.Source) []types.SearchResult {
	out := make([]types.SearchResult, 0, len(in))
	for _, r := range in {
		out = append(out, types.SearchResult{
			Source:        source,
			Title:         r.Title,
			URL:           r.URL,
			Content:       r.Content,
			PublishedDate: r.PublishedDate,
		})
	}
	return out
}

func searchTitles(kind StepKind, query string) (running, completed string) {
	switch kind {
	case StepAcademic:
		return fmt.Sprintf("Searching academic papers for %q", query), fmt.Sprintf("Searched academic papers for %q", query)
	case StepGapWeb:
		return fmt.Sprintf("Additional search for %q", query), fmt.Sprintf("Additional web search for %q", query)
	case StepGapAcademic:
		t := fmt.Sprintf("Additional academic search for %q", query)
		return t, t
	default:
		return fmt.Sprintf("Searching the web for %q", query), fmt.Sprintf("Searched the web for %q", query)
	}
}

func searchRunningMessage(kind StepKind, q types.SearchQuery) string {
	switch kind {
	case StepGapWeb:
		return "Searching to fill knowledge gap: " + q.Rationale
	case StepGapAcademic:
		return "Searching academic sources to fill knowledge gap: " + q.Rationale
	default:
		return fmt.Sprintf("Searching %s sources...", q.Source)
	}
}
