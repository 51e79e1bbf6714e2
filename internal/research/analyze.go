// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"fmt"
	"time"

	"github.com/pdiddy/reason-search/internal/metrics"
	"github.com/pdiddy/reason-search/pkg/types"
)

// analysisOutput is the object requested for one analysis step.
type analysisOutput struct {
	Findings     []types.Finding `json:"findings"`
	Implications []string        `json:"implications"`
	Limitations  []string        `json:"limitations"`
}

// runAnalyses runs every analysis step in plan order over all results
// gathered so far. It must only be called after the search steps finish.
func (e *Engine) runAnalyses(ctx context.Context, st *RunState, steps []Step) error {
	for i := range steps {
		step := &steps[i]
		id := step.Ref.ID()
		if err := checkContext(ctx, "analysis", id); err != nil {
			return err
		}

		a := step.Analysis
		step.Status = StepRunning
		st.emit(types.ProgressEvent{
			ID:           id,
			Kind:         types.KindAnalysis,
			Status:       types.StatusRunning,
			Title:        "Analyzing " + a.Type,
			AnalysisType: a.Type,
			Message:      fmt.Sprintf("Analyzing %s...", a.Type),
		})

		start := time.Now()
		out, err := e.analyze(ctx, st, a)
		metrics.StepDuration.WithLabelValues(StepAnalysis.String()).Observe(time.Since(start).Seconds())
		if err != nil {
			return &PhaseError{Phase: "analysis", StepID: id, Err: err}
		}

		st.analyses = append(st.analyses, types.AnalysisResult{
			Type:         a.Type,
			Findings:     out.Findings,
			Implications: out.Implications,
			Limitations:  out.Limitations,
		})
		step.Status = StepCompleted
		st.advance()

		st.emit(types.ProgressEvent{
			ID:           id,
			Kind:         types.KindAnalysis,
			Status:       types.StatusCompleted,
			Title:        fmt.Sprintf("Analysis of %s complete", a.Type),
			AnalysisType: a.Type,
			Findings:     out.Findings,
			Message:      "Analysis complete",
			Overwrite:    true,
		})
	}
	return nil
}

func (e *Engine) analyze(ctx context.Context, st *RunState, a types.RequiredAnalysis) (analysisOutput, error) {
	results, err := jsonContext(st.allResults())
	if err != nil {
		return analysisOutput{}, err
	}
	prompt, err := renderPrompt(analysisPromptTmpl, map[string]any{
		"Type":        a.Type,
		"Description": a.Description,
		"Results":     results,
	})
	if err != nil {
		return analysisOutput{}, err
	}

	var out analysisOutput
	if err := e.generate(ctx, "analysis", prompt, analysisTemperature, &out); err != nil {
		return analysisOutput{}, err
	}
	for i, f := range out.Findings {
		if f.Confidence < 0 || f.Confidence > 1 {
			return analysisOutput{}, malformed("finding %d: confidence %v out of range [0,1]", i, f.Confidence)
		}
	}
	return out, nil
}
