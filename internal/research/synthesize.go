// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"fmt"

	"github.com/pdiddy/reason-search/pkg/types"
)

// synthesize produces the final key findings after a follow-up wave. Its
// completed event reports TotalSteps-1; the terminal event supplies the last
// unit.
func (e *Engine) synthesize(ctx context.Context, st *RunState, gaps types.GapAnalysis, additional []types.SearchQuery) (*types.Synthesis, error) {
	if err := checkContext(ctx, "synthesis", synthesisEventID); err != nil {
		return nil, err
	}

	st.emit(types.ProgressEvent{
		ID:           synthesisEventID,
		Kind:         types.KindAnalysis,
		Status:       types.StatusRunning,
		Title:        "Final Research Synthesis",
		AnalysisType: "synthesis",
		Message:      "Synthesizing all research findings...",
	})

	synthesis, err := e.requestSynthesis(ctx, st, gaps, additional)
	if err != nil {
		return nil, &PhaseError{Phase: "synthesis", StepID: synthesisEventID, Err: err}
	}

	findings := make([]types.Finding, 0, len(synthesis.KeyFindings))
	for _, f := range synthesis.KeyFindings {
		findings = append(findings, types.Finding{
			Insight:    f.Finding,
			Evidence:   f.SupportingEvidence,
			Confidence: f.Confidence,
		})
	}

	st.report(st.TotalSteps() - 1)
	st.emit(types.ProgressEvent{
		ID:            synthesisEventID,
		Kind:          types.KindAnalysis,
		Status:        types.StatusCompleted,
		Title:         "Final Research Synthesis",
		AnalysisType:  "synthesis",
		Findings:      findings,
		Uncertainties: synthesis.RemainingUncertainties,
		Message:       fmt.Sprintf("Synthesized %d key findings", len(synthesis.KeyFindings)),
		Overwrite:     true,
	})
	return &synthesis, nil
}

func (e *Engine) requestSynthesis(ctx context.Context, st *RunState, gaps types.GapAnalysis, additional []types.SearchQuery) (types.Synthesis, error) {
	results, err := jsonContext(st.allResults())
	if err != nil {
		return types.Synthesis{}, err
	}
	gapJSON, err := jsonContext(gaps)
	if err != nil {
		return types.Synthesis{}, err
	}
	additionalJSON, err := jsonContext(additional)
	if err != nil {
		return types.Synthesis{}, err
	}
	prompt, err := renderPrompt(synthesisPromptTmpl, map[string]any{
		"Results":    results,
		"Gaps":       gapJSON,
		"Additional": additionalJSON,
	})
	if err != nil {
		return types.Synthesis{}, err
	}

	var synthesis types.Synthesis
	if err := e.generate(ctx, "final_synthesis", prompt, synthesisTemperature, &synthesis); err != nil {
		return types.Synthesis{}, err
	}
	for i, f := range synthesis.KeyFindings {
		if f.Confidence < 0 || f.Confidence > 1 {
			return types.Synthesis{}, malformed("key finding %d: confidence %v out of range [0,1]", i, f.Confidence)
		}
	}
	return synthesis, nil
}
