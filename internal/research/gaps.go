// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"fmt"

	"github.com/pdiddy/reason-search/pkg/types"
)

// LimitationConfidence derives a finding confidence from a limitation
// severity: (6 - severity) / 5. The result is not clamped, so severities
// above 6 yield negative values (severity 2 gives 0.8, severity 10 gives -0.8).
//
// TODO(research): confidence is a [0,1] quantity everywhere else; clamp here
// once consumers agree on the change.
func LimitationConfidence(severity int) float64 {
	return float64(6-severity) / 5
}

// analyzeGaps runs the gap analysis once, after all initial analyses.
func (e *Engine) analyzeGaps(ctx context.Context, st *RunState) (types.GapAnalysis, error) {
	if err := checkContext(ctx, "gap-analysis", gapEventID); err != nil {
		return types.GapAnalysis{}, err
	}

	st.emit(types.ProgressEvent{
		ID:           gapEventID,
		Kind:         types.KindAnalysis,
		Status:       types.StatusRunning,
		Title:        "Research Gaps and Limitations",
		AnalysisType: "gaps",
		Message:      "Analyzing research gaps and limitations...",
	})

	gaps, err := e.requestGaps(ctx, st)
	if err != nil {
		return types.GapAnalysis{}, &PhaseError{Phase: "gap-analysis", StepID: gapEventID, Err: err}
	}

	findings := make([]types.Finding, 0, len(gaps.Limitations))
	for _, l := range gaps.Limitations {
		findings = append(findings, types.Finding{
			Insight:    l.Description,
			Evidence:   l.PotentialSolutions,
			Confidence: LimitationConfidence(l.Severity),
		})
	}

	st.advance()
	st.emit(types.ProgressEvent{
		ID:              gapEventID,
		Kind:            types.KindAnalysis,
		Status:          types.StatusCompleted,
		Title:           "Research Gaps and Limitations",
		AnalysisType:    "gaps",
		Findings:        findings,
		Gaps:            gaps.KnowledgeGaps,
		Recommendations: gaps.RecommendedFollowup,
		Message:         fmt.Sprintf("Identified %d limitations and %d knowledge gaps", len(gaps.Limitations), len(gaps.KnowledgeGaps)),
		Overwrite:       true,
	})
	return gaps, nil
}

func (e *Engine) requestGaps(ctx context.Context, st *RunState) (types.GapAnalysis, error) {
	results, err := jsonContext(st.allResults())
	if err != nil {
		return types.GapAnalysis{}, err
	}
	analyses, err := jsonContext(st.plan.RequiredAnalyses)
	if err != nil {
		return types.GapAnalysis{}, err
	}
	prompt, err := renderPrompt(gapPromptTmpl, map[string]any{
		"Results":  results,
		"Analyses": analyses,
	})
	if err != nil {
		return types.GapAnalysis{}, err
	}

	var gaps types.GapAnalysis
	if err := e.generate(ctx, "gap_analysis", prompt, gapTemperature, &gaps); err != nil {
		return types.GapAnalysis{}, err
	}
	if err := validateGaps(gaps); err != nil {
		return types.GapAnalysis{}, err
	}
	return gaps, nil
}

func validateGaps(g types.GapAnalysis) error {
	for i, l := range g.Limitations {
		if l.Severity < 2 || l.Severity > 10 {
			return malformed("limitation %d: severity %d out of range [2,10]", i, l.Severity)
		}
	}
	for i, r := range g.RecommendedFollowup {
		if r.Priority < 2 || r.Priority > 10 {
			return malformed("recommendation %d: priority %d out of range [2,10]", i, r.Priority)
		}
	}
	return nil
}
