// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"

	"github.com/pdiddy/reason-search/pkg/types"
)

// followupQueries turns every (gap, additional query) pair into a search
// query against both sources.
func followupQueries(gaps types.GapAnalysis) []types.SearchQuery {
	var out []types.SearchQuery
	for _, gap := range gaps.KnowledgeGaps {
		for _, q := range gap.AdditionalQueries {
			out = append(out, types.SearchQuery{
				Query:     q,
				Rationale: gap.Reason,
				Source:    types.SourceBoth,
				Priority:  followupPriority,
			})
		}
	}
	return out
}

// expandFollowups runs the gap-filling wave: a web search and then an
// academic search for every follow-up query, sequentially. Each search gets
// its own index; each pair counts as one completed step.
func (e *Engine) expandFollowups(ctx context.Context, st *RunState, gaps types.GapAnalysis) ([]types.SearchQuery, error) {
	queries := followupQueries(gaps)
	for _, q := range queries {
		web := Step{Ref: StepRef{Kind: StepGapWeb, Index: st.allocSearchIndex()}, Query: q, Status: StepPending}
		if err := checkContext(ctx, "followup", web.Ref.ID()); err != nil {
			return nil, err
		}
		if err := e.runSearchStep(ctx, st, &web, false); err != nil {
			return nil, err
		}

		academic := Step{Ref: StepRef{Kind: StepGapAcademic, Index: st.allocSearchIndex()}, Query: q, Status: StepPending}
		if err := checkContext(ctx, "followup", academic.Ref.ID()); err != nil {
			return nil, err
		}
		if err := e.runSearchStep(ctx, st, &academic, true); err != nil {
			return nil, err
		}
	}
	return queries, nil
}
