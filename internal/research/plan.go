// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/reason-search/pkg/types"
)

// Plan bounds a generated plan must respect.
const (
	MinQueries  = 4
	MaxQueries  = 12
	MinAnalyses = 2
	MaxAnalyses = 8
	MaxSteps    = 20
)

// ValidatePlan checks a plan against the query, analysis, and step bounds
// and the per-entry value domains. Violations wrap ErrPlanViolation.
func ValidatePlan(plan types.ResearchPlan) error {
	var problems []string

	if n := len(plan.SearchQueries); n < MinQueries || n > MaxQueries {
		problems = append(problems, fmt.Sprintf("%d search queries, want %d-%d", n, MinQueries, MaxQueries))
	}
	if n := len(plan.RequiredAnalyses); n < MinAnalyses || n > MaxAnalyses {
		problems = append(problems, fmt.Sprintf("%d analyses, want %d-%d", n, MinAnalyses, MaxAnalyses))
	}
	if steps := plan.SearchSteps() + len(plan.RequiredAnalyses); steps > MaxSteps {
		problems = append(problems, fmt.Sprintf("%d steps after expansion, want at most %d", steps, MaxSteps))
	}

	for i, q := range plan.SearchQueries {
		if strings.TrimSpace(q.Query) == "" {
			problems = append(problems, fmt.Sprintf("query %d: empty text", i))
		}
		switch q.Source {
		case types.SourceWeb, types.SourceAcademic, types.SourceBoth:
		default:
			problems = append(problems, fmt.Sprintf("query %d: invalid source %q", i, q.Source))
		}
		if q.Priority < 1 || q.Priority > 5 {
			problems = append(problems, fmt.Sprintf("query %d: priority %d out of range [1,5]", i, q.Priority))
		}
	}
	for i, a := range plan.RequiredAnalyses {
		if strings.TrimSpace(a.Type) == "" {
			problems = append(problems, fmt.Sprintf("analysis %d: empty type", i))
		}
		if a.Importance < 1 || a.Importance > 5 {
			problems = append(problems, fmt.Sprintf("analysis %d: importance %d out of range [1,5]", i, a.Importance))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrPlanViolation, strings.Join(problems, "; "))
	}
	return nil
}

// generatePlan asks the text generator for a plan, validates it, and fixes
// the run's step total.
func (e *Engine) generatePlan(ctx context.Context, st *RunState) (types.ResearchPlan, error) {
	st.emit(types.ProgressEvent{
		ID:        planEventID,
		Kind:      types.KindPlan,
		Status:    types.StatusRunning,
		Title:     "Research Plan",
		Message:   "Creating research plan...",
		Overwrite: true,
	})

	prompt, err := renderPrompt(planPromptTmpl, map[string]any{
		"Topic":       st.topic,
		"MinQueries":  MinQueries,
		"MaxQueries":  MaxQueries,
		"MinAnalyses": MinAnalyses,
		"MaxAnalyses": MaxAnalyses,
		"MaxSteps":    MaxSteps,
	})
	if err != nil {
		return types.ResearchPlan{}, &PhaseError{Phase: "plan", Err: err}
	}

	var plan types.ResearchPlan
	if err := e.generate(ctx, "research_plan", prompt, planTemperature, &plan); err != nil {
		return types.ResearchPlan{}, &PhaseError{Phase: "plan", Err: err}
	}
	if err := ValidatePlan(plan); err != nil {
		return types.ResearchPlan{}, &PhaseError{Phase: "plan", Err: err}
	}

	st.plan = plan
	st.setTotal(plan.SearchSteps(), len(plan.RequiredAnalyses))

	st.emit(types.ProgressEvent{
		ID:        planEventID,
		Kind:      types.KindPlan,
		Status:    types.StatusCompleted,
		Title:     "Research Plan",
		Message:   "Research plan created",
		Overwrite: true,
		Plan:      &plan,
	})
	return plan, nil
}
