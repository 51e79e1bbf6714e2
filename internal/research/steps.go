// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"fmt"

	"github.com/pdiddy/reason-search/pkg/types"
)

// StepKind tags the variant of a Step.
type StepKind int

const (
	StepWeb StepKind = iota
	StepAcademic
	StepAnalysis
	StepGapWeb
	StepGapAcademic
)

func (k StepKind) String() string {
	switch k {
	case StepWeb:
		return "web"
	case StepAcademic:
		return "academic"
	case StepAnalysis:
		return "analysis"
	case StepGapWeb:
		return "gap-web"
	case StepGapAcademic:
		return "gap-academic"
	default:
		return "unknown"
	}
}

// EventKind maps the step variant to the card type shown to clients.
func (k StepKind) EventKind() types.EventKind {
	switch k {
	case StepWeb, StepGapWeb:
		return types.KindWeb
	case StepAcademic, StepGapAcademic:
		return types.KindAcademic
	default:
		return types.KindAnalysis
	}
}

// Source returns the search source a search step queries.
func (k StepKind) Source() types.Source {
	if k == StepAcademic || k == StepGapAcademic {
		return types.SourceAcademic
	}
	return types.SourceWeb
}

// StepRef addresses a step within a run. Index is the plan index for planned
// steps and the allocated search index for gap-filling steps.
type StepRef struct {
	Kind  StepKind
	Index int
}

// ID renders the correlation id carried by progress events.
func (r StepRef) ID() string {
	switch r.Kind {
	case StepWeb:
		return fmt.Sprintf("search-web-%d", r.Index)
	case StepAcademic:
		return fmt.Sprintf("search-academic-%d", r.Index)
	case StepAnalysis:
		return fmt.Sprintf("analysis-%d", r.Index)
	case StepGapWeb:
		return fmt.Sprintf("gap-search-%d", r.Index)
	case StepGapAcademic:
		return fmt.Sprintf("gap-search-academic-%d", r.Index)
	default:
		return fmt.Sprintf("step-%d", r.Index)
	}
}

// Fixed ids for phases that are not plan steps.
const (
	planEventID      = "research-plan"
	gapEventID       = "gap-analysis"
	synthesisEventID = "final-synthesis"
	progressEventID  = "research-progress"
)

// StepStatus is the execution state of a step.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
)

// Step is one addressable unit of work. Search steps carry Query; analysis
// steps carry Analysis.
type Step struct {
	Ref      StepRef
	Query    types.SearchQuery
	Analysis types.RequiredAnalysis
	Status   StepStatus
}

// AllocateSteps expands a plan into search and analysis steps in plan order.
// A query with source both yields a web step followed by an academic step
// sharing the same plan index.
func AllocateSteps(plan types.ResearchPlan) (search, analysis []Step) {
	search = make([]Step, 0, plan.SearchSteps())
	for i, q := range plan.SearchQueries {
		switch q.Source {
		case types.SourceBoth:
			search = append(search,
				Step{Ref: StepRef{Kind: StepWeb, Index: i}, Query: q, Status: StepPending},
				Step{Ref: StepRef{Kind: StepAcademic, Index: i}, Query: q, Status: StepPending},
			)
		case types.SourceAcademic:
			search = append(search, Step{Ref: StepRef{Kind: StepAcademic, Index: i}, Query: q, Status: StepPending})
		default:
			search = append(search, Step{Ref: StepRef{Kind: StepWeb, Index: i}, Query: q, Status: StepPending})
		}
	}

	analysis = make([]Step, 0, len(plan.RequiredAnalyses))
	for i, a := range plan.RequiredAnalyses {
		analysis = append(analysis, Step{Ref: StepRef{Kind: StepAnalysis, Index: i}, Analysis: a, Status: StepPending})
	}
	return search, analysis
}
