// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for reason-search: the research
// plan, search results, analyses, progress events, and the final research
// result handed back to callers.
package types

import (
	"fmt"
	"time"
)

// Depth selects how far a reasoned research run goes. Advanced runs add a
// gap-filling search wave and a final synthesis.
type Depth string

const (
	DepthBasic    Depth = "basic"
	DepthAdvanced Depth = "advanced"
)

// ParseDepth converts a user-supplied string into a Depth. An empty string
// selects DepthBasic.
func ParseDepth(s string) (Depth, error) {
	switch Depth(s) {
	case "", DepthBasic:
		return DepthBasic, nil
	case DepthAdvanced:
		return DepthAdvanced, nil
	}
	return "", fmt.Errorf("unknown depth %q: want basic or advanced", s)
}

// Source identifies where a search query should be sent.
type Source string

const (
	SourceWeb      Source = "web"
	SourceAcademic Source = "academic"
	SourceBoth     Source = "both"
)

// SearchQuery is one planned search.
type SearchQuery struct {
	Query     string `json:"query" yaml:"query"`
	Rationale string `json:"rationale" yaml:"rationale"`
	Source    Source `json:"source" yaml:"source" enum:"web,academic,both"`
	// Priority runs from 1 (most important) to 5.
	Priority int `json:"priority" yaml:"priority" description:"1 (most important) to 5"`
}

// RequiredAnalysis is one planned analysis over the gathered results.
type RequiredAnalysis struct {
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
	Importance  int    `json:"importance" yaml:"importance" description:"1 to 5"`
}

// ResearchPlan is the structured plan generated for a topic.
type ResearchPlan struct {
	SearchQueries    []SearchQuery      `json:"search_queries" yaml:"search_queries"`
	RequiredAnalyses []RequiredAnalysis `json:"required_analyses" yaml:"required_analyses"`
}

// SearchSteps returns the number of search steps the plan expands to. A query
// with SourceBoth counts twice.
func (p ResearchPlan) SearchSteps() int {
	n := 0
	for _, q := range p.SearchQueries {
		if q.Source == SourceBoth {
			n += 2
			continue
		}
		n++
	}
	return n
}

// SearchResult is a single normalized hit from a web or academic provider.
type SearchResult struct {
	Source        Source `json:"source" yaml:"source"`
	Title         string `json:"title" yaml:"title"`
	URL           string `json:"url" yaml:"url"`
	Content       string `json:"content" yaml:"content"`
	PublishedDate string `json:"published_date,omitempty" yaml:"published_date,omitempty"`
}

// Image is an image hit returned alongside quick web search results.
type Image struct {
	URL         string `json:"url" yaml:"url"`
	Description string `json:"description" yaml:"description"`
}

// SearchRecord holds the results of one executed search step.
type SearchRecord struct {
	Type    Source         `json:"type" yaml:"type"`
	Query   SearchQuery    `json:"query" yaml:"query"`
	Results []SearchResult `json:"results" yaml:"results"`
}

// Finding is an insight with its supporting evidence.
type Finding struct {
	Insight    string   `json:"insight" yaml:"insight"`
	Evidence   []string `json:"evidence" yaml:"evidence"`
	Confidence float64  `json:"confidence" yaml:"confidence" description:"between 0 and 1"`
}

// AnalysisResult is the output of one analysis step.
type AnalysisResult struct {
	Type         string    `json:"type" yaml:"type"`
	Findings     []Finding `json:"findings" yaml:"findings"`
	Implications []string  `json:"implications" yaml:"implications"`
	Limitations  []string  `json:"limitations" yaml:"limitations"`
}

// Limitation is a weakness of the gathered research.
type Limitation struct {
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
	// Severity runs from 2 to 10.
	Severity           int      `json:"severity" yaml:"severity" description:"2 to 10"`
	PotentialSolutions []string `json:"potential_solutions" yaml:"potential_solutions"`
}

// KnowledgeGap is a topic the first research wave did not cover.
type KnowledgeGap struct {
	Topic             string   `json:"topic" yaml:"topic"`
	Reason            string   `json:"reason" yaml:"reason"`
	AdditionalQueries []string `json:"additional_queries" yaml:"additional_queries"`
}

// FollowupAction is a recommended next step.
type FollowupAction struct {
	Action    string `json:"action" yaml:"action"`
	Rationale string `json:"rationale" yaml:"rationale"`
	Priority  int    `json:"priority" yaml:"priority" description:"2 to 10"`
}

// GapAnalysis collects limitations, gaps, and recommendations for a run.
type GapAnalysis struct {
	Limitations         []Limitation     `json:"limitations" yaml:"limitations"`
	KnowledgeGaps       []KnowledgeGap   `json:"knowledge_gaps" yaml:"knowledge_gaps"`
	RecommendedFollowup []FollowupAction `json:"recommended_followup" yaml:"recommended_followup"`
}

// KeyFinding is one conclusion of the final synthesis.
type KeyFinding struct {
	Finding            string   `json:"finding" yaml:"finding"`
	Confidence         float64  `json:"confidence" yaml:"confidence"`
	SupportingEvidence []string `json:"supporting_evidence" yaml:"supporting_evidence"`
}

// Synthesis is the final answer produced after a follow-up wave.
type Synthesis struct {
	KeyFindings            []KeyFinding `json:"key_findings" yaml:"key_findings"`
	RemainingUncertainties []string     `json:"remaining_uncertainties" yaml:"remaining_uncertainties"`
}

// ResearchResult is returned once a reasoned research run finishes.
type ResearchResult struct {
	RunID       string           `json:"run_id" yaml:"run_id"`
	Topic       string           `json:"topic" yaml:"topic"`
	Depth       Depth            `json:"depth" yaml:"depth"`
	Plan        ResearchPlan     `json:"plan" yaml:"plan"`
	Results     []SearchRecord   `json:"results" yaml:"results"`
	Analyses    []AnalysisResult `json:"analyses" yaml:"analyses"`
	GapAnalysis GapAnalysis      `json:"gap_analysis" yaml:"gap_analysis"`
	// Synthesis is nil unless the follow-up wave ran.
	Synthesis *Synthesis `json:"synthesis,omitempty" yaml:"synthesis,omitempty"`
}

// AllResults flattens every search record, follow-up wave included, in
// execution order.
func (r *ResearchResult) AllResults() []SearchResult {
	var out []SearchResult
	for _, rec := range r.Results {
		out = append(out, rec.Results...)
	}
	return out
}

// EventKind is the card type a progress event renders as.
type EventKind string

const (
	KindPlan     EventKind = "plan"
	KindWeb      EventKind = "web"
	KindAcademic EventKind = "academic"
	KindAnalysis EventKind = "analysis"
	KindProgress EventKind = "progress"
)

// EventStatus is the lifecycle state carried by a progress event.
type EventStatus string

const (
	StatusRunning   EventStatus = "running"
	StatusCompleted EventStatus = "completed"
	StatusFailed    EventStatus = "failed"
)

// ProgressEvent is one entry of the research status stream. Consumers replace
// an earlier event with the same ID when Overwrite is set.
type ProgressEvent struct {
	RunID          string      `json:"run_id" yaml:"run_id"`
	Seq            uint64      `json:"seq" yaml:"seq"`
	ID             string      `json:"id" yaml:"id"`
	Kind           EventKind   `json:"type" yaml:"type"`
	Status         EventStatus `json:"status" yaml:"status"`
	Title          string      `json:"title" yaml:"title"`
	Message        string      `json:"message" yaml:"message"`
	Timestamp      time.Time   `json:"timestamp" yaml:"timestamp"`
	Overwrite      bool        `json:"overwrite" yaml:"overwrite"`
	CompletedSteps int         `json:"completed_steps" yaml:"completed_steps"`
	TotalSteps     int         `json:"total_steps" yaml:"total_steps"`
	IsComplete     bool        `json:"is_complete,omitempty" yaml:"is_complete,omitempty"`
	Error          string      `json:"error,omitempty" yaml:"error,omitempty"`

	Query           string           `json:"query,omitempty" yaml:"query,omitempty"`
	AnalysisType    string           `json:"analysis_type,omitempty" yaml:"analysis_type,omitempty"`
	Plan            *ResearchPlan    `json:"plan,omitempty" yaml:"plan,omitempty"`
	Results         []SearchResult   `json:"results,omitempty" yaml:"results,omitempty"`
	Findings        []Finding        `json:"findings,omitempty" yaml:"findings,omitempty"`
	Gaps            []KnowledgeGap   `json:"gaps,omitempty" yaml:"gaps,omitempty"`
	Recommendations []FollowupAction `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
	Uncertainties   []string         `json:"uncertainties,omitempty" yaml:"uncertainties,omitempty"`
}
