// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SearchDepth is the provider-side crawl depth for a web search.
type SearchDepth string

const (
	SearchDepthBasic    SearchDepth = "basic"
	SearchDepthAdvanced SearchDepth = "advanced"
)

// Topic narrows a web search to a category of pages.
type Topic string

const (
	TopicGeneral Topic = "general"
	TopicNews    Topic = "news"
)

// WebSearchOptions carries the per-call parameters for a web search provider.
type WebSearchOptions struct {
	Depth         SearchDepth
	MaxResults    int
	IncludeAnswer bool
	Topic         Topic
	// Days limits news searches to the last N days. Zero means no limit.
	Days                     int
	IncludeImages            bool
	IncludeImageDescriptions bool
	ExcludeDomains           []string
}

// AcademicSearchOptions carries the per-call parameters for an academic
// search provider.
type AcademicSearchOptions struct {
	MaxResults int
	// Summary asks the provider for a generated summary as result content
	// instead of raw page text.
	Summary bool
}

// SearchResponse is what a search provider returns for one query.
type SearchResponse struct {
	Results []SearchResult
	Images  []Image
	Answer  string
}

// ObjectRequest asks a text-generation backend for a JSON object matching
// Shape. Shape is a pointer to a zero value of the expected Go type; backends
// derive a JSON schema from it.
type ObjectRequest struct {
	Name        string
	System      string
	Prompt      string
	Shape       any
	Temperature float32
}
