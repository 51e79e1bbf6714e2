// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/reason-search/pkg/types"
)

type recordingWeb struct {
	mu    sync.Mutex
	calls map[string]types.WebSearchOptions
	resp  func(query string) (types.SearchResponse, error)
}

func (r *recordingWeb) SearchWeb(_ context.Context, query string, opts types.WebSearchOptions) (types.SearchResponse, error) {
	r.mu.Lock()
	if r.calls == nil {
		r.calls = map[string]types.WebSearchOptions{}
	}
	r.calls[query] = opts
	r.mu.Unlock()
	return r.resp(query)
}

type proberFunc func(string) bool

func (f proberFunc) Valid(_ context.Context, url string) bool { return f(url) }

func TestMultiSearch_PerQueryDefaults(t *testing.T) {
	web := &recordingWeb{resp: func(string) (types.SearchResponse, error) { return types.SearchResponse{}, nil }}

	_, err := MultiSearch(context.Background(), web, nil, MultiSearchRequest{
		Queries:        []string{"q0", "q1", "q2"},
		MaxResults:     []int{5, 0},
		Topics:         []types.Topic{"", types.TopicNews},
		SearchDepths:   []types.SearchDepth{types.SearchDepthAdvanced},
		ExcludeDomains: []string{"pinterest.com"},
	})
	require.NoError(t, err)
	require.Len(t, web.calls, 3)

	q0 := web.calls["q0"]
	assert.Equal(t, 5, q0.MaxResults)
	assert.Equal(t, types.TopicGeneral, q0.Topic)
	assert.Equal(t, 0, q0.Days)
	assert.Equal(t, types.SearchDepthAdvanced, q0.Depth)
	assert.True(t, q0.IncludeAnswer)
	assert.True(t, q0.IncludeImages)
	assert.True(t, q0.IncludeImageDescriptions)
	assert.Equal(t, []string{"pinterest.com"}, q0.ExcludeDomains)

	q1 := web.calls["q1"]
	assert.Equal(t, 5, q1.MaxResults, "zero falls back to index 0")
	assert.Equal(t, types.TopicNews, q1.Topic)
	assert.Equal(t, 7, q1.Days)
	assert.Equal(t, types.SearchDepthAdvanced, q1.Depth)

	q2 := web.calls["q2"]
	assert.Equal(t, 5, q2.MaxResults)
	assert.Equal(t, types.TopicGeneral, q2.Topic, "missing topic falls back to index 0 then general")
}

func TestMultiSearch_DefaultsWithEmptyLists(t *testing.T) {
	web := &recordingWeb{resp: func(string) (types.SearchResponse, error) { return types.SearchResponse{}, nil }}
	_, err := MultiSearch(context.Background(), web, nil, MultiSearchRequest{Queries: []string{"only"}})
	require.NoError(t, err)

	opts := web.calls["only"]
	assert.Equal(t, 10, opts.MaxResults)
	assert.Equal(t, types.TopicGeneral, opts.Topic)
	assert.Equal(t, types.SearchDepthBasic, opts.Depth)
}

func TestMultiSearch_DedupAndImages(t *testing.T) {
	web := &recordingWeb{resp: func(q string) (types.SearchResponse, error) {
		return types.SearchResponse{
			Results: []types.SearchResult{
				{Title: "x", URL: "https://a.com/x", PublishedDate: "2026-01-01"},
				{Title: "y", URL: "https://a.com/y"},
				{Title: "b", URL: "https://b.com/1"},
			},
			Images: []types.Image{
				{URL: "https://img.one.com/cat pic.png", Description: "a cat"},
				{URL: "https://img.one.com/dog.png", Description: "same domain"},
				{URL: "https://two.com/broken.png", Description: "broken"},
				{URL: "https://three.com/plain.png"},
				{URL: "https://four.com/ok.png", Description: "ok"},
			},
		}, nil
	}}
	var probed []string
	var mu sync.Mutex
	prober := proberFunc(func(u string) bool {
		mu.Lock()
		probed = append(probed, u)
		mu.Unlock()
		return u != "https://two.com/broken.png"
	})

	out, err := MultiSearch(context.Background(), web, prober, MultiSearchRequest{
		Queries: []string{"general", "news"},
		Topics:  []types.Topic{types.TopicGeneral, types.TopicNews},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "general", out[0].Query)
	assert.Equal(t, []types.SearchResult{
		{Title: "x", URL: "https://a.com/x"},
		{Title: "b", URL: "https://b.com/1"},
	}, out[0].Results, "general results drop published dates")
	assert.Equal(t, "2026-01-01", out[1].Results[0].PublishedDate, "news results keep published dates")

	assert.Equal(t, []types.Image{
		{URL: "https://img.one.com/cat%20pic.png", Description: "a cat"},
		{URL: "https://four.com/ok.png", Description: "ok"},
	}, out[0].Images)

	assert.Contains(t, probed, "https://img.one.com/cat%20pic.png")
	assert.NotContains(t, probed, "https://three.com/plain.png", "undescribed images are not probed")
}

func TestMultiSearch_CompletionCallback(t *testing.T) {
	web := &recordingWeb{resp: func(q string) (types.SearchResponse, error) {
		return types.SearchResponse{
			Results: []types.SearchResult{{URL: "https://a.com/1"}, {URL: "https://a.com/2"}},
			Images:  []types.Image{{URL: "https://i.com/1.png"}},
		}, nil
	}}

	var got []QueryCompletion
	_, err := MultiSearch(context.Background(), web, nil, MultiSearchRequest{Queries: []string{"a", "b", "c"}},
		WithQueryCompletion(func(c QueryCompletion) { got = append(got, c) }))
	require.NoError(t, err)

	require.Len(t, got, 3)
	seen := map[int]bool{}
	for _, c := range got {
		seen[c.Index] = true
		assert.Equal(t, 3, c.Total)
		assert.Equal(t, "completed", c.Status)
		assert.Equal(t, 2, c.ResultsCount, "raw counts before dedup")
		assert.Equal(t, 1, c.ImagesCount)
	}
	assert.Len(t, seen, 3)
}

func TestMultiSearch_ProviderErrorFailsCall(t *testing.T) {
	web := &recordingWeb{resp: func(q string) (types.SearchResponse, error) {
		if q == "bad" {
			return types.SearchResponse{}, errors.New("tavily returned HTTP 500")
		}
		return types.SearchResponse{}, nil
	}}
	out, err := MultiSearch(context.Background(), web, nil, MultiSearchRequest{Queries: []string{"good", "bad"}})
	assert.Nil(t, out)
	assert.ErrorContains(t, err, `query 1 "bad"`)
	assert.ErrorContains(t, err, "HTTP 500")
}

func TestMultiSearch_NoQueries(t *testing.T) {
	_, err := MultiSearch(context.Background(), &recordingWeb{}, nil, MultiSearchRequest{})
	assert.Error(t, err)
}

func TestSanitizeURL(t *testing.T) {
	assert.Equal(t, "https://x.com/a%20b%20c.png", SanitizeURL("https://x.com/a b\t\nc.png"))
	assert.Equal(t, "https://x.com/a.png", SanitizeURL("https://x.com/a.png"))
}

func TestImageProber(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		switch r.URL.Path {
		case "/ok.png":
			w.Header().Set("Content-Type", "image/png")
		case "/page.html":
			w.Header().Set("Content-Type", "text/html")
		case "/missing.png":
			w.Header().Set("Content-Type", "image/png")
			w.WriteHeader(http.StatusNotFound)
		case "/slow.png":
			time.Sleep(200 * time.Millisecond)
			w.Header().Set("Content-Type", "image/png")
		}
	}))
	defer ts.Close()

	p := &ImageProber{Client: ts.Client(), Timeout: 50 * time.Millisecond}
	tests := []struct {
		path string
		want bool
	}{
		{"/ok.png", true},
		{"/page.html", false},
		{"/missing.png", false},
		{"/slow.png", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Valid(context.Background(), ts.URL+tt.path))
		})
	}

	assert.False(t, p.Valid(context.Background(), "::not a url"))
}

func TestNewImageProberDefaults(t *testing.T) {
	p := NewImageProber(types.ImageCheckConfig{})
	assert.Equal(t, 5*time.Second, p.Timeout)
}
