// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/reason-search/pkg/types"
)

func openTestStore(t *testing.T) (*Store, *time.Time) {
	t.Helper()
	s, err := Open(types.CacheConfig{TTL: time.Minute})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, &now
}

func sampleResponse(url string) types.SearchResponse {
	return types.SearchResponse{
		Results: []types.SearchResult{{
			Source:  types.SourceWeb,
			Title:   "Solid-state batteries",
			URL:     url,
			Content: "Energy density improvements",
		}},
		Images: []types.Image{{URL: "https://img.example/a.png", Description: "cell"}},
		Answer: "short answer",
	}
}

func TestKey(t *testing.T) {
	a, err := Key("web", "q", types.WebSearchOptions{MaxResults: 5})
	require.NoError(t, err)
	b, err := Key("web", "q", types.WebSearchOptions{MaxResults: 5})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	for _, other := range []struct {
		provider, query string
		opts            any
	}{
		{"academic", "q", types.WebSearchOptions{MaxResults: 5}},
		{"web", "q2", types.WebSearchOptions{MaxResults: 5}},
		{"web", "q", types.WebSearchOptions{MaxResults: 6}},
	} {
		k, err := Key(other.provider, other.query, other.opts)
		require.NoError(t, err)
		assert.NotEqual(t, a, k)
	}

	_, err = Key("web", "q", func() {})
	assert.Error(t, err)
}

func TestStoreGetPut(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	want := sampleResponse("https://a.example/1")
	require.NoError(t, s.Put(ctx, "k1", "web", "q", want))

	got, ok, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	replacement := sampleResponse("https://a.example/2")
	require.NoError(t, s.Put(ctx, "k1", "web", "q", replacement))
	got, _, err = s.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "https://a.example/2", got.Results[0].URL)
}

func TestStoreExpiry(t *testing.T) {
	s, now := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k1", "web", "q", sampleResponse("https://a.example/1")))
	require.NoError(t, s.Put(ctx, "k2", "academic", "q", sampleResponse("https://b.example/1")))

	*now = now.Add(30 * time.Second)
	_, ok, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, ok)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Entries)
	assert.Equal(t, map[string]int{"web": 1, "academic": 1}, st.Provider)

	*now = now.Add(time.Minute)
	_, ok, err = s.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)

	st, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Entries)
	assert.Equal(t, 2, st.Expired)

	n, err := s.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	st, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Expired)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.db")
	ctx := context.Background()

	s, err := Open(types.CacheConfig{Path: path})
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "k", "web", "q", sampleResponse("https://a.example/1")))
	require.NoError(t, s.Close())

	s, err = Open(types.CacheConfig{Path: path})
	require.NoError(t, err)
	defer s.Close()
	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok, "entries survive reopening a file-backed cache")
	assert.Equal(t, defaultTTL, s.ttl)
}

type countingWeb struct {
	calls int
	err   error
}

func (c *countingWeb) SearchWeb(_ context.Context, query string, _ types.WebSearchOptions) (types.SearchResponse, error) {
	c.calls++
	if c.err != nil {
		return types.SearchResponse{}, c.err
	}
	return sampleResponse("https://web.example/" + query), nil
}

type countingAcademic struct {
	calls int
}

func (c *countingAcademic) SearchAcademic(_ context.Context, query string, _ types.AcademicSearchOptions) (types.SearchResponse, error) {
	c.calls++
	return sampleResponse("https://papers.example/" + query), nil
}

func TestCachedWeb(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	next := &countingWeb{}
	web := Web(next, s, zaptest.NewLogger(t))

	first, err := web.SearchWeb(ctx, "batteries", types.WebSearchOptions{MaxResults: 5})
	require.NoError(t, err)
	second, err := web.SearchWeb(ctx, "batteries", types.WebSearchOptions{MaxResults: 5})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, next.calls)

	_, err = web.SearchWeb(ctx, "batteries", types.WebSearchOptions{MaxResults: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls, "different options miss the cache")
}

func TestCachedWebErrorsAreNotCached(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	boom := errors.New("provider down")
	next := &countingWeb{err: boom}
	web := Web(next, s, zaptest.NewLogger(t))

	_, err := web.SearchWeb(ctx, "q", types.WebSearchOptions{})
	assert.ErrorIs(t, err, boom)

	next.err = nil
	_, err = web.SearchWeb(ctx, "q", types.WebSearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCachedAcademic(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	next := &countingAcademic{}
	ac := Academic(next, s, nil)

	for range 3 {
		resp, err := ac.SearchAcademic(ctx, "transformers", types.AcademicSearchOptions{MaxResults: 5, Summary: true})
		require.NoError(t, err)
		assert.Equal(t, "https://papers.example/transformers", resp.Results[0].URL)
	}
	assert.Equal(t, 1, next.calls)
}

func TestSharedStoreSeparatesProviders(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	web := &countingWeb{}
	ac := &countingAcademic{}

	_, err := Web(web, s, nil).SearchWeb(ctx, "q", types.WebSearchOptions{})
	require.NoError(t, err)
	resp, err := Academic(ac, s, nil).SearchAcademic(ctx, "q", types.AcademicSearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, ac.calls)
	assert.Equal(t, "https://papers.example/q", resp.Results[0].URL)
}

func TestNilStorePassesThrough(t *testing.T) {
	next := &countingWeb{}
	assert.Same(t, next, Web(next, nil, nil))
	ac := &countingAcademic{}
	assert.Same(t, ac, Academic(ac, nil, nil))
}
