// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/pdiddy/reason-search/pkg/types"
)

// Paced spaces generation calls to at most the configured rate. Every retry
// attempt waits for its own token.
type Paced struct {
	next    Generator
	limiter *rate.Limiter
}

// Pace wraps next with a limiter of rps calls per second and a burst of one.
// A non-positive rps returns next as is.
func Pace(next Generator, rps float64) Generator {
	if rps <= 0 {
		return next
	}
	return &Paced{next: next, limiter: rate.NewLimiter(rate.Limit(rps), 1)}
}

// GenerateObject waits for a token, then delegates.
func (p *Paced) GenerateObject(ctx context.Context, req types.ObjectRequest) (json.RawMessage, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return p.next.GenerateObject(ctx, req)
}

// userAgentTransport stamps every outgoing request with the configured
// User-Agent.
type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(req)
}

// withUserAgent returns a transport stamping ua, or base when ua is empty.
func withUserAgent(base http.RoundTripper, ua string) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	if ua == "" {
		return base
	}
	return userAgentTransport{base: base, userAgent: ua}
}
