// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/reason-search/internal/metrics"
	"github.com/pdiddy/reason-search/pkg/types"
)

const defaultProbeTimeout = 5 * time.Second

var whitespace = regexp.MustCompile(`\s+`)

// SanitizeURL replaces every run of whitespace in u with %20.
func SanitizeURL(u string) string {
	return whitespace.ReplaceAllString(u, "%20")
}

// ImageProber checks that a URL resolves to an image with a single HEAD
// request. Any failure, including a timeout, counts as invalid; probes are
// never retried.
type ImageProber struct {
	Client  *http.Client
	Timeout time.Duration
}

// NewImageProber constructs a prober from cfg.
func NewImageProber(cfg types.ImageCheckConfig) *ImageProber {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	return &ImageProber{Client: &http.Client{}, Timeout: timeout}
}

// Valid reports whether url answers a HEAD request with a 2xx status and an
// image/* content type within the probe timeout.
func (p *ImageProber) Valid(ctx context.Context, url string) bool {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ok := p.probe(ctx, url)
	result := "valid"
	if !ok {
		result = "invalid"
	}
	metrics.ImageProbes.WithLabelValues(result).Inc()
	return ok
}

func (p *ImageProber) probe(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false
	}
	return strings.HasPrefix(resp.Header.Get("Content-Type"), "image/")
}
