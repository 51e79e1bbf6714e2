// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/pdiddy/reason-search/internal/metrics"
)

// ExtractDomain returns the registered domain (eTLD+1) of an http(s) URL,
// e.g. "news.bbc.co.uk" for a BBC News page yields "bbc.co.uk". Hosts that
// have no registered domain (IP addresses, localhost) yield the host. A
// string that is not an absolute http(s) URL is returned unchanged so it is
// only ever equal to itself.
func ExtractDomain(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return rawURL
	}
	host := strings.ToLower(u.Hostname())
	if net.ParseIP(host) != nil {
		return host
	}
	if d, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return d
	}
	return host
}

// Deduplicate keeps the first item for each URL and each registered domain,
// preserving input order. An item survives only if both its URL and its
// domain are new.
func Deduplicate[T any](items []T, urlOf func(T) string) []T {
	seenURLs := make(map[string]struct{}, len(items))
	seenDomains := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))

	for _, it := range items {
		u := urlOf(it)
		domain := ExtractDomain(u)
		_, dupURL := seenURLs[u]
		_, dupDomain := seenDomains[domain]
		if dupURL || dupDomain {
			continue
		}
		seenURLs[u] = struct{}{}
		seenDomains[domain] = struct{}{}
		out = append(out, it)
	}

	if removed := len(items) - len(out); removed > 0 {
		metrics.DuplicatesRemoved.Add(float64(removed))
	}
	return out
}
