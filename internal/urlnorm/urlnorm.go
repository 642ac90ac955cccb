// Package urlnorm canonicalizes job and company URLs so that equivalent
// links compare equal across host-prefix conventions.
package urlnorm

import (
	"net/url"
	"strings"
)

// Canonical returns the canonical form of a URL: lower-cased scheme and host,
// "www." stripped, and the "job-boards." host variant unified to "boards.".
// Unparsable input is returned unchanged; normalization fails open so a weird
// link still flows through the pipeline under its raw spelling.
func Canonical(raw string) string {
	trimmed := strings.TrimSpace(raw)
	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" {
		return raw
	}

	host := strings.ToLower(u.Host)
	host = strings.TrimPrefix(host, "www.")
	if rest, ok := strings.CutPrefix(host, "job-boards."); ok {
		host = "boards." + rest
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = host
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}

// Host extracts the canonical host of a URL, or "" when it cannot be parsed.
func Host(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if rest, ok := strings.CutPrefix(host, "job-boards."); ok {
		host = "boards." + rest
	}
	return host
}

// SameHost reports whether two URLs resolve to the same canonical host.
func SameHost(a, b string) bool {
	ha, hb := Host(a), Host(b)
	return ha != "" && ha == hb
}
