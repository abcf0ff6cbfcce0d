package appbuilder

import (
	"net/http"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/appsnap/cli/internal/relay"
)

// BuildHeaders composes the request headers for a snapshot: the JSON and
// XHR markers, the page's cookie string, then the page client's headers on
// top. Keys are canonicalised, so a later value replaces an earlier one.
func BuildHeaders(snap relay.AuthSnapshot) http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("X-Requested-With", "XMLHttpRequest")
	if snap.Cookies != "" {
		h.Set("Cookie", snap.Cookies)
	}
	keys := lo.Keys(snap.Headers)
	slices.Sort(keys)
	for _, k := range keys {
		h.Set(k, snap.Headers[k])
	}
	return h
}

// MergeCookies appends the jar cookies whose names are not already in the
// explicit header value.
func MergeCookies(header string, jar []*http.Cookie) string {
	seen := map[string]struct{}{}
	var parts []string
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, _, _ := strings.Cut(part, "=")
		seen[name] = struct{}{}
		parts = append(parts, part)
	}
	for _, c := range jar {
		if _, ok := seen[c.Name]; ok {
			continue
		}
		seen[c.Name] = struct{}{}
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}
