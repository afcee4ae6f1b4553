package route

import (
	"sort"
	"strings"
)

// Prefixes is the set of URL prefixes that address the route table: the
// app scheme ("pharmaguide://") and alternate web prefixes
// ("https://pharmaguide.app").
type Prefixes struct {
	list []string
}

// NewPrefixes builds a prefix set. Empty entries are ignored.
func NewPrefixes(scheme string, alternates ...string) Prefixes {
	var list []string
	for _, p := range append([]string{scheme}, alternates...) {
		if p != "" {
			list = append(list, p)
		}
	}
	// Longest first, so "https://www.host" wins over "https://w".
	sort.SliceStable(list, func(i, j int) bool { return len(list[i]) > len(list[j]) })
	return Prefixes{list: list}
}

// List returns the prefixes, longest first.
func (p Prefixes) List() []string {
	return append([]string(nil), p.list...)
}

// Strip removes the longest matching prefix. Matching is
// case-insensitive. A prefix that ends inside a host ("https://host")
// only matches when followed by "/", "?", "#" or the end of the URL.
func (p Prefixes) Strip(raw string) (string, bool) {
	for _, prefix := range p.list {
		if len(raw) < len(prefix) || !strings.EqualFold(raw[:len(prefix)], prefix) {
			continue
		}
		rest := raw[len(prefix):]
		if endsAtBoundary(prefix) || rest == "" || strings.ContainsAny(rest[:1], "/?#") {
			return rest, true
		}
	}
	return "", false
}

func endsAtBoundary(prefix string) bool {
	return strings.HasSuffix(prefix, "/") || strings.HasSuffix(prefix, ":")
}

// SplitURL drops any "#fragment" and splits the remainder into path and
// query string at the first "?".
func SplitURL(rest string) (path, query string) {
	rest, _, _ = strings.Cut(rest, "#")
	path, query, _ = strings.Cut(rest, "?")
	return path, query
}
