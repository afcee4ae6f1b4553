package compiler

import (
	"fmt"

	"github.com/seancheick/Pharmaguide-sub006/internal/route"
)

// ShadowWarning reports two routes whose patterns overlap.
//
// Overlaps are warnings, not errors, because they may be intentional:
// "/product/new" registered before "/product/:id" is the usual way to
// carve a literal out of a parameter.
type ShadowWarning struct {
	Route   string `json:"route"`   // the later-registered route
	By      string `json:"by"`      // the earlier route that wins
	Message string `json:"message"` // Human-readable description
	Level   string `json:"level"`   // "warning" (unreachable) or "info" (partial overlap)
}

// AnalyzeShadowing compares every pair of routes in registration order.
//
// Because the first registered match wins, a later route is unreachable
// when an earlier pattern matches every path it matches: same segment
// count, and at each position the earlier token is a parameter or the
// same literal. Pairs that only share some paths are reported as info.
//
// A table without overlaps returns an empty list.
func AnalyzeShadowing(table *route.Table) []ShadowWarning {
	defs := table.Definitions()
	tokens := make([][]route.Token, len(defs))
	for i, def := range defs {
		tokens[i] = route.Tokenize(def.Path)
	}

	var warnings []ShadowWarning
	for j := range defs {
		for i := 0; i < j; i++ {
			switch overlap(tokens[i], tokens[j]) {
			case overlapFull:
				warnings = append(warnings, ShadowWarning{
					Route:   defs[j].Name,
					By:      defs[i].Name,
					Message: fmt.Sprintf("route %q (%s) is unreachable: %q (%s) matches first", defs[j].Name, defs[j].Path, defs[i].Name, defs[i].Path),
					Level:   "warning",
				})
			case overlapPartial:
				warnings = append(warnings, ShadowWarning{
					Route:   defs[j].Name,
					By:      defs[i].Name,
					Message: fmt.Sprintf("route %q (%s) shares paths with %q (%s), which takes precedence", defs[j].Name, defs[j].Path, defs[i].Name, defs[i].Path),
					Level:   "info",
				})
			}
		}
	}
	return warnings
}

type overlapKind int

const (
	overlapNone overlapKind = iota
	overlapPartial
	overlapFull
)

// overlap classifies how the earlier pattern a relates to the later b.
func overlap(a, b []route.Token) overlapKind {
	if len(a) != len(b) {
		return overlapNone
	}
	covers := true
	for k := range a {
		ta, tb := a[k], b[k]
		switch {
		case ta.Kind == route.TokenParam:
			// matches anything b can match here
		case tb.Kind == route.TokenParam:
			covers = false
		case ta.Value != tb.Value:
			return overlapNone
		}
	}
	if covers {
		return overlapFull
	}
	return overlapPartial
}
