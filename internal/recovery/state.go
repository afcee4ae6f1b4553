package recovery

import (
	"strings"

	"github.com/seancheick/Pharmaguide-sub006/internal/params"
	"github.com/seancheick/Pharmaguide-sub006/internal/validate"
)

// State is one level of the navigation tree: an ordered stack of routes
// and the index of the focused one.
type State struct {
	Key    string  `json:"key,omitempty"`
	Index  int     `json:"index"`
	Routes []Route `json:"routes"`
}

// Route is one node of the navigation tree. State holds the nested
// navigator, if any.
type Route struct {
	Key    string     `json:"key,omitempty"`
	Name   string     `json:"name"`
	Params params.Map `json:"params,omitempty"`
	State  *State     `json:"state,omitempty"`
}

// LeafRoute follows the focused index down the tree and returns the
// innermost focused route.
func (s *State) LeafRoute() (Route, bool) {
	if s == nil || len(s.Routes) == 0 {
		return Route{}, false
	}
	idx := s.Index
	if idx < 0 || idx >= len(s.Routes) {
		idx = len(s.Routes) - 1
	}
	r := s.Routes[idx]
	if leaf, ok := r.State.LeafRoute(); ok {
		return leaf, true
	}
	return r, true
}

// RouteNames returns every route name in the tree, depth first.
func (s *State) RouteNames() []string {
	var names []string
	s.walk(func(r Route) {
		names = append(names, r.Name)
	})
	return names
}

// Count returns the number of routes in the tree.
func (s *State) Count() int {
	n := 0
	s.walk(func(Route) { n++ })
	return n
}

func (s *State) walk(fn func(Route)) {
	if s == nil {
		return
	}
	for _, r := range s.Routes {
		fn(r)
		r.State.walk(fn)
	}
}

// SingleRoute builds a one-route tree, used for the fallback destination.
func SingleRoute(name string, p params.Map) *State {
	return &State{
		Index:  0,
		Routes: []Route{{Key: name, Name: name, Params: p}},
	}
}

// SensitiveKeys are matched case-insensitively as substrings of parameter
// keys. Matching keys never reach storage.
var SensitiveKeys = []string{
	"password", "token", "secret", "key", "auth", "session",
	"ssn", "email", "phone", "creditcard", "cardnumber", "cvv", "dob", "birth",
}

// IsSensitiveKey reports whether a parameter key must be stripped.
func IsSensitiveKey(k string) bool {
	lower := strings.ToLower(k)
	for _, s := range SensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// Sanitize returns a deep copy of the tree with sensitive keys removed
// from every node's params and long strings truncated.
func Sanitize(s *State) *State {
	if s == nil {
		return nil
	}
	out := &State{Key: s.Key, Index: s.Index, Routes: make([]Route, len(s.Routes))}
	for i, r := range s.Routes {
		out.Routes[i] = Route{
			Key:    r.Key,
			Name:   r.Name,
			Params: sanitizeParams(r.Params),
			State:  Sanitize(r.State),
		}
	}
	return out
}

func sanitizeParams(p params.Map) params.Map {
	if p == nil {
		return nil
	}
	out := params.Map{}
	for k, v := range p {
		if IsSensitiveKey(k) {
			continue
		}
		if s, ok := v.(params.String); ok {
			v = params.String(validate.Truncate(string(s), validate.MaxStringLength))
		}
		out[k] = v
	}
	return out
}
