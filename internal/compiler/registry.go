package compiler

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/seancheick/Pharmaguide-sub006/internal/guard"
	"github.com/seancheick/Pharmaguide-sub006/internal/params"
	"github.com/seancheick/Pharmaguide-sub006/internal/validate"
)

// Registry resolves the guard, transformer and custom validator names
// used in route files to Go functions.
type Registry struct {
	guards       map[string]guard.Guard
	transformers map[string]validate.Transformer
	validators   map[string]func(params.Map) validate.Result
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		guards:       make(map[string]guard.Guard),
		transformers: make(map[string]validate.Transformer),
		validators:   make(map[string]func(params.Map) validate.Result),
	}
}

// DefaultRegistry returns a registry holding the built-ins:
//
//	guards:       allow, deny
//	transformers: trim, lowercase
//	validators:   uuid_id
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.RegisterGuard("allow", guard.Allow)
	r.RegisterGuard("deny", guard.Deny)
	r.RegisterTransformer("trim", mapStrings(strings.TrimSpace))
	r.RegisterTransformer("lowercase", mapStrings(strings.ToLower))
	r.RegisterValidator("uuid_id", uuidID)
	return r
}

func (r *Registry) RegisterGuard(name string, g guard.Guard) {
	r.guards[name] = g
}

func (r *Registry) RegisterTransformer(name string, t validate.Transformer) {
	r.transformers[name] = t
}

func (r *Registry) RegisterValidator(name string, fn func(params.Map) validate.Result) {
	r.validators[name] = fn
}

// Guard looks up a guard by name.
func (r *Registry) Guard(name string) (guard.Guard, bool) {
	g, ok := r.guards[name]
	return g, ok
}

// GuardNames returns the registered guard names, sorted.
func (r *Registry) GuardNames() []string {
	names := make([]string, 0, len(r.guards))
	for name := range r.guards {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func mapStrings(fn func(string) string) validate.Transformer {
	return func(p params.Map) params.Map {
		out := params.Map{}
		for k, v := range p {
			if s, ok := v.(params.String); ok {
				out[k] = params.String(fn(string(s)))
			}
		}
		return out
	}
}

// uuidID requires the "id" parameter, when present, to be a UUID.
func uuidID(p params.Map) validate.Result {
	v, ok := p["id"]
	if !ok {
		return validate.Pass()
	}
	if _, err := uuid.Parse(v.String()); err != nil {
		return validate.Failf("parameter %q must be a UUID", "id")
	}
	return validate.Pass()
}
