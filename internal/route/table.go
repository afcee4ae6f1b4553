package route

import (
	"github.com/seancheick/Pharmaguide-sub006/internal/guard"
	"github.com/seancheick/Pharmaguide-sub006/internal/params"
	"github.com/seancheick/Pharmaguide-sub006/internal/validate"
)

// Definition declares one route. Immutable after registration.
type Definition struct {
	// Name is the unique key of the route.
	Name string

	// Path is the pattern, e.g. "/product/:id".
	Path string

	// Screen is the identifier handed to the navigator.
	Screen string

	RequiresAuth bool

	// Validator runs on the merged path+query parameters.
	// The zero Validator passes everything.
	Validator validate.Validator

	// Transform runs after validation. Optional.
	Transform validate.Transformer

	// Guards must all pass before navigation. Optional.
	Guards []guard.Named
}

type entry struct {
	def    Definition
	tokens []Token
}

// Table is the ordered route registry. Registration order decides which
// route wins when several patterns match the same path.
//
// Register must not be called concurrently with anything else. After
// Freeze the table is read-only and safe for concurrent use.
type Table struct {
	entries []entry
	byName  map[string]int
	frozen  bool
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{byName: make(map[string]int)}
}

// Register appends a route. Names must be unique and parameter names
// within a pattern must be non-empty and unique.
func (t *Table) Register(def Definition) error {
	if t.frozen {
		return newError(ErrCodeTableFrozen, def.Name, "table is frozen")
	}
	if def.Name == "" {
		return newError(ErrCodeInvalidPattern, "", "route name is required")
	}
	if def.Path == "" {
		return newError(ErrCodeInvalidPattern, def.Name, "path pattern is required")
	}
	if _, dup := t.byName[def.Name]; dup {
		return newError(ErrCodeDuplicateRoute, def.Name, "route already registered")
	}

	tokens := Tokenize(def.Path)
	seen := make(map[string]bool)
	for _, tok := range tokens {
		if tok.Kind != TokenParam {
			continue
		}
		if tok.Value == "" {
			return newError(ErrCodeInvalidPattern, def.Name, "empty parameter name in %q", def.Path)
		}
		if seen[tok.Value] {
			return newError(ErrCodeInvalidPattern, def.Name, "parameter %q repeated in %q", tok.Value, def.Path)
		}
		seen[tok.Value] = true
	}

	t.byName[def.Name] = len(t.entries)
	t.entries = append(t.entries, entry{def: def, tokens: tokens})
	return nil
}

// MustRegister registers every definition and panics on the first error.
// Intended for static tables built at program start.
func (t *Table) MustRegister(defs ...Definition) *Table {
	for _, def := range defs {
		if err := t.Register(def); err != nil {
			panic(err)
		}
	}
	return t
}

// Freeze makes the table read-only.
func (t *Table) Freeze() {
	t.frozen = true
}

// Frozen reports whether Freeze was called.
func (t *Table) Frozen() bool {
	return t.frozen
}

// Lookup returns the route registered under name.
func (t *Table) Lookup(name string) (Definition, bool) {
	i, ok := t.byName[name]
	if !ok {
		return Definition{}, false
	}
	return t.entries[i].def, true
}

// Names returns route names in registration order.
func (t *Table) Names() []string {
	names := make([]string, len(t.entries))
	for i, e := range t.entries {
		names[i] = e.def.Name
	}
	return names
}

// Definitions returns the routes in registration order.
func (t *Table) Definitions() []Definition {
	defs := make([]Definition, len(t.entries))
	for i, e := range t.entries {
		defs[i] = e.def
	}
	return defs
}

// Len returns the number of routes.
func (t *Table) Len() int {
	return len(t.entries)
}

// Match returns the first registered route whose pattern matches path,
// with its bound path parameters.
func (t *Table) Match(path string) (Definition, params.Map, bool) {
	segments := Segments(path)
	for _, e := range t.entries {
		if bound, ok := Match(e.tokens, segments); ok {
			return e.def, bound, true
		}
	}
	return Definition{}, nil, false
}

func (t *Table) tokens(name string) []Token {
	return t.entries[t.byName[name]].tokens
}
