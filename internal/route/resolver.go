package route

import (
	"net/url"
	"strings"

	"github.com/seancheick/Pharmaguide-sub006/internal/params"
)

// ParsedLink is the result of resolving one URL. It is never mutated
// after construction.
type ParsedLink struct {
	// Route is the matched route name, empty when nothing matched.
	Route        string     `json:"route"`
	Screen       string     `json:"screen,omitempty"`
	Params       params.Map `json:"params"`
	Valid        bool       `json:"isValid"`
	Error        string     `json:"error,omitempty"`
	Code         ErrorCode  `json:"code,omitempty"`
	RequiresAuth bool       `json:"requiresAuth"`
}

// Resolver turns URLs into ParsedLinks and route names back into URLs.
type Resolver struct {
	table     *Table
	prefixes  Prefixes
	scheme    string
	webPrefix string
}

// Options configures a Resolver.
type Options struct {
	// Scheme is the canonical app prefix, e.g. "pharmaguide://".
	Scheme string

	// Alternates are extra prefixes that resolve to the same table,
	// e.g. "https://pharmaguide.app".
	Alternates []string

	// WebPrefix is the prefix used by GenerateWeb. Defaults to the first
	// alternate.
	WebPrefix string
}

// NewResolver creates a Resolver over a table.
func NewResolver(table *Table, opts Options) *Resolver {
	web := opts.WebPrefix
	if web == "" && len(opts.Alternates) > 0 {
		web = opts.Alternates[0]
	}
	return &Resolver{
		table:     table,
		prefixes:  NewPrefixes(opts.Scheme, opts.Alternates...),
		scheme:    opts.Scheme,
		webPrefix: web,
	}
}

// Table returns the underlying route table.
func (r *Resolver) Table() *Table {
	return r.table
}

// Scheme returns the canonical app prefix.
func (r *Resolver) Scheme() string {
	return r.scheme
}

// Recognizes reports whether raw carries one of the known prefixes.
func (r *Resolver) Recognizes(raw string) bool {
	_, ok := r.prefixes.Strip(raw)
	return ok
}

// Resolve parses a URL and runs the parameter pipeline. Failures are
// reported inside the ParsedLink and never returned as errors.
func (r *Resolver) Resolve(raw string) ParsedLink {
	rest, ok := r.prefixes.Strip(raw)
	if !ok {
		return invalid("", ErrCodeUnsupportedPrefix, "unsupported link prefix")
	}

	path, query := SplitURL(rest)
	def, pathParams, ok := r.table.Match(path)
	if !ok {
		return invalid("", ErrCodeNoMatch, "no matching route found")
	}

	// Path parameters win over query parameters of the same name.
	merged := params.ParseQuery(query).Merge(pathParams)

	res := def.Validator.Validate(merged)
	if !res.Valid {
		link := invalid(def.Name, ErrCodeInvalidParams, res.Error)
		link.Screen = def.Screen
		link.RequiresAuth = def.RequiresAuth
		return link
	}
	merged = res.Apply(merged)

	if def.Transform != nil {
		merged = merged.Merge(def.Transform(merged))
	}

	return ParsedLink{
		Route:        def.Name,
		Screen:       def.Screen,
		Params:       merged,
		Valid:        true,
		RequiresAuth: def.RequiresAuth,
	}
}

func invalid(routeName string, code ErrorCode, msg string) ParsedLink {
	return ParsedLink{
		Route:  routeName,
		Params: params.Map{},
		Error:  msg,
		Code:   code,
	}
}

// GenerationParams types raw input for Generate the same way Resolve
// types the link it produces: path parameters stay strings, every other
// value is coerced like a query value. Unknown routes coerce everything.
func (r *Resolver) GenerationParams(name string, raw map[string]string) params.Map {
	path := map[string]bool{}
	if _, ok := r.table.Lookup(name); ok {
		for _, tok := range r.table.tokens(name) {
			if tok.Kind == TokenParam {
				path[tok.Value] = true
			}
		}
	}
	out := make(params.Map, len(raw))
	for k, v := range raw {
		if path[k] {
			out[k] = params.String(v)
			continue
		}
		out[k] = params.Coerce(v)
	}
	return out
}

// Generate builds the canonical scheme link for a route. Unknown routes,
// parameters rejected by the route validator and missing path values are
// errors: they indicate a programming defect, not user input.
func (r *Resolver) Generate(name string, p params.Map) (string, error) {
	return r.generate(r.scheme, name, p)
}

// GenerateWeb builds the HTTPS form of a link for sharing contexts.
func (r *Resolver) GenerateWeb(name string, p params.Map) (string, error) {
	if r.webPrefix == "" {
		return "", newError(ErrCodeRouteNotFound, name, "no web prefix configured")
	}
	return r.generate(r.webPrefix, name, p)
}

func (r *Resolver) generate(prefix, name string, p params.Map) (string, error) {
	def, ok := r.table.Lookup(name)
	if !ok {
		return "", newError(ErrCodeRouteNotFound, name, "route not found")
	}
	if p == nil {
		p = params.Map{}
	}

	if res := def.Validator.Validate(p); !res.Valid {
		return "", newError(ErrCodeInvalidParams, name, "%s", res.Error)
	}

	rest := p.Clone()
	segments := make([]string, 0, len(r.table.tokens(name)))
	for _, tok := range r.table.tokens(name) {
		if tok.Kind == TokenLiteral {
			segments = append(segments, tok.Value)
			continue
		}
		val, ok := rest[tok.Value]
		if !ok || val.String() == "" {
			return "", newError(ErrCodeMissingPathParam, name, "no value for path parameter %q", tok.Value)
		}
		segments = append(segments, url.PathEscape(val.String()))
		delete(rest, tok.Value)
	}

	link := joinPrefix(prefix, strings.Join(segments, "/"))
	if q := params.EncodeQuery(rest); q != "" {
		link += "?" + q
	}
	return link, nil
}

// joinPrefix attaches a slash-free path to a prefix: "app://" + "a/b"
// gives "app://a/b", "https://host" + "a/b" gives "https://host/a/b".
func joinPrefix(prefix, path string) string {
	if strings.HasSuffix(prefix, "//") {
		return prefix + path
	}
	return strings.TrimSuffix(prefix, "/") + "/" + path
}
