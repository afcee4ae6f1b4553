package compiler

import (
	"fmt"
	"os"
	"regexp"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/seancheick/Pharmaguide-sub006/internal/guard"
	"github.com/seancheick/Pharmaguide-sub006/internal/params"
	"github.com/seancheick/Pharmaguide-sub006/internal/route"
	"github.com/seancheick/Pharmaguide-sub006/internal/validate"
)

// CompileRoute parses one route struct into a Definition.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the route struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`route: product: { path: "/product/:id", screen: "ProductDetail" }`)
//	def, err := CompileRoute(v.LookupPath(cue.ParsePath("route.product")), DefaultRegistry())
func CompileRoute(v cue.Value, reg *Registry) (route.Definition, error) {
	var def route.Definition
	if err := v.Err(); err != nil {
		return def, formatCUEError(err)
	}

	// Route name from struct label (the path selector)
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		def.Name = labels[len(labels)-1].Unquoted()
	}
	fail := func(field string, at cue.Value, format string, args ...any) (route.Definition, error) {
		return route.Definition{}, &CompileError{
			Route:   def.Name,
			Field:   field,
			Message: fmt.Sprintf(format, args...),
			Pos:     at.Pos(),
		}
	}

	pathVal := v.LookupPath(cue.ParsePath("path"))
	if !pathVal.Exists() {
		return fail("path", v, "path is required")
	}
	path, err := pathVal.String()
	if err != nil {
		return def, formatCUEError(err)
	}
	def.Path = path

	screenVal := v.LookupPath(cue.ParsePath("screen"))
	if !screenVal.Exists() {
		return fail("screen", v, "screen is required")
	}
	if def.Screen, err = screenVal.String(); err != nil {
		return def, formatCUEError(err)
	}

	if authVal := v.LookupPath(cue.ParsePath("requires_auth")); authVal.Exists() {
		if def.RequiresAuth, err = authVal.Bool(); err != nil {
			return def, formatCUEError(err)
		}
	}

	if guardsVal := v.LookupPath(cue.ParsePath("guards")); guardsVal.Exists() {
		names, err := stringList(guardsVal)
		if err != nil {
			return def, err
		}
		for _, name := range names {
			g, ok := reg.Guard(name)
			if !ok {
				return fail("guards", guardsVal, "unknown guard %q", name)
			}
			def.Guards = append(def.Guards, guard.Named{Name: name, Check: g})
		}
	}

	if tVal := v.LookupPath(cue.ParsePath("transformer")); tVal.Exists() {
		name, err := tVal.String()
		if err != nil {
			return def, formatCUEError(err)
		}
		t, ok := reg.transformers[name]
		if !ok {
			return fail("transformer", tVal, "unknown transformer %q", name)
		}
		def.Transform = t
	}

	if vVal := v.LookupPath(cue.ParsePath("validate")); vVal.Exists() {
		validator, err := compileValidator(def.Name, vVal, reg)
		if err != nil {
			return def, err
		}
		def.Validator = validator
	}

	// A non-string type on a path parameter rejects every link.
	if errs := pathParamTypeErrors(def); len(errs) > 0 {
		at := v.LookupPath(cue.ParsePath("validate.types"))
		return fail(errs[0].Field, at, "%s (%s)", errs[0].Message, errs[0].Code)
	}

	return def, nil
}

// compileValidator builds the validator chain in a fixed order:
// sanitize, required, types, patterns, ranges, then custom validators in
// declaration order. Sanitize runs first so later checks see clean values.
func compileValidator(routeName string, v cue.Value, reg *Registry) (validate.Validator, error) {
	var chain []validate.Validator
	fail := func(field string, at cue.Value, format string, args ...any) (validate.Validator, error) {
		return validate.Validator{}, &CompileError{
			Route:   routeName,
			Field:   "validate." + field,
			Message: fmt.Sprintf(format, args...),
			Pos:     at.Pos(),
		}
	}

	if sVal := v.LookupPath(cue.ParsePath("sanitize")); sVal.Exists() {
		on, err := sVal.Bool()
		if err != nil {
			return validate.Validator{}, formatCUEError(err)
		}
		if on {
			chain = append(chain, validate.Sanitize())
		}
	}

	if rVal := v.LookupPath(cue.ParsePath("required")); rVal.Exists() {
		keys, err := stringList(rVal)
		if err != nil {
			return validate.Validator{}, err
		}
		chain = append(chain, validate.Required(keys...))
	}

	if tVal := v.LookupPath(cue.ParsePath("types")); tVal.Exists() {
		types := map[string]params.Kind{}
		iter, err := tVal.Fields()
		if err != nil {
			return validate.Validator{}, formatCUEError(err)
		}
		for iter.Next() {
			name, err := iter.Value().String()
			if err != nil {
				return validate.Validator{}, formatCUEError(err)
			}
			kind, err := params.ParseKind(name)
			if err != nil {
				return fail("types", iter.Value(), "%v", err)
			}
			types[iter.Label()] = kind
		}
		chain = append(chain, validate.Types(types))
	}

	if pVal := v.LookupPath(cue.ParsePath("patterns")); pVal.Exists() {
		patterns := map[string]*regexp.Regexp{}
		iter, err := pVal.Fields()
		if err != nil {
			return validate.Validator{}, formatCUEError(err)
		}
		for iter.Next() {
			src, err := iter.Value().String()
			if err != nil {
				return validate.Validator{}, formatCUEError(err)
			}
			re, err := regexp.Compile(src)
			if err != nil {
				return fail("patterns", iter.Value(), "invalid pattern for %q: %v", iter.Label(), err)
			}
			patterns[iter.Label()] = re
		}
		chain = append(chain, validate.Patterns(patterns))
	}

	if rgVal := v.LookupPath(cue.ParsePath("ranges")); rgVal.Exists() {
		ranges := map[string]validate.Range{}
		iter, err := rgVal.Fields()
		if err != nil {
			return validate.Validator{}, formatCUEError(err)
		}
		for iter.Next() {
			lo, err := iter.Value().LookupPath(cue.ParsePath("min")).Float64()
			if err != nil {
				return validate.Validator{}, formatCUEError(err)
			}
			hi, err := iter.Value().LookupPath(cue.ParsePath("max")).Float64()
			if err != nil {
				return validate.Validator{}, formatCUEError(err)
			}
			if lo > hi {
				return fail("ranges", iter.Value(), "min %v exceeds max %v for %q", lo, hi, iter.Label())
			}
			ranges[iter.Label()] = validate.Range{Min: lo, Max: hi}
		}
		chain = append(chain, validate.Ranges(ranges))
	}

	if cVal := v.LookupPath(cue.ParsePath("custom")); cVal.Exists() {
		names, err := stringList(cVal)
		if err != nil {
			return validate.Validator{}, err
		}
		for _, name := range names {
			fn, ok := reg.validators[name]
			if !ok {
				return fail("custom", cVal, "unknown validator %q", name)
			}
			chain = append(chain, validate.Custom(name, fn))
		}
	}

	switch len(chain) {
	case 0:
		return validate.Validator{}, nil
	case 1:
		return chain[0], nil
	default:
		return validate.Chain(chain...), nil
	}
}

func stringList(v cue.Value) ([]string, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// CompileRoutes registers every field of the top-level "route" struct, in
// source order, into a new frozen table.
func CompileRoutes(v cue.Value, reg *Registry) (*route.Table, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	routesVal := v.LookupPath(cue.ParsePath("route"))
	if !routesVal.Exists() {
		return nil, &CompileError{Field: "route", Message: "no routes declared", Pos: v.Pos()}
	}

	iter, err := routesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	table := route.NewTable()
	for iter.Next() {
		def, err := CompileRoute(iter.Value(), reg)
		if err != nil {
			return nil, err
		}
		if err := table.Register(def); err != nil {
			return nil, &CompileError{Route: def.Name, Field: "path", Message: err.Error(), Pos: iter.Value().Pos()}
		}
	}
	table.Freeze()
	return table, nil
}

// CompileSource compiles route declarations from CUE source text.
func CompileSource(src []byte, filename string, reg *Registry) (*route.Table, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	return CompileRoutes(v, reg)
}

// LoadFile compiles a single CUE route file.
func LoadFile(path string, reg *Registry) (*route.Table, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read routes: %w", err)
	}
	return CompileSource(src, path, reg)
}
