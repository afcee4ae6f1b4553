// Package validate implements the parameter pipeline validators.
//
// A Validator is a tagged union of kinds (required, types, patterns,
// ranges, sanitize, custom, chain) rather than an opaque closure, so a
// route table can be printed and inspected. Chain AND-combines validators,
// short-circuits on the first failure and feeds each validator the
// sanitized output of the previous ones.
package validate

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/seancheick/Pharmaguide-sub006/internal/params"
)

// Kind identifies the validator variant.
type Kind string

const (
	KindRequired Kind = "required"
	KindTypes    Kind = "types"
	KindPatterns Kind = "patterns"
	KindRanges   Kind = "ranges"
	KindSanitize Kind = "sanitize"
	KindCustom   Kind = "custom"
	KindChain    Kind = "chain"
)

// Result is the outcome of a validator.
//
// On success Sanitized holds replacement values for some keys (a partial
// overwrite, not a full replacement) and Dropped lists keys to delete.
type Result struct {
	Valid     bool
	Error     string
	Sanitized params.Map
	Dropped   []string
}

// Pass returns a successful result with no changes.
func Pass() Result {
	return Result{Valid: true}
}

// Failf returns a failed result with a formatted reason.
func Failf(format string, args ...any) Result {
	return Result{Error: fmt.Sprintf(format, args...)}
}

// Apply returns p with the result's sanitized values written over it and
// its dropped keys removed. p is not modified.
func (r Result) Apply(p params.Map) params.Map {
	return p.Merge(r.Sanitized).Without(r.Dropped...)
}

// Range is an inclusive numeric bound.
type Range struct {
	Min float64
	Max float64
}

// Validator is one node of a validation pipeline. The zero value passes
// everything.
type Validator struct {
	kind     Kind
	name     string
	keys     []string
	types    map[string]params.Kind
	patterns map[string]*regexp.Regexp
	ranges   map[string]Range
	custom   func(params.Map) Result
	chain    []Validator
}

// Required fails if any listed key is absent or holds an empty string.
func Required(keys ...string) Validator {
	return Validator{kind: KindRequired, keys: keys}
}

// Types fails if a present key's runtime kind differs from the declared one.
func Types(types map[string]params.Kind) Validator {
	return Validator{kind: KindTypes, types: types}
}

// Patterns fails if a present key's textual value does not match its regexp.
func Patterns(patterns map[string]*regexp.Regexp) Validator {
	return Validator{kind: KindPatterns, patterns: patterns}
}

// Ranges fails if a present key is not a number inside its inclusive range.
func Ranges(ranges map[string]Range) Validator {
	return Validator{kind: KindRanges, ranges: ranges}
}

// Sanitize cleans every string value and drops prototype-pollution keys.
// It never fails.
func Sanitize() Validator {
	return Validator{kind: KindSanitize}
}

// Custom wraps an application validator under a name used by Describe.
func Custom(name string, fn func(params.Map) Result) Validator {
	return Validator{kind: KindCustom, name: name, custom: fn}
}

// Chain AND-combines validators in order.
func Chain(validators ...Validator) Validator {
	return Validator{kind: KindChain, chain: validators}
}

// Kind reports the validator variant.
func (v Validator) Kind() Kind {
	return v.kind
}

// IsZero reports whether v is the zero Validator.
func (v Validator) IsZero() bool {
	return v.kind == ""
}

// Validate runs the validator against p. p is never modified.
func (v Validator) Validate(p params.Map) Result {
	switch v.kind {
	case "":
		return Pass()
	case KindRequired:
		return v.validateRequired(p)
	case KindTypes:
		return v.validateTypes(p)
	case KindPatterns:
		return v.validatePatterns(p)
	case KindRanges:
		return v.validateRanges(p)
	case KindSanitize:
		return sanitizeParams(p)
	case KindCustom:
		if v.custom == nil {
			return Failf("custom validator %q has no function", v.name)
		}
		return v.custom(p)
	case KindChain:
		return v.validateChain(p)
	default:
		return Failf("unknown validator kind %q", v.kind)
	}
}

func (v Validator) validateRequired(p params.Map) Result {
	var missing []string
	for _, key := range v.keys {
		val, ok := p[key]
		if !ok {
			missing = append(missing, key)
			continue
		}
		if s, isString := val.(params.String); isString && s == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return Failf("missing required parameters: %s", strings.Join(missing, ", "))
	}
	return Pass()
}

func (v Validator) validateTypes(p params.Map) Result {
	for _, key := range sortedKeys(v.types) {
		val, ok := p[key]
		if !ok {
			continue
		}
		if want := v.types[key]; val.Kind() != want {
			return Failf("parameter %q must be a %s, got %s", key, want, val.Kind())
		}
	}
	return Pass()
}

func (v Validator) validatePatterns(p params.Map) Result {
	for _, key := range sortedKeys(v.patterns) {
		val, ok := p[key]
		if !ok {
			continue
		}
		if re := v.patterns[key]; !re.MatchString(val.String()) {
			return Failf("parameter %q does not match pattern %s", key, re.String())
		}
	}
	return Pass()
}

func (v Validator) validateRanges(p params.Map) Result {
	for _, key := range sortedKeys(v.ranges) {
		val, ok := p[key]
		if !ok {
			continue
		}
		n, isNumber := numericValue(val)
		if !isNumber {
			return Failf("parameter %q must be a number", key)
		}
		if r := v.ranges[key]; n < r.Min || n > r.Max {
			return Failf("parameter %q must be between %s and %s",
				key, params.Number(r.Min), params.Number(r.Max))
		}
	}
	return Pass()
}

func (v Validator) validateChain(p params.Map) Result {
	current := p
	acc := Result{Valid: true, Sanitized: params.Map{}}
	for _, sub := range v.chain {
		r := sub.Validate(current)
		if !r.Valid {
			return r
		}
		current = r.Apply(current)
		for k, val := range r.Sanitized {
			acc.Sanitized[k] = val
		}
		for _, k := range r.Dropped {
			delete(acc.Sanitized, k)
			acc.Dropped = append(acc.Dropped, k)
		}
	}
	return acc
}

// Describe renders the validator for inspection, e.g.
// "chain(required(id), patterns(id=^[0-9]+$))".
func (v Validator) Describe() string {
	switch v.kind {
	case "":
		return "none"
	case KindRequired:
		return fmt.Sprintf("required(%s)", strings.Join(v.keys, ","))
	case KindTypes:
		parts := make([]string, 0, len(v.types))
		for _, k := range sortedKeys(v.types) {
			parts = append(parts, k+":"+string(v.types[k]))
		}
		return fmt.Sprintf("types(%s)", strings.Join(parts, ","))
	case KindPatterns:
		parts := make([]string, 0, len(v.patterns))
		for _, k := range sortedKeys(v.patterns) {
			parts = append(parts, k+"="+v.patterns[k].String())
		}
		return fmt.Sprintf("patterns(%s)", strings.Join(parts, ","))
	case KindRanges:
		parts := make([]string, 0, len(v.ranges))
		for _, k := range sortedKeys(v.ranges) {
			r := v.ranges[k]
			parts = append(parts, fmt.Sprintf("%s=[%s,%s]", k, params.Number(r.Min), params.Number(r.Max)))
		}
		return fmt.Sprintf("ranges(%s)", strings.Join(parts, ","))
	case KindSanitize:
		return "sanitize"
	case KindCustom:
		return fmt.Sprintf("custom(%s)", v.name)
	case KindChain:
		parts := make([]string, 0, len(v.chain))
		for _, sub := range v.chain {
			parts = append(parts, sub.Describe())
		}
		return fmt.Sprintf("chain(%s)", strings.Join(parts, ", "))
	default:
		return string(v.kind)
	}
}

// Transformer derives extra or replacement parameters after validation.
// Its output is merged over the current map.
type Transformer func(params.Map) params.Map

func numericValue(v params.Value) (float64, bool) {
	switch val := v.(type) {
	case params.Number:
		return float64(val), true
	case params.String:
		f, err := strconv.ParseFloat(string(val), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DeclaredTypes returns the expected kinds declared by every types
// validator in v, including those nested in chains.
func (v Validator) DeclaredTypes() map[string]params.Kind {
	out := map[string]params.Kind{}
	switch v.kind {
	case KindTypes:
		for k, kind := range v.types {
			out[k] = kind
		}
	case KindChain:
		for _, sub := range v.chain {
			for k, kind := range sub.DeclaredTypes() {
				out[k] = kind
			}
		}
	}
	return out
}
