package compiler

import (
	"fmt"
	"strings"

	"github.com/seancheick/Pharmaguide-sub006/internal/params"
	"github.com/seancheick/Pharmaguide-sub006/internal/route"
)

// Validation error codes (E100-E199)
const (
	ErrScreenEmpty        = "E100" // screen is required
	ErrPathNotRooted      = "E101" // path must start with "/"
	ErrPathParamType      = "E102" // path parameter declared with a non-string type
	ErrDuplicateGuard     = "E103" // guard listed twice on one route
	ErrAuthRouteProtected = "E104" // auth route itself requires auth
	ErrFallbackGated      = "E105" // fallback route requires auth or has guards
	ErrUnknownRoute       = "E106" // configured route is not registered
)

// ValidationError represents a route table validation error.
type ValidationError struct {
	Route   string `json:"route,omitempty"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Route != "" {
		return fmt.Sprintf("[%s] route %s: %s: %s", e.Code, e.Route, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Roles names the routes with a special job in navigation.
type Roles struct {
	AuthRoute     string
	FallbackRoute string
}

// Validate checks a compiled table against rules the compiler cannot
// enforce per route. Returns all errors found (does not fail-fast).
func Validate(table *route.Table, roles Roles) []ValidationError {
	var errs []ValidationError

	for _, def := range table.Definitions() {
		errs = append(errs, validateDefinition(def)...)
	}

	if roles.AuthRoute != "" {
		def, ok := table.Lookup(roles.AuthRoute)
		switch {
		case !ok:
			errs = append(errs, ValidationError{
				Field:   "auth_route",
				Message: fmt.Sprintf("route %q is not registered", roles.AuthRoute),
				Code:    ErrUnknownRoute,
			})
		case def.RequiresAuth:
			errs = append(errs, ValidationError{
				Route:   def.Name,
				Field:   "requires_auth",
				Message: "the auth route cannot itself require authentication",
				Code:    ErrAuthRouteProtected,
			})
		}
	}

	if roles.FallbackRoute != "" {
		def, ok := table.Lookup(roles.FallbackRoute)
		switch {
		case !ok:
			errs = append(errs, ValidationError{
				Field:   "fallback_route",
				Message: fmt.Sprintf("route %q is not registered", roles.FallbackRoute),
				Code:    ErrUnknownRoute,
			})
		case def.RequiresAuth || len(def.Guards) > 0:
			errs = append(errs, ValidationError{
				Route:   def.Name,
				Field:   "guards",
				Message: "the fallback route must be reachable without auth or guards",
				Code:    ErrFallbackGated,
			})
		}
	}

	return errs
}

func validateDefinition(def route.Definition) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(def.Screen) == "" {
		errs = append(errs, ValidationError{
			Route:   def.Name,
			Field:   "screen",
			Message: "screen is required and must be non-empty",
			Code:    ErrScreenEmpty,
		})
	}

	if !strings.HasPrefix(def.Path, "/") {
		errs = append(errs, ValidationError{
			Route:   def.Name,
			Field:   "path",
			Message: fmt.Sprintf("path %q must start with \"/\"", def.Path),
			Code:    ErrPathNotRooted,
		})
	}

	errs = append(errs, pathParamTypeErrors(def)...)

	seen := make(map[string]bool)
	for _, g := range def.Guards {
		if seen[g.Name] {
			errs = append(errs, ValidationError{
				Route:   def.Name,
				Field:   "guards",
				Message: fmt.Sprintf("guard %q listed more than once", g.Name),
				Code:    ErrDuplicateGuard,
			})
		}
		seen[g.Name] = true
	}

	return errs
}

// pathParamTypeErrors reports path parameters declared with a type other
// than string. Path values are never coerced, so only "string" can pass.
func pathParamTypeErrors(def route.Definition) []ValidationError {
	var errs []ValidationError
	declared := def.Validator.DeclaredTypes()
	for _, tok := range route.Tokenize(def.Path) {
		if tok.Kind != route.TokenParam {
			continue
		}
		if kind, ok := declared[tok.Value]; ok && kind != params.KindString {
			errs = append(errs, ValidationError{
				Route:   def.Name,
				Field:   "validate.types." + tok.Value,
				Message: fmt.Sprintf("path parameter %q is always a string, declared %s", tok.Value, kind),
				Code:    ErrPathParamType,
			})
		}
	}
	return errs
}
