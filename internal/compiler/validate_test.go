package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seancheick/Pharmaguide-sub006/internal/guard"
	"github.com/seancheick/Pharmaguide-sub006/internal/params"
	"github.com/seancheick/Pharmaguide-sub006/internal/route"
	"github.com/seancheick/Pharmaguide-sub006/internal/validate"
)

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	table := route.NewTable().MustRegister(
		route.Definition{Name: "blank", Path: "/blank", Screen: " "},
		route.Definition{Name: "relative", Path: "relative", Screen: "R"},
		route.Definition{
			Name: "typed", Path: "/typed/:id", Screen: "T",
			Validator: validate.Chain(
				validate.Required("id"),
				validate.Types(map[string]params.Kind{"id": params.KindNumber}),
			),
		},
		route.Definition{
			Name: "guarded", Path: "/guarded", Screen: "G",
			Guards: []guard.Named{{Name: "deny", Check: guard.Deny}, {Name: "deny", Check: guard.Deny}},
		},
	)

	errs := Validate(table, Roles{})
	assert.Equal(t, []string{ErrScreenEmpty, ErrPathNotRooted, ErrPathParamType, ErrDuplicateGuard}, codes(errs))
	assert.Contains(t, errs[2].Error(), `route typed: validate.types.id`)
}

func TestValidate_Roles(t *testing.T) {
	table := route.NewTable().MustRegister(
		route.Definition{Name: "login", Path: "/login", Screen: "Login", RequiresAuth: true},
		route.Definition{Name: "home", Path: "/", Screen: "Home", Guards: []guard.Named{{Name: "allow", Check: guard.Allow}}},
	)

	errs := Validate(table, Roles{AuthRoute: "login", FallbackRoute: "home"})
	assert.Equal(t, []string{ErrAuthRouteProtected, ErrFallbackGated}, codes(errs))

	errs = Validate(table, Roles{AuthRoute: "signin", FallbackRoute: "start"})
	require.Len(t, errs, 2)
	assert.Equal(t, ErrUnknownRoute, errs[0].Code)
	assert.Equal(t, "auth_route", errs[0].Field)
	assert.Equal(t, "fallback_route", errs[1].Field)
}

func TestValidate_CleanTable(t *testing.T) {
	table := route.NewTable().MustRegister(
		route.Definition{Name: "home", Path: "/", Screen: "Home"},
		route.Definition{Name: "product", Path: "/product/:id", Screen: "P",
			Validator: validate.Types(map[string]params.Kind{"id": params.KindString})},
	)
	assert.Empty(t, Validate(table, Roles{FallbackRoute: "home"}))
}
