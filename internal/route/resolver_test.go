package route

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seancheick/Pharmaguide-sub006/internal/params"
	"github.com/seancheick/Pharmaguide-sub006/internal/validate"
)

func testResolver(t *testing.T) *Resolver {
	t.Helper()
	table := NewTable().MustRegister(
		Definition{Name: "home", Path: "/", Screen: "Home"},
		Definition{
			Name:      "product",
			Path:      "/product/:id",
			Screen:    "ProductDetail",
			Validator: validate.Required("id"),
		},
		Definition{
			Name:         "interaction",
			Path:         "/interaction/:a/:b",
			Screen:       "InteractionDetail",
			RequiresAuth: true,
			Validator: validate.Chain(
				validate.Required("a", "b"),
				validate.Patterns(map[string]*regexp.Regexp{
					"a": regexp.MustCompile(`^[a-z0-9-]+$`),
					"b": regexp.MustCompile(`^[a-z0-9-]+$`),
				}),
			),
		},
		Definition{
			Name:      "search",
			Path:      "/search",
			Screen:    "Search",
			Validator: validate.Sanitize(),
			Transform: func(p params.Map) params.Map {
				if q, ok := p["q"]; ok {
					return params.Map{"query": q}
				}
				return nil
			},
		},
		Definition{
			Name:   "stack",
			Path:   "/stack",
			Screen: "Stack",
			Validator: validate.Ranges(map[string]validate.Range{
				"page": {Min: 1, Max: 100},
			}),
		},
	)
	table.Freeze()
	return NewResolver(table, Options{
		Scheme:     "app://",
		Alternates: []string{"https://pharmaguide.app", "https://www.pharmaguide.app"},
	})
}

func TestResolve_ProductWithQuery(t *testing.T) {
	r := testResolver(t)

	link := r.Resolve("app://product/123?ref=email")

	assert.True(t, link.Valid)
	assert.Equal(t, "product", link.Route)
	assert.Equal(t, "ProductDetail", link.Screen)
	assert.Equal(t, params.Map{
		"id":  params.String("123"),
		"ref": params.String("email"),
	}, link.Params)
	assert.Empty(t, link.Error)
	assert.False(t, link.RequiresAuth)
}

func TestResolve_AlternatePrefixes(t *testing.T) {
	r := testResolver(t)

	for _, raw := range []string{
		"https://pharmaguide.app/product/9",
		"https://www.pharmaguide.app/product/9",
		"HTTPS://PharmaGuide.app/product/9",
		"https://pharmaguide.app/product/9/",
		"https://pharmaguide.app/product/9#reviews",
	} {
		link := r.Resolve(raw)
		assert.True(t, link.Valid, raw)
		assert.Equal(t, "product", link.Route, raw)
		assert.Equal(t, params.String("9"), link.Params["id"], raw)
	}
}

func TestResolve_PrefixNeedsBoundary(t *testing.T) {
	r := testResolver(t)

	link := r.Resolve("https://pharmaguide.application/product/9")
	assert.False(t, link.Valid)
	assert.Equal(t, ErrCodeUnsupportedPrefix, link.Code)
	assert.False(t, r.Recognizes("https://pharmaguide.application/product/9"))
	assert.True(t, r.Recognizes("https://pharmaguide.app"))
}

func TestResolve_NoMatch(t *testing.T) {
	r := testResolver(t)

	link := r.Resolve("app://nowhere/at/all")
	assert.False(t, link.Valid)
	assert.Equal(t, "no matching route found", link.Error)
	assert.Equal(t, ErrCodeNoMatch, link.Code)
	assert.Empty(t, link.Route)
	assert.Empty(t, link.Params)
}

func TestResolve_QueryCoercion(t *testing.T) {
	r := testResolver(t)

	link := r.Resolve("app://stack?page=3&compact=true&tag=a%20b")
	require.True(t, link.Valid, link.Error)
	assert.Equal(t, params.Number(3), link.Params["page"])
	assert.Equal(t, params.Bool(true), link.Params["compact"])
	assert.Equal(t, params.String("a b"), link.Params["tag"])
}

func TestResolve_PathWinsOverQuery(t *testing.T) {
	r := testResolver(t)

	link := r.Resolve("app://product/123?id=999")
	require.True(t, link.Valid)
	assert.Equal(t, params.String("123"), link.Params["id"])
}

func TestResolve_ValidatorRejects(t *testing.T) {
	r := testResolver(t)

	link := r.Resolve("app://stack?page=500")
	assert.False(t, link.Valid)
	assert.Equal(t, "stack", link.Route)
	assert.Equal(t, ErrCodeInvalidParams, link.Code)
	assert.Contains(t, link.Error, `"page"`)
	assert.Empty(t, link.Params)

	link = r.Resolve("app://interaction/ok/NOT_OK")
	assert.False(t, link.Valid)
	assert.True(t, link.RequiresAuth)
	assert.Contains(t, link.Error, `"b"`)
}

func TestResolve_SanitizeAndTransform(t *testing.T) {
	r := testResolver(t)

	link := r.Resolve("app://search?q=%3Cscript%3Ealert(1)%3C%2Fscript%3Easpirin&__proto__=x")
	require.True(t, link.Valid, link.Error)
	assert.Equal(t, params.String("aspirin"), link.Params["q"])
	assert.Equal(t, params.String("aspirin"), link.Params["query"])
	assert.NotContains(t, link.Params, "__proto__")
}

func TestGenerate_Canonical(t *testing.T) {
	r := testResolver(t)

	link, err := r.Generate("product", params.Map{
		"id":  params.String("123"),
		"ref": params.String("email"),
	})
	require.NoError(t, err)
	assert.Equal(t, "app://product/123?ref=email", link)

	link, err = r.Generate("home", nil)
	require.NoError(t, err)
	assert.Equal(t, "app://", link)
}

func TestGenerate_Web(t *testing.T) {
	r := testResolver(t)

	link, err := r.GenerateWeb("interaction", params.Map{
		"a": params.String("warfarin"),
		"b": params.String("aspirin"),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://pharmaguide.app/interaction/warfarin/aspirin", link)
}

func TestGenerate_Errors(t *testing.T) {
	r := testResolver(t)

	_, err := r.Generate("missing", nil)
	assert.Equal(t, ErrCodeRouteNotFound, CodeOf(err))
	assert.True(t, IsGenerationError(err))

	_, err = r.Generate("product", params.Map{})
	assert.Equal(t, ErrCodeInvalidParams, CodeOf(err))
	assert.Contains(t, err.Error(), "missing required parameters: id")

	_, err = r.Generate("stack", params.Map{"page": params.Number(0)})
	assert.Equal(t, ErrCodeInvalidParams, CodeOf(err))

	table := NewTable().MustRegister(Definition{Name: "loose", Path: "/loose/:id"})
	_, err = NewResolver(table, Options{Scheme: "app://"}).Generate("loose", params.Map{})
	assert.Equal(t, ErrCodeMissingPathParam, CodeOf(err))

	_, err = NewResolver(table, Options{Scheme: "app://"}).GenerateWeb("loose", params.Map{"id": params.String("1")})
	assert.Error(t, err)
}

func TestGenerateResolve_RoundTrip(t *testing.T) {
	r := testResolver(t)

	tests := []struct {
		route string
		in    params.Map
	}{
		{"product", params.Map{"id": params.String("123")}},
		{"product", params.Map{"id": params.String("a b/c"), "ref": params.String("email")}},
		{"stack", params.Map{"page": params.Number(7), "compact": params.Bool(false)}},
		{"stack", params.Map{"note": params.String("x=y&z")}},
		{"interaction", params.Map{"a": params.String("st-johns-wort"), "b": params.String("warfarin")}},
	}
	for _, tt := range tests {
		t.Run(tt.route, func(t *testing.T) {
			for _, gen := range []func(string, params.Map) (string, error){r.Generate, r.GenerateWeb} {
				link, err := gen(tt.route, tt.in)
				require.NoError(t, err)

				parsed := r.Resolve(link)
				require.True(t, parsed.Valid, "%s: %s", link, parsed.Error)
				assert.Equal(t, tt.route, parsed.Route)
				assert.True(t, params.Equal(tt.in, parsed.Params), "%s: got %v", link, parsed.Params)
			}
		})
	}
}

func TestGenerationParams_PathValuesStayStrings(t *testing.T) {
	r := testResolver(t)

	p := r.GenerationParams("product", map[string]string{"id": "012345678905", "page": "2", "compact": "true"})
	assert.Equal(t, params.String("012345678905"), p["id"])
	assert.Equal(t, params.Number(2), p["page"])
	assert.Equal(t, params.Bool(true), p["compact"])

	link, err := r.Generate("product", p)
	require.NoError(t, err)
	assert.Equal(t, "app://product/012345678905?compact=true&page=2", link)

	parsed := r.Resolve(link)
	require.True(t, parsed.Valid)
	assert.Equal(t, params.String("012345678905"), parsed.Params["id"])

	unknown := r.GenerationParams("nope", map[string]string{"id": "007"})
	assert.Equal(t, params.Number(7), unknown["id"])
}
