package linkserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seancheick/Pharmaguide-sub006/internal/route"
	"github.com/seancheick/Pharmaguide-sub006/internal/validate"
)

func testServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	table := route.NewTable().MustRegister(
		route.Definition{Name: "home", Path: "/", Screen: "Home"},
		route.Definition{
			Name:      "product",
			Path:      "/product/:id",
			Screen:    "ProductDetail",
			Validator: validate.Required("id"),
		},
	)
	table.Freeze()
	resolver := route.NewResolver(table, route.Options{
		Scheme:     "app://",
		Alternates: []string{"https://pharmaguide.app"},
	})
	return New(resolver, opts...)
}

func get(t *testing.T, s http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestResolveEndpoint(t *testing.T) {
	s := testServer(t)

	rec := get(t, s, "/resolve?url="+url.QueryEscape("app://product/123?ref=email"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "product", body["route"])
	assert.Equal(t, "ProductDetail", body["screen"])
	assert.Equal(t, true, body["isValid"])
	assert.Equal(t, map[string]any{"id": "123", "ref": "email"}, body["params"])
}

func TestResolveEndpoint_Invalid(t *testing.T) {
	s := testServer(t)

	rec := get(t, s, "/resolve?url="+url.QueryEscape("app://nowhere"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"NO_MATCH"`)

	rec = get(t, s, "/resolve")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing url")
}

func TestGenerateEndpoint(t *testing.T) {
	s := testServer(t)

	rec := get(t, s, "/links/product?id=abc&ref=share")
	require.Equal(t, http.StatusOK, rec.Code)

	var body generated
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, generated{
		Route: "product",
		URL:   "app://product/abc?ref=share",
		Web:   "https://pharmaguide.app/product/abc?ref=share",
	}, body)
}

func TestGenerateEndpoint_LeadingZeroID(t *testing.T) {
	s := testServer(t)

	rec := get(t, s, "/links/product?id=012345678905&page=2")
	require.Equal(t, http.StatusOK, rec.Code)

	var body generated
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "app://product/012345678905?page=2", body.URL)
}

func TestGenerateEndpoint_Errors(t *testing.T) {
	s := testServer(t)

	rec := get(t, s, "/links/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(t, s, "/links/product")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing required parameters: id")
}

func TestWebLinkRedirect(t *testing.T) {
	s := testServer(t)

	rec := get(t, s, "/product/123?ref=email")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "app://product/123?ref=email", rec.Header().Get("Location"))

	rec = get(t, s, "/unknown/path")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"isValid":false`)
}

func TestHealthz(t *testing.T) {
	rec := get(t, testServer(t), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "linkserver_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	rec := get(t, testServer(t, WithGatherer(reg)), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "linkserver_test_total 1")

	rec = get(t, testServer(t), "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code, "no gatherer, no metrics route")
}
