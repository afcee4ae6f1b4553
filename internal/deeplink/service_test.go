package deeplink

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/seancheick/Pharmaguide-sub006/internal/guard"
	"github.com/seancheick/Pharmaguide-sub006/internal/params"
	"github.com/seancheick/Pharmaguide-sub006/internal/recovery"
	"github.com/seancheick/Pharmaguide-sub006/internal/route"
	"github.com/seancheick/Pharmaguide-sub006/internal/store"
	"github.com/seancheick/Pharmaguide-sub006/internal/testutil"
	"github.com/seancheick/Pharmaguide-sub006/internal/validate"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type navCall struct {
	Screen string
	Params params.Map
}

type recordingNavigator struct {
	mu    sync.Mutex
	calls []navCall
	err   error
}

func (n *recordingNavigator) Navigate(_ context.Context, screen string, p params.Map) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.calls = append(n.calls, navCall{Screen: screen, Params: p})
	return nil
}

func (n *recordingNavigator) Calls() []navCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]navCall(nil), n.calls...)
}

type fakeLinker struct {
	can    bool
	opened []string
}

func (l *fakeLinker) CanOpenURL(context.Context, string) (bool, error) { return l.can, nil }

func (l *fakeLinker) OpenURL(_ context.Context, url string) error {
	l.opened = append(l.opened, url)
	return nil
}

func testTable() *route.Table {
	table := route.NewTable().MustRegister(
		route.Definition{Name: "home", Path: "/", Screen: "Home"},
		route.Definition{Name: "login", Path: "/login", Screen: "Login"},
		route.Definition{
			Name:      "product",
			Path:      "/product/:id",
			Screen:    "ProductDetail",
			Validator: validate.Required("id"),
		},
		route.Definition{
			Name:         "stack",
			Path:         "/stack",
			Screen:       "MyStack",
			RequiresAuth: true,
		},
		route.Definition{
			Name:   "protected",
			Path:   "/protected",
			Screen: "Protected",
			Guards: []guard.Named{{Name: "never", Check: guard.Deny}},
		},
	)
	table.Freeze()
	return table
}

type harness struct {
	svc     *Service
	nav     *recordingNavigator
	authed  bool
	reg     *prometheus.Registry
	logs    *observer.ObservedLogs
	linker  *fakeLinker
	authMu  sync.Mutex
	manager *recovery.Manager
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		nav:    &recordingNavigator{},
		reg:    prometheus.NewRegistry(),
		linker: &fakeLinker{can: true},
	}
	core, logs := observer.New(zap.DebugLevel)
	h.logs = logs
	h.manager = recovery.NewManager(store.NewMemory(),
		recovery.WithClock(testutil.NewFakeClock(time.Time{})),
		recovery.WithSessionGenerator(testutil.NewSequentialSessions("")),
	)
	t.Cleanup(h.manager.History().Wait)

	resolver := route.NewResolver(testTable(), route.Options{
		Scheme:     "app://",
		Alternates: []string{"https://pharmaguide.app"},
	})
	base := []Option{
		WithLogger(zap.New(core)),
		WithMetrics(NewMetrics(h.reg)),
		WithAuthenticator(AuthFunc(func(context.Context) bool {
			h.authMu.Lock()
			defer h.authMu.Unlock()
			return h.authed
		})),
		WithLinker(h.linker),
		WithAuthRoute("login"),
		WithRecovery(h.manager),
	}
	h.svc = New(resolver, append(base, opts...)...)
	require.NoError(t, h.svc.Validate())
	h.svc.Initialize(h.nav)
	return h
}

func (h *harness) setAuthenticated(v bool) {
	h.authMu.Lock()
	defer h.authMu.Unlock()
	h.authed = v
}

func (h *harness) count(o Outcome) float64 {
	return promtest.ToFloat64(h.svc.metrics.navigations.WithLabelValues(string(o)))
}

func TestOpen_ProductLink(t *testing.T) {
	h := newHarness(t)

	res, err := h.svc.Open(context.Background(), "app://product/123?ref=email")
	require.NoError(t, err)

	assert.Equal(t, OutcomeNavigated, res.Outcome)
	assert.Equal(t, "product", res.Link.Route)
	assert.True(t, res.Link.Valid)
	want := params.Map{"id": params.String("123"), "ref": params.String("email")}
	assert.Equal(t, []navCall{{Screen: "ProductDetail", Params: want}}, h.nav.Calls())
	assert.Equal(t, 1.0, h.count(OutcomeNavigated))
}

func TestOpen_GuardBlocks(t *testing.T) {
	h := newHarness(t)

	res, err := h.svc.Open(context.Background(), "app://protected")
	require.NoError(t, err)

	assert.Equal(t, OutcomeBlocked, res.Outcome)
	assert.Empty(t, h.nav.Calls(), "navigator never invoked")
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "never", res.Failures[0].Guard)
	assert.Equal(t, 1, h.logs.FilterMessage("navigation blocked by guard").Len())
}

func TestOpen_GuardBlocksWithFallback(t *testing.T) {
	h := newHarness(t, WithFallbackRoute("home"))

	res, err := h.svc.Open(context.Background(), "app://protected")
	require.NoError(t, err)

	assert.Equal(t, OutcomeBlocked, res.Outcome)
	assert.Equal(t, "Home", res.Screen)
	assert.Equal(t, []navCall{{Screen: "Home", Params: params.Map{}}}, h.nav.Calls())
}

func TestOpen_AuthGate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res, err := h.svc.Open(ctx, "app://stack?tab=mine")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAuthRedirect, res.Outcome)
	require.Len(t, h.nav.Calls(), 1)
	redirect := h.nav.Calls()[0]
	assert.Equal(t, "Login", redirect.Screen)
	assert.Equal(t, params.String("stack"), redirect.Params[ParamReturnTo])
	assert.Equal(t, params.String(`{"tab":"mine"}`), redirect.Params[ParamReturnParams])

	h.setAuthenticated(true)
	res, err = h.svc.ResumeAfterLogin(ctx, redirect.Params)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNavigated, res.Outcome)
	assert.Equal(t, navCall{Screen: "MyStack", Params: params.Map{"tab": params.String("mine")}}, h.nav.Calls()[1])
}

func TestOpen_AuthenticatedGoesStraightThrough(t *testing.T) {
	h := newHarness(t)
	h.setAuthenticated(true)

	res, err := h.svc.Open(context.Background(), "https://pharmaguide.app/stack")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNavigated, res.Outcome)
	assert.Equal(t, "MyStack", h.nav.Calls()[0].Screen)
}

func TestOpen_NotInitialized(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	svc := New(route.NewResolver(testTable(), route.Options{Scheme: "app://"}), WithLogger(zap.New(core)))

	res, err := svc.Open(context.Background(), "app://product/1")
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.Equal(t, OutcomeNotReady, res.Outcome)
	assert.False(t, svc.Ready())
	assert.Equal(t, 1, logs.FilterMessage("navigation attempted before initialization").Len())
}

func TestOpen_InvalidLink(t *testing.T) {
	h := newHarness(t)

	res, err := h.svc.Open(context.Background(), "app://nowhere")
	require.NoError(t, err)
	assert.Equal(t, OutcomeInvalid, res.Outcome)
	assert.Equal(t, route.ErrCodeNoMatch, res.Link.Code)
	assert.Empty(t, h.nav.Calls())

	h = newHarness(t, WithFallbackRoute("home"))
	res, err = h.svc.Open(context.Background(), "app://nowhere")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFallback, res.Outcome)
	assert.Equal(t, "Home", h.nav.Calls()[0].Screen)
}

func TestOpen_ExternalURL(t *testing.T) {
	h := newHarness(t)

	res, err := h.svc.Open(context.Background(), "https://example.com/leaflet.pdf")
	require.NoError(t, err)
	assert.Equal(t, OutcomeExternal, res.Outcome)
	assert.Equal(t, []string{"https://example.com/leaflet.pdf"}, h.linker.opened)
	assert.Empty(t, h.nav.Calls())

	h.linker.can = false
	res, err = h.svc.Open(context.Background(), "mailto:x@y.z")
	require.NoError(t, err)
	assert.Equal(t, OutcomeInvalid, res.Outcome)
}

func TestOpen_NavigatorFailure(t *testing.T) {
	h := newHarness(t)
	h.nav.err = errors.New("screen unmounted")

	res, err := h.svc.Open(context.Background(), "app://product/1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ProductDetail")
	assert.Equal(t, OutcomeNavigated, res.Outcome)
}

func TestOpen_GuardTimeout(t *testing.T) {
	table := route.NewTable().MustRegister(route.Definition{
		Name: "slow", Path: "/slow", Screen: "Slow",
		Guards: []guard.Named{{Name: "hang", Check: func(ctx context.Context, _ params.Map) (bool, error) {
			<-ctx.Done()
			return true, nil
		}}},
	})
	table.Freeze()
	nav := &recordingNavigator{}
	svc := New(route.NewResolver(table, route.Options{Scheme: "app://"}), WithGuardTimeout(20*time.Millisecond))
	svc.Initialize(nav)

	res, err := svc.Open(context.Background(), "app://slow")
	require.NoError(t, err)
	assert.Equal(t, OutcomeBlocked, res.Outcome)
	assert.Empty(t, nav.Calls())
}

func TestValidate_UnknownConfiguredRoute(t *testing.T) {
	svc := New(route.NewResolver(testTable(), route.Options{Scheme: "app://"}), WithFallbackRoute("missing"))
	assert.Error(t, svc.Validate())
}

func TestCommitAndRestore(t *testing.T) {
	h := newHarness(t, WithFallbackRoute("home"))
	ctx := context.Background()

	h.svc.Commit(ctx, recovery.SingleRoute("product", params.Map{"id": params.String("9")}))
	state := h.svc.Restore(ctx)
	require.NotNil(t, state)
	leaf, _ := state.LeafRoute()
	assert.Equal(t, "product", leaf.Name)
	assert.Equal(t, 1.0, promtest.ToFloat64(h.svc.metrics.recoveries.WithLabelValues("restored")))

	h.svc.Commit(ctx, recovery.SingleRoute("retired-screen", nil))
	require.NoError(t, h.svc.Flush(ctx))
	state = h.svc.Restore(ctx)
	require.NotNil(t, state)
	assert.Equal(t, []string{"home"}, state.RouteNames(), "unknown route falls back")
	assert.Equal(t, 1.0, promtest.ToFloat64(h.svc.metrics.recoveries.WithLabelValues("fallback")))
}

func TestFlush_WritesThrottledTree(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.svc.Commit(ctx, recovery.SingleRoute("product", params.Map{"id": params.String("1")}))
	h.svc.Commit(ctx, recovery.SingleRoute("stack", nil))

	state := h.svc.Restore(ctx)
	require.NotNil(t, state)
	leaf, _ := state.LeafRoute()
	assert.Equal(t, "product", leaf.Name, "second commit is throttled")

	require.NoError(t, h.svc.Flush(ctx))
	state = h.svc.Restore(ctx)
	require.NotNil(t, state)
	leaf, _ = state.LeafRoute()
	assert.Equal(t, "stack", leaf.Name)
	assert.Equal(t, []string{"product", "stack"}, h.manager.History().Routes())
}

func TestFlush_WithoutRecovery(t *testing.T) {
	svc := New(route.NewResolver(testTable(), route.Options{Scheme: "app://"}))
	assert.NoError(t, svc.Flush(context.Background()))
}
