package deeplink

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/seancheick/Pharmaguide-sub006/internal/guard"
	"github.com/seancheick/Pharmaguide-sub006/internal/params"
	"github.com/seancheick/Pharmaguide-sub006/internal/recovery"
	"github.com/seancheick/Pharmaguide-sub006/internal/route"
)

// DefaultGuardTimeout bounds guard evaluation for one attempt.
const DefaultGuardTimeout = 5 * time.Second

// Auth redirect parameter names.
const (
	ParamReturnTo     = "returnTo"
	ParamReturnParams = "returnParams"
)

// ErrNotInitialized is returned for attempts made before Initialize.
var ErrNotInitialized = errors.New("deeplink: service not initialized")

// Outcome classifies a navigation attempt.
type Outcome string

const (
	OutcomeNavigated    Outcome = "navigated"
	OutcomeAuthRedirect Outcome = "auth_redirect"
	OutcomeBlocked      Outcome = "blocked"
	OutcomeFallback     Outcome = "fallback"
	OutcomeInvalid      Outcome = "invalid"
	OutcomeNotReady     Outcome = "not_ready"
	OutcomeExternal     Outcome = "external"
)

// Result describes what one attempt did.
type Result struct {
	Outcome Outcome          `json:"outcome"`
	URL     string           `json:"url"`
	Link    route.ParsedLink `json:"link"`

	// Screen and Params are what the navigator received, if anything.
	Screen string     `json:"screen,omitempty"`
	Params params.Map `json:"params,omitempty"`

	Failures []guard.Failure `json:"failures,omitempty"`
}

// Service routes URLs to screens.
type Service struct {
	resolver *route.Resolver
	logger   *zap.Logger
	metrics  *Metrics
	auth     Authenticator
	linker   Linker
	recovery *recovery.Manager

	guardTimeout time.Duration
	authRoute    string
	fallback     string

	initialized *atomic.Bool
	mu          sync.Mutex
	navigator   Navigator
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

func WithAuthenticator(a Authenticator) Option {
	return func(s *Service) { s.auth = a }
}

func WithLinker(l Linker) Option {
	return func(s *Service) { s.linker = l }
}

// WithRecovery attaches the snapshot manager used by Commit and Restore.
func WithRecovery(m *recovery.Manager) Option {
	return func(s *Service) { s.recovery = m }
}

// WithGuardTimeout bounds guard evaluation. Zero disables the bound.
func WithGuardTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.guardTimeout = d
		}
	}
}

// WithAuthRoute names the route that receives unauthenticated users.
func WithAuthRoute(name string) Option {
	return func(s *Service) { s.authRoute = name }
}

// WithFallbackRoute names the route used when a link is invalid, blocked
// or cannot be restored.
func WithFallbackRoute(name string) Option {
	return func(s *Service) { s.fallback = name }
}

// New creates a service over a resolver. The route table should be frozen.
func New(resolver *route.Resolver, opts ...Option) *Service {
	s := &Service{
		resolver:     resolver,
		logger:       zap.NewNop(),
		metrics:      NewMetrics(nil),
		guardTimeout: DefaultGuardTimeout,
		initialized:  atomic.NewBool(false),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate checks that the configured auth and fallback routes exist.
func (s *Service) Validate() error {
	table := s.resolver.Table()
	for _, name := range []string{s.authRoute, s.fallback} {
		if name == "" {
			continue
		}
		if _, ok := table.Lookup(name); !ok {
			return fmt.Errorf("deeplink: configured route %q is not registered", name)
		}
	}
	return nil
}

// Initialize attaches the navigator and starts accepting attempts.
func (s *Service) Initialize(nav Navigator) {
	s.mu.Lock()
	s.navigator = nav
	s.mu.Unlock()
	s.initialized.Store(nav != nil)
	s.logger.Info("deeplink service initialized", zap.Int("routes", s.resolver.Table().Len()))
}

// Ready reports whether Initialize has completed.
func (s *Service) Ready() bool {
	return s.initialized.Load()
}

// Resolver returns the underlying resolver.
func (s *Service) Resolver() *route.Resolver {
	return s.resolver
}

// Generate builds the canonical link for a route.
func (s *Service) Generate(name string, p params.Map) (string, error) {
	return s.resolver.Generate(name, p)
}

// GenerateWeb builds the HTTPS link for a route.
func (s *Service) GenerateWeb(name string, p params.Map) (string, error) {
	return s.resolver.GenerateWeb(name, p)
}

// Open handles one incoming URL. Attempts are serialized. Invalid and
// blocked links are reported in the Result, not as errors; the error is
// non-nil only when the service is not ready or a collaborator failed.
func (s *Service) Open(ctx context.Context, rawURL string) (Result, error) {
	if !s.initialized.Load() {
		s.logger.Warn("navigation attempted before initialization", zap.String("url", rawURL))
		s.metrics.navigation(OutcomeNotReady)
		return Result{Outcome: OutcomeNotReady, URL: rawURL}, ErrNotInitialized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.open(ctx, rawURL)
	res.URL = rawURL
	s.metrics.navigation(res.Outcome)
	return res, err
}

func (s *Service) open(ctx context.Context, rawURL string) (Result, error) {
	log := s.logger.With(zap.String("url", rawURL))

	if !s.resolver.Recognizes(rawURL) {
		return s.openExternal(ctx, log, rawURL)
	}

	link := s.resolver.Resolve(rawURL)
	res := Result{Link: link}
	if !link.Valid {
		log.Info("invalid deep link",
			zap.String("route", link.Route),
			zap.String("code", string(link.Code)),
			zap.String("error", link.Error),
		)
		return s.toFallback(ctx, res, OutcomeFallback, OutcomeInvalid)
	}

	def, _ := s.resolver.Table().Lookup(link.Route)

	if link.RequiresAuth && !s.authenticated(ctx) {
		return s.redirectToAuth(ctx, log, res)
	}

	verdict := guard.RunAll(ctx, def.Guards, link.Params, s.guardTimeout)
	if len(def.Guards) > 0 {
		s.metrics.guardDuration.Observe(verdict.Duration.Seconds())
	}
	if !verdict.Allowed {
		res.Failures = verdict.Failures
		for _, f := range verdict.Failures {
			log.Info("navigation blocked by guard",
				zap.String("route", link.Route),
				zap.String("guard", f.Guard),
				zap.String("reason", f.Reason),
			)
		}
		return s.toFallback(ctx, res, OutcomeBlocked, OutcomeBlocked)
	}

	res.Outcome = OutcomeNavigated
	if err := s.navigate(ctx, &res, def.Screen, link.Params); err != nil {
		return res, err
	}
	log.Debug("navigated", zap.String("route", link.Route), zap.String("screen", def.Screen))
	return res, nil
}

func (s *Service) authenticated(ctx context.Context) bool {
	return s.auth != nil && s.auth.IsAuthenticated(ctx)
}

func (s *Service) redirectToAuth(ctx context.Context, log *zap.Logger, res Result) (Result, error) {
	authDef, ok := s.resolver.Table().Lookup(s.authRoute)
	if !ok {
		log.Warn("auth required but no auth route configured", zap.String("route", res.Link.Route))
		res.Outcome = OutcomeBlocked
		return res, nil
	}

	encoded, err := params.MarshalCanonical(res.Link.Params)
	if err != nil {
		res.Outcome = OutcomeInvalid
		return res, fmt.Errorf("encode return params: %w", err)
	}
	p := params.Map{
		ParamReturnTo:     params.String(res.Link.Route),
		ParamReturnParams: params.String(encoded),
	}
	res.Outcome = OutcomeAuthRedirect
	if err := s.navigate(ctx, &res, authDef.Screen, p); err != nil {
		return res, err
	}
	log.Info("auth required, redirecting", zap.String("route", res.Link.Route), zap.String("auth_route", s.authRoute))
	return res, nil
}

// toFallback navigates to the fallback route if one is configured and
// sets the outcome accordingly.
func (s *Service) toFallback(ctx context.Context, res Result, with, without Outcome) (Result, error) {
	def, ok := s.resolver.Table().Lookup(s.fallback)
	if !ok {
		res.Outcome = without
		return res, nil
	}
	res.Outcome = with
	return res, s.navigate(ctx, &res, def.Screen, params.Map{})
}

func (s *Service) navigate(ctx context.Context, res *Result, screen string, p params.Map) error {
	if err := s.navigator.Navigate(ctx, screen, p); err != nil {
		return fmt.Errorf("navigate to %s: %w", screen, err)
	}
	res.Screen = screen
	res.Params = p
	return nil
}

func (s *Service) openExternal(ctx context.Context, log *zap.Logger, rawURL string) (Result, error) {
	res := Result{Link: s.resolver.Resolve(rawURL)}
	if s.linker == nil {
		log.Info("unsupported link ignored")
		res.Outcome = OutcomeInvalid
		return res, nil
	}
	can, err := s.linker.CanOpenURL(ctx, rawURL)
	if err != nil {
		return Result{Outcome: OutcomeInvalid}, fmt.Errorf("can open %s: %w", rawURL, err)
	}
	if !can {
		log.Info("external link cannot be opened")
		res.Outcome = OutcomeInvalid
		return res, nil
	}
	if err := s.linker.OpenURL(ctx, rawURL); err != nil {
		return Result{Outcome: OutcomeInvalid}, fmt.Errorf("open %s: %w", rawURL, err)
	}
	res.Outcome = OutcomeExternal
	return res, nil
}

// ResumeAfterLogin re-runs the navigation recorded in the auth redirect
// params. The full pipeline runs again, so guards still apply.
func (s *Service) ResumeAfterLogin(ctx context.Context, p params.Map) (Result, error) {
	to, ok := p[ParamReturnTo]
	if !ok || to.String() == "" {
		return Result{Outcome: OutcomeInvalid}, fmt.Errorf("deeplink: %s missing", ParamReturnTo)
	}

	var back params.Map
	if raw, ok := p[ParamReturnParams]; ok && raw.String() != "" {
		if err := back.UnmarshalJSON([]byte(raw.String())); err != nil {
			return Result{Outcome: OutcomeInvalid}, fmt.Errorf("deeplink: decode %s: %w", ParamReturnParams, err)
		}
	}

	link, err := s.resolver.Generate(to.String(), back)
	if err != nil {
		return Result{Outcome: OutcomeInvalid}, err
	}
	return s.Open(ctx, link)
}

// Commit records a committed navigation tree. Storage failures are
// logged and never returned. Throttled trees are held until the next
// Commit or Flush.
func (s *Service) Commit(ctx context.Context, state *recovery.State) {
	if s.recovery == nil {
		return
	}
	if _, err := s.recovery.Commit(ctx, state); err != nil {
		s.logger.Warn("snapshot commit failed", zap.Error(err))
	}
}

// Flush writes the tree held back by commit throttling and waits for
// pending history writes. Hosts call it when the app is backgrounded or
// shutting down; a throttled tree that is never flushed is lost.
func (s *Service) Flush(ctx context.Context) error {
	if s.recovery == nil {
		return nil
	}
	err := s.recovery.Flush(ctx)
	s.recovery.History().Wait()
	return err
}

// Restore returns the tree to start from: the validated snapshot, the
// fallback route after a rejection, or nil.
func (s *Service) Restore(ctx context.Context) *recovery.State {
	if s.recovery == nil {
		return nil
	}
	res := s.recovery.Restore(ctx, recovery.RestoreOptions{
		Fallback:    s.fallback,
		ValidRoutes: s.knownNames(),
	})
	s.metrics.recoveries.WithLabelValues(string(res.Status)).Inc()
	return res.State
}

// knownNames lists every route and screen name; restored trees may carry
// either.
func (s *Service) knownNames() []string {
	var names []string
	for _, def := range s.resolver.Table().Definitions() {
		names = append(names, def.Name)
		if def.Screen != "" {
			names = append(names, def.Screen)
		}
	}
	return names
}
