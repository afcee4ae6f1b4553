package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/seancheick/Pharmaguide-sub006/internal/compiler"
	"github.com/seancheick/Pharmaguide-sub006/internal/config"
	"github.com/seancheick/Pharmaguide-sub006/internal/deeplink"
	"github.com/seancheick/Pharmaguide-sub006/internal/history"
	"github.com/seancheick/Pharmaguide-sub006/internal/logging"
	"github.com/seancheick/Pharmaguide-sub006/internal/recovery"
	"github.com/seancheick/Pharmaguide-sub006/internal/route"
	"github.com/seancheick/Pharmaguide-sub006/internal/store"
)

// env is everything a command needs, built from the config file.
type env struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *compiler.Registry
	table    *route.Table
	resolver *route.Resolver

	kv store.KV
}

// loadConfig reads --config, or returns the defaults when unset.
func (o *RootOptions) loadConfig() (*config.Config, error) {
	if o.ConfigPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	return cfg, nil
}

// newEnv loads the config and compiles the route table. Logs go to
// logOut as JSON lines.
func (o *RootOptions) newEnv(logOut io.Writer) (*env, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if o.Verbose {
		level = "debug"
	}
	logger, err := logging.NewWriter(logOut, level)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid log config", err)
	}
	return buildEnv(cfg, logger)
}

func buildEnv(cfg *config.Config, logger *zap.Logger) (*env, error) {
	reg := compiler.DefaultRegistry()

	var (
		table *route.Table
		err   error
	)
	if cfg.Routes == "" {
		table, err = compiler.Default(reg)
	} else {
		table, err = compiler.LoadFile(cfg.Routes, reg)
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to compile routes", err)
	}

	return &env{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		table:    table,
		resolver: route.NewResolver(table, route.Options{
			Scheme:     cfg.Links.Scheme,
			Alternates: cfg.Links.Alternates,
			WebPrefix:  cfg.Links.WebPrefix,
		}),
	}, nil
}

// openStore opens the configured backend. Callers must call close.
func (e *env) openStore(ctx context.Context) error {
	kv, err := store.Open(ctx, e.cfg.Store)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	e.kv = kv
	return nil
}

func (e *env) close() {
	if e.kv != nil {
		if err := e.kv.Close(); err != nil {
			e.logger.Warn("store close failed", zap.Error(err))
		}
	}
	_ = e.logger.Sync()
}

// recovery builds a manager over the opened store.
func (e *env) recovery() *recovery.Manager {
	tracker := history.New(e.kv,
		history.WithMaxSize(e.cfg.Recovery.HistorySize),
		history.WithLogger(e.logger),
	)
	return recovery.NewManager(e.kv,
		recovery.WithLogger(e.logger),
		recovery.WithHistory(tracker),
		recovery.WithMaxAge(e.cfg.Recovery.MaxAge),
		recovery.WithVersion(e.cfg.Recovery.Version),
		recovery.WithThrottle(e.cfg.Recovery.SaveThrottle),
	)
}

// service builds a deeplink.Service. A nil reg leaves metrics
// unregistered.
func (e *env) service(reg prometheus.Registerer, opts ...deeplink.Option) (*deeplink.Service, error) {
	base := []deeplink.Option{
		deeplink.WithLogger(e.logger),
		deeplink.WithMetrics(deeplink.NewMetrics(reg)),
		deeplink.WithGuardTimeout(e.cfg.Guard.Timeout),
		deeplink.WithAuthRoute(e.cfg.Links.AuthRoute),
		deeplink.WithFallbackRoute(e.cfg.Links.FallbackRoute),
	}
	svc := deeplink.New(e.resolver, append(base, opts...)...)
	if err := svc.Validate(); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid link config", err)
	}
	return svc, nil
}

// knownRoutes is the set of names a restored tree may carry: route names
// and screens.
func (e *env) knownRoutes() map[string]bool {
	known := map[string]bool{}
	for _, def := range e.table.Definitions() {
		known[def.Name] = true
		if def.Screen != "" {
			known[def.Screen] = true
		}
	}
	return known
}

func (e *env) roles() compiler.Roles {
	return compiler.Roles{
		AuthRoute:     e.cfg.Links.AuthRoute,
		FallbackRoute: e.cfg.Links.FallbackRoute,
	}
}

// errorCode maps a setup ExitError to a response code.
func errorCode(err error) string {
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		return ErrCodeGeneric
	}
	switch exitErr.Message {
	case "failed to load config", "invalid log config", "invalid link config":
		return ErrCodeConfig
	case "failed to compile routes":
		return ErrCodeRoutes
	case "failed to open store":
		return ErrCodeStore
	}
	return ErrCodeGeneric
}

// reportSetup writes a setup failure in the configured format and
// passes the error through so the exit code survives.
func reportSetup(f *OutputFormatter, err error) error {
	if ferr := f.Error(errorCode(err), err.Error(), nil); ferr != nil {
		return fmt.Errorf("%w (output failed: %v)", err, ferr)
	}
	return err
}
