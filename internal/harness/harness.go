package harness

import (
	"context"
	"fmt"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/seancheick/Pharmaguide-sub006/internal/compiler"
	"github.com/seancheick/Pharmaguide-sub006/internal/deeplink"
	"github.com/seancheick/Pharmaguide-sub006/internal/params"
	"github.com/seancheick/Pharmaguide-sub006/internal/route"
)

// Harness executes one scenario against a live deeplink.Service.
type Harness struct {
	service  *deeplink.Service
	signedIn *atomic.Bool
	navs     int

	// pending holds the params of the last auth redirect.
	pending params.Map
}

// Run compiles the scenario's routes and executes its steps. Failed
// expectations are reported in the Result; the error is non-nil only
// when the scenario cannot be set up.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithRegistry(scenario, compiler.DefaultRegistry())
}

// RunWithRegistry is Run with a caller-supplied guard and validator
// registry.
func RunWithRegistry(scenario *Scenario, reg *compiler.Registry) (*Result, error) {
	table, err := loadTable(scenario, reg)
	if err != nil {
		return nil, fmt.Errorf("failed to load routes: %w", err)
	}

	resolver := route.NewResolver(table, route.Options{
		Scheme:     scenario.scheme(),
		Alternates: scenario.alternates(),
	})

	h := &Harness{signedIn: atomic.NewBool(scenario.Authenticated)}
	h.service = deeplink.New(resolver,
		deeplink.WithLogger(zap.NewNop()),
		deeplink.WithAuthenticator(deeplink.AuthFunc(func(context.Context) bool {
			return h.signedIn.Load()
		})),
		deeplink.WithAuthRoute(scenario.authRoute()),
		deeplink.WithFallbackRoute(scenario.FallbackRoute),
	)
	if err := h.service.Validate(); err != nil {
		return nil, err
	}
	h.service.Initialize(deeplink.NavigatorFunc(func(context.Context, string, params.Map) error {
		h.navs++
		return nil
	}))

	ctx := context.Background()
	result := NewResult()
	for i, step := range scenario.Steps {
		event := h.execute(ctx, i, step)
		result.Trace = append(result.Trace, event)
		if event.Error != "" {
			result.AddError(fmt.Sprintf("steps[%d]: %s", i, event.Error))
			continue
		}
		if step.Expect != nil {
			for _, msg := range checkExpect(i, step.Expect, event) {
				result.AddError(msg)
			}
		}
	}
	result.Navigations = h.navs
	return result, nil
}

func loadTable(scenario *Scenario, reg *compiler.Registry) (*route.Table, error) {
	if scenario.Routes == "" {
		return compiler.Default(reg)
	}
	return compiler.LoadFile(scenario.Routes, reg)
}

func (h *Harness) execute(ctx context.Context, index int, step Step) TraceEvent {
	var (
		res    deeplink.Result
		err    error
		action = "open"
	)
	if step.Login {
		action = "login"
		h.signedIn.Store(true)
		if h.pending == nil {
			return TraceEvent{Step: index, Action: action, Error: "no pending auth redirect to resume"}
		}
		res, err = h.service.ResumeAfterLogin(ctx, h.pending)
		h.pending = nil
	} else {
		res, err = h.service.Open(ctx, step.Open)
	}

	event := TraceEvent{
		Step:    index,
		Action:  action,
		URL:     res.URL,
		Outcome: string(res.Outcome),
		Route:   res.Link.Route,
		Screen:  res.Screen,
		Params:  res.Params,
	}
	for _, f := range res.Failures {
		event.Failures = append(event.Failures, f.Guard)
	}
	if err != nil {
		event.Error = err.Error()
	}
	if res.Outcome == deeplink.OutcomeAuthRedirect {
		h.pending = res.Params
	}
	return event
}
