// Package guard evaluates navigation guards.
//
// Guards are predicates that gate a navigation; they must not change
// navigation state. RunAll is an all-must-pass join: every guard runs
// concurrently and a single false, error, panic or timeout blocks the
// navigation. A guard that ignores its context keeps running in the
// background after the timeout, but the verdict does not wait for it.
package guard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seancheick/Pharmaguide-sub006/internal/params"
)

// Guard reports whether navigation with p may proceed.
type Guard func(ctx context.Context, p params.Map) (bool, error)

// Named attaches a name to a guard for logs and verdicts.
type Named struct {
	Name  string
	Check Guard
}

// Allow is a guard that always passes.
func Allow(context.Context, params.Map) (bool, error) { return true, nil }

// Deny is a guard that always blocks.
func Deny(context.Context, params.Map) (bool, error) { return false, nil }

// Failure records why one guard blocked.
type Failure struct {
	Guard  string `json:"guard"`
	Reason string `json:"reason"`
}

// Verdict is the joined outcome of a set of guards.
type Verdict struct {
	Allowed  bool
	Failures []Failure
	Duration time.Duration
}

var errBlocked = errors.New("guard blocked navigation")

// RunAll evaluates guards concurrently with an overall timeout.
// A zero timeout means no timeout. The first blocking guard cancels the
// context seen by the others; guards interrupted that way are not
// reported as failures.
func RunAll(ctx context.Context, guards []Named, p params.Map, timeout time.Duration) Verdict {
	start := time.Now()
	if len(guards) == 0 {
		return Verdict{Allowed: true}
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var (
		mu       sync.Mutex
		failures []Failure
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, ng := range guards {
		g.Go(func() error {
			ok, reason, interrupted := evaluate(gctx, ng, p)
			if ok {
				return nil
			}
			if interrupted && ctx.Err() == nil {
				return errBlocked
			}
			mu.Lock()
			failures = append(failures, Failure{Guard: ng.Name, Reason: reason})
			mu.Unlock()
			return errBlocked
		})
	}
	err := g.Wait()

	return Verdict{
		Allowed:  err == nil,
		Failures: failures,
		Duration: time.Since(start),
	}
}

type outcome struct {
	ok  bool
	err error
}

// evaluate runs one guard. interrupted is set when the guard stopped
// because ctx ended rather than by reaching its own verdict.
func evaluate(ctx context.Context, ng Named, p params.Map) (ok bool, reason string, interrupted bool) {
	if ng.Check == nil {
		return false, "guard has no check function", false
	}

	ch := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		ok, err := ng.Check(ctx, p.Clone())
		ch <- outcome{ok: ok, err: err}
	}()

	select {
	case o := <-ch:
		if o.err != nil {
			canceled := ctx.Err() != nil && errors.Is(o.err, ctx.Err())
			return false, o.err.Error(), canceled
		}
		if !o.ok {
			return false, "returned false", false
		}
		return true, "", false
	case <-ctx.Done():
		return false, ctx.Err().Error(), true
	}
}
