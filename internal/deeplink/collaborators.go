package deeplink

import (
	"context"

	"github.com/seancheick/Pharmaguide-sub006/internal/params"
)

// Navigator performs the actual screen transition.
type Navigator interface {
	Navigate(ctx context.Context, screen string, p params.Map) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, screen string, p params.Map) error

func (f NavigatorFunc) Navigate(ctx context.Context, screen string, p params.Map) error {
	return f(ctx, screen, p)
}

// Authenticator reports whether a user is signed in.
type Authenticator interface {
	IsAuthenticated(ctx context.Context) bool
}

// AuthFunc adapts a function to Authenticator.
type AuthFunc func(ctx context.Context) bool

func (f AuthFunc) IsAuthenticated(ctx context.Context) bool { return f(ctx) }

// Linker opens URLs that do not belong to the app.
type Linker interface {
	CanOpenURL(ctx context.Context, url string) (bool, error)
	OpenURL(ctx context.Context, url string) error
}
