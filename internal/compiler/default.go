package compiler

import (
	_ "embed"

	"github.com/seancheick/Pharmaguide-sub006/internal/route"
)

//go:embed routes.cue
var defaultRoutes []byte

// DefaultRoutes returns the source of the built-in route file.
func DefaultRoutes() []byte {
	return append([]byte(nil), defaultRoutes...)
}

// Default compiles the built-in route file.
func Default(reg *Registry) (*route.Table, error) {
	return CompileSource(defaultRoutes, "routes.cue", reg)
}
