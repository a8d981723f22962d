package config

import (
	"context"

	"github.com/hashicorp/hcl/v2"
)

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads configuration from the given paths, translates it into the
	// format-agnostic model, and returns a matching Converter.
	Load(ctx context.Context, paths ...string) (*Model, Converter, error)
}

// Scope carries the values an expression may reference while a step is
// being bound to one cell.
type Scope struct {
	// Matrix holds the cell's axis bindings, addressed as `matrix.<axis>`.
	Matrix map[string]string
	// Env holds the merged base environment, addressed as `env.<NAME>`.
	Env map[string]string
}

// Converter is the interface for a format-specific expression evaluator.
// It is the bridge between raw configuration expressions and the resolved
// strings the runner executes, and the only place evaluation happens.
type Converter interface {
	// EvalString resolves a string-typed expression against a cell's scope.
	EvalString(ctx context.Context, expr hcl.Expression, scope *Scope) (string, error)

	// EvalStringMap resolves an object- or map-typed expression into a flat
	// string map. A nil expression resolves to a nil map.
	EvalStringMap(ctx context.Context, expr hcl.Expression, scope *Scope) (map[string]string, error)
}
