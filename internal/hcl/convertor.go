package hcl

import (
	"context"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/gridrun/internal/config"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Converter is the HCL-specific implementation of the config.Converter
// interface. It evaluates deferred expressions against one cell's scope.
type Converter struct{}

// NewConverter creates a new HCL converter.
func NewConverter() *Converter {
	return &Converter{}
}

// EvalString resolves a string-typed expression against a cell's scope.
func (c *Converter) EvalString(ctx context.Context, expr hcl.Expression, scope *config.Scope) (string, error) {
	if expr == nil {
		return "", nil
	}
	val, err := c.eval(expr, scope)
	if err != nil {
		return "", err
	}
	converted, convErr := convert.Convert(val, cty.String)
	if convErr != nil {
		return "", config.Errorf("expression is not a string: %w", convErr)
	}
	if converted.IsNull() {
		return "", config.Errorf("expression evaluated to null")
	}
	return converted.AsString(), nil
}

// EvalStringMap resolves an object- or map-typed expression into a flat
// string map with deterministic iteration via sorted keys downstream.
func (c *Converter) EvalStringMap(ctx context.Context, expr hcl.Expression, scope *config.Scope) (map[string]string, error) {
	if expr == nil {
		return nil, nil
	}
	val, err := c.eval(expr, scope)
	if err != nil {
		return nil, err
	}
	if val.IsNull() {
		return nil, nil
	}
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil, config.Errorf("expression must be a map of strings, got %s", val.Type().FriendlyName())
	}

	raw := val.AsValueMap()
	out := make(map[string]string, len(raw))
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		converted, convErr := convert.Convert(raw[k], cty.String)
		if convErr != nil {
			return nil, config.Errorf("value for %q is not a string: %w", k, convErr)
		}
		if converted.IsNull() {
			return nil, config.Errorf("value for %q is null", k)
		}
		out[k] = converted.AsString()
	}
	return out, nil
}

// eval evaluates an expression with the cell's matrix and env variables in
// scope. Unknown references surface as configuration errors.
func (c *Converter) eval(expr hcl.Expression, scope *config.Scope) (cty.Value, error) {
	val, diags := expr.Value(buildEvalContext(scope))
	if diags.HasErrors() {
		return cty.NilVal, config.Errorf("evaluating expression: %w", diags)
	}
	return val, nil
}

// buildEvalContext exposes the cell's bindings as `matrix.*` and the merged
// base environment as `env.*`.
func buildEvalContext(scope *config.Scope) *hcl.EvalContext {
	matrixVals := make(map[string]cty.Value, len(scope.Matrix))
	for k, v := range scope.Matrix {
		matrixVals[k] = cty.StringVal(v)
	}
	envVals := make(map[string]cty.Value, len(scope.Env))
	for k, v := range scope.Env {
		envVals[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"matrix": cty.ObjectVal(matrixVals),
			"env":    cty.ObjectVal(envVals),
		},
	}
}
