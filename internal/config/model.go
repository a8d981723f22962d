package config

import (
	"time"

	"github.com/hashicorp/hcl/v2"
)

// Model is the unified, format-agnostic representation of the entire grid
// configuration: the parameter axes, the ordered step plan, and the run
// settings.
type Model struct {
	Axes     []*Axis
	Steps    []*Step
	Settings *Settings
}

// Axis is the format-agnostic representation of an `axis` block.
type Axis struct {
	Name   string
	Values []string
}

// Step is the format-agnostic representation of a `step` block.
//
// Run and Env are kept as raw expressions rather than resolved strings.
// Evaluation is deferred until plans are bound per cell, which is what lets
// a command reference `matrix.*` and `env.*` values.
type Step struct {
	Name    string
	Run     hcl.Expression
	Env     hcl.Expression
	Timeout time.Duration
}

// Settings is the format-agnostic representation of the `settings` block.
// The zero value means "use the built-in defaults".
type Settings struct {
	Workers     int
	StepTimeout time.Duration
	LaunchRate  float64
	OutputTail  int
	EnvFiles    []string
}
