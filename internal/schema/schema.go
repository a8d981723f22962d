package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// Axis represents an `axis` block from a user's grid file. It declares one
// parameter dimension of the run matrix.
type Axis struct {
	Name   string   `hcl:"name,label"`
	Values []string `hcl:"values"`
}

// Step represents a `step` block from a user's grid file. Run and Env stay
// raw expressions so they can reference matrix and env values per cell.
type Step struct {
	Name    string         `hcl:"name,label"`
	Run     hcl.Expression `hcl:"run"`
	Env     hcl.Expression `hcl:"env,optional"`
	Timeout string         `hcl:"timeout,optional"`
}

// Settings represents the optional `settings` block controlling how the
// grid executes.
type Settings struct {
	Workers     int      `hcl:"workers,optional"`
	StepTimeout string   `hcl:"step_timeout,optional"`
	LaunchRate  float64  `hcl:"launch_rate,optional"`
	OutputTail  int      `hcl:"output_tail,optional"`
	EnvFiles    []string `hcl:"env_files,optional"`
}

// GridConfig represents the top-level structure of a user's grid file.
// There is deliberately no remain body: an unknown block is a typo the
// user wants to hear about, not something to skip silently.
type GridConfig struct {
	Axes     []*Axis     `hcl:"axis,block"`
	Steps    []*Step     `hcl:"step,block"`
	Settings []*Settings `hcl:"settings,block"`
}
