package hcl

import (
	"time"

	"github.com/vk/gridrun/internal/config"
	"github.com/vk/gridrun/internal/schema"
)

// translateStep converts the HCL-specific step schema into the agnostic model.
func (l *Loader) translateStep(s *schema.Step) (*config.Step, error) {
	step := &config.Step{
		Name: s.Name,
		Run:  s.Run,
		Env:  s.Env,
	}
	if s.Timeout != "" {
		d, err := time.ParseDuration(s.Timeout)
		if err != nil {
			return nil, config.Errorf("step %q: invalid timeout %q: %w", s.Name, s.Timeout, err)
		}
		step.Timeout = d
	}
	return step, nil
}

// translateSettings converts the HCL-specific settings schema into the
// agnostic model.
func (l *Loader) translateSettings(s *schema.Settings) (*config.Settings, error) {
	settings := &config.Settings{
		Workers:    s.Workers,
		LaunchRate: s.LaunchRate,
		OutputTail: s.OutputTail,
		EnvFiles:   s.EnvFiles,
	}
	if s.StepTimeout != "" {
		d, err := time.ParseDuration(s.StepTimeout)
		if err != nil {
			return nil, config.Errorf("settings: invalid step_timeout %q: %w", s.StepTimeout, err)
		}
		settings.StepTimeout = d
	}
	return settings, nil
}

// mergeSettings folds src into dst. Set fields win over earlier files, so a
// later grid file can override a shared default.
func mergeSettings(dst, src *config.Settings) {
	if src.Workers != 0 {
		dst.Workers = src.Workers
	}
	if src.StepTimeout != 0 {
		dst.StepTimeout = src.StepTimeout
	}
	if src.LaunchRate != 0 {
		dst.LaunchRate = src.LaunchRate
	}
	if src.OutputTail != 0 {
		dst.OutputTail = src.OutputTail
	}
	if len(src.EnvFiles) > 0 {
		dst.EnvFiles = append(dst.EnvFiles, src.EnvFiles...)
	}
}
