package config

// Validate performs static checks on the loaded model before anything is
// expanded or executed. It returns an *Error describing the first problem
// found, or nil if the model is well formed.
func Validate(model *Model) error {
	if model == nil {
		return Errorf("no configuration loaded")
	}

	seenAxes := make(map[string]struct{}, len(model.Axes))
	for _, axis := range model.Axes {
		if axis.Name == "" {
			return Errorf("axis declared without a name")
		}
		if _, dup := seenAxes[axis.Name]; dup {
			return Errorf("axis %q is declared more than once", axis.Name)
		}
		seenAxes[axis.Name] = struct{}{}
		if len(axis.Values) == 0 {
			return Errorf("axis %q has no values", axis.Name)
		}
	}

	if len(model.Steps) == 0 {
		return Errorf("grid defines no steps")
	}
	seenSteps := make(map[string]struct{}, len(model.Steps))
	for _, step := range model.Steps {
		if step.Name == "" {
			return Errorf("step declared without a name")
		}
		if _, dup := seenSteps[step.Name]; dup {
			return Errorf("step %q is declared more than once", step.Name)
		}
		seenSteps[step.Name] = struct{}{}
		if step.Run == nil {
			return Errorf("step %q has no run command", step.Name)
		}
		if step.Timeout < 0 {
			return Errorf("step %q has a negative timeout", step.Name)
		}
	}

	if s := model.Settings; s != nil {
		if s.Workers < 0 {
			return Errorf("settings: workers must not be negative")
		}
		if s.StepTimeout < 0 {
			return Errorf("settings: step_timeout must not be negative")
		}
		if s.LaunchRate < 0 {
			return Errorf("settings: launch_rate must not be negative")
		}
		if s.OutputTail < 0 {
			return Errorf("settings: output_tail must not be negative")
		}
	}

	return nil
}
