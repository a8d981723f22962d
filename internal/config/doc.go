// Package config defines the format-agnostic configuration model for the
// application, along with the core interfaces (Loader, Converter) for
// loading and interpreting configuration from various sources.
//
// The `config.Model` is the single source of truth for the `matrix` and
// `runner` packages. Concrete implementations of the interfaces, such as
// for HCL, are provided in separate packages.
//
// The package also defines Error, the marker for configuration problems
// detected before any execution. Anything that surfaces as a config.Error
// aborts the run with no cells attempted.
package config
