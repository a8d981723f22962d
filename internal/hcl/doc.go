// Package hcl provides the concrete HCL implementation for the configuration
// loading and expression evaluation interfaces defined in the `config`
// package. It is responsible for all file parsing, HCL-to-model translation,
// and CTY-to-Go string conversion.
//
// Step order is semantic: steps execute in declaration order, and files are
// discovered in lexical path order, so a grid split across files still
// yields a deterministic plan.
package hcl
