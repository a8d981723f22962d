// Package matrix turns declared parameter axes into the concrete list of
// execution cells for a run.
//
// # Core Concepts
//
//   - Axis: a named parameter with an ordered set of discrete values, e.g.
//     a "python" axis with values ["3.8", "3.9"]. Axes are immutable once
//     declared.
//
//   - Cell: one full assignment of a value to every axis. A cell is the unit
//     of isolated execution; the same step plan runs once per cell with the
//     cell's bindings exported into its environment.
//
// Why deterministic ordering?
//
// Expand produces the cartesian product of all axes in declaration order,
// with the first axis varying slowest. The ordering is a pure function of
// the input, so repeated runs over the same grid produce cells, logs, and
// summaries in the same order. That reproducibility is what makes run
// output diffable across CI invocations.
//
// Expansion is side-effect free. All validation beyond the empty-axis check
// happens in the config package before expansion is ever attempted.
package matrix
