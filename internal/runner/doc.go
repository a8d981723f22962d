// Package runner executes bound cell plans and aggregates their outcomes.
//
// The two phases are deliberately separate. BindPlans is pure: it resolves
// every expression for every cell up front, so configuration mistakes abort
// the run before a single process is spawned. Run then consumes plans that
// are plain data, free of any configuration format.
//
// Failure isolation is per cell. A failed step marks the rest of its cell
// Skipped and the cell Failed, but never touches sibling cells; cells share
// nothing but the read-only plan. Cancellation stops issuing new cells and
// steps, records in-flight work as canceled, and rolls nothing back.
package runner
