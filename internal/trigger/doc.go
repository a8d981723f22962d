// Package trigger hosts the HTTP surface that turns repository events into
// runs. Push and pull-request events each start one full run over every
// cell of the grid; runs are serialized so two triggers never contend for
// the same working tree. Everything else on the mux is read-only: health,
// metrics, and recorded run history.
package trigger
