// Package ledger implements the per-target tracking state machine.
//
// Each target walks a monotonic progression: sent, then opened and clicked
// in either order, then credentials submitted. Every transition is
// idempotent, and the "was this the first transition" outcome is decided
// by a single atomic conditional update in the repository so that
// concurrent requests for the same tracking code resolve it exactly once.
//
// The service depends on the Repository interface defined in this package
// and should never import from handler code. The Postgres implementation
// lives in repository/postgres/.
package ledger
