// Package store persists completed simulation runs in SQLite.
//
// Each saved run keeps the process definition it was built from, the
// simulated duration, the full result (run record and per-node report) and
// the summary stats, all as JSON text. Schema changes are applied with
// embedded golang-migrate migrations; the database is opened through the
// pure-Go modernc.org/sqlite driver, so no cgo toolchain is needed.
//
// Runs aborted with a *sim.RunError have no result and are never stored.
package store
