// Package store persists work orders, service steps, quotes, per-step
// actuals, and scheduler settings in SQLite. It exposes a scoped unit of
// work (WithTx) so the status controller can run its read-repair-write
// sequence atomically.
package store
