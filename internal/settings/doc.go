// Package settings defines the scheduler parameter keys, their seeded
// defaults, and the per-call snapshot the lead-time scheduler reads.
package settings
