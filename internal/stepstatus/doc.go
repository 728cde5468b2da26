// Package stepstatus is the step status controller: it validates and applies
// a service step's status transition, repairs illegal concurrent-active
// states, maintains the step timestamps, and recomputes the owning work
// order's aggregate status.
package stepstatus
