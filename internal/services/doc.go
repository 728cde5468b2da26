// Package services holds cross-cutting error classification and context
// annotation shared by the step status controller and the lead-time
// scheduler.
package services
