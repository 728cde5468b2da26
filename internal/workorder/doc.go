// Package workorder defines the fabrication domain model: work orders,
// their service steps, quoted line items, and the tagged per-step actuals
// payload shared by the status controller and the lead-time scheduler.
package workorder
