// Package leadtime is the deterministic multi-lane lead-time scheduler:
// it converts quoted hours into lead days and greedily places every pending
// step of every open work order into the earliest-available capacity lane
// of its kind.
package leadtime
