// Package clock provides the version vector used to track which writes a
// replica has applied and which replica state a client session has observed.
// A version vector maps replica IDs to per-replica logical clocks and forms a
// partial order; two vectors may be concurrent when neither dominates.
package clock
