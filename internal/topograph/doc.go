// Package topograph holds the schema: attribute definitions keyed by
// causetid plus the solitonid naming layer.
//
// A Schema is never mutated while shared. Writers Clone the current schema,
// apply a transaction's schema quadruples with UpdateFromQuadruples, and
// publish the result as part of a new connection snapshot.
//
// The causetid/solitonid bijection is stored as two one-directional maps
// that are only ever changed together, through bindSolitonid and
// unbindSolitonid.
package topograph
