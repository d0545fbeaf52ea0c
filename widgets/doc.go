// Package widgets contains dumb render primitives for the bitacora screen.
//
// Allowed here:
// - stateless drawing helpers (header box, movement table, popup overlay)
//
// Not allowed here:
// - key handling, fetch state transitions, or date policy
package widgets
