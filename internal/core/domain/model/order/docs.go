// Package order holds the delivery order aggregate and its state machine.
//
// An order is created pending, claimed by exactly one courier, driven through
// the physical handling states by that courier and closed either by a
// proof-of-delivery scan, a participant cancellation or a dispatcher sweep.
// All mutations are methods on *Order; repositories persist a Snapshot and use
// the persisted status and version as a compare-and-swap guard.
package order
