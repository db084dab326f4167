// Package reconciler keeps a client's view of its live orders consistent with
// the server's authoritative stream.
//
// All state changes go through Merge: an unknown order is inserted, a known
// order is overwritten unless the incoming revision is older than the one
// held. Terminal orders fire the terminal callback once and leave the set.
package reconciler

import "dispatch/internal/sync/protocol"

// Merge decides the next local state of one order. local is nil when the
// order is unknown. applied is false when incoming is stale.
func Merge(local *protocol.Order, incoming protocol.Order) (merged protocol.Order, applied bool) {
	if local == nil {
		return incoming, true
	}
	if incoming.Version < local.Version {
		return *local, false
	}
	return incoming, true
}
