// Package kernel provides the shared value objects of the dispatch domain.
//
// The package includes:
//   - UUID: identifiers for orders, actors, scans and ledger entries
//   - GeoPoint: a validated latitude/longitude pair with haversine distance
//   - Address: requester-entered address text bound to a GeoPoint
//
// Value objects are immutable and guarded: their zero values fail Validate, so
// an uninitialised field can never masquerade as a real coordinate or id.
package kernel
