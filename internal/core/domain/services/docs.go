// Package services provides the pure domain services of the parcel lifecycle.
//
// The package includes:
//   - RequiresHub: the hub routing decision
//   - TrackingCodeGenerator: structured tracking code generation
//   - CollisionResolver: derivation of a fresh code after a uniqueness violation
//
// None of them touch storage; clock and random sources are injectable.
package services
