// Package kernel provides the shared domain primitives of the parcel service.
//
// The package includes:
//   - ID: a positive database identity used by every aggregate and reference entity
//   - Participant: the sending or receiving side of a parcel, either a person
//     in a home sector or a sector acting on its own
//
// Both are immutable value objects and safe for concurrent use.
package kernel
