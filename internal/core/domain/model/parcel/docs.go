// Package parcel provides the Parcel aggregate root and its lifecycle.
//
// The package includes:
//   - Parcel: identity, route, bag and seal references, hub routing and timestamps
//   - Status: the Pending -> InTransit -> Delivered | Returned state machine
//   - ChangeEvent: the payload announced to live subscribers after a change commits
//
// Key business rules:
//   - Origin and destination sectors must differ
//   - Two person participants must be different people from different home sectors
//   - Delivered and Returned are terminal
//   - The delivery timestamp is only set on transition to Delivered
package parcel
