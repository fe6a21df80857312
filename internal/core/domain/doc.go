// Package domain defines the core business entities for Tollgate.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - OperatorAccount: A stored operator with a prepaid credit balance
//   - LicenseToken: A one-time credential granting a duration of access
//   - AccessGrant: A subject's standing authorisation with an expiry
//   - RedemptionRecord: A remembered consumed token
//   - JournalEntry: An audit record of one mutation
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
