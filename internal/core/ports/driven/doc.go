// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - AccountStore: Operator account persistence
//   - TokenStore: Unredeemed licence token persistence
//   - GrantStore: Access grant persistence
//   - RedemptionStore: Recently redeemed token persistence
//   - PrivilegeSource: Configured privileged operators
//   - SchedulerStore: Background task state and history
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - JournalStore: Audit log. Without it, mutations are only logged.
//   - Metrics: Counters. Without it, NopMetrics is used.
//   - ConfigStore: Only needed by adapters that load settings.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
