// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The licence core is layered leaves first:
//
//   - Ledger: operator balances and privilege
//   - Pool: token minting and at-most-once redemption
//   - Registry: per-subject access grants
//   - Scheduler: background expiry sweeps
//   - AccessService: the facade transports call
//
// Services cache no persisted records. Every read goes through the
// injected stores, so the sweeper and request handlers never drift apart.
package services
