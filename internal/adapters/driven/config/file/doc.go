// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage with hot reload.
//     It also serves as the PrivilegeSource for the ledger.
package file
