// Package sqlite provides a SQLite-based implementation of the driven ports
// that hold operational history rather than ledger state.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. It implements two store interfaces over one connection:
//
//   - SchedulerStore: sweeper task state and run history
//   - JournalStore: append-only audit log of ledger mutations
//
// Balances, tokens and grants are not kept here; they live in the jsonl
// collections so each can be recovered independently.
//
// # Schema
//
// The schema is managed through versioned migrations in the migrations/
// directory. Each migration is a pair of .up.sql and .down.sql files and is
// recorded in schema_migrations once applied.
//
// # Data Location
//
// By default, the database is stored at ~/.tollgate/data/tollgate.db
package sqlite
