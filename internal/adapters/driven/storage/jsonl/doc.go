// Package jsonl provides a line-delimited JSON implementation of the driven
// RecordStore port.
//
// Each collection lives in its own file with one JSON object per line:
//
//   - accounts.jsonl: operator accounts
//   - tokens.jsonl: unredeemed licence tokens
//   - grants.jsonl: access grants
//   - redeemed.jsonl: recently consumed tokens
//
// # Durability
//
// Every committed change rewrites the whole file through a staging file and
// an atomic rename (github.com/google/renameio/v2). A crash mid-write leaves
// the previous file in place.
//
// # Recovery
//
// A file that cannot be parsed is renamed to <file>.corrupt-<UTC timestamp>
// and the collection is rebuilt. Complete lines before a damaged final line
// are kept; a damaged line anywhere else resets the collection to empty.
// Recovery is logged and never fails the process.
//
// # Thread Safety
//
// Each collection serialises its own updates. Collections are independent;
// callers that nest updates must always take the token lock first.
package jsonl
