// Package models defines the domain and wire models for splitsync.
//
// There are two families of models:
//
//   - Ledger models (Expense, User) represent the shared financial state of
//     one expense group. User doubles as the per-group balance row: Owed is
//     the running amount the group owes this user (positive) or this user
//     owes the group (negative), in minor currency units.
//
//   - Sync models (Client, Mutation, push/pull requests and responses, patch
//     operations) carry the replication protocol. Clients keep a local
//     replica and send batches of locally-applied mutations; the server
//     replays the ones it has not seen and hands back the authoritative
//     state as a patch.
//
// All identifiers are opaque, client-generated strings. All money amounts
// are int64 minor currency units; floats never touch the ledger.
package models
