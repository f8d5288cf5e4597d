// Package storage owns the SQLite file behind the banking schema: the single
// connection lifecycle, idempotent schema provisioning, and typed inserts and
// lookups for the seeded entities.
package storage
