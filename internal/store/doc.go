// Package store implements the price ledger on PostgreSQL.
//
// The ledger is append-only: every accepted price becomes one row in
// mazaneh_prices with an auto-assigned, strictly increasing id. After each
// append the on-disk size of the table is measured; once it reaches the
// configured ceiling the oldest fraction of rows (by id) is deleted in a
// single transaction and, optionally, the table is compacted with
// VACUUM FULL so the measured size actually drops.
//
// Appends, rotations and latest-row reads are serialized by a mutex and each
// runs inside its own transaction.
package store
