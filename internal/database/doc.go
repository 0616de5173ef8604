// Package database provides the PostgreSQL connection pool for the price ledger.
//
// The relay keeps a single pool; the store owns the schema it writes to.
package database
