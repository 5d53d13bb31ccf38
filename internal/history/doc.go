// Package history records scan runs in a SQLite database.
//
// Every strategy execution is one row in the runs table, keyed by a
// time-sortable UUIDv7. Listings are ordered by creation time then id so two
// reads of the same database always agree.
package history
