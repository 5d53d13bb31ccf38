// Package ingest turns a row-oriented resale CSV into a column store.
//
// Ingestion runs once per dataset: SortByMonth orders the rows by their
// YYYY-MM month so that each year occupies a contiguous block, then Split
// writes one file per header column with one cell per line. Cells that are
// blank or not well-formed for their column are replaced by the sentinel
// and reported, so every column file has exactly one line per source row.
package ingest
