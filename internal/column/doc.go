// Package column describes the on-disk column store.
//
// A column store is a directory holding one plain-text file per field. Line i
// of every file describes logical row i, so a row position addresses the same
// record across all files:
//
//	column_store/
//	  month.csv            2021-01
//	  town.csv             BEDOK
//	  floor_area_sqm.csv   85
//	  resale_price.csv     500000
//
// Cells that were blank or failed validation during ingestion hold the
// sentinel value "na". Files are written once and are read-only afterwards.
package column
