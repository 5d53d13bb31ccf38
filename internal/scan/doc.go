// Package scan evaluates fixed-shape resale queries over a column store.
//
// Two algorithms are provided and must return the same multiset of
// (price, area) pairs for the same query and row range:
//
//   - MultiStage evaluates one column at a time. The month column is streamed
//     over the range; every later stage reads only the surviving row
//     positions, seeking through the offset index. Survivor sets are roaring
//     bitmaps and each stage's set is a subset of the previous one.
//
//   - Shared opens the four column files and reads them in lock-step, one row
//     from each per iteration, evaluating the whole predicate in one pass.
//
// A non-zero range start is reached with a single seek per file followed by
// buffered sequential reads.
//
// # Row errors
//
// A sentinel or malformed cell at a row the predicate needs is not fatal: the
// row is excluded, counted in Report.Skipped and the scan continues. Both
// algorithms evaluate predicates in the same order (month, town, area,
// price) and stop at the first failing one, so they examine the same cells
// and report the same skip count. IO failures and missing indexes abort the
// scan.
//
// # Strategies
//
// Engine runs a scan under one of four strategies: multi-stage or shared, each
// over the whole file or restricted to the zone of the query year.
package scan
