// Package offsets builds row-position to byte-offset tables for column files.
//
// An offset table lets a scan jump straight to any row of a column file
// without re-reading the rows before it. Tables are built once per session by
// a single linear pass over each file and are immutable afterwards.
//
// The Store owns the tables for one column store directory. It replaces any
// process-wide lookup: callers construct a Store, build it, and hand it to the
// scan engine.
//
// Tables can optionally be cached next to the column files as zstd-compressed
// sidecars (<column>.idx). A sidecar is trusted only when the size and
// modification time recorded in its header still match the column file;
// otherwise it is rebuilt.
package offsets
