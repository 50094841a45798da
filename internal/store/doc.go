// Package store persists finalized records as container files: a
// hierarchical layout of groups, datasets and attributes flattened onto
// a single SQLite database keyed by slash-separated paths.
//
// A single-run container keeps its file-scope attributes on the root
// path "/". A batch container holds one top-level group per run, named
// by run ID, with that run's file-scope attributes on the group itself.
// Group and attribute names are the interchange contract; renaming them
// breaks every existing file.
//
// Numeric payloads are stored as canonical JSON text so that identical
// records produce byte-identical containers.
package store
