// Package record defines the validated run record: scalar inputs, input
// distribution, lattice reference, outputs, summary and run metadata,
// with a content-addressed ID derived from canonical serialization.
//
// A record moves Empty -> Populated -> Finalized. Population operations
// validate incrementally; Finalize re-runs every validator strictly,
// fixes the ID and extracts the summary. Only Finalized records are
// eligible for persistence (see the store package).
//
// All validation failures are *ValidationError values carrying a Kind
// (type, value, internal) and a stable code. Validators fail fast and
// never coerce silently; the only documented normalizations are SI
// prefix folding and the custom-unit fallback.
package record
