// Package diag provides centralized error code definitions and a typed
// error for the HIR/resolver/codec pipeline. All error codes follow a
// consistent taxonomy so tooling can pattern-match on the phase that
// raised them (§7).
package diag

// Error code constants organised by phase. Each constant names a specific
// failure condition described in spec §7.

const (
	// ============================================================================
	// Lowering errors (LOW1xx) — §7.1, fatal semantic errors
	// ============================================================================

	// LOW101 indicates a duplicate name was defined twice in one module.
	LOW101 = "LOW101"
	// LOW102 indicates a bound-type generic parameter value is out of range.
	LOW102 = "LOW102"
	// LOW104 indicates `Self` was used outside of a trait or impl.
	LOW104 = "LOW104"
	// LOW105 indicates conflicting lang-item definitions across crates.
	LOW105 = "LOW105"
	// LOW106 indicates an attribute was applied to the wrong shape of item.
	LOW106 = "LOW106"
	// LOW107 indicates an array-size literal overflowed its target width.
	LOW107 = "LOW107"
	// LOW108 indicates a `Custom` receiver whose type never reaches Self.
	LOW108 = "LOW108"

	// ============================================================================
	// HIR invariant breaches (HIR0xx) — §7.2, internal, never user-facing
	// ============================================================================

	// HIR001 indicates a UfcsUnknown path reached a pass that requires it
	// to have already been resolved.
	HIR001 = "HIR001"
	// HIR002 indicates an Opaque type binding appeared on a path that is
	// not UfcsKnown.
	HIR002 = "HIR002"
	// HIR003 indicates a TraitPath.trait_ptr was dereferenced before the
	// post-load pass populated it.
	HIR003 = "HIR003"

	// ============================================================================
	// Module index errors (IDX2xx) — §4.4, §7.1
	// ============================================================================

	// IDX201 indicates two distinct definitions collided under one name.
	IDX201 = "IDX201"
	// IDX202 indicates a glob-import chain could not be normalised.
	IDX202 = "IDX202"
	// IDX203 indicates an Import entry's chain did not terminate.
	IDX203 = "IDX203"

	// ============================================================================
	// Resolver invariant breaches (RES3xx) — §6.3, §7, propagation policy
	// ============================================================================

	// RES301 indicates find_impl was asked to resolve a still-unresolved
	// UfcsUnknown path; resolver queries never error, this is the sole
	// internal-invariant exception carved out by §7.2.
	RES301 = "RES301"

	// ============================================================================
	// Codec errors (COD4xx) — §4.1, §6.1, §7.3
	// ============================================================================

	// COD401 indicates a bad magic / header mismatch.
	COD401 = "COD401"
	// COD402 indicates an unrecognised object-framing tag byte.
	COD402 = "COD402"
	// COD403 indicates a dictionary index out of range.
	COD403 = "COD403"
	// COD404 indicates the stream ended before the expected data.
	COD404 = "COD404"
	// COD405 indicates an unrecognised variant tag for a tagged union.
	COD405 = "COD405"
	// COD406 indicates an open_object name did not match the expected
	// class name.
	COD406 = "COD406"
	// COD407 indicates a malformed bool byte (not 0x00 or 0xFF).
	COD407 = "COD407"
	// COD408 indicates a metadata file's schema string is not accepted by
	// the reader's expected schema prefix.
	COD408 = "COD408"
)
