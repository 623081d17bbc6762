// Package digest provides deterministic content hashing used two ways in
// this module: the crate impl-group bucket key (§4.9, "impl groups keyed
// by the sort-path of the impl's Self type") and the interface digest
// attached to a crate's metadata for quick external-change detection.
// Adapted from the teacher's internal/sid stable-identifier hashing
// (same canonicalise-then-sha256 shape, retargeted from AST node spans to
// HIR path content).
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Digest is a short, stable, content-derived identifier.
type Digest string

// Of hashes the given parts, joined by "|", the same separator convention
// the teacher's sid package used for (path, span, kind, childPath) tuples.
func Of(parts ...string) Digest {
	input := strings.Join(parts, "|")
	sum := sha256.Sum256([]byte(input))
	return Digest(hex.EncodeToString(sum[:])[:16])
}
