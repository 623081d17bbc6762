// Package schema names the forward-compatible version strings stamped
// into this module's artefacts: the crate metadata stream and the
// metadata debug dump (both internal/metadata).
//
// Grounded on the teacher's internal/schema registry (Accepts' prefix
// rule for tolerating minor-version growth without breaking readers),
// narrowed to the two artefacts this pipeline actually emits.
package schema

import "strings"

const (
	// MetaV1 is the schema string written at the head of every crate
	// metadata stream (§6.1, §10.3).
	MetaV1 = "hirgo.meta/v1"
	// IndexV1 is the schema string reported by internal/metadata's
	// human-readable debug dump (§10.3).
	IndexV1 = "hirgo.index/v1"
)

// Accepts reports whether got is compatible with wantPrefix: an exact
// match, or a minor-version extension of it ("hirgo.meta/v1.2" accepts
// "hirgo.meta/v1"), mirroring the teacher's forward-compatible prefix
// rule.
func Accepts(got, wantPrefix string) bool {
	if got == wantPrefix {
		return true
	}
	return strings.HasPrefix(got, wantPrefix+".")
}
