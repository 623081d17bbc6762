package resolve

import "github.com/sunholo/hirgo/internal/hir"

// MoreSpecificThan is `trait_impl_more_specific` (§4.9): reports whether
// impl a would be selected over impl b were both to apply to the same
// concrete type — a is more specific exactly when a's Self/trait-args
// unify against b's pattern (treating b's own generic params as
// wildcards) but not vice versa.
//
// Per §9's open question on "mixed orderings" (an impl more specific in
// its Self type but less specific in a trait argument, or vice versa):
// this resolver requires BOTH the Self type and every trait argument to
// be at-least-as-specific, and strictly more specific in at least one
// position, rather than picking a single dominant axis — an impl that is
// more specific in one position and less specific in another is treated
// as incomparable (neither more specific), which OverlapsWith then
// reports as a genuine coherence conflict rather than silently picking a
// winner.
func MoreSpecificThan(a, b *hir.TraitImpl) bool {
	aMatch := matchesPattern(b.Type, a.Type) && matchesParamsPattern(b.TraitPath.Params, a.TraitPath.Params)
	bMatch := matchesPattern(a.Type, b.Type) && matchesParamsPattern(a.TraitPath.Params, b.TraitPath.Params)
	return aMatch && !bMatch
}

// matchesPattern reports whether concrete unifies against pattern's
// shape, treating every GroupImpl generic reference in pattern as a
// wildcard (so a fully generic impl's pattern matches anything) while
// requiring concrete to carry no unresolved generics of its own in the
// corresponding position — a plain one-directional structural match, not
// a full unify (a specialisation check has no substitution to hand back).
func matchesPattern(pattern, concrete hir.TypeRef) bool {
	asg := newAssignment()
	return unifyType(pattern, concrete, asg) != CompareUnequal
}

func matchesParamsPattern(pattern, concrete hir.PathParams) bool {
	if len(pattern.Types) != len(concrete.Types) || len(pattern.Values) != len(concrete.Values) {
		return false
	}
	asg := newAssignment()
	for i := range pattern.Types {
		if unifyType(pattern.Types[i], concrete.Types[i], asg) == CompareUnequal {
			return false
		}
	}
	return true
}

// OverlapsWith is `trait_impls_overlap` (§4.9): two impls of the same
// trait overlap (a coherence violation, unless one is specialisable and
// strictly more specific than the other) when either impl's Self type and
// trait arguments unify against the other's (both orderings are tried).
func OverlapsWith(a, b *hir.TraitImpl) bool {
	if a.IsNegative || b.IsNegative {
		return false // a negative impl never conflicts; it asserts absence
	}
	fwd := newAssignment()
	matched := unifyType(a.Type, b.Type, fwd) != CompareUnequal && unifyPathParams(a.TraitPath.Params, b.TraitPath.Params, fwd) != CompareUnequal
	if !matched {
		rev := newAssignment()
		matched = unifyType(b.Type, a.Type, rev) != CompareUnequal && unifyPathParams(b.TraitPath.Params, a.TraitPath.Params, rev) != CompareUnequal
	}
	if !matched {
		return false
	}
	if a.IsSpecialisable && MoreSpecificThan(b, a) {
		return false
	}
	if b.IsSpecialisable && MoreSpecificThan(a, b) {
		return false
	}
	return true
}
