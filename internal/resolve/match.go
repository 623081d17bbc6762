package resolve

import (
	"github.com/sunholo/hirgo/internal/hir"
	"github.com/sunholo/hirgo/internal/mono"
)

// ImplRefKind tags what an ImplRef actually refers to (§4.5's callback
// contract: "the matched impl plus concrete impl-params, or a reference
// to a bound in the environment").
type ImplRefKind uint8

const (
	ImplRefImpl ImplRefKind = iota
	ImplRefBound
	ImplRefBuiltin
)

// ImplRef is the value FindImpl's callback receives for every candidate
// it reports (§4.5, §6.3).
type ImplRef struct {
	Kind ImplRefKind

	// ImplRefImpl
	TraitImpl  *hir.TraitImpl
	ImplParams hir.PathParams

	// ImplRefBound
	Bound *EnvBound

	// Associated-type bindings this candidate pins, regardless of Kind
	// (§4.5 point 4's trait-object case, the DiscriminantKind/Pointee
	// magic of step 1, and a matched impl's own item table).
	Assoc map[string]hir.TypeRef
}

// FoundCB is `t_cb_find_impl`: invoked once per matching candidate in
// priority order; returning true stops the search (§4.5).
type FoundCB func(ir ImplRef, fuzzy bool) bool

const placeholderBase uint8 = 0x80

// checkTraitImplCandidate implements `find_impl__check_crate_raw`
// (§4.7): unify the impl's Self type and trait arguments against the
// query, allocate placeholders for anything left undetermined, discharge
// the impl's own where-bounds, and — for every Sized-required impl
// param — verify sizedness. Returns ok=false when the candidate does
// not apply at all (Unequal unification or a failed bound/sizedness
// check).
func (r *Resolver) checkTraitImplCandidate(impl *hir.TraitImpl, traitParams *hir.PathParams, ty hir.TypeRef) (ImplRef, bool, Compare) {
	if impl.IsNegative {
		return ImplRef{}, false, CompareUnequal
	}
	asg := newAssignment()

	cmp := unifyType(impl.Type, ty, asg)
	if cmp == CompareUnequal {
		return ImplRef{}, false, CompareUnequal
	}
	if traitParams != nil {
		cmp = Worse(cmp, unifyPathParams(impl.TraitPath.Params, *traitParams, asg))
		if cmp == CompareUnequal {
			return ImplRef{}, false, CompareUnequal
		}
	}

	// §4.7 step 2: allocate placeholders for impl params unification
	// left undetermined, at indices base+i so they never collide with
	// anything already present in trait_params.
	for i := range impl.Params.Types {
		idx := uint8(i)
		if _, ok := asg.Types[idx]; !ok {
			asg.Types[idx] = hir.TGeneric(hir.GenericRef{Name: impl.Params.Types[i].Name, Group: hir.GroupPlaceholder, Idx: placeholderBase + idx})
		}
	}
	for i := range impl.Params.Values {
		idx := uint8(i)
		if _, ok := asg.Values[idx]; !ok {
			asg.Values[idx] = hir.ConstGeneric{Kind: hir.ConstGenericGeneric, Generic: hir.GenericRef{Group: hir.GroupPlaceholder, Idx: placeholderBase + idx}}
		}
	}

	hooks := assignmentHooks{asg: asg}
	m := mono.New(hooks, nil)

	// §4.7 step 3: check the impl's own where-bounds under the
	// discovered (+ placeholder) substitution.
	for _, b := range impl.Params.Bounds {
		if b.Kind != hir.BoundTrait {
			continue
		}
		boundTy := m.MonomorphType(b.TraitType)
		boundTrait := m.MonomorphTraitPath(b.Trait, false)
		if isPlaceholderOnly(boundTy) {
			continue // §4.7 step 3: placeholder-only bound types succeed magically
		}
		ok := r.FindImpl(boundTrait.Path.Path, &boundTrait.Path.Params, boundTy, func(ImplRef, bool) bool { return true }, false)
		if !ok {
			return ImplRef{}, false, CompareUnequal
		}
	}

	// §4.7 step 4: Sized verification for every impl param so marked.
	for i, tp := range impl.Params.Types {
		if !tp.IsSized {
			continue
		}
		bound := asg.Types[uint8(i)]
		if isPlaceholderOnly(bound) {
			continue
		}
		if !r.TypeIsSized(bound) {
			return ImplRef{}, false, CompareUnequal
		}
	}

	implParams := hir.PathParams{
		Types:  make([]hir.TypeRef, len(impl.Params.Types)),
		Values: make([]hir.ConstGeneric, len(impl.Params.Values)),
	}
	for i := range implParams.Types {
		implParams.Types[i] = asg.Types[uint8(i)]
	}
	for i := range implParams.Values {
		implParams.Values[i] = asg.Values[uint8(i)]
	}

	assoc := make(map[string]hir.TypeRef, len(impl.Items))
	for name, item := range impl.Items {
		if item.Kind == hir.TraitItemType && item.AtyDefault != nil {
			assoc[name] = m.MonomorphType(*item.AtyDefault)
		}
	}

	return ImplRef{Kind: ImplRefImpl, TraitImpl: impl, ImplParams: implParams, Assoc: assoc}, true, cmp
}

// isPlaceholderOnly reports whether t is exactly a GroupPlaceholder
// reference with no further structure — the case §4.7 step 3 exempts
// from bound discharge.
func isPlaceholderOnly(t hir.TypeRef) bool {
	return t.IsValid() && t.Kind() == hir.TyGeneric && t.GenericOf().Group == hir.GroupPlaceholder
}

// assignmentHooks adapts an Assignment to mono.Hooks so the impl's
// bounds and associated-type defaults can be substituted with the
// parameters this match discovered (§4.7 step 3).
type assignmentHooks struct {
	asg *Assignment
}

func (h assignmentHooks) GetType(ref hir.GenericRef) hir.TypeRef {
	if ref.Group == hir.GroupImpl {
		if t, ok := h.asg.Types[ref.Idx]; ok {
			return t
		}
	}
	return hir.TGeneric(ref)
}

func (h assignmentHooks) GetValue(ref hir.GenericRef) hir.ConstGeneric {
	if ref.Group == hir.GroupImpl {
		if v, ok := h.asg.Values[ref.Idx]; ok {
			return v
		}
	}
	return hir.ConstGeneric{Kind: hir.ConstGenericGeneric, Generic: ref}
}

func (h assignmentHooks) GetLifetime(ref hir.GenericRef) hir.LifetimeRef {
	return hir.LifetimeRef{Binding: ref}
}
