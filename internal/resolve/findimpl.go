package resolve

import "github.com/sunholo/hirgo/internal/hir"

// FindImpl is `StaticTraitResolve::find_impl` (§4.5, §6.3): find every
// impl of (traitPath, traitParams) for ty, in priority order, invoking cb
// for each; the search stops and FindImpl returns true as soon as cb
// returns true (or as soon as a built-in/shortcut case settles the
// question outright).
//
// dontHandoffToSpecialised skips step 1 (the built-in-trait special
// cases) and goes straight to crate/environment search — set by callers
// already inside built-in handling themselves, to avoid the magic cases
// re-entering their own logic (§4.5: "unless dont_handoff_to_specialised").
func (r *Resolver) FindImpl(traitPath hir.SimplePath, traitParams *hir.PathParams, ty hir.TypeRef, cb FoundCB, dontHandoffToSpecialised bool) bool {
	if !ty.IsValid() {
		return false
	}

	if !dontHandoffToSpecialised {
		if done, ok := r.findImplBuiltin(traitPath, traitParams, ty, cb); ok {
			return done
		}
	}

	// §4.5 step 2: a placeholder Self always "has" every bound an impl
	// search is asked to prove — the caller is working under an opaque
	// monomorphisation and cannot actually fail here.
	if ty.Kind() == hir.TyGeneric && ty.GenericOf().Group == hir.GroupPlaceholder {
		return cb(ImplRef{Kind: ImplRefBuiltin}, true)
	}

	// §4.5 step 4: a TraitObject/ErasedType succeeds for its principal
	// trait, its marker traits, and any supertrait reached through
	// AllParentTraits — the same reachability dynUnsizesToDyn (builtin.go)
	// already walks for unsizing. The matched trait's own TypeBounds
	// supply the object's pinned associated-type bounds, so a caller
	// projecting through a dyn Trait sees them without a crate-wide
	// search, which would never find them: no "impl Trait for dyn Trait"
	// is ever registered in the impl table (AddTraitImpl's one call site
	// is explicit source `impl` items, internal/lower/items.go).
	if ty.Kind() == hir.TyTraitObject || ty.Kind() == hir.TyErasedType {
		principal, markers := objectTraits(ty)
		if matched, ok := r.objectTraitMatch(principal, markers, traitPath); ok {
			return cb(ImplRef{Kind: ImplRefBuiltin, Assoc: atyEqualAssoc(matched)}, false)
		}
	}

	// §4.5 step 5: an opaque UFCS-known projection is only provable via
	// the trait bounds pinned on that very projection.
	if ty.Kind() == hir.TyPath && ty.BindingOf().State == hir.BindingOpaque {
		p := ty.PathOf()
		if bound, ok := p.UfcsTrait.TraitBounds[traitPath.String()]; ok {
			_ = bound
			return cb(ImplRef{Kind: ImplRefBound}, false)
		}
	}

	// §4.5 step 6: marker/auto traits with no positive impl anywhere in
	// the crate fall back to structural destructuring.
	if tr := r.trait(traitPath); tr != nil && tr.IsMarker {
		if r.findImplMarker(traitPath, ty, cb) {
			return true
		}
		if marker, ok := r.tryMarkerDefault(traitPath, traitParams, ty); ok {
			return cb(marker, false)
		}
	}

	// §4.5 step 7: search the crate's impl table, concrete bucket first.
	for _, impl := range r.Crate.TraitImplCandidates(traitPath, ty) {
		ir, applies, cmp := r.checkTraitImplCandidate(impl, traitParams, ty)
		if !applies {
			continue
		}
		if cb(ir, cmp != CompareEqual) {
			return true
		}
	}

	// §4.5 step 8: the generic environment's own bounds.
	for i := range r.EnvBounds {
		b := r.EnvBounds[i]
		if !b.Trait.Path.Path.Equal(traitPath) {
			continue
		}
		cmp := unifyType(b.Type, ty, newAssignment())
		if cmp == CompareUnequal {
			continue
		}
		if traitParams != nil {
			if unifyPathParams(b.Trait.Path.Params, *traitParams, newAssignment()) == CompareUnequal {
				continue
			}
		}
		if cb(ImplRef{Kind: ImplRefBound, Bound: &b}, cmp != CompareEqual) {
			return true
		}
	}

	return false
}

// findImplBuiltin handles §4.5 step 1's built-in traits. The bool result
// reports whether this trait name is one of the built-ins at all: when
// false, FindImpl falls through to the normal search unconditionally.
func (r *Resolver) findImplBuiltin(traitPath hir.SimplePath, traitParams *hir.PathParams, ty hir.TypeRef, cb FoundCB) (done bool, isBuiltin bool) {
	switch {
	case r.langIs(LangCopy, traitPath):
		if r.TypeIsCopy(ty) {
			return cb(ImplRef{Kind: ImplRefBuiltin}, false), true
		}
		return false, true
	case r.langIs(LangClone, traitPath):
		if r.TypeIsClone(ty) {
			return cb(ImplRef{Kind: ImplRefBuiltin}, false), true
		}
		return false, true
	case r.langIs(LangSized, traitPath), r.langIs(LangPointeeSized, traitPath), r.langIs(LangMetadataSized, traitPath):
		if r.TypeIsSized(ty) {
			return cb(ImplRef{Kind: ImplRefBuiltin}, false), true
		}
		return false, true
	case r.langIs(LangUnsize, traitPath):
		if traitParams == nil || len(traitParams.Types) != 1 {
			return false, true
		}
		if r.CanUnsize(traitParams.Types[0], ty) {
			return cb(ImplRef{Kind: ImplRefBuiltin}, false), true
		}
		return false, true
	case r.langIs(LangDiscriminantKind, traitPath):
		assoc := map[string]hir.TypeRef{"Discriminant": r.discriminantType(ty)}
		return cb(ImplRef{Kind: ImplRefBuiltin, Assoc: assoc}, false), true
	case r.langIs(LangPointee, traitPath):
		assoc := map[string]hir.TypeRef{"Metadata": r.metadataAssocType(ty)}
		return cb(ImplRef{Kind: ImplRefBuiltin, Assoc: assoc}, false), true
	case r.langIs(LangFnOnce, traitPath):
		if !isFnFamilyShape(ty) {
			return false, true
		}
		return cb(ImplRef{Kind: ImplRefBuiltin, Assoc: r.fnFamilyAssoc(ty)}, false), true
	case r.langIs(LangFnMut, traitPath):
		if !isFnFamilyShape(ty) || closureClassOf(ty) == hir.ClosureOnce {
			return false, true
		}
		return cb(ImplRef{Kind: ImplRefBuiltin, Assoc: r.fnFamilyAssoc(ty)}, false), true
	case r.langIs(LangFn, traitPath):
		if !isFnFamilyShape(ty) {
			return false, true
		}
		switch closureClassOf(ty) {
		case hir.ClosureMut, hir.ClosureOnce:
			return false, true
		}
		return cb(ImplRef{Kind: ImplRefBuiltin, Assoc: r.fnFamilyAssoc(ty)}, false), true
	case r.langIs(LangTuple, traitPath):
		if ty.Kind() == hir.TyTuple {
			return cb(ImplRef{Kind: ImplRefBuiltin}, false), true
		}
		return false, true
	case r.langIs(LangGenerator, traitPath):
		if ty.Kind() == hir.TyGenerator {
			return cb(ImplRef{Kind: ImplRefBuiltin}, false), true
		}
		return false, true
	default:
		return false, false
	}
}

// discriminantType is DiscriminantKind's `Discriminant` projection: the
// enum's repr integer type, or unit for everything that isn't an enum.
func (r *Resolver) discriminantType(ty hir.TypeRef) hir.TypeRef {
	if ty.Kind() == hir.TyPath && ty.BindingOf().State == hir.BindingEnum {
		if e := r.lookupEnum(ty.BindingOf().Item); e != nil && e.Class.Kind == hir.EnumClassValue {
			return hir.TPrimitive(reprToPrimitive(e.Class.ValueRepr))
		}
		return hir.TPrimitive(hir.PrimISize)
	}
	return hir.TUnit()
}

func reprToPrimitive(r hir.EnumReprKind) hir.PrimitiveKind {
	switch r {
	case hir.EnumReprU8:
		return hir.PrimU8
	case hir.EnumReprU16:
		return hir.PrimU16
	case hir.EnumReprU32:
		return hir.PrimU32
	case hir.EnumReprU64:
		return hir.PrimU64
	case hir.EnumReprI8:
		return hir.PrimI8
	case hir.EnumReprI16:
		return hir.PrimI16
	case hir.EnumReprI32:
		return hir.PrimI32
	case hir.EnumReprI64:
		return hir.PrimI64
	default:
		return hir.PrimISize
	}
}

// metadataAssocType is Pointee's `Metadata` projection.
func (r *Resolver) metadataAssocType(ty hir.TypeRef) hir.TypeRef {
	switch r.MetadataType(ty) {
	case MetadataSlice:
		return hir.TPrimitive(hir.PrimUSize)
	case MetadataTraitObject:
		return ty // an opaque DynMetadata<Self>-shaped placeholder; callers needing the real vtable type resolve it downstream
	default:
		return hir.TUnit()
	}
}

// findImplMarker searches only the marker-impl table (§3.8, §4.6) —
// explicit positive/negative marker impls registered directly, before
// falling back to structural destructuring.
func (r *Resolver) findImplMarker(traitPath hir.SimplePath, ty hir.TypeRef, cb FoundCB) bool {
	for _, impl := range r.Crate.MarkerImpls[traitPath.String()] {
		asg := newAssignment()
		if unifyType(impl.Type, ty, asg) == CompareUnequal {
			continue
		}
		if cb(ImplRef{Kind: ImplRefImpl}, false) {
			return true
		}
	}
	return false
}

// objectTraits splits a TraitObject/ErasedType's trait list into a
// principal trait and its markers, the same split TraitObject already
// stores directly (ObjTrait/ObjMarkers) and ErasedType leaves flat
// (ErasedTraits) — the first trait named by an `impl Trait1 + Trait2`
// erased type is treated as principal, the rest as markers.
func objectTraits(ty hir.TypeRef) (hir.TraitPath, []hir.TraitPath) {
	if ty.Kind() == hir.TyTraitObject {
		return ty.ObjTraitOf(), ty.ObjMarkersOf()
	}
	traits := ty.ErasedTraitsOf()
	if len(traits) == 0 {
		return hir.TraitPath{}, nil
	}
	return traits[0], traits[1:]
}

// objectTraitMatch is §4.5 step 4's reachability test: does traitPath
// name the object's principal trait, one of its markers, or a supertrait
// of the principal reached through AllParentTraits.
func (r *Resolver) objectTraitMatch(principal hir.TraitPath, markers []hir.TraitPath, traitPath hir.SimplePath) (hir.TraitPath, bool) {
	if principal.Path.Path.Equal(traitPath) {
		return principal, true
	}
	for _, m := range markers {
		if m.Path.Path.Equal(traitPath) {
			return m, true
		}
	}
	if tr := r.trait(principal.Path.Path); tr != nil {
		for _, p := range tr.AllParentTraits {
			if p.Path.Path.Equal(traitPath) {
				return p, true
			}
		}
	}
	return hir.TraitPath{}, false
}

// atyEqualAssoc converts a matched trait reference's pinned
// `Type = Concrete` equality bounds into the Assoc table ImplRef
// carries.
func atyEqualAssoc(tp hir.TraitPath) map[string]hir.TypeRef {
	if len(tp.TypeBounds) == 0 {
		return nil
	}
	out := make(map[string]hir.TypeRef, len(tp.TypeBounds))
	for name, eq := range tp.TypeBounds {
		out[name] = eq.Type
	}
	return out
}

// isFnFamilyShape reports whether ty is one of the three callable shapes
// the Fn/FnMut/FnOnce built-ins recognise (§4.5 point 3).
func isFnFamilyShape(ty hir.TypeRef) bool {
	switch ty.Kind() {
	case hir.TyFunction, hir.TyNamedFunction, hir.TyClosure:
		return true
	default:
		return false
	}
}

// closureClassOf is the restriction §4.5 point 3 checks Fn/FnMut against:
// a plain function pointer or named function captures nothing, so it is
// unrestricted exactly like a NoCapture closure; only an actual Closure
// carries its own narrower class.
func closureClassOf(ty hir.TypeRef) hir.ClosureClass {
	if ty.Kind() == hir.TyClosure {
		return ty.ClosureClassOf()
	}
	return hir.ClosureNoCapture
}

// fnFamilyAssoc builds the Fn/FnMut/FnOnce family's `Output` binding from
// ty's return type, when this resolver can see it. A Closure's return
// type lives on the AST/MIR node this HIR only references by NodeID, so
// Output is left unattached for that case — expandProjection then
// collapses a `<Closure as FnOnce<..>>::Output` projection to Opaque
// rather than guessing at it.
func (r *Resolver) fnFamilyAssoc(ty hir.TypeRef) map[string]hir.TypeRef {
	switch ty.Kind() {
	case hir.TyFunction:
		return map[string]hir.TypeRef{"Output": ty.FnOf().Ret}
	case hir.TyNamedFunction:
		if fn := r.lookupFunction(ty.FnDefOf()); fn != nil {
			return map[string]hir.TypeRef{"Output": fn.Ret}
		}
		return nil
	default:
		return nil
	}
}

// tryMarkerDefault is §4.6's destructuring fallback: a marker trait with
// no matching positive impl anywhere is satisfied if every structurally
// reachable field/variant satisfies it too.
func (r *Resolver) tryMarkerDefault(traitPath hir.SimplePath, traitParams *hir.PathParams, ty hir.TypeRef) (ImplRef, bool) {
	cmp := r.checkAutoTraitDestructure(traitPath, traitParams, ty)
	if cmp == CompareUnequal {
		return ImplRef{}, false
	}
	return ImplRef{Kind: ImplRefBuiltin}, true
}
