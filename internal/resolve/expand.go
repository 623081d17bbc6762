package resolve

import "github.com/sunholo/hirgo/internal/hir"

// ExpandAssociatedTypesSingle resolves a single UfcsKnown projection
// `<Type as Trait>::Item` to its concrete type, or returns ty unchanged
// if it isn't a projection at all (§4.8, §6.3).
//
// Resolution order: the atyCache (memoising prior work within this
// Resolver's lifetime), then the environment's own pinned bounds (§4.8:
// "a bound already equates this associated type — use it directly,
// skipping a full impl search"), then a genuine FindImpl whose matched
// candidate's Assoc table supplies the projection. A projection this
// resolver cannot settle collapses to an Opaque binding rather than
// erroring — callers query BindingOf().State to tell the difference.
func (r *Resolver) ExpandAssociatedTypesSingle(ty hir.TypeRef) hir.TypeRef {
	if !ty.IsValid() || ty.Kind() != hir.TyPath {
		return ty
	}
	p := ty.PathOf()
	if p.Kind != hir.PathUfcsKnown {
		return ty
	}
	return r.expandProjection(p, make(map[string]bool))
}

func (r *Resolver) expandProjection(p hir.Path, stack map[string]bool) hir.TypeRef {
	key := p.String()
	r.mu.Lock()
	if cached, ok := r.atyCache[key]; ok {
		r.mu.Unlock()
		return cached
	}
	r.mu.Unlock()

	if stack[key] {
		// §4.8's loop guard: a projection that depends on itself settles
		// to Opaque rather than recursing forever.
		return hir.TPath(p, hir.TypeBinding{State: hir.BindingOpaque})
	}
	stack[key] = true
	defer delete(stack, key)

	itemName := p.UfcsItem.Raw()
	traitPath := p.UfcsTrait.Path.Path

	// §4.8 step 1: the projection's own Self and trait arguments may
	// themselves carry unresolved projections (`<<A as Tr1>::X as
	// Tr2>::Y`) — expand those first so every lookup below searches
	// against concrete types rather than a stale opaque placeholder.
	selfTy := r.ExpandAssociatedTypes(p.UfcsType)
	traitParams := r.expandPathParams(p.UfcsTrait.Path.Params)

	// Environment shortcut: the bound itself may already equate this
	// projection (`where Self::Item = Concrete`), which is cheaper and
	// more general than a full impl search when the Self type is opaque.
	for _, b := range r.EnvBounds {
		if !b.Type.Equal(selfTy) || !b.Trait.Path.Path.Equal(traitPath) {
			continue
		}
		if eq, ok := b.Trait.TypeBounds[itemName]; ok {
			return r.settle(key, r.resolveNested(eq.Type, stack))
		}
	}

	// §4.8 step 6: a projection nested inside another unresolved
	// projection can sometimes be read straight off the containing
	// trait's own associated-type bound, without an impl search at all —
	// when `<A as Tr1>::X: Tr2<Y = Concrete>` is pinned directly on Tr1's
	// definition of X, that bound already answers `<X as Tr2>::Y`.
	if selfTy.Kind() == hir.TyPath && selfTy.BindingOf().State == hir.BindingOpaque {
		inner := selfTy.PathOf()
		if ab, ok := inner.UfcsTrait.TraitBounds[inner.UfcsItem.Raw()]; ok && ab.Trait.Path.Path.Equal(traitPath) {
			if eq, ok := ab.Trait.TypeBounds[itemName]; ok {
				return r.settle(key, r.resolveNested(eq.Type, stack))
			}
		}
	}

	// §4.8 step 4's closure/trait-object shortcuts are exercised here
	// through FindImpl itself: findImplBuiltin's Fn/FnMut/FnOnce case
	// attaches Output for a closure or function pointer, and FindImpl's
	// own TraitObject/ErasedType case (§4.5 step 4) attaches a dyn
	// Trait's pinned associated-type bounds — both arrive as an exact
	// (non-fuzzy) ImplRef.Assoc hit below, with no separate fast path
	// needed in this function.
	var found hir.TypeRef
	var haveExact, haveFuzzy bool
	r.FindImpl(traitPath, &traitParams, selfTy, func(ir ImplRef, fuzzy bool) bool {
		t, has := ir.Assoc[itemName]
		if !has {
			return false
		}
		if fuzzy {
			// §4.8 step 7's specialisability tracking: remember the first
			// fuzzy hit as a fallback, but keep searching — an exact
			// match elsewhere always wins over a fuzzy one.
			if !haveFuzzy {
				haveFuzzy, found = true, t
			}
			return false
		}
		haveExact, found = true, t
		return true
	}, false)

	if haveExact {
		return r.settle(key, r.resolveNested(found, stack))
	}
	if haveFuzzy {
		// Only a fuzzy (specialisable) candidate matched — a more
		// specific impl could still apply once its generics are pinned
		// down, so this is "not yet known" rather than genuinely
		// unresolvable: leave the projection unexpanded and uncached,
		// using BindingUnbound (rather than inventing a third
		// BindingState) to mean "not yet settled", distinct from
		// BindingOpaque's "settled, unresolvable".
		return hir.TPath(p, hir.TypeBinding{State: hir.BindingUnbound})
	}
	return r.settle(key, hir.TPath(p, hir.TypeBinding{State: hir.BindingOpaque}))
}

// resolveNested re-applies projection expansion to the result of a
// resolved associated type, in case it is itself (or contains) another
// projection — §4.8's idempotence requirement: expanding an
// already-expanded type must be a no-op, and expanding a type one level
// away from fully expanded must reach the same fixed point either way.
func (r *Resolver) resolveNested(ty hir.TypeRef, stack map[string]bool) hir.TypeRef {
	if !ty.IsValid() || ty.Kind() != hir.TyPath || ty.PathOf().Kind != hir.PathUfcsKnown {
		return ty
	}
	return r.expandProjection(ty.PathOf(), stack)
}

func (r *Resolver) settle(key string, ty hir.TypeRef) hir.TypeRef {
	r.mu.Lock()
	r.atyCache[key] = ty
	r.mu.Unlock()
	return ty
}

// ExpandAssociatedTypes walks ty's full structure, replacing every
// nested UfcsKnown projection with its resolved concrete type (§4.8).
// Nominal type arguments, array/slice/tuple elements, pointee types and
// trait-object bounds are all expanded; a Closure/Generator's captured
// environment is identified by NodeID alone and carries no substructure
// for this pass to rewrite.
func (r *Resolver) ExpandAssociatedTypes(ty hir.TypeRef) hir.TypeRef {
	if !ty.IsValid() {
		return ty
	}
	switch ty.Kind() {
	case hir.TyPath:
		p := ty.PathOf()
		if p.Kind == hir.PathUfcsKnown {
			return r.ExpandAssociatedTypesSingle(ty)
		}
		if p.Kind == hir.PathGeneric {
			gp := p.Generic
			gp.Params = r.expandPathParams(gp.Params)
			return hir.TPath(hir.Path{Kind: hir.PathGeneric, Generic: gp}, ty.BindingOf())
		}
		return ty
	case hir.TyArray:
		return hir.TArray(r.ExpandAssociatedTypes(ty.InnerOf()), ty.SizeOf())
	case hir.TySlice:
		return hir.TSlice(r.ExpandAssociatedTypes(ty.InnerOf()))
	case hir.TyTuple:
		elems := ty.ElemsOf()
		out := make([]hir.TypeRef, len(elems))
		for i, e := range elems {
			out[i] = r.ExpandAssociatedTypes(e)
		}
		return hir.TTuple(out)
	case hir.TyBorrow:
		return hir.TBorrow(ty.BorrowKindOf(), r.ExpandAssociatedTypes(ty.InnerOf()), ty.ObjLifetimeOf())
	case hir.TyPointer:
		return hir.TPointer(ty.PointerKindOf(), r.ExpandAssociatedTypes(ty.InnerOf()))
	default:
		return ty
	}
}

func (r *Resolver) expandPathParams(p hir.PathParams) hir.PathParams {
	out := hir.PathParams{Lifetimes: p.Lifetimes, Values: p.Values}
	if len(p.Types) > 0 {
		out.Types = make([]hir.TypeRef, len(p.Types))
		for i, t := range p.Types {
			out.Types[i] = r.ExpandAssociatedTypes(t)
		}
	}
	return out
}
