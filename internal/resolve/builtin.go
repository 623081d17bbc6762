package resolve

import "github.com/sunholo/hirgo/internal/hir"

// MetadataKind is the "pointer metadata" shape of a type — None for
// statically-sized types, and one of the unsized-metadata shapes
// otherwise (§3.2, §6.3's `metadata_type`).
type MetadataKind uint8

const (
	MetadataNone MetadataKind = iota
	MetadataSlice
	MetadataTraitObject
	MetadataUnknown // generic/opaque whose sizedness this resolver can't yet see
)

// MetadataType implements §6.3's `metadata_type` query, the basis for
// `type_is_sized` (§4.5: "Sized: derived from metadata_type(ty) == None").
func (r *Resolver) MetadataType(ty hir.TypeRef) MetadataKind {
	if !ty.IsValid() {
		return MetadataNone
	}
	switch ty.Kind() {
	case hir.TySlice:
		return MetadataSlice
	case hir.TyPrimitive:
		if ty.PrimitiveOf() == hir.PrimStr {
			return MetadataSlice
		}
		return MetadataNone
	case hir.TyTraitObject:
		return MetadataTraitObject
	case hir.TyErasedType:
		if !ty.ErasedSizedOf() {
			return MetadataUnknown
		}
		return MetadataNone
	case hir.TyGeneric:
		if r.genericIsSized(ty.GenericOf()) {
			return MetadataNone
		}
		return MetadataUnknown
	case hir.TyPath:
		if ty.BindingOf().State == hir.BindingStruct {
			str := r.lookupStruct(ty.BindingOf().Item)
			if str != nil {
				switch str.StructMarkings.DstType {
				case hir.DstNone:
					return MetadataNone
				case hir.DstSlice:
					return MetadataSlice
				case hir.DstTraitObject:
					return MetadataTraitObject
				case hir.DstPossible:
					fields := ty.PathOf().Generic.Params.Types
					idx := str.StructMarkings.UnsizedParam
					if idx >= 0 && idx < len(fields) {
						return r.MetadataType(fields[idx])
					}
				}
			}
		}
		if ty.BindingOf().State == hir.BindingOpaque {
			return MetadataUnknown
		}
		return MetadataNone
	default:
		return MetadataNone
	}
}

// genericIsSized looks up the `?Sized` flag recorded against a generic
// parameter's definition (§3.3's TypeParamDef.IsSized), or — for Self —
// the resolver's configured SelfMetadata (§4.5's "Self uses the
// resolver's configured m_self_metadata").
func (r *Resolver) genericIsSized(ref hir.GenericRef) bool {
	if ref.IsSelf() {
		return r.SelfMetadata != SelfIsUnsized
	}
	var scope *hir.GenericParams
	switch ref.Group {
	case hir.GroupImpl:
		scope = r.ImplGenerics
	case hir.GroupMethod:
		scope = r.ItemGenerics
	default:
		return true // placeholders and HRB lifetimes carry no sizedness of their own
	}
	if scope == nil || int(ref.Idx) >= len(scope.Types) {
		return true
	}
	return scope.Types[ref.Idx].IsSized
}

// TypeIsSized is `type_is_sized` (§6.3).
func (r *Resolver) TypeIsSized(ty hir.TypeRef) bool {
	return r.MetadataType(ty) == MetadataNone
}

// TypeIsCopy is `type_is_copy` (§6.3, §4.5's Copy predicate).
func (r *Resolver) TypeIsCopy(ty hir.TypeRef) bool {
	if !ty.IsValid() {
		return false
	}
	key := ty.Hash()
	r.mu.Lock()
	if c, ok := r.copyCache[key]; ok {
		r.mu.Unlock()
		return c == CompareEqual
	}
	r.mu.Unlock()

	c := r.computeCopy(ty)
	r.mu.Lock()
	r.copyCache[key] = c
	r.mu.Unlock()
	return c == CompareEqual
}

func (r *Resolver) computeCopy(ty hir.TypeRef) Compare {
	switch ty.Kind() {
	case hir.TyPrimitive:
		if ty.PrimitiveOf() == hir.PrimStr {
			return CompareUnequal
		}
		return CompareEqual
	case hir.TyBorrow:
		if ty.BorrowKindOf() == hir.BorrowShared {
			return CompareEqual
		}
		return CompareUnequal
	case hir.TyPointer, hir.TyNamedFunction, hir.TyFunction:
		return CompareEqual
	case hir.TyArray:
		if ty.IsArrayOfSizeZero() {
			return CompareEqual // §3.2 invariant (c)
		}
		return boolCompare(r.TypeIsCopy(ty.InnerOf()))
	case hir.TyTuple:
		for _, e := range ty.ElemsOf() {
			if !r.TypeIsCopy(e) {
				return CompareUnequal
			}
		}
		return CompareEqual
	case hir.TyClosure:
		return boolCompare(ty.ClosureCopyOf())
	case hir.TyGenerator:
		return CompareUnequal
	case hir.TyPath:
		return r.nominalMarkerState(hir.SimplePath{}, LangCopy, ty, func(str *hir.Struct) bool { return str.Markings.IsCopy })
	default:
		return CompareUnequal
	}
}

// TypeIsClone is `type_is_clone` (§6.3). Same shape as Copy (§4.5): the
// blanket tuple/array/fn-ptr/closure cases mirror Copy's structural
// recursion, and nominal types fall back to an explicit Clone impl.
func (r *Resolver) TypeIsClone(ty hir.TypeRef) bool {
	if !ty.IsValid() {
		return false
	}
	key := ty.Hash()
	r.mu.Lock()
	if c, ok := r.cloneCache[key]; ok {
		r.mu.Unlock()
		return c == CompareEqual
	}
	r.mu.Unlock()

	c := r.computeClone(ty)
	r.mu.Lock()
	r.cloneCache[key] = c
	r.mu.Unlock()
	return c == CompareEqual
}

func (r *Resolver) computeClone(ty hir.TypeRef) Compare {
	switch ty.Kind() {
	case hir.TyTuple:
		for _, e := range ty.ElemsOf() {
			if !r.TypeIsClone(e) {
				return CompareUnequal
			}
		}
		return CompareEqual
	case hir.TyArray:
		return boolCompare(r.TypeIsClone(ty.InnerOf()))
	case hir.TyFunction, hir.TyNamedFunction:
		return CompareEqual
	case hir.TyClosure:
		return boolCompare(ty.ClosureCopyOf())
	default:
		if r.TypeIsCopy(ty) {
			return CompareEqual
		}
		if path, ok := simplePathOf(ty); ok {
			if cloneTrait, ok2 := r.Crate.LangItems[LangClone]; ok2 {
				found := r.FindImpl(cloneTrait, nil, ty, func(ImplRef, bool) bool { return true }, true)
				if found {
					return CompareEqual
				}
			}
			_ = path
		}
		return CompareUnequal
	}
}

// nominalMarkerState answers a marker query for a nominal (Path) type by
// fast-rejecting via the struct's cached marking, then falling back to a
// genuine impl search.
func (r *Resolver) nominalMarkerState(_ hir.SimplePath, langKey string, ty hir.TypeRef, fastReject func(*hir.Struct) bool) Compare {
	if ty.BindingOf().State == hir.BindingStruct {
		if str := r.lookupStruct(ty.BindingOf().Item); str != nil && fastReject(str) {
			return CompareEqual
		}
	}
	traitPath, ok := r.Crate.LangItems[langKey]
	if !ok {
		return CompareUnequal
	}
	if r.FindImpl(traitPath, nil, ty, func(ImplRef, bool) bool { return true }, true) {
		return CompareEqual
	}
	return CompareUnequal
}

func boolCompare(b bool) Compare {
	if b {
		return CompareEqual
	}
	return CompareUnequal
}

// CanUnsize implements the `Unsize` predicate's seven cases (§4.5).
func (r *Resolver) CanUnsize(dst, src hir.TypeRef) bool {
	if dst.Equal(src) {
		return true // (a)
	}
	for _, b := range r.EnvBounds { // (b)
		if b.Type.Equal(src) && r.langIs(LangUnsize, b.Trait.Path.Path) {
			if len(b.Trait.Path.Params.Types) == 1 && b.Trait.Path.Params.Types[0].Equal(dst) {
				return true
			}
		}
	}
	if src.Kind() == hir.TyPath && src.BindingOf().State == hir.BindingOpaque { // (c)
		if eq, ok := src.PathOf().UfcsTrait.TypeBounds["Unsize"]; ok && eq.Type.Equal(dst) {
			return true
		}
	}
	if dst.Kind() == hir.TyPath && src.Kind() == hir.TyPath && dst.BindingOf().State == hir.BindingStruct && src.BindingOf().State == hir.BindingStruct { // (d)
		dstPath, srcPath := dst.PathOf().Generic, src.PathOf().Generic
		if dstPath.Path.Equal(srcPath.Path) {
			str := r.lookupStruct(src.BindingOf().Item)
			if str != nil && str.StructMarkings.CanUnsize {
				idx := str.StructMarkings.UnsizedParam
				if idx >= 0 && idx < len(dstPath.Params.Types) && idx < len(srcPath.Params.Types) {
					return r.CanUnsize(dstPath.Params.Types[idx], srcPath.Params.Types[idx])
				}
			}
		}
	}
	if dst.Kind() == hir.TyTraitObject && src.Kind() == hir.TyTraitObject { // (e)
		return r.dynUnsizesToDyn(dst, src)
	}
	if dst.Kind() == hir.TyTraitObject && src.Kind() != hir.TyTraitObject { // (f)
		principal := dst.ObjTraitOf()
		if r.FindImpl(principal.Path.Path, &principal.Path.Params, src, func(ImplRef, bool) bool { return true }, false) {
			allOk := true
			for _, mk := range dst.ObjMarkersOf() {
				if !r.FindImpl(mk.Path.Path, &mk.Path.Params, src, func(ImplRef, bool) bool { return true }, false) {
					allOk = false
					break
				}
			}
			if allOk {
				return true
			}
		}
	}
	if dst.Kind() == hir.TySlice && src.Kind() == hir.TyArray { // (g)
		return dst.InnerOf().Equal(src.InnerOf())
	}
	return false
}

func (r *Resolver) dynUnsizesToDyn(dst, src hir.TypeRef) bool {
	srcPrincipal := src.ObjTraitOf()
	dstPrincipal := dst.ObjTraitOf()
	related := srcPrincipal.Path.Path.Equal(dstPrincipal.Path.Path)
	if !related {
		if tr := r.trait(srcPrincipal.Path.Path); tr != nil {
			for _, p := range tr.AllParentTraits {
				if p.Path.Path.Equal(dstPrincipal.Path.Path) {
					related = true
					break
				}
			}
		}
	}
	if !related {
		return false
	}
	dstMarkers := make(map[string]bool, len(dst.ObjMarkersOf()))
	for _, m := range dst.ObjMarkersOf() {
		dstMarkers[m.Path.Path.String()] = true
	}
	srcMarkers := make(map[string]bool, len(src.ObjMarkersOf()))
	for _, m := range src.ObjMarkersOf() {
		srcMarkers[m.Path.Path.String()] = true
	}
	for k := range dstMarkers {
		if !srcMarkers[k] {
			return false
		}
	}
	return true
}

// TypeIsInteriorMutable is `type_is_interior_mutable` (§6.3). Per §9's
// open question, `&mut T` is deliberately treated as NOT interior
// mutable here (Unequal), matching the UnsafeCell definition of interior
// mutability even though it may surprise callers reasoning about
// aliasing — the spec calls this out as correct-but-surprising, and this
// port keeps the documented behaviour rather than "fixing" it.
func (r *Resolver) TypeIsInteriorMutable(ty hir.TypeRef) Compare {
	if !ty.IsValid() {
		return CompareUnequal
	}
	switch ty.Kind() {
	case hir.TyTuple:
		out := CompareEqual
		any := false
		for _, e := range ty.ElemsOf() {
			c := r.TypeIsInteriorMutable(e)
			if c == CompareEqual {
				any = true
			}
			out = Worse(out, c)
		}
		if !any {
			return CompareUnequal
		}
		return out
	case hir.TyArray, hir.TySlice:
		return r.TypeIsInteriorMutable(ty.InnerOf())
	case hir.TyBorrow:
		if ty.BorrowKindOf() == hir.BorrowShared {
			return r.TypeIsInteriorMutable(ty.InnerOf())
		}
		return CompareUnequal
	case hir.TyPath:
		if unsafeCell, ok := r.Crate.LangItems[LangUnsafeCell]; ok {
			if p, ok2 := simplePathOf(ty); ok2 && p.Equal(unsafeCell) {
				return CompareEqual
			}
		}
		if ty.BindingOf().State == hir.BindingStruct {
			str := r.lookupStruct(ty.BindingOf().Item)
			if str == nil {
				return CompareUnequal
			}
			out := CompareUnequal
			for _, f := range r.substitutedFields(ty.PathOf().Generic, str) {
				out = Worse(out, r.TypeIsInteriorMutable(f))
			}
			return out
		}
		return CompareUnequal
	default:
		return CompareUnequal
	}
}

// TypeNeedsDropGlue is `type_needs_drop_glue` (§6.3): true when ty or any
// reachable field carries an explicit Drop impl.
func (r *Resolver) TypeNeedsDropGlue(ty hir.TypeRef) bool {
	if !ty.IsValid() {
		return false
	}
	key := ty.Hash()
	r.mu.Lock()
	if c, ok := r.dropCache[key]; ok {
		r.mu.Unlock()
		return c == CompareEqual
	}
	r.mu.Unlock()
	c := r.computeDropGlue(ty, make(map[string]bool))
	r.mu.Lock()
	r.dropCache[key] = c
	r.mu.Unlock()
	return c == CompareEqual
}

func (r *Resolver) computeDropGlue(ty hir.TypeRef, seen map[string]bool) Compare {
	switch ty.Kind() {
	case hir.TyTuple:
		for _, e := range ty.ElemsOf() {
			if r.computeDropGlue(e, seen) == CompareEqual {
				return CompareEqual
			}
		}
		return CompareUnequal
	case hir.TyArray:
		if ty.IsArrayOfSizeZero() {
			return CompareUnequal
		}
		return r.computeDropGlue(ty.InnerOf(), seen)
	case hir.TySlice, hir.TyBorrow, hir.TyPointer:
		return CompareUnequal // slices/refs/raw pointers never own drop glue themselves
	case hir.TyPath:
		if ty.BindingOf().State != hir.BindingStruct && ty.BindingOf().State != hir.BindingEnum {
			return CompareUnequal
		}
		key := ty.BindingOf().Item.String()
		if seen[key] {
			return CompareUnequal
		}
		seen[key] = true
		if str := r.lookupStruct(ty.BindingOf().Item); str != nil {
			if str.Markings.HasDropImpl {
				return CompareEqual
			}
			for _, f := range r.substitutedFields(ty.PathOf().Generic, str) {
				if r.computeDropGlue(f, seen) == CompareEqual {
					return CompareEqual
				}
			}
		}
		if e := r.lookupEnum(ty.BindingOf().Item); e != nil {
			for _, v := range e.Class.DataVariants {
				if vs := r.lookupStruct(v.Type); vs != nil {
					if vs.Markings.HasDropImpl {
						return CompareEqual
					}
					for _, f := range r.substitutedFields(ty.PathOf().Generic, vs) {
						if r.computeDropGlue(f, seen) == CompareEqual {
							return CompareEqual
						}
					}
				}
			}
		}
		return CompareUnequal
	default:
		return CompareUnequal
	}
}

// TypeIsImpossible reports whether ty has no inhabitants (an empty enum,
// or a struct/tuple/array containing one) — used by match-exhaustiveness
// and dead-code diagnostics in the external typeck collaborator (§1);
// this resolver only answers the structural question.
func (r *Resolver) TypeIsImpossible(ty hir.TypeRef) bool {
	return r.computeImpossible(ty, make(map[string]bool))
}

func (r *Resolver) computeImpossible(ty hir.TypeRef, seen map[string]bool) bool {
	switch ty.Kind() {
	case hir.TyDiverge:
		return true
	case hir.TyTuple:
		for _, e := range ty.ElemsOf() {
			if r.computeImpossible(e, seen) {
				return true
			}
		}
		return false
	case hir.TyArray:
		return !ty.IsArrayOfSizeZero() && r.computeImpossible(ty.InnerOf(), seen)
	case hir.TyPath:
		key := ty.BindingOf().Item.String()
		if key == "" || seen[key] {
			return false
		}
		seen[key] = true
		if ty.BindingOf().State == hir.BindingEnum {
			e := r.lookupEnum(ty.BindingOf().Item)
			if e == nil {
				return false
			}
			if e.Class.Kind == hir.EnumClassData {
				return len(e.Class.DataVariants) == 0
			}
			return len(e.Class.Values) == 0
		}
		if ty.BindingOf().State == hir.BindingStruct {
			str := r.lookupStruct(ty.BindingOf().Item)
			if str == nil {
				return false
			}
			for _, f := range r.substitutedFields(ty.PathOf().Generic, str) {
				if r.computeImpossible(f, seen) {
					return true
				}
			}
		}
		return false
	default:
		return false
	}
}
