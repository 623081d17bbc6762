package resolve

import (
	"github.com/sunholo/hirgo/internal/hir"
	"github.com/sunholo/hirgo/internal/mono"
)

// checkAutoTraitDestructure implements §4.6: for a marker trait with no
// matching positive impl, prove membership by structural recursion over
// a Tuple/Array/Path(Struct|Enum|Union)'s fields/variants. UfcsKnown and
// UfcsInherent always return Unequal here (§4.6: "must be handled by
// bounds, not destructuring").
//
// The recursion guard key is (trait, params, type) per §4.5 step 6; a
// cycle is assumed to hold (CompareEqual) rather than looping forever,
// matching the source's "recursion guard... returns true (assume impls)
// when cycling".
func (r *Resolver) checkAutoTraitDestructure(traitPath hir.SimplePath, traitParams *hir.PathParams, ty hir.TypeRef) Compare {
	key := hashKeyFor(traitPath, traitParams, ty)
	r.mu.Lock()
	if r.recGuard[key] {
		r.mu.Unlock()
		return CompareEqual
	}
	r.recGuard[key] = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.recGuard, key)
		r.mu.Unlock()
	}()

	switch ty.Kind() {
	case hir.TyTuple:
		return r.destructureAll(traitPath, traitParams, ty.ElemsOf())
	case hir.TyArray:
		if ty.IsArrayOfSizeZero() {
			return CompareEqual
		}
		return r.checkAutoTraitDestructure(traitPath, traitParams, ty.InnerOf())
	case hir.TySlice:
		return r.checkAutoTraitDestructure(traitPath, traitParams, ty.InnerOf())
	case hir.TyBorrow, hir.TyPointer:
		return r.checkAutoTraitDestructure(traitPath, traitParams, ty.InnerOf())
	case hir.TyPath:
		binding := ty.BindingOf()
		switch binding.State {
		case hir.BindingStruct:
			return r.destructureStruct(traitPath, traitParams, ty)
		case hir.BindingEnum:
			return r.destructureEnum(traitPath, traitParams, ty)
		case hir.BindingUnion:
			return r.destructureUnion(traitPath, traitParams, ty)
		default:
			return CompareUnequal // UfcsKnown/UfcsInherent, opaque, extern type
		}
	case hir.TyPrimitive, hir.TyFunction, hir.TyNamedFunction:
		return CompareEqual // primitives and fn items/pointers are inert w.r.t. markers
	default:
		return CompareUnequal
	}
}

func (r *Resolver) destructureAll(traitPath hir.SimplePath, traitParams *hir.PathParams, fields []hir.TypeRef) Compare {
	out := CompareEqual
	for _, f := range fields {
		out = Worse(out, r.checkAutoTraitDestructure(traitPath, traitParams, f))
		if out == CompareUnequal {
			return CompareUnequal
		}
	}
	return out
}

// substitutedFields substitutes a struct/union's field types (or an
// enum variant struct's) through the path's own generic arguments before
// recursing, per §4.6: "The recursion monomorphises field types through
// the path params before recursing."
func (r *Resolver) substitutedFields(path hir.GenericPath, struc *hir.Struct) []hir.TypeRef {
	m := mono.New(pathParamsHooks{params: path.Params}, nil)
	var out []hir.TypeRef
	switch struc.Data.Kind {
	case hir.StructTuple:
		for _, f := range struc.Data.TupleFields {
			out = append(out, m.MonomorphType(f.Item))
		}
	case hir.StructNamed:
		for _, f := range struc.Data.NamedFields {
			out = append(out, m.MonomorphType(f.Ent.Item))
		}
	}
	return out
}

func (r *Resolver) destructureStruct(traitPath hir.SimplePath, traitParams *hir.PathParams, ty hir.TypeRef) Compare {
	p := ty.PathOf().Generic
	item := r.lookupStruct(ty.BindingOf().Item)
	if item == nil {
		return CompareUnequal
	}
	return r.destructureAll(traitPath, traitParams, r.substitutedFields(p, item))
}

func (r *Resolver) destructureUnion(traitPath hir.SimplePath, traitParams *hir.PathParams, ty hir.TypeRef) Compare {
	p := ty.PathOf().Generic
	u := r.lookupUnion(ty.BindingOf().Item)
	if u == nil {
		return CompareUnequal
	}
	m := mono.New(pathParamsHooks{params: p.Params}, nil)
	var fields []hir.TypeRef
	for _, f := range u.Fields {
		fields = append(fields, m.MonomorphType(f.Ent.Item))
	}
	return r.destructureAll(traitPath, traitParams, fields)
}

func (r *Resolver) destructureEnum(traitPath hir.SimplePath, traitParams *hir.PathParams, ty hir.TypeRef) Compare {
	p := ty.PathOf().Generic
	e := r.lookupEnum(ty.BindingOf().Item)
	if e == nil {
		return CompareUnequal
	}
	if e.Class.Kind == hir.EnumClassValue {
		return CompareEqual // repr-integer enums carry no fields
	}
	out := CompareEqual
	for _, v := range e.Class.DataVariants {
		variantStruct := r.lookupStruct(v.Type)
		if variantStruct == nil {
			continue
		}
		out = Worse(out, r.destructureAll(traitPath, traitParams, r.substitutedFields(p, variantStruct)))
		if out == CompareUnequal {
			return CompareUnequal
		}
	}
	return out
}

// pathParamsHooks substitutes GroupImpl generic refs directly from a
// GenericPath's own PathParams (the "Self" impl scope of whatever item
// the path points at) — the monomorphiser hook used by §4.6's field
// substitution.
type pathParamsHooks struct {
	params hir.PathParams
}

func (h pathParamsHooks) GetType(ref hir.GenericRef) hir.TypeRef {
	if ref.Group == hir.GroupImpl && int(ref.Idx) < len(h.params.Types) {
		return h.params.Types[ref.Idx]
	}
	return hir.TGeneric(ref)
}

func (h pathParamsHooks) GetValue(ref hir.GenericRef) hir.ConstGeneric {
	if ref.Group == hir.GroupImpl && int(ref.Idx) < len(h.params.Values) {
		return h.params.Values[ref.Idx]
	}
	return hir.ConstGeneric{Kind: hir.ConstGenericGeneric, Generic: ref}
}

func (h pathParamsHooks) GetLifetime(ref hir.GenericRef) hir.LifetimeRef {
	if ref.Group == hir.GroupImpl && int(ref.Idx) < len(h.params.Lifetimes) {
		return h.params.Lifetimes[ref.Idx]
	}
	return hir.LifetimeRef{Binding: ref}
}

func hashKeyFor(traitPath hir.SimplePath, traitParams *hir.PathParams, ty hir.TypeRef) uint64 {
	s := traitPath.String() + "|" + ty.String()
	if traitParams != nil {
		for _, t := range traitParams.Types {
			s += "," + t.String()
		}
	}
	return hashKey(s)
}

