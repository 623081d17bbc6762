package resolve

import "github.com/sunholo/hirgo/internal/hir"

// Assignment accumulates the impl-parameter bindings a unification pass
// discovers (§4.7 step 1's "GetParams visitor... writes discovered
// parameters into a PathParams impl_params + a per-slot set bitmap").
// Indexed by the impl's own GroupImpl generic slot index.
type Assignment struct {
	Types    map[uint8]hir.TypeRef
	Values   map[uint8]hir.ConstGeneric
	setTypes map[uint8]bool
	setVals  map[uint8]bool
}

func newAssignment() *Assignment {
	return &Assignment{
		Types:    make(map[uint8]hir.TypeRef),
		Values:   make(map[uint8]hir.ConstGeneric),
		setTypes: make(map[uint8]bool),
		setVals:  make(map[uint8]bool),
	}
}

func (a *Assignment) bindType(idx uint8, t hir.TypeRef) Compare {
	if existing, ok := a.Types[idx]; ok {
		if existing.Equal(t) {
			return CompareEqual
		}
		return CompareUnequal
	}
	a.Types[idx] = t
	a.setTypes[idx] = true
	return CompareEqual
}

func (a *Assignment) bindValue(idx uint8, c hir.ConstGeneric) Compare {
	if existing, ok := a.Values[idx]; ok {
		if constGenericEqual(existing, c) {
			return CompareEqual
		}
		return CompareUnequal
	}
	a.Values[idx] = c
	a.setVals[idx] = true
	return CompareEqual
}

func constGenericEqual(a, b hir.ConstGeneric) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case hir.ConstGenericKnown:
		return a.Literal == b.Literal
	case hir.ConstGenericGeneric:
		return a.Generic == b.Generic
	default:
		return a.ExprID == b.ExprID
	}
}

// unifyType matches `pattern` (drawn from an impl's Self type or trait
// args, possibly containing GroupImpl generic references) against
// `query` (the type being searched for), writing any GroupImpl bindings
// discovered into asg. This is the "Unify" step of §4.7 point 1.
//
// A GroupPlaceholder reference on the query side always matches
// trivially (§4.7 step 3(b): "placeholder references as trivially
// matching"); a TyInfer on either side degrades the result to Fuzzy
// rather than rejecting outright, since an inference variable is
// consistent with anything.
func unifyType(pattern, query hir.TypeRef, asg *Assignment) Compare {
	if !pattern.IsValid() || !query.IsValid() {
		return CompareUnequal
	}
	if pattern.Kind() == hir.TyGeneric && pattern.GenericOf().Group == hir.GroupImpl {
		return asg.bindType(pattern.GenericOf().Idx, query)
	}
	if query.Kind() == hir.TyGeneric && query.GenericOf().Group == hir.GroupPlaceholder {
		return CompareEqual
	}
	if pattern.Kind() == hir.TyInfer || query.Kind() == hir.TyInfer {
		return CompareFuzzy
	}
	if pattern.Kind() != query.Kind() {
		return CompareUnequal
	}
	switch pattern.Kind() {
	case hir.TyDiverge:
		return CompareEqual
	case hir.TyPrimitive:
		if pattern.PrimitiveOf() == query.PrimitiveOf() {
			return CompareEqual
		}
		return CompareUnequal
	case hir.TyGeneric:
		if pattern.GenericOf() == query.GenericOf() {
			return CompareEqual
		}
		return CompareUnequal
	case hir.TyPath:
		return unifyPath(pattern.PathOf(), query.PathOf(), asg)
	case hir.TyArray:
		c := unifyType(pattern.InnerOf(), query.InnerOf(), asg)
		return Worse(c, unifyArraySize(pattern.SizeOf(), query.SizeOf(), asg))
	case hir.TySlice:
		return unifyType(pattern.InnerOf(), query.InnerOf(), asg)
	case hir.TyTuple:
		pe, qe := pattern.ElemsOf(), query.ElemsOf()
		if len(pe) != len(qe) {
			return CompareUnequal
		}
		c := CompareEqual
		for i := range pe {
			c = Worse(c, unifyType(pe[i], qe[i], asg))
		}
		return c
	case hir.TyBorrow:
		if pattern.BorrowKindOf() != query.BorrowKindOf() {
			return CompareUnequal
		}
		return unifyType(pattern.InnerOf(), query.InnerOf(), asg)
	case hir.TyPointer:
		if pattern.PointerKindOf() != query.PointerKindOf() {
			return CompareUnequal
		}
		return unifyType(pattern.InnerOf(), query.InnerOf(), asg)
	case hir.TyNamedFunction:
		if pattern.FnPathOf().Equal(query.FnPathOf()) {
			return CompareEqual
		}
		return CompareUnequal
	case hir.TyFunction:
		return unifyFnPtr(pattern.FnOf(), query.FnOf(), asg)
	case hir.TyTraitObject:
		return unifyTraitObject(pattern, query, asg)
	case hir.TyErasedType:
		// ErasedType identity is origin-based (§3.2); structural
		// unification of its trait list is a fuzzy match at best since
		// two `impl Trait` slots are never the "same" nominal type.
		return CompareFuzzy
	case hir.TyClosure, hir.TyGenerator:
		if pattern.NodeIDOf() == query.NodeIDOf() {
			return CompareEqual
		}
		return CompareUnequal
	default:
		return CompareUnequal
	}
}

func unifyArraySize(p, q hir.ArraySize, asg *Assignment) Compare {
	if p.Kind == hir.ArraySizeUnevaluated && p.Unevaluated.Kind == hir.ConstGenericGeneric {
		return asg.bindValue(p.Unevaluated.Generic.Idx, hir.ConstGeneric{Kind: hir.ConstGenericKnown, Literal: q.Value})
	}
	if p.Kind != q.Kind {
		return CompareFuzzy
	}
	if p.Kind == hir.ArraySizeKnown && p.Value != q.Value {
		return CompareUnequal
	}
	return CompareEqual
}

func unifyPath(pattern, query hir.Path, asg *Assignment) Compare {
	if pattern.Kind != hir.PathGeneric || query.Kind != hir.PathGeneric {
		// UFCS shapes never appear as impl Self-type patterns in a
		// well-formed crate; treat mismatched/unknown shapes as fuzzy
		// rather than hard-failing a whole search.
		return CompareFuzzy
	}
	if !pattern.Generic.Path.Equal(query.Generic.Path) {
		return CompareUnequal
	}
	return unifyPathParams(pattern.Generic.Params, query.Generic.Params, asg)
}

func unifyPathParams(pattern, query hir.PathParams, asg *Assignment) Compare {
	if len(pattern.Types) != len(query.Types) || len(pattern.Values) != len(query.Values) {
		return CompareUnequal
	}
	c := CompareEqual
	for i := range pattern.Types {
		c = Worse(c, unifyType(pattern.Types[i], query.Types[i], asg))
	}
	for i := range pattern.Values {
		c = Worse(c, unifyConstGeneric(pattern.Values[i], query.Values[i], asg))
	}
	return c
}

func unifyConstGeneric(pattern, query hir.ConstGeneric, asg *Assignment) Compare {
	if pattern.Kind == hir.ConstGenericGeneric && pattern.Generic.Group == hir.GroupImpl {
		return asg.bindValue(pattern.Generic.Idx, query)
	}
	if constGenericEqual(pattern, query) {
		return CompareEqual
	}
	return CompareFuzzy
}

func unifyFnPtr(p, q hir.FnPtr, asg *Assignment) Compare {
	if p.IsUnsafe != q.IsUnsafe || p.IsVariadic != q.IsVariadic || !p.ABI.Equal(q.ABI) || len(p.Args) != len(q.Args) {
		return CompareUnequal
	}
	c := unifyType(p.Ret, q.Ret, asg)
	for i := range p.Args {
		c = Worse(c, unifyType(p.Args[i], q.Args[i], asg))
	}
	return c
}

func unifyTraitObject(p, q hir.TypeRef, asg *Assignment) Compare {
	if !p.ObjTraitOf().Path.Path.Equal(q.ObjTraitOf().Path.Path) {
		return CompareUnequal
	}
	pm, qm := p.ObjMarkersOf(), q.ObjMarkersOf()
	if len(pm) != len(qm) {
		return CompareFuzzy
	}
	c := unifyPathParams(p.ObjTraitOf().Path.Params, q.ObjTraitOf().Path.Params, asg)
	for i := range pm {
		if !pm[i].Path.Path.Equal(qm[i].Path.Path) {
			c = Worse(c, CompareFuzzy)
		}
	}
	return c
}
