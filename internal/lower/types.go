package lower

import (
	"github.com/sunholo/hirgo/internal/diag"
	"github.com/sunholo/hirgo/internal/hir"
	"github.com/sunholo/hirgo/internal/istr"
	"github.com/sunholo/hirgo/internal/srcast"
)

var primitiveNames = map[string]hir.PrimitiveKind{
	"bool": hir.PrimBool, "char": hir.PrimChar, "str": hir.PrimStr,
	"i8": hir.PrimI8, "i16": hir.PrimI16, "i32": hir.PrimI32, "i64": hir.PrimI64, "i128": hir.PrimI128, "isize": hir.PrimISize,
	"u8": hir.PrimU8, "u16": hir.PrimU16, "u32": hir.PrimU32, "u64": hir.PrimU64, "u128": hir.PrimU128, "usize": hir.PrimUSize,
	"f16": hir.PrimF16, "f32": hir.PrimF32, "f64": hir.PrimF64, "f128": hir.PrimF128,
}

// lowerType is the structural type translator of §4.3. `Self` is
// translated to TypeRef::Self (TGeneric(hir.SelfRef)) inside trait items
// (l.inTrait), and substituted with the enclosing impl's concrete Self
// type everywhere else, per the Self-translation contract.
func (l *Lowerer) lowerType(t *srcast.Type, path []string) hir.TypeRef {
	if t == nil {
		return hir.TUnit()
	}
	switch t.Kind {
	case srcast.TyInfer:
		return hir.TInfer(hir.InferNone)
	case srcast.TyNever:
		return hir.TDiverge()
	case srcast.TySelf:
		return l.lowerSelfType(path)
	case srcast.TyPrimitive:
		if k, ok := primitiveNames[t.Primitive]; ok {
			return hir.TPrimitive(k)
		}
		l.fail(diag.PhaseLower, diag.LOW106, path, "unknown primitive type %q", t.Primitive)
		return hir.TInfer(hir.InferNone)
	case srcast.TyPath:
		return l.lowerPathType(t.Path, path)
	case srcast.TyTuple:
		elems := make([]hir.TypeRef, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = l.lowerType(e, path)
		}
		return hir.TTuple(elems)
	case srcast.TyArray:
		inner := l.lowerType(t.Inner, path)
		return hir.TArray(inner, l.lowerArraySize(t.ArraySize, path))
	case srcast.TySlice:
		return hir.TSlice(l.lowerType(t.Inner, path))
	case srcast.TyBorrow:
		kind := hir.BorrowShared
		if t.IsMut {
			kind = hir.BorrowUnique
		}
		return hir.TBorrow(kind, l.lowerType(t.Inner, path), hir.LifetimeRef{})
	case srcast.TyPointer:
		kind := hir.PointerConst
		if t.IsMut {
			kind = hir.PointerMut
		}
		return hir.TPointer(kind, l.lowerType(t.Inner, path))
	case srcast.TyImplTrait:
		return l.lowerImplTraitType(t, path)
	case srcast.TyFn:
		fn := hir.FnPtr{
			IsUnsafe:   t.FnUnsafe,
			IsVariadic: t.FnVariadic,
			ABI:        istr.Intern(t.FnABI),
			Ret:        l.lowerType(t.FnRet, path),
			Args:       make([]hir.TypeRef, len(t.FnArgs)),
		}
		for i, a := range t.FnArgs {
			fn.Args[i] = l.lowerType(a, path)
		}
		return hir.TFunction(fn)
	default:
		l.fail(diag.PhaseLower, diag.LOW106, path, "unsupported surface type kind %d", t.Kind)
		return hir.TInfer(hir.InferNone)
	}
}

// lowerSelfType implements the Self-translation contract: TypeRef::Self
// inside a trait item's own signatures, the enclosing impl's concrete
// Self type everywhere else. Using Self where neither applies is LOW104.
func (l *Lowerer) lowerSelfType(path []string) hir.TypeRef {
	if l.inTrait {
		return hir.TGeneric(hir.SelfRef)
	}
	if self, ok := l.currentSelf(); ok {
		return self
	}
	l.fail(diag.PhaseLower, diag.LOW104, path, "`Self` used outside of a trait or impl")
	return hir.TInfer(hir.InferNone)
}

func (l *Lowerer) lowerPathType(p *srcast.Path, path []string) hir.TypeRef {
	if p == nil {
		return hir.TInfer(hir.InferNone)
	}
	switch p.Binding {
	case srcast.BindGeneric:
		ref := hir.GenericRef{
			Name:  istr.Intern(p.Segments[len(p.Segments)-1]),
			Group: hir.GenericGroup(p.GenericGroup),
			Idx:   p.GenericIdx,
		}
		return hir.TGeneric(ref)
	case srcast.BindSelfType:
		return l.lowerSelfType(path)
	default:
		gp := l.lowerGenericPath(p, path)
		return hir.TPath(hir.Path{Kind: hir.PathGeneric, Generic: gp}, hir.TypeBinding{State: hir.BindingUnbound})
	}
}

func (l *Lowerer) lowerGenericPath(p *srcast.Path, path []string) hir.GenericPath {
	sp := toSimplePath(p.Segments)
	var types []hir.TypeRef
	for _, g := range p.Generics {
		types = append(types, l.lowerType(g, path))
	}
	return hir.GenericPath{Path: sp, Params: hir.PathParams{Types: types}}
}

func (l *Lowerer) lowerTraitPath(p *srcast.Path, path []string) hir.TraitPath {
	if p == nil {
		return hir.TraitPath{}
	}
	return hir.TraitPath{Path: l.lowerGenericPath(p, path)}
}

func (l *Lowerer) lowerTraitPathList(ps []*srcast.Path) []hir.TraitPath {
	out := make([]hir.TraitPath, len(ps))
	for i, p := range ps {
		out[i] = l.lowerTraitPath(p, nil)
	}
	return out
}

// lowerArraySize implements §4.3's array-size collapsing rule: a plain
// integer literal of usize/unannotated type collapses to Known(u64); a
// trivial generic reference collapses to ConstGeneric::Generic; anything
// else is kept unevaluated for later evaluation by the external
// const-evaluator collaborator.
func (l *Lowerer) lowerArraySize(e *srcast.Expr, path []string) hir.ArraySize {
	if e == nil {
		return hir.ArraySize{Kind: hir.ArraySizeInfer}
	}
	switch e.Kind {
	case srcast.ExprIntLit:
		if e.IsUSize {
			return hir.ArraySize{Kind: hir.ArraySizeKnown, Value: e.IntValue}
		}
		return hir.ArraySize{Kind: hir.ArraySizeUnevaluated, Unevaluated: hir.ConstGeneric{Kind: hir.ConstGenericUnevaluated, ExprID: e.OpaqueID}}
	case srcast.ExprPathRef:
		if e.Path != nil && e.Path.Binding == srcast.BindGeneric {
			ref := hir.GenericRef{
				Name:  istr.Intern(e.Path.Segments[len(e.Path.Segments)-1]),
				Group: hir.GenericGroup(e.Path.GenericGroup),
				Idx:   e.Path.GenericIdx,
			}
			return hir.ArraySize{Kind: hir.ArraySizeUnevaluated, Unevaluated: hir.ConstGeneric{Kind: hir.ConstGenericGeneric, Generic: ref}}
		}
		fallthrough
	default:
		return hir.ArraySize{Kind: hir.ArraySizeUnevaluated, Unevaluated: hir.ConstGeneric{Kind: hir.ConstGenericUnevaluated, ExprID: e.OpaqueID}}
	}
}

// lowerImplTraitType materialises an `impl Trait` occurrence. While
// lowering a type alias or associated-type default, l.its is active and
// the type is represented as a TNamedFunction-less alias reference (an
// ErasedType tagged ErasedFromAlias) rather than a fresh per-function
// return slot, per §4.3's impl-trait-source contract.
func (l *Lowerer) lowerImplTraitType(t *srcast.Type, path []string) hir.TypeRef {
	traits := make([]hir.TraitPath, len(t.Bounds))
	for i, b := range t.Bounds {
		traits[i] = l.lowerTraitPath(b, path)
	}
	origin := hir.ErasedOrigin{Kind: hir.ErasedFromReturnSlot}
	if l.its.active {
		origin = hir.ErasedOrigin{Kind: hir.ErasedFromAlias, Alias: l.its.path}
	}
	return hir.TErasedType(true, traits, hir.LifetimeRef{}, origin)
}
