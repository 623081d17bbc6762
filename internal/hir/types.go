package hir

import (
	"fmt"
	"strings"

	"github.com/sunholo/hirgo/internal/istr"
)

// PrimitiveKind enumerates the built-in scalar types of §3.2.
type PrimitiveKind uint8

const (
	PrimBool PrimitiveKind = iota
	PrimChar
	PrimStr
	PrimI8
	PrimI16
	PrimI32
	PrimI64
	PrimI128
	PrimISize
	PrimU8
	PrimU16
	PrimU32
	PrimU64
	PrimU128
	PrimUSize
	PrimF16
	PrimF32
	PrimF64
	PrimF128
)

func (k PrimitiveKind) String() string {
	names := [...]string{"bool", "char", "str",
		"i8", "i16", "i32", "i64", "i128", "isize",
		"u8", "u16", "u32", "u64", "u128", "usize",
		"f16", "f32", "f64", "f128"}
	if int(k) < len(names) {
		return names[k]
	}
	return "?prim?"
}

// InferClass distinguishes unresolved inference-variable classes (§3.2).
type InferClass uint8

const (
	InferNone InferClass = iota
	InferInteger
	InferFloat
)

// BindingState caches what a Path{} type's nominal target resolves to
// (§3.2). Opaque marks an associated-type projection that could not be
// resolved (only legal when the owning Path is UfcsKnown, §3.2 invariant
// b — enforced by NewOpaqueBinding).
type BindingState uint8

const (
	BindingUnbound BindingState = iota
	BindingOpaque
	BindingStruct
	BindingEnum
	BindingUnion
	BindingExternType
)

// TypeBinding pairs a BindingState with the resolved item path, when
// known.
type TypeBinding struct {
	State BindingState
	Item  SimplePath
}

// ArraySizeKind tags Array.Size's three states (§3.2).
type ArraySizeKind uint8

const (
	ArraySizeKnown ArraySizeKind = iota
	ArraySizeUnevaluated
	ArraySizeInfer
)

// ArraySize is `size ∈ {Known(u64), Unevaluated(ConstGeneric), Infer}`.
type ArraySize struct {
	Kind        ArraySizeKind
	Value       uint64
	Unevaluated ConstGeneric
}

// BorrowKind distinguishes Shared/Unique/Owned references (§3.2). Owned
// appears only in early passes and is absent from final HIR.
type BorrowKind uint8

const (
	BorrowShared BorrowKind = iota
	BorrowUnique
	BorrowOwned
)

// PointerKind distinguishes raw-pointer mutability.
type PointerKind uint8

const (
	PointerConst PointerKind = iota
	PointerMut
)

// ClosureClass restricts which Fn-family traits a closure implements
// (§4.5, point 3).
type ClosureClass uint8

const (
	ClosureUnknown ClosureClass = iota
	ClosureNoCapture
	ClosureShared
	ClosureMut
	ClosureOnce
)

// FnPtr is a function-pointer type (§3.2).
type FnPtr struct {
	HRLs       *GenericParams // for<'a> binders scoped to this fn pointer
	IsUnsafe   bool
	IsVariadic bool
	ABI        istr.IStr
	Ret        TypeRef
	Args       []TypeRef
}

// ErasedOrigin tags where an `impl Trait` type (§3.2, ErasedType) came
// from.
type ErasedOriginKind uint8

const (
	ErasedFromReturnSlot ErasedOriginKind = iota
	ErasedFromAlias
	ErasedFromKnown
)

type ErasedOrigin struct {
	Kind ErasedOriginKind
	// ErasedFromReturnSlot
	FnPath SimplePath
	Index  int
	// ErasedFromAlias
	Alias SimplePath
	// ErasedFromKnown
	Known TypeRef
}

// TypeKind tags the TypeData sum of §3.2.
type TypeKind uint8

const (
	TyInfer TypeKind = iota
	TyDiverge
	TyPrimitive
	TyPath
	TyGeneric
	TyTraitObject
	TyErasedType
	TyArray
	TySlice
	TyTuple
	TyBorrow
	TyPointer
	TyNamedFunction
	TyFunction
	TyClosure
	TyGenerator
)

// typeData is the shared, immutable payload behind a TypeRef. TypeRef
// wraps a pointer to it so that structurally-built types are cheap to
// share (§3.2, "immutable, shareable handle").
type typeData struct {
	Kind TypeKind

	InferClass InferClass

	Primitive PrimitiveKind

	PathVal     Path
	PathBinding TypeBinding

	Generic GenericRef

	// TraitObject
	ObjTrait    TraitPath
	ObjMarkers  []TraitPath
	ObjLifetime LifetimeRef

	// ErasedType
	ErasedSized    bool
	ErasedTraits   []TraitPath
	ErasedLifetime LifetimeRef
	ErasedOrigin   ErasedOrigin

	// Array / Slice
	Inner TypeRef
	Size  ArraySize

	// Tuple
	Elems []TypeRef

	// Borrow / Pointer
	BorrowKind  BorrowKind
	PointerKind PointerKind

	// NamedFunction
	FnPath SimplePath
	FnDef  SimplePath

	// Function
	Fn FnPtr

	// Closure / Generator: non-owning reference to the producing node
	NodeID       uint64
	ClosureClass ClosureClass
	ClosureCopy  bool
}

// TypeRef is the immutable, shareable handle described in §3.2.
type TypeRef struct {
	d *typeData
}

func newType(d *typeData) TypeRef { return TypeRef{d: d} }

// Kind reports which TypeData variant this is.
func (t TypeRef) Kind() TypeKind {
	if t.d == nil {
		return TyInfer
	}
	return t.d.Kind
}

func (t TypeRef) IsValid() bool { return t.d != nil }

// Constructors, one per variant of §3.2's table.

func TInfer(class InferClass) TypeRef {
	return newType(&typeData{Kind: TyInfer, InferClass: class})
}

func TDiverge() TypeRef { return newType(&typeData{Kind: TyDiverge}) }

func TPrimitive(k PrimitiveKind) TypeRef {
	return newType(&typeData{Kind: TyPrimitive, Primitive: k})
}

func TPath(p Path, binding TypeBinding) TypeRef {
	if binding.State == BindingOpaque && p.Kind != PathUfcsKnown {
		// Invariant (b), §3.2: Opaque is only legal on UfcsKnown paths.
		panic(fmt.Sprintf("hir: Opaque binding on non-UfcsKnown path %s", p))
	}
	return newType(&typeData{Kind: TyPath, PathVal: p, PathBinding: binding})
}

func TGeneric(ref GenericRef) TypeRef {
	return newType(&typeData{Kind: TyGeneric, Generic: ref})
}

func TTraitObject(trait TraitPath, markers []TraitPath, lt LifetimeRef) TypeRef {
	return newType(&typeData{Kind: TyTraitObject, ObjTrait: trait, ObjMarkers: markers, ObjLifetime: lt})
}

func TErasedType(isSized bool, traits []TraitPath, lt LifetimeRef, origin ErasedOrigin) TypeRef {
	return newType(&typeData{Kind: TyErasedType, ErasedSized: isSized, ErasedTraits: traits, ErasedLifetime: lt, ErasedOrigin: origin})
}

func TArray(inner TypeRef, size ArraySize) TypeRef {
	return newType(&typeData{Kind: TyArray, Inner: inner, Size: size})
}

func TSlice(inner TypeRef) TypeRef {
	return newType(&typeData{Kind: TySlice, Inner: inner})
}

func TTuple(elems []TypeRef) TypeRef {
	return newType(&typeData{Kind: TyTuple, Elems: elems})
}

// TUnit is `()`, the empty tuple (§3.2).
func TUnit() TypeRef { return TTuple(nil) }

func TBorrow(kind BorrowKind, inner TypeRef, lt LifetimeRef) TypeRef {
	return newType(&typeData{Kind: TyBorrow, BorrowKind: kind, Inner: inner, ObjLifetime: lt})
}

func TPointer(kind PointerKind, inner TypeRef) TypeRef {
	return newType(&typeData{Kind: TyPointer, PointerKind: kind, Inner: inner})
}

func TNamedFunction(path, def SimplePath) TypeRef {
	return newType(&typeData{Kind: TyNamedFunction, FnPath: path, FnDef: def})
}

func TFunction(fn FnPtr) TypeRef {
	return newType(&typeData{Kind: TyFunction, Fn: fn})
}

func TClosure(nodeID uint64, class ClosureClass, isCopy bool) TypeRef {
	return newType(&typeData{Kind: TyClosure, NodeID: nodeID, ClosureClass: class, ClosureCopy: isCopy})
}

func TGenerator(nodeID uint64) TypeRef {
	return newType(&typeData{Kind: TyGenerator, NodeID: nodeID})
}

// Accessors used throughout the resolver and monomorphiser.

func (t TypeRef) InferClassOf() InferClass     { return t.d.InferClass }
func (t TypeRef) PrimitiveOf() PrimitiveKind    { return t.d.Primitive }
func (t TypeRef) PathOf() Path                  { return t.d.PathVal }
func (t TypeRef) BindingOf() TypeBinding        { return t.d.PathBinding }
func (t TypeRef) GenericOf() GenericRef         { return t.d.Generic }
func (t TypeRef) ObjTraitOf() TraitPath         { return t.d.ObjTrait }
func (t TypeRef) ObjMarkersOf() []TraitPath     { return t.d.ObjMarkers }
func (t TypeRef) ObjLifetimeOf() LifetimeRef    { return t.d.ObjLifetime }
func (t TypeRef) ErasedSizedOf() bool           { return t.d.ErasedSized }
func (t TypeRef) ErasedTraitsOf() []TraitPath   { return t.d.ErasedTraits }
func (t TypeRef) ErasedOriginOf() ErasedOrigin  { return t.d.ErasedOrigin }
func (t TypeRef) InnerOf() TypeRef              { return t.d.Inner }
func (t TypeRef) SizeOf() ArraySize             { return t.d.Size }
func (t TypeRef) ElemsOf() []TypeRef            { return t.d.Elems }
func (t TypeRef) BorrowKindOf() BorrowKind      { return t.d.BorrowKind }
func (t TypeRef) PointerKindOf() PointerKind    { return t.d.PointerKind }
func (t TypeRef) FnPathOf() SimplePath          { return t.d.FnPath }
func (t TypeRef) FnDefOf() SimplePath           { return t.d.FnDef }
func (t TypeRef) FnOf() FnPtr                   { return t.d.Fn }
func (t TypeRef) NodeIDOf() uint64              { return t.d.NodeID }
func (t TypeRef) ClosureClassOf() ClosureClass  { return t.d.ClosureClass }
func (t TypeRef) ClosureCopyOf() bool           { return t.d.ClosureCopy }

// IsArrayOfSizeZero implements the special-cased invariant (c) of §3.2:
// `[T; 0]` is always Copy regardless of T.
func (t TypeRef) IsArrayOfSizeZero() bool {
	return t.Kind() == TyArray && t.d.Size.Kind == ArraySizeKnown && t.d.Size.Value == 0
}

func (t TypeRef) String() string {
	var sb strings.Builder
	writeType(&sb, t)
	return sb.String()
}

func writeType(sb *strings.Builder, t TypeRef) {
	if !t.IsValid() {
		sb.WriteString("<?>")
		return
	}
	switch t.Kind() {
	case TyInfer:
		sb.WriteString("_")
	case TyDiverge:
		sb.WriteString("!")
	case TyPrimitive:
		sb.WriteString(t.d.Primitive.String())
	case TyPath:
		sb.WriteString(t.d.PathVal.String())
	case TyGeneric:
		sb.WriteString(t.d.Generic.String())
	case TyTraitObject:
		sb.WriteString("dyn ")
		sb.WriteString(t.d.ObjTrait.Path.String())
		for _, m := range t.d.ObjMarkers {
			sb.WriteString(" + ")
			sb.WriteString(m.Path.String())
		}
	case TyErasedType:
		sb.WriteString("impl ")
		for i, tr := range t.d.ErasedTraits {
			if i > 0 {
				sb.WriteString(" + ")
			}
			sb.WriteString(tr.Path.String())
		}
	case TyArray:
		sb.WriteString("[")
		writeType(sb, t.d.Inner)
		sb.WriteString(fmt.Sprintf("; %v]", t.d.Size))
	case TySlice:
		sb.WriteString("[")
		writeType(sb, t.d.Inner)
		sb.WriteString("]")
	case TyTuple:
		sb.WriteString("(")
		for i, e := range t.d.Elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeType(sb, e)
		}
		sb.WriteString(")")
	case TyBorrow:
		sb.WriteString("&")
		if t.d.BorrowKind == BorrowUnique {
			sb.WriteString("mut ")
		}
		writeType(sb, t.d.Inner)
	case TyPointer:
		if t.d.PointerKind == PointerMut {
			sb.WriteString("*mut ")
		} else {
			sb.WriteString("*const ")
		}
		writeType(sb, t.d.Inner)
	case TyNamedFunction:
		sb.WriteString("fn:" + t.d.FnPath.String())
	case TyFunction:
		sb.WriteString("fn(")
		for i, a := range t.d.Fn.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeType(sb, a)
		}
		sb.WriteString(") -> ")
		writeType(sb, t.d.Fn.Ret)
	case TyClosure:
		sb.WriteString(fmt.Sprintf("closure#%d", t.d.NodeID))
	case TyGenerator:
		sb.WriteString(fmt.Sprintf("generator#%d", t.d.NodeID))
	}
}

// Equal implements structural equality over TypeRef (§3.2 invariant a).
// Identical handles short-circuit; otherwise the variants are compared
// recursively.
func (t TypeRef) Equal(o TypeRef) bool {
	if t.d == o.d {
		return true
	}
	if !t.IsValid() || !o.IsValid() || t.Kind() != o.Kind() {
		return false
	}
	switch t.Kind() {
	case TyInfer:
		return t.d.InferClass == o.d.InferClass
	case TyDiverge:
		return true
	case TyPrimitive:
		return t.d.Primitive == o.d.Primitive
	case TyPath:
		return pathEqual(t.d.PathVal, o.d.PathVal)
	case TyGeneric:
		return t.d.Generic == o.d.Generic
	case TyTraitObject:
		if !traitPathEqual(t.d.ObjTrait, o.d.ObjTrait) || len(t.d.ObjMarkers) != len(o.d.ObjMarkers) {
			return false
		}
		for i := range t.d.ObjMarkers {
			if !traitPathEqual(t.d.ObjMarkers[i], o.d.ObjMarkers[i]) {
				return false
			}
		}
		return true
	case TyErasedType:
		if t.d.ErasedSized != o.d.ErasedSized || len(t.d.ErasedTraits) != len(o.d.ErasedTraits) {
			return false
		}
		for i := range t.d.ErasedTraits {
			if !traitPathEqual(t.d.ErasedTraits[i], o.d.ErasedTraits[i]) {
				return false
			}
		}
		return true
	case TyArray:
		return t.d.Inner.Equal(o.d.Inner) && arraySizeEqual(t.d.Size, o.d.Size)
	case TySlice:
		return t.d.Inner.Equal(o.d.Inner)
	case TyTuple:
		if len(t.d.Elems) != len(o.d.Elems) {
			return false
		}
		for i := range t.d.Elems {
			if !t.d.Elems[i].Equal(o.d.Elems[i]) {
				return false
			}
		}
		return true
	case TyBorrow:
		return t.d.BorrowKind == o.d.BorrowKind && t.d.Inner.Equal(o.d.Inner)
	case TyPointer:
		return t.d.PointerKind == o.d.PointerKind && t.d.Inner.Equal(o.d.Inner)
	case TyNamedFunction:
		return t.d.FnPath.Equal(o.d.FnPath)
	case TyFunction:
		return fnPtrEqual(t.d.Fn, o.d.Fn)
	case TyClosure, TyGenerator:
		return t.d.NodeID == o.d.NodeID
	}
	return false
}

func pathEqual(a, b Path) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case PathGeneric:
		return a.Generic.Path.Equal(b.Generic.Path) && a.Generic.Params.Equal(b.Generic.Params)
	default:
		return a.UfcsType.Equal(b.UfcsType) && a.UfcsItem.Equal(b.UfcsItem)
	}
}

func traitPathEqual(a, b TraitPath) bool {
	return a.Path.Path.Equal(b.Path.Path) && a.Path.Params.EqualIgnoringLifetimes(b.Path.Params)
}

func arraySizeEqual(a, b ArraySize) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == ArraySizeKnown {
		return a.Value == b.Value
	}
	return true
}

func fnPtrEqual(a, b FnPtr) bool {
	if a.IsUnsafe != b.IsUnsafe || a.IsVariadic != b.IsVariadic || !a.ABI.Equal(b.ABI) || len(a.Args) != len(b.Args) {
		return false
	}
	if !a.Ret.Equal(b.Ret) {
		return false
	}
	for i := range a.Args {
		if !a.Args[i].Equal(b.Args[i]) {
			return false
		}
	}
	return true
}

// Hash returns a structural hash suitable for map keys (the resolver's
// built-in predicate caches, such as the Copy cache, are keyed by it).
func (t TypeRef) Hash() uint64 {
	h := fnvOffset
	writeHash(&h, t)
	return h
}

const (
	fnvOffset = 1469598103934665603
	fnvPrime  = 1099511628211
)

func hashByte(h *uint64, b byte) {
	*h ^= uint64(b)
	*h *= fnvPrime
}

func hashString(h *uint64, s string) {
	for i := 0; i < len(s); i++ {
		hashByte(h, s[i])
	}
}

func writeHash(h *uint64, t TypeRef) {
	if !t.IsValid() {
		hashByte(h, 0xFF)
		return
	}
	hashByte(h, byte(t.Kind()))
	switch t.Kind() {
	case TyPrimitive:
		hashByte(h, byte(t.d.Primitive))
	case TyPath:
		hashString(h, t.d.PathVal.String())
	case TyGeneric:
		hashString(h, t.d.Generic.String())
	case TyArray:
		writeHash(h, t.d.Inner)
	case TySlice:
		writeHash(h, t.d.Inner)
	case TyTuple:
		for _, e := range t.d.Elems {
			writeHash(h, e)
		}
	case TyBorrow, TyPointer:
		writeHash(h, t.d.Inner)
	case TyNamedFunction:
		hashString(h, t.d.FnPath.String())
	case TyFunction:
		for _, a := range t.d.Fn.Args {
			writeHash(h, a)
		}
		writeHash(h, t.d.Fn.Ret)
	}
}
