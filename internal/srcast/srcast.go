// Package srcast stands in for the external source AST that lowering
// consumes (§6.2's `AST::Crate`). The real front end — parser, macro
// expander, name resolver — is an external collaborator; this package
// only fixes the shape lowering needs once that pipeline has finished:
// every path already carries its resolved binding (§6.2's
// precondition), so srcast has no unresolved-name representation at
// all. Modelled on the teacher's internal/ast package (Pos/Span/Node),
// narrowed to what a resolved, macro-expanded crate tree looks like.
package srcast

// Pos is a source position, carried through for diagnostics.
type Pos struct {
	File   string
	Line   int
	Column int
}

// Binding is what name resolution attached to a Path before lowering
// ever sees it (§6.2 precondition).
type BindingKind uint8

const (
	BindUnbound BindingKind = iota // only legal on Self before impl substitution
	BindItem                      // local or absolute item path
	BindGeneric                   // generic parameter reference
	BindSelfType
	BindSelfValue
)

type Path struct {
	Pos      Pos
	Segments []string
	Generics []*Type
	Binding  BindingKind
	// GenericGroup/GenericIdx are meaningful when Binding == BindGeneric,
	// mirroring hir.GenericRef's (group,idx) pair.
	GenericGroup uint8
	GenericIdx   uint8
}

// TypeKind tags the small set of surface type shapes lowering must
// translate (§4.3). Richer surface sugar (e.g. `Box<T>`) is assumed
// already desugared to a Path by the front end.
type TypeKind uint8

const (
	TyInfer TypeKind = iota
	TySelf
	TyPrimitive
	TyPath
	TyTuple
	TyArray
	TySlice
	TyBorrow
	TyPointer
	TyImplTrait
	TyFn
	TyNever
)

type Type struct {
	Pos       Pos
	Kind      TypeKind
	Primitive string // e.g. "i32", "str" — translated by lower against hir.PrimitiveKind
	Path      *Path
	Elems     []*Type    // Tuple
	Inner     *Type      // Array/Slice/Borrow/Pointer
	ArraySize *Expr      // Array — nil means Slice-like inference is not applicable here
	IsMut     bool       // Borrow/Pointer
	Bounds    []*Path    // ImplTrait: trait bounds
	FnArgs    []*Type    // Fn
	FnRet     *Type      // Fn
	FnUnsafe  bool
	FnVariadic bool
	FnABI     string
}

// ExprKind is deliberately minimal: lowering only needs enough of the
// expression tree to build MIR-shaped bodies and to recognise array-size
// literals (§4.3's collapsing rule) and const-generic references.
type ExprKind uint8

const (
	ExprIntLit ExprKind = iota
	ExprPathRef
	ExprBlock
	ExprAsyncBlock
	ExprOpaque // anything else: an opaque handle the const-evaluator collaborator owns
)

type Expr struct {
	Pos      Pos
	Kind     ExprKind
	IntValue uint64
	IsUSize  bool // ExprIntLit: literal had no suffix or an explicit usize suffix
	Path     *Path
	Stmts    []*Expr // Block/AsyncBlock
	OpaqueID uint64  // ExprOpaque: handle into the external evaluator
}

// Attr is a parsed attribute, already macro-expanded (§4.3 covers the
// handful lowering interprets: no_mangle, link_name,
// rustc_std_internal_symbol, rustc_layout_scalar_valid_range_*,
// rustc_nonnull_optimization_guaranteed, macro_export).
type Attr struct {
	Name  string
	Value string // e.g. link_name's quoted string, or a range bound's literal
}

// Param is one function argument (a method's receiver, if any, is
// Params[0]).
type Param struct {
	Pos  Pos
	Type *Type
}

type GenericParam struct {
	Name     string
	IsType   bool
	IsValue  bool
	IsLifetime bool
	ValueType *Type // meaningful when IsValue
	IsSized   bool
	Default   *Type
}

type Bound struct {
	Subject  *Type
	Lifetime string // TypeLifetime bound: T: 'a
	Trait    *Path  // Trait bound
	Equals   *Type  // associated-type equality: T = U
}

// Item is a tagged union over the surface items lowering produces HIR
// items from (§3.4, §4.3). Exactly one payload is meaningful per Kind.
type ItemKind uint8

const (
	ItemModule ItemKind = iota
	ItemFunction
	ItemStruct
	ItemEnum
	ItemUnion
	ItemTrait
	ItemTypeAlias
	ItemTraitAlias
	ItemConstant
	ItemStatic
	ItemImport
	ItemTypeImpl
	ItemTraitImpl
	ItemExternBlock
)

type Field struct {
	Name string
	Type *Type
	Vis  VisKind
}

type VariantKind uint8

const (
	VariantUnit VariantKind = iota
	VariantTuple
	VariantStruct
	VariantValue
)

type Variant struct {
	Name   string
	Kind   VariantKind
	Fields []*Field  // Tuple (unnamed)/Struct
	Value  *Expr     // Value
}

type VisKind uint8

const (
	VisPrivate VisKind = iota
	VisPathRestricted
	VisPublic
)

type Visibility struct {
	Kind VisKind
	Path string // meaningful for PathRestricted
}

type Fn struct {
	Pos        Pos
	Name       string
	IsAsync    bool
	IsUnsafe   bool
	IsConst    bool
	IsVariadic bool
	ABI        string
	Generics   []GenericParam
	Bounds     []Bound
	Params     []Param
	Ret        *Type
	Body       *Expr // nil for declarations
	Attrs      []Attr
	IsExtern   bool
}

type StructDef struct {
	Generics []GenericParam
	Bounds   []Bound
	IsTuple  bool
	IsUnit   bool
	Fields   []*Field
	Repr     string // "", "C", "simd", "transparent"
	Attrs    []Attr
}

type EnumDef struct {
	Generics []GenericParam
	Bounds   []Bound
	Variants []Variant
	Repr     string // "", "isize", "u8", ...
}

type UnionDef struct {
	Generics []GenericParam
	Fields   []*Field
	Repr     string
}

type TraitItem struct {
	Kind       ItemKind // ItemFunction | ItemConstant | a bare associated type marker
	Fn         *Fn
	ConstType  *Type
	ConstBody  *Expr
	IsAtyOnly  bool
	AtyDefault *Type
	AtyBounds  []*Path
}

type TraitDef struct {
	Generics     []GenericParam
	Bounds       []Bound
	IsMarker     bool
	IsUnsafe     bool
	ParentTraits []*Path
	Items        map[string]*TraitItem
}

type TypeAliasDef struct {
	Generics []GenericParam
	Target   *Type
}

type TraitAliasDef struct {
	Generics []GenericParam
	Traits   []*Path
}

type ImportDef struct {
	Target    []string
	IsVariant bool
	Idx       uint32
}

type ImplDef struct {
	Generics   []GenericParam
	Bounds     []Bound
	Self       *Type
	Trait      *Path  // nil for inherent impls
	TraitArgs  []*Type
	Items      map[string]*TraitItem
	IsNegative bool
	IsSpecialisable bool
}

type ExternItem struct {
	Fn     *Fn
	Static *StaticDef
}

type StaticDef struct {
	Pos     Pos
	Name    string
	Type    *Type
	IsMut   bool
	Body    *Expr
	Attrs   []Attr
	IsExtern bool
}

type ConstDef struct {
	Pos      Pos
	Name     string
	Generics []GenericParam
	Type     *Type
	Body     *Expr
}

type Item struct {
	Pos    Pos
	Name   string
	Kind   ItemKind
	Vis    Visibility
	Attrs  []Attr

	Module    *Module
	Fn        *Fn
	Struct    *StructDef
	Enum      *EnumDef
	Union     *UnionDef
	Trait     *TraitDef
	TypeAlias *TypeAliasDef
	TraitAlias *TraitAliasDef
	Const     *ConstDef
	Static    *StaticDef
	Import    *ImportDef
	TypeImpl  *ImplDef
	TraitImpl *ImplDef
	Extern    *ExternItem
}

// Module is a module body: an ordered item list, preserved (§5's
// "ordering guarantees" — stable diagnostics rely on source order).
type Module struct {
	Name  string
	Items []*Item
}

// Crate is the root of a macro-expanded, name-resolved source tree
// (§6.2's `AST::Crate`).
type Crate struct {
	Name string
	Root *Module
}
