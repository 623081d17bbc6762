package hir

import "github.com/sunholo/hirgo/internal/istr"

// Visibility is the lattice used by the module index builder (§4.4).
type VisibilityKind uint8

const (
	VisPrivate VisibilityKind = iota
	VisPathRestricted
	VisPublic
)

// Visibility names the scope an item is visible from.
type Visibility struct {
	Kind    VisibilityKind
	ModPath SimplePath // meaningful for Private/PathRestricted
}

// Contains reports whether the receiver's visibility scope contains o's —
// i.e. o is at least as restrictive. Public contains everything;
// Private(m)/PathRestricted(m) contain only the same or a narrower scope
// rooted at m.
func (v Visibility) Contains(o Visibility) bool {
	if v.Kind == VisPublic {
		return true
	}
	if o.Kind == VisPublic {
		return false
	}
	if v.Kind == VisPathRestricted {
		return pathIsPrefixOrEqual(v.ModPath, o.ModPath)
	}
	return o.Kind == VisPrivate && v.ModPath.Equal(o.ModPath)
}

// Widen returns the less-restrictive of v and o, used when the same
// (name, path) is inserted into an index table twice with different
// visibilities (§4.4, Phase 1 collision policy).
func (v Visibility) Widen(o Visibility) Visibility {
	if v.Kind == VisPublic || o.Kind == VisPublic {
		return Visibility{Kind: VisPublic}
	}
	if v.Contains(o) {
		return v
	}
	if o.Contains(v) {
		return o
	}
	return v
}

// IsVisibleFrom reports whether an item with this visibility can be named
// from module mod.
func (v Visibility) IsVisibleFrom(mod SimplePath) bool {
	switch v.Kind {
	case VisPublic:
		return true
	case VisPathRestricted:
		return pathIsPrefixOrEqual(v.ModPath, mod)
	default: // Private
		return v.ModPath.Equal(mod)
	}
}

func pathIsPrefixOrEqual(prefix, full SimplePath) bool {
	if !prefix.Crate.Equal(full.Crate) || len(prefix.Components) > len(full.Components) {
		return false
	}
	for i, c := range prefix.Components {
		if !c.Equal(full.Components[i]) {
			return false
		}
	}
	return true
}

// ReprKind tags struct/enum layout representations (§3.4).
type ReprKind uint8

const (
	ReprRust ReprKind = iota
	ReprC
	ReprSimd
	ReprTransparent
)

// EnumReprKind tags enum discriminant representations (§3.4).
type EnumReprKind uint8

const (
	EnumReprAuto EnumReprKind = iota
	EnumReprISize
	EnumReprUSize
	EnumReprI8
	EnumReprI16
	EnumReprI32
	EnumReprI64
	EnumReprU8
	EnumReprU16
	EnumReprU32
	EnumReprU64
)

// VisEnt wraps any item payload with its visibility, mirroring the
// serialised `VisEnt<T>` wrapper of §6.1.1.
type VisEnt[T any] struct {
	Vis  Visibility
	Item T
}

// StructDataKind tags a struct's field layout (§3.4).
type StructDataKind uint8

const (
	StructUnit StructDataKind = iota
	StructTuple
	StructNamed
)

// StructData carries the fields for whichever StructDataKind applies.
type StructData struct {
	Kind        StructDataKind
	TupleFields []VisEnt[TypeRef]
	NamedFields []NamedField
}

type NamedField struct {
	Name istr.IStr
	Ent  VisEnt[TypeRef]
}

// Struct is the `Struct` item variant (§3.4).
type Struct struct {
	Params             GenericParams
	Repr               ReprKind
	Data               StructData
	ForcedAlignment    *uint64
	MaxFieldAlignment  *uint64
	Markings           TraitMarkings
	StructMarkings     StructMarkings
}

// EnumVariant is one entry of Enum.Data (§3.4).
type EnumVariant struct {
	Name     istr.IStr
	IsStruct bool
	Type     SimplePath // path to the synthetic EnumName#Variant struct (§4.3)
}

// EnumValueVariant is one entry of an Enum's Value class (§3.4).
type EnumValueVariant struct {
	Name istr.IStr
	Expr uint64 // opaque expr handle, owned by the const-evaluator collaborator
	Val  int64
}

// EnumClassKind tags Enum.Class (§3.4).
type EnumClassKind uint8

const (
	EnumClassData EnumClassKind = iota
	EnumClassValue
)

type EnumClass struct {
	Kind         EnumClassKind
	DataVariants []EnumVariant
	ValueRepr    EnumReprKind
	Values       []EnumValueVariant
}

// Enum is the `Enum` item variant (§3.4).
type Enum struct {
	Params GenericParams
	Class  EnumClass
}

// Union is the `Union` item variant.
type Union struct {
	Params GenericParams
	Fields []NamedField
	Repr   ReprKind
}

// ExternType is an opaque, externally-defined type with no known layout.
type ExternType struct {
	ABI istr.IStr
}

// TypeAlias is a `type` item, possibly generic.
type TypeAlias struct {
	Params GenericParams
	Target TypeRef
}

// TraitAlias is a `trait Foo = Bar + Baz` item.
type TraitAlias struct {
	Params GenericParams
	Traits []TraitPath
}

// ReceiverKind classifies a method's self-parameter shape (§4.3).
type ReceiverKind uint8

const (
	ReceiverFree ReceiverKind = iota
	ReceiverValue
	ReceiverBorrowOwned
	ReceiverBorrowUnique
	ReceiverBorrowShared
	ReceiverBox
	ReceiverCustom
)

// Linkage carries an explicit symbol name when one was requested via
// attribute or extern declaration (§4.3); empty means "mangle downstream".
type Linkage struct {
	Name istr.IStr
}

// Function is the `Function` item variant. Body is nil for declarations
// (extern fns, trait method signatures without a default).
type Function struct {
	Receiver   ReceiverKind
	ABI        istr.IStr
	IsUnsafe   bool
	IsConst    bool
	IsVariadic bool
	Params     GenericParams
	Args       []TypeRef // argument types; patterns are reset to empty per §6.1
	Ret        TypeRef
	Linkage    Linkage
	Body       *MIRFunction
}

// ValueState tags Constant.m_value_state (§3.4).
type ValueState uint8

const (
	ValueUnknown ValueState = iota
	ValueGeneric
	ValueKnown
)

// Constant is the `Constant` item variant.
type Constant struct {
	Params     GenericParams
	Type       TypeRef
	Body       *MIRFunction
	ValueState ValueState
	ValueRes   EncodedLiteral
}

// Static is the `Static` item variant — never const-evaluated at compile
// time, unlike Constant.
type Static struct {
	Type     TypeRef
	IsMut    bool
	Linkage  Linkage
	Body     *MIRFunction
}

// Trait is the `Trait` item variant (§3.4).
type Trait struct {
	Params        GenericParams
	IsMarker      bool
	IsUnsafe      bool
	Items         map[string]TraitItem
	ParentTraits  []TraitPath // as written
	AllParentTraits []TraitPath // flattened, populated post-load
	ValueIndexes  map[string]int // vtable slot per inherited method
	TypeIndexes   map[string]int // vtable slot per associated type
	VtablePath    SimplePath
}

// TraitItemKind tags an item found inside a trait body.
type TraitItemKind uint8

const (
	TraitItemFunction TraitItemKind = iota
	TraitItemConstant
	TraitItemType // associated type, with default and bounds
)

type TraitItem struct {
	Kind        TraitItemKind
	Function    *Function
	Constant    *Constant
	AtyDefault  *TypeRef
	AtyBounds   []TraitPath
}

// TypeImpl is an inherent `impl Type` block: its impl-level generic
// parameters, Self type and items (methods introduce their own `method`
// group at use-site, tracked by the resolver, not stored on TypeImpl).
type TypeImpl struct {
	Params    GenericParams
	Type      TypeRef
	Items     map[string]TraitItem
	IsNegative bool // `impl !Trait for T` — excludes from positive search
}

// TraitImpl is an `impl Trait for Type` block (§3.8, the trait-impl
// table's value type).
type TraitImpl struct {
	Params     GenericParams
	TraitPath  GenericPath // Trait<Args>
	Type       TypeRef
	Items      map[string]TraitItem
	IsNegative bool
	IsSpecialisable bool // `default impl` — may be overridden by a more specific impl
}

// MarkerImpl is an auto-trait/marker impl with no associated items
// (§3.8).
type MarkerImpl struct {
	Params GenericParams
	Type   TypeRef
}

// TypeItemKind tags the TypeItem sum of §3.4 and §6.1.1.
type TypeItemKind uint8

const (
	TypeItemImport TypeItemKind = iota
	TypeItemModule
	TypeItemTypeAlias
	TypeItemEnum
	TypeItemStruct
	TypeItemTrait
	TypeItemUnion
	TypeItemTraitAlias
	TypeItemExternType
)

type ImportEnt struct {
	Target    SimplePath
	IsVariant bool
	Idx       uint32
}

type TypeItem struct {
	Kind       TypeItemKind
	Import     *ImportEnt
	Module     *Module
	TypeAlias  *TypeAlias
	Enum       *Enum
	Struct     *Struct
	Trait      *Trait
	Union      *Union
	TraitAlias *TraitAlias
	ExternType *ExternType
}

type ValueItemKind uint8

const (
	ValueItemImport ValueItemKind = iota
	ValueItemConstant
	ValueItemStatic
	ValueItemStructConstant
	ValueItemFunction
	ValueItemStructConstructor
)

type ValueItem struct {
	Kind             ValueItemKind
	Import           *ImportEnt
	Constant         *Constant
	Static           *Static
	StructConstant   *SimplePath // path to the unit struct's value
	Function         *Function
	StructConstructor *SimplePath // path to the tuple struct being constructed
}

// Module is an item container: a name tree plus the value/type items
// physically defined there (§3.4, §6.1.1). m_traits (fast trait lookup)
// is rebuilt post-load and lives on Crate, not here — it is not
// serialised.
type Module struct {
	Path       SimplePath
	ValueItems map[string]VisEnt[ValueItem]
	ModItems   map[string]VisEnt[TypeItem]
}

func NewModule(path SimplePath) *Module {
	return &Module{
		Path:       path,
		ValueItems: make(map[string]VisEnt[ValueItem]),
		ModItems:   make(map[string]VisEnt[TypeItem]),
	}
}
