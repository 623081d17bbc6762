// Package hir is the typed program representation after desugaring: the
// High-level Intermediate Representation described in §3. It is grounded
// on the teacher's internal/core (tagged-interface Core AST, ANF shape)
// and internal/typedast (typed, post-inference tree) packages, generalised
// from a strict functional language's evaluator IR to a generic,
// trait-based systems language's HIR.
package hir

import (
	"sort"
	"strings"

	"github.com/sunholo/hirgo/internal/istr"
)

// SimplePath is a fully qualified, non-generic item path (§3.1). During
// lowering the crate name may be the interned empty string or "#builtins";
// after lowering every SimplePath carries a non-empty crate name.
type SimplePath struct {
	Crate      istr.IStr
	Components []istr.IStr
}

// NewSimplePath builds a SimplePath from a crate name and dotted
// components.
func NewSimplePath(crate istr.IStr, components ...istr.IStr) SimplePath {
	return SimplePath{Crate: crate, Components: components}
}

func (p SimplePath) String() string {
	parts := make([]string, len(p.Components))
	for i, c := range p.Components {
		parts[i] = c.Raw()
	}
	return p.Crate.Raw() + "::" + strings.Join(parts, "::")
}

// Equal compares two SimplePaths structurally (crate name and every
// component, by interned handle).
func (p SimplePath) Equal(o SimplePath) bool {
	if !p.Crate.Equal(o.Crate) || len(p.Components) != len(o.Components) {
		return false
	}
	for i := range p.Components {
		if !p.Components[i].Equal(o.Components[i]) {
			return false
		}
	}
	return true
}

// Less gives SimplePath a total order for deterministic impl-bucket keys
// and diagnostic sorting (§4.9's "sort-path").
func (p SimplePath) Less(o SimplePath) bool {
	if c := strings.Compare(p.Crate.Raw(), o.Crate.Raw()); c != 0 {
		return c < 0
	}
	for i := 0; i < len(p.Components) && i < len(o.Components); i++ {
		if c := strings.Compare(p.Components[i].Raw(), o.Components[i].Raw()); c != 0 {
			return c < 0
		}
	}
	return len(p.Components) < len(o.Components)
}

// Push returns a copy of p with name appended, used when descending into
// a nested item (e.g. an enum's synthetic variant struct, §4.3).
func (p SimplePath) Push(name istr.IStr) SimplePath {
	comps := make([]istr.IStr, len(p.Components)+1)
	copy(comps, p.Components)
	comps[len(p.Components)] = name
	return SimplePath{Crate: p.Crate, Components: comps}
}

// LifetimeRef names a lifetime parameter reference. Lifetimes participate
// in PathParams and in the HRB machinery (§4.2) but, unlike types and
// consts, are never queried for trait implementations.
type LifetimeRef struct {
	Name    istr.IStr
	Binding GenericRef
}

// ConstGeneric is a value-generic argument: either a resolved literal, a
// reference to a generic value parameter, or an as-yet-unevaluated
// expression handle (opaque to this package; owned by the external
// const-evaluator collaborator, §4.2's "Array size policy").
type ConstGeneric struct {
	Kind    ConstGenericKind
	Literal uint64     // valid when Kind == ConstGenericKnown
	Generic GenericRef // valid when Kind == ConstGenericGeneric
	ExprID  uint64     // valid when Kind == ConstGenericUnevaluated; opaque expr handle
}

type ConstGenericKind uint8

const (
	ConstGenericKnown ConstGenericKind = iota
	ConstGenericGeneric
	ConstGenericUnevaluated
)

// PathParams is the ordered set of generic arguments to a GenericPath
// (§3.1).
type PathParams struct {
	Lifetimes []LifetimeRef
	Types     []TypeRef
	Values    []ConstGeneric
}

// EqualIgnoringLifetimes compares two PathParams for "same generic
// instantiation" purposes, per §3.1 ("equality ignores lifetimes").
func (p PathParams) EqualIgnoringLifetimes(o PathParams) bool {
	if len(p.Types) != len(o.Types) || len(p.Values) != len(o.Values) {
		return false
	}
	for i := range p.Types {
		if !p.Types[i].Equal(o.Types[i]) {
			return false
		}
	}
	for i := range p.Values {
		if !constGenericEqual(p.Values[i], o.Values[i]) {
			return false
		}
	}
	return true
}

// Equal compares two PathParams exactly, including lifetimes (§3.1).
func (p PathParams) Equal(o PathParams) bool {
	if !p.EqualIgnoringLifetimes(o) || len(p.Lifetimes) != len(o.Lifetimes) {
		return false
	}
	for i := range p.Lifetimes {
		if p.Lifetimes[i].Binding != o.Lifetimes[i].Binding || !p.Lifetimes[i].Name.Equal(o.Lifetimes[i].Name) {
			return false
		}
	}
	return true
}

func constGenericEqual(a, b ConstGeneric) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case ConstGenericKnown:
		return a.Literal == b.Literal
	case ConstGenericGeneric:
		return a.Generic == b.Generic
	default:
		return a.ExprID == b.ExprID
	}
}

// IsEmptyNoLifetimes reports whether p carries no arguments at all — the
// fast-path test MonomorphiserPP uses to skip lifetime substitution
// entirely (§4.2).
func (p PathParams) IsEmptyNoLifetimes() bool {
	return len(p.Lifetimes) == 0 && len(p.Types) == 0 && len(p.Values) == 0
}

// GenericPath is a SimplePath plus its generic arguments (§3.1).
type GenericPath struct {
	Path   SimplePath
	Params PathParams
}

func (g GenericPath) String() string { return g.Path.String() }

// AtyEqual is a `Type = ConcreteType` associated-type-equality bound
// attached to a TraitPath (§3.1).
type AtyEqual struct {
	Name istr.IStr
	Type TypeRef
}

// AtyBound is a `Type: Trait` associated-type bound attached to a
// TraitPath (§3.1).
type AtyBound struct {
	Name  istr.IStr
	Trait TraitPath
}

// TraitPath is a trait reference together with any higher-ranked binders,
// and the bounds/equalities pinned on its associated types (§3.1).
// TraitPtr is a non-owning back-reference populated by the crate's
// post-load pass (§3.1, §9) — it must never be read before that pass has
// run; use Crate.ResolveTraitPtr.
type TraitPath struct {
	HRTBs       *GenericParams
	Path        GenericPath
	TypeBounds  map[string]AtyEqual
	TraitBounds map[string]AtyBound
	TraitPtr    TraitHandle // weak; populated post-load, never serialised
}

// TraitHandle is an index into Crate.traitTable, the flat table that
// replaces a raw pointer back-reference (§9, "Cyclic back-references").
// The zero value means "unresolved".
type TraitHandle struct {
	idx int32
	ok  bool
}

func (h TraitHandle) Valid() bool { return h.ok }

// HasHRTBs reports whether this trait path carries its own `for<...>`
// binder scope, relevant to the monomorphiser's HRB stack discipline
// (§4.2).
func (t TraitPath) HasHRTBs() bool { return t.HRTBs != nil && len(t.HRTBs.Lifetimes) > 0 }

// PathKind tags the four Path variants of §3.1.
type PathKind uint8

const (
	PathGeneric PathKind = iota
	PathUfcsInherent
	PathUfcsKnown
	PathUfcsUnknown
)

// Path is the tagged Path sum of §3.1. Exactly one of the per-kind fields
// is meaningful, selected by Kind. UfcsUnknown is transient: it must be
// resolved away before any resolver query runs (§3.1 invariant; breach is
// diag.HIR001).
type Path struct {
	Kind PathKind

	// PathGeneric
	Generic GenericPath

	// PathUfcsInherent: <Type>::Item
	UfcsType       TypeRef
	UfcsItem       istr.IStr
	UfcsParams     PathParams
	UfcsImplParams PathParams

	// PathUfcsKnown additionally carries a trait and optional HRTBs
	UfcsTrait TraitPath
	UfcsHRTBs *GenericParams

	// PathUfcsUnknown carries only Type/Item/Params (reuses the fields
	// above; UfcsTrait/UfcsImplParams are unused for this kind)
}

func (p Path) String() string {
	switch p.Kind {
	case PathGeneric:
		return p.Generic.String()
	case PathUfcsInherent:
		return "<" + p.UfcsType.String() + ">::" + p.UfcsItem.Raw()
	case PathUfcsKnown:
		return "<" + p.UfcsType.String() + " as " + p.UfcsTrait.Path.String() + ">::" + p.UfcsItem.Raw()
	default:
		return "<?" + p.UfcsType.String() + "?>::" + p.UfcsItem.Raw()
	}
}

// SortKey returns a deterministic string for diagnostic ordering.
func (p Path) SortKey() string { return p.String() }

// SortPaths sorts a slice of SimplePath in place (used when building
// stable impl-group iteration order, §4.9).
func SortPaths(paths []SimplePath) {
	sort.Slice(paths, func(i, j int) bool { return paths[i].Less(paths[j]) })
}
