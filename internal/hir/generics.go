package hir

import (
	"fmt"

	"github.com/sunholo/hirgo/internal/istr"
)

// GenericGroup tags which binder scope a GenericRef belongs to (§3.2).
type GenericGroup uint8

const (
	GroupImpl        GenericGroup = 0
	GroupMethod      GenericGroup = 1
	GroupPlaceholder GenericGroup = 2
	GroupHRB         GenericGroup = 3
)

// SelfIdx is the reserved 0xFFFF binding meaning `Self` (§3.2).
const SelfIdx = 0xFFFF

// GenericRef packs (name, group:idx) into the 16-bit binding word
// described in §3.2: `group:8 | idx:8`. Name is kept for diagnostics; the
// binding word is what equality and substitution keys off of.
type GenericRef struct {
	Name    istr.IStr
	Group   GenericGroup
	Idx     uint8
}

// IsSelf reports whether this ref is the reserved Self slot.
func (g GenericRef) IsSelf() bool { return uint16(g.Group)<<8|uint16(g.Idx) == SelfIdx }

// Binding packs the group/idx pair into the spec's 16-bit word.
func (g GenericRef) Binding() uint16 { return uint16(g.Group)<<8 | uint16(g.Idx) }

func (g GenericRef) String() string {
	if g.IsSelf() {
		return "Self"
	}
	return fmt.Sprintf("%s/%d.%d", g.Name.Raw(), g.Group, g.Idx)
}

// SelfRef is the well-known Self generic reference.
var SelfRef = GenericRef{Name: istr.Intern("Self"), Group: GenericGroup(SelfIdx >> 8), Idx: uint8(SelfIdx & 0xFF)}

// TypeParamDef is one entry of GenericParams.Types (§3.3).
type TypeParamDef struct {
	Name     istr.IStr
	Default  *TypeRef
	IsSized  bool // false encodes ?Sized / ?PointeeSized / ?MetadataSized (§3.3)
}

// LifetimeDef is one entry of GenericParams.Lifetimes.
type LifetimeDef struct {
	Name istr.IStr
}

// ValueParamDef is one entry of GenericParams.Values (a const generic
// parameter).
type ValueParamDef struct {
	Name istr.IStr
	Type TypeRef
}

// GenericBoundKind tags the GenericBound sum of §3.3.
type GenericBoundKind uint8

const (
	BoundLifetime GenericBoundKind = iota
	BoundTypeLifetime
	BoundTrait
	BoundTypeEquality
)

// GenericBound is a constraint attached to a GenericParams list (§3.3).
type GenericBound struct {
	Kind GenericBoundKind

	// BoundLifetime: 'a: 'b
	LifetimeA istr.IStr
	LifetimeB istr.IStr

	// BoundTypeLifetime: T: 'a
	Type     TypeRef
	Lifetime istr.IStr

	// BoundTrait: T: Trait (possibly for<'a> ...)
	TraitHRTBs *GenericParams
	TraitType  TypeRef
	Trait      TraitPath

	// BoundTypeEquality: T = U
	Other TypeRef
}

// GenericParams is the full generic-parameter list of an item or impl
// (§3.3).
type GenericParams struct {
	Types     []TypeParamDef
	Lifetimes []LifetimeDef
	Values    []ValueParamDef
	Bounds    []GenericBound
}

// IsEmpty reports whether this parameter list binds nothing.
func (g *GenericParams) IsEmpty() bool {
	return g == nil || (len(g.Types) == 0 && len(g.Lifetimes) == 0 && len(g.Values) == 0)
}

// TraitBoundsOn returns every BoundTrait bound whose subject type equals
// ty, by structural equality — used by the resolver's environment-bound
// search (§4.5 step 8).
func (g *GenericParams) TraitBoundsOn(ty TypeRef) []GenericBound {
	if g == nil {
		return nil
	}
	var out []GenericBound
	for _, b := range g.Bounds {
		if b.Kind == BoundTrait && b.TraitType.Equal(ty) {
			out = append(out, b)
		}
	}
	return out
}
