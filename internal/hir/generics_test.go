package hir

import (
	"testing"

	"github.com/sunholo/hirgo/internal/istr"
)

func TestGenericRefBindingPacksGroupAndIdx(t *testing.T) {
	g := GenericRef{Name: istr.Intern("T"), Group: GroupMethod, Idx: 3}
	if got, want := g.Binding(), uint16(GroupMethod)<<8|3; got != want {
		t.Fatalf("Binding() = %#x, want %#x", got, want)
	}
}

func TestGenericRefIsSelf(t *testing.T) {
	self := GenericRef{Group: GenericGroup(SelfIdx >> 8), Idx: uint8(SelfIdx & 0xFF)}
	if !self.IsSelf() {
		t.Fatalf("a ref whose binding word equals SelfIdx must report IsSelf")
	}
	notSelf := GenericRef{Group: GroupImpl, Idx: 0}
	if notSelf.IsSelf() {
		t.Fatalf("an ordinary impl-group ref must not report IsSelf")
	}
}

func TestGenericParamsIsEmpty(t *testing.T) {
	var nilParams *GenericParams
	if !nilParams.IsEmpty() {
		t.Fatalf("a nil *GenericParams must report IsEmpty")
	}
	empty := &GenericParams{}
	if !empty.IsEmpty() {
		t.Fatalf("a GenericParams with no types/lifetimes/values must report IsEmpty")
	}
	nonEmpty := &GenericParams{Types: []TypeParamDef{{Name: istr.Intern("T")}}}
	if nonEmpty.IsEmpty() {
		t.Fatalf("a GenericParams with a type parameter must not report IsEmpty")
	}
}

func TestGenericParamsTraitBoundsOnFiltersBySubjectType(t *testing.T) {
	u8 := TPrimitive(PrimU8)
	bool_ := TPrimitive(PrimBool)
	trait := TraitPath{Path: GenericPath{Path: NewSimplePath(istr.Intern("k"), istr.Intern("Tr"))}}

	params := &GenericParams{
		Bounds: []GenericBound{
			{Kind: BoundTrait, TraitType: u8, Trait: trait},
			{Kind: BoundTrait, TraitType: bool_, Trait: trait},
			{Kind: BoundLifetime, LifetimeA: istr.Intern("'a"), LifetimeB: istr.Intern("'b")},
		},
	}

	got := params.TraitBoundsOn(u8)
	if len(got) != 1 || !got[0].TraitType.Equal(u8) {
		t.Fatalf("expected exactly one bound on u8, got %+v", got)
	}
}
