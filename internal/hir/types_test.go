package hir

import (
	"testing"

	"github.com/sunholo/hirgo/internal/istr"
)

func TestTypeRefEqualStructural(t *testing.T) {
	a := TTuple([]TypeRef{TPrimitive(PrimU8), TPrimitive(PrimBool)})
	b := TTuple([]TypeRef{TPrimitive(PrimU8), TPrimitive(PrimBool)})
	if !a.Equal(b) {
		t.Fatalf("structurally identical tuples must compare Equal")
	}
	c := TTuple([]TypeRef{TPrimitive(PrimU8), TPrimitive(PrimChar)})
	if a.Equal(c) {
		t.Fatalf("tuples differing in an element must not compare Equal")
	}
}

func TestTypeRefEqualShortCircuitsOnIdenticalHandle(t *testing.T) {
	a := TPrimitive(PrimI32)
	if !a.Equal(a) {
		t.Fatalf("a type must equal itself")
	}
}

func TestUnitIsEmptyTuple(t *testing.T) {
	u := TUnit()
	if u.Kind() != TyTuple || len(u.ElemsOf()) != 0 {
		t.Fatalf("TUnit must be Tuple([]), got kind=%v elems=%v", u.Kind(), u.ElemsOf())
	}
}

func TestArrayOfSizeZeroIsDetected(t *testing.T) {
	zero := TArray(TPrimitive(PrimU8), ArraySize{Kind: ArraySizeKnown, Value: 0})
	if !zero.IsArrayOfSizeZero() {
		t.Fatalf("§3.2 invariant (c): [T;0] must be detected as size-zero")
	}
	three := TArray(TPrimitive(PrimU8), ArraySize{Kind: ArraySizeKnown, Value: 3})
	if three.IsArrayOfSizeZero() {
		t.Fatalf("[T;3] must not be reported as size-zero")
	}
}

func TestOpaqueBindingOnlyLegalOnUfcsKnown(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic: Opaque binding is only legal on a UfcsKnown path (§3.2 invariant b)")
		}
	}()
	genericPath := Path{Kind: PathGeneric, Generic: GenericPath{Path: NewSimplePath(istr.Intern("k"), istr.Intern("T"))}}
	TPath(genericPath, TypeBinding{State: BindingOpaque})
}

func TestOpaqueBindingLegalOnUfcsKnown(t *testing.T) {
	ufcs := Path{Kind: PathUfcsKnown, UfcsType: TPrimitive(PrimU8), UfcsItem: istr.Intern("Output")}
	// Must not panic.
	ty := TPath(ufcs, TypeBinding{State: BindingOpaque})
	if ty.BindingOf().State != BindingOpaque {
		t.Fatalf("expected Opaque binding to be retained")
	}
}

func TestTraitObjectEqualityComparesMarkersAndPrincipal(t *testing.T) {
	trA := TraitPath{Path: GenericPath{Path: NewSimplePath(istr.Intern("k"), istr.Intern("A"))}}
	trB := TraitPath{Path: GenericPath{Path: NewSimplePath(istr.Intern("k"), istr.Intern("B"))}}
	lt := LifetimeRef{Name: istr.Intern("'a")}

	obj1 := TTraitObject(trA, []TraitPath{trB}, lt)
	obj2 := TTraitObject(trA, []TraitPath{trB}, lt)
	if !obj1.Equal(obj2) {
		t.Fatalf("dyn Trait + Marker objects with the same principal/markers must be Equal")
	}

	obj3 := TTraitObject(trA, nil, lt)
	if obj1.Equal(obj3) {
		t.Fatalf("differing marker lists must not compare Equal")
	}
}

func TestHashIsStableForEqualTypes(t *testing.T) {
	a := TArray(TPrimitive(PrimU8), ArraySize{Kind: ArraySizeKnown, Value: 4})
	b := TArray(TPrimitive(PrimU8), ArraySize{Kind: ArraySizeKnown, Value: 4})
	if a.Hash() != b.Hash() {
		t.Fatalf("structurally equal types must hash identically")
	}
}
