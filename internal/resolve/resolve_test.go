package resolve

import (
	"testing"

	"github.com/sunholo/hirgo/internal/hir"
	"github.com/sunholo/hirgo/internal/istr"
)

func TestTypeIsSizedForPrimitivesAndSlices(t *testing.T) {
	r := New(hir.NewCrate(istr.Intern("k")), nil, nil)
	if !r.TypeIsSized(hir.TPrimitive(hir.PrimU32)) {
		t.Fatalf("u32 must be Sized")
	}
	if r.TypeIsSized(hir.TSlice(hir.TPrimitive(hir.PrimU8))) {
		t.Fatalf("[u8] must not be Sized")
	}
	if r.TypeIsSized(hir.TPrimitive(hir.PrimStr)) {
		t.Fatalf("str must not be Sized")
	}
}

func TestTypeIsCopyStructuralCases(t *testing.T) {
	r := New(hir.NewCrate(istr.Intern("k")), nil, nil)

	if !r.TypeIsCopy(hir.TPrimitive(hir.PrimU8)) {
		t.Fatalf("u8 must be Copy")
	}
	if r.TypeIsCopy(hir.TPrimitive(hir.PrimStr)) {
		t.Fatalf("str must not be Copy")
	}
	tuple := hir.TTuple([]hir.TypeRef{hir.TPrimitive(hir.PrimU8), hir.TPrimitive(hir.PrimBool)})
	if !r.TypeIsCopy(tuple) {
		t.Fatalf("a tuple of Copy elements must be Copy")
	}
	mixed := hir.TTuple([]hir.TypeRef{hir.TPrimitive(hir.PrimU8), hir.TPrimitive(hir.PrimStr)})
	if r.TypeIsCopy(mixed) {
		t.Fatalf("a tuple containing a non-Copy element must not be Copy")
	}
	zeroArr := hir.TArray(hir.TPrimitive(hir.PrimStr), hir.ArraySize{Kind: hir.ArraySizeKnown, Value: 0})
	if !r.TypeIsCopy(zeroArr) {
		t.Fatalf("§3.2 invariant (c): a zero-length array must be Copy regardless of element type")
	}
	sharedBorrow := hir.TBorrow(hir.BorrowShared, hir.TPrimitive(hir.PrimU8), hir.LifetimeRef{})
	if !r.TypeIsCopy(sharedBorrow) {
		t.Fatalf("&T must be Copy")
	}
	uniqueBorrow := hir.TBorrow(hir.BorrowUnique, hir.TPrimitive(hir.PrimU8), hir.LifetimeRef{})
	if r.TypeIsCopy(uniqueBorrow) {
		t.Fatalf("&mut T must not be Copy")
	}
}

func TestCanUnsizeIdentity(t *testing.T) {
	r := New(hir.NewCrate(istr.Intern("k")), nil, nil)
	u8 := hir.TPrimitive(hir.PrimU8)
	if !r.CanUnsize(u8, u8) {
		t.Fatalf("§4.5 Unsize case (a): a type always unsizes to itself")
	}
}

func TestCanUnsizeArrayToSlice(t *testing.T) {
	r := New(hir.NewCrate(istr.Intern("k")), nil, nil)
	arr := hir.TArray(hir.TPrimitive(hir.PrimU8), hir.ArraySize{Kind: hir.ArraySizeKnown, Value: 4})
	sl := hir.TSlice(hir.TPrimitive(hir.PrimU8))
	if !r.CanUnsize(sl, arr) {
		t.Fatalf("§4.5 Unsize case (g): [T;N] must unsize to [T]")
	}
	wrongElem := hir.TSlice(hir.TPrimitive(hir.PrimBool))
	if r.CanUnsize(wrongElem, arr) {
		t.Fatalf("array-to-slice unsizing must require matching element types")
	}
}

// buildTraitImplFixture registers struct S, trait Tr and `impl Tr for S` in
// a fresh crate, mirroring §8's round-trip smoke scenario's shape.
func buildTraitImplFixture(t *testing.T) (*hir.Crate, hir.SimplePath, hir.TypeRef) {
	t.Helper()
	crate := hir.NewCrate(istr.Intern("k"))
	sPath := hir.NewSimplePath(istr.Intern("k"), istr.Intern("S"))
	trPath := hir.NewSimplePath(istr.Intern("k"), istr.Intern("Tr"))

	sTy := hir.TPath(hir.Path{Kind: hir.PathGeneric, Generic: hir.GenericPath{Path: sPath}},
		hir.TypeBinding{State: hir.BindingStruct, Item: sPath})

	crate.RootModule.ModItems["S"] = hir.VisEnt[hir.TypeItem]{
		Vis:  hir.Visibility{Kind: hir.VisPublic},
		Item: hir.TypeItem{Kind: hir.TypeItemStruct, Struct: &hir.Struct{StructMarkings: hir.StructMarkings{UnsizedParam: -1, UnsizedField: -1}}},
	}
	crate.RootModule.ModItems["Tr"] = hir.VisEnt[hir.TypeItem]{
		Vis:  hir.Visibility{Kind: hir.VisPublic},
		Item: hir.TypeItem{Kind: hir.TypeItemTrait, Trait: &hir.Trait{Items: map[string]hir.TraitItem{}}},
	}
	crate.AddTraitImpl(trPath, &hir.TraitImpl{
		TraitPath: hir.GenericPath{Path: trPath},
		Type:      sTy,
		Items:     map[string]hir.TraitItem{},
	})
	return crate, trPath, sTy
}

func TestFindImplLocatesRegisteredTraitImpl(t *testing.T) {
	crate, trPath, sTy := buildTraitImplFixture(t)
	r := New(crate, nil, nil)

	found := r.FindImpl(trPath, nil, sTy, func(ir ImplRef, fuzzy bool) bool {
		return ir.Kind == ImplRefImpl && !fuzzy
	}, false)
	if !found {
		t.Fatalf("expected FindImpl to locate the registered impl Tr for S")
	}
}

func TestFindImplRejectsUnrelatedType(t *testing.T) {
	crate, trPath, _ := buildTraitImplFixture(t)
	r := New(crate, nil, nil)

	other := hir.TPrimitive(hir.PrimU8)
	found := r.FindImpl(trPath, nil, other, func(ImplRef, bool) bool { return true }, false)
	if found {
		t.Fatalf("FindImpl must not match a trait impl registered for a different Self type")
	}
}

func TestFindImplTraitObjectMatchesSupertraitAndMarkers(t *testing.T) {
	crate := hir.NewCrate(istr.Intern("k"))
	superPath := hir.NewSimplePath(istr.Intern("k"), istr.Intern("Super"))
	subPath := hir.NewSimplePath(istr.Intern("k"), istr.Intern("Sub"))
	markerPath := hir.NewSimplePath(istr.Intern("k"), istr.Intern("Marker"))

	concrete := hir.TPrimitive(hir.PrimU32)
	superTrait := hir.TraitPath{
		Path:       hir.GenericPath{Path: superPath},
		TypeBounds: map[string]hir.AtyEqual{"Item": {Name: istr.Intern("Item"), Type: concrete}},
	}
	crate.RegisterTrait(subPath, &hir.Trait{AllParentTraits: []hir.TraitPath{superTrait}})

	subObj := hir.TTraitObject(
		hir.TraitPath{Path: hir.GenericPath{Path: subPath}},
		[]hir.TraitPath{{Path: hir.GenericPath{Path: markerPath}}},
		hir.LifetimeRef{},
	)

	r := New(crate, nil, nil)

	if !r.FindImpl(subPath, nil, subObj, func(ImplRef, bool) bool { return true }, false) {
		t.Fatalf("dyn Sub + Marker must implement its own principal trait Sub")
	}
	if !r.FindImpl(markerPath, nil, subObj, func(ImplRef, bool) bool { return true }, false) {
		t.Fatalf("dyn Sub + Marker must implement its marker trait Marker")
	}

	var output hir.TypeRef
	found := r.FindImpl(superPath, nil, subObj, func(ir ImplRef, fuzzy bool) bool {
		if t, ok := ir.Assoc["Item"]; ok {
			output = t
			return true
		}
		return false
	}, false)
	if !found {
		t.Fatalf("dyn Sub must implement Sub's supertrait Super, reached through AllParentTraits")
	}
	if !output.IsValid() || !output.Equal(concrete) {
		t.Fatalf("expected Super's pinned Item bound to be attached to the ImplRef, got %+v", output)
	}
}

func TestFindImplFnFamilyRespectsClosureClassAndAttachesOutput(t *testing.T) {
	crate := hir.NewCrate(istr.Intern("k"))
	fnPath := hir.NewSimplePath(istr.Intern("k"), istr.Intern("Fn"))
	fnMutPath := hir.NewSimplePath(istr.Intern("k"), istr.Intern("FnMut"))
	fnOncePath := hir.NewSimplePath(istr.Intern("k"), istr.Intern("FnOnce"))
	crate.LangItems[LangFn] = fnPath
	crate.LangItems[LangFnMut] = fnMutPath
	crate.LangItems[LangFnOnce] = fnOncePath
	r := New(crate, nil, nil)

	always := func(ImplRef, bool) bool { return true }

	onceClosure := hir.TClosure(1, hir.ClosureOnce, false)
	if r.FindImpl(fnPath, nil, onceClosure, always, false) {
		t.Fatalf("a once-only closure must not implement Fn")
	}
	if r.FindImpl(fnMutPath, nil, onceClosure, always, false) {
		t.Fatalf("a once-only closure must not implement FnMut")
	}
	if !r.FindImpl(fnOncePath, nil, onceClosure, always, false) {
		t.Fatalf("a once-only closure must still implement FnOnce")
	}

	mutClosure := hir.TClosure(2, hir.ClosureMut, false)
	if r.FindImpl(fnPath, nil, mutClosure, always, false) {
		t.Fatalf("a mutably-capturing closure must not implement Fn")
	}
	if !r.FindImpl(fnMutPath, nil, mutClosure, always, false) {
		t.Fatalf("a mutably-capturing closure must implement FnMut")
	}

	sharedClosure := hir.TClosure(3, hir.ClosureShared, false)
	if !r.FindImpl(fnPath, nil, sharedClosure, always, false) {
		t.Fatalf("a capture-by-reference closure must implement Fn")
	}

	ret := hir.TPrimitive(hir.PrimU32)
	fnPtr := hir.TFunction(hir.FnPtr{Ret: ret})
	var output hir.TypeRef
	found := r.FindImpl(fnOncePath, nil, fnPtr, func(ir ImplRef, fuzzy bool) bool {
		if t, ok := ir.Assoc["Output"]; ok {
			output = t
			return true
		}
		return false
	}, false)
	if !found {
		t.Fatalf("a function pointer must implement FnOnce")
	}
	if !output.IsValid() || !output.Equal(ret) {
		t.Fatalf("expected FnOnce's Output to be the fn pointer's return type, got %+v", output)
	}
}

func TestFindImplEnvironmentBoundSatisfiesQuery(t *testing.T) {
	crate := hir.NewCrate(istr.Intern("k"))
	trPath := hir.NewSimplePath(istr.Intern("k"), istr.Intern("Tr"))
	generic := hir.TGeneric(hir.GenericRef{Name: istr.Intern("T"), Group: hir.GroupImpl, Idx: 0})

	implGenerics := &hir.GenericParams{
		Bounds: []hir.GenericBound{
			{Kind: hir.BoundTrait, TraitType: generic, Trait: hir.TraitPath{Path: hir.GenericPath{Path: trPath}}},
		},
	}
	r := New(crate, implGenerics, nil)

	found := r.FindImpl(trPath, nil, generic, func(ir ImplRef, fuzzy bool) bool {
		return ir.Kind == ImplRefBound
	}, false)
	if !found {
		t.Fatalf("§4.5 step 8: an in-scope T: Tr bound must satisfy FindImpl(Tr, T)")
	}
}
