package metadata

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sunholo/hirgo/internal/codec"
	"github.com/sunholo/hirgo/internal/diag"
	"github.com/sunholo/hirgo/internal/hir"
	"github.com/sunholo/hirgo/internal/istr"
	"github.com/sunholo/hirgo/internal/resolve"
)

// buildSampleCrate constructs struct S<T>{v:T}, trait Tr{fn f(&self)->u32;}
// and impl Tr for S<u32> — §8's round-trip smoke scenario.
func buildSampleCrate(t *testing.T) *hir.Crate {
	t.Helper()
	istr.ClearAll()
	crate := hir.NewCrate(istr.Intern("k"))

	sPath := hir.NewSimplePath(istr.Intern("k"), istr.Intern("S"))
	trPath := hir.NewSimplePath(istr.Intern("k"), istr.Intern("Tr"))

	str := &hir.Struct{
		Params: hir.GenericParams{Types: []hir.TypeParamDef{{Name: istr.Intern("T"), IsSized: true}}},
		Data: hir.StructData{
			Kind: hir.StructNamed,
			NamedFields: []hir.NamedField{
				{Name: istr.Intern("v"), Ent: hir.VisEnt[hir.TypeRef]{
					Vis:  hir.Visibility{Kind: hir.VisPublic},
					Item: hir.TGeneric(hir.GenericRef{Name: istr.Intern("T"), Group: hir.GroupImpl, Idx: 0}),
				}},
			},
		},
		StructMarkings: hir.StructMarkings{UnsizedParam: -1, UnsizedField: -1},
	}
	crate.RootModule.ModItems["S"] = hir.VisEnt[hir.TypeItem]{
		Vis:  hir.Visibility{Kind: hir.VisPublic},
		Item: hir.TypeItem{Kind: hir.TypeItemStruct, Struct: str},
	}

	trait := &hir.Trait{
		Items: map[string]hir.TraitItem{
			"f": {Kind: hir.TraitItemFunction, Function: &hir.Function{
				Receiver: hir.ReceiverBorrowShared,
				Ret:      hir.TPrimitive(hir.PrimU32),
			}},
		},
		ValueIndexes: map[string]int{"f": 0},
		TypeIndexes:  map[string]int{},
	}
	crate.RootModule.ModItems["Tr"] = hir.VisEnt[hir.TypeItem]{
		Vis:  hir.Visibility{Kind: hir.VisPublic},
		Item: hir.TypeItem{Kind: hir.TypeItemTrait, Trait: trait},
	}

	sOfU32 := hir.TPath(
		hir.Path{Kind: hir.PathGeneric, Generic: hir.GenericPath{
			Path:   sPath,
			Params: hir.PathParams{Types: []hir.TypeRef{hir.TPrimitive(hir.PrimU32)}},
		}},
		hir.TypeBinding{State: hir.BindingStruct, Item: sPath},
	)
	crate.AddTraitImpl(trPath, &hir.TraitImpl{
		TraitPath: hir.GenericPath{Path: trPath},
		Type:      sOfU32,
		Items: map[string]hir.TraitItem{
			"f": {Kind: hir.TraitItemFunction, Function: &hir.Function{
				Receiver: hir.ReceiverBorrowShared,
				Ret:      hir.TPrimitive(hir.PrimU32),
			}},
		},
	})

	return crate
}

func TestCrateRoundTripPreservesStructureAndFindImpl(t *testing.T) {
	crate := buildSampleCrate(t)

	var buf bytes.Buffer
	if err := WriteCrate(&buf, crate); err != nil {
		t.Fatalf("WriteCrate: %v", err)
	}

	got, err := ReadCrate(&buf)
	if err != nil {
		t.Fatalf("ReadCrate: %v", err)
	}

	if got.Name.Raw() != "k" {
		t.Fatalf("expected crate name k, got %q", got.Name.Raw())
	}
	if got.BuildID == "" {
		t.Fatalf("expected a non-empty build id to have been assigned and round-tripped")
	}
	if _, ok := got.RootModule.ModItems["S"]; !ok {
		t.Fatalf("expected struct S to survive the round trip")
	}

	trPath := hir.NewSimplePath(istr.Intern("k"), istr.Intern("Tr"))
	sOfU32 := hir.TPath(
		hir.Path{Kind: hir.PathGeneric, Generic: hir.GenericPath{
			Path:   hir.NewSimplePath(istr.Intern("k"), istr.Intern("S")),
			Params: hir.PathParams{Types: []hir.TypeRef{hir.TPrimitive(hir.PrimU32)}},
		}},
		hir.TypeBinding{State: hir.BindingStruct, Item: hir.NewSimplePath(istr.Intern("k"), istr.Intern("S"))},
	)

	r := resolve.New(got, nil, nil)
	found := r.FindImpl(trPath, nil, sOfU32, func(resolve.ImplRef, bool) bool { return true }, false)
	if !found {
		t.Fatalf("expected find_impl(Tr, S<u32>) to succeed after a round trip")
	}
}

func TestReadCrateRejectsUnacceptedSchema(t *testing.T) {
	var buf bytes.Buffer
	w, err := codec.NewWriter(&buf)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	w.WriteString("someother.schema/v9")
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	_, err = ReadCrate(&buf)
	if err == nil {
		t.Fatalf("expected ReadCrate to reject an unrecognised schema string")
	}
	de, ok := err.(*diag.Error)
	if !ok || de.Code != diag.COD408 {
		t.Fatalf("expected diag.COD408, got %v", err)
	}
}

func TestDumpCrateRendersStructsAndImpls(t *testing.T) {
	crate := buildSampleCrate(t)
	var buf strings.Builder
	DumpCrate(&buf, crate)
	out := buf.String()
	if !strings.Contains(out, "struct S") {
		t.Fatalf("expected dump to mention struct S, got:\n%s", out)
	}
	if !strings.Contains(out, "trait impls:") {
		t.Fatalf("expected dump to mention trait impls, got:\n%s", out)
	}
}
