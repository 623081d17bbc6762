package hir

import (
	"testing"

	"github.com/sunholo/hirgo/internal/istr"
)

func TestNewModuleInitialisesEmptyTables(t *testing.T) {
	p := NewSimplePath(istr.Intern("k"))
	m := NewModule(p)
	if m.ValueItems == nil || m.ModItems == nil {
		t.Fatalf("NewModule must pre-allocate both item tables")
	}
	if len(m.ValueItems) != 0 || len(m.ModItems) != 0 {
		t.Fatalf("a fresh module must start with no items")
	}
	if !m.Path.Equal(p) {
		t.Fatalf("NewModule must retain the given path")
	}
}

func TestVisEntWrapsVisibilityWithItem(t *testing.T) {
	ent := VisEnt[TypeRef]{Vis: Visibility{Kind: VisPublic}, Item: TPrimitive(PrimU8)}
	if ent.Vis.Kind != VisPublic {
		t.Fatalf("expected a public wrapper")
	}
	if !ent.Item.Equal(TPrimitive(PrimU8)) {
		t.Fatalf("expected the wrapped item to round-trip unchanged")
	}
}

// TestModuleHoldsNamedFieldsOfAStruct grounds the field-table shape
// against a realistic named struct so the VisEnt[TypeRef]/NamedField
// plumbing is exercised together (§3.4).
func TestModuleHoldsNamedFieldsOfAStruct(t *testing.T) {
	path := NewSimplePath(istr.Intern("k"), istr.Intern("Point"))
	m := NewModule(NewSimplePath(istr.Intern("k")))

	st := &Struct{
		Data: StructData{
			Kind: StructNamed,
			NamedFields: []NamedField{
				{Name: istr.Intern("x"), Ent: VisEnt[TypeRef]{Vis: Visibility{Kind: VisPublic}, Item: TPrimitive(PrimU32)}},
				{Name: istr.Intern("y"), Ent: VisEnt[TypeRef]{Vis: Visibility{Kind: VisPublic}, Item: TPrimitive(PrimU32)}},
			},
		},
		StructMarkings: StructMarkings{UnsizedParam: -1, UnsizedField: -1},
	}
	m.ModItems[path.Components[len(path.Components)-1].Raw()] = VisEnt[TypeItem]{
		Vis:  Visibility{Kind: VisPublic},
		Item: TypeItem{Kind: TypeItemStruct, Struct: st},
	}

	got, ok := m.ModItems["Point"]
	if !ok {
		t.Fatalf("expected Point to be registered under the module's ModItems")
	}
	if got.Item.Kind != TypeItemStruct || len(got.Item.Struct.Data.NamedFields) != 2 {
		t.Fatalf("expected the struct's two named fields to survive storage, got %+v", got.Item.Struct)
	}
}

func TestTraitVtableIndexesAreKeyedByMethodName(t *testing.T) {
	tr := &Trait{
		Items: map[string]TraitItem{
			"f": {Kind: TraitItemFunction, Function: &Function{Ret: TPrimitive(PrimU32)}},
		},
		ValueIndexes: map[string]int{"f": 0},
		TypeIndexes:  map[string]int{},
	}
	if idx, ok := tr.ValueIndexes["f"]; !ok || idx != 0 {
		t.Fatalf("expected method f to occupy vtable slot 0")
	}
	if _, ok := tr.Items["f"]; !ok {
		t.Fatalf("expected the trait body to carry the function item")
	}
}
