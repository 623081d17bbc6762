package lower

import (
	"testing"

	"github.com/sunholo/hirgo/internal/hir"
	"github.com/sunholo/hirgo/internal/istr"
	"github.com/sunholo/hirgo/internal/srcast"
)

// buildFixture mirrors cmd/hirgoc's fixture builder: a struct, a trait,
// a trait impl for that struct, and a free function — one instance of
// every item shape lowering must translate (§4.3).
func buildFixture() *srcast.Crate {
	pointSelf := &srcast.Type{Kind: srcast.TyPath, Path: &srcast.Path{Segments: []string{"fixture", "Point"}}}

	point := &srcast.Item{
		Name: "Point",
		Kind: srcast.ItemStruct,
		Vis:  srcast.Visibility{Kind: srcast.VisPublic},
		Struct: &srcast.StructDef{
			Fields: []*srcast.Field{
				{Name: "x", Type: &srcast.Type{Kind: srcast.TyPrimitive, Primitive: "i32"}, Vis: srcast.VisPublic},
				{Name: "y", Type: &srcast.Type{Kind: srcast.TyPrimitive, Primitive: "i32"}, Vis: srcast.VisPublic},
			},
		},
	}

	describe := &srcast.TraitItem{
		Fn: &srcast.Fn{
			Name: "describe",
			Params: []srcast.Param{
				{Type: &srcast.Type{Kind: srcast.TyBorrow, Inner: &srcast.Type{Kind: srcast.TySelf}}},
			},
			Ret: &srcast.Type{Kind: srcast.TyPrimitive, Primitive: "u32"},
		},
	}

	show := &srcast.Item{
		Name: "Show",
		Kind: srcast.ItemTrait,
		Vis:  srcast.Visibility{Kind: srcast.VisPublic},
		Trait: &srcast.TraitDef{
			Items: map[string]*srcast.TraitItem{"describe": describe},
		},
	}

	showForPoint := &srcast.Item{
		Name: "ShowForPoint",
		Kind: srcast.ItemTraitImpl,
		TraitImpl: &srcast.ImplDef{
			Self:  pointSelf,
			Trait: &srcast.Path{Segments: []string{"fixture", "Show"}},
			Items: map[string]*srcast.TraitItem{"describe": describe},
		},
	}

	originCount := &srcast.Item{
		Name: "origin_count",
		Kind: srcast.ItemFunction,
		Vis:  srcast.Visibility{Kind: srcast.VisPublic},
		Fn: &srcast.Fn{
			Name: "origin_count",
			Ret:  &srcast.Type{Kind: srcast.TyPrimitive, Primitive: "usize"},
		},
	}

	return &srcast.Crate{
		Name: "fixture",
		Root: &srcast.Module{
			Name:  "fixture",
			Items: []*srcast.Item{point, show, showForPoint, originCount},
		},
	}
}

func TestLowerHIR_FromAST_PopulatesItems(t *testing.T) {
	crate, err := LowerHIR_FromAST(buildFixture(), Options{}, nil)
	if err != nil {
		t.Fatalf("LowerHIR_FromAST: %v", err)
	}

	root := crate.RootModule
	pointEnt, ok := root.ModItems["Point"]
	if !ok || pointEnt.Item.Kind != hir.TypeItemStruct {
		t.Fatalf("expected Point struct in root module, got %+v", pointEnt)
	}
	if len(pointEnt.Item.Struct.Data.NamedFields) != 2 {
		t.Fatalf("expected 2 named fields on Point, got %d", len(pointEnt.Item.Struct.Data.NamedFields))
	}

	showEnt, ok := root.ModItems["Show"]
	if !ok || showEnt.Item.Kind != hir.TypeItemTrait {
		t.Fatalf("expected Show trait in root module, got %+v", showEnt)
	}
	if _, ok := showEnt.Item.Trait.Items["describe"]; !ok {
		t.Fatalf("expected describe method on Show trait")
	}

	fnEnt, ok := root.ValueItems["origin_count"]
	if !ok || fnEnt.Item.Kind != hir.ValueItemFunction {
		t.Fatalf("expected origin_count function in root module, got %+v", fnEnt)
	}

	if len(crate.AllTypeImpls) != 0 {
		t.Fatalf("fixture has no inherent impls, got %d", len(crate.AllTypeImpls))
	}
	showPath := hir.NewSimplePath(istr.Intern("fixture"), istr.Intern("Show"))
	impls := crate.AllTraitImplsOf(showPath)
	if len(impls) != 1 {
		t.Fatalf("expected exactly one Show impl registered, got %d", len(impls))
	}
}

func TestLowerHIR_FromAST_DuplicateNameFails(t *testing.T) {
	src := buildFixture()
	dup := &srcast.Item{
		Name: "Point",
		Kind: srcast.ItemStruct,
		Vis:  srcast.Visibility{Kind: srcast.VisPublic},
		Struct: &srcast.StructDef{
			IsUnit: true,
		},
	}
	src.Root.Items = append(src.Root.Items, dup)

	if _, err := LowerHIR_FromAST(src, Options{}, nil); err == nil {
		t.Fatalf("expected duplicate-name error, got nil")
	}
}

func TestLowerHIR_FromAST_ClearsProcessScopeState(t *testing.T) {
	l := &Lowerer{}
	l.crate = hir.NewCrate(istr.Intern("scratch"))
	l.selfStack = []hir.TypeRef{{}}
	l.clear()

	if l.crate != nil {
		t.Fatalf("expected crate to be cleared")
	}
	if l.selfStack != nil {
		t.Fatalf("expected selfStack to be cleared")
	}
}
