package main

import "github.com/sunholo/hirgo/internal/srcast"

// buildFixtureCrate constructs a small, fixed srcast.Crate exercising one
// instance of every shape the pipeline's subcommands need to show
// something: a struct, a trait, a trait impl for that struct, and a free
// function. This is the "fixture AST" §10.6 names — there is no parser in
// this snippet, so the driver cannot read an arbitrary source file.
func buildFixtureCrate() *srcast.Crate {
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
