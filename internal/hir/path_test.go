package hir

import (
	"testing"

	"github.com/sunholo/hirgo/internal/istr"
)

func TestSimplePathEqualAndString(t *testing.T) {
	k := istr.Intern("mycrate")
	p1 := NewSimplePath(k, istr.Intern("foo"), istr.Intern("Bar"))
	p2 := NewSimplePath(k, istr.Intern("foo"), istr.Intern("Bar"))
	if !p1.Equal(p2) {
		t.Fatalf("equal components must compare Equal")
	}
	if p1.String() != "mycrate::foo::Bar" {
		t.Fatalf("unexpected String(): %q", p1.String())
	}
}

func TestSimplePathPush(t *testing.T) {
	base := NewSimplePath(istr.Intern("k"), istr.Intern("Enum"))
	variant := base.Push(istr.Intern("Enum#Variant"))
	if variant.String() != "k::Enum::Enum#Variant" {
		t.Fatalf("unexpected Push result: %s", variant)
	}
	// base must be unaffected (Push returns a copy, §4.3's synthetic
	// sibling-struct naming relies on this not aliasing the original).
	if len(base.Components) != 1 {
		t.Fatalf("Push must not mutate the receiver")
	}
}

func TestPathParamsEqualityIgnoresLifetimes(t *testing.T) {
	u8 := TPrimitive(PrimU8)
	ltA := LifetimeRef{Name: istr.Intern("'a")}
	ltB := LifetimeRef{Name: istr.Intern("'b")}

	p1 := PathParams{Lifetimes: []LifetimeRef{ltA}, Types: []TypeRef{u8}}
	p2 := PathParams{Lifetimes: []LifetimeRef{ltB}, Types: []TypeRef{u8}}

	if !p1.EqualIgnoringLifetimes(p2) {
		t.Fatalf("§3.1: 'same generic instantiation' equality must ignore lifetimes")
	}
	if p1.Equal(p2) {
		t.Fatalf("exact Equal must still distinguish differing lifetimes")
	}
}

func TestPathParamsIsEmptyNoLifetimes(t *testing.T) {
	if !(PathParams{}).IsEmptyNoLifetimes() {
		t.Fatalf("zero-value PathParams must report IsEmptyNoLifetimes")
	}
	nonEmpty := PathParams{Types: []TypeRef{TPrimitive(PrimU8)}}
	if nonEmpty.IsEmptyNoLifetimes() {
		t.Fatalf("a PathParams with a type argument must not report IsEmptyNoLifetimes")
	}
}

func TestVisibilityLattice(t *testing.T) {
	root := NewSimplePath(istr.Intern("k"))
	sub := root.Push(istr.Intern("inner"))

	pub := Visibility{Kind: VisPublic}
	privRoot := Visibility{Kind: VisPrivate, ModPath: root}
	privSub := Visibility{Kind: VisPrivate, ModPath: sub}

	if !pub.Contains(privRoot) {
		t.Fatalf("Public must contain every narrower visibility")
	}
	if privRoot.Contains(pub) {
		t.Fatalf("a private visibility must not contain Public")
	}
	if privRoot.IsVisibleFrom(sub) {
		t.Fatalf("Private(root) must not be visible from a different module path")
	}
	if !privSub.IsVisibleFrom(sub) {
		t.Fatalf("Private(sub) must be visible from the exact defining module")
	}
}

func TestVisibilityWidenPicksLeastRestrictive(t *testing.T) {
	root := NewSimplePath(istr.Intern("k"))
	priv := Visibility{Kind: VisPrivate, ModPath: root}
	pub := Visibility{Kind: VisPublic}
	if w := priv.Widen(pub); w.Kind != VisPublic {
		t.Fatalf("widening private with public must yield public")
	}
}
