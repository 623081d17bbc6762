package mono

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sunholo/hirgo/internal/hir"
	"github.com/sunholo/hirgo/internal/istr"
)

// identityHooks substitutes every generic reference back to a type/value/
// lifetime that encodes its own identity, so a full substitution pass is
// observably a no-op — the shape §8's "Monomorph identity" property
// demands.
type identityHooks struct{}

func (identityHooks) GetType(ref hir.GenericRef) hir.TypeRef {
	return hir.TGeneric(ref)
}
func (identityHooks) GetValue(ref hir.GenericRef) hir.ConstGeneric {
	return hir.ConstGeneric{Kind: hir.ConstGenericGeneric, Generic: ref}
}
func (identityHooks) GetLifetime(ref hir.GenericRef) hir.LifetimeRef {
	return hir.LifetimeRef{Name: ref.Name, Binding: ref}
}

func tRef(name string, group hir.GenericGroup, idx uint8) hir.GenericRef {
	return hir.GenericRef{Name: istr.Intern(name), Group: group, Idx: idx}
}

// typeRefCmp treats hir.TypeRef as its own Equal method would — structural
// equality, not a deep dump of its unexported handle (§10.5: cmp.Comparer
// registered for handle-equality types, the same idea as IStr's).
var typeRefCmp = cmp.Comparer(func(a, b hir.TypeRef) bool { return a.Equal(b) })

func TestMonomorphIdentityOnType(t *testing.T) {
	m := New(identityHooks{}, nil)
	g := tRef("T", hir.GroupImpl, 0)
	in := hir.TArray(hir.TGeneric(g), hir.ArraySize{Kind: hir.ArraySizeKnown, Value: 4})
	out := m.MonomorphType(in)
	if diff := cmp.Diff(in, out, typeRefCmp); diff != "" {
		t.Fatalf("identity substitution must yield a structurally equal type (-in +out):\n%s", diff)
	}
}

func TestMonomorphNoGenericOccurrenceIsNoop(t *testing.T) {
	m := New(identityHooks{}, nil)
	in := hir.TPrimitive(hir.PrimU32)
	out := m.MonomorphType(in)
	if !in.Equal(out) {
		t.Fatalf("a type with no generic occurrences must come back equal")
	}
}

// substHooks replaces generic parameter 0 of group Impl with u32, and
// leaves everything else as-is (for HRB tests).
type substHooks struct{}

func (substHooks) GetType(ref hir.GenericRef) hir.TypeRef {
	if ref.Group == hir.GroupImpl && ref.Idx == 0 {
		return hir.TPrimitive(hir.PrimU32)
	}
	return hir.TGeneric(ref)
}
func (substHooks) GetValue(ref hir.GenericRef) hir.ConstGeneric {
	return hir.ConstGeneric{Kind: hir.ConstGenericGeneric, Generic: ref}
}

var freeLifetimeCalls int

func (substHooks) GetLifetime(ref hir.GenericRef) hir.LifetimeRef {
	freeLifetimeCalls++
	return hir.LifetimeRef{Name: istr.Intern("'subst"), Binding: ref}
}

func TestMonomorphSubstitutesGenericParam(t *testing.T) {
	m := New(substHooks{}, nil)
	g := tRef("T", hir.GroupImpl, 0)
	out := m.MonomorphType(hir.TGeneric(g))
	if out.Kind() != hir.TyPrimitive || out.PrimitiveOf() != hir.PrimU32 {
		t.Fatalf("expected substitution to u32, got %s", out)
	}
}

func TestMonomorphHRBLifetimeSkipsSubstitution(t *testing.T) {
	freeLifetimeCalls = 0
	m := New(substHooks{}, nil)
	hrbLt := hir.LifetimeRef{Name: istr.Intern("'a"), Binding: hir.GenericRef{Group: hir.GroupHRB, Idx: 0}}

	fn := hir.FnPtr{
		HRLs: &hir.GenericParams{Lifetimes: []hir.LifetimeDef{{Name: istr.Intern("'a")}}},
		Ret:  hir.TBorrow(hir.BorrowShared, hir.TPrimitive(hir.PrimU8), hrbLt),
	}
	out := m.MonomorphType(hir.TFunction(fn))
	outLt := out.FnOf().Ret.ObjLifetimeOf()
	if outLt.Name.Raw() != "'a" {
		t.Fatalf("an HRB lifetime under an active binder must pass through unchanged, got %v", outLt)
	}
	if freeLifetimeCalls != 0 {
		t.Fatalf("GetLifetime must not be called for an HRB lifetime while its binder is active")
	}
}

func TestMonomorphOpaquePolicyClearsOpaqueBinding(t *testing.T) {
	m := New(identityHooks{}, nil)

	traitPath := hir.TraitPath{Path: hir.GenericPath{Path: hir.SimplePath{Crate: istr.Intern("krate"), Components: []istr.IStr{istr.Intern("Tr")}}}}
	ufcs := hir.Path{
		Kind:      hir.PathUfcsKnown,
		UfcsType:  hir.TPrimitive(hir.PrimU8),
		UfcsTrait: traitPath,
		UfcsItem:  istr.Intern("Output"),
	}
	opaque := hir.TPath(ufcs, hir.TypeBinding{State: hir.BindingOpaque})

	out := m.MonomorphType(opaque)
	if out.BindingOf().State != hir.BindingUnbound {
		t.Fatalf("§4.2 Opaque policy: substituting an Opaque path must clear to Unbound, got %v", out.BindingOf().State)
	}
}

func TestMonomorphArraySizeFoldsWhenEvaluatorAvailable(t *testing.T) {
	g := tRef("N", hir.GroupImpl, 0)
	m := New(substHooksConst{}, constEvalFixed{})

	size := hir.ArraySize{Kind: hir.ArraySizeUnevaluated, Unevaluated: hir.ConstGeneric{Kind: hir.ConstGenericGeneric, Generic: g}}
	out := m.MonomorphArraySize(size)
	if out.Kind != hir.ArraySizeKnown || out.Value != 7 {
		t.Fatalf("expected array size to fold to Known(7), got %+v", out)
	}
}

func TestMonomorphArraySizeStaysUnevaluatedWithoutEvaluator(t *testing.T) {
	g := tRef("N", hir.GroupImpl, 0)
	m := New(substHooksConst{}, nil)
	size := hir.ArraySize{Kind: hir.ArraySizeUnevaluated, Unevaluated: hir.ConstGeneric{Kind: hir.ConstGenericGeneric, Generic: g}}
	out := m.MonomorphArraySize(size)
	if out.Kind != hir.ArraySizeUnevaluated {
		t.Fatalf("without a ConstEvaluator the array size must stay Unevaluated, got %+v", out)
	}
}

type substHooksConst struct{}

func (substHooksConst) GetType(ref hir.GenericRef) hir.TypeRef { return hir.TGeneric(ref) }
func (substHooksConst) GetValue(ref hir.GenericRef) hir.ConstGeneric {
	return hir.ConstGeneric{Kind: hir.ConstGenericKnown, Literal: 7}
}
func (substHooksConst) GetLifetime(ref hir.GenericRef) hir.LifetimeRef {
	return hir.LifetimeRef{Binding: ref}
}

type constEvalFixed struct{}

func (c constEvalFixed) Eval(expr hir.ConstGeneric) (uint64, bool) {
	if expr.Kind == hir.ConstGenericKnown {
		return expr.Literal, true
	}
	return 0, false
}
