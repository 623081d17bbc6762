// Package mono implements the monomorphiser (component C4, §4.2):
// substitution of type/const/lifetime generic parameters into types,
// paths, trait paths, and array sizes, with correct handling of
// higher-ranked binders.
//
// The source snippet dispatches substitution through three virtual hooks;
// per §9's "Dynamic dispatch for monomorphisation" note, that is modelled
// here as a Hooks interface rather than function pointers or an
// inheritance hierarchy — ordinary Go interface dispatch plays the same
// role C++ virtual calls did in the original.
package mono

import "github.com/sunholo/hirgo/internal/hir"

// Hooks supplies the three substitution sources an implementer must
// provide (§4.2).
type Hooks interface {
	GetType(ref hir.GenericRef) hir.TypeRef
	GetValue(ref hir.GenericRef) hir.ConstGeneric
	GetLifetime(ref hir.GenericRef) hir.LifetimeRef
}

// ConstEvaluator is the external collaborator that can fold a substituted,
// fully-concrete const-generic expression down to a known u64 (§4.2,
// "Array size policy"). It is optional — when absent, an Unevaluated
// array size stays Unevaluated after substitution.
type ConstEvaluator interface {
	Eval(expr hir.ConstGeneric) (uint64, bool)
}

// Monomorphiser carries the HRB stack required by §4.2: a lifetime whose
// group is GroupHRB is left unchanged while any binder is active,
// otherwise it's routed to Hooks.GetLifetime. Stack discipline: push on
// entry to a TraitPath with HRTBs or a Function with HRLs, pop on exit —
// this is the only place the "skip HRB" rule lives.
type Monomorphiser struct {
	Hooks  Hooks
	Consts ConstEvaluator

	hrbDepth int
}

func New(h Hooks, ce ConstEvaluator) *Monomorphiser {
	return &Monomorphiser{Hooks: h, Consts: ce}
}

func (m *Monomorphiser) pushHRB() { m.hrbDepth++ }
func (m *Monomorphiser) popHRB()  { m.hrbDepth-- }

func (m *Monomorphiser) inHRB() bool { return m.hrbDepth > 0 }

// MonomorphLifetime substitutes a single lifetime reference, honouring
// the HRB-skip rule.
func (m *Monomorphiser) MonomorphLifetime(l hir.LifetimeRef) hir.LifetimeRef {
	if l.Binding.Group == hir.GroupHRB && m.inHRB() {
		return l
	}
	return m.Hooks.GetLifetime(l.Binding)
}

// MonomorphConstGeneric substitutes a const-generic value reference.
func (m *Monomorphiser) MonomorphConstGeneric(c hir.ConstGeneric) hir.ConstGeneric {
	if c.Kind == hir.ConstGenericGeneric {
		return m.Hooks.GetValue(c.Generic)
	}
	return c
}

// MonomorphArraySize implements §4.2's "Array size policy": substitute an
// Unevaluated size, then — when a ConstEvaluator is available — try to
// fold it to Known(usize). Otherwise it stays Unevaluated.
func (m *Monomorphiser) MonomorphArraySize(s hir.ArraySize) hir.ArraySize {
	if s.Kind != hir.ArraySizeUnevaluated {
		return s
	}
	substituted := m.MonomorphConstGeneric(s.Unevaluated)
	if m.Consts != nil {
		if v, ok := m.Consts.Eval(substituted); ok {
			return hir.ArraySize{Kind: hir.ArraySizeKnown, Value: v}
		}
	}
	return hir.ArraySize{Kind: hir.ArraySizeUnevaluated, Unevaluated: substituted}
}

// MonomorphType substitutes every generic occurrence in t (§4.2).
func (m *Monomorphiser) MonomorphType(t hir.TypeRef) hir.TypeRef {
	if !t.IsValid() {
		return t
	}
	switch t.Kind() {
	case hir.TyGeneric:
		return m.resolveOpaque(m.Hooks.GetType(t.GenericOf()))
	case hir.TyArray:
		return hir.TArray(m.MonomorphType(t.InnerOf()), m.MonomorphArraySize(t.SizeOf()))
	case hir.TySlice:
		return hir.TSlice(m.MonomorphType(t.InnerOf()))
	case hir.TyPointer:
		return hir.TPointer(t.PointerKindOf(), m.MonomorphType(t.InnerOf()))
	case hir.TyBorrow:
		return hir.TBorrow(t.BorrowKindOf(), m.MonomorphType(t.InnerOf()), m.MonomorphLifetime(t.ObjLifetimeOf()))
	case hir.TyTuple:
		elems := t.ElemsOf()
		out := make([]hir.TypeRef, len(elems))
		for i, e := range elems {
			out[i] = m.MonomorphType(e)
		}
		return hir.TTuple(out)
	case hir.TyPath:
		p := m.MonomorphPath(t.PathOf())
		binding := t.BindingOf()
		if binding.State == hir.BindingOpaque {
			// §4.2, "Opaque policy": the substituted type is no longer
			// opaque by definition — the defining projection has been
			// resolved away by the path substitution above.
			binding = hir.TypeBinding{State: hir.BindingUnbound}
		}
		return hir.TPath(p, binding)
	case hir.TyTraitObject:
		markers := t.ObjMarkersOf()
		outMarkers := make([]hir.TraitPath, len(markers))
		for i, mk := range markers {
			outMarkers[i] = m.MonomorphTraitPath(mk, false)
		}
		return hir.TTraitObject(m.MonomorphTraitPath(t.ObjTraitOf(), false), outMarkers, m.MonomorphLifetime(t.ObjLifetimeOf()))
	case hir.TyErasedType:
		traits := t.ErasedTraitsOf()
		out := make([]hir.TraitPath, len(traits))
		for i, tr := range traits {
			out[i] = m.MonomorphTraitPath(tr, false)
		}
		return hir.TErasedType(t.ErasedSizedOf(), out, m.MonomorphLifetime(t.ObjLifetimeOf()), t.ErasedOriginOf())
	case hir.TyFunction:
		fn := t.FnOf()
		if fn.HRLs != nil {
			m.pushHRB()
			defer m.popHRB()
		}
		args := make([]hir.TypeRef, len(fn.Args))
		for i, a := range fn.Args {
			args[i] = m.MonomorphType(a)
		}
		fn.Args = args
		fn.Ret = m.MonomorphType(fn.Ret)
		return hir.TFunction(fn)
	default:
		// Infer, Diverge, Primitive, NamedFunction, Closure, Generator:
		// no generic occurrences reachable (NamedFunction/Closure/
		// Generator carry only opaque def/node references).
		return t
	}
}

// resolveOpaque is a hook point matching the source's handling of
// substituting into an already-Opaque binding; kept trivial here since
// Opaque only ever lives on TyPath, handled above.
func (m *Monomorphiser) resolveOpaque(t hir.TypeRef) hir.TypeRef { return t }

// MonomorphPath substitutes a Path's generic parameters (§4.2).
func (m *Monomorphiser) MonomorphPath(p hir.Path) hir.Path {
	switch p.Kind {
	case hir.PathGeneric:
		p.Generic = m.MonomorphGenericPath(p.Generic)
		return p
	case hir.PathUfcsInherent:
		p.UfcsType = m.MonomorphType(p.UfcsType)
		p.UfcsParams = m.monomorphPathParams(p.UfcsParams)
		p.UfcsImplParams = m.monomorphPathParams(p.UfcsImplParams)
		return p
	case hir.PathUfcsKnown:
		if p.UfcsHRTBs != nil {
			m.pushHRB()
			defer m.popHRB()
		}
		p.UfcsType = m.MonomorphType(p.UfcsType)
		p.UfcsTrait = m.MonomorphTraitPath(p.UfcsTrait, false)
		p.UfcsParams = m.monomorphPathParams(p.UfcsParams)
		return p
	default: // PathUfcsUnknown: substitute defensively, still transient
		p.UfcsType = m.MonomorphType(p.UfcsType)
		p.UfcsParams = m.monomorphPathParams(p.UfcsParams)
		return p
	}
}

// MonomorphGenericPath substitutes a GenericPath's PathParams (§4.2).
func (m *Monomorphiser) MonomorphGenericPath(g hir.GenericPath) hir.GenericPath {
	g.Params = m.monomorphPathParams(g.Params)
	return g
}

func (m *Monomorphiser) monomorphPathParams(pp hir.PathParams) hir.PathParams {
	out := hir.PathParams{
		Lifetimes: make([]hir.LifetimeRef, len(pp.Lifetimes)),
		Types:     make([]hir.TypeRef, len(pp.Types)),
		Values:    make([]hir.ConstGeneric, len(pp.Values)),
	}
	for i, l := range pp.Lifetimes {
		out.Lifetimes[i] = m.MonomorphLifetime(l)
	}
	for i, t := range pp.Types {
		out.Types[i] = m.MonomorphType(t)
	}
	for i, c := range pp.Values {
		out.Values[i] = m.MonomorphConstGeneric(c)
	}
	return out
}

// MonomorphTraitPath substitutes a TraitPath (§4.2). When ignoreHRLs is
// true, the path's own HRTBs do not push a new binder scope — used by
// callers that have already accounted for the binder (mirrors the
// source's `monomorph_traitpath(ignore_hrls)` parameter).
func (m *Monomorphiser) MonomorphTraitPath(t hir.TraitPath, ignoreHRLs bool) hir.TraitPath {
	if t.HasHRTBs() && !ignoreHRLs {
		m.pushHRB()
		defer m.popHRB()
	}
	t.Path = m.MonomorphGenericPath(t.Path)
	if len(t.TypeBounds) > 0 {
		newBounds := make(map[string]hir.AtyEqual, len(t.TypeBounds))
		for k, eq := range t.TypeBounds {
			eq.Type = m.MonomorphType(eq.Type)
			newBounds[k] = eq
		}
		t.TypeBounds = newBounds
	}
	if len(t.TraitBounds) > 0 {
		newBounds := make(map[string]hir.AtyBound, len(t.TraitBounds))
		for k, b := range t.TraitBounds {
			b.Trait = m.MonomorphTraitPath(b.Trait, false)
			newBounds[k] = b
		}
		t.TraitBounds = newBounds
	}
	return t
}
