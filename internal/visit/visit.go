// Package visit implements the structural type/path walk of §4.2's
// "Type / path visitor" (component C3),
// plus the monomorphise_*_needed predicates used to skip substitution
// work entirely on types with no generic occurrences (§8, "Monomorph
// identity").
//
// There is one read-only walk rather than separate const/mut copies (§9,
// "Visitor duplication" design note): a Visitor only decides what to do
// when it sees a generic reference, and the walk never rewrites the types
// it descends into. The `*Needed` predicates below use it through the
// package-private neededChecker.
package visit

import "github.com/sunholo/hirgo/internal/hir"

// Visitor is implemented by callers that want to be told about every
// generic occurrence (type, lifetime, or value parameter) reachable from
// a type, path, or trait path. Returning false from any method stops the
// walk early (mirrors early-exit find_impl callbacks, §4.5).
type Visitor interface {
	VisitType(t hir.TypeRef) bool
	VisitLifetime(l hir.LifetimeRef) bool
	VisitConstGeneric(c hir.ConstGeneric) bool
}

// Walk performs the structural descent described informally by §3.2's
// type table and §3.1's path shapes, calling v at every leaf generic
// occurrence. It does not recurse into Closure/Generator bodies (those
// are owned by the external typeck/codegen collaborators, §1) — such
// types are skipped without calling v.
func Walk(t hir.TypeRef, v Visitor) bool {
	if !t.IsValid() {
		return true
	}
	switch t.Kind() {
	case hir.TyGeneric:
		return v.VisitType(t)
	case hir.TyArray:
		if !Walk(t.InnerOf(), v) {
			return false
		}
		size := t.SizeOf()
		if size.Kind == hir.ArraySizeUnevaluated {
			if !v.VisitConstGeneric(size.Unevaluated) {
				return false
			}
		}
		return true
	case hir.TySlice, hir.TyPointer:
		return Walk(t.InnerOf(), v)
	case hir.TyBorrow:
		if !v.VisitLifetime(t.ObjLifetimeOf()) {
			return false
		}
		return Walk(t.InnerOf(), v)
	case hir.TyTuple:
		for _, e := range t.ElemsOf() {
			if !Walk(e, v) {
				return false
			}
		}
		return true
	case hir.TyPath:
		return WalkPath(t.PathOf(), v)
	case hir.TyTraitObject:
		if !WalkTraitPath(t.ObjTraitOf(), v) {
			return false
		}
		for _, m := range t.ObjMarkersOf() {
			if !WalkTraitPath(m, v) {
				return false
			}
		}
		return v.VisitLifetime(t.ObjLifetimeOf())
	case hir.TyErasedType:
		for _, tr := range t.ErasedTraitsOf() {
			if !WalkTraitPath(tr, v) {
				return false
			}
		}
		return true
	case hir.TyFunction:
		fn := t.FnOf()
		for _, a := range fn.Args {
			if !Walk(a, v) {
				return false
			}
		}
		return Walk(fn.Ret, v)
	default:
		return true
	}
}

// WalkPath descends into a Path's generic parameters (§3.1).
func WalkPath(p hir.Path, v Visitor) bool {
	switch p.Kind {
	case hir.PathGeneric:
		return WalkPathParams(p.Generic.Params, v)
	case hir.PathUfcsInherent:
		if !Walk(p.UfcsType, v) {
			return false
		}
		return WalkPathParams(p.UfcsParams, v)
	case hir.PathUfcsKnown:
		if !Walk(p.UfcsType, v) {
			return false
		}
		if !WalkTraitPath(p.UfcsTrait, v) {
			return false
		}
		return WalkPathParams(p.UfcsParams, v)
	default: // PathUfcsUnknown: transient, walked defensively, never by the resolver
		if !Walk(p.UfcsType, v) {
			return false
		}
		return WalkPathParams(p.UfcsParams, v)
	}
}

// WalkPathParams descends into a PathParams' types/values/lifetimes.
func WalkPathParams(pp hir.PathParams, v Visitor) bool {
	for _, l := range pp.Lifetimes {
		if !v.VisitLifetime(l) {
			return false
		}
	}
	for _, t := range pp.Types {
		if !Walk(t, v) {
			return false
		}
	}
	for _, c := range pp.Values {
		if c.Kind == hir.ConstGenericGeneric {
			if !v.VisitConstGeneric(c) {
				return false
			}
		}
	}
	return true
}

// WalkTraitPath descends into a TraitPath's generic path and
// associated-type bounds (§3.1).
func WalkTraitPath(t hir.TraitPath, v Visitor) bool {
	if !WalkPathParams(t.Path.Params, v) {
		return false
	}
	for _, eq := range t.TypeBounds {
		if !Walk(eq.Type, v) {
			return false
		}
	}
	for _, b := range t.TraitBounds {
		if !WalkTraitPath(b.Trait, v) {
			return false
		}
	}
	return true
}

// neededChecker implements Visitor by recording "yes, I saw a generic
// occurrence" and stopping the walk at the first one.
type neededChecker struct {
	found bool
}

func (c *neededChecker) VisitType(hir.TypeRef) bool        { c.found = true; return false }
func (c *neededChecker) VisitLifetime(hir.LifetimeRef) bool { c.found = true; return false }
func (c *neededChecker) VisitConstGeneric(hir.ConstGeneric) bool {
	c.found = true
	return false
}

// MonomorphiseTypeNeeded reports whether t contains any generic
// occurrence at all — the `monomorphise_type_needed` predicate referenced
// by §4.2 and exercised by §8's "Monomorph identity" property: a type
// with no generic occurrences is returned unchanged by monomorphisation,
// and callers use this predicate to skip the substitution walk entirely.
func MonomorphiseTypeNeeded(t hir.TypeRef) bool {
	c := &neededChecker{}
	Walk(t, c)
	return c.found
}

// MonomorphisePathNeeded is MonomorphiseTypeNeeded's counterpart for Path.
func MonomorphisePathNeeded(p hir.Path) bool {
	c := &neededChecker{}
	WalkPath(p, c)
	return c.found
}

// MonomorphiseTraitPathNeeded is MonomorphiseTypeNeeded's counterpart for
// TraitPath.
func MonomorphiseTraitPathNeeded(t hir.TraitPath) bool {
	c := &neededChecker{}
	WalkTraitPath(t, c)
	return c.found
}

// MonomorphiseGenericPathNeeded is MonomorphiseTypeNeeded's counterpart
// for GenericPath.
func MonomorphiseGenericPathNeeded(g hir.GenericPath) bool {
	c := &neededChecker{}
	WalkPathParams(g.Params, c)
	return c.found
}
