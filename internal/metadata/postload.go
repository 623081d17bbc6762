package metadata

import (
	"github.com/sunholo/hirgo/internal/hir"
	"github.com/sunholo/hirgo/internal/istr"
)

// PostLoad rebuilds the crate state that §6.1.1 and §9 say is never
// serialised: the flat trait table a TraitPath.TraitPtr indexes into, and
// each Trait's flattened AllParentTraits list. It must run exactly once,
// immediately after ReadCrate populates the rest of the structure — the
// same invariant the lowering pass maintains when it builds a Crate from
// scratch (the two paths converge on an identically-shaped Crate).
func PostLoad(c *hir.Crate) {
	registerTraitsIn(c, c.RootModule)
	for _, h := range traitHandles(c) {
		tr := c.ResolveTraitPtr(h)
		tr.AllParentTraits = flattenParents(c, tr, make(map[string]bool))
	}
}

func registerTraitsIn(c *hir.Crate, m *hir.Module) {
	for name, ve := range m.ModItems {
		switch ve.Item.Kind {
		case hir.TypeItemTrait:
			path := m.Path.Push(istr.Intern(name))
			if _, ok := c.LookupTrait(path); !ok {
				c.RegisterTrait(path, ve.Item.Trait)
			}
		case hir.TypeItemModule:
			registerTraitsIn(c, ve.Item.Module)
		}
	}
}

func traitHandles(c *hir.Crate) map[string]hir.TraitHandle {
	out := make(map[string]hir.TraitHandle)
	var walk func(m *hir.Module)
	walk = func(m *hir.Module) {
		for name, ve := range m.ModItems {
			switch ve.Item.Kind {
			case hir.TypeItemTrait:
				path := m.Path.Push(istr.Intern(name))
				if h, ok := c.LookupTrait(path); ok {
					out[path.String()] = h
				}
			case hir.TypeItemModule:
				walk(ve.Item.Module)
			}
		}
	}
	walk(c.RootModule)
	return out
}

// flattenParents computes a Trait's transitive parent-trait list,
// breaking cycles defensively (a well-formed crate has none, but the
// post-load pass must not hang on a corrupt one, per §7.3's "all
// deserialisation errors are fatal" — this defends the same invariant at
// the structural level rather than the byte level).
func flattenParents(c *hir.Crate, tr *hir.Trait, seen map[string]bool) []hir.TraitPath {
	var out []hir.TraitPath
	for _, p := range tr.ParentTraits {
		key := p.Path.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
		if h, ok := c.LookupTrait(p.Path.Path); ok {
			parent := c.ResolveTraitPtr(h)
			out = append(out, flattenParents(c, parent, seen)...)
		}
	}
	return out
}
