package metadata

import "github.com/sunholo/hirgo/internal/hir"

// writeCrate serialises the eleven top-level items in the order §6.1
// specifies.
func (e *encoder) writeCrate(c *hir.Crate) {
	e.w.WriteIStr(c.Name) // 1. crate name

	e.writeModule(c.RootModule) // 2. root module

	e.w.WriteCount(uint32(len(c.AllTypeImpls))) // 3. TypeImpls
	for _, ti := range c.AllTypeImpls {
		e.writeTypeImpl(*ti)
	}

	traitPairs := c.AllTraitImplPairs() // 4. {SimplePath, TraitImpl} pairs
	e.w.WriteCount(uint32(len(traitPairs)))
	for _, pr := range traitPairs {
		e.writeSimplePath(pr.Path)
		e.writeTraitImpl(*pr.Impl)
	}

	markerPairs := c.AllMarkerImplPairs() // 5. {SimplePath, MarkerImpl} pairs
	e.w.WriteCount(uint32(len(markerPairs)))
	for _, pr := range markerPairs {
		e.writeSimplePath(pr.Path)
		e.writeMarkerImpl(*pr.Impl)
	}

	macroNames := sortedStringKeysMR(c.ExportedMacros) // 6. exported macros
	e.w.WriteCount(uint32(len(macroNames)))
	for _, name := range macroNames {
		mr := c.ExportedMacros[name]
		e.w.WriteString(name)
		e.w.WriteIStr(mr.Name)
		e.w.WriteCount(uint32(len(mr.Tokens)))
		for _, tok := range mr.Tokens {
			e.w.WriteString(tok)
		}
	}

	langNames := sortedStringKeysSP(c.LangItems) // 7. lang items
	e.w.WriteCount(uint32(len(langNames)))
	for _, name := range langNames {
		e.w.WriteString(name)
		e.writeSimplePath(c.LangItems[name])
	}

	e.w.WriteCount(uint32(len(c.ExtCrates))) // 8. extern crates
	for _, ec := range c.ExtCrates {
		e.w.WriteIStr(ec.Name)
		e.w.WriteIStr(ec.Basename)
	}

	e.w.WriteCount(uint32(len(c.ExtLibs))) // 9. extern libraries
	for _, l := range c.ExtLibs {
		e.w.WriteString(l.Name)
	}

	e.w.WriteCount(uint32(len(c.LinkPaths))) // 10. link paths
	for _, p := range c.LinkPaths {
		e.w.WriteString(p)
	}

	e.w.WriteCount(uint32(len(c.ProcMacros))) // 11. proc macros
	for _, pm := range c.ProcMacros {
		e.w.WriteIStr(pm.Name)
		e.writeSimplePath(pm.Fn)
		e.w.WriteString(pm.Variant)
	}
}

func (d *decoder) readCrate() *hir.Crate {
	name := d.r.ReadIStr()
	c := hir.NewCrate(name)

	root := d.readModule()
	c.RootModule = root

	n := d.r.ReadCount()
	for i := uint32(0); i < n; i++ {
		impl := d.readTypeImpl()
		c.AddTypeImpl(&impl)
	}

	n = d.r.ReadCount()
	for i := uint32(0); i < n; i++ {
		path := d.readSimplePath()
		impl := d.readTraitImpl()
		c.AddTraitImpl(path, &impl)
	}

	n = d.r.ReadCount()
	for i := uint32(0); i < n; i++ {
		path := d.readSimplePath()
		impl := d.readMarkerImpl()
		c.AddMarkerImpl(path, &impl)
	}

	n = d.r.ReadCount()
	for i := uint32(0); i < n; i++ {
		key := d.r.ReadString()
		macroName := d.r.ReadIStr()
		tn := d.r.ReadCount()
		tokens := make([]string, tn)
		for j := range tokens {
			tokens[j] = d.r.ReadString()
		}
		c.ExportedMacros[key] = hir.MacroRules{Name: macroName, Tokens: tokens}
	}

	n = d.r.ReadCount()
	for i := uint32(0); i < n; i++ {
		key := d.r.ReadString()
		c.LangItems[key] = d.readSimplePath()
	}

	n = d.r.ReadCount()
	c.ExtCrates = make([]hir.ExternCrateRef, n)
	for i := range c.ExtCrates {
		ecName := d.r.ReadIStr()
		basename := d.r.ReadIStr()
		c.ExtCrates[i] = hir.ExternCrateRef{Name: ecName, Basename: basename}
	}

	n = d.r.ReadCount()
	c.ExtLibs = make([]hir.ExternLibrary, n)
	for i := range c.ExtLibs {
		c.ExtLibs[i] = hir.ExternLibrary{Name: d.r.ReadString()}
	}

	n = d.r.ReadCount()
	c.LinkPaths = make([]string, n)
	for i := range c.LinkPaths {
		c.LinkPaths[i] = d.r.ReadString()
	}

	n = d.r.ReadCount()
	c.ProcMacros = make([]hir.ProcMacro, n)
	for i := range c.ProcMacros {
		pmName := d.r.ReadIStr()
		fn := d.readSimplePath()
		variant := d.r.ReadString()
		c.ProcMacros[i] = hir.ProcMacro{Name: pmName, Fn: fn, Variant: variant}
	}

	return c
}

func sortedStringKeysMR(m map[string]hir.MacroRules) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sortStrings(out)
	return out
}

func sortedStringKeysSP(m map[string]hir.SimplePath) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sortStrings(out)
	return out
}
