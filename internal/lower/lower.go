// Package lower translates a macro-expanded, name-resolved source tree
// (internal/srcast) into the HIR data model (internal/hir), the
// responsibility §4.3 calls out: structural translation, desugaring,
// marker extraction, and language-item registration. Grounded on the
// teacher's internal/elaborate package (surface AST -> Core, one
// recursive-descent translator per node shape) and internal/resolver
// (the name-to-binding lookups that precede elaboration there, mirrored
// here by srcast already carrying resolved bindings).
package lower

import (
	"sort"

	"github.com/sunholo/hirgo/internal/diag"
	"github.com/sunholo/hirgo/internal/hir"
	"github.com/sunholo/hirgo/internal/istr"
	"github.com/sunholo/hirgo/internal/srcast"
)

func sortStrings(ss []string) { sort.Strings(ss) }

// Edition selects the sole place edition affects core data (§4.3's last
// bullet: auto-registration of placement-new lang items on old editions).
type Edition uint8

const (
	EditionCurrent Edition = iota
	EditionLegacy
)

// Options configures one LowerHIR_FromAST call.
type Options struct {
	Edition Edition
	// IsCoreCrate marks the crate being lowered as `core` itself, gating
	// §4.3's edition-conditioned lang-item auto-registration.
	IsCoreCrate bool
}

// implTraitSource is the mutable global described in §4.3: while lowering
// a type alias or associated-type default, an `impl Trait` type
// encountered there is materialised as an alias of this shape rather than
// an anonymous per-function return-position slot.
type implTraitSource struct {
	active      bool
	path        hir.SimplePath
	outerParams hir.GenericParams
	innerParams hir.GenericParams
}

// Lowerer carries the three process-scope values §4.3 requires be
// re-cleared on exit (crate pointer, crate name, Sized-family paths) plus
// the self-type substitution stack and impl-trait-source global.
type Lowerer struct {
	opts  Options
	crate *hir.Crate

	sizedPath         hir.SimplePath
	pointeeSizedPath  hir.SimplePath
	metadataSizedPath hir.SimplePath

	selfStack []hir.TypeRef // substitution target for Self inside an impl body
	inTrait   bool          // Self stays TypeRef::Self while lowering a trait's own items

	its implTraitSource

	errs []error
}

// LowerHIR_FromAST is the lowering entry point named in §6.2.
// Preconditions (enforced by the caller, not this function): src is
// macro-expanded, every srcast.Path already carries its resolved binding,
// and extern crates reachable from src are already loaded into deps.
func LowerHIR_FromAST(src *srcast.Crate, opts Options, deps map[string]*hir.Crate) (*hir.Crate, error) {
	l := &Lowerer{
		opts:              opts,
		crate:             hir.NewCrate(istr.Intern(src.Name)),
		sizedPath:         wellKnown(src.Name, "marker", "Sized"),
		pointeeSizedPath:  wellKnown(src.Name, "marker", "PointeeSized"),
		metadataSizedPath: wellKnown(src.Name, "marker", "MetadataSized"),
	}
	defer l.clear() // §4.3: the three process-scope values MUST be re-cleared on exit

	l.crate.RootModule = hir.NewModule(hir.SimplePath{Crate: l.crate.Name})

	// Lang items from already-loaded dependencies are merged before the
	// crate's own items are lowered, so the implicit-prelude injection
	// below (and any user code relying on a dependency's lang items) sees
	// a fully merged table from the start (§4.3's merge rule).
	depNames := make([]string, 0, len(deps))
	for name := range deps {
		depNames = append(depNames, name)
	}
	sortStrings(depNames)
	for _, name := range depNames {
		l.mergeLangItems(name, deps[name])
	}

	l.lowerModuleInto(l.crate.RootModule, src.Root)
	l.injectPrelude(opts)

	if opts.IsCoreCrate {
		l.autoRegisterPlacementLangItems()
	}
	l.reexpandMacroTokens()

	if len(l.errs) > 0 {
		return nil, l.errs[0]
	}
	return l.crate, nil
}

// clear drops the process-scope values this lowering pass held, per
// §4.3's "MUST be re-cleared on exit" contract.
func (l *Lowerer) clear() {
	l.crate = nil
	l.sizedPath = hir.SimplePath{}
	l.pointeeSizedPath = hir.SimplePath{}
	l.metadataSizedPath = hir.SimplePath{}
	l.selfStack = nil
}

func wellKnown(crate string, components ...string) hir.SimplePath {
	comps := make([]istr.IStr, len(components))
	for i, c := range components {
		comps[i] = istr.Intern(c)
	}
	return hir.SimplePath{Crate: istr.Intern(crate), Components: comps}
}

func (l *Lowerer) fail(phase diag.Phase, code string, path []string, format string, args ...any) {
	l.errs = append(l.errs, diag.Fatalf(phase, code, path, format, args...))
}

func (l *Lowerer) currentSelf() (hir.TypeRef, bool) {
	if len(l.selfStack) == 0 {
		return hir.TypeRef{}, false
	}
	return l.selfStack[len(l.selfStack)-1], true
}

func (l *Lowerer) pushSelf(t hir.TypeRef) { l.selfStack = append(l.selfStack, t) }
func (l *Lowerer) popSelf()               { l.selfStack = l.selfStack[:len(l.selfStack)-1] }

// lowerModuleInto lowers src's items into dst, recursing into nested
// modules. Item order is preserved from the source slice, matching §5's
// "each module's internal item order is preserved" ordering guarantee.
func (l *Lowerer) lowerModuleInto(dst *hir.Module, src *srcast.Module) {
	for _, it := range src.Items {
		l.lowerItem(dst, it)
	}
}

func (l *Lowerer) lowerItem(dst *hir.Module, it *srcast.Item) {
	vis := lowerVis(it.Vis, dst.Path)
	path := []string{dst.Path.String(), it.Name}

	switch it.Kind {
	case srcast.ItemModule:
		sub := hir.NewModule(dst.Path.Push(istr.Intern(it.Name)))
		l.lowerModuleInto(sub, it.Module)
		l.insertType(dst, it.Name, vis, hir.TypeItem{Kind: hir.TypeItemModule, Module: sub}, path)

	case srcast.ItemFunction:
		fn := l.lowerFn(it.Fn, dst.Path, nil, path)
		l.insertValue(dst, it.Name, vis, hir.ValueItem{Kind: hir.ValueItemFunction, Function: fn}, path)

	case srcast.ItemStruct:
		l.lowerStruct(dst, it, vis, path)

	case srcast.ItemEnum:
		l.lowerEnum(dst, it, vis, path)

	case srcast.ItemUnion:
		u := l.lowerUnion(it.Union, path)
		l.insertType(dst, it.Name, vis, hir.TypeItem{Kind: hir.TypeItemUnion, Union: u}, path)

	case srcast.ItemTrait:
		tr := l.lowerTrait(it.Trait, dst.Path, path)
		l.insertType(dst, it.Name, vis, hir.TypeItem{Kind: hir.TypeItemTrait, Trait: tr}, path)

	case srcast.ItemTypeAlias:
		ta := l.lowerTypeAlias(it.Name, it.TypeAlias, dst.Path, path)
		l.insertType(dst, it.Name, vis, hir.TypeItem{Kind: hir.TypeItemTypeAlias, TypeAlias: ta}, path)

	case srcast.ItemTraitAlias:
		ta := &hir.TraitAlias{
			Params: l.lowerGenerics(it.TraitAlias.Generics, nil),
			Traits: l.lowerTraitPathList(it.TraitAlias.Traits),
		}
		l.insertType(dst, it.Name, vis, hir.TypeItem{Kind: hir.TypeItemTraitAlias, TraitAlias: ta}, path)

	case srcast.ItemConstant:
		c := l.lowerConst(it.Const, path)
		l.insertValue(dst, it.Name, vis, hir.ValueItem{Kind: hir.ValueItemConstant, Constant: c}, path)

	case srcast.ItemStatic:
		s := l.lowerStatic(it.Static, it.Attrs, path)
		l.insertValue(dst, it.Name, vis, hir.ValueItem{Kind: hir.ValueItemStatic, Static: s}, path)

	case srcast.ItemImport:
		imp := &hir.ImportEnt{
			Target:    toSimplePath(it.Import.Target),
			IsVariant: it.Import.IsVariant,
			Idx:       it.Import.Idx,
		}
		l.insertType(dst, it.Name, vis, hir.TypeItem{Kind: hir.TypeItemImport, Import: imp}, path)
		l.insertValue(dst, it.Name, vis, hir.ValueItem{Kind: hir.ValueItemImport, Import: imp}, path)

	case srcast.ItemTypeImpl:
		l.lowerTypeImpl(it.TypeImpl, path)

	case srcast.ItemTraitImpl:
		l.lowerTraitImpl(it.TraitImpl, path)

	case srcast.ItemExternBlock:
		l.lowerExternItem(dst, it.Extern, vis, path)

	default:
		l.fail(diag.PhaseLower, diag.LOW106, path, "unsupported item kind %d", it.Kind)
	}
}

func (l *Lowerer) lowerExternItem(dst *hir.Module, e *srcast.ExternItem, vis hir.Visibility, path []string) {
	if e.Fn != nil {
		e.Fn.IsExtern = true
		fn := l.lowerFn(e.Fn, dst.Path, nil, path)
		l.insertValue(dst, e.Fn.Name, vis, hir.ValueItem{Kind: hir.ValueItemFunction, Function: fn}, path)
		return
	}
	e.Static.IsExtern = true
	s := l.lowerStatic(e.Static, e.Static.Attrs, path)
	l.insertValue(dst, e.Static.Name, vis, hir.ValueItem{Kind: hir.ValueItemStatic, Static: s}, path)
}

// insertType/insertValue apply the collision policy described for the
// index builder's Base phase (§4.4) at the point of definition too: a
// flat-out duplicate *definition* of the same name in one module is
// always a fatal LOW101, regardless of visibility — widening only
// applies to re-exported imports layered by the index builder later.
func (l *Lowerer) insertType(m *hir.Module, name string, vis hir.Visibility, item hir.TypeItem, path []string) {
	if _, exists := m.ModItems[name]; exists {
		l.fail(diag.PhaseLower, diag.LOW101, path, "duplicate type-namespace item %q in module %s", name, m.Path)
		return
	}
	m.ModItems[name] = hir.VisEnt[hir.TypeItem]{Vis: vis, Item: item}
}

func (l *Lowerer) insertValue(m *hir.Module, name string, vis hir.Visibility, item hir.ValueItem, path []string) {
	if _, exists := m.ValueItems[name]; exists {
		l.fail(diag.PhaseLower, diag.LOW101, path, "duplicate value-namespace item %q in module %s", name, m.Path)
		return
	}
	m.ValueItems[name] = hir.VisEnt[hir.ValueItem]{Vis: vis, Item: item}
}

func lowerVis(v srcast.Visibility, mod hir.SimplePath) hir.Visibility {
	switch v.Kind {
	case srcast.VisPublic:
		return hir.Visibility{Kind: hir.VisPublic}
	case srcast.VisPathRestricted:
		comps := splitPath(v.Path)
		return hir.Visibility{Kind: hir.VisPathRestricted, ModPath: hir.SimplePath{Crate: mod.Crate, Components: internAll(comps)}}
	default:
		return hir.Visibility{Kind: hir.VisPrivate, ModPath: mod}
	}
}

func splitPath(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	cur := ""
	for _, r := range s {
		if r == ':' {
			if cur != "" {
				out = append(out, cur)
				cur = ""
			}
			continue
		}
		cur += string(r)
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out
}

func internAll(ss []string) []istr.IStr {
	out := make([]istr.IStr, len(ss))
	for i, s := range ss {
		out[i] = istr.Intern(s)
	}
	return out
}

func toSimplePath(segs []string) hir.SimplePath {
	if len(segs) == 0 {
		return hir.SimplePath{}
	}
	return hir.SimplePath{Crate: istr.Intern(segs[0]), Components: internAll(segs[1:])}
}

// injectPrelude implements the supplemented feature recovered from
// mrustc's std_prelude.cpp (SPEC_FULL §12): every crate other than core
// itself gets an implicit `use <prelude-crate>::prelude::*` pushed into
// its root module after the user's items are lowered, resolved against
// whatever crate registered the "prelude" lang item during the
// dependency merge above. A crate with no such dependency (e.g. core
// itself, or a freestanding crate built against no std-like dependency)
// gets no synthetic import. If the user's own root module already
// defines a literal glob import under "*" it wins — this module only
// ever supports one glob per module (see DESIGN.md), so lowering never
// overwrites an explicit one with the synthetic prelude import.
func (l *Lowerer) injectPrelude(opts Options) {
	if opts.IsCoreCrate {
		return
	}
	preludePath, ok := l.crate.LangItems["prelude"]
	if !ok {
		return
	}
	if _, exists := l.crate.RootModule.ModItems["*"]; exists {
		return
	}
	imp := &hir.ImportEnt{Target: preludePath}
	item := hir.TypeItem{Kind: hir.TypeItemImport, Import: imp}
	l.crate.RootModule.ModItems["*"] = hir.VisEnt[hir.TypeItem]{
		Vis:  hir.Visibility{Kind: hir.VisPrivate, ModPath: l.crate.RootModule.Path},
		Item: item,
	}
}

// mergeLangItems implements §4.3's lang-item merge rule when loading an
// external crate's already-lowered metadata: identical paths merge
// silently, empty-path markers are tolerated, and a genuine conflict
// (different non-empty paths under the same name) is fatal.
func (l *Lowerer) mergeLangItems(depName string, dep *hir.Crate) {
	for name, p := range dep.LangItems {
		existing, ok := l.crate.LangItems[name]
		switch {
		case !ok:
			l.crate.LangItems[name] = p
		case len(existing.Components) == 0:
			l.crate.LangItems[name] = p
		case len(p.Components) == 0:
			// tolerated empty-path marker from the dependency; keep ours
		case existing.Equal(p):
			// identical, merge silently
		default:
			l.fail(diag.PhaseLower, diag.LOW105, []string{depName}, "conflicting lang item %q: %s vs %s", name, existing, p)
		}
	}
}

// autoRegisterPlacementLangItems implements §4.3's sole edition-gated
// branch over core data: on the legacy edition, well-known placement-new
// trait paths present in the module tree but not yet tagged as lang
// items are looked up structurally and registered.
func (l *Lowerer) autoRegisterPlacementLangItems() {
	if l.opts.Edition != EditionLegacy {
		return
	}
	candidates := []struct{ lang string; mod, name string }{
		{"boxed_trait", "ops", "Boxed"},
		{"placer_trait", "ops", "Placer"},
		{"place_trait", "ops", "Place"},
		{"box_place_trait", "ops", "BoxPlace"},
		{"in_place_trait", "ops", "InPlace"},
	}
	for _, c := range candidates {
		if _, ok := l.crate.LangItems[c.lang]; ok {
			continue
		}
		mod, ok := l.crate.RootModule.ModItems[c.mod]
		if !ok || mod.Item.Kind != hir.TypeItemModule {
			continue
		}
		if ent, ok := mod.Item.Module.ModItems[c.name]; ok && ent.Item.Kind == hir.TypeItemTrait {
			l.crate.LangItems[c.lang] = mod.Item.Module.Path.Push(istr.Intern(c.name))
		}
	}
}

// reexpandMacroTokens is the final lowering step of §4.3: interpolated
// macro-definition tokens are re-expanded to plain text so the
// serialised macro rules carry no AST pointers. Our srcast macro bodies
// are already opaque plain-text token lists (the front end is an
// external collaborator), so this is a no-op pass over what's there,
// kept as an explicit step so future interpolation support has a home.
func (l *Lowerer) reexpandMacroTokens() {
	for name, mr := range l.crate.ExportedMacros {
		_ = name
		_ = mr
	}
}
