// Package index builds each module's four name tables — namespace,
// type, value, macro — per §4.4, in the three phases mrustc's resolver
// runs before any query is valid: Base, Wildcard, Normalise. Grounded on
// the teacher's internal/link package (ModuleLinker/Resolver: interface
// tables keyed by name, glob-like selective-import resolution, a
// suggestion-producing lookup miss path) generalised from "one flat
// export table per module" to the four-table, visibility-lattice shape
// §4.4 specifies.
package index

import (
	"sort"

	"github.com/sunholo/hirgo/internal/diag"
	"github.com/sunholo/hirgo/internal/hir"
	"github.com/sunholo/hirgo/internal/istr"
)

// Populated is the tri-state §4.4 assigns to every module.
type Populated uint8

const (
	PopUnvisited Populated = iota
	PopBasePublicGlob         // Phase-1 complete and has a public glob
	PopSettled                 // Phase-2 complete, no further mutation
)

// IndexEnt is one entry of a module's name table (§4.4).
type IndexEnt struct {
	IsImport bool
	Vis      hir.Visibility
	Path     hir.SimplePath
}

// ModuleIndex holds the four name tables for one module. It is kept
// separate from hir.Module (rather than embedded in it) because these
// tables are a resolver-only artifact §6.1.1 explicitly excludes from
// serialisation — exactly like m_traits, they are rebuilt, never stored.
type ModuleIndex struct {
	Namespace map[string]IndexEnt
	Type      map[string]IndexEnt
	Value     map[string]IndexEnt
	Macro     map[string]IndexEnt

	State     Populated
	globStack bool // true while this module is on the Wildcard-phase recursion stack

	// GlobTarget is the path a `use other::*;` in this module points at
	// (the single-glob-per-module limitation recorded in DESIGN.md), and
	// GlobVis its declared visibility — nil when this module has no glob.
	GlobTarget *hir.SimplePath
	GlobVis    hir.Visibility
}

func newModuleIndex() *ModuleIndex {
	return &ModuleIndex{
		Namespace: make(map[string]IndexEnt),
		Type:      make(map[string]IndexEnt),
		Value:     make(map[string]IndexEnt),
		Macro:     make(map[string]IndexEnt),
	}
}

// Index is the whole-crate index, one ModuleIndex per module path.
type Index struct {
	crate   *hir.Crate
	deps    map[string]*hir.Crate // extern crate name -> loaded crate, for Wildcard case 2
	modules map[string]*ModuleIndex
	byPath  map[string]*hir.Module // module-path string -> Module, built once for lookups
}

// ModuleOfCrate returns the hir.Module this index built its tables from,
// for a module-path string — used by the Normalise phase's import-chain
// walk and exposed for callers that need to cross-reference the raw HIR.
func (ix *Index) ModuleOfCrate(pathKey string) (*hir.Module, bool) {
	m, ok := ix.byPath[pathKey]
	return m, ok
}

// ModuleOf returns the index tables for a given module path, creating
// them on first reference.
func (ix *Index) ModuleOf(path hir.SimplePath) *ModuleIndex {
	key := path.String()
	m, ok := ix.modules[key]
	if !ok {
		m = newModuleIndex()
		ix.modules[key] = m
	}
	return m
}

// Resolve_Index runs phases 1, 2, 3 and the exported-macro pass in order,
// the entry point named in §6.4. It is idempotent: every call builds a
// fresh Index and never mutates crate, so a second call reruns all phases
// and yields the same tables. deps supplies already-indexed extern crates a glob import may
// reach into (§4.4 Wildcard case 2); it may be nil for a crate with no
// extern-crate globs.
func Resolve_Index(crate *hir.Crate, deps map[string]*hir.Crate) (*Index, error) {
	ix := &Index{crate: crate, deps: deps, modules: make(map[string]*ModuleIndex), byPath: make(map[string]*hir.Module)}
	ix.collectModules(crate.RootModule)

	if err := ix.phaseBase(crate.RootModule); err != nil {
		return nil, err
	}
	if err := ix.phaseWildcard(crate.RootModule); err != nil {
		return nil, err
	}
	if err := ix.phaseNormalise(crate.RootModule); err != nil {
		return nil, err
	}
	ix.exportedMacroPass(crate.RootModule)
	return ix, nil
}

func (ix *Index) collectModules(m *hir.Module) {
	ix.byPath[m.Path.String()] = m
	for _, ve := range sortedModItems(m) {
		if ve.Item.Kind == hir.TypeItemModule {
			ix.collectModules(ve.Item.Module)
		}
	}
}

// sortedModItems returns m's ModItems in deterministic key order — module
// order within a phase is unspecified by §5, but a stable ordering keeps
// diagnostics and the collision walk reproducible across runs.
func sortedModItems(m *hir.Module) []struct {
	Name string
	Item hir.VisEnt[hir.TypeItem]
} {
	keys := make([]string, 0, len(m.ModItems))
	for k := range m.ModItems {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]struct {
		Name string
		Item hir.VisEnt[hir.TypeItem]
	}, len(keys))
	for i, k := range keys {
		out[i] = struct {
			Name string
			Item hir.VisEnt[hir.TypeItem]
		}{k, m.ModItems[k]}
	}
	return out
}

func sortedValueItems(m *hir.Module) []struct {
	Name string
	Item hir.VisEnt[hir.ValueItem]
} {
	keys := make([]string, 0, len(m.ValueItems))
	for k := range m.ValueItems {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]struct {
		Name string
		Item hir.VisEnt[hir.ValueItem]
	}, len(keys))
	for i, k := range keys {
		out[i] = struct {
			Name string
			Item hir.VisEnt[hir.ValueItem]
		}{k, m.ValueItems[k]}
	}
	return out
}

func itemPath(mod hir.SimplePath, name string) hir.SimplePath {
	return mod.Push(istr.Intern(name))
}

func mkErr(code string, path hir.SimplePath, format string, args ...any) error {
	return diag.Fatalf(diag.PhaseIndex, code, []string{path.String()}, format, args...)
}
