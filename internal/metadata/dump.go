package metadata

import (
	"fmt"
	"io"

	"github.com/sunholo/hirgo/internal/digest"
	"github.com/sunholo/hirgo/internal/hir"
	"github.com/sunholo/hirgo/internal/schema"
)

// DumpCrate writes a human-readable rendering of c to w: its module
// tree, trait-impl table and marker-impl table, independent of the
// binary codec (§12, grounded on the original's hir/dump.cpp). Unlike
// WriteCrate/ReadCrate this is one-way and carries no round-trip
// guarantee — it exists for inspecting a crate a driver has already
// lowered or loaded.
func DumpCrate(w io.Writer, c *hir.Crate) {
	fmt.Fprintf(w, "schema: %s\n", schema.IndexV1)
	fmt.Fprintf(w, "crate %s (build %s, interface %s)\n", c.Name.Raw(), c.BuildID, interfaceDigest(c))
	dumpModule(w, c.RootModule, 1)

	if len(c.AllTraitImplPairs()) > 0 {
		fmt.Fprintln(w, "trait impls:")
		for _, pr := range c.AllTraitImplPairs() {
			neg := ""
			if pr.Impl.IsNegative {
				neg = "!"
			}
			fmt.Fprintf(w, "  impl %s%s for %s\n", neg, pr.Path, pr.Impl.Type)
		}
	}

	if len(c.AllMarkerImplPairs()) > 0 {
		fmt.Fprintln(w, "marker impls:")
		for _, pr := range c.AllMarkerImplPairs() {
			fmt.Fprintf(w, "  impl %s for %s\n", pr.Path, pr.Impl.Type)
		}
	}
}

// interfaceDigest hashes the sorted public surface of a crate's root
// module (type- and value-namespace item names) into a short content
// digest, so two dumps taken from identically-named crates can be
// compared for "did the public interface change" without a structural
// diff of the whole tree.
func interfaceDigest(c *hir.Crate) digest.Digest {
	parts := []string{c.Name.Raw()}
	parts = append(parts, sortedModNames(c.RootModule)...)
	parts = append(parts, sortedValueNames(c.RootModule)...)
	return digest.Of(parts...)
}

func dumpModule(w io.Writer, m *hir.Module, depth int) {
	indent := indentOf(depth)
	for _, name := range sortedModNames(m) {
		ve := m.ModItems[name]
		switch ve.Item.Kind {
		case hir.TypeItemModule:
			fmt.Fprintf(w, "%smod %s {\n", indent, name)
			dumpModule(w, ve.Item.Module, depth+1)
			fmt.Fprintf(w, "%s}\n", indent)
		case hir.TypeItemStruct:
			fmt.Fprintf(w, "%sstruct %s%s\n", indent, name, dumpStructMarkings(ve.Item.Struct))
		case hir.TypeItemEnum:
			fmt.Fprintf(w, "%senum %s\n", indent, name)
		case hir.TypeItemTrait:
			fmt.Fprintf(w, "%strait %s\n", indent, name)
		case hir.TypeItemUnion:
			fmt.Fprintf(w, "%sunion %s\n", indent, name)
		case hir.TypeItemTypeAlias:
			fmt.Fprintf(w, "%stype %s\n", indent, name)
		case hir.TypeItemTraitAlias:
			fmt.Fprintf(w, "%strait alias %s\n", indent, name)
		case hir.TypeItemExternType:
			fmt.Fprintf(w, "%sextern type %s\n", indent, name)
		case hir.TypeItemImport:
			fmt.Fprintf(w, "%suse %s as %s\n", indent, ve.Item.Import.Target, name)
		}
	}
	for _, name := range sortedValueNames(m) {
		ve := m.ValueItems[name]
		if ve.Item.Kind == hir.ValueItemFunction {
			fmt.Fprintf(w, "%sfn %s\n", indent, name)
		}
	}
}

func dumpStructMarkings(s *hir.Struct) string {
	if s == nil {
		return ""
	}
	tags := ""
	if s.Markings.IsCopy {
		tags += " copy"
	}
	if s.Markings.HasDropImpl {
		tags += " drop"
	}
	if s.StructMarkings.CanUnsize {
		tags += " unsize"
	}
	if tags == "" {
		return ""
	}
	return " (" + tags[1:] + ")"
}

func indentOf(depth int) string {
	out := make([]byte, depth*2)
	for i := range out {
		out[i] = ' '
	}
	return string(out)
}

func sortedModNames(m *hir.Module) []string {
	out := make([]string, 0, len(m.ModItems))
	for k := range m.ModItems {
		out = append(out, k)
	}
	sortStrings(out)
	return out
}

func sortedValueNames(m *hir.Module) []string {
	out := make([]string, 0, len(m.ValueItems))
	for k := range m.ValueItems {
		out = append(out, k)
	}
	sortStrings(out)
	return out
}
