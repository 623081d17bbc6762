// Command hirgoc is a minimal batch driver over the HIR/resolve/metadata
// pipeline (§10.6): a harness for exercising internal/lower, internal/index,
// internal/resolve and internal/metadata end to end against a fixed fixture
// crate. It is not a compiler front end — there is no lexer or parser here,
// grounded on the teacher's cmd/ailang/main.go flag-based dispatch rather
// than a cobra-style command tree.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/sunholo/hirgo/internal/config"
	"github.com/sunholo/hirgo/internal/diag"
	"github.com/sunholo/hirgo/internal/hir"
	"github.com/sunholo/hirgo/internal/index"
	"github.com/sunholo/hirgo/internal/istr"
	"github.com/sunholo/hirgo/internal/lower"
	"github.com/sunholo/hirgo/internal/metadata"
	"github.com/sunholo/hirgo/internal/resolve"
)

var (
	red    = color.New(color.FgRed).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func main() {
	var (
		helpFlag    = flag.Bool("help", false, "Show help")
		versionFlag = flag.Bool("version", false, "Print version information")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Println(bold("hirgoc dev"))
		return
	}
	if *helpFlag || flag.NArg() == 0 {
		printHelp()
		return
	}

	cmd := flag.Arg(0)
	var err error
	switch cmd {
	case "lower":
		err = cmdLower()
	case "index":
		err = cmdIndex()
	case "resolve-check":
		err = cmdResolveCheck()
	case "meta-dump":
		err = cmdMetaDump(flag.Args()[1:])
	case "meta-roundtrip":
		err = cmdMetaRoundtrip()
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", red("Error"), cmd)
		printHelp()
		os.Exit(1)
	}

	if err != nil {
		if de, ok := err.(*diag.Error); ok {
			diag.Print(os.Stderr, de)
		} else {
			fmt.Fprintf(os.Stderr, "%s: %v\n", red("Error"), err)
		}
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println(bold("hirgoc - HIR pipeline smoke harness"))
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  hirgoc <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Printf("  %s            Lower the fixture AST to HIR and report item counts\n", cyan("lower"))
	fmt.Printf("  %s            Build the module index over the fixture and report table sizes\n", cyan("index"))
	fmt.Printf("  %s    Lower the fixture and confirm find_impl(Show, Point) succeeds\n", cyan("resolve-check"))
	fmt.Printf("  %s <file>  Dump a .hirmeta file (or the fixture if no file given)\n", cyan("meta-dump"))
	fmt.Printf("  %s  Round-trip the fixture through the metadata codec\n", cyan("meta-roundtrip"))
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  --version   Print version information")
	fmt.Println("  --help      Show this help message")
}

// loadTarget resolves internal/config so every subcommand honours the same
// pointer-width/endianness/edition the project's hirgo.yaml (if any) names.
func loadTarget() (*config.Config, error) {
	return config.Load()
}

func lowerFixture(cfg *config.Config) (*hir.Crate, error) {
	opts := lower.Options{Edition: lower.EditionCurrent}
	if cfg.Edition == config.EditionLegacy {
		opts.Edition = lower.EditionLegacy
	}
	crate, err := lower.LowerHIR_FromAST(buildFixtureCrate(), opts, nil)
	if err != nil {
		return nil, err
	}
	return crate, nil
}

func cmdLower() error {
	cfg, err := loadTarget()
	if err != nil {
		return err
	}
	crate, err := lowerFixture(cfg)
	if err != nil {
		return err
	}
	fmt.Printf("%s crate %q lowered\n", green("OK"), crate.Name.Raw())
	fmt.Printf("  types:  %d\n", len(crate.RootModule.ModItems))
	fmt.Printf("  values: %d\n", len(crate.RootModule.ValueItems))
	fmt.Printf("  trait impls: %d\n", len(crate.AllTraitImplPairs()))
	return nil
}

func cmdIndex() error {
	cfg, err := loadTarget()
	if err != nil {
		return err
	}
	crate, err := lowerFixture(cfg)
	if err != nil {
		return err
	}
	ix, err := index.Resolve_Index(crate, nil)
	if err != nil {
		return err
	}
	root := ix.ModuleOf(crate.RootModule.Path)
	fmt.Printf("%s module index built for %q\n", green("OK"), crate.Name.Raw())
	fmt.Printf("  namespace: %d  type: %d  value: %d  macro: %d\n",
		len(root.Namespace), len(root.Type), len(root.Value), len(root.Macro))
	return nil
}

func cmdResolveCheck() error {
	cfg, err := loadTarget()
	if err != nil {
		return err
	}
	crate, err := lowerFixture(cfg)
	if err != nil {
		return err
	}

	if _, ok := crate.RootModule.ModItems["Show"]; !ok {
		return fmt.Errorf("fixture crate has no Show trait")
	}
	if _, ok := crate.RootModule.ModItems["Point"]; !ok {
		return fmt.Errorf("fixture crate has no Point struct")
	}

	showPath := crate.RootModule.Path.Push(istr.Intern("Show"))
	pointPath := crate.RootModule.Path.Push(istr.Intern("Point"))
	pointTy := hir.TPath(
		hir.Path{Kind: hir.PathGeneric, Generic: hir.GenericPath{Path: pointPath}},
		hir.TypeBinding{State: hir.BindingStruct, Item: pointPath},
	)

	r := resolve.New(crate, nil, nil)
	found := r.FindImpl(showPath, nil, pointTy, func(resolve.ImplRef, bool) bool { return true }, false)
	if !found {
		return fmt.Errorf("find_impl(Show, Point) did not find the fixture's impl")
	}
	fmt.Printf("%s find_impl(Show, Point) resolved\n", green("OK"))
	return nil
}

func cmdMetaDump(args []string) error {
	if len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		crate, err := metadata.ReadCrate(f)
		if err != nil {
			return err
		}
		metadata.DumpCrate(os.Stdout, crate)
		return nil
	}

	cfg, err := loadTarget()
	if err != nil {
		return err
	}
	crate, err := lowerFixture(cfg)
	if err != nil {
		return err
	}
	metadata.DumpCrate(os.Stdout, crate)
	return nil
}

func cmdMetaRoundtrip() error {
	cfg, err := loadTarget()
	if err != nil {
		return err
	}
	crate, err := lowerFixture(cfg)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := metadata.WriteCrate(&buf, crate); err != nil {
		return err
	}
	got, err := metadata.ReadCrate(&buf)
	if err != nil {
		return err
	}
	if got.Name.Raw() != crate.Name.Raw() {
		return fmt.Errorf("round trip changed crate name: %q -> %q", crate.Name.Raw(), got.Name.Raw())
	}
	if _, ok := got.RootModule.ModItems["Point"]; !ok {
		return fmt.Errorf("round trip dropped struct Point")
	}
	fmt.Printf("%s round trip preserved %q (build %s, %d bytes)\n", green("OK"), got.Name.Raw(), got.BuildID, buf.Len())
	return nil
}
