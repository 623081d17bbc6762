// Package config resolves the target-machine parameters and search
// paths the pipeline needs before it can lower a single crate: pointer
// width/endianness/edition for internal/lower and internal/codec, and
// the extern-crate search paths internal/metadata's crate loader walks
// (§10.4).
//
// Grounded on the teacher's internal/module.Resolver (project-root
// discovery by walking up from the working directory looking for marker
// files, an environment-variable override, and a search-path list built
// from env + user directory + project root) — generalised from AILANG's
// single stdlib path to a general extern-crate search list, and extended
// with the target-description fields a systems-language front end needs
// that a module path resolver does not. Uses gopkg.in/yaml.v3 for the
// on-disk format, the same library the teacher's own config loading uses
// elsewhere in its driver code.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sunholo/hirgo/internal/hir"
)

// Edition mirrors internal/lower.Options' edition gate so the CLI layer
// has a single source of truth for parsing the on-disk string form.
type Edition string

const (
	EditionCurrent Edition = "current"
	EditionLegacy  Edition = "legacy"
)

// Endianness is the target's byte order as written in hirgo.yaml;
// Target.ByteOrder converts it to hir.ByteOrder.
type Endianness string

const (
	LittleEndian Endianness = "little"
	BigEndian    Endianness = "big"
)

// Target describes the machine the crate is being built for (§10.4).
type Target struct {
	PointerWidth uint8      `yaml:"pointer_width"` // in bytes: 4 or 8
	Endianness   Endianness `yaml:"endianness"`
}

func (t Target) ByteOrder() hir.ByteOrder {
	if t.Endianness == BigEndian {
		return hir.BigEndian
	}
	return hir.LittleEndian
}

// Config is the parsed contents of a project's hirgo.yaml (§10.4), plus
// the project root it was discovered relative to.
type Config struct {
	ProjectRoot string `yaml:"-"`

	Edition       Edition  `yaml:"edition"`
	IsCoreCrate   bool     `yaml:"is_core_crate"`
	Target        Target   `yaml:"target"`
	ExternCrates  []string `yaml:"extern_crates"` // search directories, in priority order
}

// defaultConfig matches the teacher's fail-open style: a missing config
// file is not an error, it just means every field takes its zero-cost
// sensible default (current edition, non-core crate, 64-bit little
// endian host, no extern-crate search paths).
func defaultConfig(root string) *Config {
	return &Config{
		ProjectRoot: root,
		Edition:     EditionCurrent,
		Target:      Target{PointerWidth: 8, Endianness: LittleEndian},
	}
}

// Load discovers the project root (by walking up from the working
// directory looking for hirgo.yaml, go.mod or .git, exactly as the
// teacher's findProjectRoot does for AILANG markers) and parses
// hirgo.yaml there if present.
func Load() (*Config, error) {
	root := findProjectRoot()
	cfg := defaultConfig(root)

	path := filepath.Join(root, "hirgo.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ExternCrates = searchPaths(root)
			return cfg, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	cfg.ProjectRoot = root
	cfg.ExternCrates = append(cfg.ExternCrates, searchPaths(root)...)
	return cfg, nil
}

// findProjectRoot walks up from the working directory to the first
// ancestor carrying one of the project markers below.
func findProjectRoot() string {
	markers := []string{"hirgo.yaml", "go.mod", ".git"}

	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		for _, marker := range markers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "."
		}
		dir = parent
	}
}

// searchPaths assembles the extern-crate search list: an environment
// override, then the project root itself, mirroring the teacher's
// env-var-then-project-root assembly order.
func searchPaths(root string) []string {
	var paths []string
	if env := os.Getenv("HIRGO_CRATE_PATH"); env != "" {
		for _, p := range strings.Split(env, string(os.PathListSeparator)) {
			if p != "" {
				paths = append(paths, p)
			}
		}
	}
	paths = append(paths, root)
	return paths
}
