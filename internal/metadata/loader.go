package metadata

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sunholo/hirgo/internal/hir"
)

// CrateLoader resolves an extern-crate name to its already-parsed
// metadata, loading it from disk on first use (§12's supplemented
// lazy-loading feature: a full front end reads extern-crate metadata on
// demand rather than eagerly walking the whole dependency graph up
// front).
type CrateLoader func(name string) (*hir.Crate, error)

// NewFileCrateLoader builds a CrateLoader that searches searchPaths (in
// order, as internal/config.Config.ExternCrates supplies them) for a
// "<name>.hirmeta" file, parses it with ReadCrate, and caches the result
// so a crate reachable through more than one path is only decoded once.
func NewFileCrateLoader(searchPaths []string) CrateLoader {
	var mu sync.Mutex
	cache := make(map[string]*hir.Crate)

	return func(name string) (*hir.Crate, error) {
		mu.Lock()
		if c, ok := cache[name]; ok {
			mu.Unlock()
			return c, nil
		}
		mu.Unlock()

		for _, dir := range searchPaths {
			path := filepath.Join(dir, name+".hirmeta")
			f, err := os.Open(path)
			if err != nil {
				continue
			}
			crate, err := ReadCrate(f)
			closeErr := f.Close()
			if err != nil {
				return nil, fmt.Errorf("metadata: loading extern crate %q from %s: %w", name, path, err)
			}
			if closeErr != nil {
				return nil, fmt.Errorf("metadata: closing %s: %w", path, closeErr)
			}
			mu.Lock()
			cache[name] = crate
			mu.Unlock()
			return crate, nil
		}
		return nil, fmt.Errorf("metadata: extern crate %q not found in any of %v", name, searchPaths)
	}
}
