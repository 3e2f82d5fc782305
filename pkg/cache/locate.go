package cache

import (
	"os"
	"path/filepath"
)

// Layout names the directories a run works in.
type Layout struct {
	// Root is the project root: the directory policy paths are relative to
	// when the policy is written to standard output, and the scope URL.
	Root string
	// Cache is the cache directory, <Root>/node_modules/.https by default.
	Cache string
}

// DefaultCacheDir is the cache directory relative to the project root.
var DefaultCacheDir = filepath.Join("node_modules", ".https")

// Locate finds the project root for cwd: the nearest ancestor (cwd included)
// that contains a node_modules directory. The search stops early when it
// walks into a node_modules directory itself. If no root is found, cwd is
// the root and its node_modules is created on first write.
func Locate(cwd string) (Layout, error) {
	cwd, err := filepath.Abs(cwd)
	if err != nil {
		return Layout{}, err
	}

	root := cwd
	for needle := cwd; ; {
		if filepath.Base(needle) == "node_modules" {
			break
		}
		if info, err := os.Stat(filepath.Join(needle, "node_modules")); err == nil && info.IsDir() {
			root = needle
			break
		}
		parent := filepath.Dir(needle)
		if parent == needle {
			break
		}
		needle = parent
	}

	return Layout{Root: root, Cache: filepath.Join(root, DefaultCacheDir)}, nil
}
