package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/httpsvendor/pkg/errors"
	"github.com/matzehuels/httpsvendor/pkg/observability"
)

// Dir is a flat directory of cached module files.
// Dir is not safe for concurrent use; a cache directory is owned by one run.
type Dir struct {
	path string
}

// Open returns the cache directory at path, creating it if needed.
func Open(path string) (*Dir, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "cache directory %s", path)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create cache directory %s", abs)
	}
	return &Dir{path: abs}, nil
}

// Path returns the absolute path of the cache directory.
func (d *Dir) Path() string { return d.path }

// SlotPath returns the absolute file path of the slot for href.
func (d *Dir) SlotPath(href string) string {
	return filepath.Join(d.path, SlotName(href))
}

// Write stores body in slot, replacing any file or alias already there.
// The body is written to a temporary file and renamed into place so a
// leftover alias from an earlier run is replaced rather than followed.
func (d *Dir) Write(ctx context.Context, slot string, body []byte) error {
	tmp, err := os.CreateTemp(d.path, ".tmp-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", slot)
	}
	name := tmp.Name()
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(name)
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", slot)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", slot)
	}
	if err := os.Chmod(name, 0o644); err != nil {
		os.Remove(name)
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", slot)
	}
	if err := os.Rename(name, slot); err != nil {
		os.Remove(name)
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", slot)
	}
	observability.Cache().OnCacheWrite(ctx, slot, len(body))
	return nil
}

// Alias makes slot a symlink to target. A stale file at slot is removed
// first; a missing one is not an error. The link is relative so the cache
// directory can be moved as a whole.
func (d *Dir) Alias(ctx context.Context, slot, target string) error {
	if err := os.Remove(slot); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeInternal, err, "remove stale %s", slot)
	}
	rel, err := filepath.Rel(filepath.Dir(slot), target)
	if err != nil {
		rel = target
	}
	if err := os.Symlink(rel, slot); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "alias %s -> %s", slot, target)
	}
	observability.Cache().OnCacheAlias(ctx, slot, target)
	return nil
}

// RealPath returns the absolute path of slot with every symlink resolved.
// It fails if slot, or the slot it aliases, does not exist yet.
func (d *Dir) RealPath(slot string) (string, error) {
	resolved, err := filepath.EvalSymlinks(slot)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Wrap(errors.ErrCodeFileNotFound, err, "resolve %s", slot)
		}
		return "", errors.Wrap(errors.ErrCodeInternal, err, "resolve %s", slot)
	}
	return filepath.Abs(resolved)
}

// Clear removes every cached module and alias, returning the number removed.
func (d *Dir) Clear() (int, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	count := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Suffix) {
			continue
		}
		if err := os.Remove(filepath.Join(d.path, e.Name())); err == nil {
			count++
		}
	}
	return count, nil
}

// RelativeTo returns path relative to base as a "./"-prefixed slash path,
// the form policy files use for dependency values. base is resolved through
// symlinks so it compares equal with paths from [Dir.RealPath].
func RelativeTo(base, path string) (string, error) {
	if resolved, err := filepath.EvalSymlinks(base); err == nil {
		base = resolved
	}
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "relativize %s", path)
	}
	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, "../") {
		rel = "./" + rel
	}
	return rel, nil
}
