// Package cache manages the on-disk mirror of remotely hosted modules.
//
// The cache is a single flat directory. Every remote module reference is
// assigned a deterministic file name (its slot) by [SlotName]: the reference
// is percent-encoded like encodeURIComponent, "_" is doubled, "%" becomes
// "_", and ".mjs" is appended. The same reference always maps to the same
// slot, so repeated runs overwrite rather than duplicate. The encoding keeps
// slot names human-inspectable; it is not a security boundary.
//
// Redirects are stored as aliases: the slot of the redirecting URL becomes a
// symlink to the slot of its target (see [Dir.Alias]). Because the real
// location of an alias is only known once the link exists, callers resolve
// paths with [Dir.RealPath] after every write of a run has completed.
//
// [Locate] finds the project root and default cache directory
// (<root>/node_modules/.https) starting from a working directory.
package cache
