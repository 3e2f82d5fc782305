// Package modref resolves import specifiers to absolute module references.
//
// A [Ref] is the normalized absolute string form of a module location: a
// file: URL for modules on the local filesystem, an https: URL for remotely
// hosted modules, or a data: URL for inline modules. Two references denote
// the same module exactly when their strings are equal.
//
// # Resolution
//
// [Resolve] turns a specifier written inside a module into a [Ref]:
//
//   - Specifiers that parse as absolute URLs keep their scheme. Dependencies of
//     an https: module may only be https: or data:; anything else is a
//     SECURITY_VIOLATION error.
//   - Path-like specifiers ("/x", "./x", "../x") are resolved against the
//     containing module. Inside a remote module this is URL resolution; inside
//     a local module it is filesystem path resolution.
//   - Bare specifiers ("lodash") need a package resolution algorithm and are
//     reported as [KindBare] so the caller can skip them.
package modref
