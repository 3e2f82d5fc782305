// Package crawl walks the import graph of an ECMAScript entry module,
// mirrors every https: module into the cache and builds the trust policy.
//
// # Traversal
//
// A [Crawler] runs a breadth-first traversal driven by a [Frontier]. Each
// dequeued module is read from disk (file:) or fetched (https:), its
// specifiers are extracted and resolved, and newly found modules are queued.
// Every module is read or fetched at most once per run: a reference is
// marked visited when it is dequeued, so it may be queued by several
// importers before its first visit.
//
// Modules reached over https: may only depend on https: and data: URLs;
// anything else aborts the run with SECURITY_VIOLATION. Bare specifiers are
// ignored, and local modules importing other URL schemes are logged and
// skipped.
//
// # Redirects
//
// A redirect response turns the requested URL's cache slot into a symlink
// to the target's slot, and the target is fetched immediately. Chains are
// limited to [Options.MaxRedirects] hops and may not revisit a URL; both
// fail with REDIRECT_LOOP.
//
// # Policy
//
// Policy paths that go through a cache slot are recorded as pending and
// resolved with the slot's real path only after the traversal has finished,
// so aliases always resolve to the file they end up pointing at. Any error
// aborts the run and no policy is returned.
package crawl
