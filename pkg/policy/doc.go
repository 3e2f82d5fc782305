// Package policy builds the trust manifest written at the end of a crawl.
//
// A [Policy] has two sections. Resources maps the path of each cached remote
// module (relative to the policy file) to its integrity hash and the paths
// its specifiers resolve to. Scopes maps the project root URL to the set of
// absolute URLs the project may load and the cache files that serve them.
//
// # Pending paths
//
// Cache paths that go through a redirect alias are only meaningful once the
// symlink exists. The [Builder] therefore records dependency values as
// [Target]s: a [Pending] target names a cache slot and is resolved to a real
// path in a single [Builder.Finalize] pass after every write has completed,
// while a [Literal] target (such as a data: URL) is copied through as is.
//
//	b := policy.NewBuilder("file:///project/")
//	b.RecordResource(slot, integrity)
//	b.RecordDependency(slot, "./dep.mjs", policy.Pending(depSlot))
//	b.RecordScopeDependency(href, policy.Pending(slot))
//	p, err := b.Finalize(resolveSlot)
//
// Policies are encoded as two-space indented JSON with HTML escaping off,
// see [WriteJSON].
package policy
