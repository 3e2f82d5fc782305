package policy

import (
	"github.com/matzehuels/httpsvendor/pkg/errors"
)

// Target is the value side of a dependency binding.
type Target struct {
	slot    string
	literal string
}

// Pending returns a Target resolved from a cache slot during Finalize.
func Pending(slot string) Target { return Target{slot: slot} }

// Literal returns a Target whose value is used verbatim.
func Literal(value string) Target { return Target{literal: value} }

// IsPending reports whether t still needs resolving.
func (t Target) IsPending() bool { return t.slot != "" }

// Slot returns the cache slot of a pending target.
func (t Target) Slot() string { return t.slot }

func (t Target) String() string {
	if t.IsPending() {
		return "pending(" + t.slot + ")"
	}
	return t.literal
}

// ResolveFunc maps a cache slot to the path written into the policy.
type ResolveFunc func(slot string) (string, error)

type resource struct {
	integrity Integrity
	deps      map[string]Target
}

// Builder accumulates resources and scope bindings during a crawl.
// It is not safe for concurrent use.
type Builder struct {
	scopeURL  string
	resources map[string]*resource // keyed by slot
	scope     map[string]Target
	finalized bool
}

// NewBuilder returns a Builder for the scope rooted at scopeURL, which
// should be a file: URL ending in a slash.
func NewBuilder(scopeURL string) *Builder {
	return &Builder{
		scopeURL:  scopeURL,
		resources: make(map[string]*resource),
		scope:     make(map[string]Target),
	}
}

// RecordResource adds the cached file at slot. Each slot is recorded once.
func (b *Builder) RecordResource(slot string, integrity Integrity) error {
	if err := b.writable(); err != nil {
		return err
	}
	if slot == "" {
		return errors.New(errors.ErrCodeInvalidInput, "resource slot is empty")
	}
	if _, ok := b.resources[slot]; ok {
		return errors.New(errors.ErrCodeInternal, "resource %s recorded twice", slot)
	}
	b.resources[slot] = &resource{integrity: integrity, deps: make(map[string]Target)}
	return nil
}

// RecordDependency binds specifier inside the resource at slot to target.
// Recording the same specifier again keeps the first binding.
func (b *Builder) RecordDependency(slot, specifier string, target Target) error {
	if err := b.writable(); err != nil {
		return err
	}
	r, ok := b.resources[slot]
	if !ok {
		return errors.New(errors.ErrCodeInternal, "dependency %q recorded for unknown resource %s", specifier, slot)
	}
	if _, ok := r.deps[specifier]; !ok {
		r.deps[specifier] = target
	}
	return nil
}

// RecordScopeDependency allows the project scope to load href from target.
func (b *Builder) RecordScopeDependency(href string, target Target) error {
	if err := b.writable(); err != nil {
		return err
	}
	if _, ok := b.scope[href]; !ok {
		b.scope[href] = target
	}
	return nil
}

// Len returns the number of recorded resources.
func (b *Builder) Len() int { return len(b.resources) }

func (b *Builder) writable() error {
	if b.finalized {
		return errors.New(errors.ErrCodeInternal, "policy already finalized")
	}
	return nil
}

// Finalize resolves every pending target, and every resource key, through
// resolve and returns the finished Policy. Each distinct slot is resolved
// once. The Builder cannot be used afterwards.
//
// Call Finalize only after all cache writes and aliases exist; resolve is
// expected to fail for slots that are not on disk.
func (b *Builder) Finalize(resolve ResolveFunc) (*Policy, error) {
	if err := b.writable(); err != nil {
		return nil, err
	}
	b.finalized = true

	resolved := make(map[string]string)
	lookup := func(t Target) (string, error) {
		if !t.IsPending() {
			return t.literal, nil
		}
		if p, ok := resolved[t.slot]; ok {
			return p, nil
		}
		p, err := resolve(t.slot)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeInternal, err, "resolve %s", t.slot)
		}
		resolved[t.slot] = p
		return p, nil
	}

	p := &Policy{
		Resources: make(map[string]*Resource, len(b.resources)),
		Scopes:    make(map[string]*Scope, 1),
	}
	for slot, r := range b.resources {
		key, err := lookup(Pending(slot))
		if err != nil {
			return nil, err
		}
		deps, err := resolveAll(r.deps, lookup)
		if err != nil {
			return nil, err
		}
		p.Resources[key] = &Resource{Integrity: r.integrity, Dependencies: deps}
	}

	deps, err := resolveAll(b.scope, lookup)
	if err != nil {
		return nil, err
	}
	p.Scopes[b.scopeURL] = &Scope{Integrity: true, Dependencies: deps, Cascade: true}
	return p, nil
}

func resolveAll(in map[string]Target, lookup func(Target) (string, error)) (map[string]string, error) {
	out := make(map[string]string, len(in))
	for k, t := range in {
		v, err := lookup(t)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}
