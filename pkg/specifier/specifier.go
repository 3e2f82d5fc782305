package specifier

import (
	"context"
)

// Extractor returns the import specifiers a module statically references.
// Implementations return each specifier once, in order of first appearance.
type Extractor interface {
	Extract(ctx context.Context, src []byte, filename string) ([]string, error)
}

// Func adapts a function to the Extractor interface.
type Func func(ctx context.Context, src []byte, filename string) ([]string, error)

// Extract calls f.
func (f Func) Extract(ctx context.Context, src []byte, filename string) ([]string, error) {
	return f(ctx, src, filename)
}

// set collects specifiers in first-seen order.
type set struct {
	seen  map[string]bool
	items []string
}

func newSet() *set {
	return &set{seen: make(map[string]bool)}
}

func (s *set) add(v string) {
	if s.seen[v] {
		return
	}
	s.seen[v] = true
	s.items = append(s.items, v)
}
