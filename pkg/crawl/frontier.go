package crawl

import "github.com/matzehuels/httpsvendor/pkg/modref"

type queued struct {
	ref   modref.Ref
	depth int
}

// Frontier is the FIFO worklist of a crawl together with its visited set.
// The zero value is not usable; use NewFrontier.
type Frontier struct {
	queue   []queued
	pending map[modref.Ref]struct{}
	visited map[modref.Ref]struct{}
}

// NewFrontier returns an empty Frontier.
func NewFrontier() *Frontier {
	return &Frontier{
		pending: make(map[modref.Ref]struct{}),
		visited: make(map[modref.Ref]struct{}),
	}
}

// Enqueue adds ref at the given depth unless it was already visited or is
// already waiting. It reports whether ref was added.
func (f *Frontier) Enqueue(ref modref.Ref, depth int) bool {
	if _, ok := f.visited[ref]; ok {
		return false
	}
	if _, ok := f.pending[ref]; ok {
		return false
	}
	f.pending[ref] = struct{}{}
	f.queue = append(f.queue, queued{ref: ref, depth: depth})
	return true
}

// Next removes the oldest reference that has not been visited, marks it
// visited and returns it with its depth. ok is false once the frontier is
// exhausted.
func (f *Frontier) Next() (ref modref.Ref, depth int, ok bool) {
	for len(f.queue) > 0 {
		q := f.queue[0]
		f.queue = f.queue[1:]
		delete(f.pending, q.ref)
		if f.MarkVisited(q.ref) {
			return q.ref, q.depth, true
		}
	}
	return "", 0, false
}

// MarkVisited marks ref visited outside queue order, as done for redirect
// targets. It reports whether ref was not visited before.
func (f *Frontier) MarkVisited(ref modref.Ref) bool {
	if _, ok := f.visited[ref]; ok {
		return false
	}
	f.visited[ref] = struct{}{}
	return true
}

// Visited reports whether ref has been visited.
func (f *Frontier) Visited(ref modref.Ref) bool {
	_, ok := f.visited[ref]
	return ok
}

// Len returns the number of queued references, including any that were
// visited out of order and will be skipped.
func (f *Frontier) Len() int { return len(f.queue) }

// VisitedCount returns the number of visited references.
func (f *Frontier) VisitedCount() int { return len(f.visited) }
