package crawl

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/httpsvendor/pkg/cache"
	"github.com/matzehuels/httpsvendor/pkg/dag"
	"github.com/matzehuels/httpsvendor/pkg/errors"
	"github.com/matzehuels/httpsvendor/pkg/fetch"
	"github.com/matzehuels/httpsvendor/pkg/modref"
	"github.com/matzehuels/httpsvendor/pkg/observability"
	"github.com/matzehuels/httpsvendor/pkg/policy"
	"github.com/matzehuels/httpsvendor/pkg/specifier"
)

// DefaultMaxRedirects is the redirect hop limit used when none is set.
const DefaultMaxRedirects = 10

// Fetcher retrieves one remote module without following redirects.
// *fetch.Client implements it.
type Fetcher interface {
	Get(ctx context.Context, ref modref.Ref) (*fetch.Response, error)
}

// Options configures a Crawler.
type Options struct {
	// Cache receives fetched modules and redirect aliases. Required.
	Cache *cache.Dir
	// Fetcher retrieves https: modules. Required.
	Fetcher Fetcher
	// Extractor lists the specifiers of a module. Required.
	Extractor specifier.Extractor
	// Root is the project root; its file: URL keys the policy scope. Required.
	Root string
	// PolicyDir is the directory policy paths are made relative to
	// (default: Root).
	PolicyDir string
	// MaxRedirects caps the length of a redirect chain (default: 10).
	MaxRedirects int
	// Logger receives progress output (default: discard).
	Logger *log.Logger
}

// Stats summarizes a finished crawl.
type Stats struct {
	Modules   int // modules visited
	Local     int // local modules read
	Remote    int // remote modules fetched and cached
	Redirects int // redirects aliased
	Data      int // data: dependencies recorded
	Skipped   int // specifiers not traversed
	Duration  time.Duration
}

// Result is the output of a successful crawl.
type Result struct {
	RunID  string
	Policy *policy.Policy
	Graph  *dag.DAG
	Stats  Stats
}

// Crawler mirrors the import graph of an entry module. A Crawler holds only
// configuration; each Run starts from an empty frontier, policy and graph,
// so one Crawler can run several independent crawls, though not
// concurrently against the same cache directory.
type Crawler struct {
	opts Options
}

// New validates opts and returns a Crawler.
func New(opts Options) (*Crawler, error) {
	switch {
	case opts.Cache == nil:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "crawl: cache directory is required")
	case opts.Fetcher == nil:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "crawl: fetcher is required")
	case opts.Extractor == nil:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "crawl: extractor is required")
	case opts.Root == "":
		return nil, errors.New(errors.ErrCodeInvalidConfig, "crawl: project root is required")
	}
	if opts.PolicyDir == "" {
		opts.PolicyDir = opts.Root
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = DefaultMaxRedirects
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Crawler{opts: opts}, nil
}

// Run crawls from entry, which must be a file: or https: reference. On
// success every reachable remote module is in the cache and the returned
// policy describes them. On failure nothing but the cache may have changed.
func (c *Crawler) Run(ctx context.Context, entry modref.Ref) (_ *Result, err error) {
	start := time.Now()
	r := &run{
		Options:  c.opts,
		id:       uuid.NewString(),
		frontier: NewFrontier(),
		builder:  policy.NewBuilder(modref.DirRef(c.opts.Root).String()),
		graph:    dag.New(dag.Metadata{"entry": entry.String()}),
	}
	r.log = c.opts.Logger.With("run", r.id[:8])
	defer func() {
		observability.Crawl().OnComplete(ctx, r.frontier.VisitedCount(), time.Since(start), err)
	}()

	if kind := entry.Kind(); kind != modref.KindLocal && kind != modref.KindRemote {
		return nil, unsupported(entry)
	}
	if _, err := r.graph.EnsureNode(dag.Node{ID: entry.String(), Kind: nodeKind(entry.Kind())}); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "record %s", entry)
	}
	r.frontier.Enqueue(entry, 0)

	for {
		ref, depth, ok := r.frontier.Next()
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.visit(ctx, ref, depth); err != nil {
			return nil, err
		}
	}

	p, err := r.builder.Finalize(r.resolveSlot)
	if err != nil {
		return nil, err
	}
	r.stats.Modules = r.frontier.VisitedCount()
	r.stats.Duration = time.Since(start)
	r.log.Debug("crawl complete", "modules", r.stats.Modules, "remote", r.stats.Remote, "elapsed", r.stats.Duration)
	return &Result{RunID: r.id, Policy: p, Graph: r.graph, Stats: r.stats}, nil
}

// run is the mutable state of one crawl.
type run struct {
	Options
	id       string
	log      *log.Logger
	frontier *Frontier
	builder  *policy.Builder
	graph    *dag.DAG
	stats    Stats
}

func (r *run) visit(ctx context.Context, ref modref.Ref, depth int) error {
	r.log.Info("visiting", "module", ref.String())
	observability.Crawl().OnVisit(ctx, ref.String(), depth)

	switch ref.Kind() {
	case modref.KindLocal:
		return r.visitLocal(ctx, ref, depth)
	case modref.KindRemote:
		return r.visitRemote(ctx, ref, depth, nil)
	default:
		return unsupported(ref)
	}
}

func (r *run) visitLocal(ctx context.Context, ref modref.Ref, depth int) error {
	path, err := ref.Path()
	if err != nil {
		return err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", ref)
		}
		return errors.Wrap(errors.ErrCodeInternal, err, "read %s", ref)
	}
	r.stats.Local++

	specs, err := r.Extractor.Extract(ctx, src, path)
	if err != nil {
		return err
	}
	for _, spec := range specs {
		target, kind, err := modref.Resolve(spec, ref)
		if err != nil {
			return err
		}
		switch kind {
		case modref.KindBare:
			r.log.Debug("ignoring bare specifier", "specifier", spec, "module", ref.String())
			r.stats.Skipped++
		case modref.KindOther:
			r.log.Warn("skipping unsupported specifier", "specifier", spec, "module", ref.String())
			r.stats.Skipped++
		case modref.KindData:
			r.stats.Data++
			if err := r.edge(ref, target, depth+1, spec); err != nil {
				return err
			}
		default:
			if err := r.edge(ref, target, depth+1, spec); err != nil {
				return err
			}
			r.frontier.Enqueue(target, depth+1)
		}
	}
	return nil
}

// visitRemote fetches ref. chain holds the URLs redirected to ref in this
// call stack, oldest first.
func (r *run) visitRemote(ctx context.Context, ref modref.Ref, depth int, chain []modref.Ref) error {
	resp, err := r.Fetcher.Get(ctx, ref)
	if err != nil {
		return err
	}
	slot := r.Cache.SlotPath(ref.String())
	if err := r.builder.RecordScopeDependency(ref.String(), policy.Pending(slot)); err != nil {
		return err
	}

	if resp.IsRedirect() {
		return r.redirect(ctx, ref, resp.Location, depth, chain)
	}

	if err := r.Cache.Write(ctx, slot, resp.Body); err != nil {
		return err
	}
	if err := r.builder.RecordResource(slot, policy.Hash(resp.Integrity)); err != nil {
		return err
	}
	r.stats.Remote++
	if n, ok := r.graph.Node(ref.String()); ok {
		n.Meta["integrity"] = resp.Integrity
	}
	r.log.Debug("cached", "module", ref.String(), "bytes", len(resp.Body), "slot", filepath.Base(slot))

	specs, err := r.Extractor.Extract(ctx, resp.Body, ref.String())
	if err != nil {
		return err
	}
	for _, spec := range specs {
		target, kind, err := modref.Resolve(spec, ref)
		if err != nil {
			return err
		}
		switch kind {
		case modref.KindData:
			r.stats.Data++
			if err := r.builder.RecordDependency(slot, spec, policy.Literal(target.String())); err != nil {
				return err
			}
		case modref.KindRemote:
			targetSlot := r.Cache.SlotPath(target.String())
			if err := r.builder.RecordDependency(slot, spec, policy.Pending(targetSlot)); err != nil {
				return err
			}
			r.frontier.Enqueue(target, depth+1)
		default:
			r.log.Debug("ignoring bare specifier", "specifier", spec, "module", ref.String())
			r.stats.Skipped++
			continue
		}
		if err := r.edge(ref, target, depth+1, spec); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) redirect(ctx context.Context, ref modref.Ref, location string, depth int, chain []modref.Ref) error {
	target, err := modref.ResolveLocation(location, ref)
	if err != nil {
		return err
	}
	chain = append(chain, ref)
	if len(chain) > r.MaxRedirects {
		return errors.New(errors.ErrCodeRedirectLoop, "%s: more than %d redirects", chain[0], r.MaxRedirects)
	}
	for _, seen := range chain {
		if seen == target {
			return errors.New(errors.ErrCodeRedirectLoop, "%s: redirect loop at %s", chain[0], target)
		}
	}

	slot := r.Cache.SlotPath(ref.String())
	if err := r.Cache.Alias(ctx, slot, r.Cache.SlotPath(target.String())); err != nil {
		return err
	}
	r.stats.Redirects++
	observability.Crawl().OnRedirect(ctx, ref.String(), target.String())
	r.log.Debug("redirect", "from", ref.String(), "to", target.String())

	if err := r.redirectEdge(ref, target, depth); err != nil {
		return err
	}
	if !r.frontier.MarkVisited(target) {
		// Already fetched; its slot holds the body or an earlier alias.
		return nil
	}
	r.log.Info("visiting", "module", target.String())
	observability.Crawl().OnVisit(ctx, target.String(), depth)
	return r.visitRemote(ctx, target, depth, chain)
}

// resolveSlot maps a cache slot to its policy path. It runs only during
// Finalize, after every write and alias of the run exists.
func (r *run) resolveSlot(slot string) (string, error) {
	resolved, err := r.Cache.RealPath(slot)
	if err != nil {
		return "", err
	}
	return cache.RelativeTo(r.PolicyDir, resolved)
}

func (r *run) edge(from, to modref.Ref, depth int, spec string) error {
	if _, err := r.graph.EnsureNode(dag.Node{ID: to.String(), Row: depth, Kind: nodeKind(to.Kind())}); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "record %s", to)
	}
	err := r.graph.AddEdge(dag.Edge{From: from.String(), To: to.String(), Meta: dag.Metadata{dag.MetaSpecifier: spec}})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "record %s -> %s", from, to)
	}
	return nil
}

func (r *run) redirectEdge(from, to modref.Ref, depth int) error {
	if _, err := r.graph.EnsureNode(dag.Node{ID: to.String(), Row: depth + 1, Kind: dag.NodeKindRemote}); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "record %s", to)
	}
	err := r.graph.AddEdge(dag.Edge{From: from.String(), To: to.String(), Meta: dag.Metadata{dag.MetaRedirect: true}})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "record %s -> %s", from, to)
	}
	return nil
}

func nodeKind(k modref.Kind) dag.NodeKind {
	switch k {
	case modref.KindRemote:
		return dag.NodeKindRemote
	case modref.KindData:
		return dag.NodeKindData
	}
	return dag.NodeKindLocal
}

func unsupported(ref modref.Ref) error {
	return errors.New(errors.ErrCodeUnsupportedScheme, "gathering from %s: URLs is not implemented (%s)", ref.Scheme(), ref)
}
