package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/httpsvendor/pkg/cache"
	"github.com/matzehuels/httpsvendor/pkg/crawl"
	"github.com/matzehuels/httpsvendor/pkg/dag"
	"github.com/matzehuels/httpsvendor/pkg/errors"
	"github.com/matzehuels/httpsvendor/pkg/fetch"
	graphio "github.com/matzehuels/httpsvendor/pkg/io"
	"github.com/matzehuels/httpsvendor/pkg/modref"
	"github.com/matzehuels/httpsvendor/pkg/observability"
	"github.com/matzehuels/httpsvendor/pkg/policy"
	"github.com/matzehuels/httpsvendor/pkg/render"
	"github.com/matzehuels/httpsvendor/pkg/render/nodelink"
	"github.com/matzehuels/httpsvendor/pkg/specifier"
)

// pngScale is the rasterization scale for --graph out.png.
const pngScale = 2.0

// vendor crawls the entry in args[0] and writes the policy to args[1] or
// standard output.
func (c *CLI) vendor(cmd *cobra.Command, args []string, opts *vendorOptions) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cwd, err := os.Getwd()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "working directory")
	}
	layout, err := cache.Locate(cwd)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "locate project root")
	}
	cfg, err := resolveConfig(cmd, opts, layout.Root)
	if err != nil {
		return err
	}

	entry, err := modref.Entry(args[0], cwd)
	if err != nil {
		return err
	}

	var output string
	policyDir := layout.Root
	if len(args) == 2 {
		if output, err = filepath.Abs(args[1]); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "policy output %s", args[1])
		}
		policyDir = filepath.Dir(output)
	}

	var format render.Format
	if opts.graph != "" {
		if format, err = render.FormatFromPath(opts.graph); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "--graph")
		}
	}

	dir, err := cache.Open(cfg.cachePath(layout.Root))
	if err != nil {
		return err
	}
	logger.Debug("project", "root", layout.Root, "cache", dir.Path(), "policy_dir", policyDir)

	client := fetch.NewClient(fetch.Options{
		Timeout:    cfg.Timeout,
		Retries:    cfg.Retries,
		UserAgent:  cfg.UserAgent,
		HTTPClient: c.HTTPClient,
	})

	crawlLog := logger
	var spin *Spinner
	if c.interactive() {
		crawlLog = logger.With()
		crawlLog.SetLevel(log.WarnLevel)
		spin = newSpinnerWithContext(ctx, c.Stderr, "crawling "+entry.String())
		restore := observability.Crawl()
		observability.SetCrawlHooks(spinnerHooks{spin: spin})
		defer observability.SetCrawlHooks(restore)
	}
	if c.verbose() {
		restoreHTTP, restoreCache := observability.HTTP(), observability.Cache()
		observability.SetHTTPHooks(logHooks{logger})
		observability.SetCacheHooks(logHooks{logger})
		defer func() {
			observability.SetHTTPHooks(restoreHTTP)
			observability.SetCacheHooks(restoreCache)
		}()
	}

	crawler, err := crawl.New(crawl.Options{
		Cache:        dir,
		Fetcher:      client,
		Extractor:    specifier.NewJavaScript(),
		Root:         layout.Root,
		PolicyDir:    policyDir,
		MaxRedirects: cfg.MaxRedirects,
		Logger:       crawlLog,
	})
	if err != nil {
		return err
	}

	prog := newProgress(logger)
	if spin != nil {
		spin.Start()
	}
	res, err := crawler.Run(ctx, entry)
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return err
	}

	// The graph goes first: a failed render or write must not leave a
	// policy behind.
	if opts.graph != "" {
		data, err := renderGraph(ctx, res.Graph, format, nodelink.Options{
			Detailed: opts.detailed,
			Root:     modref.DirRef(layout.Root).String(),
		})
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.graph, data, 0o644); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "write graph %s", opts.graph)
		}
	}

	if output == "" {
		err = policy.WriteJSON(res.Policy, c.Stdout)
	} else {
		err = policy.ExportJSON(res.Policy, output)
	}
	if err != nil {
		if opts.graph != "" {
			_ = os.Remove(opts.graph)
		}
		return err
	}

	prog.done(fmt.Sprintf("Crawled %d modules", res.Stats.Modules))
	printSummary(c.Stderr, res, output, opts.graph)
	return nil
}

// renderGraph encodes the import graph in format.
func renderGraph(ctx context.Context, g *dag.DAG, format render.Format, opts nodelink.Options) ([]byte, error) {
	if format == render.FormatJSON {
		var buf bytes.Buffer
		if err := graphio.WriteJSON(g, &buf); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode graph")
		}
		return buf.Bytes(), nil
	}

	dot := nodelink.ToDOT(g, opts)
	var (
		data []byte
		err  error
	)
	switch format {
	case render.FormatDOT:
		data = []byte(dot)
	case render.FormatSVG:
		data, err = nodelink.RenderSVG(ctx, dot)
	case render.FormatPDF:
		data, err = nodelink.RenderPDF(ctx, dot)
	case render.FormatPNG:
		data, err = nodelink.RenderPNG(ctx, dot, pngScale)
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unsupported graph format %q", format)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render graph")
	}
	return data, nil
}
