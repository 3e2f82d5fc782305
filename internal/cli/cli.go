// Package cli implements the httpsvendor command-line interface.
package cli

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matzehuels/httpsvendor/pkg/buildinfo"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for the config file and display.
	appName = "httpsvendor"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	// Stdout receives the policy when no output path is given.
	Stdout io.Writer
	// Stderr receives the spinner and the run summary.
	Stderr io.Writer
	// HTTPClient, when set, is the template for the fetch client.
	HTTPClient *http.Client
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Stdout: os.Stdout,
		Stderr: w,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// verbose reports whether debug logging is on.
func (c *CLI) verbose() bool {
	return c.Logger.GetLevel() <= log.DebugLevel
}

// interactive reports whether progress should be shown with a spinner
// instead of log lines.
func (c *CLI) interactive() bool {
	f, ok := c.Stderr.(*os.File)
	return ok && !c.verbose() && isatty.IsTerminal(f.Fd())
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	opts := &vendorOptions{}
	root := &cobra.Command{
		Use:   "httpsvendor <entry> [policy-output]",
		Short: "httpsvendor mirrors https: imports into node_modules and writes a trust policy",
		Long: `httpsvendor crawls the static import graph of an ECMAScript module, downloads every
https: module it reaches into node_modules/.https, records redirects as symlinks
and emits a JSON policy with the sha256 integrity of each cached module and the
dependency map of every specifier.

The entry is a local file path or an https: URL. The policy is written to
policy-output when given, otherwise to standard output.`,
		Version:      buildinfo.Version,
		Args:         cobra.RangeArgs(1, 2),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.vendor(cmd, args, opts)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVar(&opts.config, "config", "", "config file (default: <root>/"+configFile+")")
	pf.StringVar(&opts.cacheDir, "cache-dir", "", "cache directory, relative to the project root")

	f := root.Flags()
	f.IntVar(&opts.maxRedirects, "max-redirects", 0, "maximum redirect chain length (default 10)")
	f.DurationVar(&opts.timeout, "timeout", 0, "per-request timeout (default 30s)")
	f.IntVar(&opts.retries, "retries", 0, "extra attempts for transient network failures")
	f.StringVar(&opts.userAgent, "user-agent", "", "User-Agent header for remote requests")
	f.StringVar(&opts.graph, "graph", "", "also write the import graph (.dot, .json, .svg, .pdf, .png)")
	f.BoolVar(&opts.detailed, "detailed", false, "label graph edges with specifiers and nodes with depth")

	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Options Helpers
// =============================================================================

// vendorOptions holds the flag values of the root command. Zero values
// mean "not set"; only flags the user changed override the config file.
type vendorOptions struct {
	config       string
	cacheDir     string
	maxRedirects int
	timeout      time.Duration
	retries      int
	userAgent    string
	graph        string
	detailed     bool
}

// changed reports whether the named flag was set on the command line.
func changed(cmd *cobra.Command, name string) bool {
	f := cmd.Flag(name)
	return f != nil && f.Changed
}

// resolveConfig loads the config for the project at root, then applies
// environment overrides and the flags the user set.
func resolveConfig(cmd *cobra.Command, opts *vendorOptions, root string) (Config, error) {
	path, required := filepath.Join(root, configFile), false
	if opts.config != "" {
		path, required = opts.config, true
	}
	cfg, err := loadConfig(path, required)
	if err != nil {
		return Config{}, err
	}
	if err := applyEnv(&cfg, filepath.Join(root, envFile)); err != nil {
		return Config{}, err
	}

	if changed(cmd, "cache-dir") {
		cfg.CacheDir = opts.cacheDir
	}
	if changed(cmd, "max-redirects") {
		cfg.MaxRedirects = opts.maxRedirects
	}
	if changed(cmd, "timeout") {
		cfg.Timeout = opts.timeout
	}
	if changed(cmd, "retries") {
		cfg.Retries = opts.retries
	}
	if changed(cmd, "user-agent") {
		cfg.UserAgent = opts.userAgent
	}
	return cfg, cfg.validate()
}
