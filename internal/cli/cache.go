package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/httpsvendor/pkg/cache"
	"github.com/matzehuels/httpsvendor/pkg/errors"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the https: module cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear [dir]",
		Short: "Remove all cached modules and redirect aliases",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := projectCachePath(cmd, args)
			if err != nil {
				return err
			}

			if _, err := os.Stat(path); os.IsNotExist(err) {
				printInfo(c.Stderr, "Cache is empty")
				return nil
			}

			dir, err := cache.Open(path)
			if err != nil {
				return err
			}
			count, err := dir.Clear()
			if err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "clear %s", path)
			}

			printSuccess(c.Stderr, "Cleared %d cached entries", count)
			printDetail(c.Stderr, "Directory: %s", path)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path [dir]",
		Short: "Print the cache directory of a project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := projectCachePath(cmd, args)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.Stdout, path)
			return nil
		},
	}
}

// projectCachePath returns the cache directory of the project containing
// args[0], or the working directory when no argument is given. --config
// and --cache-dir apply as they do for a crawl.
func projectCachePath(cmd *cobra.Command, args []string) (string, error) {
	start := "."
	if len(args) == 1 {
		start = args[0]
	}
	layout, err := cache.Locate(start)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "locate project root from %s", start)
	}

	opts := &vendorOptions{}
	if f := cmd.Flag("config"); f != nil {
		opts.config = f.Value.String()
	}
	if f := cmd.Flag("cache-dir"); f != nil {
		opts.cacheDir = f.Value.String()
	}
	cfg, err := resolveConfig(cmd, opts, layout.Root)
	if err != nil {
		return "", err
	}
	return cfg.cachePath(layout.Root), nil
}
