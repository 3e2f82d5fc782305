// Package cli implements the httpsvendor command-line interface.
//
// The root command crawls an entry module, mirrors its https: imports into
// the project cache and writes the trust policy. The CLI is built using
// cobra and logs through charmbracelet/log.
//
// # Commands
//
//   - httpsvendor <entry> [policy-output]: crawl and write the policy
//   - cache path|clear [dir]: inspect or empty a project's module cache
//   - completion: shell completion scripts
//
// # Logging
//
// Each visited module is logged at info level. --verbose (-v) adds debug
// lines for skipped specifiers, HTTP round trips and cache writes. When
// stderr is a terminal and --verbose is off, a spinner replaces the
// per-module lines. Loggers are passed through context.Context.
//
// # Configuration
//
// Settings come from built-in defaults, then httpsvendor.toml in the
// project root (or --config), then HTTPSVENDOR_* variables from the
// environment or the project's .env file, then flags.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns a logger writing timestamped lines ("14:32:01.45") to w.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs the completion of an operation with its elapsed time.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Crawled 42 modules (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by withLogger, or
// log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// logHooks reports HTTP and cache events as debug lines.
type logHooks struct {
	logger *log.Logger
}

func (h logHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("request", "method", method, "host", host, "path", path)
}

func (h logHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "host", host, "path", path, "status", status, "took", d.Round(time.Millisecond))
}

func (h logHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("request failed", "method", method, "host", host, "path", path, "err", err)
}

func (h logHooks) OnCacheWrite(_ context.Context, slot string, size int) {
	h.logger.Debug("cached", "slot", slot, "bytes", size)
}

func (h logHooks) OnCacheAlias(_ context.Context, slot, target string) {
	h.logger.Debug("aliased", "slot", slot, "target", target)
}
