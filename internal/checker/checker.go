// Package checker implements the asynchronous update availability check: one
// background fetch of a remote version descriptor, a segment-wise comparison
// against the running version, and a memoized outcome that any number of
// callers can poll without ever blocking on network I/O.
package checker

import (
	"context"
	"sync/atomic"

	"github.com/a-marczewski/upcheck/internal/descriptor"
	"github.com/a-marczewski/upcheck/internal/version"
	"go.uber.org/zap"
)

// State is the verdict of a completed check.
type State int

const (
	// StateNoUpdate means the remote version is not newer, or the check failed.
	StateNoUpdate State = iota
	// StateUpdateAvailable means the remote descriptor advertises a newer version.
	StateUpdateAvailable
)

// Outcome is the memoized result of a completed check. RemoteVersion is set
// whenever the descriptor was fetched and parsed, even when no update is
// needed; it stays empty when the check failed before parsing one.
type Outcome struct {
	State         State
	RemoteVersion string
}

// Config carries the immutable parameters of one check. Permission and header
// are not interpreted here; they pass through to whatever notification hook
// the host wires up.
type Config struct {
	DescriptorURL string
	Format        descriptor.Format
	LocalVersion  string
	AppName       string
	DownloadURL   string
	Permission    string
	MessageHeader string
}

// Checker owns a single-shot background check. The outcome cell is written
// exactly once by the background goroutine and read by any caller; the atomic
// pointer swap of an immutable Outcome gives readers either "not finished yet"
// or the fully formed result, never a torn intermediate.
type Checker struct {
	cfg        Config
	client     *descriptor.Client
	logger     *zap.Logger
	onComplete func(Outcome, error)

	started atomic.Bool
	outcome atomic.Pointer[Outcome]
	done    chan struct{}
}

// New creates a Checker. onComplete, if non-nil, is invoked once from the
// background goroutine after the outcome is stored; it receives the error the
// check failed with, if any.
func New(cfg Config, client *descriptor.Client, logger *zap.Logger, onComplete func(Outcome, error)) *Checker {
	return &Checker{
		cfg:        cfg,
		client:     client,
		logger:     logger,
		onComplete: onComplete,
		done:       make(chan struct{}),
	}
}

// Start launches the background check and returns immediately. Only the first
// call does anything; at most one fetch/parse/compare cycle ever runs per
// Checker.
func (c *Checker) Start() {
	if !c.started.CompareAndSwap(false, true) {
		c.logger.Debug("update check already started")
		return
	}
	go c.run()
}

// IsUpdateAvailable reports whether a newer remote version is known. It never
// blocks: before the background check completes, and after a failed check, it
// reports false.
func (c *Checker) IsUpdateAvailable() bool {
	out := c.outcome.Load()
	return out != nil && out.State == StateUpdateAvailable
}

// RemoteVersion returns the version parsed from the remote descriptor. The
// second return is false until the background check has fetched one.
func (c *Checker) RemoteVersion() (string, bool) {
	out := c.outcome.Load()
	if out == nil || out.RemoteVersion == "" {
		return "", false
	}
	return out.RemoteVersion, true
}

// Done returns a channel that is closed when the background check completes.
// It exists for foreground callers like the check command; event-path callers
// should stick to the non-blocking accessors.
func (c *Checker) Done() <-chan struct{} {
	return c.done
}

// run is the single background unit of work. Every failure mode, panics
// included, collapses to "no update" plus one logged error; nothing crosses
// the goroutine boundary into the host.
func (c *Checker) run() {
	defer close(c.done)
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("update check panicked", zap.Any("panic", r))
			c.outcome.CompareAndSwap(nil, &Outcome{State: StateNoUpdate})
		}
	}()

	c.logger.Info("checking for update",
		zap.String("app", c.cfg.AppName),
		zap.String("url", c.cfg.DescriptorURL))

	out, err := c.check(context.Background())
	if err != nil {
		c.logger.Error("update check failed",
			zap.String("app", c.cfg.AppName),
			zap.Error(err))
		out = Outcome{State: StateNoUpdate}
	}
	c.outcome.Store(&out)

	if out.State == StateUpdateAvailable {
		c.logger.Warn("update available",
			zap.String("version", out.RemoteVersion),
			zap.String("download", c.cfg.DownloadURL))
	}

	if c.onComplete != nil {
		c.onComplete(out, err)
	}
}

func (c *Checker) check(ctx context.Context) (Outcome, error) {
	remote, err := c.client.Fetch(ctx, c.cfg.DescriptorURL, c.cfg.Format)
	if err != nil {
		return Outcome{}, err
	}

	res, err := version.Compare(c.cfg.LocalVersion, remote)
	if err != nil {
		return Outcome{}, err
	}
	if res == version.Less {
		return Outcome{State: StateUpdateAvailable, RemoteVersion: remote}, nil
	}
	return Outcome{State: StateNoUpdate, RemoteVersion: remote}, nil
}
