// Package notify is the host-side hook that surfaces an available update to a
// user session. It only reads the checker's non-blocking accessors, so calling
// it from an event path never waits on network I/O.
package notify

import (
	"context"
	"fmt"

	"github.com/a-marczewski/upcheck/internal/logging"
	"go.uber.org/zap"
)

// Source is the non-blocking view of a completed (or in-flight) update check.
// *checker.Checker satisfies it.
type Source interface {
	IsUpdateAvailable() bool
	RemoteVersion() (string, bool)
}

// Session is the user session that triggered the hook.
type Session interface {
	Name() string
	HasPermission(perm string) bool
}

// Config carries the message composition parameters.
type Config struct {
	AppName     string
	Header      string
	Permission  string
	DownloadURL string
}

// Notifier composes and delivers the update notice for permitted sessions.
type Notifier struct {
	source Source
	cfg    Config
	send   func(recipient, message string)
}

// New creates a Notifier. send receives the composed message for delivery;
// message transport is the host's business, not ours.
func New(source Source, cfg Config, send func(recipient, message string)) *Notifier {
	return &Notifier{
		source: source,
		cfg:    cfg,
		send:   send,
	}
}

// OnSessionStart notifies the session's user when an update is known to be
// available and the user holds the notification permission. If the background
// check has not finished yet the session is simply not notified.
func (n *Notifier) OnSessionStart(ctx context.Context, session Session) {
	if !n.source.IsUpdateAvailable() {
		return
	}
	if n.cfg.Permission != "" && !session.HasPermission(n.cfg.Permission) {
		return
	}
	remote, ok := n.source.RemoteVersion()
	if !ok {
		return
	}

	if logger, ok := logging.LoggerFromContext(ctx); ok {
		logger.Debug("notifying session of available update",
			zap.String("session", session.Name()),
			zap.String("version", remote))
	}
	n.send(session.Name(), n.Message(remote))
}

// Message composes the one-line update notice for the given remote version.
func (n *Notifier) Message(remote string) string {
	return fmt.Sprintf("%s%s update available: v%s. Download at %s",
		n.cfg.Header, n.cfg.AppName, remote, n.cfg.DownloadURL)
}
