package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	available bool
	remote    string
}

func (s stubSource) IsUpdateAvailable() bool { return s.available }

func (s stubSource) RemoteVersion() (string, bool) { return s.remote, s.remote != "" }

type stubSession struct {
	name  string
	perms map[string]bool
}

func (s stubSession) Name() string { return s.name }

func (s stubSession) HasPermission(perm string) bool { return s.perms[perm] }

func testConfig() Config {
	return Config{
		AppName:     "demo",
		Header:      "[demo] ",
		Permission:  "demo.update.notify",
		DownloadURL: "https://example.com/download",
	}
}

func TestOnSessionStartNotifiesPermittedSession(t *testing.T) {
	var sent []string
	n := New(stubSource{available: true, remote: "2.0"}, testConfig(), func(recipient, message string) {
		sent = append(sent, recipient+": "+message)
	})

	session := stubSession{name: "ops", perms: map[string]bool{"demo.update.notify": true}}
	n.OnSessionStart(context.Background(), session)

	require.Len(t, sent, 1)
	assert.Equal(t, "ops: [demo] demo update available: v2.0. Download at https://example.com/download", sent[0])
}

func TestOnSessionStartSkipsWithoutPermission(t *testing.T) {
	var sent int
	n := New(stubSource{available: true, remote: "2.0"}, testConfig(), func(string, string) { sent++ })

	n.OnSessionStart(context.Background(), stubSession{name: "guest"})
	assert.Zero(t, sent)
}

func TestOnSessionStartSkipsWhileCheckPending(t *testing.T) {
	var sent int
	n := New(stubSource{}, testConfig(), func(string, string) { sent++ })

	session := stubSession{name: "ops", perms: map[string]bool{"demo.update.notify": true}}
	n.OnSessionStart(context.Background(), session)
	assert.Zero(t, sent)
}

func TestOnSessionStartEmptyPermissionNotifiesEveryone(t *testing.T) {
	cfg := testConfig()
	cfg.Permission = ""

	var sent int
	n := New(stubSource{available: true, remote: "2.0"}, cfg, func(string, string) { sent++ })

	n.OnSessionStart(context.Background(), stubSession{name: "guest"})
	assert.Equal(t, 1, sent)
}
