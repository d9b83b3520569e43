package checker

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/a-marczewski/upcheck/internal/descriptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestChecker(t *testing.T, url, localVersion string, onComplete func(Outcome, error)) (*Checker, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	cfg := Config{
		DescriptorURL: url,
		Format:        descriptor.FormatXML,
		LocalVersion:  localVersion,
		AppName:       "demo",
		DownloadURL:   "https://example.com/download",
	}
	return New(cfg, descriptor.NewClient(5*time.Second), zap.New(core), onComplete), logs
}

func pomHandler(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<project><version>" + version + "</version></project>"))
	}
}

func TestCheckerUpdateAvailable(t *testing.T) {
	srv := httptest.NewServer(pomHandler("2.0"))
	defer srv.Close()

	done := make(chan Outcome, 1)
	chk, logs := newTestChecker(t, srv.URL, "1.2", func(out Outcome, err error) {
		require.NoError(t, err)
		done <- out
	})

	chk.Start()
	out := <-done
	assert.Equal(t, StateUpdateAvailable, out.State)

	<-chk.Done()
	// The verdict is memoized and stable across repeated polls.
	for i := 0; i < 3; i++ {
		assert.True(t, chk.IsUpdateAvailable())
		remote, ok := chk.RemoteVersion()
		require.True(t, ok)
		assert.Equal(t, "2.0", remote)
	}

	assert.Equal(t, 1, logs.FilterMessage("checking for update").Len())
	assert.Equal(t, 1, logs.FilterMessage("update available").Len())
	assert.Equal(t, 0, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestCheckerNoUpdate(t *testing.T) {
	tests := []struct {
		name   string
		local  string
		remote string
	}{
		{"same version", "1.4.0", "1.4.0"},
		{"local newer", "1.2", "1.1.1"},
		{"local extends equal prefix", "1.2.0", "1.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(pomHandler(tt.remote))
			defer srv.Close()

			chk, logs := newTestChecker(t, srv.URL, tt.local, nil)
			chk.Start()
			<-chk.Done()

			assert.False(t, chk.IsUpdateAvailable())
			remote, ok := chk.RemoteVersion()
			require.True(t, ok)
			assert.Equal(t, tt.remote, remote)
			assert.Equal(t, 0, logs.FilterLevelExact(zapcore.WarnLevel).Len())
		})
	}
}

func TestCheckerNonBlockingWhileRunning(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		pomHandler("9.9")(w, r)
	}))
	defer srv.Close()

	chk, _ := newTestChecker(t, srv.URL, "1.0", nil)
	chk.Start()

	// Concurrent callers racing the in-flight fetch must observe "no update"
	// immediately, without blocking or panicking.
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.False(t, chk.IsUpdateAvailable())
				_, ok := chk.RemoteVersion()
				assert.False(t, ok)
			}
		}()
	}
	wg.Wait()

	close(release)
	<-chk.Done()
	assert.True(t, chk.IsUpdateAvailable())
}

func TestCheckerNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	done := make(chan error, 1)
	chk, logs := newTestChecker(t, srv.URL, "1.0", func(out Outcome, err error) {
		assert.Equal(t, StateNoUpdate, out.State)
		done <- err
	})
	chk.Start()
	require.ErrorIs(t, <-done, descriptor.ErrNetwork)

	<-chk.Done()
	for i := 0; i < 3; i++ {
		assert.False(t, chk.IsUpdateAvailable())
		_, ok := chk.RemoteVersion()
		assert.False(t, ok)
	}

	// The failure is logged exactly once, not on every poll.
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestCheckerMalformedVersion(t *testing.T) {
	srv := httptest.NewServer(pomHandler("2.0-SNAPSHOT"))
	defer srv.Close()

	chk, logs := newTestChecker(t, srv.URL, "1.0", nil)
	chk.Start()
	<-chk.Done()

	assert.False(t, chk.IsUpdateAvailable())
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestCheckerStartIsIdempotent(t *testing.T) {
	var calls int
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		pomHandler("2.0")(w, r)
	}))
	defer srv.Close()

	chk, _ := newTestChecker(t, srv.URL, "1.0", nil)
	chk.Start()
	chk.Start()
	chk.Start()
	<-chk.Done()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}
