package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/GameShelf/internal/domain/registry"
	"github.com/GriffinCanCode/GameShelf/internal/infrastructure/config"
	"github.com/GriffinCanCode/GameShelf/internal/infrastructure/logging"
	"github.com/GriffinCanCode/GameShelf/internal/prefs"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	dir := t.TempDir()
	cfg.Storage.GamesDir = filepath.Join(dir, "games")
	cfg.Storage.PrefsPath = filepath.Join(dir, "prefs.toml")
	cfg.Loading.FrameInterval = time.Hour
	cfg.RateLimit.Enabled = false
	cfg.Server.Port = "0"
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.ShutdownTimeout = time.Second
	return cfg
}

// testLogger records entries in memory. Its core is enabled, so hooks fire.
func testLogger() *logging.Logger {
	core, _ := observer.New(zapcore.DebugLevel)
	return &logging.Logger{Logger: zap.New(core)}
}

func startServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	srv, err := NewServer(cfg, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := srv.start(ctx)
	t.Cleanup(func() {
		cancel()
		<-done
		srv.tracer.Close()
	})

	settleCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	require.NoError(t, srv.loop.Settle(settleCtx))
	return srv
}

func get(t *testing.T, srv *Server, path string) (int, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]interface{}
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w.Code, body
}

func TestServerSeedsAndServesCatalog(t *testing.T) {
	cfg := testConfig(t)
	srv := startServer(t, cfg)

	code, body := get(t, srv, "/packages")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Standard", body["current"])

	code, body = get(t, srv, "/packages/current")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 52, body["card_count"])

	// The preference file records the activation.
	store, err := prefs.Open(cfg.Storage.PrefsPath, nil)
	require.NoError(t, err)
	assert.Equal(t, "Standard", store.GetString(registry.PrefDefaultGame))
}

func TestServerMetricsEndpoint(t *testing.T) {
	srv := startServer(t, testConfig(t))
	get(t, srv, "/health")

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "gameshelf_packages 1")
	assert.Contains(t, w.Body.String(), `gameshelf_activations_total{outcome="ok"}`)
}

func TestServerSurfacesErrorLogs(t *testing.T) {
	cfg := testConfig(t)
	cfg.Logging.Surface = true
	srv := startServer(t, cfg)

	srv.logger.Error("disk unplugged")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.loop.Settle(ctx))

	code, body := get(t, srv, "/modal")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["visible"])
	assert.Equal(t, "disk unplugged", body["message"].(map[string]interface{})["text"])
}

func TestServerSurfacesBrokenPackageOnce(t *testing.T) {
	cfg := testConfig(t)
	cfg.Logging.Surface = true
	broken := filepath.Join(cfg.Storage.GamesDir, "Broken")
	require.NoError(t, os.MkdirAll(broken, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(broken, "game.json"), []byte("{broken"), 0o644))

	srv := startServer(t, cfg)

	code, body := get(t, srv, "/modal")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["visible"])
	assert.Equal(t, registry.MsgLoadPrompt, body["message"].(map[string]interface{})["text"])
	assert.EqualValues(t, 0, body["pending"])
}

func TestServerRunStopsOnCancel(t *testing.T) {
	srv, err := NewServer(testConfig(t), testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
