package http

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/GameShelf/internal/domain/catalog"
	"github.com/GriffinCanCode/GameShelf/internal/domain/registry"
	"github.com/GriffinCanCode/GameShelf/internal/domain/surface"
	"github.com/GriffinCanCode/GameShelf/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/GameShelf/internal/prefs"
	"github.com/GriffinCanCode/GameShelf/internal/providers/filesystem"
	"github.com/GriffinCanCode/GameShelf/internal/scheduler"
	"github.com/GriffinCanCode/GameShelf/internal/shared/paths"
)

type fetcherFunc func(ctx context.Context, source, dir string) (*catalog.Descriptor, error)

func (f fetcherFunc) Fetch(ctx context.Context, source, dir string) (*catalog.Descriptor, error) {
	return f(ctx, source, dir)
}

type testServer struct {
	t        *testing.T
	router   *gin.Engine
	loop     *scheduler.Loop
	manager  *registry.Manager
	selector *surface.Selector
	root     string
}

func newTestServer(t *testing.T, packages ...string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	root := t.TempDir()
	for _, name := range packages {
		dir := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, paths.DescriptorJSON), []byte(`{"name":"`+name+`"}`), 0o644))
		require.NoError(t, os.WriteFile(paths.Page(dir, 0), []byte(`[{"id":1},{"id":2}]`), 0o644))
	}

	loop := scheduler.New(nil)
	selector := surface.NewSelector()
	manager := registry.NewManager(registry.Options{
		Loop:    loop,
		Storage: filesystem.NewDisk(root, "", nil),
		Fetcher: fetcherFunc(func(context.Context, string, string) (*catalog.Descriptor, error) {
			return nil, errors.New("offline")
		}),
		Prefs:    prefs.NewMemory(),
		Selector: selector,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = loop.Run(ctx) }()
	t.Cleanup(cancel)

	router := gin.New()
	NewHandlers(Options{
		Manager:  manager,
		Selector: selector,
		Breakers: func() map[string]resilience.State {
			return map[string]resilience.State{"cards.example": resilience.StateOpen}
		},
	}).Register(router)

	s := &testServer{t: t, router: router, loop: loop, manager: manager, selector: selector, root: root}
	manager.Start()
	s.settle()
	return s
}

func (s *testServer) settle() {
	s.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(s.t, s.loop.Settle(ctx))
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	s.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.settle()
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (s *testServer) currentID() string {
	s.t.Helper()
	w := s.do(http.MethodGet, "/packages/current", "")
	require.Equal(s.t, http.StatusOK, w.Code)
	return decode(s.t, w)["id"].(string)
}

func (s *testServer) modalText() string {
	s.t.Helper()
	body := decode(s.t, s.do(http.MethodGet, "/modal", ""))
	if body["visible"] != true {
		return ""
	}
	return body["message"].(map[string]interface{})["text"].(string)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "Alpha")

	w := s.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])
}

func TestListPackages(t *testing.T) {
	s := newTestServer(t, "Beta", "Alpha")

	w := s.do(http.MethodGet, "/packages", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "Alpha", body["current"])
	assert.EqualValues(t, 2, body["count"])
	pkgs := body["packages"].([]interface{})
	assert.Equal(t, "Alpha", pkgs[0].(map[string]interface{})["id"])
	assert.Equal(t, "Beta", pkgs[1].(map[string]interface{})["id"])
}

func TestGetPackage(t *testing.T) {
	s := newTestServer(t, "Alpha")

	w := s.do(http.MethodGet, "/packages/Alpha", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["loaded"])
	assert.EqualValues(t, 2, body["card_count"])
	assert.NotContains(t, body, "Dir")

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/packages/Nope", "").Code)
}

func TestAdjacentSelection(t *testing.T) {
	s := newTestServer(t, "Alpha", "Beta")

	assert.Equal(t, http.StatusAccepted, s.do(http.MethodPost, "/packages/next", "").Code)
	assert.Equal(t, "Beta", s.currentID())

	s.do(http.MethodPost, "/packages/next", "")
	assert.Equal(t, "Alpha", s.currentID())

	s.do(http.MethodPost, "/packages/previous", "")
	assert.Equal(t, "Beta", s.currentID())
}

func TestSelectPackage(t *testing.T) {
	s := newTestServer(t, "Alpha", "Beta")

	w := s.do(http.MethodPost, "/packages/select", `{"id":"Beta"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "Beta", s.currentID())

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/packages/select", `{}`).Code)
}

func TestSelectUnknownOpensSelector(t *testing.T) {
	s := newTestServer(t, "Alpha")

	s.do(http.MethodPost, "/packages/select", `{"id":"Unknown"}`)

	assert.Equal(t, registry.MsgSelectionError, s.modalText())
	assert.Equal(t, "Alpha", s.currentID())

	status := decode(t, s.do(http.MethodGet, "/status", ""))
	surf := status["surface"].(map[string]interface{})
	assert.Equal(t, true, surf["selector_open"])
	assert.Equal(t, map[string]interface{}{"cards.example": "open"}, status["breakers"])

	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, "/selector/close", "").Code)
	open, _ := s.selector.IsOpen()
	assert.False(t, open)
}

func TestFetchFailureIsReported(t *testing.T) {
	s := newTestServer(t, "Alpha")

	s.do(http.MethodPost, "/packages/select", `{"id":"https://cards.example/g.json"}`)

	assert.Equal(t, registry.MsgDownloadError+"offline", s.modalText())
	assert.Equal(t, "Alpha", s.currentID())
}

func TestDeleteCurrent(t *testing.T) {
	s := newTestServer(t, "Alpha", "Beta")

	assert.Equal(t, http.StatusAccepted, s.do(http.MethodDelete, "/packages/current", "").Code)

	assert.Equal(t, "Beta", s.currentID())
	assert.NoDirExists(t, filepath.Join(s.root, "Alpha"))
}

func TestResetPackage(t *testing.T) {
	s := newTestServer(t, "Alpha", "Beta")
	s.do(http.MethodPost, "/packages/next", "")
	require.Equal(t, "Beta", s.currentID())

	// The preference follows the selection, so reset keeps Beta.
	s.do(http.MethodPost, "/packages/reset", "")
	assert.Equal(t, "Beta", s.currentID())
}

func TestUpdatePackage(t *testing.T) {
	s := newTestServer(t, "Alpha")

	// Local packages have no source; update is a no-op.
	assert.Equal(t, http.StatusAccepted, s.do(http.MethodPost, "/packages/Alpha/update", "").Code)
	assert.Equal(t, http.StatusAccepted, s.do(http.MethodPost, "/packages/current/update", "").Code)
	assert.Empty(t, s.modalText())

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/packages/Nope/update", "").Code)
}

func TestLink(t *testing.T) {
	s := newTestServer(t, "Alpha", "Beta")

	s.do(http.MethodGet, "/link?GameId=Beta", "")
	assert.Equal(t, "Beta", s.currentID())

	s.do(http.MethodGet, "/link?error=denied", "")
	assert.Equal(t, registry.MsgLinkError+"denied", s.modalText())
}

func TestModalFlow(t *testing.T) {
	s := newTestServer(t, "Alpha")

	w := s.do(http.MethodPost, "/modal/messages", `{"text":"first"}`)
	require.Equal(t, http.StatusOK, w.Code)
	s.do(http.MethodPost, "/modal/messages", `{"text":"second"}`)
	s.do(http.MethodPost, "/modal/messages", `{"text":"first"}`)

	body := decode(t, s.do(http.MethodGet, "/modal", ""))
	assert.Equal(t, true, body["visible"])
	assert.EqualValues(t, 1, body["pending"])
	msg := body["message"].(map[string]interface{})
	assert.Equal(t, "first", msg["text"])
	assert.Equal(t, "Close", msg["dismiss_label"])

	// The first frame after a message appears is swallowed.
	body = decode(t, s.do(http.MethodPost, "/modal/input", `{"input":"submit"}`))
	assert.Equal(t, false, body["handled"])
	body = decode(t, s.do(http.MethodPost, "/modal/input", `{"input":"submit"}`))
	assert.Equal(t, true, body["handled"])
	assert.Equal(t, "second", s.modalText())

	s.do(http.MethodPost, "/modal/close", "")
	assert.Empty(t, s.modalText())

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/modal/input", `{"input":"jump"}`).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/modal/messages", `{}`).Code)
}

func TestModalButtonsRunActions(t *testing.T) {
	s := newTestServer(t, "Alpha", "Beta")

	// Corrupt Beta, then select it to raise the repair prompt.
	require.NoError(t, os.WriteFile(filepath.Join(s.root, "Beta", paths.DescriptorJSON), []byte("{broken"), 0o644))
	s.do(http.MethodPost, "/packages/select", `{"id":"Beta"}`)

	body := decode(t, s.do(http.MethodGet, "/modal", ""))
	msg := body["message"].(map[string]interface{})
	require.Equal(t, registry.MsgLoadPrompt, msg["text"])
	assert.Equal(t, true, msg["has_yes"])
	assert.Equal(t, "Cancel", msg["dismiss_label"])

	s.do(http.MethodPost, "/modal/yes", "")

	assert.NoDirExists(t, filepath.Join(s.root, "Beta"))
	assert.Equal(t, "Alpha", s.currentID())
}

func TestExportPackage(t *testing.T) {
	s := newTestServer(t, "Alpha")

	w := s.do(http.MethodGet, "/packages/Alpha/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `Alpha.zip`)

	data := w.Body.Bytes()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{paths.DescriptorJSON, "AllCards0.json"}, names)

	w = s.do(http.MethodGet, "/packages/Alpha/export?format=tgz", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, filesystem.KindTarGzip, filesystem.Detect(w.Body.Bytes()))

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/packages/Alpha/export?format=rar", "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/packages/Nope/export", "").Code)
}

func TestStreamLogs(t *testing.T) {
	s := newTestServer(t, "Alpha")

	w := s.do(http.MethodPost, "/logs", `{"source":"ui","entries":[{"level":"error","message":"render failed","context":{"view":"table"}}]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["entries_processed"])

	// Front-end errors stay out of the modal queue.
	assert.Empty(t, s.modalText())

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/logs", `{"entries":[]}`).Code)
}
