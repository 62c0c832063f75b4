package files

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/GameShelf/internal/domain/catalog"
	"github.com/GriffinCanCode/GameShelf/internal/providers/http/client"
)

type fakeGetter struct {
	bodies map[string]string
	calls  []string
}

func (g *fakeGetter) Get(_ context.Context, rawURL string) ([]byte, error) {
	g.calls = append(g.calls, rawURL)
	body, ok := g.bodies[rawURL]
	if !ok {
		return nil, &client.StatusError{URL: rawURL, Code: http.StatusNotFound}
	}
	return []byte(body), nil
}

func TestFetch_DescriptorWithPages(t *testing.T) {
	g := &fakeGetter{bodies: map[string]string{
		"https://example.com/game.json": `{
			"name": "Mahjong",
			"allCardsUrl": "https://example.com/cards",
			"allCardsUrlPageCount": 2,
			"allCardsUrlPageCountStartIndex": 1,
			"allCardsUrlPageIdentifier": "?p="
		}`,
		"https://example.com/cards?p=1": `{"cards":[{"id":1}]}`,
		"https://example.com/cards?p=2": `{"cards":[{"id":2},{"id":3}]}`,
	}}
	dir := t.TempDir()

	desc, err := NewDownloader(g, nil).Fetch(context.Background(), "https://example.com/game.json", dir)
	require.NoError(t, err)
	assert.Equal(t, "Mahjong", desc.Name)
	assert.FileExists(t, filepath.Join(dir, "game.json"))
	assert.FileExists(t, filepath.Join(dir, "AllCards1.json"))
	assert.FileExists(t, filepath.Join(dir, "AllCards2.json"))
	assert.Len(t, g.calls, 3)
}

func TestFetch_SinglePageUsesBareURL(t *testing.T) {
	g := &fakeGetter{bodies: map[string]string{
		"https://example.com/g.json":   `{"name":"One","allCardsUrl":"https://example.com/all.json","allCardsUrlWrapper":"data"}`,
		"https://example.com/all.json": `{"data":[]}`,
	}}
	dir := t.TempDir()

	_, err := NewDownloader(g, nil).Fetch(context.Background(), "https://example.com/g.json", dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "AllCards0.json"))
}

func TestFetch_YAMLDescriptor(t *testing.T) {
	g := &fakeGetter{bodies: map[string]string{
		"https://example.com/poker.yml": "name: Poker\nautoUpdate: 7\n",
	}}
	dir := t.TempDir()

	desc, err := NewDownloader(g, nil).Fetch(context.Background(), "https://example.com/poker.yml", dir)
	require.NoError(t, err)
	assert.Equal(t, "Poker", desc.Name)
	assert.Equal(t, 7, desc.AutoUpdate)
	assert.FileExists(t, filepath.Join(dir, "game.yaml"))
}

func TestFetch_ArchiveBundle(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range map[string]string{
		"solitaire/game.json":      `{"name":"Solitaire"}`,
		"solitaire/AllCards0.json": `[{"id":"AS"}]`,
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	g := &fakeGetter{bodies: map[string]string{"https://example.com/solitaire.zip": buf.String()}}
	dir := t.TempDir()

	desc, err := NewDownloader(g, nil).Fetch(context.Background(), "https://example.com/solitaire.zip", dir)
	require.NoError(t, err)
	assert.Equal(t, "Solitaire", desc.Name)
	assert.FileExists(t, filepath.Join(dir, "AllCards0.json"))
}

func TestFetch_Errors(t *testing.T) {
	tests := []struct {
		name   string
		bodies map[string]string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "descriptor missing",
			bodies: map[string]string{},
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, client.ErrStatus))
			},
		},
		{
			name:   "malformed descriptor",
			bodies: map[string]string{"https://example.com/g.json": `{"name":`},
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "parse game.json")
			},
		},
		{
			name: "malformed page",
			bodies: map[string]string{
				"https://example.com/g.json": `{"name":"X","allCardsUrl":"https://example.com/c"}`,
				"https://example.com/c":      `<html></html>`,
			},
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "page 0")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDownloader(&fakeGetter{bodies: tt.bodies}, nil).
				Fetch(context.Background(), "https://example.com/g.json", t.TempDir())
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestFetch_OverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/game.json":
			_, _ = w.Write([]byte(`{"name":"Served","allCardsUrl":"` + "http://" + r.Host + `/cards"}`))
		case "/cards":
			_, _ = w.Write([]byte(`[{"id":1},{"id":2}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	d := NewDownloader(client.New(client.DefaultConfig(), nil), nil)
	desc, err := d.Fetch(context.Background(), srv.URL+"/game.json", dir)
	require.NoError(t, err)
	assert.Equal(t, "Served", desc.Name)

	data, err := os.ReadFile(filepath.Join(dir, "AllCards0.json"))
	require.NoError(t, err)
	n, err := catalog.CountCards(data, desc.Wrapper())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
