package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkfile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestDisk_ListPackages(t *testing.T) {
	root := t.TempDir()
	d := NewDisk(root, "", nil)

	mkfile(t, filepath.Join(root, "B", "game.json"), "{}")
	mkfile(t, filepath.Join(root, "A", "game.json"), "{}")
	mkfile(t, filepath.Join(root, "loose.txt"), "x")
	staging, err := d.Stage()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(staging), ".staging-"))

	names, err := d.ListPackages()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "B"}, names)
}

func TestDisk_ListMissingRoot(t *testing.T) {
	d := NewDisk(filepath.Join(t.TempDir(), "absent"), "", nil)
	names, err := d.ListPackages()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestDisk_RemoveAll(t *testing.T) {
	root := t.TempDir()
	d := NewDisk(root, "", nil)
	mkfile(t, filepath.Join(root, "A", "game.json"), "{}")

	require.NoError(t, d.RemoveAll(filepath.Join(root, "A")))
	assert.NoDirExists(t, filepath.Join(root, "A"))

	assert.Error(t, d.RemoveAll(filepath.Join(root, "A")), "missing package")
	assert.Error(t, d.RemoveAll(root), "root itself")
	assert.Error(t, d.RemoveAll(filepath.Dir(root)), "outside root")
}

func TestDisk_StageInstallReplaces(t *testing.T) {
	root := t.TempDir()
	d := NewDisk(root, "", nil)
	target := filepath.Join(root, "Game")
	mkfile(t, filepath.Join(target, "old.json"), "old")

	staging, err := d.Stage()
	require.NoError(t, err)
	mkfile(t, filepath.Join(staging, "game.json"), "new")

	require.NoError(t, d.Install(staging, target))
	assert.NoDirExists(t, staging)
	assert.FileExists(t, filepath.Join(target, "game.json"))
	assert.NoFileExists(t, filepath.Join(target, "old.json"))
}

func TestDisk_CleanStaging(t *testing.T) {
	root := t.TempDir()
	d := NewDisk(root, "", nil)
	_, err := d.Stage()
	require.NoError(t, err)
	_, err = d.Stage()
	require.NoError(t, err)

	assert.Equal(t, 2, d.CleanStaging())
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDisk_SeedDefaults(t *testing.T) {
	defaults := t.TempDir()
	mkfile(t, filepath.Join(defaults, "Standard", "game.json"), `{"name":"Standard"}`)
	mkfile(t, filepath.Join(defaults, "Standard", "AllCards0.json"), `[]`)
	mkfile(t, filepath.Join(defaults, "Mahjong", "game.json"), `{"name":"Mahjong"}`)
	mkfile(t, filepath.Join(defaults, "README.md"), "ignored")

	root := filepath.Join(t.TempDir(), "games")
	d := NewDisk(root, defaults, nil)

	n, err := d.SeedDefaults()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.FileExists(t, filepath.Join(root, "Standard", "AllCards0.json"))
	assert.FileExists(t, filepath.Join(root, "Mahjong", "game.json"))
	assert.NoFileExists(t, filepath.Join(root, "README.md"))
}

func TestDisk_NoDefaults(t *testing.T) {
	d := NewDisk(t.TempDir(), filepath.Join(t.TempDir(), "absent"), nil)

	_, err := d.CopyDefaults(context.Background())
	assert.ErrorIs(t, err, ErrNoDefaults)

	n, err := d.SeedDefaults()
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = NewDisk(t.TempDir(), "", nil).SeedDefaults()
	require.NoError(t, err)
	assert.Zero(t, n)
}
