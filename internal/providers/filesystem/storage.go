package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charlievieth/fastwalk"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/GameShelf/internal/shared/paths"
)

// ErrNoDefaults is returned by CopyDefaults when no default set is bundled.
var ErrNoDefaults = errors.New("no default game set bundled")

// Disk stores packages as directories under a games root.
type Disk struct {
	root     string
	defaults string
	log      *zap.Logger
}

// NewDisk creates storage rooted at root. defaults is the directory holding
// the bundled default set; it may be empty.
func NewDisk(root, defaults string, log *zap.Logger) *Disk {
	if log == nil {
		log = zap.NewNop()
	}
	return &Disk{root: filepath.Clean(root), defaults: defaults, log: log}
}

// Root returns the games root.
func (d *Disk) Root() string {
	return d.root
}

// ListPackages returns the names of package directories in the root.
func (d *Disk) ListPackages() ([]string, error) {
	entries, err := os.ReadDir(d.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", d.root, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() && !paths.IsHidden(e.Name()) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// RemoveAll deletes a package directory. Only direct children of the root
// can be removed.
func (d *Disk) RemoveAll(dir string) error {
	clean := filepath.Clean(dir)
	if filepath.Dir(clean) != d.root {
		return fmt.Errorf("refusing to remove %s: not a package directory", dir)
	}
	if _, err := os.Stat(clean); err != nil {
		return err
	}
	return os.RemoveAll(clean)
}

// SeedDefaults copies the bundled default set into the root.
func (d *Disk) SeedDefaults() (int, error) {
	n, err := d.CopyDefaults(context.Background())
	if errors.Is(err, ErrNoDefaults) {
		return 0, nil
	}
	return n, err
}

// CopyDefaults copies every package directory of the default set and returns
// how many were copied.
func (d *Disk) CopyDefaults(ctx context.Context) (int, error) {
	if d.defaults == "" {
		return 0, ErrNoDefaults
	}
	entries, err := os.ReadDir(d.defaults)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, ErrNoDefaults
	}
	if err != nil {
		return 0, fmt.Errorf("read defaults: %w", err)
	}

	count := 0
	for _, e := range entries {
		if !e.IsDir() || paths.IsHidden(e.Name()) {
			continue
		}
		if err := CopyTree(ctx, filepath.Join(d.defaults, e.Name()), filepath.Join(d.root, e.Name())); err != nil {
			return count, err
		}
		count++
	}
	if count == 0 {
		return 0, ErrNoDefaults
	}
	d.log.Info("Copied default game set", zap.String("from", d.defaults), zap.Int("packages", count))
	return count, nil
}

// Stage creates a uniquely named scratch directory inside the root. Staging
// directories are hidden from ListPackages.
func (d *Disk) Stage() (string, error) {
	dir := filepath.Join(d.root, paths.StagingPrefix+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}
	return dir, nil
}

// Install replaces dir with staging.
func (d *Disk) Install(staging, dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clear %s: %w", filepath.Base(dir), err)
	}
	if err := os.Rename(staging, dir); err != nil {
		return fmt.Errorf("install %s: %w", filepath.Base(dir), err)
	}
	return nil
}

// Discard removes a staging directory.
func (d *Disk) Discard(staging string) {
	if err := os.RemoveAll(staging); err != nil {
		d.log.Warn("Failed to remove staging dir", zap.String("dir", staging), zap.Error(err))
	}
}

// CleanStaging removes staging directories left behind by an interrupted run.
func (d *Disk) CleanStaging() int {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return 0
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), paths.StagingPrefix) {
			d.Discard(filepath.Join(d.root, e.Name()))
			removed++
		}
	}
	return removed
}

// CopyTree copies the regular files and directories under src into dst.
func CopyTree(ctx context.Context, src, dst string) error {
	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, src, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case de.IsDir():
			return os.MkdirAll(target, 0o755)
		case de.Type().IsRegular():
			in, err := os.Open(path)
			if err != nil {
				return err
			}
			defer in.Close()
			_, err = writeFile(target, in, maxExtractBytes)
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return nil
}
