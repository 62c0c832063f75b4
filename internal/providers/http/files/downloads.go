package files

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/GameShelf/internal/domain/catalog"
	"github.com/GriffinCanCode/GameShelf/internal/providers/filesystem"
	"github.com/GriffinCanCode/GameShelf/internal/shared/paths"
)

// Getter downloads a URL.
type Getter interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
}

// Downloader fetches a game bundle: a descriptor or an archive, plus the
// content pages the descriptor points at.
type Downloader struct {
	client Getter
	log    *zap.Logger
}

// NewDownloader creates a downloader over client.
func NewDownloader(client Getter, log *zap.Logger) *Downloader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Downloader{client: client, log: log}
}

// Fetch downloads the bundle published at source into dir and returns its
// descriptor.
func (d *Downloader) Fetch(ctx context.Context, source, dir string) (*catalog.Descriptor, error) {
	job := uuid.NewString()
	log := d.log.With(zap.String("job", job), zap.String("source", source))

	body, err := d.client.Get(ctx, source)
	if err != nil {
		return nil, err
	}

	desc, err := d.install(ctx, source, body, dir)
	if err != nil {
		return nil, err
	}
	log.Debug("Bundle installed", zap.String("name", desc.Name), zap.Int("bytes", len(body)))

	if desc.Remote() {
		n, err := d.fetchPages(ctx, desc, dir)
		if err != nil {
			return nil, err
		}
		log.Debug("Content pages fetched", zap.Int("pages", n))
	}
	return desc, nil
}

// install writes body into dir: archives are extracted, anything else is
// stored as the descriptor.
func (d *Downloader) install(ctx context.Context, source string, body []byte, dir string) (*catalog.Descriptor, error) {
	if kind := filesystem.Detect(body); kind != filesystem.KindNone {
		if _, err := filesystem.Extract(ctx, body, kind, dir); err != nil {
			return nil, fmt.Errorf("extract %s: %w", kind, err)
		}
		desc, _, err := catalog.ReadDescriptor(dir)
		if err != nil {
			return nil, err
		}
		return desc, nil
	}

	format := descriptorFormat(source, body)
	desc, err := catalog.ParseDescriptor(body, format)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(dir, format.FileName()), body, 0o644); err != nil {
		return nil, fmt.Errorf("write descriptor: %w", err)
	}
	return desc, nil
}

// fetchPages downloads every content page not already present in dir.
func (d *Downloader) fetchPages(ctx context.Context, desc *catalog.Descriptor, dir string) (int, error) {
	start, count := desc.Pages()
	fetched := 0
	for page := start; page < start+count; page++ {
		target := paths.Page(dir, page)
		if _, err := os.Stat(target); err == nil {
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fetched, err
		}

		pageURL := desc.PageURL(page)
		body, err := d.client.Get(ctx, pageURL)
		if err != nil {
			return fetched, fmt.Errorf("page %d: %w", page, err)
		}
		if _, err := catalog.CountCards(body, desc.Wrapper()); err != nil {
			return fetched, fmt.Errorf("page %d: %w", page, err)
		}
		if err := os.WriteFile(target, body, 0o644); err != nil {
			return fetched, fmt.Errorf("page %d: %w", page, err)
		}
		fetched++
	}
	return fetched, nil
}

// descriptorFormat picks YAML for .yaml/.yml sources and for bodies that do
// not look like JSON.
func descriptorFormat(source string, body []byte) catalog.Format {
	if u, err := url.Parse(source); err == nil {
		switch strings.ToLower(path.Ext(u.Path)) {
		case ".yaml", ".yml":
			return catalog.FormatYAML
		case ".json":
			return catalog.FormatJSON
		}
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return catalog.FormatJSON
	}
	return catalog.FormatYAML
}
