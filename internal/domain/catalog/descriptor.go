package catalog

import (
	"errors"
	"fmt"
	"html"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/microcosm-cc/bluemonday"

	"github.com/GriffinCanCode/GameShelf/internal/shared/paths"
)

// ErrNoDescriptor is returned when a package directory has no descriptor file.
var ErrNoDescriptor = errors.New("no game descriptor found")

const (
	defaultPageIdentifier = "?page="
	defaultWrapper        = "cards"
)

// Format is a descriptor encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FileName returns the descriptor file name for the format.
func (f Format) FileName() string {
	if f == FormatYAML {
		return paths.DescriptorYAML
	}
	return paths.DescriptorJSON
}

// Descriptor is the package description stored as game.json or game.yaml.
// Unknown fields are ignored; the rest of the bundle is opaque.
type Descriptor struct {
	Name string `json:"name" yaml:"name"`
	// AutoUpdate is the refresh period in days; zero or negative disables it.
	AutoUpdate                     int    `json:"autoUpdate" yaml:"autoUpdate"`
	AllCardsURL                    string `json:"allCardsUrl" yaml:"allCardsUrl"`
	AllCardsURLPageCount           int    `json:"allCardsUrlPageCount" yaml:"allCardsUrlPageCount"`
	AllCardsURLPageCountStartIndex int    `json:"allCardsUrlPageCountStartIndex" yaml:"allCardsUrlPageCountStartIndex"`
	AllCardsURLPageIdentifier      string `json:"allCardsUrlPageIdentifier" yaml:"allCardsUrlPageIdentifier"`
	AllCardsURLWrapper             string `json:"allCardsUrlWrapper" yaml:"allCardsUrlWrapper"`
}

// ParseDescriptor decodes a descriptor and normalizes its display name.
func ParseDescriptor(data []byte, format Format) (*Descriptor, error) {
	var d Descriptor
	var err error
	data = toUTF8(data)
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &d)
	default:
		err = sonic.Unmarshal(data, &d)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", format.FileName(), err)
	}
	d.Name = SanitizeName(d.Name)
	if d.AllCardsURLPageCount < 0 {
		return nil, fmt.Errorf("parse %s: negative allCardsUrlPageCount", format.FileName())
	}
	return &d, nil
}

// ReadDescriptor loads the descriptor of the package in dir and returns its
// modification time.
func ReadDescriptor(dir string) (*Descriptor, time.Time, error) {
	for _, format := range []Format{FormatJSON, FormatYAML} {
		path := filepath.Join(dir, format.FileName())
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("read %s: %w", format.FileName(), err)
		}
		d, err := ParseDescriptor(data, format)
		if err != nil {
			return nil, time.Time{}, err
		}
		var mod time.Time
		if info, err := os.Stat(path); err == nil {
			mod = info.ModTime()
		}
		return d, mod, nil
	}
	return nil, time.Time{}, fmt.Errorf("%w in %s", ErrNoDescriptor, dir)
}

var namePolicy = bluemonday.StrictPolicy()

// SanitizeName strips markup and surrounding space from a display name.
func SanitizeName(name string) string {
	return strings.TrimSpace(html.UnescapeString(namePolicy.Sanitize(name)))
}

// Remote reports whether content pages are fetched from allCardsUrl.
func (d *Descriptor) Remote() bool {
	return d != nil && d.AllCardsURL != ""
}

// Pages returns the first page index and page count declared by the descriptor.
func (d *Descriptor) Pages() (start, count int) {
	count = d.AllCardsURLPageCount
	if count < 1 {
		count = 1
	}
	return d.AllCardsURLPageCountStartIndex, count
}

// PageURL returns the download location of a content page.
func (d *Descriptor) PageURL(page int) string {
	if _, count := d.Pages(); count <= 1 {
		return d.AllCardsURL
	}
	ident := d.AllCardsURLPageIdentifier
	if ident == "" {
		ident = defaultPageIdentifier
	}
	return d.AllCardsURL + ident + strconv.Itoa(page)
}

// Wrapper returns the object key holding the card array in a page.
func (d *Descriptor) Wrapper() string {
	if d == nil || d.AllCardsURLWrapper == "" {
		return defaultWrapper
	}
	return d.AllCardsURLWrapper
}

// DiskLoader reads descriptors and content pages from package directories.
type DiskLoader struct {
	now func() time.Time
}

// NewDiskLoader creates a loader using the wall clock.
func NewDiskLoader() *DiskLoader {
	return &DiskLoader{now: time.Now}
}

// WithClock overrides the clock used for auto-update decisions.
func (l *DiskLoader) WithClock(now func() time.Time) *DiskLoader {
	l.now = now
	return l
}

// ReadProperties reads the descriptor without marking the record loaded.
func (l *DiskLoader) ReadProperties(rec *Record) {
	d, mod, err := ReadDescriptor(rec.Dir)
	if err != nil {
		rec.Fail(err.Error())
		return
	}
	rec.Descriptor = d
	rec.UpdatedAt = mod
	l.layoutPages(rec)
}

// Load reads the descriptor and marks the record loaded, recording any failure.
func (l *DiskLoader) Load(rec *Record) {
	rec.MarkLoaded()
	rec.CardCount = 0
	l.ReadProperties(rec)
}

// NeedsUpdate reports whether the package should be fetched again: its
// content pages are incomplete or its auto-update period has elapsed.
func (l *DiskLoader) NeedsUpdate(rec *Record) bool {
	d := rec.Descriptor
	if rec.Source == "" || d == nil {
		return false
	}
	if d.AutoUpdate > 0 && !rec.UpdatedAt.IsZero() &&
		l.now().After(rec.UpdatedAt.Add(time.Duration(d.AutoUpdate)*24*time.Hour)) {
		return true
	}
	if !d.Remote() {
		return false
	}
	for page := rec.PageStart; page < rec.PageStart+rec.PageCount; page++ {
		if _, err := os.Stat(paths.Page(rec.Dir, page)); err != nil {
			return true
		}
	}
	return false
}

// LoadPage reads one content page and adds its cards to the record.
func (l *DiskLoader) LoadPage(rec *Record, page int) {
	data, err := os.ReadFile(paths.Page(rec.Dir, page))
	if err != nil {
		rec.Fail(fmt.Sprintf("page %d: %v", page, err))
		return
	}
	n, err := CountCards(data, rec.Descriptor.Wrapper())
	if err != nil {
		rec.Fail(fmt.Sprintf("page %d: %v", page, err))
		return
	}
	rec.CardCount += n
}

// layoutPages sets PageStart/PageCount from the descriptor, or from the page
// files present on disk for bundled packages.
func (l *DiskLoader) layoutPages(rec *Record) {
	if rec.Descriptor.Remote() {
		rec.PageStart, rec.PageCount = rec.Descriptor.Pages()
		return
	}
	matches, err := doublestar.Glob(os.DirFS(rec.Dir), paths.PagePattern)
	if err != nil {
		rec.Fail(fmt.Sprintf("list pages: %v", err))
		return
	}
	var indexes []int
	for _, m := range matches {
		if n, ok := paths.PageIndex(m); ok {
			indexes = append(indexes, n)
		}
	}
	if len(indexes) == 0 {
		rec.PageStart, rec.PageCount = 0, 0
		return
	}
	sort.Ints(indexes)
	rec.PageStart = indexes[0]
	rec.PageCount = indexes[len(indexes)-1] - indexes[0] + 1
}

// CountCards returns the number of cards in a page: either a JSON array or an
// object holding the array under wrapper.
func CountCards(data []byte, wrapper string) (int, error) {
	var v interface{}
	if err := sonic.Unmarshal(data, &v); err != nil {
		return 0, fmt.Errorf("malformed page: %w", err)
	}
	switch t := v.(type) {
	case []interface{}:
		return len(t), nil
	case map[string]interface{}:
		cards, ok := t[wrapper].([]interface{})
		if !ok {
			return 0, fmt.Errorf("malformed page: missing %q array", wrapper)
		}
		return len(cards), nil
	default:
		return 0, fmt.Errorf("malformed page: unexpected %T", v)
	}
}
