package catalog

import (
	"time"

	"github.com/GriffinCanCode/GameShelf/internal/shared/identity"
	"github.com/GriffinCanCode/GameShelf/internal/shared/paths"
)

// DefaultName is the placeholder display name of a package whose descriptor
// has not been fetched yet.
const DefaultName = "Standard"

// LoadState tracks whether a record's descriptor has been read.
type LoadState int

const (
	NotLoaded LoadState = iota
	Loaded
)

// String returns the string representation of the load state
func (s LoadState) String() string {
	if s == Loaded {
		return "loaded"
	}
	return "not_loaded"
}

// Record is one catalog entry.
type Record struct {
	ID     string
	Name   string
	Source string
	Dir    string

	Descriptor *Descriptor
	PageStart  int
	PageCount  int
	CardCount  int
	UpdatedAt  time.Time

	root        string
	state       LoadState
	downloading bool
	err         string
	invalid     bool
}

// NewRecord creates a record for a package living under root.
func NewRecord(root, name, source string) *Record {
	r := &Record{root: root, Source: source}
	r.Rename(name)
	return r
}

// FromDir creates a record for an existing package directory. The directory
// name is kept as identifier even when it is not in canonical encoded form.
func FromDir(root, dirName string) *Record {
	name, source := identity.Decode(dirName)
	return &Record{
		ID:     dirName,
		Name:   name,
		Source: source,
		Dir:    paths.Package(root, dirName),
		root:   root,
	}
}

var invalid = &Record{Name: "", state: Loaded, invalid: true}

// Invalid returns the sentinel record used when no package is usable.
func Invalid() *Record {
	return invalid
}

// IsInvalid reports whether r is the sentinel.
func (r *Record) IsInvalid() bool {
	return r == nil || r.invalid
}

// Rename sets the display name and recomputes identifier and directory.
func (r *Record) Rename(name string) {
	r.Name = name
	r.ID = identity.Encode(name, r.Source)
	r.Dir = paths.Package(r.root, r.ID)
}

// State returns the load state.
func (r *Record) State() LoadState { return r.state }

// Loaded reports whether the descriptor has been read.
func (r *Record) Loaded() bool { return r.state == Loaded }

// MarkLoaded moves the record to Loaded.
func (r *Record) MarkLoaded() {
	if !r.invalid {
		r.state = Loaded
	}
}

// Reset moves the record back to NotLoaded so the next activation reloads it.
func (r *Record) Reset() {
	if !r.invalid {
		r.state = NotLoaded
	}
}

// Downloading reports whether a fetch is in flight for this record.
func (r *Record) Downloading() bool { return r.downloading }

// SetDownloading flags the record as being fetched.
func (r *Record) SetDownloading(v bool) {
	if !r.invalid {
		r.downloading = v
	}
}

// Error returns the last failure reason, empty when healthy.
func (r *Record) Error() string { return r.err }

// Healthy reports whether the record carries no error.
func (r *Record) Healthy() bool { return r.err == "" }

// Fail records a failure. The first failure wins until ClearError is called.
func (r *Record) Fail(reason string) {
	if r.invalid || reason == "" || r.err != "" {
		return
	}
	r.err = reason
}

// ClearError forgets the last failure.
func (r *Record) ClearError() {
	r.err = ""
}

// Ready reports whether the record can be used right now.
func (r *Record) Ready() bool {
	return r.Loaded() && !r.downloading && r.err == ""
}
