package registry

import (
	"context"
	"sort"
	"time"

	"github.com/GriffinCanCode/GameShelf/internal/domain/catalog"
)

// RecordView is a read-only copy of a Record.
type RecordView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Source      string    `json:"source,omitempty"`
	Loaded      bool      `json:"loaded"`
	Downloading bool      `json:"downloading"`
	Error       string    `json:"error,omitempty"`
	PageCount   int       `json:"page_count"`
	CardCount   int       `json:"card_count"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
	Invalid     bool      `json:"invalid,omitempty"`
	Dir         string    `json:"-"`
}

// Snapshot is a consistent view of the catalog and the active selection.
type Snapshot struct {
	Current  RecordView      `json:"current"`
	Packages []catalog.Entry `json:"packages"`
	Fetching []string        `json:"fetching,omitempty"`
}

func viewOf(rec *catalog.Record) RecordView {
	return RecordView{
		ID:          rec.ID,
		Name:        rec.Name,
		Source:      rec.Source,
		Loaded:      rec.Loaded(),
		Downloading: rec.Downloading(),
		Error:       rec.Error(),
		PageCount:   rec.PageCount,
		CardCount:   rec.CardCount,
		UpdatedAt:   rec.UpdatedAt,
		Invalid:     rec.IsInvalid(),
		Dir:         rec.Dir,
	}
}

// Snapshot returns the current state, taken on the manager's loop.
func (m *Manager) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := m.loop.Call(ctx, func() {
		snap.Current = viewOf(m.current)
		snap.Packages = m.catalog.Listing()
		for source := range m.inflight {
			snap.Fetching = append(snap.Fetching, source)
		}
		sort.Strings(snap.Fetching)
	})
	return snap, err
}

// Listing returns (identifier, display name) pairs in catalog order.
func (m *Manager) Listing(ctx context.Context) ([]catalog.Entry, error) {
	var out []catalog.Entry
	err := m.loop.Call(ctx, func() { out = m.catalog.Listing() })
	return out, err
}

// Record returns a view of the package with the given identifier.
func (m *Manager) Record(ctx context.Context, id string) (RecordView, bool, error) {
	var (
		view  RecordView
		found bool
	)
	err := m.loop.Call(ctx, func() {
		if rec, ok := m.catalog.Get(id); ok {
			view, found = viewOf(rec), true
		}
	})
	return view, found, err
}
