package registry

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/GameShelf/internal/domain/catalog"
	"github.com/GriffinCanCode/GameShelf/internal/scheduler"
	"github.com/GriffinCanCode/GameShelf/internal/shared/identity"
	"github.com/GriffinCanCode/GameShelf/internal/shared/paths"
)

const (
	fetchKindNew    = "new"
	fetchKindUpdate = "update"
)

type fetchResult struct {
	name    string
	elapsed time.Duration
	err     error
}

// fetchAndAdopt downloads a package that is not in the catalog yet and
// selects it once it loads cleanly.
func (m *Manager) fetchAndAdopt(source string) {
	if !m.beginFetch(source) {
		return
	}
	m.busy.Show()

	rec := catalog.NewRecord(m.storage.Root(), catalog.DefaultName, source)
	rec.SetDownloading(true)
	m.log.Info("Fetching package", zap.String("source", source))

	scheduler.Await(m.loop, func(ctx context.Context) fetchResult {
		return m.download(ctx, source, "")
	}, func(res fetchResult) {
		defer m.busy.Hide()
		m.endFetch(source)
		rec.SetDownloading(false)
		m.metrics.ObserveFetch(fetchKindNew, res.err, res.elapsed)

		if res.err != nil {
			rec.Fail(res.err.Error())
		} else {
			rec.Rename(res.name)
		}
		m.load(rec, false)

		if !rec.Healthy() {
			m.report(MsgDownloadError + rec.Error())
			return
		}
		m.catalog.Put(rec)
		m.metrics.SetPackages(m.catalog.Len())
		m.log.Info("Adopted package", zap.String("id", rec.ID), zap.Duration("elapsed", res.elapsed))
		m.resolve(rec.ID)
	})
}

// updateExisting fetches an installed package again. A failed fetch is
// reported and leaves the record's own state untouched, so the installed
// content is loaded as before.
func (m *Manager) updateExisting(rec *catalog.Record) {
	if rec.IsInvalid() || rec.Source == "" {
		m.log.Warn("Package has no source to update from", zap.String("id", rec.ID))
		return
	}
	if !m.beginFetch(rec.Source) {
		return
	}
	rec.SetDownloading(true)
	m.busy.Show()
	m.log.Info("Updating package", zap.String("id", rec.ID))

	source, dir := rec.Source, rec.Dir
	scheduler.Await(m.loop, func(ctx context.Context) fetchResult {
		return m.download(ctx, source, dir)
	}, func(res fetchResult) {
		m.busy.Hide()
		m.endFetch(source)
		rec.SetDownloading(false)
		m.metrics.ObserveFetch(fetchKindUpdate, res.err, res.elapsed)

		if res.err != nil {
			m.report(MsgDownloadError + res.err.Error())
		}

		m.load(rec, false)
		if rec == m.current {
			m.activateCurrent()
		}
	})
}

func (m *Manager) beginFetch(source string) bool {
	if m.inflight[source] {
		m.log.Info("Fetch already in progress", zap.String("source", source))
		return false
	}
	m.inflight[source] = true
	return true
}

func (m *Manager) endFetch(source string) {
	delete(m.inflight, source)
}

// download runs off the loop. It fetches into a staging directory and moves
// the result into place; an empty dir is derived from the fetched name.
func (m *Manager) download(ctx context.Context, source, dir string) (res fetchResult) {
	start := time.Now()
	res.name = catalog.DefaultName
	defer func() { res.elapsed = time.Since(start) }()

	if m.fetcher == nil {
		res.err = fmt.Errorf("no fetcher configured")
		return res
	}

	staging, err := m.storage.Stage()
	if err != nil {
		res.err = err
		return res
	}

	desc, err := m.fetcher.Fetch(ctx, source, staging)
	if err != nil {
		m.storage.Discard(staging)
		res.err = err
		return res
	}
	if desc != nil && desc.Name != "" {
		res.name = desc.Name
	}
	if dir == "" {
		dir = paths.Package(m.storage.Root(), identity.Encode(res.name, source))
	}
	if err := m.storage.Install(staging, dir); err != nil {
		m.storage.Discard(staging)
		res.err = err
	}
	return res
}
