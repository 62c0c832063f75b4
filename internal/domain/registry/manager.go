package registry

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/GameShelf/internal/domain/catalog"
	"github.com/GriffinCanCode/GameShelf/internal/domain/modal"
	"github.com/GriffinCanCode/GameShelf/internal/prefs"
	"github.com/GriffinCanCode/GameShelf/internal/scheduler"
	"github.com/GriffinCanCode/GameShelf/internal/shared/identity"
)

// PrefDefaultGame is the preference key holding the last healthy selection.
const PrefDefaultGame = "DefaultGame"

// LinkGameID is the deep-link parameter naming the package to select.
const LinkGameID = "GameId"

// DefaultLoadingThreshold is the page count above which paged loading
// announces its start and end.
const DefaultLoadingThreshold = 60

// User-facing messages.
const (
	MsgSelectionError = "Could not select the game because it is not recognized! Try selecting a different game?"
	MsgDownloadError  = "Error downloading game!: "
	MsgLoadError      = "Error loading game!: "
	MsgLoadPrompt     = "Error loading game! The game may be corrupted. Delete (note that any decks would also be deleted)?"
	MsgDeleteError    = "Error deleting game!: "
	MsgLinkError      = "Link callback error!: "
	MsgCardsLoading   = "%s cards loading..."
	MsgCardsLoaded    = "%s cards loaded!"
)

// Storage is the on-disk home of installed packages.
type Storage interface {
	Root() string
	// ListPackages returns package directory names. A missing root yields none.
	ListPackages() ([]string, error)
	RemoveAll(dir string) error
	// SeedDefaults copies the bundled default set into the root and returns
	// how many packages it wrote.
	SeedDefaults() (int, error)
	// Stage creates an empty scratch directory for a download.
	Stage() (string, error)
	// Install replaces dir with the staged directory.
	Install(staging, dir string) error
	Discard(staging string)
}

// Loader reads package descriptors and content pages.
type Loader interface {
	ReadProperties(rec *catalog.Record)
	Load(rec *catalog.Record)
	NeedsUpdate(rec *catalog.Record) bool
	LoadPage(rec *catalog.Record, page int)
}

// Fetcher downloads the package published at source into dir.
type Fetcher interface {
	Fetch(ctx context.Context, source, dir string) (*catalog.Descriptor, error)
}

// Busy is the busy indicator shown while a fetch runs.
type Busy interface {
	Show()
	Hide()
}

// Selector is the package selection surface, opened as a repair path.
type Selector interface {
	Open()
}

// Metrics receives lifecycle events.
type Metrics interface {
	SetPackages(n int)
	ObserveFetch(kind string, err error, elapsed time.Duration)
	ObserveActivation(outcome string)
}

type nopMetrics struct{}

func (nopMetrics) SetPackages(int)                           {}
func (nopMetrics) ObserveFetch(string, error, time.Duration) {}
func (nopMetrics) ObserveActivation(string)                  {}

type nopSurface struct{}

func (nopSurface) Show() {}
func (nopSurface) Hide() {}
func (nopSurface) Open() {}

// Options configures a Manager.
type Options struct {
	Loop     *scheduler.Loop
	Storage  Storage
	Loader   Loader
	Fetcher  Fetcher
	Prefs    prefs.Store
	Queue    *modal.Queue
	Busy     Busy
	Selector Selector
	Seeder   *Seeder
	Logger   *zap.Logger

	// LoadingThreshold defaults to DefaultLoadingThreshold.
	LoadingThreshold int
}

// Manager owns the catalog and the active selection.
type Manager struct {
	loop     *scheduler.Loop
	storage  Storage
	loader   Loader
	fetcher  Fetcher
	prefs    prefs.Store
	queue    *modal.Queue
	busy     Busy
	selector Selector
	seeder   *Seeder
	metrics  Metrics
	log      *zap.Logger

	threshold int

	catalog    *catalog.Catalog
	current    *catalog.Record
	hooks      Hooks
	inflight   map[string]bool
	pageLoads  map[*catalog.Record]int
	discovered bool
}

// NewManager creates a manager. Nothing happens until Start or Discover.
func NewManager(opts Options) *Manager {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		loop:      opts.Loop,
		storage:   opts.Storage,
		loader:    opts.Loader,
		fetcher:   opts.Fetcher,
		prefs:     opts.Prefs,
		queue:     opts.Queue,
		busy:      opts.Busy,
		selector:  opts.Selector,
		seeder:    opts.Seeder,
		metrics:   nopMetrics{},
		log:       log,
		threshold: opts.LoadingThreshold,
		catalog:   catalog.New(),
		current:   catalog.Invalid(),
		inflight:  make(map[string]bool),
		pageLoads: make(map[*catalog.Record]int),
	}
	if m.loader == nil {
		m.loader = catalog.NewDiskLoader()
	}
	if m.prefs == nil {
		m.prefs = prefs.NewMemory()
	}
	if m.queue == nil {
		m.queue = modal.NewQueue()
	}
	if m.busy == nil {
		m.busy = nopSurface{}
	}
	if m.selector == nil {
		m.selector = nopSurface{}
	}
	if m.seeder == nil {
		m.seeder = NewSeeder(m.storage, log)
	}
	if m.threshold <= 0 {
		m.threshold = DefaultLoadingThreshold
	}
	return m
}

// WithMetrics attaches a metrics sink.
func (m *Manager) WithMetrics(metrics Metrics) *Manager {
	if metrics != nil {
		m.metrics = metrics
	}
	return m
}

// Loop returns the loop owning the manager's state.
func (m *Manager) Loop() *scheduler.Loop {
	return m.loop
}

// Start discovers installed packages, restores the preferred selection and
// activates it.
func (m *Manager) Start() {
	m.loop.Post(func() {
		m.discover()
		m.resetToPreferred()
		m.activateCurrent()
	})
}

// Discover populates the catalog from disk. Only the first call has effect.
func (m *Manager) Discover() {
	m.loop.Post(m.discover)
}

// ResetToPreferred selects the preferred package without activating it.
func (m *Manager) ResetToPreferred() {
	m.loop.Post(m.resetToPreferred)
}

// Reset selects the preferred package and activates it.
func (m *Manager) Reset() {
	m.loop.Post(func() {
		m.resetToPreferred()
		m.activateCurrent()
	})
}

// Refresh re-runs activation of the current package.
func (m *Manager) Refresh() {
	m.loop.Post(m.activateCurrent)
}

// Resolve selects the package with the given identifier, fetching it when
// the identifier decodes to an unknown source location.
func (m *Manager) Resolve(id string) {
	m.loop.Post(func() { m.resolve(id) })
}

// SelectAdjacent selects the previous or next package in catalog order.
func (m *Manager) SelectAdjacent(dir catalog.Direction) {
	m.loop.Post(func() { m.selectAdjacent(dir) })
}

// Delete removes the current package from disk and from the catalog.
func (m *Manager) Delete() {
	m.loop.Post(m.deleteCurrent)
}

// UpdateExisting fetches an installed package again. An empty id means the
// current package.
func (m *Manager) UpdateExisting(id string) {
	m.loop.Post(func() {
		rec := m.current
		if id != "" {
			found, ok := m.catalog.Get(id)
			if !ok {
				m.report(MsgSelectionError)
				return
			}
			rec = found
		}
		m.updateExisting(rec)
	})
}

// HandleLink handles a deep-link callback.
func (m *Manager) HandleLink(params map[string]string, linkErr error) {
	m.loop.Post(func() {
		if linkErr != nil {
			m.report(MsgLinkError + linkErr.Error())
			return
		}
		if id, ok := params[LinkGameID]; ok {
			m.resolve(id)
		}
	})
}

// RegisterRefresh adds a callback run after every healthy activation.
func (m *Manager) RegisterRefresh(owner Owner, fn func()) {
	m.loop.Post(func() { m.hooks.Register(owner, fn) })
}

// ClearRefresh drops every refresh callback.
func (m *Manager) ClearRefresh() {
	m.loop.Post(m.hooks.Clear)
}

// Modal runs fn against the modal queue on the manager's loop.
func (m *Manager) Modal(ctx context.Context, fn func(q *modal.Queue)) error {
	return m.loop.Call(ctx, func() { fn(m.queue) })
}

// ShowMessage posts a notification to the modal queue.
func (m *Manager) ShowMessage(text string) {
	m.loop.Post(func() { m.queue.Show(text) })
}

func (m *Manager) discover() {
	if m.discovered {
		return
	}
	m.discovered = true

	names, err := m.storage.ListPackages()
	if err != nil {
		m.log.Warn("Failed to list packages", zap.String("root", m.storage.Root()), zap.Error(err))
	}
	if len(names) == 0 {
		if err := m.seeder.Seed(); err != nil {
			m.log.Error("Failed to seed default packages", zap.Error(err))
		}
		if names, err = m.storage.ListPackages(); err != nil {
			m.log.Error("Failed to list packages", zap.String("root", m.storage.Root()), zap.Error(err))
		}
	}

	for _, name := range names {
		rec := catalog.FromDir(m.storage.Root(), name)
		m.loader.ReadProperties(rec)
		m.catalog.Put(rec)
	}
	m.metrics.SetPackages(m.catalog.Len())
	m.log.Info("Discovered packages", zap.Int("count", m.catalog.Len()))
}

func (m *Manager) resetToPreferred() {
	if rec, ok := m.catalog.Get(m.prefs.GetString(PrefDefaultGame)); ok && rec.Healthy() {
		m.current = rec
		return
	}
	if rec, ok := m.catalog.First(); ok {
		m.current = rec
		return
	}
	m.current = catalog.Invalid()
}

func (m *Manager) resolve(id string) {
	if rec, ok := m.catalog.Get(id); ok {
		m.current = rec
		m.activateCurrent()
		return
	}

	_, source := identity.Decode(id)
	if !identity.IsWellFormedLocation(source) {
		m.log.Warn("Unrecognized package", zap.String("id", id))
		m.report(MsgSelectionError)
		m.selector.Open()
		return
	}
	m.fetchAndAdopt(source)
}

func (m *Manager) activateCurrent() {
	cur := m.current
	if !cur.Loaded() {
		m.load(cur, true)
		if cur.Downloading() {
			m.metrics.ObserveActivation("deferred")
			return
		}
	}

	if !cur.Healthy() {
		m.log.Warn(MsgLoadError+cur.Error(), zap.String("id", cur.ID))
		m.queue.Ask(MsgLoadPrompt, m.ignoreErrored, m.deleteCurrent)
		m.metrics.ObserveActivation("error")
		return
	}

	if !cur.IsInvalid() {
		m.prefs.SetString(PrefDefaultGame, cur.ID)
	}
	n := m.hooks.Run()
	m.metrics.ObserveActivation("ok")
	m.log.Debug("Activated package", zap.String("id", cur.ID), zap.Int("callbacks", n))
}

// load runs the load step. With allowUpdate, a package whose content is stale
// or incomplete starts an update instead of loading pages.
func (m *Manager) load(rec *catalog.Record, allowUpdate bool) {
	if rec.IsInvalid() {
		return
	}
	m.loader.Load(rec)
	if !rec.Healthy() {
		return
	}
	if allowUpdate && m.loader.NeedsUpdate(rec) {
		m.log.Info("Package needs update", zap.String("id", rec.ID))
		m.updateExisting(rec)
		return
	}
	if rec.PageCount > 0 {
		m.loadContentPaged(rec)
	}
}

func (m *Manager) selectAdjacent(dir catalog.Direction) {
	id, ok := m.catalog.Neighbor(m.current.ID, dir)
	if !ok {
		m.log.Warn("No packages to select", zap.Stringer("direction", dir))
		return
	}
	m.resolve(id)
}

func (m *Manager) ignoreErrored() {
	m.current.ClearError()
	m.resetToPreferred()
	m.activateCurrent()
	m.selector.Open()
}

func (m *Manager) deleteCurrent() {
	cur := m.current
	if cur.IsInvalid() {
		m.report(MsgDeleteError + "no game is selected")
		return
	}
	if err := m.storage.RemoveAll(cur.Dir); err != nil {
		m.report(MsgDeleteError + err.Error())
		return
	}

	m.catalog.Remove(cur.ID)
	delete(m.pageLoads, cur)
	m.metrics.SetPackages(m.catalog.Len())
	m.log.Info("Deleted package", zap.String("id", cur.ID))

	m.resetToPreferred()
	m.activateCurrent()
	m.selector.Open()
}

// report logs text and shows it in the modal queue.
func (m *Manager) report(text string) {
	m.log.Error(text)
	m.queue.Show(text)
}

func cardsMessage(format, name string) string {
	return fmt.Sprintf(format, name)
}
