package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/GameShelf/internal/domain/catalog"
	"github.com/GriffinCanCode/GameShelf/internal/domain/registry"
	"github.com/GriffinCanCode/GameShelf/internal/domain/surface"
	"github.com/GriffinCanCode/GameShelf/internal/infrastructure/resilience"
)

// callTimeout bounds how long a handler waits for the manager's loop.
const callTimeout = 5 * time.Second

// Handlers contains all HTTP handlers
type Handlers struct {
	manager  *registry.Manager
	spinner  *surface.Spinner
	selector *surface.Selector
	breakers func() map[string]resilience.State
	log      *zap.Logger
}

// Options configures the handler set.
type Options struct {
	Manager  *registry.Manager
	Spinner  *surface.Spinner
	Selector *surface.Selector
	// Breakers reports per-host circuit state for /status. Optional.
	Breakers func() map[string]resilience.State
	Logger   *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(opts Options) *Handlers {
	h := &Handlers{
		manager:  opts.Manager,
		spinner:  opts.Spinner,
		selector: opts.Selector,
		breakers: opts.Breakers,
		log:      opts.Logger,
	}
	if h.spinner == nil {
		h.spinner = surface.NewSpinner()
	}
	if h.selector == nil {
		h.selector = surface.NewSelector()
	}
	if h.log == nil {
		h.log = zap.NewNop()
	}
	return h
}

// Register mounts every route on r.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	r.GET("/packages", h.ListPackages)
	r.GET("/packages/current", h.CurrentPackage)
	r.GET("/packages/:id", h.GetPackage)
	r.GET("/packages/:id/export", h.ExportPackage)
	r.POST("/packages/select", h.SelectPackage)
	r.POST("/packages/next", h.NextPackage)
	r.POST("/packages/previous", h.PreviousPackage)
	r.POST("/packages/reset", h.ResetPackage)
	r.POST("/packages/current/update", h.UpdateCurrent)
	r.POST("/packages/:id/update", h.UpdatePackage)
	r.DELETE("/packages/current", h.DeleteCurrent)
	r.GET("/link", h.Link)

	r.GET("/modal", h.GetModal)
	r.POST("/modal/messages", h.PostMessage)
	r.POST("/modal/yes", h.ModalYes)
	r.POST("/modal/no", h.ModalNo)
	r.POST("/modal/close", h.ModalClose)
	r.POST("/modal/input", h.ModalInput)

	r.POST("/logs", h.StreamLogs)

	r.GET("/status", h.Status)
	r.POST("/selector/close", h.CloseSelector)
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "GameShelf",
		"version": "1.0.0",
	})
}

// Health reports whether the manager's loop is responsive.
func (h *Handlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), callTimeout)
	defer cancel()

	if err := h.manager.Loop().Call(ctx, func() {}); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"pending_tasks": h.manager.Loop().Pending(),
	})
}

// ListPackages lists the catalog and the active selection
func (h *Handlers) ListPackages(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), callTimeout)
	defer cancel()

	snap, err := h.manager.Snapshot(ctx)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"current":  snap.Current.ID,
		"packages": snap.Packages,
		"fetching": snap.Fetching,
		"count":    len(snap.Packages),
	})
}

// CurrentPackage returns the active selection
func (h *Handlers) CurrentPackage(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), callTimeout)
	defer cancel()

	snap, err := h.manager.Snapshot(ctx)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap.Current)
}

// GetPackage returns one catalog record
func (h *Handlers) GetPackage(c *gin.Context) {
	view, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, view)
}

// SelectPackage resolves an identifier, fetching unknown sources
func (h *Handlers) SelectPackage(c *gin.Context) {
	var req struct {
		ID string `json:"id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
		})
		return
	}

	h.manager.Resolve(req.ID)
	accepted(c, gin.H{"id": req.ID})
}

// NextPackage selects the following package in catalog order
func (h *Handlers) NextPackage(c *gin.Context) {
	h.manager.SelectAdjacent(catalog.Next)
	accepted(c, nil)
}

// PreviousPackage selects the preceding package in catalog order
func (h *Handlers) PreviousPackage(c *gin.Context) {
	h.manager.SelectAdjacent(catalog.Previous)
	accepted(c, nil)
}

// ResetPackage reselects and activates the preferred package
func (h *Handlers) ResetPackage(c *gin.Context) {
	h.manager.Reset()
	accepted(c, nil)
}

// UpdateCurrent fetches the active package again
func (h *Handlers) UpdateCurrent(c *gin.Context) {
	h.manager.UpdateExisting("")
	accepted(c, nil)
}

// UpdatePackage fetches an installed package again
func (h *Handlers) UpdatePackage(c *gin.Context) {
	view, ok := h.lookup(c)
	if !ok {
		return
	}
	h.manager.UpdateExisting(view.ID)
	accepted(c, gin.H{"id": view.ID})
}

// DeleteCurrent removes the active package
func (h *Handlers) DeleteCurrent(c *gin.Context) {
	h.manager.Delete()
	accepted(c, nil)
}

// Link handles a deep-link callback. Query parameters become link parameters;
// an "error" parameter reports a failed link.
func (h *Handlers) Link(c *gin.Context) {
	params := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}

	var linkErr error
	if msg, ok := params["error"]; ok {
		linkErr = linkError(msg)
		delete(params, "error")
	}

	h.manager.HandleLink(params, linkErr)
	accepted(c, nil)
}

// Status returns busy indicator, selection surface and breaker state
func (h *Handlers) Status(c *gin.Context) {
	resp := gin.H{"surface": surface.Snapshot(h.spinner, h.selector)}
	if h.breakers != nil {
		states := make(map[string]string)
		for host, st := range h.breakers() {
			states[host] = st.String()
		}
		resp["breakers"] = states
	}
	c.JSON(http.StatusOK, resp)
}

// CloseSelector hides the selection surface
func (h *Handlers) CloseSelector(c *gin.Context) {
	h.selector.Close()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// lookup fetches the record named by the :id parameter, writing a 404 when absent.
func (h *Handlers) lookup(c *gin.Context) (registry.RecordView, bool) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), callTimeout)
	defer cancel()

	id := c.Param("id")
	view, found, err := h.manager.Record(ctx, id)
	if err != nil {
		internalError(c, err)
		return view, false
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "package not found: " + id,
		})
		return view, false
	}
	return view, true
}

type linkError string

func (e linkError) Error() string { return string(e) }

func accepted(c *gin.Context, extra gin.H) {
	resp := gin.H{"success": true}
	for k, v := range extra {
		resp[k] = v
	}
	c.JSON(http.StatusAccepted, resp)
}

func internalError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}
