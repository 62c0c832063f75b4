package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/GameShelf/internal/domain/modal"
)

// modalState is the JSON form of the modal queue.
type modalState struct {
	Visible bool        `json:"visible"`
	Message *modal.View `json:"message,omitempty"`
	Pending int         `json:"pending"`
}

func stateOf(q *modal.Queue) modalState {
	st := modalState{Pending: q.Pending()}
	if v, ok := q.Current(); ok {
		st.Visible = true
		st.Message = &v
	}
	return st
}

// GetModal returns the visible message and the backlog size
func (h *Handlers) GetModal(c *gin.Context) {
	h.modal(c, func(*modal.Queue) {})
}

// PostMessage queues a notification
func (h *Handlers) PostMessage(c *gin.Context) {
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
		})
		return
	}
	h.modal(c, func(q *modal.Queue) { q.Show(req.Text) })
}

// ModalYes presses the yes button
func (h *Handlers) ModalYes(c *gin.Context) {
	h.modal(c, func(q *modal.Queue) { q.Yes() })
}

// ModalNo presses the no button
func (h *Handlers) ModalNo(c *gin.Context) {
	h.modal(c, func(q *modal.Queue) { q.No() })
}

// ModalClose dismisses the visible message
func (h *Handlers) ModalClose(c *gin.Context) {
	h.modal(c, func(q *modal.Queue) { q.Close() })
}

// ModalInput feeds one input frame to the queue
func (h *Handlers) ModalInput(c *gin.Context) {
	var req struct {
		Input string `json:"input"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
		})
		return
	}
	in, ok := modal.ParseInput(req.Input)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid input. Must be submit, delete, cancel or none",
		})
		return
	}

	var handled bool
	h.modal(c, func(q *modal.Queue) { handled = q.Update(in) }, func(resp gin.H) {
		resp["handled"] = handled
	})
}

// modal runs fn on the queue and responds with the resulting state.
func (h *Handlers) modal(c *gin.Context, fn func(*modal.Queue), decorate ...func(gin.H)) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), callTimeout)
	defer cancel()

	var st modalState
	err := h.manager.Modal(ctx, func(q *modal.Queue) {
		fn(q)
		st = stateOf(q)
	})
	if err != nil {
		internalError(c, err)
		return
	}

	resp := gin.H{
		"success": true,
		"visible": st.Visible,
		"message": st.Message,
		"pending": st.Pending,
	}
	for _, d := range decorate {
		d(resp)
	}
	c.JSON(http.StatusOK, resp)
}
