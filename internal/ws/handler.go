package ws

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/GameShelf/internal/domain/registry"
)

// Event types sent to clients.
const (
	EventWelcome = "system"
	EventRefresh = "refresh"
	EventModal   = "modal"
	EventStatus  = "status"
	EventPong    = "pong"
	EventError   = "error"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

// Event is one message pushed to a client.
type Event struct {
	Type      string `json:"type"`
	Message   string `json:"message,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Refresher registers refresh callbacks.
type Refresher interface {
	RegisterRefresh(owner registry.Owner, fn func())
}

// Recorder receives connection metrics. Optional.
type Recorder interface {
	IncWSConnections()
	DecWSConnections()
	RecordWSMessage(direction, msgType string)
}

type nopRecorder struct{}

func (nopRecorder) IncWSConnections()              {}
func (nopRecorder) DecWSConnections()              {}
func (nopRecorder) RecordWSMessage(string, string) {}

// Handler manages WebSocket connections
type Handler struct {
	refresher Refresher
	upgrader  websocket.Upgrader
	metrics   Recorder
	log       *zap.Logger

	mu    sync.Mutex
	conns map[*Conn]struct{}
}

// NewHandler creates a new WebSocket handler. Each connection registers a
// refresh callback that lives as long as the connection.
func NewHandler(refresher Refresher, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		refresher: refresher,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // local front ends only
			},
		},
		metrics: nopRecorder{},
		log:     log,
		conns:   make(map[*Conn]struct{}),
	}
}

// WithMetrics attaches a metrics recorder.
func (h *Handler) WithMetrics(r Recorder) *Handler {
	if r != nil {
		h.metrics = r
	}
	return h
}

// Broadcast sends an event of the given type to every connection.
func (h *Handler) Broadcast(eventType string) {
	h.mu.Lock()
	conns := make([]*Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		c.Send(Event{Type: eventType})
	}
}

// Connections returns the number of open connections.
func (h *Handler) Connections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// HandleConnection handles WebSocket upgrade and messages
func (h *Handler) HandleConnection(c *gin.Context) {
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	conn := newConn(ws)
	h.add(conn)
	defer h.remove(conn)

	h.refresher.RegisterRefresh(conn, func() { conn.Send(Event{Type: EventRefresh}) })

	go conn.writeLoop(h.metrics)
	conn.Send(Event{Type: EventWelcome, Message: "Connected to GameShelf"})

	ws.SetReadLimit(4096)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg struct {
			Type string `json:"type"`
		}
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}
		h.metrics.RecordWSMessage("in", msg.Type)

		switch msg.Type {
		case "ping":
			conn.Send(Event{Type: EventPong})
		default:
			conn.Send(Event{Type: EventError, Message: "unknown message type"})
		}
	}
}

func (h *Handler) add(c *Conn) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
	h.metrics.IncWSConnections()
}

func (h *Handler) remove(c *Conn) {
	c.Close()
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
	h.metrics.DecWSConnections()
}

// Conn is one client connection. It is a refresh-callback owner that stays
// alive until the connection closes.
type Conn struct {
	ws     *websocket.Conn
	out    chan Event
	done   chan struct{}
	closed atomic.Bool
	once   sync.Once
}

func newConn(ws *websocket.Conn) *Conn {
	return &Conn{
		ws:   ws,
		out:  make(chan Event, sendBuffer),
		done: make(chan struct{}),
	}
}

// Alive reports whether the connection is still open.
func (c *Conn) Alive() bool {
	return !c.closed.Load()
}

// Send queues an event. A slow client drops events rather than blocking the caller.
func (c *Conn) Send(e Event) {
	if !c.Alive() {
		return
	}
	if e.Timestamp == 0 {
		e.Timestamp = time.Now().Unix()
	}
	select {
	case c.out <- e:
	case <-c.done:
	default:
	}
}

// Close shuts the connection down. Safe to call more than once.
func (c *Conn) Close() {
	c.once.Do(func() {
		c.closed.Store(true)
		close(c.done)
		_ = c.ws.Close()
	})
}

// writeLoop is the connection's only writer.
func (c *Conn) writeLoop(metrics Recorder) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case e := <-c.out:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(e); err != nil {
				c.Close()
				return
			}
			metrics.RecordWSMessage("out", e.Type)
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}
