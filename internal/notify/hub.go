// Package notify pushes client events to the UI over websocket.
package notify

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"examclient/internal/common/http/middleware"
	"examclient/internal/judge/sandbox"
	"examclient/pkg/utils/logger"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	EventAvailabilityChanged = "availabilityChanged"
	EventJudgeProgress       = "judgeProgress"

	listenerBuffer = 32
	writeWait      = 5 * time.Second
	pingPeriod     = 30 * time.Second
)

// Event is one message pushed to subscribers.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub fans events out to every connected listener.
type Hub struct {
	mu        sync.RWMutex
	listeners map[uint64]chan Event
	nextID    uint64
	alive     bool
	origins   []string
	upgrader  websocket.Upgrader
}

// NewHub creates an empty hub. Browser pages may subscribe only from the
// API's own origin or one of allowedOrigins.
func NewHub(allowedOrigins ...string) *Hub {
	h := &Hub{
		listeners: make(map[uint64]chan Event),
		origins:   allowedOrigins,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin admits clients without an Origin header, same-host pages and
// the configured UI origins.
func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if middleware.IsOriginAllowed(origin, h.origins) {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && strings.EqualFold(u.Host, r.Host)
}

// AvailabilityChanged records and broadcasts server availability.
func (h *Hub) AvailabilityChanged(alive bool) {
	h.mu.Lock()
	h.alive = alive
	h.mu.Unlock()
	h.broadcast(Event{Type: EventAvailabilityChanged, Data: alive})
}

// ReportProgress broadcasts judge progress.
func (h *Hub) ReportProgress(ctx context.Context, update sandbox.Progress) error {
	h.broadcast(Event{Type: EventJudgeProgress, Data: update})
	return nil
}

// Subscribe registers a listener. The first event is always the current
// availability so late subscribers start in sync.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, listenerBuffer)
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = ch
	ch <- Event{Type: EventAvailabilityChanged, Data: h.alive}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.listeners, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// ListenerCount returns the number of subscribers.
func (h *Hub) ListenerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}

func (h *Hub) broadcast(evt Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.listeners {
		select {
		case ch <- evt:
		default:
			logger.Warn(context.Background(), "notify listener is slow, dropping event",
				zap.Uint64("listener", id),
				zap.String("event", evt.Type),
			)
		}
	}
}

// ServeWS upgrades the request and streams events until either side closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn(r.Context(), "websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	events, unsubscribe := h.Subscribe()
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(evt); err != nil {
				logger.Debug(r.Context(), "websocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
