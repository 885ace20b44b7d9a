// Package live pushes dataset change notifications to browsers over
// websockets so open dashboards refresh after another user uploads.
package live

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/recruitstat/pkg/logger"
	"github.com/okian/recruitstat/pkg/metrics"
)

// Event types.
const (
	EventWelcome         = "welcome"
	EventDatasetReplaced = "dataset.replaced"
	EventDatasetCleared  = "dataset.cleared"
	EventHistoryCleared  = "history.cleared"
)

const writeWait = 2 * time.Second

// Event is the JSON message sent to subscribers.
type Event struct {
	Type        string    `json:"type"`
	UploadID    string    `json:"upload_id,omitempty"`
	Filename    string    `json:"filename,omitempty"`
	Description string    `json:"description,omitempty"`
	RecordCount int       `json:"record_count,omitempty"`
	At          time.Time `json:"at"`
}

// Hub fans events out to connected websocket clients.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	log     logger.Logger
}

// NewHub returns an empty hub.
func NewHub(log logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		clients: make(map[*websocket.Conn]struct{}),
		log:     log,
	}
}

// AddWS registers ws and greets it. The greeting is written under the hub
// lock, so a client that has read it is guaranteed to receive later events.
func (h *Hub) AddWS(ws *websocket.Conn) error {
	b, err := json.Marshal(Event{Type: EventWelcome, At: time.Now().UTC()})
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
		return err
	}
	h.clients[ws] = struct{}{}
	metrics.UpdateLiveClients(len(h.clients))
	return nil
}

// RemoveWS unregisters and closes ws.
func (h *Hub) RemoveWS(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, ws)
	metrics.UpdateLiveClients(len(h.clients))
	h.mu.Unlock()
	_ = ws.Close()
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// BroadcastJSON sends v to every client. Clients that cannot keep up are
// dropped.
func (h *Hub) BroadcastJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		h.log.Error(context.Background(), "live: marshal event", logger.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		_ = c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			_ = c.Close()
			delete(h.clients, c)
		}
	}
	metrics.UpdateLiveClients(len(h.clients))
}

// Publish stamps and broadcasts e.
func (h *Hub) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	h.BroadcastJSON(e)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		_ = c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"),
			time.Now().Add(writeWait))
		_ = c.Close()
		delete(h.clients, c)
	}
	metrics.UpdateLiveClients(0)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Handler upgrades GET /api/events. Only same-origin browsers may subscribe.
func Handler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		if err := hub.AddWS(ws); err != nil {
			_ = ws.Close()
			return
		}
		hub.log.Debug(r.Context(), "live: client connected", logger.String("remote", r.RemoteAddr))

		// Incoming messages are ignored; reading detects disconnects.
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}

		hub.RemoveWS(ws)
		hub.log.Debug(r.Context(), "live: client disconnected", logger.String("remote", r.RemoteAddr))
	}
}
