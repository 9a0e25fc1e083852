package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/abhinaya/internal/gesture"
	"github.com/ayusman/abhinaya/internal/log"
)

const (
	writeTimeout   = 5 * time.Second
	pingInterval   = 20 * time.Second
	clientSendSize = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Event is the message sent to /api/events subscribers.
type Event struct {
	Gesture   gesture.Kind `json:"gesture"`
	Timestamp int64        `json:"timestamp"` // Unix milliseconds
}

type client struct {
	conn   *websocket.Conn
	remote string
	send   chan []byte
}

// EventHub fans recognized gestures out to WebSocket subscribers. It is a
// gesture.Listener, so it can be registered with the session directly.
//
// A client whose queue is full is disconnected rather than allowed to
// slow down the others.
type EventHub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

// NewEventHub creates an EventHub with no subscribers.
func NewEventHub() *EventHub {
	return &EventHub{clients: make(map[*client]struct{})}
}

// OnGesture broadcasts kind to every connected client.
func (h *EventHub) OnGesture(kind gesture.Kind) {
	msg, err := json.Marshal(Event{Gesture: kind, Timestamp: time.Now().UnixMilli()})
	if err != nil {
		log.Error("failed to encode gesture event", "gesture", kind, "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			log.Warn("dropping slow event subscriber", "remote", c.remote)
			h.removeLocked(c)
		}
	}
}

// Clients returns the number of connected subscribers.
func (h *EventHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every subscriber and refuses new ones.
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade error", "err", err)
		return
	}

	c := &client{
		conn:   conn,
		remote: conn.RemoteAddr().String(),
		send:   make(chan []byte, clientSendSize),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeTimeout))
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	log.Debug("event subscriber connected", "remote", c.remote)

	go h.writeLoop(c)

	// Subscribers only listen; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	h.removeLocked(c)
	h.mu.Unlock()
	log.Debug("event subscriber disconnected", "remote", c.remote)
}

func (h *EventHub) writeLoop(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer c.conn.Close()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(writeTimeout))
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

// removeLocked unregisters c and closes its queue. h.mu must be held.
func (h *EventHub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}
