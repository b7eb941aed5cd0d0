package api

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/example/netwatch/internal/metrics"
	"github.com/example/netwatch/simulation"
)

const (
	writeWait      = 5 * time.Second
	subscriberSend = 8
)

type subscriber struct {
	id   string
	conn *websocket.Conn
	send chan simulation.Event
}

// StreamHub fans simulator events out to websocket subscribers. A slow
// subscriber misses frames rather than stalling the others.
type StreamHub struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	subs     map[string]*subscriber
	metrics  *metrics.Metrics
}

// NewStreamHub builds an empty hub reporting subscriber counts to m.
func NewStreamHub(m *metrics.Metrics) *StreamHub {
	return &StreamHub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		subs:    map[string]*subscriber{},
		metrics: m,
	}
}

// Subscribe upgrades the request and queues initial as the first message.
func (h *StreamHub) Subscribe(w http.ResponseWriter, r *http.Request, initial simulation.Event) {
	c, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed remote=%s err=%v", r.RemoteAddr, err)
		return
	}
	sub := &subscriber{
		id:   uuid.NewString(),
		conn: c,
		send: make(chan simulation.Event, subscriberSend),
	}
	sub.send <- initial

	h.mu.Lock()
	h.subs[sub.id] = sub
	h.mu.Unlock()
	h.metrics.SubscriberJoined()
	log.Printf("stream subscriber connected id=%s remote=%s", sub.id, r.RemoteAddr)

	go h.writeLoop(sub)
	go h.readLoop(sub)
}

// Broadcast queues evt for every subscriber without blocking.
func (h *StreamHub) Broadcast(evt simulation.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		select {
		case sub.send <- evt:
		default:
		}
	}
}

// Len reports the number of connected subscribers.
func (h *StreamHub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// CloseAll disconnects every subscriber.
func (h *StreamHub) CloseAll() {
	h.mu.RLock()
	ids := make([]string, 0, len(h.subs))
	for id := range h.subs {
		ids = append(ids, id)
	}
	h.mu.RUnlock()
	for _, id := range ids {
		h.remove(id)
	}
}

func (h *StreamHub) writeLoop(sub *subscriber) {
	defer sub.conn.Close()
	for evt := range sub.send {
		_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := sub.conn.WriteJSON(evt); err != nil {
			log.Printf("stream write to %s failed: %v", sub.id, err)
			h.remove(sub.id)
			return
		}
	}
	_ = sub.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

// readLoop only watches for the client going away.
func (h *StreamHub) readLoop(sub *subscriber) {
	defer h.remove(sub.id)
	_ = sub.conn.SetReadDeadline(time.Time{})
	for {
		if _, _, err := sub.conn.NextReader(); err != nil {
			return
		}
	}
}

func (h *StreamHub) remove(id string) {
	h.mu.Lock()
	sub, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
		close(sub.send)
	}
	h.mu.Unlock()
	if !ok {
		return
	}
	h.metrics.SubscriberLeft()
	log.Printf("stream subscriber disconnected id=%s", id)
}
