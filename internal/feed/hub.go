package feed

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	cmap "github.com/orcaman/concurrent-map/v2"
)

const writeWait = 10 * time.Second

// subscriber is one WebSocket client of one device's feed.
type subscriber struct {
	id       string
	deviceID string
	conn     *websocket.Conn
	send     chan []byte
	cancel   context.CancelFunc
	once     sync.Once
}

func (s *subscriber) writePump() {
	defer s.conn.Close()
	for msg := range s.send {
		s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.send) })
}

// Hub tracks feed subscribers and owns their write pumps.
type Hub struct {
	subs    cmap.ConcurrentMap[string, *subscriber]
	buffer  int
	nextID  atomic.Uint64
	metrics *Metrics
}

// NewHub creates a hub whose subscribers queue up to buffer frames.
func NewHub(buffer int, metrics *Metrics) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		subs:    cmap.New[*subscriber](),
		buffer:  buffer,
		metrics: metrics,
	}
}

// Add registers conn as a subscriber to deviceID and starts its write pump.
// cancel ends the subscription's capture; the goroutine that sends to the
// subscriber must call Remove once it observes that.
func (h *Hub) Add(conn *websocket.Conn, deviceID string, cancel context.CancelFunc) *subscriber {
	s := &subscriber{
		id:       fmt.Sprintf("%s#%d", conn.RemoteAddr(), h.nextID.Add(1)),
		deviceID: deviceID,
		conn:     conn,
		send:     make(chan []byte, h.buffer),
		cancel:   cancel,
	}
	h.subs.Set(s.id, s)
	h.metrics.Subscribers.Inc()
	go s.writePump()
	return s
}

// Remove unregisters s and lets its write pump finish. It must not race
// with Send for the same subscriber.
func (h *Hub) Remove(s *subscriber) {
	if _, ok := h.subs.Pop(s.id); ok {
		h.metrics.Subscribers.Dec()
	}
	s.close()
}

// Send queues one frame for s. A subscriber that cannot keep up loses the
// frame rather than stalling capture.
func (h *Hub) Send(s *subscriber, msg []byte) bool {
	if !h.subs.Has(s.id) {
		return false
	}
	select {
	case s.send <- msg:
		h.metrics.FramesSent.Inc()
		return true
	default:
		h.metrics.FramesDropped.Inc()
		return false
	}
}

// Count returns the number of open subscriptions.
func (h *Hub) Count() int {
	return h.subs.Count()
}

// Watching reports how many subscribers are attached to deviceID.
func (h *Hub) Watching(deviceID string) int {
	n := 0
	h.subs.IterCb(func(_ string, s *subscriber) {
		if s.deviceID == deviceID {
			n++
		}
	})
	return n
}

// CloseAll cancels every subscription. Each is removed by its own sender.
func (h *Hub) CloseAll() {
	n := 0
	h.subs.IterCb(func(_ string, s *subscriber) {
		s.cancel()
		n++
	})
	log.Printf("feed: closing %d subscribers", n)
}
