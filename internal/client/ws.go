package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
)

// FeedURL derives the subscription address for deviceID from base: http
// maps to ws and https to wss, the host is kept, and a non-zero feedPort
// replaces the base port.
func FeedURL(base *url.URL, feedPort int, deviceID string) (string, error) {
	if deviceID == "" {
		return "", errors.New("empty device id")
	}
	u := *base
	switch u.Scheme {
	case "https", "wss":
		u.Scheme = "wss"
	case "http", "ws":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported scheme %q", base.Scheme)
	}
	if feedPort > 0 {
		u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(feedPort))
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.JoinPath("ws", url.PathEscape(deviceID)).String(), nil
}

// WSDialer opens packet feeds against one backend.
type WSDialer struct {
	base     *url.URL
	feedPort int
	dialer   *websocket.Dialer
}

// NewWSDialer creates a dialer for feeds under base.
func NewWSDialer(base *url.URL, feedPort int, dialTimeout time.Duration) *WSDialer {
	return &WSDialer{
		base:     base,
		feedPort: feedPort,
		dialer: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: dialTimeout,
		},
	}
}

// Open prepares a feed for deviceID tagged with generation. Nothing is
// dialled until the command returned by Connect runs.
func (d *WSDialer) Open(deviceID string, generation uint64) *WSFeed {
	ctx, cancel := context.WithCancel(context.Background())
	f := &WSFeed{
		deviceID:   deviceID,
		generation: generation,
		dialer:     d.dialer,
		ctx:        ctx,
		cancel:     cancel,
	}
	f.url, f.urlErr = FeedURL(d.base, d.feedPort, deviceID)
	return f
}

// WSFeed is one WebSocket subscription to a device's packet feed. Its
// commands may run concurrently with each other; every message they emit is
// tagged with the feed's generation.
type WSFeed struct {
	deviceID   string
	generation uint64
	url        string
	urlErr     error
	dialer     *websocket.Dialer

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	conn    *websocket.Conn
	closed  bool
	dialing chan struct{} // closed once an in-flight dial has settled
}

// URL returns the address the feed dials.
func (f *WSFeed) URL() string { return f.url }

// Generation returns the generation the feed was opened under.
func (f *WSFeed) Generation() uint64 { return f.generation }

// Connect returns a command that dials the feed and reports FeedOpenedMsg
// or FeedErrorMsg. A feed closed before or during the dial reports nothing.
func (f *WSFeed) Connect() tea.Cmd {
	return func() tea.Msg {
		if f.urlErr != nil {
			f.cancel()
			return FeedErrorMsg{Generation: f.generation, Err: f.urlErr}
		}

		f.mu.Lock()
		if f.closed {
			f.mu.Unlock()
			return nil
		}
		dialing := make(chan struct{})
		f.dialing = dialing
		f.mu.Unlock()

		conn, _, err := f.dialer.DialContext(f.ctx, f.url, nil)

		f.mu.Lock()
		if f.closed {
			if conn != nil {
				conn.Close()
			}
			close(dialing)
			f.mu.Unlock()
			return nil
		}
		if err != nil {
			close(dialing)
			f.mu.Unlock()
			f.cancel()
			log.Printf("ws dial %s: %v", f.url, err)
			return FeedErrorMsg{Generation: f.generation, Err: err}
		}
		f.conn = conn
		close(dialing)
		f.mu.Unlock()

		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongTimeout))
		})
		conn.SetReadDeadline(time.Now().Add(pongTimeout))
		go f.pingLoop(conn)

		return FeedOpenedMsg{Generation: f.generation}
	}
}

// Read returns a command that waits for the next frame. Issue it again
// after each FeedFrameMsg; at most one read may be outstanding.
func (f *WSFeed) Read() tea.Cmd {
	return func() tea.Msg {
		f.mu.Lock()
		conn := f.conn
		f.mu.Unlock()
		if conn == nil {
			return nil
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			if f.ctx.Err() != nil {
				// Operator close; FeedClosedMsg comes from Close.
				return nil
			}
			f.mu.Lock()
			if f.conn == conn {
				f.conn = nil
			}
			f.mu.Unlock()
			conn.Close()
			// A lost feed is never reused; stop its ping loop now.
			f.cancel()
			return FeedErrorMsg{Generation: f.generation, Err: err}
		}
		conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return FeedFrameMsg{Generation: f.generation, Data: data}
	}
}

// Close returns a command that tears the feed down and reports
// FeedClosedMsg once no connection of this feed remains open.
func (f *WSFeed) Close() tea.Cmd {
	return func() tea.Msg {
		f.cancel()

		f.mu.Lock()
		f.closed = true
		conn := f.conn
		f.conn = nil
		dialing := f.dialing
		f.mu.Unlock()

		if dialing != nil {
			<-dialing
		}
		if conn != nil {
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout))
			conn.Close()
		}
		return FeedClosedMsg{Generation: f.generation}
	}
}

// pingLoop keeps the read deadline alive on quiet feeds. It exits when the
// feed is closed or a ping fails.
func (f *WSFeed) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-f.ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
