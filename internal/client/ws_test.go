package client

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
)

func TestFeedURL(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		port     int
		deviceID string
		want     string
	}{
		{"plain", "http://127.0.0.1:3001", 0, "0", "ws://127.0.0.1:3001/ws/0"},
		{"secure", "https://feed.lab", 0, "eth0", "wss://feed.lab/ws/eth0"},
		{"port override", "http://localhost:5173", 3001, "2", "ws://localhost:3001/ws/2"},
		{"port added", "https://feed.lab", 8443, "2", "wss://feed.lab:8443/ws/2"},
		{"ipv6", "http://[::1]:80", 3001, "1", "ws://[::1]:3001/ws/1"},
		{"base path", "http://host/console/", 0, "1", "ws://host/console/ws/1"},
		{"ws base", "ws://host:1", 0, "1", "ws://host:1/ws/1"},
		{"escaped id", "http://host", 0, "a b/c", "ws://host/ws/a%20b%2Fc"},
		{"query dropped", "http://host/?page=1", 0, "1", "ws://host/ws/1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, err := url.Parse(tt.base)
			if err != nil {
				t.Fatal(err)
			}
			got, err := FeedURL(base, tt.port, tt.deviceID)
			if err != nil {
				t.Fatalf("FeedURL() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("FeedURL() = %q, want %q", got, tt.want)
			}
			if base.String() != tt.base {
				t.Errorf("FeedURL mutated base to %q", base.String())
			}
		})
	}
}

func TestFeedURLRejects(t *testing.T) {
	base, _ := url.Parse("http://host")
	if _, err := FeedURL(base, 0, ""); err == nil {
		t.Error("empty device id should fail")
	}
	ftp, _ := url.Parse("ftp://host")
	if _, err := FeedURL(ftp, 0, "1"); err == nil {
		t.Error("ftp scheme should fail")
	}
}

// feedServer upgrades /ws/{id} and hands each connection to serve.
func feedServer(t *testing.T, serve func(id string, conn *websocket.Conn)) (*httptest.Server, *url.URL) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/{id}", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serve(r.PathValue("id"), conn)
	})
	srv := httptest.NewServer(mux)
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	return srv, u
}

// runCmd executes cmd off the test goroutine and fails if it hangs.
func runCmd(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("command did not return")
		return nil
	}
}

func TestWSFeedLifecycle(t *testing.T) {
	gotID := make(chan string, 1)
	srv, base := feedServer(t, func(id string, conn *websocket.Conn) {
		gotID <- id
		conn.WriteMessage(websocket.TextMessage, []byte(`{"src":"A","dst":"B","vlan":10}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"src":"C","dst":"D"}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				conn.Close()
				return
			}
		}
	})
	defer srv.Close()

	feed := NewWSDialer(base, 0, time.Second).Open("eth0", 7)
	if !strings.HasSuffix(feed.URL(), "/ws/eth0") {
		t.Errorf("URL() = %q", feed.URL())
	}

	if msg, ok := runCmd(t, feed.Connect()).(FeedOpenedMsg); !ok || msg.Generation != 7 {
		t.Fatalf("Connect() = %#v, want FeedOpenedMsg{7}", msg)
	}
	if id := <-gotID; id != "eth0" {
		t.Errorf("server saw device %q", id)
	}

	for _, want := range []string{`"vlan":10`, `"src":"C"`} {
		msg, ok := runCmd(t, feed.Read()).(FeedFrameMsg)
		if !ok {
			t.Fatalf("Read() = %#v, want FeedFrameMsg", msg)
		}
		if msg.Generation != 7 || !strings.Contains(string(msg.Data), want) {
			t.Errorf("frame = gen %d %s", msg.Generation, msg.Data)
		}
	}

	if msg, ok := runCmd(t, feed.Close()).(FeedClosedMsg); !ok || msg.Generation != 7 {
		t.Fatalf("Close() = %#v, want FeedClosedMsg{7}", msg)
	}
	if msg := runCmd(t, feed.Read()); msg != nil {
		t.Errorf("Read() after Close = %#v, want nil", msg)
	}
}

func TestWSFeedUnexpectedDisconnect(t *testing.T) {
	srv, base := feedServer(t, func(id string, conn *websocket.Conn) {
		conn.Close()
	})
	defer srv.Close()

	feed := NewWSDialer(base, 0, time.Second).Open("1", 3)
	if _, ok := runCmd(t, feed.Connect()).(FeedOpenedMsg); !ok {
		t.Fatal("Connect() should succeed")
	}
	msg, ok := runCmd(t, feed.Read()).(FeedErrorMsg)
	if !ok {
		t.Fatalf("Read() = %#v, want FeedErrorMsg", msg)
	}
	if msg.Generation != 3 || msg.Err == nil {
		t.Errorf("FeedErrorMsg = %+v", msg)
	}
	select {
	case <-feed.ctx.Done():
	default:
		t.Error("a lost feed should cancel its context so the ping loop exits")
	}
}

func TestWSFeedCloseWhileReading(t *testing.T) {
	srv, base := feedServer(t, func(id string, conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer srv.Close()

	feed := NewWSDialer(base, 0, time.Second).Open("1", 1)
	if _, ok := runCmd(t, feed.Connect()).(FeedOpenedMsg); !ok {
		t.Fatal("Connect() should succeed")
	}

	readDone := make(chan tea.Msg, 1)
	go func() { readDone <- feed.Read()() }()

	if _, ok := runCmd(t, feed.Close()).(FeedClosedMsg); !ok {
		t.Fatal("Close() should confirm")
	}
	select {
	case msg := <-readDone:
		if msg != nil {
			t.Errorf("operator close surfaced %#v from the read loop", msg)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("read loop did not exit after Close")
	}
}

func TestWSFeedDialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base, _ := url.Parse(srv.URL)
	srv.Close()

	feed := NewWSDialer(base, 0, time.Second).Open("1", 9)
	msg, ok := runCmd(t, feed.Connect()).(FeedErrorMsg)
	if !ok || msg.Generation != 9 || msg.Err == nil {
		t.Fatalf("Connect() = %#v, want FeedErrorMsg{9}", msg)
	}
	if feed.ctx.Err() == nil {
		t.Error("a failed dial should cancel the feed context")
	}
}

func TestWSFeedClosedBeforeConnect(t *testing.T) {
	srv, base := feedServer(t, func(id string, conn *websocket.Conn) {
		t.Error("closed feed should never reach the server")
		conn.Close()
	})
	defer srv.Close()

	feed := NewWSDialer(base, 0, time.Second).Open("1", 2)
	if _, ok := runCmd(t, feed.Close()).(FeedClosedMsg); !ok {
		t.Fatal("Close() should confirm")
	}
	if msg := runCmd(t, feed.Connect()); msg != nil {
		t.Errorf("Connect() after Close = %#v, want nil", msg)
	}
}
