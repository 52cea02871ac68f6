// Package feed serves the device inventory and per-device packet feeds to
// vlanwatch consoles.
package feed

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vlanwatch/vlanwatch/internal/capture"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// deviceJSON is the /devices wire form.
type deviceJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Server struct {
	source         capture.Source
	hub            *Hub
	registry       *prometheus.Registry
	allowedOrigins map[string]bool
	allowedHosts   map[string]bool
	upgrader       websocket.Upgrader
}

// NewServer creates a server streaming from source. Subscribers queue up to
// buffer frames each.
func NewServer(source capture.Source, buffer int, allowedOrigins []string) *Server {
	reg := prometheus.NewRegistry()
	s := &Server{
		source:         source,
		hub:            NewHub(buffer, NewMetrics(reg)),
		registry:       reg,
		allowedOrigins: make(map[string]bool),
		allowedHosts:   make(map[string]bool),
	}
	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		s.allowedOrigins[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			s.allowedHosts[parsed.Host] = true
		}
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}
	return s
}

// Hub returns the subscriber registry.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Routes registers the server's handlers on mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /devices", s.handleDevices)
	mux.HandleFunc("GET /ws/{id}", s.handleWS)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	devs, err := s.source.Devices()
	if err != nil {
		log.Printf("feed: list devices: %v", err)
		http.Error(w, "device list unavailable", http.StatusInternalServerError)
		return
	}
	out := make([]deviceJSON, len(devs))
	for i, d := range devs {
		out[i] = deviceJSON{ID: d.ID(), Name: d.Name}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	dev, ok, err := capture.Lookup(s.source, id)
	if err != nil {
		log.Printf("feed: list devices: %v", err)
		http.Error(w, "device list unavailable", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, fmt.Sprintf("device %q not found", id), http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("feed: upgrade error: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	sub := s.hub.Add(conn, id, cancel)
	log.Printf("feed: %s subscribed to %s (%s)", conn.RemoteAddr(), dev.Name, id)

	frames := make(chan capture.Frame, s.hub.buffer)
	go func() {
		if err := s.source.Capture(ctx, dev.Name, frames); err != nil {
			log.Printf("feed: capture on %s: %v", dev.Name, err)
			s.hub.metrics.CaptureErrors.Inc()
		}
		cancel()
	}()

	// Inbound messages are ignored; a read error means the client left.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	s.pump(ctx, sub, frames)
	log.Printf("feed: %s left %s", conn.RemoteAddr(), dev.Name)
}

// pump forwards frames to sub until ctx ends, then removes it.
func (s *Server) pump(ctx context.Context, sub *subscriber, frames <-chan capture.Frame) {
	defer s.hub.Remove(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-frames:
			data, err := json.Marshal(f)
			if err != nil {
				log.Printf("feed: marshal frame: %v", err)
				continue
			}
			s.hub.Send(sub, data)
		}
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(s.allowedOrigins) > 0 {
		if s.allowedOrigins[origin] {
			return true
		}
		if parsed, err := url.Parse(origin); err == nil && parsed.Host != "" {
			return s.allowedHosts[parsed.Host]
		}
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}
	host := parsed.Hostname()
	return parsed.Host == r.Host || host == "localhost" || host == "127.0.0.1" || host == "::1"
}

// ListenAndServe serves mux on host:port.
func ListenAndServe(ctx context.Context, host string, port int, mux *http.ServeMux) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	log.Printf("Feed server listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
