package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/vlanwatch/vlanwatch/internal/capture"
	"github.com/vlanwatch/vlanwatch/internal/capture/live"
	"github.com/vlanwatch/vlanwatch/internal/config"
	"github.com/vlanwatch/vlanwatch/internal/feed"
)

func main() {
	mockMode := flag.Bool("mock", false, "Generate synthetic traffic instead of capturing")
	configPath := flag.String("config", "vlanwatch.yaml", "Path to config file")
	port := flag.Int("port", 0, "Override server port")
	iface := flag.String("interface", "", "Print tagged frames from this device to stdout instead of serving")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port > 0 {
		cfg.Feed.Port = *port
	}
	if *mockMode {
		cfg.Feed.Mock = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	var source capture.Source
	if cfg.Feed.Mock {
		log.Printf("Starting in mock mode (%d frames/s per subscriber)", cfg.Feed.MockRate)
		source = capture.NewMockSource(cfg.Feed.MockRate)
	} else {
		log.Println("Starting in capture mode")
		source = live.New(cfg.Feed.Snaplen, cfg.Feed.Promiscuous)
	}

	if *iface != "" {
		runScan(source, *iface)
		return
	}

	if devs, err := source.Devices(); err != nil {
		log.Printf("Warning: cannot list devices: %v", err)
	} else {
		for _, d := range devs {
			log.Printf("Device %s: %s %s", d.ID(), d.Name, d.Description)
		}
	}

	server := feed.NewServer(source, cfg.Feed.SubscriberBuffer, cfg.Feed.AllowedOrigins)
	mux := http.NewServeMux()
	server.Routes(mux)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutting down...")
		server.Hub().CloseAll()
		cancel()
	}()

	if err := feed.ListenAndServe(ctx, cfg.Feed.Host, cfg.Feed.Port, mux); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// runScan captures from one device until interrupted, printing each tagged
// frame.
func runScan(source capture.Source, name string) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("Scanning %s", name)
	n, err := capture.Scan(ctx, source, name, os.Stdout)
	log.Printf("Printed %d tagged frames", n)
	if err != nil {
		log.Fatalf("Capture error: %v", err)
	}
}
