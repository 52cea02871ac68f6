package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/vlanwatch/vlanwatch/internal/app"
	"github.com/vlanwatch/vlanwatch/internal/client"
	"github.com/vlanwatch/vlanwatch/internal/config"
	"github.com/vlanwatch/vlanwatch/internal/session"
)

func main() {
	configPath := flag.String("config", "vlanwatch.yaml", "Path to config file")
	baseURL := flag.String("url", "", "Backend base URL (overrides config)")
	feedPort := flag.Int("feed-port", 0, "Feed port when it differs from the base URL (overrides config)")
	device := flag.String("device", "", "Device id to watch on startup")
	headless := flag.Bool("headless", false, "Run without the UI and print the final counts")
	duration := flag.Duration("duration", 0, "Headless run time (0 runs until interrupted)")
	logPath := flag.String("log", "vlanwatch.log", "Log file for the UI (headless mode logs to stderr)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *baseURL != "" {
		cfg.Client.BackendBaseURL = *baseURL
	}
	if *feedPort != 0 {
		cfg.Client.FeedPort = *feedPort
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	if *headless && *device == "" {
		log.Fatalf("-headless requires -device")
	}

	if !*headless {
		if *logPath == "" {
			log.SetOutput(io.Discard)
		} else {
			f, err := tea.LogToFile(*logPath, "vlanwatch")
			if err != nil {
				log.Fatalf("Failed to open log file: %v", err)
			}
			defer f.Close()
		}
	}

	base, _ := cfg.Client.BaseURL()
	httpClient := client.NewHTTPClient(base, cfg.Client.FetchTimeout)
	dialer := client.NewWSDialer(base, cfg.Client.FeedPort, cfg.Client.DialTimeout)
	ctrl := session.NewController(
		func(deviceID string, generation uint64) session.Feed {
			return dialer.Open(deviceID, generation)
		},
		session.Options{
			MaxAttempts: cfg.Client.ReconnectMaxAttempts,
			BaseDelay:   cfg.Client.ReconnectBaseDelay,
			MaxDelay:    cfg.Client.ReconnectMaxDelay,
			LogCapacity: cfg.Client.EventLogCapacity,
		},
	)

	if *headless {
		runHeadless(ctrl, *device, *duration)
		return
	}

	m := app.New(httpClient, ctrl, *device)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runHeadless(ctrl *session.Controller, device string, duration time.Duration) {
	ctrl.Subscribe(func(t session.Transition) {
		if t.Err != nil {
			log.Printf("%s gen %d: %s -> %s: %v", t.DeviceID, t.Generation, t.From, t.To, t.Err)
			return
		}
		log.Printf("%s gen %d: %s -> %s", t.DeviceID, t.Generation, t.From, t.To)
	})

	h := app.NewHeadless(ctrl, device, duration)
	p := tea.NewProgram(h, tea.WithoutRenderer(), tea.WithInput(nil))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrInterrupted) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	st := h.Final()
	for _, e := range st.Snapshot {
		fmt.Printf("%-10s %s\n", e.Label, humanize.Comma(int64(e.Count)))
	}
	fmt.Printf("%-10s %s\n", "Total", humanize.Comma(int64(st.Totals.Total)))
	if st.Malformed > 0 {
		fmt.Printf("%-10s %s\n", "Malformed", humanize.Comma(int64(st.Malformed)))
	}
	if st.Unreachable {
		fmt.Fprintln(os.Stderr, st.Notice)
		os.Exit(2)
	}
}
