package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Client ClientConfig `yaml:"client"`
	Feed   FeedConfig   `yaml:"feed"`
}

// ClientConfig drives the console: where the inventory and feed live and how
// hard to try reaching them.
type ClientConfig struct {
	BackendBaseURL       string        `yaml:"backend_base_url"`
	FeedPort             int           `yaml:"feed_port"` // 0 keeps the base URL's port
	FetchTimeout         time.Duration `yaml:"fetch_timeout"`
	DialTimeout          time.Duration `yaml:"dial_timeout"`
	ReconnectMaxAttempts int           `yaml:"reconnect_max_attempts"`
	ReconnectBaseDelay   time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay    time.Duration `yaml:"reconnect_max_delay"`
	EventLogCapacity     int           `yaml:"event_log_capacity"`
}

type FeedConfig struct {
	Host             string   `yaml:"host"`
	Port             int      `yaml:"port"`
	Mock             bool     `yaml:"mock"`
	MockRate         int      `yaml:"mock_rate"`
	Snaplen          int      `yaml:"snaplen"`
	Promiscuous      bool     `yaml:"promiscuous"`
	SubscriberBuffer int      `yaml:"subscriber_buffer"`
	AllowedOrigins   []string `yaml:"allowed_origins"`
}

func defaultConfig() *Config {
	return &Config{
		Client: ClientConfig{
			BackendBaseURL:       "http://127.0.0.1:3001",
			FetchTimeout:         5 * time.Second,
			DialTimeout:          5 * time.Second,
			ReconnectMaxAttempts: 3,
			ReconnectBaseDelay:   time.Second,
			ReconnectMaxDelay:    4 * time.Second,
			EventLogCapacity:     1000,
		},
		Feed: FeedConfig{
			Host:             "0.0.0.0",
			Port:             3001,
			MockRate:         50,
			Snaplen:          1600,
			Promiscuous:      true,
			SubscriberBuffer: 64,
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the console or feed server cannot run with.
func (c *Config) Validate() error {
	if _, err := c.Client.BaseURL(); err != nil {
		return err
	}
	if c.Client.FeedPort < 0 || c.Client.FeedPort > 65535 {
		return fmt.Errorf("client.feed_port %d out of range", c.Client.FeedPort)
	}
	if c.Client.FetchTimeout <= 0 {
		return fmt.Errorf("client.fetch_timeout must be positive")
	}
	if c.Client.DialTimeout <= 0 {
		return fmt.Errorf("client.dial_timeout must be positive")
	}
	if c.Client.ReconnectMaxAttempts < 0 {
		return fmt.Errorf("client.reconnect_max_attempts must not be negative")
	}
	if c.Client.ReconnectBaseDelay <= 0 {
		return fmt.Errorf("client.reconnect_base_delay must be positive")
	}
	if c.Client.ReconnectMaxDelay < c.Client.ReconnectBaseDelay {
		return fmt.Errorf("client.reconnect_max_delay must be at least reconnect_base_delay")
	}
	if c.Client.EventLogCapacity <= 0 {
		return fmt.Errorf("client.event_log_capacity must be positive")
	}

	if c.Feed.Port <= 0 || c.Feed.Port > 65535 {
		return fmt.Errorf("feed.port %d out of range", c.Feed.Port)
	}
	if c.Feed.MockRate <= 0 {
		return fmt.Errorf("feed.mock_rate must be positive")
	}
	if c.Feed.Snaplen <= 0 {
		return fmt.Errorf("feed.snaplen must be positive")
	}
	if c.Feed.SubscriberBuffer <= 0 {
		return fmt.Errorf("feed.subscriber_buffer must be positive")
	}
	return nil
}

// BaseURL parses BackendBaseURL. Only http(s) and ws(s) bases are accepted.
func (c ClientConfig) BaseURL() (*url.URL, error) {
	u, err := url.Parse(c.BackendBaseURL)
	if err != nil {
		return nil, fmt.Errorf("client.backend_base_url: %w", err)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return nil, fmt.Errorf("client.backend_base_url: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("client.backend_base_url: missing host")
	}
	return u, nil
}
