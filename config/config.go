package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Book struct {
		Symbol   string `yaml:"symbol"`
		Capacity int    `yaml:"capacity"`
		Depth    int    `yaml:"depth"`
	} `yaml:"book"`
	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`
	Server struct {
		GRPCAddr    string `yaml:"grpc_addr"`
		MetricsAddr string `yaml:"metrics_addr"`
	} `yaml:"server"`
	Feed struct {
		Enabled     bool     `yaml:"enabled"`
		Brokers     []string `yaml:"brokers"`
		Topic       string   `yaml:"topic"`
		GroupID     string   `yaml:"group_id"`
		RingSize    uint64   `yaml:"ring_size"`
		MinBytes    int      `yaml:"min_bytes"`
		MaxBytes    int      `yaml:"max_bytes"`
		MaxWaitMs   int      `yaml:"max_wait_ms"`
		CommitBatch int      `yaml:"commit_batch"`
	} `yaml:"feed"`
	Rejects struct {
		Enabled bool   `yaml:"enabled"`
		Topic   string `yaml:"topic"`
	} `yaml:"rejects"`
	Broadcast struct {
		Enabled    bool     `yaml:"enabled"`
		Brokers    []string `yaml:"brokers"`
		Topic      string   `yaml:"topic"`
		IntervalMs int      `yaml:"interval_ms"`
		Format     string   `yaml:"format"`
	} `yaml:"broadcast"`
}

func Default() Config {
	var c Config
	c.Book.Symbol = "BTCUSDT"
	c.Book.Capacity = 128
	c.Book.Depth = 5
	c.Logging.Level = "info"
	c.Logging.Pretty = false
	c.Server.GRPCAddr = ":50051"
	c.Server.MetricsAddr = ":9100"
	c.Feed.Enabled = false
	c.Feed.Brokers = []string{"localhost:9092"}
	c.Feed.Topic = "book.levels"
	c.Feed.GroupID = "topbook"
	c.Feed.RingSize = 1 << 14
	c.Feed.MinBytes = 1
	c.Feed.MaxBytes = 10 << 20
	c.Feed.MaxWaitMs = 50
	c.Feed.CommitBatch = 256
	c.Rejects.Enabled = false
	c.Rejects.Topic = "book.levels.rejected"
	c.Broadcast.Enabled = false
	c.Broadcast.Brokers = []string{"localhost:9092"}
	c.Broadcast.Topic = "book.quotes"
	c.Broadcast.IntervalMs = 250
	c.Broadcast.Format = "json"
	return c
}

// Load reads defaults, then the YAML file at path (if any), then
// TOPBOOK_* environment overrides, and validates the result.
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		path = os.Getenv("TOPBOOK_CONFIG")
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return c, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := c.applyEnv(); err != nil {
		return c, err
	}
	return c, c.Validate()
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("TOPBOOK_SYMBOL"); v != "" {
		c.Book.Symbol = v
	}
	if v := os.Getenv("TOPBOOK_CAPACITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: TOPBOOK_CAPACITY: %w", err)
		}
		c.Book.Capacity = n
	}
	if v := os.Getenv("TOPBOOK_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("TOPBOOK_LOG_PRETTY"); v != "" {
		c.Logging.Pretty = truthy(v)
	}
	if v := os.Getenv("TOPBOOK_GRPC_ADDR"); v != "" {
		c.Server.GRPCAddr = v
	}
	if v := os.Getenv("TOPBOOK_METRICS_ADDR"); v != "" {
		c.Server.MetricsAddr = v
	}
	if v := os.Getenv("TOPBOOK_FEED_ENABLED"); v != "" {
		c.Feed.Enabled = truthy(v)
	}
	if v := os.Getenv("TOPBOOK_KAFKA_BROKERS"); v != "" {
		c.Feed.Brokers = splitCSV(v)
		c.Broadcast.Brokers = splitCSV(v)
	}
	if v := os.Getenv("TOPBOOK_FEED_TOPIC"); v != "" {
		c.Feed.Topic = v
	}
	if v := os.Getenv("TOPBOOK_REJECTS_ENABLED"); v != "" {
		c.Rejects.Enabled = truthy(v)
	}
	if v := os.Getenv("TOPBOOK_BROADCAST_ENABLED"); v != "" {
		c.Broadcast.Enabled = truthy(v)
	}
	if v := os.Getenv("TOPBOOK_BROADCAST_FORMAT"); v != "" {
		c.Broadcast.Format = v
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Book.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("book.capacity must be positive, got %d", c.Book.Capacity))
	}
	if c.Book.Depth < 0 {
		errs = append(errs, fmt.Errorf("book.depth must not be negative, got %d", c.Book.Depth))
	}
	if c.Feed.Enabled {
		if len(c.Feed.Brokers) == 0 || c.Feed.Topic == "" {
			errs = append(errs, errors.New("feed needs brokers and a topic"))
		}
		if c.Feed.GroupID == "" {
			// offsets are committed to the group; without one every commit fails
			errs = append(errs, errors.New("feed.group_id must be set"))
		}
		if r := c.Feed.RingSize; r == 0 || r&(r-1) != 0 {
			errs = append(errs, fmt.Errorf("feed.ring_size must be a power of two, got %d", r))
		}
	}
	if c.Rejects.Enabled && (len(c.Feed.Brokers) == 0 || c.Rejects.Topic == "") {
		errs = append(errs, errors.New("rejects needs feed brokers and a topic"))
	}
	if c.Broadcast.Enabled {
		if len(c.Broadcast.Brokers) == 0 || c.Broadcast.Topic == "" {
			errs = append(errs, errors.New("broadcast needs brokers and a topic"))
		}
		if c.Broadcast.IntervalMs <= 0 {
			errs = append(errs, fmt.Errorf("broadcast.interval_ms must be positive, got %d", c.Broadcast.IntervalMs))
		}
	}
	switch c.Broadcast.Format {
	case "json", "proto":
	default:
		errs = append(errs, fmt.Errorf("broadcast.format must be json or proto, got %q", c.Broadcast.Format))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func truthy(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
