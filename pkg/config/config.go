package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultStoreDir is where bucket databases live unless overridden.
	DefaultStoreDir = "data/msgstore"

	// DefaultBuckets is the number of store shards. Every msg ref is
	// owned by exactly one bucket, chosen by hash(ref) mod Buckets.
	DefaultBuckets = 12

	// DefaultStagingTables is the number of shared staging tables,
	// selected by hash(subscriber) mod StagingTables.
	DefaultStagingTables = 10

	// DefaultWriteBufferSizeMin and Max bound the randomized per-bucket
	// write buffer (the backend's initial mmap size). Randomization
	// desynchronizes database growth across buckets.
	DefaultWriteBufferSizeMin = 30 * 1024 * 1024
	DefaultWriteBufferSizeMax = 60 * 1024 * 1024

	// DefaultOpenRetries and DefaultOpenRetryDelay govern the lock-retry
	// loop when a bucket database is still held by a previous process.
	// The delay is in milliseconds.
	DefaultOpenRetries    = 30
	DefaultOpenRetryDelay = 2000
)

// Config holds the message store options.
type Config struct {
	StoreDir           string `yaml:"store_dir"`
	Buckets            int    `yaml:"buckets"`
	StagingTables      int    `yaml:"staging_tables"`
	WriteBufferSizeMin int    `yaml:"write_buffer_size_min"`
	WriteBufferSizeMax int    `yaml:"write_buffer_size_max"`
	OpenRetries        int    `yaml:"open_retries"`

	// OpenRetryDelay is the pause between open attempts, in
	// milliseconds.
	OpenRetryDelay int `yaml:"open_retry_delay"`

	// NoSync is a backend tuning passthrough: skip fsync on commit.
	// Meant for tests and bulk loads only.
	NoSync bool `yaml:"no_sync"`
}

// Default returns a Config populated with the store defaults.
func Default() *Config {
	return &Config{
		StoreDir:           DefaultStoreDir,
		Buckets:            DefaultBuckets,
		StagingTables:      DefaultStagingTables,
		WriteBufferSizeMin: DefaultWriteBufferSizeMin,
		WriteBufferSizeMax: DefaultWriteBufferSizeMax,
		OpenRetries:        DefaultOpenRetries,
		OpenRetryDelay:     DefaultOpenRetryDelay,
	}
}

// RetryDelay returns the open retry delay as a duration.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.OpenRetryDelay) * time.Millisecond
}

// Load reads a YAML config file over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the store cannot run with.
func (c *Config) Validate() error {
	if c.StoreDir == "" {
		return fmt.Errorf("store_dir must not be empty")
	}
	if c.Buckets < 1 {
		return fmt.Errorf("buckets must be at least 1, got %d", c.Buckets)
	}
	if c.StagingTables < 1 {
		return fmt.Errorf("staging_tables must be at least 1, got %d", c.StagingTables)
	}
	if c.WriteBufferSizeMin <= 0 || c.WriteBufferSizeMax < c.WriteBufferSizeMin {
		return fmt.Errorf("write buffer bounds invalid: min=%d max=%d",
			c.WriteBufferSizeMin, c.WriteBufferSizeMax)
	}
	if c.OpenRetries < 1 {
		return fmt.Errorf("open_retries must be at least 1, got %d", c.OpenRetries)
	}
	if c.OpenRetryDelay < 0 {
		return fmt.Errorf("open_retry_delay must not be negative")
	}
	return nil
}
