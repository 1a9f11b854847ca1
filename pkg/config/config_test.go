package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "data/msgstore", cfg.StoreDir)
	assert.Equal(t, 12, cfg.Buckets)
	assert.Equal(t, 10, cfg.StagingTables)
	assert.Equal(t, 30*1024*1024, cfg.WriteBufferSizeMin)
	assert.Equal(t, 60*1024*1024, cfg.WriteBufferSizeMax)
	assert.Equal(t, 30, cfg.OpenRetries)
	assert.Equal(t, 2000, cfg.OpenRetryDelay)
	assert.Equal(t, 2*time.Second, cfg.RetryDelay())
	assert.False(t, cfg.NoSync)

	assert.NoError(t, cfg.Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.yaml")
	data := `
store_dir: /var/lib/burrow/msgstore
buckets: 4
open_retry_delay: 500
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/burrow/msgstore", cfg.StoreDir)
	assert.Equal(t, 4, cfg.Buckets)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryDelay())

	// Untouched keys keep their defaults
	assert.Equal(t, 10, cfg.StagingTables)
	assert.Equal(t, 30, cfg.OpenRetries)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("buckets: [not an int"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}, wantErr: false},
		{name: "empty store dir", mutate: func(c *Config) { c.StoreDir = "" }, wantErr: true},
		{name: "zero buckets", mutate: func(c *Config) { c.Buckets = 0 }, wantErr: true},
		{name: "zero staging tables", mutate: func(c *Config) { c.StagingTables = 0 }, wantErr: true},
		{name: "inverted write buffer bounds", mutate: func(c *Config) {
			c.WriteBufferSizeMin = 64 * 1024 * 1024
			c.WriteBufferSizeMax = 32 * 1024 * 1024
		}, wantErr: true},
		{name: "zero open retries", mutate: func(c *Config) { c.OpenRetries = 0 }, wantErr: true},
		{name: "negative retry delay", mutate: func(c *Config) { c.OpenRetryDelay = -100 }, wantErr: true},
		{name: "equal write buffer bounds", mutate: func(c *Config) {
			c.WriteBufferSizeMin = 32 * 1024 * 1024
			c.WriteBufferSizeMax = 32 * 1024 * 1024
		}, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
