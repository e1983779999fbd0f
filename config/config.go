// Package config loads corespot's runtime configuration from the
// environment, in the same getEnv/getEnvAsInt style as the teacher's
// config package.
package config

import (
	"os"
	"strconv"

	"github.com/qfwfq/corespot/internal/orchestrate"
)

// Config is the top-level runtime configuration for a corespot session.
type Config struct {
	// Addr is the host:port of the access point to dial.
	Addr string
	// DialTimeoutMS bounds the initial TCP+handshake dial.
	DialTimeoutMS int
	// CacheDir is where internal/cache stores opaque per-id blobs.
	CacheDir string
	// MusicDir is scanned for local files used to opportunistically
	// enrich track metadata ahead of a browse reply (internal/cache.EnrichFromFile).
	MusicDir string
	// DebugAddr is the listen address for the read-only introspection
	// HTTP API, empty to disable it.
	DebugAddr string

	// RetryMS, MaxBrowseBatch and PlaylistNameByteLimit feed
	// orchestrate.Config directly; see its doc comments.
	RetryMS               int64
	MaxBrowseBatch        int
	PlaylistNameByteLimit int
}

// Load reads Config from the environment, falling back to defaults that
// match a local development access point.
func Load() *Config {
	return &Config{
		Addr:                  getEnv("COREPOT_ADDR", "127.0.0.1:4070"),
		DialTimeoutMS:         getEnvAsInt("COREPOT_DIAL_TIMEOUT_MS", 5000),
		CacheDir:              getEnv("COREPOT_CACHE_DIR", "./data/cache"),
		MusicDir:              getEnv("COREPOT_MUSIC_DIR", "./music"),
		DebugAddr:             getEnv("COREPOT_DEBUG_ADDR", ""),
		RetryMS:               int64(getEnvAsInt("COREPOT_RETRY_MS", 30_000)),
		MaxBrowseBatch:        getEnvAsInt("COREPOT_MAX_BROWSE_BATCH", 50),
		PlaylistNameByteLimit: getEnvAsInt("COREPOT_PLAYLIST_NAME_BYTE_LIMIT", 256),
	}
}

// OrchestrateConfig projects the subset of Config the orchestration layer
// needs into an orchestrate.Config.
func (c *Config) OrchestrateConfig() orchestrate.Config {
	return orchestrate.Config{
		RetryMS:               c.RetryMS,
		MaxBrowseBatch:        c.MaxBrowseBatch,
		PlaylistNameByteLimit: c.PlaylistNameByteLimit,
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultVal int) int {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultVal
}
