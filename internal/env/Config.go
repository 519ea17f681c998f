// Package env gathers gomacc's runtime configuration: cache bounds and
// log verbosity, each overridable from an environment variable so the
// CLI bootstrap needs no flags for the common case.
package env

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/goma/gomacc/internal/base"
)

const (
	defaultMaxCacheBytes   int64 = 10 << 30 // 10 GiB
	defaultMaxCacheEntries int64 = 1 << 20
	defaultEvictToBytes    int64 = 8 << 30
	defaultEvictToEntries  int64 = 900_000
)

// Config is the fully resolved set of knobs gomacc runs with, built
// once at startup by Load.
type Config struct {
	CacheDir         string
	MaxCacheBytes    int64
	MaxCacheEnt      int64
	EvictToBytes     int64
	EvictToEnt       int64
	Verbose          bool
	LogFile          string
	CacheCompression base.CompressionFormat
}

// Load resolves Config from the process environment, applying the
// same defaults a freshly installed client would use.
func Load() (Config, error) {
	cfg := Config{
		CacheDir:         envOr("GOMACC_CACHE_DIR", defaultCacheDir()),
		MaxCacheBytes:    defaultMaxCacheBytes,
		MaxCacheEnt:      defaultMaxCacheEntries,
		EvictToBytes:     defaultEvictToBytes,
		EvictToEnt:       defaultEvictToEntries,
		Verbose:          envBool("GOMACC_VERBOSE"),
		LogFile:          os.Getenv("GOMACC_LOG_FILE"),
		CacheCompression: compressionFormatOr("GOMACC_CACHE_COMPRESSION", base.COMPRESSION_LZ4),
	}

	var err error
	if cfg.MaxCacheBytes, err = envInt64Or("GOMACC_MAX_CACHE_BYTES", cfg.MaxCacheBytes); err != nil {
		return cfg, err
	}
	if cfg.MaxCacheEnt, err = envInt64Or("GOMACC_MAX_CACHE_ENTRIES", cfg.MaxCacheEnt); err != nil {
		return cfg, err
	}
	if cfg.EvictToBytes, err = envInt64Or("GOMACC_EVICT_TO_BYTES", cfg.EvictToBytes); err != nil {
		return cfg, err
	}
	if cfg.EvictToEnt, err = envInt64Or("GOMACC_EVICT_TO_ENTRIES", cfg.EvictToEnt); err != nil {
		return cfg, err
	}

	cfg.EvictToBytes = base.ClampI64(cfg.EvictToBytes, 0, cfg.MaxCacheBytes)
	cfg.EvictToEnt = base.ClampI64(cfg.EvictToEnt, 0, cfg.MaxCacheEnt)

	return cfg, nil
}

// Apply wires the resolved config into the global logger, matching
// the teacher's pattern of a single entry point that configures
// ambient state after flags are parsed.
func (c Config) Apply() error {
	if c.Verbose {
		base.SetLogLevel(base.LogVerbose)
	}
	if c.LogFile != "" {
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("env: open log file: %w", err)
		}
		base.SetLogOutput(f)
	}
	return nil
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir + "/gomacc"
	}
	return ".gomacc-cache"
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return false
	}
	b, _ := strconv.ParseBool(v)
	return b
}

func compressionFormatOr(key string, fallback base.CompressionFormat) base.CompressionFormat {
	switch strings.ToUpper(os.Getenv(key)) {
	case "ZSTD":
		return base.COMPRESSION_ZSTD
	case "LZ4":
		return base.COMPRESSION_LZ4
	default:
		return fallback
	}
}

func envInt64Or(key string, fallback int64) (int64, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback, fmt.Errorf("env: parse %s: %w", key, err)
	}
	return n, nil
}
