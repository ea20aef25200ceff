// Package config handles platform configuration
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every variable, e.g. SNAPDECK_HTTP_ADDR.
const EnvPrefix = "snapdeck"

// AppDirName is the directory created under the user config dir when DATA_DIR is unset.
const AppDirName = "interview-help"

type Config struct {
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8000"`
	GRPCAddr string `envconfig:"GRPC_ADDR" default:":50061"`

	DataDir        string        `envconfig:"DATA_DIR"`
	MaxScreenshots int           `envconfig:"MAX_SCREENSHOTS" default:"5"`
	SettleDelay    time.Duration `envconfig:"SETTLE_DELAY"` // platform default when unset
	ShowDelay      time.Duration `envconfig:"SHOW_DELAY" default:"200ms"`
	MoveStep       int           `envconfig:"MOVE_STEP" default:"60"`

	ProcessingURL     string        `envconfig:"PROCESSING_URL"`
	ProcessingTimeout time.Duration `envconfig:"PROCESSING_TIMEOUT" default:"90s"`

	WSRateLimit float64 `envconfig:"WS_RATE_LIMIT" default:"30"` // messages per second
	WSRateBurst int     `envconfig:"WS_RATE_BURST" default:"30"`

	// AllowedOrigins are host patterns (path.Match syntax, host or host:port)
	// accepted on WebSocket upgrades and cross-origin REST calls.
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"localhost,localhost:*,127.0.0.1,127.0.0.1:*"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads the environment and fills platform-dependent defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = DefaultSettleDelay(runtime.GOOS)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir()
	}
	if cfg.MaxScreenshots <= 0 {
		return nil, fmt.Errorf("failed to load config: MAX_SCREENSHOTS must be positive, got %d", cfg.MaxScreenshots)
	}
	return &cfg, nil
}

// DefaultSettleDelay is how long the overlay is given to disappear before a
// capture. Windows compositors need longer.
func DefaultSettleDelay(goos string) time.Duration {
	if goos == "windows" {
		return 500 * time.Millisecond
	}
	return 300 * time.Millisecond
}

func defaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, AppDirName)
}

// ScreenshotDir holds the primary queue.
func (c *Config) ScreenshotDir() string { return filepath.Join(c.DataDir, "screenshots") }

// ExtraScreenshotDir holds the extra (solutions view) queue.
func (c *Config) ExtraScreenshotDir() string { return filepath.Join(c.DataDir, "extra-screenshots") }

// TempDir holds in-progress captures from temp-file strategies.
func (c *Config) TempDir() string { return filepath.Join(c.DataDir, "temp") }

// SlogLevel parses LogLevel, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
