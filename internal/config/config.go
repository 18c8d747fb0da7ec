// Package config loads server configuration from YAML and HOLO_ environment
// variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete server configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Database DatabaseConfig `mapstructure:"database"`
	Replay   ReplayConfig   `mapstructure:"replay"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
}

// ServerConfig holds the listener settings.
type ServerConfig struct {
	GRPC            GRPCConfig      `mapstructure:"grpc"`
	WebSocket       WebSocketConfig `mapstructure:"websocket"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout"`
}

// GRPCConfig configures the gRPC listener.
type GRPCConfig struct {
	Address              string        `mapstructure:"address"`
	MaxConcurrentStreams int           `mapstructure:"max_concurrent_streams"`
	KeepaliveTime        time.Duration `mapstructure:"keepalive_time"`
	KeepaliveTimeout     time.Duration `mapstructure:"keepalive_timeout"`
}

// WebSocketConfig configures the WebSocket listener.
type WebSocketConfig struct {
	Address        string        `mapstructure:"address"`
	Path           string        `mapstructure:"path"`
	ReadBufferSize int           `mapstructure:"read_buffer_size"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// LoggingConfig selects the zap level and encoder.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// EngineConfig tunes the rules engine.
type EngineConfig struct {
	MaxIterations         int      `mapstructure:"max_iterations"`
	ReplacementCategories []string `mapstructure:"replacement_categories"`
	StartingLife          int      `mapstructure:"starting_life"`
	OpeningHand           int      `mapstructure:"opening_hand"`
}

// DatabaseConfig configures the event log store. An empty URL disables it.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
}

// Enabled reports whether a database is configured.
func (c DatabaseConfig) Enabled() bool {
	return strings.TrimSpace(c.URL) != ""
}

// ReplayConfig controls replay recording.
type ReplayConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
}

// CatalogConfig points at the card content file.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// EnvPrefix prefixes every environment override, e.g. HOLO_LOGGING_LEVEL.
const EnvPrefix = "HOLO"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.grpc.address", ":50051")
	v.SetDefault("server.grpc.max_concurrent_streams", 100)
	v.SetDefault("server.grpc.keepalive_time", 30*time.Second)
	v.SetDefault("server.grpc.keepalive_timeout", 10*time.Second)
	v.SetDefault("server.websocket.address", ":8080")
	v.SetDefault("server.websocket.path", "/ws")
	v.SetDefault("server.websocket.read_buffer_size", 4096)
	v.SetDefault("server.websocket.write_timeout", 10*time.Second)
	v.SetDefault("server.websocket.allowed_origins", []string{})
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("engine.max_iterations", 256)
	v.SetDefault("engine.replacement_categories", []string{})
	v.SetDefault("engine.starting_life", 5)
	v.SetDefault("engine.opening_hand", 7)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", time.Hour)
	v.SetDefault("database.connect_timeout", 5*time.Second)

	v.SetDefault("replay.enabled", false)
	v.SetDefault("replay.directory", "replays")

	v.SetDefault("catalog.path", "config/cards.yaml")
}

// Load reads path (if it exists), overlays HOLO_ environment variables and
// validates the result. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			// a missing file falls back to defaults and environment
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level: unknown level %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format: unknown format %q", c.Logging.Format))
	}

	if strings.TrimSpace(c.Server.GRPC.Address) == "" {
		errs = append(errs, errors.New("server.grpc.address is required"))
	}
	if strings.TrimSpace(c.Server.WebSocket.Address) == "" {
		errs = append(errs, errors.New("server.websocket.address is required"))
	}
	if !strings.HasPrefix(c.Server.WebSocket.Path, "/") {
		errs = append(errs, fmt.Errorf("server.websocket.path must start with /: %q", c.Server.WebSocket.Path))
	}

	if c.Engine.MaxIterations <= 0 {
		errs = append(errs, fmt.Errorf("engine.max_iterations must be positive: %d", c.Engine.MaxIterations))
	}
	if c.Engine.StartingLife <= 0 {
		errs = append(errs, fmt.Errorf("engine.starting_life must be positive: %d", c.Engine.StartingLife))
	}
	if c.Engine.OpeningHand < 0 {
		errs = append(errs, fmt.Errorf("engine.opening_hand must not be negative: %d", c.Engine.OpeningHand))
	}

	if c.Database.Enabled() && c.Database.MaxConns <= 0 {
		errs = append(errs, fmt.Errorf("database.max_conns must be positive: %d", c.Database.MaxConns))
	}
	if c.Replay.Enabled && strings.TrimSpace(c.Replay.Directory) == "" {
		errs = append(errs, errors.New("replay.directory is required when replay is enabled"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
