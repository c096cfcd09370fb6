// Package config loads tilegen configuration from YAML files and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/utkarsh5026/tilegen/biome"
	"github.com/utkarsh5026/tilegen/protocol"
)

// Worker transports.
const (
	TransportLocal   = "local"
	TransportProcess = "process"
)

// Config is the root application configuration.
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Pool   PoolConfig   `mapstructure:"pool"`
	Tile   TileConfig   `mapstructure:"tile"`
	Server ServerConfig `mapstructure:"server"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: console or json
	Format string `mapstructure:"format"`
	// Outputs: stdout, stderr, or file paths
	Outputs []string `mapstructure:"outputs"`

	Rotation    RotationConfig `mapstructure:"rotation"`
	Development bool           `mapstructure:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
	Enable     bool   `mapstructure:"enable"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// PoolConfig configures the worker pool.
type PoolConfig struct {
	// Workers is the pool size; 0 means one per CPU.
	Workers int `mapstructure:"workers"`
	// Transport: local (goroutines) or process (tilegen worker subprocesses)
	Transport        string        `mapstructure:"transport"`
	Codec            string        `mapstructure:"codec"`
	ReadinessTimeout time.Duration `mapstructure:"readiness_timeout"`
	StrictReadiness  bool          `mapstructure:"strict_readiness"`
	// RateLimit caps dispatches per second; 0 disables the limiter.
	RateLimit   float64 `mapstructure:"rate_limit"`
	RateBurst   int     `mapstructure:"rate_burst"`
	CPUAffinity bool    `mapstructure:"cpu_affinity"`
	// WorkerBuffer is how many requests a local worker queues before
	// dispatch blocks.
	WorkerBuffer int `mapstructure:"worker_buffer"`
}

// TileConfig configures tile generation and painting.
type TileConfig struct {
	Seed          uint64 `mapstructure:"seed"`
	Y             int    `mapstructure:"y"`
	ZoomLevel     int    `mapstructure:"zoom_level"`
	CellsPerTile  int    `mapstructure:"cells_per_tile"`
	PixelsPerCell int    `mapstructure:"pixels_per_cell"`
	Size          int    `mapstructure:"size"`
	Grid          bool   `mapstructure:"grid"`
	Labels        bool   `mapstructure:"labels"`
}

// ServerConfig configures the tile HTTP server.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Default returns a Config populated with the reference configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:   "info",
			Format:  "console",
			Outputs: []string{"stderr"},
			Rotation: RotationConfig{
				Filename:   "logs/tilegen.log",
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   true,
			},
		},
		Pool: PoolConfig{
			Transport:        TransportLocal,
			Codec:            protocol.CodecMsgpack,
			ReadinessTimeout: 2 * time.Second,
			RateBurst:        1,
			WorkerBuffer:     1,
		},
		Tile: TileConfig{
			Seed:          1234567890123456789,
			ZoomLevel:     4,
			CellsPerTile:  16,
			PixelsPerCell: 4,
			Size:          512,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// Load reads configuration from path (if non-empty), otherwise it searches
// common locations. Environment variables override file values; they use
// the prefix TILEGEN with `.` and `-` replaced by `_`.
// Example: TILEGEN_POOL_WORKERS=8
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TILEGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	seedDefaults(v, cfg)

	if path == "" {
		path = os.Getenv("TILEGEN_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("tilegen")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".tilegen"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// seedDefaults registers every key so env-only configs work.
func seedDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.development", cfg.Log.Development)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)

	v.SetDefault("pool.workers", cfg.Pool.Workers)
	v.SetDefault("pool.transport", cfg.Pool.Transport)
	v.SetDefault("pool.codec", cfg.Pool.Codec)
	v.SetDefault("pool.readiness_timeout", cfg.Pool.ReadinessTimeout)
	v.SetDefault("pool.strict_readiness", cfg.Pool.StrictReadiness)
	v.SetDefault("pool.rate_limit", cfg.Pool.RateLimit)
	v.SetDefault("pool.rate_burst", cfg.Pool.RateBurst)
	v.SetDefault("pool.cpu_affinity", cfg.Pool.CPUAffinity)
	v.SetDefault("pool.worker_buffer", cfg.Pool.WorkerBuffer)

	v.SetDefault("tile.seed", cfg.Tile.Seed)
	v.SetDefault("tile.y", cfg.Tile.Y)
	v.SetDefault("tile.zoom_level", cfg.Tile.ZoomLevel)
	v.SetDefault("tile.cells_per_tile", cfg.Tile.CellsPerTile)
	v.SetDefault("tile.pixels_per_cell", cfg.Tile.PixelsPerCell)
	v.SetDefault("tile.size", cfg.Tile.Size)
	v.SetDefault("tile.grid", cfg.Tile.Grid)
	v.SetDefault("tile.labels", cfg.Tile.Labels)

	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", cfg.Server.ShutdownTimeout)
}

func (c *Config) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if len(c.Log.Outputs) == 0 {
		c.Log.Outputs = []string{"stderr"}
	}

	c.Pool.Transport = strings.ToLower(strings.TrimSpace(c.Pool.Transport))
	switch c.Pool.Transport {
	case TransportLocal, TransportProcess:
	default:
		return fmt.Errorf("invalid pool.transport: %q", c.Pool.Transport)
	}
	if c.Pool.Workers < 0 {
		return fmt.Errorf("invalid pool.workers: %d", c.Pool.Workers)
	}
	if c.Pool.WorkerBuffer < 0 {
		return fmt.Errorf("invalid pool.worker_buffer: %d", c.Pool.WorkerBuffer)
	}
	if _, err := protocol.LookupCodec(c.Pool.Codec); err != nil {
		return fmt.Errorf("invalid pool.codec: %w", err)
	}

	if c.Tile.Seed == 0 {
		return errors.New("invalid tile.seed: must be non-zero")
	}
	if c.Tile.CellsPerTile <= 0 || c.Tile.PixelsPerCell <= 0 || c.Tile.Size <= 0 {
		return errors.New("invalid tile geometry: cells_per_tile, pixels_per_cell and size must be positive")
	}
	// The generator always renders whole chunks.
	if c.Tile.CellsPerTile != biome.CellsPerChunk {
		return fmt.Errorf("invalid tile.cells_per_tile: %d, the generator renders %d cells per chunk",
			c.Tile.CellsPerTile, biome.CellsPerChunk)
	}
	if c.Tile.PixelsPerCell > biome.MaxPixelsPerCell {
		return fmt.Errorf("invalid tile.pixels_per_cell: %d exceeds %d", c.Tile.PixelsPerCell, biome.MaxPixelsPerCell)
	}
	return nil
}
