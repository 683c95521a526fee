package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	GeminiModel  string `mapstructure:"gemini_model"`
	SaveDir      string `mapstructure:"save_dir"`
	CatalogDir   string `mapstructure:"catalog_dir"` // empty means the embedded catalog
	Seed         int64  `mapstructure:"seed"`        // 0 means time-based
	LogLevel     string `mapstructure:"log_level"`
	LogFormat    string `mapstructure:"log_format"`
	LogFile      string `mapstructure:"log_file"`

	MapSize         int `mapstructure:"map_size"`
	MapMines        int `mapstructure:"map_mines"`
	DangerThreshold int `mapstructure:"danger_threshold"`
	InventoryCap    int `mapstructure:"inventory_cap"`
}

// Offline reports whether flavor text must come from the static provider.
func (c *Config) Offline() bool { return c.GeminiAPIKey == "" }

// SeedOrNow returns the configured seed, or a time-based one.
func (c *Config) SeedOrNow() int64 {
	if c.Seed != 0 {
		return c.Seed
	}
	return time.Now().UnixNano()
}

// New returns a viper instance with defaults, the optional
// truth-eroder.yaml and TE_* environment variables. GEMINI_API_KEY is also
// read without the prefix.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("gemini_model", "gemini-2.5-flash")
	v.SetDefault("save_dir", ".saves")
	v.SetDefault("catalog_dir", "")
	v.SetDefault("seed", 0)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("log_file", "truth-eroder.log")
	v.SetDefault("map_size", 7)
	v.SetDefault("map_mines", 10)
	v.SetDefault("danger_threshold", 15)
	v.SetDefault("inventory_cap", 8)

	v.SetConfigName("truth-eroder")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/truth-eroder")

	v.SetEnvPrefix("TE")
	v.AutomaticEnv()
	_ = v.BindEnv("gemini_api_key", "TE_GEMINI_API_KEY", "GEMINI_API_KEY")
	return v
}

// LoadConfig loads the configuration from v, or from a fresh New() when v is nil.
func LoadConfig(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = New()
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.MapSize < 3 {
		return nil, fmt.Errorf("map_size %d is too small", cfg.MapSize)
	}
	if cfg.MapMines < 0 || cfg.MapMines >= cfg.MapSize*cfg.MapSize {
		return nil, fmt.Errorf("map_mines %d does not fit a %dx%d map", cfg.MapMines, cfg.MapSize, cfg.MapSize)
	}
	if cfg.InventoryCap < 1 {
		return nil, fmt.Errorf("inventory_cap must be positive")
	}
	return &cfg, nil
}
