package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the full daemon configuration, loadable from a YAML file,
// environment variables (WHOISD_ prefix) and command-line flags bound by
// the cobra layer.
type Config struct {
	Server   Server   `mapstructure:"server"`
	Registry Registry `mapstructure:"registry"`
	Cache    Cache    `mapstructure:"cache"`
	Log      Log      `mapstructure:"log"`
	Metrics  Metrics  `mapstructure:"metrics"`
	Keys     Keys     `mapstructure:"keys"`
}

// Server controls the WHOIS TCP listener.
type Server struct {
	Port            int           `mapstructure:"port"`
	ResponseTimeout time.Duration `mapstructure:"response_timeout"`
	MaxParallel     int           `mapstructure:"max_parallel"`
}

// Registry points at the local registry mirror checkout.
type Registry struct {
	Path         string        `mapstructure:"path"`
	SyncInterval time.Duration `mapstructure:"sync_interval"`
}

// Cache places the persistent stores and downloaded helpers.
type Cache struct {
	Dir string `mapstructure:"dir"`
}

// Log controls log verbosity and encoding.
type Log struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// Metrics exposes the Prometheus endpoint when Addr is non-empty.
type Metrics struct {
	Addr string `mapstructure:"addr"`
}

// Keys carries optional upstream API credentials. Features that need a
// missing key report themselves disabled instead of failing.
type Keys struct {
	OMDB       string `mapstructure:"omdb"`
	Steam      string `mapstructure:"steam"`
	CurseForge string `mapstructure:"curseforge"`
	Globalping string `mapstructure:"globalping"`
	Pixiv      string `mapstructure:"pixiv"`
}

// Load reads configuration from the optional file at path, then overlays
// WHOISD_* environment variables and defaults.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetDefault("server.port", 43)
	v.SetDefault("server.response_timeout", 30*time.Second)
	v.SetDefault("server.max_parallel", 32)
	v.SetDefault("registry.path", "registry")
	v.SetDefault("registry.sync_interval", 10*time.Minute)
	v.SetDefault("cache.dir", "cache")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("metrics.addr", "")

	v.SetEnvPrefix("WHOISD")
	v.AutomaticEnv()
	_ = v.BindEnv("keys.omdb", "OMDB_API_KEY")
	_ = v.BindEnv("keys.steam", "STEAM_API_KEY")
	_ = v.BindEnv("keys.curseforge", "CURSEFORGE_API_KEY")
	_ = v.BindEnv("keys.globalping", "GLOBALPING_API_TOKEN")
	_ = v.BindEnv("keys.pixiv", "PIXIV_ACCESS_TOKEN")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the daemon cannot start with.
func (c Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.MaxParallel < 1 {
		return fmt.Errorf("server.max_parallel must be positive")
	}
	if c.Server.ResponseTimeout <= 0 {
		return fmt.Errorf("server.response_timeout must be positive")
	}
	if c.Registry.Path == "" {
		return fmt.Errorf("registry.path must be set")
	}
	if c.Cache.Dir == "" {
		return fmt.Errorf("cache.dir must be set")
	}
	return nil
}
