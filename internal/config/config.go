package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ganot/agentic-te/internal/domain/toast"
	"github.com/ganot/agentic-te/internal/policy"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TANDE_"

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Transport TransportConfig `yaml:"transport" toml:"transport"`
	Auth      AuthConfig      `yaml:"auth" toml:"auth"`
	DB        DBConfig        `yaml:"db" toml:"db"`
	Log       LogConfig       `yaml:"log" toml:"log"`
	Demo      DemoConfig      `yaml:"demo" toml:"demo"`
	Policy    policy.Rules    `yaml:"policy" toml:"policy"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" toml:"host"`
	Port            int           `yaml:"port" toml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

type TransportConfig struct {
	// Mode is "http" or "stdio".
	Mode string `yaml:"mode" toml:"mode"`
}

type AuthConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled"`
	// APIKeys maps bearer tokens to tenant ids.
	APIKeys map[string]string `yaml:"api_keys" toml:"api_keys"`
}

type DBConfig struct {
	// Path of the SQLite file; ":memory:" keeps everything in process.
	Path string `yaml:"path" toml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level" toml:"level"`
	// File mirrors logs to a size-capped file when set.
	File      string `yaml:"file" toml:"file"`
	MaxSizeMB int    `yaml:"max_size_mb" toml:"max_size_mb"`
}

type DemoConfig struct {
	ToastWindow       time.Duration `yaml:"toast_window" toml:"toast_window"`
	ToastLimit        int           `yaml:"toast_limit" toml:"toast_limit"`
	SessionTTL        time.Duration `yaml:"session_ttl" toml:"session_ttl"`
	SweepInterval     time.Duration `yaml:"sweep_interval" toml:"sweep_interval"`
	StrictTransitions bool          `yaml:"strict_transitions" toml:"strict_transitions"`
	// FixturesDir overlays JSON files on the embedded fixtures.
	FixturesDir string `yaml:"fixtures_dir" toml:"fixtures_dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
		Transport: TransportConfig{Mode: "http"},
		DB:        DBConfig{Path: "tande.db"},
		Log: LogConfig{
			Level:     "info",
			MaxSizeMB: 10,
		},
		Demo: DemoConfig{
			ToastWindow:       toast.DefaultWindow,
			ToastLimit:        toast.DefaultLimit,
			SessionTTL:        30 * time.Minute,
			SweepInterval:     time.Minute,
			StrictTransitions: true,
		},
		Policy: policy.DefaultRules(),
	}
}

// LoadDotEnv loads .env files into the process environment. Variables
// already set win. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from an optional YAML or TOML file and
// environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv(EnvPrefix + "CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("parse config file: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config file: %w", err)
		}
	}
	return nil
}

func applyEnv(cfg *Config) error {
	env := func(key string) (string, bool) {
		v, ok := os.LookupEnv(EnvPrefix + key)
		return v, ok && v != ""
	}

	if v, ok := env("SERVER_HOST"); ok {
		cfg.Server.Host = v
	}
	if v, ok := env("SERVER_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sSERVER_PORT: %w", EnvPrefix, err)
		}
		cfg.Server.Port = port
	}
	if v, ok := env("TRANSPORT"); ok {
		cfg.Transport.Mode = v
	}
	if v, ok := env("AUTH_ENABLED"); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sAUTH_ENABLED: %w", EnvPrefix, err)
		}
		cfg.Auth.Enabled = enabled
	}
	if v, ok := env("API_KEYS"); ok {
		keys, err := parseAPIKeys(v)
		if err != nil {
			return err
		}
		cfg.Auth.APIKeys = keys
	}
	if v, ok := env("DB_PATH"); ok {
		cfg.DB.Path = v
	}
	if v, ok := env("LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	if v, ok := env("LOG_FILE"); ok {
		cfg.Log.File = v
	}
	if v, ok := env("FIXTURES_DIR"); ok {
		cfg.Demo.FixturesDir = v
	}
	if v, ok := env("STRICT_TRANSITIONS"); ok {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sSTRICT_TRANSITIONS: %w", EnvPrefix, err)
		}
		cfg.Demo.StrictTransitions = strict
	}
	durations := map[string]*time.Duration{
		"TOAST_WINDOW": &cfg.Demo.ToastWindow,
		"SESSION_TTL":  &cfg.Demo.SessionTTL,
	}
	for key, dst := range durations {
		if v, ok := env(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
			}
			*dst = d
		}
	}
	return nil
}

// parseAPIKeys reads "token:tenant,token:tenant".
func parseAPIKeys(s string) (map[string]string, error) {
	keys := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		token, tenant, ok := strings.Cut(pair, ":")
		if !ok || token == "" || tenant == "" {
			return nil, fmt.Errorf("invalid %sAPI_KEYS entry %q: want token:tenant", EnvPrefix, pair)
		}
		keys[token] = tenant
	}
	return keys, nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch c.Transport.Mode {
	case "http", "stdio":
	default:
		errs = append(errs, fmt.Errorf("transport.mode must be http or stdio, got %q", c.Transport.Mode))
	}
	if c.Auth.Enabled && c.Transport.Mode == "http" && len(c.Auth.APIKeys) == 0 {
		errs = append(errs, errors.New("auth.enabled requires at least one api key"))
	}
	if c.Demo.SessionTTL <= 0 {
		errs = append(errs, errors.New("demo.session_ttl must be positive"))
	}
	if c.Demo.SweepInterval <= 0 {
		errs = append(errs, errors.New("demo.sweep_interval must be positive"))
	}
	if c.Policy.ReceiptThreshold < 0 || c.Policy.ApprovalThreshold < 0 || c.Policy.FraudReviewThreshold < 0 {
		errs = append(errs, errors.New("policy thresholds must not be negative"))
	}
	return errors.Join(errs...)
}
