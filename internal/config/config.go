package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration. Values come from the environment
// (after .env), then from the YAML file named by RTMAP_CONFIG, then from
// command line flags.
type Config struct {
	Port     int    `yaml:"port" validate:"min=1,max=65535"`
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	DBDriver string `yaml:"db_driver" validate:"oneof=sqlite3 pgx"`
	DBDSN    string `yaml:"db_dsn" validate:"required"`

	HRDFDir   string `yaml:"hrdf_dir" validate:"required"`
	HRDFURL   string `yaml:"hrdf_url" validate:"omitempty,url"`
	Charset   string `yaml:"charset" validate:"oneof=utf-8 latin1"`
	AgencyID  string `yaml:"agency_id" validate:"required"`
	BuildMode string `yaml:"build_mode" validate:"oneof=shapes directions"`

	MapsAPIKey         string        `yaml:"maps_api_key" validate:"required_if=BuildMode directions"`
	MapsBaseURL        string        `yaml:"maps_base_url" validate:"omitempty,url"`
	MapsRoadsURL       string        `yaml:"maps_roads_url" validate:"omitempty,url"`
	RoutingTimeout     time.Duration `yaml:"routing_timeout" validate:"gt=0"`
	RoutingConcurrency int           `yaml:"routing_concurrency" validate:"min=1"`

	RefreshInterval time.Duration `yaml:"refresh_interval" validate:"gte=0"` // 0 disables refresh
	CORSOrigins     []string      `yaml:"cors_origins"`

	Import bool `yaml:"-"` // import once and exit
}

// Load reads configuration from the environment with defaults and applies
// the optional YAML overlay. It does not validate.
func Load() (*Config, error) {
	// a missing .env is fine
	_ = godotenv.Load()

	cfg := &Config{
		Port:               envInt("RTMAP_PORT", 8080),
		LogLevel:           envStr("RTMAP_LOG_LEVEL", "info"),
		DBDriver:           envStr("RTMAP_DB_DRIVER", "sqlite3"),
		DBDSN:              envStr("RTMAP_DB_DSN", envStr("DATABASE_URL", "./rtmap.db")),
		HRDFDir:            envStr("RTMAP_HRDF_DIR", envStr("HRDF_PATH", "./data")),
		HRDFURL:            envStr("RTMAP_HRDF_URL", ""),
		Charset:            envStr("RTMAP_CHARSET", "latin1"),
		AgencyID:           envStr("RTMAP_AGENCY_ID", envStr("AGENCY_ID", "")),
		BuildMode:          envStr("RTMAP_BUILD_MODE", "shapes"),
		MapsAPIKey:         envStr("RTMAP_MAPS_API_KEY", envStr("MAPS_API_KEY", "")),
		MapsBaseURL:        envStr("RTMAP_MAPS_URL", ""),
		MapsRoadsURL:       envStr("RTMAP_MAPS_ROADS_URL", ""),
		RoutingTimeout:     envDuration("RTMAP_ROUTING_TIMEOUT", 10*time.Second),
		RoutingConcurrency: envInt("RTMAP_ROUTING_CONCURRENCY", 4),
		RefreshInterval:    envDuration("RTMAP_REFRESH_INTERVAL", 0),
		CORSOrigins:        envList("RTMAP_CORS_ORIGINS", []string{"*"}),
		Import:             envBool("RTMAP_IMPORT", false),
	}

	if path := os.Getenv("RTMAP_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Level returns the slog level for LogLevel.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
