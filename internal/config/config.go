package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the wikirank configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Reports  ReportsConfig  `yaml:"reports"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// Database drivers.
const (
	DriverMongo  = "mongo"
	DriverRedis  = "redis"
	DriverValkey = "valkey"
	DriverFile   = "file"
)

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // mongo, redis, valkey, file (default: mongo)
	URI              string   `yaml:"uri"`    // mongo
	Addrs            []string `yaml:"addrs"`  // redis, valkey
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	Name             string   `yaml:"name"` // mongo database
	Collection       string   `yaml:"collection"`
	KeyPrefix        string   `yaml:"key_prefix"` // redis, valkey (default: "<collection>:")
	Path             string   `yaml:"path"`       // file: JSONL export
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	QueryTimeout     int      `yaml:"query_timeout_sec"` // 0 = store default
}

// ReportsConfig holds report parameters.
type ReportsConfig struct {
	Language      string `yaml:"language"`
	OverviewLimit int    `yaml:"overview_limit"`
	TopLimit      int    `yaml:"top_limit"`
	Format        string `yaml:"format"` // json, csv
}

// MetricsConfig holds metrics export settings.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"` // node_exporter textfile path; empty disables
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = DriverMongo
	}
	if c.Database.Name == "" {
		c.Database.Name = "cds502_wikirank"
	}
	if c.Database.Collection == "" {
		c.Database.Collection = "articles"
	}
	if c.Database.KeyPrefix == "" {
		c.Database.KeyPrefix = c.Database.Collection + ":"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.QueryTimeout < 0 {
		c.Database.QueryTimeout = 0
	}
	if c.Reports.Language == "" {
		c.Reports.Language = "en"
	}
	if c.Reports.OverviewLimit <= 0 {
		c.Reports.OverviewLimit = 30
	}
	if c.Reports.TopLimit <= 0 {
		c.Reports.TopLimit = 50
	}
	if c.Reports.Format == "" {
		c.Reports.Format = "json"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverMongo:
		if c.Database.URI == "" {
			return fmt.Errorf("database.uri is required for driver %q", c.Database.Driver)
		}
	case DriverRedis, DriverValkey:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	case DriverFile:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("database.driver must be one of mongo, redis, valkey, file, got %q", c.Database.Driver)
	}
	switch c.Reports.Format {
	case "json", "csv":
		// ok
	default:
		return fmt.Errorf("reports.format must be \"json\" or \"csv\", got %q", c.Reports.Format)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
