// Package config provides configuration related utilities.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Supported storage drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Default values for config.
const (
	defaultHost                   = "0.0.0.0"
	defaultPort                   = "8000"
	defaultBaseURL                = "http://localhost:8000/e"
	defaultSQLiteDSN              = "file:mappings.db?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate"
	defaultLogPath                = "logs/app.log"
	defaultMaxLogSizeMB           = 5
	defaultMaxLogBackups          = 10
	defaultMaxLogFileLifetimeDays = 14
	defaultPurgeGrace             = 24 * time.Hour
)

// DefaultAddress is the default address to start the server on.
var DefaultAddress = fmt.Sprintf("%s:%s", defaultHost, defaultPort)

// Config represents an application configuration.
type (
	Config struct {
		// Subconfigs.
		Storage Storage `yaml:"storage"`
		Server  Server  `yaml:"http_server"`
		Logger  Logger  `yaml:"logger"`
		Purge   Purge   `yaml:"purge"`
		// TLSEnabled determines whether the server will be started in the TLS mode.
		TLSEnabled Enabled `yaml:"enable_https" env:"ENABLE_HTTPS"`
	}
	// Config for the mapping store.
	Storage struct {
		// One of sqlite3, postgres, memory.
		Driver string `yaml:"driver" env:"STORAGE_DRIVER"`
		// The data source name (DSN) for connecting to the database.
		DSN string `yaml:"dsn" env:"DATABASE_DSN"`
	}
	// Config for server.
	Server struct {
		// Address to run the server.
		RunAddress *NetAddress `yaml:"server_address" env:"SERVER_ADDRESS"`
		// Prefix prepended to slugs in returned short links.
		BaseURL string `yaml:"base_url" env:"BASE_URL"`
		// Read header timeout.
		Timeout time.Duration `yaml:"timeout" env-default:"5s"`
		// Idle timeout.
		IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
		// Shutdown timeout.
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"30s"`
	}
	// Config for application's logger.
	Logger struct {
		// Path to store log files.
		Path string `yaml:"log_path" env:"LOG_PATH"`
		// Application logging level.
		Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
		// Log files details.
		MaxSizeMB  int `yaml:"max_size_mb"`
		MaxBackups int `yaml:"max_backups"`
		MaxAgeDays int `yaml:"max_age_days"`
	}
	// Config for purging mappings marked for deletion.
	Purge struct {
		// How often to purge. Zero disables the janitor.
		Interval time.Duration `yaml:"interval" env:"PURGE_INTERVAL"`
		// How long a mapping stays marked before it is purged.
		Grace time.Duration `yaml:"grace" env:"PURGE_GRACE"`
	}
)

// Interface implementation guards.
var (
	_ flag.Value      = (*NetAddress)(nil)
	_ cleanenv.Setter = (*NetAddress)(nil)
	_ flag.Value      = (*Enabled)(nil)
	_ cleanenv.Setter = (*Enabled)(nil)
)

// NetAddress represents a network address with a host and a port.
type NetAddress string

// NewNetAddress returns a pointer to a new NetAddress with default Host and Port.
func NewNetAddress() *NetAddress {
	a := NetAddress(DefaultAddress)
	return &a
}

// String returns a string representation of the NetAddress in the form "host:port".
func (a *NetAddress) String() string {
	return string(*a)
}

// Set sets the host and port of the NetAddress from a string
// in the form "host:port". An empty host means all interfaces.
func (a *NetAddress) Set(s string) error {
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "https://")

	hp := strings.Split(s, ":")

	if len(hp) != 2 {
		return errors.New("need address in a form host:port")
	}

	if _, err := strconv.Atoi(hp[1]); err != nil {
		return fmt.Errorf("invalid port: %w", err)
	}

	if hp[0] != "" {
		*a = NetAddress(fmt.Sprintf("%s:%s", hp[0], hp[1]))
		return nil
	}

	*a = NetAddress(fmt.Sprintf("%s:%s", defaultHost, hp[1]))
	return nil
}

// SetValue implements cleanenv value setter.
func (a *NetAddress) SetValue(s string) error {
	return a.Set(s)
}

// Enabled implements general setter for boolean values.
// Implements cleanenv value setter.
type Enabled bool

// Set sets Enabled value from string.
func (e *Enabled) Set(s string) error {
	trueValues := []string{
		"true", "1", "t", "T", "TRUE", "True",
	}
	falseValues := []string{
		"false", "0", "f", "F", "FALSE", "False",
	}
	switch {
	case slices.Contains(trueValues, s):
		*e = true
	case slices.Contains(falseValues, s):
		*e = false
	default:
		return fmt.Errorf(
			"invalid value: %q; need boolean value in form: true: %q false: %q",
			s,
			strings.Join(trueValues, "\", \""),
			strings.Join(falseValues, "\", \""),
		)
	}
	return nil
}

// SetValue implements cleanenv value setter.
func (e *Enabled) SetValue(s string) error {
	return e.Set(s)
}

// String returns a string representation of the Enabled value.
func (e *Enabled) String() string {
	return fmt.Sprintf("%v", *e)
}

// IsBoolFlag lets the flag be passed without a value.
func (e *Enabled) IsBoolFlag() bool { return true }

// Validate reports configuration values the application cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite, DriverPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage driver %q requires a DSN", c.Storage.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unsupported storage driver: %q", c.Storage.Driver)
	}
	if c.Server.BaseURL == "" {
		return errors.New("base url is empty")
	}
	if c.Purge.Interval < 0 || c.Purge.Grace < 0 {
		return errors.New("purge interval and grace must not be negative")
	}
	return nil
}

// ShortLink returns the absolute short link of the given slug.
func (c *Config) ShortLink(slug string) string {
	return strings.TrimSuffix(c.Server.BaseURL, "/") + "/" + slug
}

// Order of loading configuration:
// 1. Config file (YAML, JSON supported)
// 2. Flags
// 3. Environment variables

// MustLoad returns an application configuration which is populated
// from the given configuration file, environment variables and flags.
func MustLoad() *Config {
	cfg := defaults()

	// Configuration file path.
	configPath, set := os.LookupEnv("CONFIG")

	if set {
		// Check if file exists.
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			log.Fatalf("config file does not exist: %v", err)
		}

		// Load from config file.
		file, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("failed to open config file: %v", err)
		}
		defer file.Close()

		// Support different file extensions.
		ext := filepath.Ext(configPath)
		switch ext {
		case ".yaml", ".yml":
			if err = cleanenv.ParseYAML(file, cfg); err != nil {
				log.Fatalf("failed to parse config file: %v", err)
			}
		case ".json":
			if err = cleanenv.ParseJSON(file, cfg); err != nil {
				log.Fatalf("failed to parse config file: %v", err)
			}
		default:
			log.Fatalf("unsupported configuration file extension: %q", ext)
		}
	}

	// Read given flags. If not provided use file values.
	flag.Var(cfg.Server.RunAddress, "a", "server start address in form host:port")
	flag.StringVar(&cfg.Server.BaseURL, "b", cfg.Server.BaseURL, "base url of returned short links")
	flag.Var(&cfg.TLSEnabled, "s", "run the server in TLS mode")
	flag.StringVar(&cfg.Storage.Driver, "driver", cfg.Storage.Driver, "storage driver: sqlite3, postgres or memory")
	flag.StringVar(&cfg.Storage.DSN, "d", cfg.Storage.DSN, "storage data source name")
	flag.StringVar(&cfg.Logger.Level, "l", cfg.Logger.Level, "logging level")
	flag.DurationVar(&cfg.Purge.Interval, "purge", cfg.Purge.Interval, "interval of purging marked links, 0 disables")
	flag.Parse()

	// Read environment variables.
	if err := cleanenv.ReadEnv(cfg); err != nil {
		log.Fatalf("failed to read environment variables: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	return cfg
}

// defaults returns a configuration filled with default values.
func defaults() *Config {
	var cfg Config
	cfg.Storage.Driver = DriverSQLite
	cfg.Storage.DSN = defaultSQLiteDSN
	cfg.Server.RunAddress = NewNetAddress()
	cfg.Server.BaseURL = defaultBaseURL
	cfg.Logger.Path = defaultLogPath
	cfg.Logger.MaxSizeMB = defaultMaxLogSizeMB
	cfg.Logger.MaxBackups = defaultMaxLogBackups
	cfg.Logger.MaxAgeDays = defaultMaxLogFileLifetimeDays
	cfg.Purge.Grace = defaultPurgeGrace
	return &cfg
}

// NewForTest returns application configuration for testing.
func NewForTest() *Config {
	return &Config{
		Storage: Storage{
			Driver: DriverMemory,
		},
		Server: Server{
			RunAddress:      NewNetAddress(),
			BaseURL:         defaultBaseURL,
			Timeout:         5 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Logger: Logger{
			Level: "debug",
		},
		Purge: Purge{
			Grace: defaultPurgeGrace,
		},
	}
}
