// Package config loads the navlog JSON configuration file. Every field is
// optional; the Get* methods supply defaults for anything left unset.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/navlog/internal/serialport"
)

// ExampleConfigPath is the checked-in example configuration.
const ExampleConfigPath = "config/navlog.example.json"

// DatabaseURLEnv overrides the configured database DSN when set.
const DatabaseURLEnv = "NAVLOG_DATABASE_URL"

const (
	defaultSerialPort     = "/dev/ttyACM0"
	defaultDatabaseDriver = "postgres"
	defaultDatabaseDSN    = "postgres://localhost/navlog?sslmode=disable"
	defaultIMUDecimation  = 50
	defaultGNSSDecimation = 4
	defaultRetryMax       = 8
	defaultRetryInitial   = 250 * time.Millisecond
	defaultRetryMaxWait   = 10 * time.Second
	defaultEventLogSize   = 64
)

// Config is the root of the configuration file.
type Config struct {
	// Serial line
	SerialPort  *string `json:"serial_port,omitempty"`
	BaudRate    *int    `json:"baud_rate,omitempty"`
	Parity      *string `json:"parity,omitempty"`
	ReadTimeout *string `json:"read_timeout,omitempty"` // duration string like "100ms"

	// Storage
	DatabaseDriver *string `json:"database_driver,omitempty"`
	DatabaseDSN    *string `json:"database_dsn,omitempty"`

	// Device setup
	SetupDevice    *bool `json:"setup_device,omitempty"`
	IMUDecimation  *int  `json:"imu_decimation,omitempty"`
	GNSSDecimation *int  `json:"gnss_decimation,omitempty"`

	// Write retry
	RetryMax             *int    `json:"retry_max,omitempty"`
	RetryInitialInterval *string `json:"retry_initial_interval,omitempty"`
	RetryMaxInterval     *string `json:"retry_max_interval,omitempty"`

	// Admin
	AdminListen  *string `json:"admin_listen,omitempty"`
	EventLogSize *int    `json:"event_log_size,omitempty"`
}

// Empty returns a Config with every field unset.
func Empty() *Config {
	return &Config{}
}

// Load reads a Config from a JSON file. The file must have a .json
// extension and be under 1MB.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the values that are set.
func (c *Config) Validate() error {
	for name, v := range map[string]*string{
		"read_timeout":           c.ReadTimeout,
		"retry_initial_interval": c.RetryInitialInterval,
		"retry_max_interval":     c.RetryMaxInterval,
	} {
		if v == nil || *v == "" {
			continue
		}
		d, err := time.ParseDuration(*v)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, *v)
		}
	}

	for name, v := range map[string]*int{
		"imu_decimation":  c.IMUDecimation,
		"gnss_decimation": c.GNSSDecimation,
	} {
		if v != nil && (*v < 1 || *v > 0xFFFF) {
			return fmt.Errorf("%s must be between 1 and 65535, got %d", name, *v)
		}
	}

	if c.RetryMax != nil && *c.RetryMax < 0 {
		return fmt.Errorf("retry_max must be non-negative, got %d", *c.RetryMax)
	}
	if c.EventLogSize != nil && *c.EventLogSize < 1 {
		return fmt.Errorf("event_log_size must be positive, got %d", *c.EventLogSize)
	}
	if c.DatabaseDriver != nil {
		switch *c.DatabaseDriver {
		case "postgres", "postgresql", "sqlite", "sqlite3":
		default:
			return fmt.Errorf("unsupported database_driver %q", *c.DatabaseDriver)
		}
	}
	if _, err := c.PortOptions().Normalise(); err != nil {
		return fmt.Errorf("invalid serial settings: %w", err)
	}
	return nil
}

func durationOr(v *string, def time.Duration) time.Duration {
	if v == nil || *v == "" {
		return def
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return def
	}
	return d
}

// GetSerialPort returns the serial device path.
func (c *Config) GetSerialPort() string {
	if c.SerialPort == nil || *c.SerialPort == "" {
		return defaultSerialPort
	}
	return *c.SerialPort
}

// PortOptions returns the serial line settings. Unset values are left zero
// for serialport.PortOptions.Normalise to fill.
func (c *Config) PortOptions() serialport.PortOptions {
	var opts serialport.PortOptions
	if c.BaudRate != nil {
		opts.BaudRate = *c.BaudRate
	}
	if c.Parity != nil {
		opts.Parity = *c.Parity
	}
	opts.ReadTimeout = durationOr(c.ReadTimeout, 0)
	return opts
}

// GetDatabaseDriver returns the storage driver name.
func (c *Config) GetDatabaseDriver() string {
	if c.DatabaseDriver == nil || *c.DatabaseDriver == "" {
		return defaultDatabaseDriver
	}
	return *c.DatabaseDriver
}

// GetDatabaseDSN returns the storage DSN. NAVLOG_DATABASE_URL takes
// precedence over the file.
func (c *Config) GetDatabaseDSN() string {
	if env := os.Getenv(DatabaseURLEnv); env != "" {
		return env
	}
	if c.DatabaseDSN == nil || *c.DatabaseDSN == "" {
		return defaultDatabaseDSN
	}
	return *c.DatabaseDSN
}

// GetSetupDevice reports whether the device should be configured at start.
func (c *Config) GetSetupDevice() bool {
	if c.SetupDevice == nil {
		return true
	}
	return *c.SetupDevice
}

// GetIMUDecimation returns the IMU stream decimation.
func (c *Config) GetIMUDecimation() uint16 {
	if c.IMUDecimation == nil {
		return defaultIMUDecimation
	}
	return uint16(*c.IMUDecimation)
}

// GetGNSSDecimation returns the GNSS stream decimation.
func (c *Config) GetGNSSDecimation() uint16 {
	if c.GNSSDecimation == nil {
		return defaultGNSSDecimation
	}
	return uint16(*c.GNSSDecimation)
}

// GetRetryMax returns how many times a transient write failure is retried.
func (c *Config) GetRetryMax() uint64 {
	if c.RetryMax == nil {
		return defaultRetryMax
	}
	return uint64(*c.RetryMax)
}

// GetRetryInitialInterval returns the first backoff interval.
func (c *Config) GetRetryInitialInterval() time.Duration {
	return durationOr(c.RetryInitialInterval, defaultRetryInitial)
}

// GetRetryMaxInterval returns the backoff interval cap.
func (c *Config) GetRetryMaxInterval() time.Duration {
	return durationOr(c.RetryMaxInterval, defaultRetryMaxWait)
}

// GetAdminListen returns the admin HTTP address. Empty disables the server.
func (c *Config) GetAdminListen() string {
	if c.AdminListen == nil {
		return ""
	}
	return *c.AdminListen
}

// GetEventLogSize returns how many recent events the debug page keeps.
func (c *Config) GetEventLogSize() int {
	if c.EventLogSize == nil {
		return defaultEventLogSize
	}
	return *c.EventLogSize
}
