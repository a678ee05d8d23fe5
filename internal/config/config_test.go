package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestEmptyConfigDefaults(t *testing.T) {
	t.Setenv(DatabaseURLEnv, "")
	cfg := Empty()

	if got := cfg.GetSerialPort(); got != "/dev/ttyACM0" {
		t.Errorf("GetSerialPort() = %q", got)
	}
	if got := cfg.GetDatabaseDriver(); got != "postgres" {
		t.Errorf("GetDatabaseDriver() = %q", got)
	}
	if got := cfg.GetDatabaseDSN(); got != "postgres://localhost/navlog?sslmode=disable" {
		t.Errorf("GetDatabaseDSN() = %q", got)
	}
	if !cfg.GetSetupDevice() {
		t.Error("GetSetupDevice() = false, want true")
	}
	if cfg.GetIMUDecimation() != 50 || cfg.GetGNSSDecimation() != 4 {
		t.Errorf("decimations = %d, %d, want 50, 4", cfg.GetIMUDecimation(), cfg.GetGNSSDecimation())
	}
	if cfg.GetRetryMax() != 8 {
		t.Errorf("GetRetryMax() = %d, want 8", cfg.GetRetryMax())
	}
	if cfg.GetRetryInitialInterval() != 250*time.Millisecond {
		t.Errorf("GetRetryInitialInterval() = %v", cfg.GetRetryInitialInterval())
	}
	if cfg.GetRetryMaxInterval() != 10*time.Second {
		t.Errorf("GetRetryMaxInterval() = %v", cfg.GetRetryMaxInterval())
	}
	if cfg.GetAdminListen() != "" {
		t.Errorf("GetAdminListen() = %q, want disabled", cfg.GetAdminListen())
	}
	if cfg.GetEventLogSize() != 64 {
		t.Errorf("GetEventLogSize() = %d", cfg.GetEventLogSize())
	}

	opts, err := cfg.PortOptions().Normalise()
	if err != nil {
		t.Fatalf("Normalise() error = %v", err)
	}
	if opts.BaudRate != 115200 {
		t.Errorf("BaudRate = %d, want 115200", opts.BaudRate)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv(DatabaseURLEnv, "")
	path := writeConfig(t, "navlog.json", `{
  "serial_port": "/dev/ttyUSB1",
  "baud_rate": 921600,
  "read_timeout": "50ms",
  "database_driver": "sqlite",
  "database_dsn": "navlog.db",
  "setup_device": false,
  "imu_decimation": 10,
  "retry_max": 0,
  "admin_listen": ":8090"
}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.GetSerialPort() != "/dev/ttyUSB1" {
		t.Errorf("GetSerialPort() = %q", cfg.GetSerialPort())
	}
	opts := cfg.PortOptions()
	if opts.BaudRate != 921600 || opts.ReadTimeout != 50*time.Millisecond {
		t.Errorf("PortOptions() = %+v", opts)
	}
	if cfg.GetDatabaseDriver() != "sqlite" || cfg.GetDatabaseDSN() != "navlog.db" {
		t.Errorf("database = %s %s", cfg.GetDatabaseDriver(), cfg.GetDatabaseDSN())
	}
	if cfg.GetSetupDevice() {
		t.Error("GetSetupDevice() = true, want false")
	}
	if cfg.GetIMUDecimation() != 10 {
		t.Errorf("GetIMUDecimation() = %d, want 10", cfg.GetIMUDecimation())
	}
	// Unset fields keep their defaults.
	if cfg.GetGNSSDecimation() != 4 {
		t.Errorf("GetGNSSDecimation() = %d, want 4", cfg.GetGNSSDecimation())
	}
	if cfg.GetRetryMax() != 0 {
		t.Errorf("GetRetryMax() = %d, want 0", cfg.GetRetryMax())
	}
	if cfg.GetAdminListen() != ":8090" {
		t.Errorf("GetAdminListen() = %q", cfg.GetAdminListen())
	}
}

func TestDatabaseURLEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "navlog.json", `{"database_dsn": "postgres://file/navlog"}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	t.Setenv(DatabaseURLEnv, "postgres://env/navlog")
	if got := cfg.GetDatabaseDSN(); got != "postgres://env/navlog" {
		t.Errorf("GetDatabaseDSN() = %q, want env value", got)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"extension", "navlog.yaml", `{}`, ".json extension"},
		{"syntax", "navlog.json", `{"serial_port": }`, "parse config"},
		{"unknown field", "navlog.json", `{"serial": "/dev/ttyS0"}`, "unknown field"},
		{"bad duration", "navlog.json", `{"read_timeout": "soon"}`, "read_timeout"},
		{"negative duration", "navlog.json", `{"retry_max_interval": "-1s"}`, "must be positive"},
		{"decimation zero", "navlog.json", `{"imu_decimation": 0}`, "imu_decimation"},
		{"decimation too large", "navlog.json", `{"gnss_decimation": 70000}`, "gnss_decimation"},
		{"retry negative", "navlog.json", `{"retry_max": -1}`, "retry_max"},
		{"driver", "navlog.json", `{"database_driver": "mysql"}`, "database_driver"},
		{"baud", "navlog.json", `{"baud_rate": 12345}`, "serial settings"},
		{"event log", "navlog.json", `{"event_log_size": 0}`, "event_log_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.file, tt.body))
			if err == nil {
				t.Fatal("Load() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("Load() expected error for missing file")
	}
}

func TestLoad_TooLarge(t *testing.T) {
	body := `{"serial_port": "` + strings.Repeat("x", 1024*1024) + `"}`
	if _, err := Load(writeConfig(t, "big.json", body)); err == nil || !strings.Contains(err.Error(), "too large") {
		t.Fatalf("Load() error = %v, want size error", err)
	}
}

func TestExampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", ExampleConfigPath))
	if err != nil {
		t.Fatalf("example config does not load: %v", err)
	}
	if cfg.GetAdminListen() == "" {
		t.Error("example config should enable the admin server")
	}
}
