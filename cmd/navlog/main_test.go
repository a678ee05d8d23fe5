package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/navlog/internal/config"
	"github.com/banshee-data/navlog/internal/ingest"
	"github.com/banshee-data/navlog/internal/mip"
	"github.com/banshee-data/navlog/internal/monitoring"
	"github.com/banshee-data/navlog/internal/serialport"
	"github.com/banshee-data/navlog/internal/store"
	"github.com/banshee-data/navlog/internal/testutil"
)

func init() {
	monitoring.SetLogger(nil)
}

// setFlag overrides a flag variable for the duration of a test.
func setFlag[T any](t *testing.T, p *T, v T) {
	t.Helper()
	old := *p
	*p = v
	t.Cleanup(func() { *p = old })
}

func testSettings(t *testing.T) settings {
	return settings{
		Driver:         "sqlite",
		DSN:            filepath.Join(t.TempDir(), "navlog.db"),
		IMUDecimation:  ingest.DefaultIMUDecimation,
		GNSSDecimation: ingest.DefaultGNSSDecimation,
		Retry:          ingest.RetryPolicy{MaxRetries: 1, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond},
		EventLogSize:   8,
	}
}

func telemetry(t *testing.T) []byte {
	var b bytes.Buffer
	b.Write(testutil.Frame(t, mip.DescriptorIMUData, testutil.IMUFields()))
	b.Write(testutil.Frame(t, mip.DescriptorGNSSData, testutil.GNSSFields()))
	b.Write(testutil.Frame(t, mip.DescriptorIMUData, testutil.Without(testutil.IMUFields(), 0x0A)))
	b.Write(testutil.Frame(t, mip.DescriptorIMUData, testutil.IMUFields()))
	return b.Bytes()
}

func openStore(t *testing.T, dsn string) *store.DB {
	t.Helper()
	db, err := store.Open("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLoadSettings_Defaults(t *testing.T) {
	t.Setenv(config.DatabaseURLEnv, "")
	s, err := loadSettings()
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyACM0", s.PortPath)
	assert.Equal(t, "postgres", s.Driver)
	assert.True(t, s.Setup)
	assert.Equal(t, uint16(50), s.IMUDecimation)
	assert.Equal(t, uint16(4), s.GNSSDecimation)
	assert.Equal(t, uint64(8), s.Retry.MaxRetries)
	assert.Empty(t, s.Listen)
}

func TestLoadSettings_FlagsOverrideConfig(t *testing.T) {
	t.Setenv(config.DatabaseURLEnv, "postgres://env/navlog")
	path := filepath.Join(t.TempDir(), "navlog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"serial_port": "/dev/ttyUSB0", "admin_listen": ":9000", "imu_decimation": 25}`), 0o644))

	setFlag(t, configPath, path)
	s, err := loadSettings()
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", s.PortPath)
	assert.Equal(t, ":9000", s.Listen)
	assert.Equal(t, uint16(25), s.IMUDecimation)
	assert.Equal(t, "postgres://env/navlog", s.DSN)

	setFlag(t, port, "/dev/ttyS3")
	setFlag(t, dbDriver, "sqlite")
	setFlag(t, dbDSN, "flag.db")
	setFlag(t, listen, "localhost:1")
	setFlag(t, skipSetup, true)
	s, err = loadSettings()
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyS3", s.PortPath)
	assert.Equal(t, "sqlite", s.Driver)
	assert.Equal(t, "flag.db", s.DSN)
	assert.Equal(t, "localhost:1", s.Listen)
	assert.False(t, s.Setup)
}

func TestLoadSettings_Replay(t *testing.T) {
	setFlag(t, replay, "session.bin")
	s, err := loadSettings()
	require.NoError(t, err)
	assert.False(t, s.Setup, "replay never configures a device")

	setFlag(t, record, "out.bin")
	_, err = loadSettings()
	assert.Error(t, err)
}

func TestLoadSettings_BadConfig(t *testing.T) {
	setFlag(t, configPath, filepath.Join(t.TempDir(), "missing.json"))
	_, err := loadSettings()
	assert.Error(t, err)
}

func TestRun_Replay(t *testing.T) {
	s := testSettings(t)
	s.Replay = filepath.Join(t.TempDir(), "session.bin")
	require.NoError(t, os.WriteFile(s.Replay, telemetry(t), 0o644))

	require.NoError(t, run(context.Background(), s))
	// A second replay of the same file appends the same rows again.
	require.NoError(t, run(context.Background(), s))

	db := openStore(t, s.DSN)
	ctx := context.Background()
	n, err := db.Count(ctx, store.TableIMU)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	n, err = db.Count(ctx, store.TableGNSS)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	runs, err := db.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	for _, r := range runs {
		assert.Equal(t, "replay:"+s.Replay, r.Source)
		assert.True(t, r.FinishedAt.Valid)
		assert.Equal(t, store.RunStats{Packets: 4, IMURows: 2, GNSSRows: 1, DecodeErrors: 1}, r.RunStats)
	}
}

// eofPort ends the stream once the queued bytes are consumed.
type eofPort struct {
	*serialport.TestablePort
}

func (p eofPort) Read(b []byte) (int, error) {
	n, err := p.TestablePort.Read(b)
	if n == 0 && err == nil {
		return 0, io.EOF
	}
	return n, err
}

func TestRun_SerialWithSetupAndRecord(t *testing.T) {
	s := testSettings(t)
	s.Setup = true
	s.PortPath = "/dev/ttyTEST"
	s.Record = filepath.Join(t.TempDir(), "recorded.bin")

	cmds := ingest.SetupCommands(s.IMUDecimation, s.GNSSDecimation)
	tp := serialport.NewTestablePort()
	var sent []byte
	i := 0
	tp.OnWrite = func([]byte) {
		ack, err := mip.ACK(cmds[i], 0)
		require.NoError(t, err)
		tp.AddReadData(ack)
		sent = append(sent, ack...)
		i++
		if i == len(cmds) {
			data := telemetry(t)
			tp.AddReadData(data)
			sent = append(sent, data...)
		}
	}

	var openedPath string
	old := openPort
	openPort = func(path string, opts serialport.PortOptions) (serialport.Port, error) {
		openedPath = path
		return eofPort{tp}, nil
	}
	t.Cleanup(func() { openPort = old })

	require.NoError(t, run(context.Background(), s))

	assert.Equal(t, "/dev/ttyTEST", openedPath)
	assert.Equal(t, len(cmds), i, "every setup command should be sent")
	assert.True(t, tp.Closed)

	recorded, err := os.ReadFile(s.Record)
	require.NoError(t, err)
	assert.Equal(t, sent, recorded)

	db := openStore(t, s.DSN)
	n, err := db.Count(context.Background(), store.TableIMU)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestRun_BadDriver(t *testing.T) {
	s := testSettings(t)
	s.Driver = "oracle"
	assert.Error(t, run(context.Background(), s))
}

func TestRun_MissingReplay(t *testing.T) {
	s := testSettings(t)
	s.Replay = filepath.Join(t.TempDir(), "absent.bin")
	assert.Error(t, run(context.Background(), s))
}
