// Command navlog ingests inertial and GNSS telemetry from a navigation
// sensor into a relational database.
//
// Usage:
//
//	navlog [flags]                 run ingestion
//	navlog [flags] migrate <cmd>   manage the database schema
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/navlog/internal/config"
	"github.com/banshee-data/navlog/internal/ingest"
	"github.com/banshee-data/navlog/internal/monitoring"
	"github.com/banshee-data/navlog/internal/serialport"
	"github.com/banshee-data/navlog/internal/store"
	"github.com/banshee-data/navlog/internal/version"
)

var (
	configPath  = flag.String("config", "", "Path to a JSON config file (see config/navlog.example.json)")
	port        = flag.String("port", "", "Serial device path (overrides config)")
	dbDriver    = flag.String("db-driver", "", "Database driver: postgres or sqlite (overrides config)")
	dbDSN       = flag.String("db", "", "Database DSN (overrides config and "+config.DatabaseURLEnv+")")
	replay      = flag.String("replay", "", "Read a recorded byte stream from this file instead of the serial port")
	record      = flag.String("record", "", "Append every byte read from the serial port to this file")
	skipSetup   = flag.Bool("skip-setup", false, "Do not send setup commands to the device")
	listen      = flag.String("listen", "", "Admin HTTP listen address, e.g. localhost:8090 (overrides config)")
	showVersion = flag.Bool("version", false, "Print version information and exit")
)

// openPort opens the sensor's serial port. Replaced in tests.
var openPort serialport.Opener = serialport.Open

// settings is the resolved configuration: file values, then environment,
// then flags.
type settings struct {
	PortPath       string
	Port           serialport.PortOptions
	Driver         string
	DSN            string
	Replay         string
	Record         string
	Setup          bool
	IMUDecimation  uint16
	GNSSDecimation uint16
	Retry          ingest.RetryPolicy
	Listen         string
	EventLogSize   int
}

func loadSettings() (settings, error) {
	cfg := config.Empty()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return settings{}, err
		}
	}

	s := settings{
		PortPath:       cfg.GetSerialPort(),
		Port:           cfg.PortOptions(),
		Driver:         cfg.GetDatabaseDriver(),
		DSN:            cfg.GetDatabaseDSN(),
		Setup:          cfg.GetSetupDevice(),
		IMUDecimation:  cfg.GetIMUDecimation(),
		GNSSDecimation: cfg.GetGNSSDecimation(),
		Retry: ingest.RetryPolicy{
			MaxRetries:      cfg.GetRetryMax(),
			InitialInterval: cfg.GetRetryInitialInterval(),
			MaxInterval:     cfg.GetRetryMaxInterval(),
		},
		Listen:       cfg.GetAdminListen(),
		EventLogSize: cfg.GetEventLogSize(),
		Replay:       *replay,
		Record:       *record,
	}
	if *port != "" {
		s.PortPath = *port
	}
	if *dbDriver != "" {
		s.Driver = *dbDriver
	}
	if *dbDSN != "" {
		s.DSN = *dbDSN
	}
	if *skipSetup {
		s.Setup = false
	}
	if *listen != "" {
		s.Listen = *listen
	}

	if s.Replay != "" {
		if s.Record != "" {
			return settings{}, errors.New("-record cannot be combined with -replay")
		}
		s.Setup = false
	}
	return s, nil
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	s, err := loadSettings()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if flag.Arg(0) == "migrate" {
		db, err := store.Open(s.Driver, s.DSN)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		err = store.RunMigrateCommand(flag.Args()[1:], db, os.Stdin, os.Stdout)
		db.Close()
		if err != nil {
			log.Fatalf("migrate: %v", err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, s)
	stop()
	if err != nil {
		log.Fatalf("navlog: %v", err)
	}
}

// source bundles the packet source with the handles run must release.
type source struct {
	*ingest.StreamSource
	name    string
	command io.Writer // nil when replaying
	closers []io.Closer
}

func (s *source) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			log.Printf("failed to close %s: %v", s.name, err)
		}
	}
}

func openSource(s settings) (*source, error) {
	if s.Replay != "" {
		f, err := os.Open(s.Replay)
		if err != nil {
			return nil, fmt.Errorf("failed to open replay file: %w", err)
		}
		return &source{
			StreamSource: ingest.NewStreamSource(f),
			name:         "replay:" + s.Replay,
			closers:      []io.Closer{f},
		}, nil
	}

	p, err := openPort(s.PortPath, s.Port)
	if err != nil {
		return nil, err
	}
	src := &source{name: s.PortPath, command: p, closers: []io.Closer{p}}

	var r io.Reader = p
	if s.Record != "" {
		f, err := os.OpenFile(s.Record, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			src.Close()
			return nil, fmt.Errorf("failed to open record file: %w", err)
		}
		src.closers = append(src.closers, f)
		r = serialport.NewRecorder(p, f)
		log.Printf("Recording serial data to %s", s.Record)
	}
	src.StreamSource = ingest.NewStreamSource(r)
	return src, nil
}

func startAdmin(addr string, db *store.DB, loop *ingest.Loop) (*http.Server, error) {
	mux := http.NewServeMux()
	if err := db.AttachAdminRoutes(mux); err != nil {
		return nil, err
	}
	loop.AttachAdminRoutes(mux)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Printf("Admin server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("admin server failed: %v", err)
		}
	}()
	return srv, nil
}

// run performs one ingestion session: open the store, migrate, record the
// run, configure the device and process packets until ctx is done or the
// source ends.
func run(ctx context.Context, s settings) error {
	log.Printf("Starting %s", version.String())

	db, err := store.Open(s.Driver, s.DSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.MigrateUp(); err != nil {
		return err
	}

	src, err := openSource(s)
	if err != nil {
		return err
	}
	defer src.Close()

	runID := uuid.New()
	if err := db.BeginRun(ctx, runID, src.name); err != nil {
		return err
	}
	log.Printf("Run %s reading from %s", runID, src.name)

	if s.Setup && src.command != nil {
		if err := ingest.ConfigureDevice(ctx, src.StreamSource, src.command, s.IMUDecimation, s.GNSSDecimation); err != nil {
			return err
		}
		log.Printf("Device configured (IMU decimation %d, GNSS decimation %d)", s.IMUDecimation, s.GNSSDecimation)
	}

	loop := ingest.NewLoop(src, db, ingest.Config{
		Events: monitoring.NewEventLog(s.EventLogSize),
		Retry:  s.Retry,
	})

	if s.Listen != "" {
		srv, err := startAdmin(s.Listen, db, loop)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	runErr := loop.Run(ctx)

	stats := loop.Stats()
	finishCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.FinishRun(finishCtx, runID, stats.RunStats()); err != nil {
		log.Printf("failed to record end of run %s: %v", runID, err)
	}
	log.Printf("Run %s finished: %d packets, %d imu rows, %d gnss rows, %d ignored, %d decode errors, %d write errors",
		runID, stats.Packets, stats.Rows[store.TableIMU], stats.Rows[store.TableGNSS],
		stats.Ignored, stats.DecodeErrors, stats.WriteErrors)
	return runErr
}
