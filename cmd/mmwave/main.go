// Command mmwave runs one TI mmWave People Tracking sensor: it pushes the
// CLI profile over the control channel, decodes the binary frame stream
// from the data channel, and serves frames, statistics, and health data
// over HTTP.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/banshee-data/mmwave.report/internal/api"
	"github.com/banshee-data/mmwave.report/internal/config"
	"github.com/banshee-data/mmwave.report/internal/controlport"
	"github.com/banshee-data/mmwave.report/internal/dataport"
	"github.com/banshee-data/mmwave.report/internal/diag"
	"github.com/banshee-data/mmwave.report/internal/mmwave"
	"github.com/banshee-data/mmwave.report/internal/monitoring"
)

var (
	devMode       = flag.Bool("dev", false, "Run with mock serial ports and a synthetic frame stream")
	listen        = flag.String("listen", ":8080", "Listen address")
	configPath    = flag.String("config", "", "Path to sensor config JSON (optional)")
	controlDev    = flag.String("control-port", "", "Control channel device (overrides config)")
	dataDev       = flag.String("data-port", "", "Data channel device (overrides config)")
	sensorProfile = flag.String("sensor-config", "", "CLI profile to push on startup (overrides config)")
	journalPath   = flag.String("journal", "", "Health journal database path (overrides config)")
	noJournal     = flag.Bool("no-journal", false, "Disable the health journal")
	migrationsDir = flag.String("migrations", diag.DefaultMigrationsDir, "Journal schema migrations directory")
	debugLog      = flag.Bool("debug", false, "Enable debug logging")
)

// synthStream builds a long synthetic frame stream for dev mode: one
// walking target with a small point cloud, frame numbers counting up.
func synthStream(frames int) []byte {
	var stream []byte
	for i := 0; i < frames; i++ {
		phase := float32(i%100) / 100
		points := []mmwave.Point{
			{X: -1 + 2*phase, Y: 3 + phase, Z: 0.9, Doppler: 0.4},
			{X: -1 + 2*phase, Y: 3.1 + phase, Z: 1.1, Doppler: 0.4},
			{X: -0.9 + 2*phase, Y: 3 + phase, Z: 1.4, Doppler: 0.4},
		}
		targets := []mmwave.Target{
			{ID: 1, X: -1 + 2*phase, Y: 3 + phase, Z: 1.0, VX: 0.4, VY: 0.2},
		}
		stream = append(stream, mmwave.EncodeFrame(uint32(i+1), points, targets, mmwave.TargetEncodingLite)...)
	}
	return stream
}

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	if *debugLog {
		monitoring.SetDebug(true)
	}

	cfg := config.Empty()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	controlPath := cfg.GetControlPort()
	if *controlDev != "" {
		controlPath = *controlDev
	}
	dataPath := cfg.GetDataPort()
	if *dataDev != "" {
		dataPath = *dataDev
	}
	profilePath := cfg.GetSensorConfigPath()
	if *sensorProfile != "" {
		profilePath = *sensorProfile
	}
	dbPath := cfg.GetJournalPath()
	if *journalPath != "" {
		dbPath = *journalPath
	}

	registry := prometheus.NewRegistry()
	parser := mmwave.NewParser(mmwave.ParserConfig{
		MaxFrameBytes: cfg.GetMaxFrameBytes(),
		TargetBounds:  cfg.GetTargetBounds(),
		Metrics:       mmwave.NewMetrics(registry),
	})

	var control *controlport.Mux[controlport.SerialPorter]
	var dataPort io.ReadCloser
	if *devMode {
		mockControl := controlport.NewMockPort()
		control = controlport.NewMux[controlport.SerialPorter](mockControl)
		// Roughly ten minutes of frames at 10Hz, paced like the sensor.
		dataPort = dataport.NewMockPort(synthStream(6000), 512, 10*time.Millisecond)
	} else {
		var err error
		control, err = controlport.NewSerialMux(controlPath, cfg.GetControlBaud())
		if err != nil {
			log.Fatalf("Failed to open control port %s: %v", controlPath, err)
		}
		dataPort, err = dataport.Open(dataPath, cfg.GetDataBaud())
		if err != nil {
			log.Fatalf("Failed to open data port %s: %v", dataPath, err)
		}
	}
	defer control.Close()

	reader := dataport.NewReader(dataPort, parser)
	defer reader.Close()

	var journal *diag.Journal
	if !*noJournal {
		var err error
		journal, err = diag.Open(dbPath)
		if err != nil {
			log.Fatalf("Failed to open health journal: %v", err)
		}
		defer journal.Close()
		if err := journal.MigrateUp(*migrationsDir); err != nil {
			log.Fatalf("Failed to migrate health journal: %v", err)
		}
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Control channel console monitor.
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := control.Monitor(ctx); err != nil && err != context.Canceled {
			log.Printf("control port monitor failed: %v", err)
		}
		log.Print("control monitor terminated")
	}()

	// Push the CLI profile (or probe a flash-booting sensor) before
	// expecting data.
	if profilePath != "" {
		f, err := os.Open(profilePath)
		if err != nil {
			log.Fatalf("Failed to open sensor config %s: %v", profilePath, err)
		}
		err = control.SendConfig(ctx, f)
		f.Close()
		if err != nil && !*devMode {
			log.Fatalf("Failed to configure sensor: %v", err)
		}
	} else if !*devMode {
		if err := control.Probe(ctx); err != nil {
			log.Printf("sensor probe failed (continuing, may boot from flash): %v", err)
		}
	}

	// Data channel monitor.
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := reader.Monitor(ctx); err != nil && err != context.Canceled {
			log.Printf("data port monitor failed: %v", err)
		}
		log.Print("data monitor terminated")
	}()

	// Startup stream check: complain loudly if no frames show up.
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := reader.WaitForStream(ctx, cfg.GetStreamDeadline()); err != nil {
			log.Printf("WARNING: %v; is the sensor started?", err)
			return
		}
		log.Print("frame stream established")
	}()

	// Health journal recorder.
	if journal != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			journal.Record(ctx, reader, cfg.GetJournalInterval())
			log.Print("health recorder terminated")
		}()
	}

	// HTTP server.
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		// Admin debugging routes (sensor console, tailsql over the journal).
		control.AttachAdminRoutes(mux)
		if journal != nil {
			if err := journal.AttachAdminRoutes(mux); err != nil {
				log.Printf("failed to attach journal admin routes: %v", err)
			}
		}

		apiMux := api.NewServer(reader, control, journal, registry).ServeMux()
		mux.Handle("/api/", apiMux)
		mux.Handle("/metrics", apiMux)

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			log.Printf("listening on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
