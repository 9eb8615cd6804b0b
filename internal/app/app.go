package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lcalzada-xor/pmkscan/internal/adapters/capture"
	"github.com/lcalzada-xor/pmkscan/internal/adapters/export"
	"github.com/lcalzada-xor/pmkscan/internal/adapters/storage"
	"github.com/lcalzada-xor/pmkscan/internal/adapters/vendor"
	"github.com/lcalzada-xor/pmkscan/internal/adapters/web"
	"github.com/lcalzada-xor/pmkscan/internal/config"
	"github.com/lcalzada-xor/pmkscan/internal/core/domain"
	"github.com/lcalzada-xor/pmkscan/internal/core/ports"
	"github.com/lcalzada-xor/pmkscan/internal/core/services/scanner"
	"github.com/lcalzada-xor/pmkscan/internal/telemetry"
)

// FallbackInterface is used when no interface was given and none can be
// listed.
const FallbackInterface = "wlan0"

// Application holds the core components of the application.
type Application struct {
	Config   *config.Config
	Scanner  *scanner.Scanner
	Store    ports.ResultStore
	Exporter ports.CaptureExporter
	Vendors  ports.VendorResolver

	// Out receives results, Msg receives progress lines. Both default to
	// stdout; with -json progress moves to stderr.
	Out io.Writer
	Msg io.Writer

	source  ports.CaptureSource
	lister  ports.InterfaceLister
	closers []func() error
}

// New creates a new Application instance and bootstraps its components.
func New(cfg *config.Config) (*Application, error) {
	app := &Application{
		Config: cfg,
		Out:    os.Stdout,
		Msg:    os.Stdout,
	}
	if cfg.JSON {
		app.Msg = os.Stderr
	}

	if err := app.bootstrap(); err != nil {
		app.Close()
		return nil, fmt.Errorf("application bootstrap failed: %w", err)
	}
	return app, nil
}

// bootstrap orchestrates the initialization sequence.
func (app *Application) bootstrap() error {
	telemetry.InitMetrics()

	app.initVendors()

	if err := app.initSource(); err != nil {
		return err
	}
	if err := app.initStorage(); err != nil {
		return err
	}
	return app.initExporter()
}

func (app *Application) initVendors() {
	resolver := vendor.Open(app.Config.OUIDBPath, app.Config.OUICache)
	app.Vendors = resolver
	app.closers = append(app.closers, resolver.Close)
}

func (app *Application) initSource() error {
	var src ports.CaptureSource
	if app.Config.PcapFile != "" {
		src = capture.NewFileSource(app.Config.PcapFile)
	} else {
		src = capture.NewLiveSource()
	}
	app.lister = capture.NewInterfaceLister(src)

	if app.Config.DumpPath != "" {
		f, err := os.Create(app.Config.DumpPath)
		if err != nil {
			return fmt.Errorf("failed to create dump file: %w", err)
		}
		app.closers = append(app.closers, f.Close)

		dump, err := capture.NewDumpSource(src, f)
		if err != nil {
			return fmt.Errorf("failed to start dump: %w", err)
		}
		src = dump
	}
	app.source = src
	return nil
}

func (app *Application) initStorage() error {
	if app.Config.DBPath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(app.Config.DBPath), 0755); err != nil {
		return fmt.Errorf("failed to create DB directory: %w", err)
	}

	store, err := storage.NewSQLiteAdapter(app.Config.DBPath, app.Vendors)
	if err != nil {
		return fmt.Errorf("failed to init storage: %w", err)
	}
	app.Store = store
	app.closers = append(app.closers, store.Close)
	return nil
}

func (app *Application) initExporter() error {
	if app.Config.HashcatPath == "" {
		return nil
	}
	w, err := export.OpenHashcatFile(app.Config.HashcatPath)
	if err != nil {
		return fmt.Errorf("failed to open hashcat output: %w", err)
	}
	app.Exporter = w
	app.closers = append(app.closers, w.Close)
	return nil
}

// Close releases everything bootstrap opened, newest first.
func (app *Application) Close() error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}

// Run selects the interface and executes the requested modes. A failing
// mode is reported and does not prevent the next one.
func (app *Application) Run(ctx context.Context) error {
	cfg := app.Config
	app.printf("pmkscan %s - WiFi network and PMKID scanner\n", telemetry.ServiceVersion)
	if cfg.Debug {
		app.printf("Verbose mode enabled\n")
	}

	iface, err := app.selectInterface()
	if err != nil {
		return err
	}
	app.Scanner = scanner.New(app.source, app.lister, scanner.Config{
		Interface:   iface,
		MaxPackets:  cfg.MaxPackets,
		ReadTimeout: cfg.ReadTimeout,
		Promiscuous: true,
	})

	if cfg.MetricsAddr != "" {
		srvCtx, stop := context.WithCancel(ctx)
		defer stop()
		srv := web.NewServer(cfg.MetricsAddr, nil, app.Scanner)
		go func() {
			if err := srv.Run(srvCtx); err != nil {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
	}

	report := export.ScanReport{Interface: iface, Vendors: map[string]string{}}
	var errs []error

	if cfg.Scan {
		networks, err := app.runScan(ctx, iface)
		if err != nil {
			app.printf("Scanning failed: %v\n", err)
			errs = append(errs, err)
		}
		report.Networks = networks
		for _, n := range networks {
			report.Vendors[n.BSSID] = app.Vendors.Vendor(ctx, n.BSSID)
		}
	}

	if cfg.PMKID {
		captures, err := app.runPMKID(ctx, iface)
		if err != nil {
			app.printf("PMKID capture failed: %v\n", err)
			errs = append(errs, err)
		}
		report.PMKIDs = captures
		for _, c := range captures {
			report.Vendors[c.BSSID] = app.Vendors.Vendor(ctx, c.BSSID)
		}
	}

	if !cfg.Scan && !cfg.PMKID {
		app.printf("No mode selected. Use -scan and/or -pmkid.\n")
	}
	if cfg.Interface == "" {
		app.printf("No interface specified. Use -i to specify interface.\n")
	}

	if cfg.JSON {
		if err := export.ExportJSON(app.Out, report); err != nil {
			errs = append(errs, fmt.Errorf("failed to write report: %w", err))
		}
	}
	return errors.Join(errs...)
}

// selectInterface prints the available interfaces and picks the configured
// one, else the first listed, else FallbackInterface.
func (app *Application) selectInterface() (string, error) {
	ifaces, err := app.lister.ListInterfaces()
	if err != nil {
		if app.Config.Interface == "" && !errors.Is(err, ports.ErrNoDevices) {
			return "", fmt.Errorf("failed to list interfaces: %w", err)
		}
		slog.Debug("Interface listing failed", "error", err)
	}
	app.printf("Available interfaces: %s\n", strings.Join(ifaces, ", "))

	iface := app.Config.Interface
	switch {
	case iface != "":
	case len(ifaces) > 0:
		iface = ifaces[0]
	default:
		iface = FallbackInterface
	}
	app.printf("Using interface: %s\n", iface)
	return iface, nil
}

func (app *Application) runScan(ctx context.Context, iface string) ([]domain.Network, error) {
	app.printf("Scanning for networks...\n")

	sessionID := app.beginSession(ctx, "scan", iface)
	networks, err := app.Scanner.Scan(ctx)
	if err != nil {
		app.endSession(ctx, sessionID, 0, 0)
		return nil, err
	}

	if len(networks) == 0 {
		app.printf("No networks found\n")
	} else {
		app.printf("Found %d networks:\n", len(networks))
		for _, n := range networks {
			app.printf("  • %s [%s]\n", n.String(), app.Vendors.Vendor(ctx, n.BSSID))
		}
	}

	if sessionID != "" {
		if err := app.Store.SaveNetworks(ctx, sessionID, networks); err != nil {
			slog.Error("Failed to save networks", "session", sessionID, "error", err)
		}
	}
	app.endSession(ctx, sessionID, len(networks), 0)
	return networks, nil
}

func (app *Application) runPMKID(ctx context.Context, iface string) ([]domain.PMKIDCapture, error) {
	cfg := app.Config
	app.printf("Capturing PMKID for %d seconds...\n", int(cfg.Duration.Seconds()))

	mode := "pmkid"
	run := app.Scanner.CapturePMKID
	if cfg.Correlate {
		mode = "pmkid-correlated"
		run = app.Scanner.CapturePMKIDCorrelated
	}

	sessionID := app.beginSession(ctx, mode, iface)
	captures, err := run(ctx, cfg.Duration)
	if err != nil {
		app.endSession(ctx, sessionID, 0, 0)
		return nil, err
	}

	if len(captures) == 0 {
		app.printf("No PMKID captured\n")
	} else {
		app.printf("Captured %d PMKID(s):\n", len(captures))
		for _, c := range captures {
			app.printf("  • %s [%s]\n", c.Summary(), app.Vendors.Vendor(ctx, c.BSSID))
			app.printf("    Hashcat format: %s\n", c.HashcatFormat)
		}
	}

	if app.Exporter != nil && len(captures) > 0 {
		n, err := app.Exporter.Export(captures)
		if err != nil {
			slog.Error("Failed to export hashcat lines", "path", cfg.HashcatPath, "error", err)
		} else {
			app.printf("Wrote %d new hashcat line(s) to %s\n", n, cfg.HashcatPath)
		}
	}

	if sessionID != "" {
		if err := app.Store.SavePMKIDs(ctx, sessionID, captures); err != nil {
			slog.Error("Failed to save PMKIDs", "session", sessionID, "error", err)
		}
	}
	app.endSession(ctx, sessionID, 0, len(captures))
	return captures, nil
}

func (app *Application) beginSession(ctx context.Context, mode, iface string) string {
	if app.Store == nil {
		return ""
	}
	id, err := app.Store.BeginSession(ctx, mode, iface)
	if err != nil {
		slog.Error("Failed to begin session", "mode", mode, "error", err)
		return ""
	}
	return id
}

func (app *Application) endSession(ctx context.Context, id string, networks, pmkids int) {
	if id == "" {
		return
	}
	if err := app.Store.EndSession(ctx, id, networks, pmkids); err != nil {
		slog.Error("Failed to end session", "session", id, "error", err)
	}
}

func (app *Application) printf(format string, args ...any) {
	fmt.Fprintf(app.Msg, format, args...)
}
