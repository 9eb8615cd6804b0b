package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/lcalzada-xor/pmkscan/internal/adapters/sniffer/handshake"
	"github.com/lcalzada-xor/pmkscan/internal/adapters/sniffer/parser"
	"github.com/lcalzada-xor/pmkscan/internal/core/domain"
	"github.com/lcalzada-xor/pmkscan/internal/core/ports"
	"github.com/lcalzada-xor/pmkscan/internal/core/services/registry"
	"github.com/lcalzada-xor/pmkscan/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultMaxPackets  = 100
	DefaultReadTimeout = 1000 * time.Millisecond
)

var ErrNoInterface = errors.New("no capture interface configured")

// Config bounds the capture loops.
type Config struct {
	Interface   string
	MaxPackets  int
	ReadTimeout time.Duration
	Promiscuous bool
}

// DefaultConfig returns the standard bounds for iface.
func DefaultConfig(iface string) Config {
	return Config{
		Interface:   iface,
		MaxPackets:  DefaultMaxPackets,
		ReadTimeout: DefaultReadTimeout,
		Promiscuous: true,
	}
}

// Scanner drives a capture source through the frame parsers. Its SSID cache
// persists across calls until cleared.
type Scanner struct {
	source ports.CaptureSource
	lister ports.InterfaceLister
	cfg    Config
	cache  *registry.SSIDCache
	now    func() time.Time
}

// New creates a scanner. A nil lister makes ListInterfaces return the
// source's devices as is.
func New(source ports.CaptureSource, lister ports.InterfaceLister, cfg Config) *Scanner {
	if cfg.MaxPackets <= 0 {
		cfg.MaxPackets = DefaultMaxPackets
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	return &Scanner{
		source: source,
		lister: lister,
		cfg:    cfg,
		cache:  registry.NewSSIDCache(),
		now:    time.Now,
	}
}

// Interface returns the configured capture device.
func (s *Scanner) Interface() string {
	return s.cfg.Interface
}

// Scan reads up to MaxPackets buffers and returns the networks advertised
// in their beacons, one per BSSID, ordered by BSSID. Read timeouts and
// malformed frames count toward the bound and are skipped. Any other read
// error ends the scan early.
func (s *Scanner) Scan(ctx context.Context) ([]domain.Network, error) {
	ctx, span := s.startSpan(ctx, "scanner.Scan")
	defer span.End()

	reader, err := s.open(ctx)
	if err != nil {
		return nil, spanError(span, err)
	}
	defer reader.Close()

	iface := s.cfg.Interface
	networks := registry.NewNetworkRegistry()
	reads := 0
	for reads < s.cfg.MaxPackets && ctx.Err() == nil {
		buf, err := reader.Next()
		reads++
		if err != nil {
			if errors.Is(err, ports.ErrMalformedFrame) {
				telemetry.ReadErrors.WithLabelValues(iface).Inc()
				slog.Debug("Skipping malformed frame", "interface", iface, "error", err)
				continue
			}
			if !isExhausted(err) {
				telemetry.ReadErrors.WithLabelValues(iface).Inc()
			}
			slog.Debug("Discovery stopped by capture source", "interface", iface, "reads", reads, "error", err)
			break
		}
		if buf == nil {
			continue
		}

		kind := s.classify(buf)
		if kind != domain.FrameBeacon {
			continue
		}
		if n, ok := parser.ParseBeacon(buf); ok && networks.Add(ctx, n) {
			telemetry.NetworksDiscovered.WithLabelValues(iface).Inc()
		}
	}

	out := networks.Drain(ctx)
	span.SetAttributes(attribute.Int("reads", reads), attribute.Int("networks", len(out)))
	return out, nil
}

// CapturePMKID reads buffers for duration and returns every PMKID seen,
// attributed to the unknown SSID.
func (s *Scanner) CapturePMKID(ctx context.Context, duration time.Duration) ([]domain.PMKIDCapture, error) {
	return s.capture(ctx, duration, false)
}

// CapturePMKIDCorrelated is CapturePMKID with beacons feeding the SSID
// cache, so captures resolve to the SSID their BSSID last advertised.
func (s *Scanner) CapturePMKIDCorrelated(ctx context.Context, duration time.Duration) ([]domain.PMKIDCapture, error) {
	return s.capture(ctx, duration, true)
}

func (s *Scanner) capture(ctx context.Context, duration time.Duration, correlate bool) ([]domain.PMKIDCapture, error) {
	ctx, span := s.startSpan(ctx, "scanner.CapturePMKID",
		attribute.Bool("correlate", correlate),
		attribute.String("duration", duration.String()),
	)
	defer span.End()

	reader, err := s.open(ctx)
	if err != nil {
		return nil, spanError(span, err)
	}
	defer reader.Close()

	iface := s.cfg.Interface
	correlated := strconv.FormatBool(correlate)
	var captures []domain.PMKIDCapture

	start := s.now()
	for s.now().Sub(start) < duration && ctx.Err() == nil {
		buf, err := reader.Next()
		if err != nil {
			if isExhausted(err) {
				slog.Debug("Capture source exhausted", "interface", iface)
				break
			}
			telemetry.ReadErrors.WithLabelValues(iface).Inc()
			slog.Debug("Capture read failed", "interface", iface, "error", err)
			continue
		}
		if buf == nil {
			continue
		}

		if s.classify(buf) == domain.FrameBeacon && correlate {
			if n, ok := parser.ParseBeacon(buf); ok && !n.IsHidden() {
				s.cache.Observe(ctx, n.BSSID, n.SSID)
			}
		}

		// A buffer can classify as a beacon and still carry the EAPOL
		// ether type, so key extraction runs on every buffer.
		if !parser.IsEAPOL(buf) {
			continue
		}
		frame, err := handshake.ExtractPMKID(buf)
		if err != nil {
			slog.Debug("EAPOL frame without PMKID", "interface", iface, "error", err)
			continue
		}
		ssid := domain.UnknownSSID
		if correlate {
			ssid = s.cache.Resolve(ctx, frame.BSSID)
		}
		c := frame.Capture(ssid)
		captures = append(captures, c)
		telemetry.PMKIDsCaptured.WithLabelValues(iface, correlated).Inc()
		slog.Debug("PMKID captured", "interface", iface, "bssid", c.BSSID, "ssid", c.SSID)
	}

	span.SetAttributes(attribute.Int("pmkids", len(captures)), attribute.Int("cached_ssids", s.cache.Len()))
	return captures, nil
}

// Cache returns a copy of the BSSID to SSID correlations gathered so far.
func (s *Scanner) Cache(ctx context.Context) map[string]string {
	return s.cache.Snapshot(ctx)
}

func (s *Scanner) ClearCache() {
	s.cache.Clear()
}

// ListInterfaces returns candidate capture devices, wireless ones first
// when an interface lister is configured.
func (s *Scanner) ListInterfaces() ([]string, error) {
	if s.lister != nil {
		return s.lister.ListInterfaces()
	}
	devices, err := s.source.ListDevices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}

// open validates the configured interface against the source's devices
// before opening it.
func (s *Scanner) open(ctx context.Context) (ports.PacketReader, error) {
	iface := s.cfg.Interface
	if iface == "" {
		return nil, ErrNoInterface
	}

	devices, err := s.source.ListDevices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	if !slices.Contains(devices, iface) {
		return nil, fmt.Errorf("%w: '%s'", ports.ErrInterfaceNotFound, iface)
	}

	reader, err := s.source.Open(iface, s.cfg.Promiscuous, s.cfg.ReadTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture: %w", err)
	}
	slog.Debug("Capture opened", "interface", iface, "timeout", s.cfg.ReadTimeout)
	return reader, nil
}

func (s *Scanner) classify(buf []byte) domain.FrameKind {
	kind := parser.Classify(buf)
	telemetry.FramesRead.WithLabelValues(s.cfg.Interface).Inc()
	telemetry.FramesClassified.WithLabelValues(s.cfg.Interface, kind.String()).Inc()
	return kind
}

func (s *Scanner) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("interface", s.cfg.Interface))
	return telemetry.Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func isExhausted(err error) bool {
	return errors.Is(err, ports.ErrSourceExhausted) || errors.Is(err, io.EOF)
}
