package telemetry

import (
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// FramesRead counts buffers returned by capture readers
	FramesRead = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pmkscan",
			Name:      "frames_read_total",
			Help:      "Total number of buffers read from capture sources",
		},
		[]string{"interface"},
	)

	// FramesClassified counts buffers by frame kind
	FramesClassified = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pmkscan",
			Name:      "frames_classified_total",
			Help:      "Total number of buffers by classified frame kind",
		},
		[]string{"interface", "kind"},
	)

	// ReadErrors counts failed reads that did not end the capture
	ReadErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pmkscan",
			Name:      "read_errors_total",
			Help:      "Total number of transient capture read errors",
		},
		[]string{"interface"},
	)

	// NetworksDiscovered counts distinct BSSIDs found per discovery run
	NetworksDiscovered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pmkscan",
			Name:      "networks_discovered_total",
			Help:      "Total number of distinct BSSIDs found by discovery runs",
		},
		[]string{"interface"},
	)

	// PMKIDsCaptured counts extracted PMKIDs
	PMKIDsCaptured = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pmkscan",
			Name:      "pmkids_captured_total",
			Help:      "Total number of PMKIDs extracted from EAPOL-Key frames",
		},
		[]string{"interface", "correlated"},
	)

	// Ensure metrics are only registered once
	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry.
// It is idempotent.
func InitMetrics() {
	once.Do(func() {
		registerAll(prometheus.DefaultRegisterer)
	})
}

func registerAll(reg prometheus.Registerer) {
	for _, c := range []prometheus.Collector{FramesRead, FramesClassified, ReadErrors, NetworksDiscovered, PMKIDsCaptured} {
		if err := reg.Register(c); err != nil {
			slog.Debug("Metric registration failed", "error", err)
		}
	}
}
