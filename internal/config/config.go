package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	DefaultDuration    = 30 * time.Second
	DefaultMaxPackets  = 100
	DefaultReadTimeout = 1000 * time.Millisecond
	DefaultCacheSize   = 1024
)

// Config holds all application configuration.
type Config struct {
	Interface   string
	Scan        bool
	PMKID       bool
	Correlate   bool
	Duration    time.Duration
	MaxPackets  int
	ReadTimeout time.Duration
	PcapFile    string
	DumpPath    string
	DBPath      string
	HashcatPath string
	OUIDBPath   string
	OUICache    int
	MetricsAddr string
	JSON        bool
	Debug       bool
	Trace       bool
}

// Load parses command line flags and environment variables to populate Config.
// Flags take precedence over environment variables.
func Load() *Config {
	cfg, err := LoadArgs(flag.CommandLine, os.Args[1:])
	if err != nil {
		// flag.CommandLine exits on parse errors; only validation lands here.
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return cfg
}

// LoadArgs registers the flags on fs and parses args.
func LoadArgs(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{}

	// Defaults and Environment Variables
	cfg.Interface = getEnv("PMKSCAN_INTERFACE", "")
	cfg.Correlate = getEnvBool("PMKSCAN_CORRELATE", true)
	cfg.Duration = getEnvDuration("PMKSCAN_DURATION", DefaultDuration)
	cfg.MaxPackets = getEnvInt("PMKSCAN_MAX_PACKETS", DefaultMaxPackets)
	cfg.ReadTimeout = getEnvDuration("PMKSCAN_TIMEOUT", DefaultReadTimeout)
	cfg.DBPath = getEnv("PMKSCAN_DB", "")
	cfg.HashcatPath = getEnv("PMKSCAN_HASHCAT", "")
	cfg.OUIDBPath = getEnv("PMKSCAN_OUI_DB", DefaultOUIDBPath())
	cfg.OUICache = getEnvInt("PMKSCAN_OUI_CACHE", DefaultCacheSize)
	cfg.MetricsAddr = getEnv("PMKSCAN_METRICS", "")
	cfg.Debug = getEnvBool("PMKSCAN_DEBUG", false)

	// Command Line Flags (Override Env)
	fs.StringVar(&cfg.Interface, "i", cfg.Interface, "Wireless interface in monitor mode")
	fs.BoolVar(&cfg.Scan, "scan", false, "Scan for networks")
	fs.BoolVar(&cfg.PMKID, "pmkid", false, "Capture PMKID")
	fs.BoolVar(&cfg.Correlate, "correlate", cfg.Correlate, "Resolve captured PMKIDs to SSIDs seen in beacons")
	fs.Func("d", fmt.Sprintf("PMKID capture duration, seconds or Go duration (default %s)", cfg.Duration), func(s string) error {
		d, err := parseDuration(s)
		if err != nil {
			return err
		}
		cfg.Duration = d
		return nil
	})
	fs.IntVar(&cfg.MaxPackets, "max-packets", cfg.MaxPackets, "Frames read per network scan")
	fs.DurationVar(&cfg.ReadTimeout, "timeout", cfg.ReadTimeout, "Capture read timeout")
	fs.StringVar(&cfg.PcapFile, "r", "", "Read frames from a pcap/pcapng file instead of a live interface")
	fs.StringVar(&cfg.DumpPath, "w", "", "Write every captured frame to a pcap file (empty to disable)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to SQLite results database (empty to disable)")
	fs.StringVar(&cfg.HashcatPath, "o", cfg.HashcatPath, "Append hashcat 22000 lines to this file")
	fs.StringVar(&cfg.OUIDBPath, "oui", cfg.OUIDBPath, "Path to OUI vendor database")
	fs.IntVar(&cfg.OUICache, "oui-cache", cfg.OUICache, "OUI prefixes kept in the vendor lookup cache")
	fs.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "Serve /metrics and /healthz on this address")
	fs.BoolVar(&cfg.JSON, "json", false, "Print results as JSON")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable verbose debug logging")
	fs.BoolVar(&cfg.Debug, "v", cfg.Debug, "Verbose output (same as -debug)")
	fs.BoolVar(&cfg.Trace, "trace", false, "Print OpenTelemetry spans to stderr")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the scanner cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.MaxPackets <= 0 {
		errs = append(errs, fmt.Errorf("max-packets must be positive, got %d", c.MaxPackets))
	}
	if c.Duration <= 0 {
		errs = append(errs, fmt.Errorf("duration must be positive, got %s", c.Duration))
	}
	if c.ReadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.ReadTimeout))
	}
	if c.OUICache < 0 {
		errs = append(errs, fmt.Errorf("oui-cache must not be negative, got %d", c.OUICache))
	}
	return errors.Join(errs...)
}

// parseDuration accepts whole seconds ("30") or a Go duration ("1m30s").
func parseDuration(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := parseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// DefaultOUIDBPath returns ~/.pmkscan/oui.db, or oui.db in the working
// directory when the home directory is unknown. The directory is not created.
func DefaultOUIDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "oui.db"
	}
	return filepath.Join(home, ".pmkscan", "oui.db")
}
