package capture

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/lcalzada-xor/pmkscan/internal/core/ports"
	"github.com/mdlayher/wifi"
)

// wirelessPrefixes identify likely wireless devices when nl80211 is not
// available.
var wirelessPrefixes = []string{"wlan", "wlp", "en", "eth"}

// InterfaceLister orders a source's devices with wireless ones first.
type InterfaceLister struct {
	source   ports.CaptureSource
	wireless func() ([]string, error)
}

func NewInterfaceLister(source ports.CaptureSource) *InterfaceLister {
	return &InterfaceLister{source: source, wireless: nl80211Interfaces}
}

// ListInterfaces returns the source devices known to nl80211, else those
// matching a wireless name prefix, else every device.
func (l *InterfaceLister) ListInterfaces() ([]string, error) {
	devices, err := l.source.ListDevices()
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, ports.ErrNoDevices
	}

	if names, err := l.wireless(); err != nil {
		slog.Debug("nl80211 enumeration unavailable", "error", err)
	} else if picked := intersect(devices, names); len(picked) > 0 {
		return picked, nil
	}

	var picked []string
	for _, d := range devices {
		for _, p := range wirelessPrefixes {
			if strings.HasPrefix(d, p) {
				picked = append(picked, d)
				break
			}
		}
	}
	if len(picked) > 0 {
		return picked, nil
	}
	return devices, nil
}

func intersect(devices, names []string) []string {
	known := make(map[string]struct{}, len(names))
	for _, n := range names {
		known[n] = struct{}{}
	}
	var out []string
	for _, d := range devices {
		if _, ok := known[d]; ok {
			out = append(out, d)
		}
	}
	return out
}

func nl80211Interfaces() ([]string, error) {
	c, err := wifi.New()
	if err != nil {
		return nil, fmt.Errorf("wifi client: %w", err)
	}
	defer c.Close()

	ifis, err := c.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("wifi interfaces: %w", err)
	}
	names := make([]string, 0, len(ifis))
	for _, ifi := range ifis {
		if ifi.Name != "" {
			names = append(names, ifi.Name)
		}
	}
	return names, nil
}
