package registry

import (
	"context"
	"sync"

	"github.com/lcalzada-xor/pmkscan/internal/core/domain"
)

// SSIDCache maps BSSIDs to the SSID last advertised in their beacons.
// It outlives individual scans until cleared.
type SSIDCache struct {
	ssids map[string]string
	mu    sync.RWMutex
}

// NewSSIDCache creates an empty cache.
func NewSSIDCache() *SSIDCache {
	return &SSIDCache{
		ssids: make(map[string]string),
	}
}

// Observe records the SSID advertised by bssid. Empty values are ignored.
func (c *SSIDCache) Observe(ctx context.Context, bssid, ssid string) {
	if bssid == "" || ssid == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ssids[bssid] = ssid
}

// Resolve returns the cached SSID for bssid, or domain.UnknownSSID.
func (c *SSIDCache) Resolve(ctx context.Context, bssid string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if ssid, ok := c.ssids[bssid]; ok {
		return ssid
	}
	return domain.UnknownSSID
}

// Snapshot returns a copy of the cache contents.
func (c *SSIDCache) Snapshot(ctx context.Context) map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	copy := make(map[string]string, len(c.ssids))
	for k, v := range c.ssids {
		copy[k] = v
	}
	return copy
}

// Len returns the number of cached BSSIDs.
func (c *SSIDCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ssids)
}

// Clear wipes the cache.
func (c *SSIDCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ssids = make(map[string]string)
}
