package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/lcalzada-xor/pmkscan/internal/core/domain"
)

const numShards = 16

type networkShard struct {
	mu       sync.Mutex
	networks map[string]domain.Network
}

// NetworkRegistry collects networks discovered during a scan, keyed by BSSID.
// A later record for the same BSSID replaces the earlier one.
type NetworkRegistry struct {
	shards []*networkShard
}

// NewNetworkRegistry creates a new sharded registry.
func NewNetworkRegistry() *NetworkRegistry {
	r := &NetworkRegistry{
		shards: make([]*networkShard, numShards),
	}
	for i := 0; i < numShards; i++ {
		r.shards[i] = &networkShard{
			networks: make(map[string]domain.Network),
		}
	}
	return r
}

func (r *NetworkRegistry) getShard(bssid string) *networkShard {
	hash := uint32(0)
	for i := 0; i < len(bssid); i++ {
		hash = hash*31 + uint32(bssid[i])
	}
	return r.shards[hash%uint32(len(r.shards))]
}

// Add records n and reports whether its BSSID was new.
func (r *NetworkRegistry) Add(ctx context.Context, n domain.Network) bool {
	shard := r.getShard(n.BSSID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	_, exists := shard.networks[n.BSSID]
	shard.networks[n.BSSID] = n
	return !exists
}

// Drain returns every recorded network ordered by BSSID and empties the
// registry.
func (r *NetworkRegistry) Drain(ctx context.Context) []domain.Network {
	var out []domain.Network
	for _, shard := range r.shards {
		shard.mu.Lock()
		for _, n := range shard.networks {
			out = append(out, n)
		}
		shard.networks = make(map[string]domain.Network)
		shard.mu.Unlock()
	}

	sort.Slice(out, func(i, j int) bool { return out[i].BSSID < out[j].BSSID })
	return out
}

// Len returns the number of distinct BSSIDs recorded.
func (r *NetworkRegistry) Len() int {
	total := 0
	for _, shard := range r.shards {
		shard.mu.Lock()
		total += len(shard.networks)
		shard.mu.Unlock()
	}
	return total
}
