package loadbalancer

import (
	"strings"
	"sync"

	"github.com/tair/batch-allocation/pkg/logger"
)

// RoundRobin hands out backend base URLs in turn
type RoundRobin struct {
	mu      sync.Mutex
	servers []string
	picks   []uint64
	current int
}

// NewRoundRobin trims whitespace and trailing slashes so paths can be appended
// directly. Blank entries are dropped.
func NewRoundRobin(servers []string) *RoundRobin {
	pool := make([]string, 0, len(servers))
	for _, s := range servers {
		if s = strings.TrimRight(strings.TrimSpace(s), "/"); s != "" {
			pool = append(pool, s)
		}
	}

	logger.Logger.Info().
		Int("server_count", len(pool)).
		Strs("servers", pool).
		Msg("Round-robin load balancer initialized")

	return &RoundRobin{servers: pool, picks: make([]uint64, len(pool))}
}

// Next returns the next server, or "" when the pool is empty
func (rr *RoundRobin) Next() string {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	if len(rr.servers) == 0 {
		return ""
	}

	i := rr.current
	rr.current = (i + 1) % len(rr.servers)
	rr.picks[i]++
	return rr.servers[i]
}

// GetServers returns a copy of the pool
func (rr *RoundRobin) GetServers() []string {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	return append([]string(nil), rr.servers...)
}

// GetStats reports the pool and how often each server was picked
func (rr *RoundRobin) GetStats() map[string]interface{} {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	picks := make(map[string]uint64, len(rr.servers))
	for i, s := range rr.servers {
		picks[s] = rr.picks[i]
	}

	return map[string]interface{}{
		"algorithm":     "round-robin",
		"server_count":  len(rr.servers),
		"current_index": rr.current,
		"picks":         picks,
	}
}
