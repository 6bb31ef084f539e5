// Package wins implements the WINS resolution method: tag-partitioned,
// concurrent-across-tags, sequential-within-a-tag unicast name queries
// against configured WINS servers, with a cooldown map remembering which
// servers recently timed out.
package wins

import (
	"sync"
	"time"

	"github.com/netbios-go/nbtresolve/internal/obs"
)

// deadKey identifies one WINS server as seen from one source address —
// the same server may be reachable from one local interface and
// unreachable from another, so dead-marking is scoped to the pair rather
// than the server alone.
type deadKey struct {
	server string
	source string
}

// DeadServerMap tracks WINS servers that recently failed to answer within
// their deadline, so later queries skip them until the cooldown expires.
// This adapts the teacher's internal/security.RateLimiter's
// map-plus-mutex-plus-expiry shape (here a single map behind one RWMutex),
// repurposed from "is this source IP sending too fast" to "is this server
// worth trying right now".
type DeadServerMap struct {
	mu       sync.RWMutex
	cooldown time.Duration
	dead     map[deadKey]time.Time // value: when the entry stops counting as dead
	metrics  *obs.Metrics
}

// NewDeadServerMap creates a map marking servers dead for cooldown after
// each timeout. metrics may be nil, which disables the dead-server gauge
// at zero cost.
func NewDeadServerMap(cooldown time.Duration, metrics *obs.Metrics) *DeadServerMap {
	return &DeadServerMap{cooldown: cooldown, dead: make(map[deadKey]time.Time), metrics: metrics}
}

// MarkDead records that server timed out when queried from source.
func (d *DeadServerMap) MarkDead(server, source string) {
	d.mu.Lock()
	d.dead[deadKey{server: server, source: source}] = time.Now().Add(d.cooldown)
	count := len(d.dead)
	d.mu.Unlock()
	d.metrics.SetWINSDeadServers(count)
}

// IsDead reports whether server is currently in its cooldown period for
// source. An expired entry is treated as alive (and lazily removed).
func (d *DeadServerMap) IsDead(server, source string) bool {
	key := deadKey{server: server, source: source}

	d.mu.RLock()
	expiry, ok := d.dead[key]
	d.mu.RUnlock()
	if !ok {
		return false
	}
	if time.Now().After(expiry) {
		d.mu.Lock()
		delete(d.dead, key)
		count := len(d.dead)
		d.mu.Unlock()
		d.metrics.SetWINSDeadServers(count)
		return false
	}
	return true
}
