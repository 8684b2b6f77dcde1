package main

import (
	"crypto/rand"
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"github.com/automoto/dynamicai/config"
	"github.com/automoto/dynamicai/internal/logging"
	"github.com/automoto/dynamicai/shared/messages"
)

const sweepInterval = 30 * time.Second

type hostEntry struct {
	info     messages.ServerInfo
	lastSeen time.Time
}

// Registry is the set of live hosts. A host that misses heartbeats for ttl
// is dropped by the sweep.
type Registry struct {
	mu     sync.RWMutex
	hosts  map[string]*hostEntry
	ttl    time.Duration
	logger logging.Logger
	now    func() time.Time
	stopCh chan struct{}
}

func NewRegistry(ttl time.Duration, logger logging.Logger) *Registry {
	if logger == nil {
		logger = logging.Noop()
	}
	return &Registry{
		hosts:  make(map[string]*hostEntry),
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
}

// Start runs the expiry sweep until Stop.
func (r *Registry) Start() {
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-r.stopCh:
				return
			case <-ticker.C:
				r.expire()
			}
		}
	}()
}

func (r *Registry) Stop() {
	close(r.stopCh)
}

// Register stores a host under a fresh random ID and returns the ID.
func (r *Registry) Register(info messages.ServerInfo) string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	info.ID = hex.EncodeToString(b[:])

	r.mu.Lock()
	r.hosts[info.ID] = &hostEntry{info: info, lastSeen: r.now()}
	r.mu.Unlock()
	return info.ID
}

// Heartbeat refreshes a host's status. It reports false for unknown IDs so
// the host knows to register again.
func (r *Registry) Heartbeat(id string, status messages.DirectoryStatus) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.hosts[id]
	if !ok {
		return false
	}
	h.lastSeen = r.now()
	h.info.Status = status
	return true
}

func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.hosts[id]; !ok {
		return false
	}
	delete(r.hosts, id)
	return true
}

// List returns the live hosts, most tracked agents first. A non-empty zone
// keeps only hosts whose active zone resolves to it.
func (r *Registry) List(zone config.ZoneID) []messages.ServerInfo {
	r.mu.RLock()
	out := make([]messages.ServerInfo, 0, len(r.hosts))
	for _, h := range r.hosts {
		if zone != "" {
			if z, _ := config.CanonicalZone(h.info.Status.Zone); z != zone {
				continue
			}
		}
		out = append(out, h.info)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Status.Tracked != out[j].Status.Tracked {
			return out[i].Status.Tracked > out[j].Status.Tracked
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// expire drops hosts that missed their heartbeats and returns how many.
func (r *Registry) expire() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	n := 0
	for id, h := range r.hosts {
		silent := now.Sub(h.lastSeen)
		if silent < r.ttl {
			continue
		}
		r.logger.Info("expired server",
			logging.String("name", h.info.Name),
			logging.String("id", id),
			logging.Duration("silent", silent.Round(time.Second)),
		)
		delete(r.hosts, id)
		n++
	}
	return n
}
