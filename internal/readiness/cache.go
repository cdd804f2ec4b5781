package readiness

import (
	"sync"
	"time"

	"github.com/sawpanic/shadow-engine/internal/reason"
)

// Result is the outcome of probing a single token's liveness endpoint.
type Result struct {
	Status Status
	Reason reason.Code
}

type Status string

const (
	Ready          Status = "READY"
	NotReady       Status = "NOT_READY"
	RetryableError Status = "RETRYABLE_ERROR"
	PermError      Status = "PERM_ERROR"
)

// ttlFor returns the cache lifetime for a given probe outcome (§4.4).
func ttlFor(r Result) time.Duration {
	switch {
	case r.Status == Ready:
		return 1800 * time.Second
	case r.Status == RetryableError:
		return 30 * time.Second
	case r.Reason == reason.ClobNoOrderbook:
		return 300 * time.Second
	case r.Status == NotReady:
		return 300 * time.Second
	case r.Status == PermError:
		return 3600 * time.Second
	default:
		return 60 * time.Second
	}
}

type entry struct {
	result Result
	expiry time.Time
}

// Backend is an optional distributed mirror for Cache's entries (§9
// DESIGN NOTES "Caches"; SPEC_FULL.md §3's Redis-backed readiness
// cache). §5 says the probe cache is process-local by default, so a
// Backend is a write-through *addition* a Cache may be given, never a
// replacement for the in-memory map — a Cache with no Backend behaves
// exactly as before.
type Backend interface {
	Get(token string) (Result, bool)
	Put(token string, r Result, ttl time.Duration)
}

// Cache is a process-local token -> (expiry, result) map, owned per
// pipeline instance so tests never reach for package globals (§9 DESIGN NOTES).
type Cache struct {
	mu      sync.Mutex
	byTok   map[string]entry
	now     func() time.Time
	backend Backend
}

func NewCache() *Cache {
	return &Cache{byTok: make(map[string]entry), now: time.Now}
}

// SetBackend wires an optional shared backend (e.g. Redis) behind this
// Cache's process-local map (§3 DOMAIN STACK).
func (c *Cache) SetBackend(b Backend) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.backend = b
}

// Get returns the cached result for token if present and unexpired,
// falling back to the optional backend (and repopulating the local map
// on a backend hit) when the process-local entry is absent or expired.
func (c *Cache) Get(token string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.byTok[token]
	if ok && c.now().Before(e.expiry) {
		return e.result, true
	}
	if ok {
		delete(c.byTok, token)
	}

	if c.backend != nil {
		if r, ok := c.backend.Get(token); ok {
			c.byTok[token] = entry{result: r, expiry: c.now().Add(ttlFor(r))}
			return r, true
		}
	}
	return Result{}, false
}

// Put stores r for token with the TTL appropriate to its outcome,
// mirroring to the optional backend.
func (c *Cache) Put(token string, r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ttl := ttlFor(r)
	c.byTok[token] = entry{result: r, expiry: c.now().Add(ttl)}
	if c.backend != nil {
		c.backend.Put(token, r, ttl)
	}
}

// Expire evicts all entries whose TTL has elapsed.
func (c *Cache) Expire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for tok, e := range c.byTok {
		if !now.Before(e.expiry) {
			delete(c.byTok, tok)
		}
	}
}
