// Package cachebackend provides optional distributed backends for
// readiness.Cache (SPEC_FULL.md §3): a fleet of shadow-runner processes
// that each own their own process-local cache (§5) can still share
// probe results through one of these, entirely opt-in.
package cachebackend

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sawpanic/shadow-engine/internal/reason"
	"github.com/sawpanic/shadow-engine/internal/readiness"
)

// Redis mirrors readiness.Cache entries into a redis key space,
// grounded on the teacher's go-redis/v9 pin (superseding its duplicate
// v8 dependency, see DESIGN.md). It satisfies readiness.Backend.
type Redis struct {
	client    *redis.Client
	keyPrefix string
	ctxTO     time.Duration
	log       zerolog.Logger
}

// NewRedis builds a Backend over an existing *redis.Client. keyPrefix
// namespaces entries (e.g. "shadow:readiness:") so multiple engines can
// share one Redis instance without key collisions.
func NewRedis(client *redis.Client, keyPrefix string, log zerolog.Logger) *Redis {
	if keyPrefix == "" {
		keyPrefix = "shadow:readiness:"
	}
	return &Redis{client: client, keyPrefix: keyPrefix, ctxTO: 2 * time.Second, log: log}
}

type wireResult struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// Get never returns an error to the caller: a Redis outage degrades to
// a cache miss, same as an expired process-local entry, so L9's
// probe-then-cache behavior keeps working through an outage (§7
// Propagation policy: L9 never escalates to the caller).
func (r *Redis) Get(token string) (readiness.Result, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), r.ctxTO)
	defer cancel()

	data, err := r.client.Get(ctx, r.keyPrefix+token).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.log.Debug().Err(err).Msg("readiness redis backend get failed")
		}
		return readiness.Result{}, false
	}

	var w wireResult
	if err := json.Unmarshal(data, &w); err != nil {
		return readiness.Result{}, false
	}
	return readiness.Result{Status: readiness.Status(w.Status), Reason: reason.Code(w.Reason)}, true
}

func (r *Redis) Put(token string, res readiness.Result, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), r.ctxTO)
	defer cancel()

	data, err := json.Marshal(wireResult{Status: string(res.Status), Reason: res.Reason.String()})
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, r.keyPrefix+token, data, ttl).Err(); err != nil {
		r.log.Debug().Err(err).Msg("readiness redis backend put failed")
	}
}
