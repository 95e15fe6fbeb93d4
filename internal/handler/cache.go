package handler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/kinohub/cinema-scheduling/internal/config"
)

// availabilityPayload is the cached body of the availability endpoint.
type availabilityPayload struct {
	ScreeningID uint64 `json:"screening_id"`
	Available   int    `json:"available"`
	Reserved    int    `json:"reserved"`
}

// AvailabilityCache keeps per-screening availability in Redis for a short
// TTL.  Write paths invalidate their screening's entry, so the TTL only
// bounds staleness when an invalidation is lost.  With no Redis client or
// a disabled config every lookup is a miss and every store a no-op.
type AvailabilityCache struct {
	cfg config.CacheConfig
	rdb *redis.Client
}

func NewAvailabilityCache(cfg config.CacheConfig, rdb *redis.Client) *AvailabilityCache {
	return &AvailabilityCache{cfg: cfg, rdb: rdb}
}

func (a *AvailabilityCache) enabled() bool {
	return a != nil && a.cfg.Enabled && a.rdb != nil
}

func (a *AvailabilityCache) key(screeningID uint64) string {
	return fmt.Sprintf("%s:%d", a.cfg.Prefix, screeningID)
}

func (a *AvailabilityCache) Get(ctx context.Context, screeningID uint64) (availabilityPayload, bool) {
	if !a.enabled() {
		return availabilityPayload{}, false
	}
	bs, err := a.rdb.Get(ctx, a.key(screeningID)).Bytes()
	if err != nil {
		return availabilityPayload{}, false
	}
	var p availabilityPayload
	if err := json.Unmarshal(bs, &p); err != nil {
		return availabilityPayload{}, false
	}
	return p, true
}

func (a *AvailabilityCache) Set(ctx context.Context, p availabilityPayload) {
	if !a.enabled() {
		return
	}
	bs, err := json.Marshal(p)
	if err != nil {
		return
	}
	_ = a.rdb.SetEx(ctx, a.key(p.ScreeningID), bs, a.cfg.TTL).Err()
}

func (a *AvailabilityCache) Invalidate(ctx context.Context, screeningID uint64) {
	if !a.enabled() {
		return
	}
	_ = a.rdb.Del(ctx, a.key(screeningID)).Err()
}
