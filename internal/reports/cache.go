package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"scorekeeper-backend/internal/models"
	"scorekeeper-backend/internal/store"
)

const (
	CacheKeyPrefix  = "report_cache_"
	DefaultCacheTTL = 24 * time.Hour
)

// CacheKey is the store key for a member's report. An empty season means
// all seasons.
func CacheKey(memberID, season string) string {
	if season == "" {
		season = "all"
	}
	return CacheKeyPrefix + memberID + "_" + season
}

type cachedReport struct {
	Timestamp int64          `json:"timestamp"` // unix millis
	Data      *models.Report `json:"data"`
}

// Cache keeps upstream reports in the key-value store for a fixed TTL.
type Cache struct {
	store store.Store
	clock clockwork.Clock
	ttl   time.Duration
}

func NewCache(s store.Store, clock clockwork.Clock, ttl time.Duration) *Cache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{store: s, clock: clock, ttl: ttl}
}

// Get returns a fresh cached report. Expired or unreadable entries are
// deleted and reported as a miss.
func (c *Cache) Get(ctx context.Context, memberID, season string) (*models.Report, bool, error) {
	key := CacheKey(memberID, season)
	data, err := c.store.Load(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("loading %s: %w", key, err)
	}

	entry, ok := c.decode(key, data)
	if !ok || !c.fresh(entry) {
		if err := c.store.Delete(ctx, key); err != nil {
			return nil, false, fmt.Errorf("deleting %s: %w", key, err)
		}
		return nil, false, nil
	}
	return entry.Data, true, nil
}

func (c *Cache) Put(ctx context.Context, memberID, season string, report *models.Report) error {
	key := CacheKey(memberID, season)
	data, err := json.Marshal(cachedReport{
		Timestamp: c.clock.Now().UnixMilli(),
		Data:      report,
	})
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := c.store.Save(ctx, key, data); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}

// ClearPlayer drops every cached season for memberID.
func (c *Cache) ClearPlayer(ctx context.Context, memberID string) (int, error) {
	return c.deleteWhere(ctx, CacheKeyPrefix+memberID+"_", nil)
}

// ClearAll drops every cached report.
func (c *Cache) ClearAll(ctx context.Context) (int, error) {
	return c.deleteWhere(ctx, CacheKeyPrefix, nil)
}

// Sweep deletes expired entries and returns how many were removed.
func (c *Cache) Sweep(ctx context.Context) (int, error) {
	return c.deleteWhere(ctx, CacheKeyPrefix, func(key string, data []byte) bool {
		entry, ok := c.decode(key, data)
		return !ok || !c.fresh(entry)
	})
}

func (c *Cache) deleteWhere(ctx context.Context, prefix string, match func(key string, data []byte) bool) (int, error) {
	keys, err := c.store.Keys(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("listing %s keys: %w", prefix, err)
	}

	removed := 0
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if match != nil {
			data, err := c.store.Load(ctx, key)
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			if err != nil {
				return removed, fmt.Errorf("loading %s: %w", key, err)
			}
			if !match(key, data) {
				continue
			}
		}
		if err := c.store.Delete(ctx, key); err != nil {
			return removed, fmt.Errorf("deleting %s: %w", key, err)
		}
		removed++
	}
	return removed, nil
}

func (c *Cache) decode(key string, data []byte) (cachedReport, bool) {
	var entry cachedReport
	if err := json.Unmarshal(data, &entry); err != nil || entry.Data == nil {
		log.Warn().Err(err).Str("key", key).Msg("discarding unreadable cached report")
		return cachedReport{}, false
	}
	return entry, true
}

func (c *Cache) fresh(entry cachedReport) bool {
	age := c.clock.Since(time.UnixMilli(entry.Timestamp))
	return age < c.ttl
}
