package reports

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"scorekeeper-backend/internal/models"
	"scorekeeper-backend/internal/store"
)

func TestCacheKey(t *testing.T) {
	if got := CacheKey("123", ""); got != "report_cache_123_all" {
		t.Fatalf("CacheKey all = %q", got)
	}
	if got := CacheKey("123", "Fall 2024"); got != "report_cache_123_Fall 2024" {
		t.Fatalf("CacheKey season = %q", got)
	}
}

func TestCacheExpiry(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	c := NewCache(s, clock, 0)

	if _, ok, err := c.Get(ctx, "m1", ""); ok || err != nil {
		t.Fatalf("Get on empty cache = (%v, %v)", ok, err)
	}

	if err := c.Put(ctx, "m1", "", &models.Report{ID: "r1"}); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	clock.Advance(23 * time.Hour)
	got, ok, err := c.Get(ctx, "m1", "")
	if err != nil || !ok || got.ID != "r1" {
		t.Fatalf("Get before expiry = (%v, %v, %v)", got, ok, err)
	}

	clock.Advance(time.Hour)
	if _, ok, _ := c.Get(ctx, "m1", ""); ok {
		t.Fatalf("entry served after 24h")
	}
	if _, err := s.Load(ctx, CacheKey("m1", "")); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expired entry not deleted, err = %v", err)
	}
}

func TestCacheDiscardsCorruptEntry(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	_ = s.Save(ctx, CacheKey("m1", ""), []byte("not json"))

	c := NewCache(s, clockwork.NewFakeClock(), time.Hour)
	if _, ok, err := c.Get(ctx, "m1", ""); ok || err != nil {
		t.Fatalf("Get corrupt = (%v, %v)", ok, err)
	}
	if keys, _ := s.Keys(ctx, ""); len(keys) != 0 {
		t.Fatalf("corrupt entry kept: %v", keys)
	}
}

func TestCacheClearAndSweep(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	clock := clockwork.NewFakeClock()
	c := NewCache(s, clock, time.Hour)

	_ = s.Save(ctx, "recent_matches", []byte("[]"))
	_ = c.Put(ctx, "m1", "", &models.Report{ID: "a"})
	_ = c.Put(ctx, "m1", "Spring", &models.Report{ID: "b"})
	_ = c.Put(ctx, "m10", "", &models.Report{ID: "c"})

	n, err := c.ClearPlayer(ctx, "m1")
	if err != nil || n != 2 {
		t.Fatalf("ClearPlayer = (%d, %v), want 2", n, err)
	}
	keys, _ := s.Keys(ctx, "")
	slices.Sort(keys)
	if !slices.Equal(keys, []string{"recent_matches", "report_cache_m10_all"}) {
		t.Fatalf("keys after ClearPlayer = %v", keys)
	}

	clock.Advance(2 * time.Hour)
	_ = c.Put(ctx, "m2", "", &models.Report{ID: "d"})
	n, err = c.Sweep(ctx)
	if err != nil || n != 1 {
		t.Fatalf("Sweep = (%d, %v), want 1", n, err)
	}
	if _, ok, _ := c.Get(ctx, "m2", ""); !ok {
		t.Fatalf("fresh entry swept")
	}

	n, err = c.ClearAll(ctx)
	if err != nil || n != 1 {
		t.Fatalf("ClearAll = (%d, %v), want 1", n, err)
	}
	if _, err := s.Load(ctx, "recent_matches"); err != nil {
		t.Fatalf("ClearAll touched match history: %v", err)
	}
}
