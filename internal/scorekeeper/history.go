package scorekeeper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"scorekeeper-backend/internal/models"
	"scorekeeper-backend/internal/store"
)

const (
	RecentMatchesKey   = "recent_matches"
	DefaultHistorySize = 10
)

// History is the bounded, most-recent-first list of finished matches kept
// under a single store key. The bound is applied here, before every save.
type History struct {
	store store.Store
	limit int
}

// NewHistory keeps at most limit records; a non-positive limit means
// DefaultHistorySize.
func NewHistory(s store.Store, limit int) *History {
	if limit <= 0 {
		limit = DefaultHistorySize
	}
	return &History{store: s, limit: limit}
}

// Recent returns the stored records, newest first. Legacy records are
// migrated while decoding. A missing or unreadable history reads as empty,
// so the next Record overwrites it.
func (h *History) Recent(ctx context.Context) ([]models.RecentMatchRecord, error) {
	data, err := h.store.Load(ctx, RecentMatchesKey)
	if errors.Is(err, store.ErrNotFound) {
		return []models.RecentMatchRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading recent matches: %w", err)
	}

	var records []models.RecentMatchRecord
	if err := json.Unmarshal(data, &records); err != nil {
		log.Warn().Err(err).Str("key", RecentMatchesKey).Msg("discarding unreadable match history")
		return []models.RecentMatchRecord{}, nil
	}
	if records == nil {
		records = []models.RecentMatchRecord{}
	}
	return records, nil
}

// Record prepends rec and truncates the list to the configured limit.
func (h *History) Record(ctx context.Context, rec models.RecentMatchRecord) error {
	records, err := h.Recent(ctx)
	if err != nil {
		return err
	}

	records = append([]models.RecentMatchRecord{rec}, records...)
	if len(records) > h.limit {
		records = records[:h.limit]
	}
	return h.Replace(ctx, records)
}

// Replace overwrites the whole list.
func (h *History) Replace(ctx context.Context, records []models.RecentMatchRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding recent matches: %w", err)
	}
	if err := h.store.Save(ctx, RecentMatchesKey, data); err != nil {
		return fmt.Errorf("saving recent matches: %w", err)
	}
	return nil
}

// Find returns the record with the given match id.
func (h *History) Find(ctx context.Context, id string) (models.RecentMatchRecord, bool, error) {
	records, err := h.Recent(ctx)
	if err != nil {
		return models.RecentMatchRecord{}, false, err
	}
	for _, r := range records {
		if r.ID == id {
			return r, true, nil
		}
	}
	return models.RecentMatchRecord{}, false, nil
}

func (h *History) Clear(ctx context.Context) error {
	if err := h.store.Delete(ctx, RecentMatchesKey); err != nil {
		return fmt.Errorf("clearing recent matches: %w", err)
	}
	return nil
}
