package reports

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"scorekeeper-backend/internal/models"
)

var (
	ErrMemberRequired = errors.New("member id is required")
	// ErrInvalidMember rejects ids that would collide in cache key prefixes.
	ErrInvalidMember = errors.New("member id must not contain '_'")
)

// Upstream is the statistics service. *Client satisfies it.
type Upstream interface {
	Report(ctx context.Context, memberID, season string) (*models.Report, error)
	Wrapped(ctx context.Context, memberID string, year int) ([]models.WrappedSlide, error)
}

type Service struct {
	upstream Upstream
	cache    *Cache
	roster   *Roster
}

func NewService(upstream Upstream, cache *Cache, roster *Roster) *Service {
	return &Service{upstream: upstream, cache: cache, roster: roster}
}

func normalizeMember(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrMemberRequired
	}
	if strings.Contains(id, "_") {
		return "", ErrInvalidMember
	}
	return id, nil
}

// Report serves from the cache when it can and fills it after an upstream
// fetch. Cache failures are logged and never fail the request.
func (s *Service) Report(ctx context.Context, member, season string) (*models.Report, error) {
	memberID, err := normalizeMember(member)
	if err != nil {
		return nil, err
	}

	report, ok, err := s.cache.Get(ctx, memberID, season)
	if err != nil {
		log.Warn().Err(err).Str("member_id", memberID).Msg("report cache read failed")
	}
	if ok {
		log.Debug().Str("member_id", memberID).Str("season", season).Msg("report cache hit")
		return report, nil
	}

	report, err = s.upstream.Report(ctx, memberID, season)
	if err != nil {
		log.Error().Err(err).Str("member_id", memberID).Str("season", season).Msg("report fetch failed")
		return nil, err
	}

	if err := s.cache.Put(ctx, memberID, season, report); err != nil {
		log.Warn().Err(err).Str("member_id", memberID).Msg("report cache write failed")
	}
	if err := s.roster.TouchReportDate(ctx, memberID); err != nil {
		log.Warn().Err(err).Str("member_id", memberID).Msg("report date update failed")
	}
	return report, nil
}

// Wrapped is never cached; the slides change as the year goes on.
func (s *Service) Wrapped(ctx context.Context, member string, year int) ([]models.WrappedSlide, error) {
	memberID, err := normalizeMember(member)
	if err != nil {
		return nil, err
	}
	return s.upstream.Wrapped(ctx, memberID, year)
}

func (s *Service) ClearPlayer(ctx context.Context, member string) (int, error) {
	memberID, err := normalizeMember(member)
	if err != nil {
		return 0, err
	}
	return s.cache.ClearPlayer(ctx, memberID)
}

func (s *Service) ClearAll(ctx context.Context) (int, error) {
	return s.cache.ClearAll(ctx)
}

func (s *Service) Roster() *Roster {
	return s.roster
}

// ClearStatsData wipes the roster and every cached report.
func (s *Service) ClearStatsData(ctx context.Context) (int, error) {
	if err := s.roster.Clear(ctx); err != nil {
		return 0, err
	}
	return s.cache.ClearAll(ctx)
}

// Sweep removes expired cache entries. The server runs it on a schedule.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	n, err := s.cache.Sweep(ctx)
	if err != nil {
		return n, err
	}
	if n > 0 {
		log.Info().Int("removed", n).Msg("swept expired reports")
	}
	return n, nil
}
