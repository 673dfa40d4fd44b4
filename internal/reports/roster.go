package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"scorekeeper-backend/internal/store"
)

const (
	PlayersKey       = "players"
	ReportDatesKey   = "player_report_dates"
	SelectedIndexKey = "selected_player_index"

	// NoSelection is the selected index when no player is picked.
	NoSelection = -1
)

var ErrInvalidSelection = errors.New("selected index is out of range")

// TrackedPlayer is a league member whose reports the scorer follows.
type TrackedPlayer struct {
	MemberID string `json:"memberId"`
	Name     string `json:"name"`
}

// RosterSnapshot is everything the stats and wrapped screens read at once.
type RosterSnapshot struct {
	Players       []TrackedPlayer   `json:"players"`
	ReportDates   map[string]string `json:"reportDates"`
	SelectedIndex int               `json:"selectedIndex"`
	HasData       bool              `json:"hasData"`
}

// Roster persists the tracked players, the date each one's report was last
// fetched and the currently selected player. Unreadable values read as
// empty, the same as missing ones.
type Roster struct {
	store store.Store
	clock clockwork.Clock
}

func NewRoster(s store.Store, clock clockwork.Clock) *Roster {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Roster{store: s, clock: clock}
}

func (r *Roster) Players(ctx context.Context) ([]TrackedPlayer, error) {
	players := []TrackedPlayer{}
	if _, err := r.load(ctx, PlayersKey, &players); err != nil {
		return nil, err
	}
	if players == nil {
		players = []TrackedPlayer{}
	}
	return players, nil
}

// SetPlayers replaces the roster. A selection past the new end is reset.
func (r *Roster) SetPlayers(ctx context.Context, players []TrackedPlayer) error {
	if players == nil {
		players = []TrackedPlayer{}
	}
	if err := r.save(ctx, PlayersKey, players); err != nil {
		return err
	}

	idx, err := r.SelectedIndex(ctx)
	if err != nil {
		return err
	}
	if idx >= len(players) {
		return r.store.Delete(ctx, SelectedIndexKey)
	}
	return nil
}

// ReportDates maps member id to the day its report was last fetched.
func (r *Roster) ReportDates(ctx context.Context) (map[string]string, error) {
	dates := map[string]string{}
	if _, err := r.load(ctx, ReportDatesKey, &dates); err != nil {
		return nil, err
	}
	if dates == nil {
		dates = map[string]string{}
	}
	return dates, nil
}

// TouchReportDate records today as memberID's last fetch.
func (r *Roster) TouchReportDate(ctx context.Context, memberID string) error {
	dates, err := r.ReportDates(ctx)
	if err != nil {
		return err
	}
	dates[memberID] = r.clock.Now().UTC().Format(time.DateOnly)
	return r.save(ctx, ReportDatesKey, dates)
}

func (r *Roster) SelectedIndex(ctx context.Context) (int, error) {
	data, err := r.store.Load(ctx, SelectedIndexKey)
	if errors.Is(err, store.ErrNotFound) {
		return NoSelection, nil
	}
	if err != nil {
		return NoSelection, fmt.Errorf("loading %s: %w", SelectedIndexKey, err)
	}
	idx, err := strconv.Atoi(string(data))
	if err != nil || idx < NoSelection {
		log.Warn().Str("key", SelectedIndexKey).Str("value", string(data)).Msg("ignoring unreadable selection")
		return NoSelection, nil
	}
	return idx, nil
}

// Select stores idx, which must point into the roster or be NoSelection.
func (r *Roster) Select(ctx context.Context, idx int) error {
	players, err := r.Players(ctx)
	if err != nil {
		return err
	}
	if idx < NoSelection || idx >= len(players) {
		return fmt.Errorf("%w: %d of %d players", ErrInvalidSelection, idx, len(players))
	}
	if err := r.store.Save(ctx, SelectedIndexKey, []byte(strconv.Itoa(idx))); err != nil {
		return fmt.Errorf("saving %s: %w", SelectedIndexKey, err)
	}
	return nil
}

// HasData reports whether a roster has ever been saved.
func (r *Roster) HasData(ctx context.Context) (bool, error) {
	_, err := r.store.Load(ctx, PlayersKey)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("loading %s: %w", PlayersKey, err)
	}
	return true, nil
}

func (r *Roster) Snapshot(ctx context.Context) (RosterSnapshot, error) {
	var snap RosterSnapshot
	var err error
	if snap.Players, err = r.Players(ctx); err != nil {
		return RosterSnapshot{}, err
	}
	if snap.ReportDates, err = r.ReportDates(ctx); err != nil {
		return RosterSnapshot{}, err
	}
	if snap.SelectedIndex, err = r.SelectedIndex(ctx); err != nil {
		return RosterSnapshot{}, err
	}
	if snap.HasData, err = r.HasData(ctx); err != nil {
		return RosterSnapshot{}, err
	}
	return snap, nil
}

// Clear drops the roster, the report dates and the selection.
func (r *Roster) Clear(ctx context.Context) error {
	for _, key := range []string{PlayersKey, ReportDatesKey, SelectedIndexKey} {
		if err := r.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("deleting %s: %w", key, err)
		}
	}
	return nil
}

func (r *Roster) load(ctx context.Context, key string, v any) (bool, error) {
	data, err := r.store.Load(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("loading %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("ignoring unreadable roster value")
		return false, nil
	}
	return true, nil
}

func (r *Roster) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := r.store.Save(ctx, key, data); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}
