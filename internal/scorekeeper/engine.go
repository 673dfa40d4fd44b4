package scorekeeper

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"scorekeeper-backend/internal/models"
)

// State is where the engine is in a match's lifecycle.
type State string

const (
	StateNotStarted State = "not_started"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateCancelled  State = "cancelled"
)

// Setup is what the match setup form collects.
type Setup struct {
	GameType      models.GameType `json:"gameType"`
	Player1Name   string          `json:"player1Name"`
	Player2Name   string          `json:"player2Name"`
	Player1Target int             `json:"player1Target"`
	Player2Target int             `json:"player2Target"`
	FirstBreaker  int             `json:"firstBreaker"` // 1 or 2
}

func (s Setup) validate() error {
	if s.GameType != models.GameEightBall && s.GameType != models.GameNineBall {
		return fmt.Errorf("%w: unknown game type %q", ErrInvalidSetup, s.GameType)
	}
	p1, p2 := strings.TrimSpace(s.Player1Name), strings.TrimSpace(s.Player2Name)
	if p1 == "" || p2 == "" {
		return fmt.Errorf("%w: both player names are required", ErrInvalidSetup)
	}
	if strings.EqualFold(p1, p2) {
		return fmt.Errorf("%w: players must have different names", ErrInvalidSetup)
	}
	if s.Player1Target < 1 || s.Player2Target < 1 {
		return fmt.Errorf("%w: targets must be at least 1", ErrInvalidSetup)
	}
	if s.FirstBreaker != 1 && s.FirstBreaker != 2 {
		return fmt.Errorf("%w: first breaker must be player 1 or 2", ErrInvalidSetup)
	}
	return nil
}

// Result is the snapshot every engine operation hands back to the caller.
// Winner is set only by the call that finished the match.
type Result struct {
	State  State                 `json:"state"`
	Match  *models.Match         `json:"match,omitempty"`
	Table  *models.NineBallTable `json:"table,omitempty"`
	Winner *models.Player        `json:"winner,omitempty"`
}

// Engine keeps score for one head-to-head match at a time. It is not safe
// for concurrent use; callers serialise access.
type Engine struct {
	history *History
	clock   clockwork.Clock
	newID   func() string

	state State
	match models.Match
	table models.NineBallTable
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used for match timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithIDGenerator replaces the uuid generator for player and match ids.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// New returns an engine with no match that records finished matches to history.
func New(history *History, opts ...Option) *Engine {
	e := &Engine{
		history: history,
		clock:   clockwork.NewRealClock(),
		newID:   func() string { return uuid.New().String() },
		state:   StateNotStarted,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State reports the lifecycle state of the current match.
func (e *Engine) State() State { return e.state }

// Snapshot returns the current match without changing anything.
func (e *Engine) Snapshot() Result {
	return e.result(nil)
}

// CreateMatch starts a new match from setup. It fails with ErrMatchStarted
// while another match is in progress.
func (e *Engine) CreateMatch(setup Setup) (Result, error) {
	if e.state == StateInProgress {
		return Result{}, ErrMatchStarted
	}
	if err := setup.validate(); err != nil {
		return Result{}, err
	}

	p1 := models.Player{ID: e.newID(), Name: strings.TrimSpace(setup.Player1Name)}
	p2 := models.Player{ID: e.newID(), Name: strings.TrimSpace(setup.Player2Name)}
	breaker := p1
	if setup.FirstBreaker == 2 {
		breaker = p2
	}

	e.match = models.Match{
		ID:            e.newID(),
		GameType:      setup.GameType,
		Player1:       p1,
		Player2:       p2,
		Player1Target: setup.Player1Target,
		Player2Target: setup.Player2Target,
		CurrentGame:   1,
		CurrentPlayer: breaker,
		CurrentInning: 1,
		CreatedAt:     e.clock.Now(),
		IsActive:      true,
	}
	e.table.Reset()
	e.state = StateInProgress

	log.Info().
		Str("match_id", e.match.ID).
		Str("game_type", string(e.match.GameType)).
		Str("player1", p1.Name).
		Str("player2", p2.Name).
		Str("breaker", breaker.Name).
		Msg("match created")
	return e.result(nil), nil
}

// EndTurn passes the table to the other player. In 9-ball the inning is
// scored first; pocketing the 9 keeps the shooter at the table for the
// next rack.
func (e *Engine) EndTurn(ctx context.Context) (Result, error) {
	if err := e.requireActive(); err != nil {
		return Result{}, err
	}

	if e.match.GameType == models.GameEightBall {
		e.match.CurrentPlayer = e.match.Opponent(e.match.CurrentPlayer)
		e.match.CurrentInning++
		return e.result(nil), nil
	}

	if e.table[models.NineBallCount-1] == models.BallDead {
		return Result{}, ErrNineBallDead
	}

	shooter := e.match.CurrentPlayer
	points, rackComplete := e.table.Settle()
	e.match.AddScore(shooter.ID, points)
	if !rackComplete {
		e.match.CurrentPlayer = e.match.Opponent(shooter)
	}
	e.match.CurrentInning++

	log.Debug().
		Str("match_id", e.match.ID).
		Str("shooter", shooter.Name).
		Int("points", points).
		Bool("rack_complete", rackComplete).
		Msg("turn ended")

	if winner, ok := e.match.TargetReached(); ok {
		return e.finalize(ctx, &winner), nil
	}
	return e.result(nil), nil
}

// MarkGameOver credits an 8-ball game to winnerID.
func (e *Engine) MarkGameOver(ctx context.Context, winnerID string) (Result, error) {
	if err := e.requireActive(); err != nil {
		return Result{}, err
	}
	if e.match.GameType != models.GameEightBall {
		return Result{}, ErrWrongGameType
	}
	winner, ok := e.match.PlayerByID(winnerID)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownPlayer, winnerID)
	}

	e.match.AddScore(winner.ID, 1)
	e.match.CurrentGame++
	e.match.CurrentInning = 1

	log.Debug().
		Str("match_id", e.match.ID).
		Str("winner", winner.Name).
		Int("game", e.match.CurrentGame-1).
		Msg("game over")

	if w, ok := e.match.TargetReached(); ok {
		return e.finalize(ctx, &w), nil
	}
	return e.result(nil), nil
}

// SetBallState cycles ball index (0-8) through on table, pocketed and
// dead. Balls scored in an earlier inning of the rack do not change, and
// the call does nothing in an 8-ball match.
func (e *Engine) SetBallState(index int) (Result, error) {
	if err := e.requireActive(); err != nil {
		return Result{}, err
	}
	if e.match.GameType != models.GameNineBall {
		return e.result(nil), nil
	}
	if index < 0 || index >= models.NineBallCount {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidBall, index)
	}

	if s := e.table[index]; !s.Frozen() {
		e.table[index] = s.Next()
	}
	return e.result(nil), nil
}

// EndMatch finishes the match regardless of score. The leader, if any,
// is reported as the winner.
func (e *Engine) EndMatch(ctx context.Context) (Result, error) {
	if err := e.requireActive(); err != nil {
		return Result{}, err
	}
	if leader, ok := e.match.Leader(); ok {
		return e.finalize(ctx, &leader), nil
	}
	return e.finalize(ctx, nil), nil
}

// CancelMatch discards the match without writing history and returns the
// engine to StateNotStarted.
func (e *Engine) CancelMatch() (Result, error) {
	if e.state != StateInProgress {
		return Result{}, ErrNoActiveMatch
	}

	log.Info().Str("match_id", e.match.ID).Msg("match cancelled")
	e.match = models.Match{}
	e.table.Reset()
	e.state = StateNotStarted
	return Result{State: StateCancelled}, nil
}

func (e *Engine) requireActive() error {
	switch e.state {
	case StateInProgress:
		return nil
	case StateCompleted:
		return ErrMatchOver
	}
	return ErrNoActiveMatch
}

// finalize marks the match over and writes it to history. Persistence is
// best effort: a failed write is logged and the in-memory result stands.
func (e *Engine) finalize(ctx context.Context, winner *models.Player) Result {
	e.match.IsActive = false
	e.state = StateCompleted

	if err := e.history.Record(ctx, e.match.Record()); err != nil {
		log.Error().Err(err).Str("match_id", e.match.ID).Msg("failed to save finished match")
	}

	ev := log.Info().
		Str("match_id", e.match.ID).
		Int("player1_score", e.match.Player1Score).
		Int("player2_score", e.match.Player2Score)
	if winner != nil {
		ev = ev.Str("winner", winner.Name)
	}
	ev.Msg("match finished")

	return e.result(winner)
}

func (e *Engine) result(winner *models.Player) Result {
	r := Result{State: e.state, Winner: winner}
	if e.state == StateNotStarted {
		return r
	}
	m := e.match
	r.Match = &m
	if m.GameType == models.GameNineBall {
		t := e.table
		r.Table = &t
	}
	return r
}

// QuickStart projects a past match into the names and game type needed to
// prefill a new setup. It creates no state.
func QuickStart(rec models.RecentMatchRecord) (player1Name, player2Name string, gameType models.GameType) {
	return rec.Player1.Name, rec.Player2.Name, rec.GameType
}
