package scorekeeper

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"

	"scorekeeper-backend/internal/models"
	"scorekeeper-backend/internal/store"
)

var testStart = time.Date(2025, 3, 14, 19, 30, 0, 0, time.UTC)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestEngine(t *testing.T) (*Engine, *History) {
	t.Helper()
	h := NewHistory(store.NewMemoryStore(), DefaultHistorySize)
	e := New(h,
		WithClock(clockwork.NewFakeClockAt(testStart)),
		WithIDGenerator(sequentialIDs()),
	)
	return e, h
}

func eightBallSetup(target1, target2 int) Setup {
	return Setup{
		GameType:      models.GameEightBall,
		Player1Name:   "Alice",
		Player2Name:   "Bob",
		Player1Target: target1,
		Player2Target: target2,
		FirstBreaker:  1,
	}
}

func nineBallSetup(target1, target2 int) Setup {
	s := eightBallSetup(target1, target2)
	s.GameType = models.GameNineBall
	return s
}

func mustCreate(t *testing.T, e *Engine, s Setup) Result {
	t.Helper()
	res, err := e.CreateMatch(s)
	if err != nil {
		t.Fatalf("CreateMatch error: %v", err)
	}
	return res
}

func tap(t *testing.T, e *Engine, index, times int) {
	t.Helper()
	for i := 0; i < times; i++ {
		if _, err := e.SetBallState(index); err != nil {
			t.Fatalf("SetBallState(%d) error: %v", index, err)
		}
	}
}

func TestCreateMatchValidation(t *testing.T) {
	cases := map[string]func(*Setup){
		"empty name":        func(s *Setup) { s.Player1Name = "" },
		"blank name":        func(s *Setup) { s.Player2Name = "   " },
		"duplicate names":   func(s *Setup) { s.Player2Name = " alice " },
		"zero target":       func(s *Setup) { s.Player2Target = 0 },
		"negative target":   func(s *Setup) { s.Player1Target = -2 },
		"unknown breaker":   func(s *Setup) { s.FirstBreaker = 3 },
		"unknown game type": func(s *Setup) { s.GameType = "10ball" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			e, _ := newTestEngine(t)
			s := eightBallSetup(5, 5)
			mutate(&s)
			if _, err := e.CreateMatch(s); !errors.Is(err, ErrInvalidSetup) {
				t.Fatalf("CreateMatch err = %v, want ErrInvalidSetup", err)
			}
			if e.State() != StateNotStarted {
				t.Fatalf("state = %s after rejected setup", e.State())
			}
		})
	}
}

func TestCreateMatchInitialState(t *testing.T) {
	e, _ := newTestEngine(t)
	s := nineBallSetup(14, 31)
	s.Player1Name = "  Alice "
	s.FirstBreaker = 2

	res := mustCreate(t, e, s)

	alice := models.Player{ID: "id-1", Name: "Alice"}
	bob := models.Player{ID: "id-2", Name: "Bob"}
	want := &models.Match{
		ID:            "id-3",
		GameType:      models.GameNineBall,
		Player1:       alice,
		Player2:       bob,
		Player1Target: 14,
		Player2Target: 31,
		CurrentGame:   1,
		CurrentPlayer: bob,
		CurrentInning: 1,
		CreatedAt:     testStart,
		IsActive:      true,
	}
	if diff := cmp.Diff(want, res.Match); diff != "" {
		t.Fatalf("CreateMatch mismatch (-want +got):\n%s", diff)
	}
	if res.Table == nil || *res.Table != (models.NineBallTable{}) {
		t.Fatalf("table = %v, want all on table", res.Table)
	}
	if res.State != StateInProgress || res.Winner != nil {
		t.Fatalf("unexpected result state=%s winner=%v", res.State, res.Winner)
	}
}

func TestCreateMatchWhileInProgress(t *testing.T) {
	e, _ := newTestEngine(t)
	mustCreate(t, e, eightBallSetup(5, 5))
	if _, err := e.CreateMatch(eightBallSetup(3, 3)); !errors.Is(err, ErrMatchStarted) {
		t.Fatalf("CreateMatch err = %v, want ErrMatchStarted", err)
	}
}

func TestEightBallEndTurnAlternates(t *testing.T) {
	e, _ := newTestEngine(t)
	start := mustCreate(t, e, eightBallSetup(5, 5))
	p1, p2 := start.Match.Player1, start.Match.Player2

	for i := 1; i <= 7; i++ {
		res, err := e.EndTurn(context.Background())
		if err != nil {
			t.Fatalf("EndTurn %d error: %v", i, err)
		}
		want := p2
		if i%2 == 0 {
			want = p1
		}
		if res.Match.CurrentPlayer != want {
			t.Fatalf("after %d turns current = %v, want %v", i, res.Match.CurrentPlayer, want)
		}
		if res.Match.CurrentInning != 1+i {
			t.Fatalf("after %d turns inning = %d", i, res.Match.CurrentInning)
		}
		if res.Match.Player1Score != 0 || res.Match.Player2Score != 0 {
			t.Fatalf("EndTurn changed scores: %d-%d", res.Match.Player1Score, res.Match.Player2Score)
		}
		if res.Table != nil {
			t.Fatalf("8-ball result carries a table")
		}
	}
}

func TestMarkGameOver(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)
	start := mustCreate(t, e, eightBallSetup(5, 5))
	_, _ = e.EndTurn(ctx)
	_, _ = e.EndTurn(ctx)

	res, err := e.MarkGameOver(ctx, start.Match.Player2.ID)
	if err != nil {
		t.Fatalf("MarkGameOver error: %v", err)
	}
	m := res.Match
	if m.Player1Score != 0 || m.Player2Score != 1 {
		t.Fatalf("scores = %d-%d, want 0-1", m.Player1Score, m.Player2Score)
	}
	if m.CurrentGame != 2 || m.CurrentInning != 1 {
		t.Fatalf("game=%d inning=%d, want 2 and 1", m.CurrentGame, m.CurrentInning)
	}
	if !m.IsActive || res.Winner != nil {
		t.Fatalf("match ended early")
	}
}

func TestMarkGameOverUnknownPlayer(t *testing.T) {
	e, _ := newTestEngine(t)
	mustCreate(t, e, eightBallSetup(5, 5))
	before := e.Snapshot()

	if _, err := e.MarkGameOver(context.Background(), "nobody"); !errors.Is(err, ErrUnknownPlayer) {
		t.Fatalf("MarkGameOver err = %v, want ErrUnknownPlayer", err)
	}
	if diff := cmp.Diff(before, e.Snapshot()); diff != "" {
		t.Fatalf("rejected MarkGameOver changed state:\n%s", diff)
	}
}

func TestMarkGameOverNineBall(t *testing.T) {
	e, _ := newTestEngine(t)
	start := mustCreate(t, e, nineBallSetup(14, 14))
	if _, err := e.MarkGameOver(context.Background(), start.Match.Player1.ID); !errors.Is(err, ErrWrongGameType) {
		t.Fatalf("MarkGameOver err = %v, want ErrWrongGameType", err)
	}
}

func TestEightBallRaceToTwo(t *testing.T) {
	ctx := context.Background()
	e, h := newTestEngine(t)
	start := mustCreate(t, e, eightBallSetup(2, 2))
	alice := start.Match.Player1

	if _, err := e.MarkGameOver(ctx, alice.ID); err != nil {
		t.Fatalf("first MarkGameOver error: %v", err)
	}
	res, err := e.MarkGameOver(ctx, alice.ID)
	if err != nil {
		t.Fatalf("second MarkGameOver error: %v", err)
	}

	if res.Winner == nil || *res.Winner != alice {
		t.Fatalf("winner = %v, want %v", res.Winner, alice)
	}
	if res.Match.Player1Score != 2 || res.Match.IsActive || res.State != StateCompleted {
		t.Fatalf("unexpected final match: %+v state=%s", res.Match, res.State)
	}

	recent, err := h.Recent(ctx)
	if err != nil {
		t.Fatalf("Recent error: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("history has %d records, want 1", len(recent))
	}
	rec := recent[0]
	if rec.IsActive || rec.Player1Score != 2 || rec.ID != start.Match.ID {
		t.Fatalf("persisted record = %+v", rec)
	}
	if !rec.CreatedTime().Equal(testStart) {
		t.Fatalf("persisted createdAt = %q", rec.CreatedAt)
	}
}

func TestCompletedMatchRefusesMutation(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)
	start := mustCreate(t, e, eightBallSetup(1, 1))
	if _, err := e.MarkGameOver(ctx, start.Match.Player1.ID); err != nil {
		t.Fatalf("MarkGameOver error: %v", err)
	}
	final := e.Snapshot()

	calls := map[string]func() error{
		"EndTurn":      func() error { _, err := e.EndTurn(ctx); return err },
		"MarkGameOver": func() error { _, err := e.MarkGameOver(ctx, start.Match.Player2.ID); return err },
		"SetBallState": func() error { _, err := e.SetBallState(0); return err },
		"EndMatch":     func() error { _, err := e.EndMatch(ctx); return err },
	}
	for name, call := range calls {
		if err := call(); !errors.Is(err, ErrMatchOver) {
			t.Fatalf("%s on completed match err = %v, want ErrMatchOver", name, err)
		}
	}
	if diff := cmp.Diff(final, e.Snapshot()); diff != "" {
		t.Fatalf("completed match changed:\n%s", diff)
	}
}

func TestNineBallPocketNineKeepsShooter(t *testing.T) {
	e, _ := newTestEngine(t)
	start := mustCreate(t, e, nineBallSetup(20, 20))
	tap(t, e, 0, 1)
	tap(t, e, 8, 1)

	res, err := e.EndTurn(context.Background())
	if err != nil {
		t.Fatalf("EndTurn error: %v", err)
	}
	if res.Match.Player1Score != 3 || res.Match.Player2Score != 0 {
		t.Fatalf("scores = %d-%d, want 3-0", res.Match.Player1Score, res.Match.Player2Score)
	}
	if *res.Table != (models.NineBallTable{}) {
		t.Fatalf("table = %v, want fresh rack", *res.Table)
	}
	if res.Match.CurrentPlayer != start.Match.Player1 {
		t.Fatalf("current player changed after pocketing the 9")
	}
	if res.Match.CurrentInning != 2 {
		t.Fatalf("inning = %d, want 2", res.Match.CurrentInning)
	}
}

func TestNineBallOneToEightScoreOneEach(t *testing.T) {
	e, _ := newTestEngine(t)
	start := mustCreate(t, e, nineBallSetup(20, 20))
	tap(t, e, 0, 1)
	tap(t, e, 2, 1)
	tap(t, e, 7, 1)
	tap(t, e, 4, 2) // dead

	res, err := e.EndTurn(context.Background())
	if err != nil {
		t.Fatalf("EndTurn error: %v", err)
	}
	if res.Match.Player1Score != 3 {
		t.Fatalf("score = %d, want 3", res.Match.Player1Score)
	}
	if res.Match.CurrentPlayer != start.Match.Player2 {
		t.Fatalf("turn did not pass to player 2")
	}

	want := models.NineBallTable{}
	want[0] = models.BallAlreadyPocketed
	want[2] = models.BallAlreadyPocketed
	want[7] = models.BallAlreadyPocketed
	want[4] = models.BallAlreadyDead
	if *res.Table != want {
		t.Fatalf("table = %v, want %v", *res.Table, want)
	}

	// already scored balls are not scored again for the next shooter
	res, _ = e.EndTurn(context.Background())
	if res.Match.Player2Score != 0 || res.Match.Player1Score != 3 {
		t.Fatalf("scores after empty inning = %d-%d", res.Match.Player1Score, res.Match.Player2Score)
	}
}

func TestNineBallDeadNineRejected(t *testing.T) {
	e, h := newTestEngine(t)
	mustCreate(t, e, nineBallSetup(2, 2))
	tap(t, e, 0, 1)
	tap(t, e, 8, 2)
	before := e.Snapshot()

	if _, err := e.EndTurn(context.Background()); !errors.Is(err, ErrNineBallDead) {
		t.Fatalf("EndTurn err = %v, want ErrNineBallDead", err)
	}
	if diff := cmp.Diff(before, e.Snapshot()); diff != "" {
		t.Fatalf("rejected EndTurn changed state:\n%s", diff)
	}
	if recent, _ := h.Recent(context.Background()); len(recent) != 0 {
		t.Fatalf("rejected EndTurn wrote history")
	}
}

func TestBallStateCycle(t *testing.T) {
	e, _ := newTestEngine(t)
	mustCreate(t, e, nineBallSetup(20, 20))

	want := []models.BallState{
		models.BallPocketed,
		models.BallDead,
		models.BallOnTable,
		models.BallPocketed,
	}
	for i, w := range want {
		res, err := e.SetBallState(3)
		if err != nil {
			t.Fatalf("SetBallState error: %v", err)
		}
		if res.Table[3] != w {
			t.Fatalf("tap %d: ball 4 = %s, want %s", i+1, res.Table[3], w)
		}
	}
}

func TestFrozenBallsIgnoreTaps(t *testing.T) {
	e, _ := newTestEngine(t)
	mustCreate(t, e, nineBallSetup(20, 20))
	tap(t, e, 0, 1) // pocketed
	tap(t, e, 1, 2) // dead
	if _, err := e.EndTurn(context.Background()); err != nil {
		t.Fatalf("EndTurn error: %v", err)
	}

	tap(t, e, 0, 1)
	tap(t, e, 1, 1)
	res := e.Snapshot()
	if res.Table[0] != models.BallAlreadyPocketed || res.Table[1] != models.BallAlreadyDead {
		t.Fatalf("frozen balls changed: %v", *res.Table)
	}
}

func TestSetBallStateGuards(t *testing.T) {
	e, _ := newTestEngine(t)
	mustCreate(t, e, nineBallSetup(20, 20))
	for _, idx := range []int{-1, 9} {
		if _, err := e.SetBallState(idx); !errors.Is(err, ErrInvalidBall) {
			t.Fatalf("SetBallState(%d) err = %v, want ErrInvalidBall", idx, err)
		}
	}

	eight, _ := newTestEngine(t)
	mustCreate(t, eight, eightBallSetup(5, 5))
	before := eight.Snapshot()
	if _, err := eight.SetBallState(2); err != nil {
		t.Fatalf("SetBallState on 8-ball error: %v", err)
	}
	if diff := cmp.Diff(before, eight.Snapshot()); diff != "" {
		t.Fatalf("SetBallState changed an 8-ball match:\n%s", diff)
	}
}

func TestNineBallWinOnPoints(t *testing.T) {
	e, h := newTestEngine(t)
	start := mustCreate(t, e, nineBallSetup(3, 20))
	tap(t, e, 5, 1)
	tap(t, e, 8, 1)

	res, err := e.EndTurn(context.Background())
	if err != nil {
		t.Fatalf("EndTurn error: %v", err)
	}
	if res.Winner == nil || *res.Winner != start.Match.Player1 {
		t.Fatalf("winner = %v, want player 1", res.Winner)
	}
	if res.State != StateCompleted || res.Match.IsActive {
		t.Fatalf("match still active after reaching target")
	}
	recent, _ := h.Recent(context.Background())
	if len(recent) != 1 || recent[0].Player1Score != 3 {
		t.Fatalf("history = %+v", recent)
	}
}

func TestEndMatch(t *testing.T) {
	ctx := context.Background()

	t.Run("leader wins", func(t *testing.T) {
		e, h := newTestEngine(t)
		start := mustCreate(t, e, nineBallSetup(20, 20))
		_, _ = e.EndTurn(ctx)
		tap(t, e, 1, 1)
		_, _ = e.EndTurn(ctx)

		res, err := e.EndMatch(ctx)
		if err != nil {
			t.Fatalf("EndMatch error: %v", err)
		}
		if res.Winner == nil || *res.Winner != start.Match.Player2 {
			t.Fatalf("winner = %v, want player 2", res.Winner)
		}
		recent, _ := h.Recent(ctx)
		if len(recent) != 1 || recent[0].Player2Score != 1 || recent[0].IsActive {
			t.Fatalf("history = %+v", recent)
		}
	})

	t.Run("tie has no winner", func(t *testing.T) {
		e, h := newTestEngine(t)
		mustCreate(t, e, nineBallSetup(20, 20))
		res, err := e.EndMatch(ctx)
		if err != nil {
			t.Fatalf("EndMatch error: %v", err)
		}
		if res.Winner != nil || res.State != StateCompleted {
			t.Fatalf("tie result = %+v", res)
		}
		if recent, _ := h.Recent(ctx); len(recent) != 1 {
			t.Fatalf("tie not recorded")
		}
	})
}

func TestCancelMatch(t *testing.T) {
	ctx := context.Background()
	e, h := newTestEngine(t)
	mustCreate(t, e, nineBallSetup(20, 20))
	tap(t, e, 0, 1)

	res, err := e.CancelMatch()
	if err != nil {
		t.Fatalf("CancelMatch error: %v", err)
	}
	if res.State != StateCancelled || e.State() != StateNotStarted {
		t.Fatalf("result state %s, engine state %s", res.State, e.State())
	}
	if recent, _ := h.Recent(ctx); len(recent) != 0 {
		t.Fatalf("cancel wrote %d history records", len(recent))
	}
	if _, err := e.EndTurn(ctx); !errors.Is(err, ErrNoActiveMatch) {
		t.Fatalf("EndTurn after cancel err = %v", err)
	}
	if _, err := e.CancelMatch(); !errors.Is(err, ErrNoActiveMatch) {
		t.Fatalf("second CancelMatch err = %v", err)
	}

	// a fresh rack for the next match
	next := mustCreate(t, e, nineBallSetup(20, 20))
	if *next.Table != (models.NineBallTable{}) {
		t.Fatalf("table carried over from cancelled match")
	}
}

func TestHistoryKeepsTenMostRecent(t *testing.T) {
	ctx := context.Background()
	e, h := newTestEngine(t)

	var ids []string
	for i := 0; i < 11; i++ {
		s := eightBallSetup(5, 5)
		s.Player1Name = fmt.Sprintf("Player %d", i)
		res := mustCreate(t, e, s)
		ids = append(ids, res.Match.ID)
		if _, err := e.EndMatch(ctx); err != nil {
			t.Fatalf("EndMatch %d error: %v", i, err)
		}
	}

	recent, err := h.Recent(ctx)
	if err != nil {
		t.Fatalf("Recent error: %v", err)
	}
	if len(recent) != 10 {
		t.Fatalf("history has %d records, want 10", len(recent))
	}
	for i, rec := range recent {
		if want := ids[10-i]; rec.ID != want {
			t.Fatalf("record %d = %s, want %s", i, rec.ID, want)
		}
	}
	for _, rec := range recent {
		if rec.ID == ids[0] {
			t.Fatalf("oldest match %s was not evicted", ids[0])
		}
	}
}

func TestUnreadableHistoryIsReplaced(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	if err := s.Save(ctx, RecentMatchesKey, []byte("{not json")); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	h := NewHistory(s, DefaultHistorySize)
	e := New(h, WithIDGenerator(sequentialIDs()))
	start := mustCreate(t, e, eightBallSetup(1, 1))

	if _, err := e.MarkGameOver(ctx, start.Match.Player1.ID); err != nil {
		t.Fatalf("MarkGameOver error: %v", err)
	}

	recent, err := h.Recent(ctx)
	if err != nil {
		t.Fatalf("Recent error: %v", err)
	}
	if len(recent) != 1 || recent[0].ID != start.Match.ID {
		t.Fatalf("history = %+v, want the finished match only", recent)
	}
}

type failingStore struct {
	store.Store
}

func (failingStore) Save(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestSaveFailureKeepsResult(t *testing.T) {
	h := NewHistory(failingStore{store.NewMemoryStore()}, DefaultHistorySize)
	e := New(h, WithIDGenerator(sequentialIDs()))
	start := mustCreate(t, e, eightBallSetup(1, 1))

	res, err := e.MarkGameOver(context.Background(), start.Match.Player1.ID)
	if err != nil {
		t.Fatalf("MarkGameOver error: %v", err)
	}
	if res.State != StateCompleted || res.Match.IsActive || res.Winner == nil {
		t.Fatalf("save failure rolled back the result: %+v", res)
	}
}

func TestQuickStart(t *testing.T) {
	rec := models.RecentMatchRecord{
		GameType: models.GameNineBall,
		Player1:  models.Player{ID: "a", Name: "Alice"},
		Player2:  models.Player{ID: "b", Name: "Bob"},
	}
	p1, p2, gt := QuickStart(rec)
	if p1 != "Alice" || p2 != "Bob" || gt != models.GameNineBall {
		t.Fatalf("QuickStart = (%s, %s, %s)", p1, p2, gt)
	}
}
