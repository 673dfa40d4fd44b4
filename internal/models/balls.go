package models

import "fmt"

// BallState is the scorekeeping state of one object ball in a 9-ball rack.
type BallState uint8

const (
	BallOnTable BallState = iota
	BallPocketed
	BallDead
	BallAlreadyPocketed
	BallAlreadyDead
)

var ballStateNames = [...]string{
	BallOnTable:         "on_table",
	BallPocketed:        "pocketed",
	BallDead:            "dead",
	BallAlreadyPocketed: "already_pocketed",
	BallAlreadyDead:     "already_dead",
}

func (s BallState) String() string {
	if int(s) < len(ballStateNames) {
		return ballStateNames[s]
	}
	return fmt.Sprintf("BallState(%d)", s)
}

func (s BallState) MarshalText() ([]byte, error) {
	if int(s) >= len(ballStateNames) {
		return nil, fmt.Errorf("invalid ball state %d", s)
	}
	return []byte(ballStateNames[s]), nil
}

func (s *BallState) UnmarshalText(text []byte) error {
	for i, name := range ballStateNames {
		if name == string(text) {
			*s = BallState(i)
			return nil
		}
	}
	return fmt.Errorf("invalid ball state %q", text)
}

// Frozen balls were scored in an earlier inning of the current rack and
// cannot be changed until the rack is reset.
func (s BallState) Frozen() bool {
	return s == BallAlreadyPocketed || s == BallAlreadyDead
}

// Next returns the state a tap on the ball moves it to.
func (s BallState) Next() BallState {
	switch s {
	case BallOnTable:
		return BallPocketed
	case BallPocketed:
		return BallDead
	case BallDead:
		return BallOnTable
	}
	return s
}

const NineBallCount = 9

// NineBallTable holds balls 1-9 at indexes 0-8.
type NineBallTable [NineBallCount]BallState

func (t *NineBallTable) Reset() {
	for i := range t {
		t[i] = BallOnTable
	}
}

// Settle scores the inning: every pocketed ball is worth 1 point and the
// 9-ball is worth 2. Pocketed and dead balls are demoted so they cannot be
// scored again; pocketing the 9 resets the rack instead.
func (t *NineBallTable) Settle() (points int, rackComplete bool) {
	for i, s := range t {
		if s != BallPocketed {
			continue
		}
		if i == NineBallCount-1 {
			points += 2
			rackComplete = true
		} else {
			points++
		}
	}

	for i, s := range t {
		switch s {
		case BallPocketed:
			t[i] = BallAlreadyPocketed
		case BallDead:
			t[i] = BallAlreadyDead
		}
	}
	if rackComplete {
		t.Reset()
	}
	return points, rackComplete
}
