package scorekeeper

import "errors"

var (
	// ErrInvalidSetup covers empty or duplicate player names, bad race
	// lengths and an unknown breaker. The caller should re-prompt.
	ErrInvalidSetup = errors.New("invalid match setup")

	// ErrNineBallDead rejects ending a turn while the 9-ball is marked dead.
	ErrNineBallDead = errors.New("9-ball cannot be marked dead; it must be spotted")

	ErrUnknownPlayer = errors.New("player is not in this match")
	ErrNoActiveMatch = errors.New("no match in progress")
	ErrMatchStarted  = errors.New("a match is already in progress")
	ErrMatchOver     = errors.New("match is already over")
	ErrWrongGameType = errors.New("operation not available for this game type")
	ErrInvalidBall   = errors.New("ball index out of range")
)
