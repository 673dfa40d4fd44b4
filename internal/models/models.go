package models

import (
	"fmt"
	"strings"
	"time"
)

type GameType string

const (
	GameEightBall GameType = "8ball"
	GameNineBall  GameType = "9ball"
)

// ParseGameType accepts the stored short form ("8ball") as well as the
// upstream service's enum spelling ("EIGHT_BALL").
func ParseGameType(s string) (GameType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "8ball", "8-ball", "eight_ball", "eightball":
		return GameEightBall, nil
	case "9ball", "9-ball", "nine_ball", "nineball":
		return GameNineBall, nil
	}
	return "", fmt.Errorf("unknown game type %q", s)
}

type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Match struct {
	ID            string    `json:"id"`
	GameType      GameType  `json:"gameType"`
	Player1       Player    `json:"player1"`
	Player2       Player    `json:"player2"`
	Player1Score  int       `json:"player1Score"`
	Player2Score  int       `json:"player2Score"`
	Player1Target int       `json:"player1Target"`
	Player2Target int       `json:"player2Target"`
	CurrentGame   int       `json:"currentGame"`
	CurrentPlayer Player    `json:"currentPlayer"`
	CurrentInning int       `json:"currentInning"`
	CreatedAt     time.Time `json:"createdAt"`
	IsActive      bool      `json:"isActive"`
}

// PlayerByID returns the participant with the given id.
func (m *Match) PlayerByID(id string) (Player, bool) {
	switch id {
	case m.Player1.ID:
		return m.Player1, true
	case m.Player2.ID:
		return m.Player2, true
	}
	return Player{}, false
}

// Opponent returns the other participant.
func (m *Match) Opponent(p Player) Player {
	if p.ID == m.Player1.ID {
		return m.Player2
	}
	return m.Player1
}

// AddScore credits points to the player with the given id.
func (m *Match) AddScore(id string, points int) {
	if id == m.Player1.ID {
		m.Player1Score += points
	} else if id == m.Player2.ID {
		m.Player2Score += points
	}
}

// TargetReached reports the first player whose score has reached their
// race length, player 1 checked first.
func (m *Match) TargetReached() (Player, bool) {
	if m.Player1Score >= m.Player1Target {
		return m.Player1, true
	}
	if m.Player2Score >= m.Player2Target {
		return m.Player2, true
	}
	return Player{}, false
}

// Leader returns the player ahead on score, or false when level.
func (m *Match) Leader() (Player, bool) {
	switch {
	case m.Player1Score > m.Player2Score:
		return m.Player1, true
	case m.Player2Score > m.Player1Score:
		return m.Player2, true
	}
	return Player{}, false
}

// Record snapshots the match for the recent-match history.
func (m *Match) Record() RecentMatchRecord {
	return RecentMatchRecord{
		SchemaVersion: CurrentSchemaVersion,
		ID:            m.ID,
		GameType:      m.GameType,
		Player1:       m.Player1,
		Player2:       m.Player2,
		Player1Score:  m.Player1Score,
		Player2Score:  m.Player2Score,
		Player1Target: m.Player1Target,
		Player2Target: m.Player2Target,
		CurrentGame:   m.CurrentGame,
		CurrentPlayer: m.CurrentPlayer,
		CurrentInning: m.CurrentInning,
		CreatedAt:     m.CreatedAt.UTC().Format(time.RFC3339Nano),
		IsActive:      m.IsActive,
	}
}
