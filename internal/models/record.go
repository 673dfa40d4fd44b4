package models

import (
	"encoding/json"
	"time"
)

const (
	// SchemaVersionLegacy records were written by the mobile client and
	// count games rather than generic points.
	SchemaVersionLegacy  = 1
	CurrentSchemaVersion = 2

	// LegacyDefaultTarget is the race length assumed when a legacy record
	// has no target for a player.
	LegacyDefaultTarget = 5
)

// RecentMatchRecord is the persisted snapshot of a finished match. It is
// never mutated once written.
type RecentMatchRecord struct {
	SchemaVersion int      `json:"schemaVersion"`
	ID            string   `json:"id"`
	GameType      GameType `json:"gameType"`
	Player1       Player   `json:"player1"`
	Player2       Player   `json:"player2"`
	Player1Score  int      `json:"player1Score"`
	Player2Score  int      `json:"player2Score"`
	Player1Target int      `json:"player1Target"`
	Player2Target int      `json:"player2Target"`
	CurrentGame   int      `json:"currentGame"`
	CurrentPlayer Player   `json:"currentPlayer"`
	CurrentInning int      `json:"currentInning"`
	CreatedAt     string   `json:"createdAt"` // RFC 3339
	IsActive      bool     `json:"isActive"`
}

// CreatedTime parses CreatedAt, returning the zero time if it is malformed.
func (r RecentMatchRecord) CreatedTime() time.Time {
	t, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// UnmarshalJSON decodes both the current layout and the legacy layout,
// migrating legacy records to CurrentSchemaVersion.
func (r *RecentMatchRecord) UnmarshalJSON(data []byte) error {
	// Use an alias to avoid infinite recursion
	type recordAlias RecentMatchRecord
	var raw struct {
		recordAlias
		Player1GamesWon   *int `json:"player1GamesWon"`
		Player2GamesWon   *int `json:"player2GamesWon"`
		Player1GamesToWin *int `json:"player1GamesToWin"`
		Player2GamesToWin *int `json:"player2GamesToWin"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = RecentMatchRecord(raw.recordAlias)

	if r.SchemaVersion >= CurrentSchemaVersion {
		return nil
	}

	if raw.Player1GamesWon != nil {
		r.Player1Score = *raw.Player1GamesWon
	}
	if raw.Player2GamesWon != nil {
		r.Player2Score = *raw.Player2GamesWon
	}
	r.Player1Target = legacyTarget(raw.Player1GamesToWin, r.Player1Target)
	r.Player2Target = legacyTarget(raw.Player2GamesToWin, r.Player2Target)
	if gt, err := ParseGameType(string(r.GameType)); err == nil {
		r.GameType = gt
	}
	r.SchemaVersion = CurrentSchemaVersion
	return nil
}

func legacyTarget(legacy *int, current int) int {
	if legacy != nil && *legacy > 0 {
		return *legacy
	}
	if current > 0 {
		return current
	}
	return LegacyDefaultTarget
}
