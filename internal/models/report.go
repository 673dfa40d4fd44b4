package models

// WinLoss is one pre-aggregated bucket from the statistics service.
type WinLoss struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
}

func (w WinLoss) Matches() int {
	return w.Wins + w.Losses
}

// WinRate is wins over matches played. A bucket with no matches has a
// win rate of 0 so it never carries NaN into comparisons.
func (w WinLoss) WinRate() float64 {
	total := w.Matches()
	if total == 0 {
		return 0
	}
	return float64(w.Wins) / float64(total)
}

type Streak struct {
	Count  int    `json:"count"`
	Season string `json:"season"`
}

type Trend string

const (
	TrendUp     Trend = "UP"
	TrendDown   Trend = "DOWN"
	TrendStable Trend = "STABLE"
)

// Report is a player's aggregated statistics as returned by the upstream
// report service. All buckets are computed server-side.
type Report struct {
	ID                string             `json:"id"`
	OverallWins       int                `json:"overallWins"`
	OverallLosses     int                `json:"overallLosses"`
	BySession         map[string]WinLoss `json:"bySession"`
	HeadToHead        map[string]WinLoss `json:"headToHead"`
	ByPosition        map[string]WinLoss `json:"byPosition"`
	ByLocation        map[string]WinLoss `json:"byLocation"`
	ScoreDistribution map[string]int     `json:"scoreDistribution"`
	BySkillDifference map[string]WinLoss `json:"bySkillDifference"`
	ByOpponentSkill   map[string]WinLoss `json:"byOpponentSkill"`
	ByMySkill         map[string]WinLoss `json:"byMySkill"`
	ByInnings         map[string]WinLoss `json:"byInnings"`
	ByTeamSituation   map[string]WinLoss `json:"byTeamSituation"`
	CurrentStreak     *int               `json:"currentStreak,omitempty"`
	LongestWinStreak  *Streak            `json:"longestWinStreak,omitempty"`
	LongestLossStreak *Streak            `json:"longestLossStreak,omitempty"`
	Last3Matches      *WinLoss           `json:"last3Matches,omitempty"`
	Last5Matches      *WinLoss           `json:"last5Matches,omitempty"`
	Last10Matches     *WinLoss           `json:"last10Matches,omitempty"`
	Trending          Trend              `json:"trending,omitempty"`
	TotalMatches      int                `json:"totalMatches"`
	TotalTeams        int                `json:"totalTeams"`
	GeneratedAt       string             `json:"generatedAt"`
}

func (r *Report) Overall() WinLoss {
	return WinLoss{Wins: r.OverallWins, Losses: r.OverallLosses}
}

// WrappedSlide is one card of the year-in-review presentation. Slides are
// heterogeneous, so everything beyond the type is kept as raw fields.
type WrappedSlide map[string]any

func (s WrappedSlide) Type() string {
	t, _ := s["type"].(string)
	return t
}
