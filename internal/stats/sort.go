package stats

import (
	"cmp"
	"math"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"scorekeeper-backend/internal/models"
)

type SortMode string

const (
	NameAsc      SortMode = "name-asc"
	NameDesc     SortMode = "name-desc"
	MatchesAsc   SortMode = "matches-asc"
	MatchesDesc  SortMode = "matches-desc"
	WinRateAsc   SortMode = "winrate-asc"
	WinRateDesc  SortMode = "winrate-desc"
	SkillAsc     SortMode = "skill-asc"
	SkillDesc    SortMode = "skill-desc"
	PositionAsc  SortMode = "position-asc"
	PositionDesc SortMode = "position-desc"
	DiffAsc      SortMode = "diff-asc"
	DiffDesc     SortMode = "diff-desc"
)

// Entry is one bucket ready for display.
type Entry struct {
	Key     string  `json:"key"`
	Label   string  `json:"label"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	Matches int     `json:"matches"`
	WinRate float64 `json:"winRate"`
	Percent int     `json:"percent"`
}

func newEntry(key string, wl models.WinLoss) Entry {
	return Entry{
		Key:     key,
		Label:   key,
		Wins:    wl.Wins,
		Losses:  wl.Losses,
		Matches: wl.Matches(),
		WinRate: wl.WinRate(),
		Percent: Percent(wl),
	}
}

// Sort orders buckets by mode. Entries start in ascending key order and
// the mode is applied with a stable sort, so ties keep that order. An
// unknown mode sorts by name.
func Sort(buckets map[string]models.WinLoss, mode SortMode) []Entry {
	entries := make([]Entry, 0, len(buckets))
	for k, wl := range buckets {
		entries = append(entries, newEntry(k, wl))
	}
	slices.SortFunc(entries, func(a, b Entry) int { return strings.Compare(a.Key, b.Key) })
	slices.SortStableFunc(entries, comparator(mode))
	return entries
}

func comparator(mode SortMode) func(a, b Entry) int {
	switch mode {
	case NameDesc:
		c := collate.New(language.English)
		return func(a, b Entry) int { return c.CompareString(b.Key, a.Key) }
	case MatchesAsc:
		return func(a, b Entry) int { return cmp.Compare(a.Matches, b.Matches) }
	case MatchesDesc:
		return func(a, b Entry) int { return cmp.Compare(b.Matches, a.Matches) }
	case WinRateAsc:
		return func(a, b Entry) int { return cmp.Compare(a.WinRate, b.WinRate) }
	case WinRateDesc:
		return func(a, b Entry) int { return cmp.Compare(b.WinRate, a.WinRate) }
	case SkillAsc, PositionAsc, DiffAsc:
		return func(a, b Entry) int { return compareNumeric(a.Key, b.Key, false) }
	case SkillDesc, PositionDesc, DiffDesc:
		return func(a, b Entry) int { return compareNumeric(a.Key, b.Key, true) }
	}
	c := collate.New(language.English)
	return func(a, b Entry) int { return c.CompareString(a.Key, b.Key) }
}

// compareNumeric orders keys by their leading integer. Keys without one
// go last in either direction.
func compareNumeric(a, b string, desc bool) int {
	na, okA := leadingInt(a)
	nb, okB := leadingInt(b)
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return 1
	case !okB:
		return -1
	case desc:
		return cmp.Compare(nb, na)
	}
	return cmp.Compare(na, nb)
}

// leadingInt reads an optionally signed integer prefix, so "3+" is 3.
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	start := 0
	if s != "" && (s[0] == '-' || s[0] == '+') {
		start = 1
	}
	digits := start
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		digits++
	}
	if digits == start {
		return 0, false
	}
	// out-of-range prefixes are treated as non-numeric
	n, err := strconv.ParseInt(s[:digits], 10, 64)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

// Percent is the win rate as a whole percentage, rounded half up.
func Percent(wl models.WinLoss) int {
	return int(math.Round(wl.WinRate() * 100))
}
