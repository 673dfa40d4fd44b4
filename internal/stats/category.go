package stats

import (
	"fmt"
	"slices"

	"scorekeeper-backend/internal/models"
)

type Category string

const (
	Location        Category = "location"
	Position        Category = "position"
	HeadToHead      Category = "headToHead"
	MySkill         Category = "mySkill"
	OpponentSkill   Category = "opponentSkill"
	SkillDifference Category = "skillDifference"
)

// Option is one entry in a card's sort button cycle.
type Option struct {
	Mode  SortMode `json:"mode"`
	Label string   `json:"label"`
}

var (
	nameOptions = []Option{
		{NameAsc, "Name A-Z"},
		{NameDesc, "Name Z-A"},
	}
	matchesOptions = []Option{
		{MatchesAsc, "Matches ↑"},
		{MatchesDesc, "Matches ↓"},
	}
	winRateOptions = []Option{
		{WinRateAsc, "Win % ↑"},
		{WinRateDesc, "Win % ↓"},
	}
	skillOptions = []Option{
		{SkillAsc, "Skill ↑"},
		{SkillDesc, "Skill ↓"},
	}
	positionOptions = []Option{
		{PositionAsc, "Position ↑"},
		{PositionDesc, "Position ↓"},
	}
	diffOptions = []Option{
		{DiffAsc, "Difference ↑"},
		{DiffDesc, "Difference ↓"},
	}
)

var categoryOptions = map[Category][]Option{
	Location:        slices.Concat(nameOptions, winRateOptions),
	Position:        slices.Concat(positionOptions, winRateOptions),
	HeadToHead:      slices.Concat(nameOptions, matchesOptions, winRateOptions),
	MySkill:         slices.Concat(skillOptions, winRateOptions),
	OpponentSkill:   slices.Concat(skillOptions, winRateOptions),
	SkillDifference: slices.Concat(diffOptions, winRateOptions),
}

// Categories lists the stats cards in display order.
func Categories() []Category {
	return []Category{Location, Position, HeadToHead, MySkill, OpponentSkill, SkillDifference}
}

func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if _, ok := categoryOptions[c]; !ok {
		return "", fmt.Errorf("unknown stats category %q", s)
	}
	return c, nil
}

// Options returns the sort cycle for the card.
func (c Category) Options() []Option {
	return slices.Clone(categoryOptions[c])
}

// Resolve returns mode if the card offers it, otherwise the card's first
// mode.
func (c Category) Resolve(mode SortMode) SortMode {
	opts := categoryOptions[c]
	if len(opts) == 0 {
		return NameAsc
	}
	if slices.ContainsFunc(opts, func(o Option) bool { return o.Mode == mode }) {
		return mode
	}
	return opts[0].Mode
}

// Next is the mode after mode in the card's cycle, wrapping around. An
// unknown mode restarts the cycle at the first option.
func (c Category) Next(mode SortMode) SortMode {
	opts := categoryOptions[c]
	if len(opts) == 0 {
		return NameAsc
	}
	i := slices.IndexFunc(opts, func(o Option) bool { return o.Mode == mode })
	return opts[(i+1)%len(opts)].Mode
}

// Label is the button text for mode on this card.
func (c Category) Label(mode SortMode) string {
	opts := categoryOptions[c]
	for _, o := range opts {
		if o.Mode == mode {
			return o.Label
		}
	}
	if len(opts) > 0 {
		return opts[0].Label
	}
	return "Sort"
}

// Buckets picks the card's win/loss map out of a report.
func (c Category) Buckets(r *models.Report) map[string]models.WinLoss {
	switch c {
	case Location:
		return r.ByLocation
	case Position:
		return r.ByPosition
	case HeadToHead:
		return r.HeadToHead
	case MySkill:
		return r.ByMySkill
	case OpponentSkill:
		return r.ByOpponentSkill
	case SkillDifference:
		return r.BySkillDifference
	}
	return nil
}

// EntryLabel is the row text shown for a bucket key.
func (c Category) EntryLabel(key string) string {
	switch c {
	case MySkill, OpponentSkill:
		return "Skill " + key
	case SkillDifference:
		return SkillDifferenceLabel(key)
	}
	return key
}

// SkillDifferenceLabel describes a signed skill gap, e.g. "2" is
// "Playing up 2 levels".
func SkillDifferenceLabel(key string) string {
	n, ok := leadingInt(key)
	if !ok {
		return key
	}
	switch {
	case n == 0:
		return "Same skill level"
	case n > 0:
		return fmt.Sprintf("Playing up %d %s", n, levels(n))
	}
	return fmt.Sprintf("Playing down %d %s", -n, levels(-n))
}

func levels(n int) string {
	if n == 1 {
		return "level"
	}
	return "levels"
}

// Card is a sorted, labelled stats card.
type Card struct {
	Category  Category `json:"category"`
	Mode      SortMode `json:"mode"`
	SortLabel string   `json:"sortLabel"`
	NextMode  SortMode `json:"nextMode"`
	Options   []Option `json:"options"`
	Entries   []Entry  `json:"entries"`
}

// Present builds the card for category from a report.
func Present(r *models.Report, c Category, mode SortMode) Card {
	return c.Card(c.Buckets(r), mode)
}

// Card sorts and labels buckets with the card's sort cycle. A mode the
// card does not offer is replaced by its first option.
func (c Category) Card(buckets map[string]models.WinLoss, mode SortMode) Card {
	mode = c.Resolve(mode)
	entries := Sort(buckets, mode)
	for i := range entries {
		entries[i].Label = c.EntryLabel(entries[i].Key)
	}
	return Card{
		Category:  c,
		Mode:      mode,
		SortLabel: c.Label(mode),
		NextMode:  c.Next(mode),
		Options:   c.Options(),
		Entries:   entries,
	}
}
