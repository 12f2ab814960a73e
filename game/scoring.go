package game

import (
	"math/rand"
	"sync"
)

// Source yields a non-negative random int in [0, n).
// Implementations must be safe for concurrent use.
type Source interface {
	Intn(n int) int
}

// RollOutcome is the resolution of a single throw.
type RollOutcome struct {
	HitMark int    `json:"hitMark"`
	Label   string `json:"label"`
}

// Roller resolves one throw at a target into an outcome.
type Roller interface {
	Roll(target Target) RollOutcome
}

// Outcome tables. The entry counts are the rule, not just the resulting
// probabilities: a fair draw over the bull table gives a 2:3:1
// miss/single/double split, and over the numbered table a 2:6:1:3
// miss/single/double/triple split.
var bullOutcomes = []RollOutcome{
	{HitMark: 0, Label: "miss"},
	{HitMark: 0, Label: "miss"},
	{HitMark: 1, Label: "single bull!"},
	{HitMark: 1, Label: "single bull!"},
	{HitMark: 1, Label: "single bull!"},
	{HitMark: 2, Label: "double bull!"},
}

var numberedOutcomes = []RollOutcome{
	{HitMark: 0, Label: "miss"},
	{HitMark: 0, Label: "miss"},
	{HitMark: 1, Label: "single!"},
	{HitMark: 1, Label: "single!"},
	{HitMark: 1, Label: "single!"},
	{HitMark: 1, Label: "single!"},
	{HitMark: 1, Label: "single!"},
	{HitMark: 1, Label: "single!"},
	{HitMark: 2, Label: "double!"},
	{HitMark: 3, Label: "triple!"},
	{HitMark: 3, Label: "triple!"},
	{HitMark: 3, Label: "triple!"},
}

// DiceRoller draws roll outcomes from an injected random source, so games
// are reproducible under a seeded source.
type DiceRoller struct {
	src Source
}

func NewDiceRoller(src Source) DiceRoller {
	return DiceRoller{src: src}
}

func (d DiceRoller) Roll(target Target) RollOutcome {
	table := numberedOutcomes
	if target == TargetBull {
		table = bullOutcomes
	}
	return table[d.src.Intn(len(table))]
}

type lockedSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewLockedSource returns a seeded Source safe for use from concurrent
// room actors.
func NewLockedSource(seed int64) Source {
	return &lockedSource{rnd: rand.New(rand.NewSource(seed))}
}

func (s *lockedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Intn(n)
}

// applyHit mutates the acting player's marks and score for a throw that
// resolved to hitMark on target. Hits first fill marks up to three; any
// leftover hit value scores points, but only while the opponent has not
// closed the target themselves, and never beyond opponent.score+ScoreCap.
func applyHit(rules Rules, m *MatchState, target Target, hitMark int) {
	player := &m.Players[m.CurrentPlayerIndex]
	opponent := &m.Players[1-m.CurrentPlayerIndex]

	current := player.Marks[target]
	added := min(hitMark, closedMarks-current)
	player.Marks[target] = current + added
	player.Stats.MarksScored += added

	leftover := hitMark - added
	if leftover > 0 && player.Marks[target] == closedMarks && opponent.Marks[target] < closedMarks {
		score := player.Score + leftover*rules.TargetValue(target)
		if limit := opponent.Score + rules.ScoreCap; score > limit {
			score = limit
		}
		player.Score = score
	}
}
