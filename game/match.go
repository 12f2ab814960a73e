package game

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

type Stats struct {
	TotalThrows   int `json:"totalThrows"`
	TotalHits     int `json:"totalHits"`
	TotalHitValue int `json:"totalHitValue"`
	MarksScored   int `json:"marksScored"`
}

type PlayerState struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	PlayerNumber int            `json:"playerNumber"`
	Score        int            `json:"score"`
	Marks        map[Target]int `json:"marks"`
	Stats        Stats          `json:"stats"`
}

// MatchState is the authoritative per-match record. Index 0 of Players is
// the first player and always throws first each round; playerNumber is only
// a UI placement hint. The rules constants ride along in the snapshot for
// client convenience.
type MatchState struct {
	Targets            []Target       `json:"TARGETS"`
	MaxRounds          int            `json:"MAX_ROUNDS"`
	Players            [2]PlayerState `json:"players"`
	CurrentPlayerIndex int            `json:"currentPlayerIndex"`
	Round              int            `json:"round"`
	RollsLeft          int            `json:"rollsLeft"`
	IsGameOver         bool           `json:"isGameOver"`
	LastRoll           string         `json:"lastRoll,omitempty"`
}

func newPlayerState(rules Rules, p RoomPlayer) PlayerState {
	marks := make(map[Target]int, len(rules.Targets))
	for _, t := range rules.Targets {
		marks[t] = 0
	}
	return PlayerState{
		ID:           p.ID,
		Name:         p.Name,
		PlayerNumber: p.PlayerNumber,
		Marks:        marks,
	}
}

// NewMatchState builds the initial state for a match between first and
// second. It is only ever created when the second player joins a room.
func NewMatchState(rules Rules, first, second RoomPlayer) *MatchState {
	return &MatchState{
		Targets:   slices.Clone(rules.Targets),
		MaxRounds: rules.MaxRounds,
		Players: [2]PlayerState{
			newPlayerState(rules, first),
			newPlayerState(rules, second),
		},
		CurrentPlayerIndex: 0,
		Round:              1,
		RollsLeft:          rules.RollsPerTurn,
	}
}

// Clone deep-copies the state so a roll can be staged and only committed
// once it has been durably persisted.
func (m *MatchState) Clone() *MatchState {
	clone := *m
	clone.Targets = slices.Clone(m.Targets)
	for i := range clone.Players {
		clone.Players[i].Marks = maps.Clone(m.Players[i].Marks)
	}
	return &clone
}

// ApplyRoll runs one throw for the current player: resolve the dice,
// account the stats, mutate marks and score, burn one roll.
func (m *MatchState) ApplyRoll(rules Rules, roller Roller, target Target) {
	player := &m.Players[m.CurrentPlayerIndex]
	player.Stats.TotalThrows++

	outcome := roller.Roll(target)
	player.Stats.TotalHitValue += outcome.HitMark
	if outcome.HitMark > 0 {
		player.Stats.TotalHits++
		applyHit(rules, m, target, outcome.HitMark)
	}

	m.LastRoll = fmt.Sprintf("%s threw at %s: %s", player.Name, strings.ToUpper(string(target)), outcome.Label)
	m.RollsLeft--
}

// AdvanceTurn is a no-op until the current player has exhausted their
// rolls. It then evaluates the end of the match and, if play continues,
// hands the turn over; the round counter advances only when control
// returns to the first player.
func (m *MatchState) AdvanceTurn(rules Rules) {
	if m.RollsLeft > 0 {
		return
	}

	if m.evaluateEnd(rules) {
		m.IsGameOver = true
		return
	}

	m.CurrentPlayerIndex = 1 - m.CurrentPlayerIndex
	m.RollsLeft = rules.RollsPerTurn
	if m.CurrentPlayerIndex == 0 {
		m.Round++
	}
}

func (m *MatchState) allClosed(rules Rules, p *PlayerState) bool {
	for _, t := range rules.Targets {
		if p.Marks[t] < closedMarks {
			return false
		}
	}
	return true
}

// evaluateEnd is only meaningful at rollsLeft == 0. Closing every target
// only wins while not trailing on score. The round cap is checked when the
// second player finishes, so both players always get equal turns even when
// the first player crosses the cap.
func (m *MatchState) evaluateEnd(rules Rules) bool {
	first, second := &m.Players[0], &m.Players[1]

	if m.allClosed(rules, first) && first.Score >= second.Score {
		return true
	}
	if m.allClosed(rules, second) && second.Score >= first.Score {
		return true
	}
	return m.Round >= rules.MaxRounds && m.CurrentPlayerIndex == 1
}

func mprRate(s Stats) float64 {
	if s.TotalThrows == 0 {
		return 0
	}
	return float64(s.TotalHitValue) / float64(s.TotalThrows)
}

// Winner returns the winning player, or nil on a draw. Higher score wins
// outright; a score tie falls back to the marks-per-throw rate.
func (m *MatchState) Winner() *PlayerState {
	first, second := &m.Players[0], &m.Players[1]

	if first.Score != second.Score {
		if first.Score > second.Score {
			return first
		}
		return second
	}

	firstRate, secondRate := mprRate(first.Stats), mprRate(second.Stats)
	switch {
	case firstRate > secondRate:
		return first
	case secondRate > firstRate:
		return second
	default:
		return nil
	}
}
