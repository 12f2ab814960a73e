package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMatch() *MatchState {
	return NewMatchState(DefaultRules(),
		RoomPlayer{ID: "p1", Name: "alice", PlayerNumber: 1},
		RoomPlayer{ID: "p2", Name: "bob", PlayerNumber: 2})
}

func closeAll(m *MatchState, playerIndex int) {
	for t := range m.Players[playerIndex].Marks {
		m.Players[playerIndex].Marks[t] = closedMarks
	}
}

func TestNewMatchState(t *testing.T) {
	m := newTestMatch()

	assert.Equal(t, 1, m.Round)
	assert.Equal(t, 3, m.RollsLeft)
	assert.Equal(t, 0, m.CurrentPlayerIndex)
	assert.False(t, m.IsGameOver)
	assert.Len(t, m.Targets, 7)
	for _, p := range m.Players {
		assert.Zero(t, p.Score)
		for _, marks := range p.Marks {
			assert.Zero(t, marks)
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	m := newTestMatch()
	clone := m.Clone()

	clone.Players[0].Marks[Target20] = 3
	clone.Players[0].Score = 40
	clone.RollsLeft = 0

	assert.Zero(t, m.Players[0].Marks[Target20])
	assert.Zero(t, m.Players[0].Score)
	assert.Equal(t, 3, m.RollsLeft)
}

func TestApplyRoll(t *testing.T) {
	rules := DefaultRules()

	t.Run("a hit is accounted in marks and stats", func(t *testing.T) {
		m := newTestMatch()
		roller := &stubRoller{outcomes: []RollOutcome{{HitMark: 3, Label: "triple!"}}}

		m.ApplyRoll(rules, roller, Target20)

		p := m.Players[0]
		assert.Equal(t, 3, p.Marks[Target20])
		assert.Equal(t, 1, p.Stats.TotalThrows)
		assert.Equal(t, 1, p.Stats.TotalHits)
		assert.Equal(t, 3, p.Stats.TotalHitValue)
		assert.Equal(t, 3, p.Stats.MarksScored)
		assert.Equal(t, 2, m.RollsLeft)
		assert.Equal(t, "alice threw at 20: triple!", m.LastRoll)
	})

	t.Run("a miss burns the roll but only counts a throw", func(t *testing.T) {
		m := newTestMatch()
		roller := &stubRoller{outcomes: []RollOutcome{{HitMark: 0, Label: "miss"}}}

		m.ApplyRoll(rules, roller, TargetBull)

		p := m.Players[0]
		assert.Zero(t, p.Marks[TargetBull])
		assert.Equal(t, 1, p.Stats.TotalThrows)
		assert.Zero(t, p.Stats.TotalHits)
		assert.Equal(t, 2, m.RollsLeft)
		assert.Equal(t, "alice threw at BULL: miss", m.LastRoll)
	})
}

func TestAdvanceTurn(t *testing.T) {
	rules := DefaultRules()

	t.Run("no-op while rolls remain", func(t *testing.T) {
		m := newTestMatch()
		m.RollsLeft = 1

		m.AdvanceTurn(rules)

		assert.Equal(t, 0, m.CurrentPlayerIndex)
		assert.Equal(t, 1, m.RollsLeft)
		assert.Equal(t, 1, m.Round)
	})

	t.Run("hands over to the second player without advancing the round", func(t *testing.T) {
		m := newTestMatch()
		m.RollsLeft = 0

		m.AdvanceTurn(rules)

		assert.Equal(t, 1, m.CurrentPlayerIndex)
		assert.Equal(t, 3, m.RollsLeft)
		assert.Equal(t, 1, m.Round)
	})

	t.Run("round advances when control returns to the first player", func(t *testing.T) {
		m := newTestMatch()
		m.CurrentPlayerIndex = 1
		m.RollsLeft = 0

		m.AdvanceTurn(rules)

		assert.Equal(t, 0, m.CurrentPlayerIndex)
		assert.Equal(t, 2, m.Round)
	})
}

func TestEndConditions(t *testing.T) {
	rules := DefaultRules()

	t.Run("closing everything while ahead ends the match", func(t *testing.T) {
		m := newTestMatch()
		closeAll(m, 0)
		m.Players[0].Score = 40
		m.RollsLeft = 0

		m.AdvanceTurn(rules)

		assert.True(t, m.IsGameOver)
	})

	t.Run("closing everything while trailing keeps the match going", func(t *testing.T) {
		m := newTestMatch()
		closeAll(m, 0)
		m.Players[0].Score = 10
		m.Players[1].Score = 50
		m.RollsLeft = 0

		m.AdvanceTurn(rules)

		assert.False(t, m.IsGameOver)
		assert.Equal(t, 1, m.CurrentPlayerIndex)
	})

	t.Run("the closer can win on a score tie", func(t *testing.T) {
		m := newTestMatch()
		closeAll(m, 1)
		m.CurrentPlayerIndex = 1
		m.RollsLeft = 0

		m.AdvanceTurn(rules)

		assert.True(t, m.IsGameOver)
	})

	t.Run("round cap only triggers after the second player's turn", func(t *testing.T) {
		m := newTestMatch()
		m.Round = rules.MaxRounds
		m.RollsLeft = 0

		m.AdvanceTurn(rules)
		require.False(t, m.IsGameOver, "first player finishing round %d must not end the match", rules.MaxRounds)
		assert.Equal(t, 1, m.CurrentPlayerIndex)

		m.RollsLeft = 0
		m.AdvanceTurn(rules)
		assert.True(t, m.IsGameOver)
		assert.Equal(t, rules.MaxRounds, m.Round)
	})
}

func TestWinner(t *testing.T) {
	t.Run("higher score wins", func(t *testing.T) {
		m := newTestMatch()
		m.Players[0].Score = 60
		m.Players[1].Score = 100

		winner := m.Winner()
		require.NotNil(t, winner)
		assert.Equal(t, "bob", winner.Name)
	})

	t.Run("score tie falls back to marks per round", func(t *testing.T) {
		m := newTestMatch()
		m.Players[0].Stats = Stats{TotalThrows: 10, TotalHitValue: 15} // 1.5
		m.Players[1].Stats = Stats{TotalThrows: 10, TotalHitValue: 12} // 1.2

		winner := m.Winner()
		require.NotNil(t, winner)
		assert.Equal(t, "alice", winner.Name)
	})

	t.Run("identical score and rate is a draw", func(t *testing.T) {
		m := newTestMatch()
		m.Players[0].Stats = Stats{TotalThrows: 9, TotalHitValue: 9}
		m.Players[1].Stats = Stats{TotalThrows: 9, TotalHitValue: 9}

		assert.Nil(t, m.Winner())
	})

	t.Run("no throws at all is a draw", func(t *testing.T) {
		assert.Nil(t, newTestMatch().Winner())
	})
}

// TestFullMatchInvariants plays whole seeded matches and checks that the
// state never leaves its legal envelope.
func TestFullMatchInvariants(t *testing.T) {
	rules := DefaultRules()

	for seed := int64(1); seed <= 20; seed++ {
		roller := NewDiceRoller(NewLockedSource(seed))
		targetSrc := NewLockedSource(seed * 31)
		m := newTestMatch()

		for rolls := 0; !m.IsGameOver; rolls++ {
			require.Less(t, rolls, 10_000, "seed %d: match did not terminate", seed)

			target := rules.Targets[targetSrc.Intn(len(rules.Targets))]
			m.ApplyRoll(rules, roller, target)
			m.AdvanceTurn(rules)

			require.GreaterOrEqual(t, m.RollsLeft, 0)
			require.LessOrEqual(t, m.RollsLeft, rules.RollsPerTurn)
			require.LessOrEqual(t, m.Round, rules.MaxRounds)
			for i := range m.Players {
				p := &m.Players[i]
				opponent := &m.Players[1-i]
				for _, marks := range p.Marks {
					require.GreaterOrEqual(t, marks, 0)
					require.LessOrEqual(t, marks, closedMarks)
				}
				require.LessOrEqual(t, p.Score, opponent.Score+rules.ScoreCap, "seed %d: score cap violated", seed)
			}
		}

		assert.Zero(t, m.RollsLeft, "seed %d: matches only end on an exhausted turn", seed)
	}
}
