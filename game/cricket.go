package game

import (
	"slices"
	"strconv"
)

// Target is one of the seven scorable cricket zones.
type Target string

const (
	Target20   Target = "20"
	Target19   Target = "19"
	Target18   Target = "18"
	Target17   Target = "17"
	Target16   Target = "16"
	Target15   Target = "15"
	TargetBull Target = "bull"
)

// closedMarks is the mark count that closes a target for a player.
const closedMarks = 3

// Rules is the static cricket configuration, passed explicitly into every
// engine call instead of living as package globals.
type Rules struct {
	Targets      []Target
	BullValue    int
	ScoreCap     int
	MaxRounds    int
	RollsPerTurn int
}

func DefaultRules() Rules {
	return Rules{
		Targets:      []Target{Target20, Target19, Target18, Target17, Target16, Target15, TargetBull},
		BullValue:    25,
		ScoreCap:     200,
		MaxRounds:    15,
		RollsPerTurn: 3,
	}
}

func (r Rules) ValidTarget(t Target) bool {
	return slices.Contains(r.Targets, t)
}

// TargetValue returns the points a single leftover hit on t is worth.
func (r Rules) TargetValue(t Target) int {
	if t == TargetBull {
		return r.BullValue
	}
	v, err := strconv.Atoi(string(t))
	if err != nil {
		return 0
	}
	return v
}
