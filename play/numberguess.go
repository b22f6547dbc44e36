package play

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

const NumberGuessName = "Guess the Number"

// closeDistance is the largest miss that still scores points_for_close.
const closeDistance = 10

var ErrInvalidGuess = errors.New("play: guess must be a whole number")

// Guess is a Number-Guess move.
type Guess int

func (Guess) isMove() {}

// ParseGuess validates raw player input before it reaches the state machine.
func ParseGuess(raw string) (Guess, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, ErrInvalidGuess
	}
	return Guess(n), nil
}

type NumberGuessRules struct {
	MinNumber      int   `json:"min_number"`
	MaxNumber      int   `json:"max_number"`
	PointsForExact int64 `json:"points_for_exact"`
	PointsForClose int64 `json:"points_for_close"`
}

// NumberGuessState is AwaitingGuess until the first guess, Resolved after.
// Every guess is a complete round, so a resolved state accepts the next guess.
type NumberGuessState struct {
	LastGuess int
	Target    int
	Min       int
	Max       int
	Resolved  bool
}

func (s NumberGuessState) Terminal() bool { return s.Resolved }

type NumberGuess struct {
	Rules NumberGuessRules
}

// NewNumberGuess requires all four rule fields.
func NewNumberGuess(raw json.RawMessage) (Variant, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, malformed("number guess rules: %v", err)
	}
	for _, key := range []string{"min_number", "max_number", "points_for_exact", "points_for_close"} {
		if v, ok := fields[key]; !ok || string(v) == "null" {
			return nil, malformed("number guess rules: missing %s", key)
		}
	}

	var rules NumberGuessRules
	if err := json.Unmarshal(raw, &rules); err != nil {
		return nil, malformed("number guess rules: %v", err)
	}
	if rules.MinNumber > rules.MaxNumber {
		return nil, malformed("min_number %d is greater than max_number %d", rules.MinNumber, rules.MaxNumber)
	}
	if rules.PointsForExact < 0 || rules.PointsForClose < 0 {
		return nil, malformed("point values must not be negative")
	}
	return &NumberGuess{Rules: rules}, nil
}

func (g *NumberGuess) Name() string { return NumberGuessName }

func (g *NumberGuess) Initial() State {
	return NumberGuessState{Min: g.Rules.MinNumber, Max: g.Rules.MaxNumber}
}

func (g *NumberGuess) Apply(state State, move Move, round Round) (State, error) {
	guess, ok := move.(Guess)
	if !ok {
		return state, ErrIllegalMove
	}
	rnd := round.Random
	if rnd == nil {
		rnd = DefaultRandom{}
	}
	return NumberGuessState{
		LastGuess: int(guess),
		Target:    rnd.Uniform(g.Rules.MinNumber, g.Rules.MaxNumber),
		Min:       g.Rules.MinNumber,
		Max:       g.Rules.MaxNumber,
		Resolved:  true,
	}, nil
}

func (g *NumberGuess) IsTerminal(state State) bool { return state.Terminal() }

func (g *NumberGuess) Outcome(state State, _ Round) Outcome {
	s, _ := state.(NumberGuessState)
	points := g.score(s.LastGuess, s.Target)
	return Outcome{
		PointsEarned: points,
		IsWinner:     points > 0,
		Metadata: map[string]any{
			"guess":  s.LastGuess,
			"target": s.Target,
		},
	}
}

func (g *NumberGuess) score(guess, target int) int64 {
	var diff uint64
	if guess >= target {
		diff = uint64(guess) - uint64(target)
	} else {
		diff = uint64(target) - uint64(guess)
	}
	switch {
	case diff == 0:
		return g.Rules.PointsForExact
	case diff <= closeDistance:
		return g.Rules.PointsForClose
	default:
		return 0
	}
}
