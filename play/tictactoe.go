package play

import (
	"encoding/json"
	"strings"
)

const TicTacToeName = "Tic Tac Toe"

// defaultWinPoints applies when the catalog entry carries no rules.
const defaultWinPoints = 10

const centerCell = 4

type Mark uint8

const (
	Empty Mark = iota
	X
	O
)

func (m Mark) String() string {
	switch m {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return ""
	}
}

func (m Mark) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// Board is a value type: assigning or passing it copies all nine cells.
type Board [9]Mark

var winLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// CheckWinner returns the mark filling a whole line, or Empty.
func CheckWinner(b Board) Mark {
	for _, l := range winLines {
		if m := b[l[0]]; m != Empty && m == b[l[1]] && m == b[l[2]] {
			return m
		}
	}
	return Empty
}

func (b Board) EmptyCells() []int {
	cells := make([]int, 0, len(b))
	for i, m := range b {
		if m == Empty {
			cells = append(cells, i)
		}
	}
	return cells
}

func (b Board) String() string {
	var sb strings.Builder
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			i := row*3 + col
			switch b[i] {
			case Empty:
				sb.WriteByte(byte('1' + i))
			default:
				sb.WriteString(b[i].String())
			}
			if col < 2 {
				sb.WriteString(" | ")
			}
		}
		if row < 2 {
			sb.WriteString("\n---------\n")
		}
	}
	return sb.String()
}

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

func DifficultyForLevel(level int) Difficulty {
	switch {
	case level >= 3:
		return Hard
	case level >= 2:
		return Medium
	default:
		return Easy
	}
}

type TicTacToeStatus string

const (
	InProgress  TicTacToeStatus = "in_progress"
	PlayerWin   TicTacToeStatus = "player_win"
	OpponentWin TicTacToeStatus = "opponent_win"
	Draw        TicTacToeStatus = "draw"
)

// Cell is a Tic-Tac-Toe move, 0..8 row-major.
type Cell int

func (Cell) isMove() {}

type TicTacToeState struct {
	Board       Board
	CurrentTurn Mark
	Winner      Mark
	MoveCount   int
	Status      TicTacToeStatus
}

func (s TicTacToeState) Terminal() bool { return s.Status != InProgress }

type TicTacToeRules struct {
	PointsForExact int64 `json:"points_for_exact"`
}

type TicTacToe struct {
	Rules TicTacToeRules
}

// NewTicTacToe accepts empty rules; points_for_exact then defaults to 10.
func NewTicTacToe(raw json.RawMessage) (Variant, error) {
	rules := TicTacToeRules{PointsForExact: defaultWinPoints}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed != "" && trimmed != "null" {
		if err := json.Unmarshal(raw, &rules); err != nil {
			return nil, malformed("tic tac toe rules: %v", err)
		}
	}
	if rules.PointsForExact < 0 {
		return nil, malformed("points_for_exact must not be negative")
	}
	return &TicTacToe{Rules: rules}, nil
}

func (t *TicTacToe) Name() string { return TicTacToeName }

func (t *TicTacToe) Initial() State {
	return TicTacToeState{CurrentTurn: X, Status: InProgress}
}

// Apply places X, lets the opponent answer, and settles the round.
func (t *TicTacToe) Apply(state State, move Move, round Round) (State, error) {
	s, ok := state.(TicTacToeState)
	if !ok {
		return state, ErrIllegalMove
	}
	cell, ok := move.(Cell)
	if !ok || s.Terminal() || cell < 0 || int(cell) >= len(s.Board) || s.Board[cell] != Empty {
		return state, ErrIllegalMove
	}

	next := s
	next.Board[cell] = X
	next.MoveCount++

	if CheckWinner(next.Board) == X {
		next.Winner = X
		next.Status = PlayerWin
		return next, nil
	}

	if empty := next.Board.EmptyCells(); len(empty) > 0 {
		pick, err := opponentMove(next.Board, empty, round)
		if err != nil {
			return state, err
		}
		next.Board[pick] = O
		next.MoveCount++
		if CheckWinner(next.Board) == O {
			next.Winner = O
			next.Status = OpponentWin
			return next, nil
		}
	}

	if len(next.Board.EmptyCells()) == 0 {
		next.Status = Draw
	}
	next.CurrentTurn = X
	return next, nil
}

func opponentMove(b Board, empty []int, round Round) (int, error) {
	if round.Difficulty == Medium && b[centerCell] == Empty {
		return centerCell, nil
	}
	rnd := round.Random
	if rnd == nil {
		rnd = DefaultRandom{}
	}
	return rnd.PickOne(empty)
}

func (t *TicTacToe) IsTerminal(state State) bool { return state.Terminal() }

// Outcome scores a finished board. Draws score like a loss.
func (t *TicTacToe) Outcome(state State, round Round) Outcome {
	s, _ := state.(TicTacToeState)
	won := s.Status == PlayerWin
	var points int64
	if won {
		points = t.Rules.PointsForExact
	}
	return Outcome{
		PointsEarned: points,
		IsWinner:     won,
		Metadata: map[string]any{
			"level":      round.Level,
			"moves":      s.MoveCount,
			"difficulty": string(round.Difficulty),
			"is_winner":  won,
		},
	}
}
