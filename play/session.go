package play

import (
	"context"
	"fmt"
	"sync"

	"minigame-arcade/models"
	"minigame-arcade/workers"
)

// CatalogReader supplies game definitions.
type CatalogReader interface {
	GetGame(ctx context.Context, gameID string) (*models.Game, error)
}

// Outbox accepts outcomes for delivery without blocking.
type Outbox interface {
	Enqueue(gameID string, report models.PlayReport) *workers.Receipt
}

// Progressive variants advance the session level on a winning round and
// start a fresh round automatically.
type Progressive interface {
	Advances(state State) bool
}

func (t *TicTacToe) Advances(state State) bool {
	s, ok := state.(TicTacToeState)
	return ok && s.Status == PlayerWin
}

type Controller struct {
	Catalog  CatalogReader
	Outbox   Outbox
	Registry *Registry
	Random   Random
}

func NewController(catalog CatalogReader, outbox Outbox) *Controller {
	return &Controller{
		Catalog:  catalog,
		Outbox:   outbox,
		Registry: DefaultRegistry,
		Random:   DefaultRandom{},
	}
}

type SessionOption func(*Session)

// WithStartingPoints seeds the cumulative score, e.g. from a repeat join.
func WithStartingPoints(points int64) SessionOption {
	return func(s *Session) { s.score = points }
}

// StartSession loads the game, resolves its variant and parses its rules.
// Definition errors leave no session behind.
func (c *Controller) StartSession(ctx context.Context, gameID string, opts ...SessionOption) (*Session, error) {
	game, err := c.Catalog.GetGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", gameID, err)
	}

	registry := c.Registry
	if registry == nil {
		registry = DefaultRegistry
	}
	variant, err := registry.New(game.Name, game.Rules)
	if err != nil {
		return nil, err
	}

	rnd := c.Random
	if rnd == nil {
		rnd = DefaultRandom{}
	}
	s := &Session{
		game:       game,
		variant:    variant,
		state:      variant.Initial(),
		level:      1,
		difficulty: DifficultyForLevel(1),
		random:     rnd,
		outbox:     c.Outbox,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Session is one play of one game. It handles a single move at a time.
type Session struct {
	mu sync.Mutex

	game       *models.Game
	variant    Variant
	state      State
	score      int64
	moveCount  int
	level      int
	difficulty Difficulty
	random     Random
	outbox     Outbox
}

// MoveResult describes what a move did. Outcome and Receipt are set only on
// terminal moves; Receipt is nil when the session has no outbox.
type MoveResult struct {
	Accepted bool
	// Final is the terminal state that produced Outcome, before any auto reset.
	Final   State
	Outcome *Outcome
	Receipt *workers.Receipt
	Snapshot
}

// Snapshot is a copy of the session's visible state.
type Snapshot struct {
	GameID     string
	Variant    string
	State      State
	Score      int64
	MoveCount  int
	Level      int
	Difficulty Difficulty
}

// ApplyMove feeds move to the variant. Illegal moves are ignored. A terminal
// move adds the earned points to the score and queues a play report carrying
// the new total and the delta.
func (s *Session) ApplyMove(move Move) MoveResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	round := s.round()
	next, err := s.variant.Apply(s.state, move, round)
	if err != nil {
		return MoveResult{Snapshot: s.snapshot()}
	}
	s.state = next
	s.moveCount++

	if !s.variant.IsTerminal(next) {
		return MoveResult{Accepted: true, Snapshot: s.snapshot()}
	}

	outcome := s.variant.Outcome(next, round)
	s.score += outcome.PointsEarned

	var receipt *workers.Receipt
	if s.outbox != nil {
		delta := outcome.PointsEarned
		receipt = s.outbox.Enqueue(s.game.ID, models.PlayReport{
			Points:     s.score,
			UserPoints: &delta,
			Metadata:   outcome.Metadata,
		})
	}

	if p, ok := s.variant.(Progressive); ok && p.Advances(next) {
		s.level++
		s.difficulty = DifficultyForLevel(s.level)
		s.resetRound()
	}

	return MoveResult{
		Accepted: true,
		Final:    next,
		Outcome:  &outcome,
		Receipt:  receipt,
		Snapshot: s.snapshot(),
	}
}

// Reset starts a fresh round. Score and level are kept.
func (s *Session) Reset() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetRound()
	return s.snapshot()
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) Game() *models.Game { return s.game }

func (s *Session) Variant() Variant { return s.variant }

func (s *Session) resetRound() {
	s.state = s.variant.Initial()
	s.moveCount = 0
}

func (s *Session) round() Round {
	return Round{Level: s.level, Difficulty: s.difficulty, Random: s.random}
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		GameID:     s.game.ID,
		Variant:    s.variant.Name(),
		State:      s.state,
		Score:      s.score,
		MoveCount:  s.moveCount,
		Level:      s.level,
		Difficulty: s.difficulty,
	}
}
