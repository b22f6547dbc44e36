package play

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrUnknownVariant = errors.New("play: unknown game variant")
	ErrMalformedRules = errors.New("play: malformed rules")
	ErrIllegalMove    = errors.New("play: illegal move")
)

// Move is a player input: a Guess or a Cell.
type Move interface {
	isMove()
}

// State is a variant's state between moves. Implementations are values;
// Apply never mutates the state it was given.
type State interface {
	Terminal() bool
}

// Round carries the session-level context a transition may need.
type Round struct {
	Level      int
	Difficulty Difficulty
	Random     Random
}

// Outcome is the result of a terminal transition.
type Outcome struct {
	PointsEarned int64          `json:"points_earned"`
	IsWinner     bool           `json:"is_winner"`
	Metadata     map[string]any `json:"metadata"`
}

// Variant is one playable game type with its parsed rules.
type Variant interface {
	Name() string
	Initial() State
	// Apply returns the next state, or ErrIllegalMove with state unchanged.
	Apply(state State, move Move, round Round) (State, error)
	IsTerminal(state State) bool
	Outcome(state State, round Round) Outcome
}

// Factory parses a rules payload into a Variant.
type Factory func(rules json.RawMessage) (Variant, error)

// Registry resolves variants by their catalog name.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// New matches name exactly and parses rules for that variant.
func (r *Registry) New(name string, rules json.RawMessage) (Variant, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
	}
	return f(rules)
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry knows the two catalog variants.
var DefaultRegistry = NewRegistry()

func init() {
	DefaultRegistry.Register(NumberGuessName, NewNumberGuess)
	DefaultRegistry.Register(TicTacToeName, NewTicTacToe)
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedRules, fmt.Sprintf(format, args...))
}
