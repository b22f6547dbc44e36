package play

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"minigame-arcade/models"
	"minigame-arcade/workers"
)

// scriptedRandom returns fixed targets and picks, in order.
type scriptedRandom struct {
	targets []int
	picks   []int
}

func (r *scriptedRandom) Uniform(min, max int) int {
	if len(r.targets) == 0 {
		return min
	}
	t := r.targets[0]
	r.targets = r.targets[1:]
	return t
}

func (r *scriptedRandom) PickOne(candidates []int) (int, error) {
	if len(candidates) == 0 {
		return 0, ErrEmptySet
	}
	if len(r.picks) > 0 {
		p := r.picks[0]
		r.picks = r.picks[1:]
		for _, c := range candidates {
			if c == p {
				return p, nil
			}
		}
	}
	return candidates[0], nil
}

type fakeCatalog map[string]*models.Game

func (f fakeCatalog) GetGame(_ context.Context, id string) (*models.Game, error) {
	g, ok := f[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return g, nil
}

type queuedReport struct {
	gameID string
	report models.PlayReport
}

// recordingOutbox keeps every report and leaves receipts unresolved.
type recordingOutbox struct {
	mu      sync.Mutex
	reports []queuedReport
}

func (o *recordingOutbox) Enqueue(gameID string, report models.PlayReport) *workers.Receipt {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reports = append(o.reports, queuedReport{gameID: gameID, report: report})
	return &workers.Receipt{}
}

func numberGuessGame() *models.Game {
	return &models.Game{
		ID:    "guess-1",
		Name:  NumberGuessName,
		Rules: json.RawMessage(`{"min_number":1,"max_number":100,"points_for_exact":10,"points_for_close":5}`),
	}
}

func ticTacToeGame() *models.Game {
	return &models.Game{
		ID:    "ttt-1",
		Name:  TicTacToeName,
		Rules: json.RawMessage(`{"points_for_exact":10}`),
	}
}
