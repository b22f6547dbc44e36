package services

import (
	"sync"
	"testing"

	"minigame-arcade/models"

	"github.com/stretchr/testify/require"
)

func accountPoints(t *testing.T, s *LedgerService, userID string) int64 {
	t.Helper()
	acct, err := s.EnsureAccount(userID)
	require.NoError(t, err)
	return acct.Points
}

func TestJoinIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, nil)
	game := createGame(t, db, "Tic Tac Toe", models.GameStatusPublished, `{"points_for_exact":10}`)

	first, err := ledger.Join("user-1", game.ID)
	require.NoError(t, err)
	require.Equal(t, "Game joined successfully!", first.Message)
	require.Nil(t, first.Points)
	require.Equal(t, game.ID, first.Game.ID)

	_, err = ledger.ApplyPlay("user-1", game.ID, models.PlayReport{Points: 40, UserPoints: int64Ptr(40)})
	require.NoError(t, err)

	again, err := ledger.Join("user-1", game.ID)
	require.NoError(t, err)
	require.Equal(t, "You have already joined this game.", again.Message)
	require.NotNil(t, again.Points)
	require.Equal(t, int64(40), *again.Points)

	_, err = ledger.Join("user-1", game.ID)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.LedgerEntry{}).Where("user_id = ?", "user-1").Count(&count).Error)
	require.Equal(t, int64(1), count)
	require.Equal(t, int64(40), accountPoints(t, ledger, "user-1"))
}

func TestJoinUnknownGame(t *testing.T) {
	ledger := NewLedgerService(newTestDB(t), nil)
	_, err := ledger.Join("user-1", "missing")
	require.ErrorIs(t, err, ErrGameNotFound)
}

func TestApplyPlayOverwritesEntryAndAddsDelta(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, nil)
	game := createGame(t, db, "Tic Tac Toe", models.GameStatusPublished, "")

	entry, err := ledger.ApplyPlay("user-1", game.ID, models.PlayReport{
		Points:     10,
		UserPoints: int64Ptr(10),
		Metadata:   map[string]any{"level": 1, "is_winner": true},
	})
	require.NoError(t, err)
	require.Equal(t, int64(10), entry.Points)
	require.Equal(t, int64(10), entry.AccountPoints)
	require.NotNil(t, entry.PlayedAt)
	require.JSONEq(t, `{"level":1,"is_winner":true}`, string(entry.Metadata))

	entry, err = ledger.ApplyPlay("user-1", game.ID, models.PlayReport{Points: 20, UserPoints: int64Ptr(10)})
	require.NoError(t, err)
	require.Equal(t, int64(20), entry.Points)
	require.Equal(t, int64(20), entry.AccountPoints)

	// The entry is last-write-wins; the account only moves by the delta.
	entry, err = ledger.ApplyPlay("user-1", game.ID, models.PlayReport{Points: 5, UserPoints: int64Ptr(0)})
	require.NoError(t, err)
	require.Equal(t, int64(5), entry.Points)
	require.Equal(t, int64(20), entry.AccountPoints)
}

func TestApplyPlayFallsBackToPointsAsDelta(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, nil)
	game := createGame(t, db, "Guess the Number", models.GameStatusPublished, "")

	_, err := ledger.ApplyPlay("user-1", game.ID, models.PlayReport{Points: 5})
	require.NoError(t, err)
	entry, err := ledger.ApplyPlay("user-1", game.ID, models.PlayReport{Points: 10})
	require.NoError(t, err)

	require.Equal(t, int64(10), entry.Points)
	require.Equal(t, int64(15), entry.AccountPoints)
}

func TestApplyPlayKeepsGamesIndependent(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, nil)
	a := createGame(t, db, "Guess the Number", models.GameStatusPublished, "")
	b := createGame(t, db, "Tic Tac Toe", models.GameStatusPublished, "")

	_, err := ledger.ApplyPlay("user-1", a.ID, models.PlayReport{Points: 5, UserPoints: int64Ptr(5)})
	require.NoError(t, err)
	_, err = ledger.ApplyPlay("user-1", b.ID, models.PlayReport{Points: 30, UserPoints: int64Ptr(10)})
	require.NoError(t, err)

	entries, err := ledger.Entries("user-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	points := map[string]int64{}
	for _, e := range entries {
		points[e.GameID] = e.Points
	}
	require.Equal(t, map[string]int64{a.ID: 5, b.ID: 30}, points)
	require.Equal(t, int64(15), accountPoints(t, ledger, "user-1"))
}

func TestConcurrentPlayReportsAreAdditive(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, nil)
	game := createGame(t, db, "Tic Tac Toe", models.GameStatusPublished, "")

	deltas := []int64{10, 15, 3, 7, 20, 1, 9, 5}
	var wg sync.WaitGroup
	errs := make(chan error, len(deltas))
	for _, d := range deltas {
		wg.Add(1)
		go func(d int64) {
			defer wg.Done()
			_, err := ledger.ApplyPlay("user-1", game.ID, models.PlayReport{Points: d, UserPoints: int64Ptr(d)})
			errs <- err
		}(d)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var sum int64
	for _, d := range deltas {
		sum += d
	}
	require.Equal(t, sum, accountPoints(t, ledger, "user-1"))

	var count int64
	require.NoError(t, db.Model(&models.LedgerEntry{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestTwoConcurrentReportsAddBothDeltas(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, nil)
	game := createGame(t, db, "Tic Tac Toe", models.GameStatusPublished, "")
	_, err := ledger.Join("user-1", game.ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, d := range []int64{10, 15} {
		wg.Add(1)
		go func(i int, d int64) {
			defer wg.Done()
			_, errs[i] = ledger.ApplyPlay("user-1", game.ID, models.PlayReport{Points: d, UserPoints: int64Ptr(d)})
		}(i, d)
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	require.Equal(t, int64(25), accountPoints(t, ledger, "user-1"))
}

func TestValidatePlayReport(t *testing.T) {
	err := ValidatePlayReport(nil, nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, []string{"The points field is required."}, verr.Fields["points"])

	err = ValidatePlayReport(int64Ptr(-1), int64Ptr(-2))
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "points")
	require.Contains(t, verr.Fields, "user_points")

	require.NoError(t, ValidatePlayReport(int64Ptr(0), nil))
	require.NoError(t, ValidatePlayReport(int64Ptr(3), int64Ptr(0)))
}

func TestApplyPlayRejectsInvalidReport(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, nil)
	game := createGame(t, db, "Tic Tac Toe", models.GameStatusPublished, "")

	_, err := ledger.ApplyPlay("user-1", game.ID, models.PlayReport{Points: -5})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	var count int64
	require.NoError(t, db.Model(&models.LedgerEntry{}).Count(&count).Error)
	require.Zero(t, count)
}
