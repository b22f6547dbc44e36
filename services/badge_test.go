package services

import (
	"testing"

	"minigame-arcade/models"

	"github.com/stretchr/testify/require"
)

func badgeCodes(t *testing.T, b *BadgeService, userID string) []string {
	t.Helper()
	badges, err := b.UserBadges(userID)
	require.NoError(t, err)
	var codes []string
	for _, ub := range badges {
		codes = append(codes, ub.BadgeType.Code)
	}
	return codes
}

func TestLedgerAwardsMilestoneBadges(t *testing.T) {
	db := newTestDB(t)
	badges := NewBadgeService(db)
	require.NoError(t, badges.EnsureBadgeTypes())
	require.NoError(t, badges.EnsureBadgeTypes())
	ledger := NewLedgerService(db, badges)

	a := createGame(t, db, "Guess the Number", models.GameStatusPublished, "")
	b := createGame(t, db, "Tic Tac Toe", models.GameStatusPublished, "")

	_, err := ledger.Join("user-1", a.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"WELCOME"}, badgeCodes(t, badges, "user-1"))

	_, err = ledger.ApplyPlay("user-1", a.ID, models.PlayReport{Points: 60, UserPoints: int64Ptr(60)})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"WELCOME", "FIRST_PLAY"}, badgeCodes(t, badges, "user-1"))

	_, err = ledger.ApplyPlay("user-1", b.ID, models.PlayReport{Points: 50, UserPoints: int64Ptr(50)})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"WELCOME", "FIRST_PLAY", "ALL_ROUNDER", "POINTS_100"}, badgeCodes(t, badges, "user-1"))

	// Awards are not repeated.
	_, err = ledger.ApplyPlay("user-1", b.ID, models.PlayReport{Points: 55, UserPoints: int64Ptr(5)})
	require.NoError(t, err)
	require.Len(t, badgeCodes(t, badges, "user-1"), 4)

	var types int64
	require.NoError(t, db.Model(&models.BadgeType{}).Count(&types).Error)
	require.Equal(t, int64(len(models.BadgeTriggers)), types)
}

func TestMeetsThreshold(t *testing.T) {
	st := badgeStats{AccountPoints: 150, GamesJoined: 2, GamesPlayed: 1}
	require.True(t, meetsThreshold(st, map[string]int64{models.ThresholdAccountPoints: 100}))
	require.False(t, meetsThreshold(st, map[string]int64{models.ThresholdGamesPlayed: 2}))
	require.True(t, meetsThreshold(st, map[string]int64{models.ThresholdGamesJoined: 2, models.ThresholdGamesPlayed: 1}))
	require.False(t, meetsThreshold(st, map[string]int64{"tournaments_won": 1}))
	require.False(t, meetsThreshold(st, nil))
}
