//go:build postgres

package services

import (
	"os"
	"strings"
	"sync"
	"testing"

	"minigame-arcade/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Run with: ARCADE_TEST_DATABASE_URL=postgres://... go test -tags postgres ./services
func newPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("ARCADE_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("ARCADE_TEST_DATABASE_URL not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(8)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.Category{}, &models.Game{}, &models.Account{}, &models.LedgerEntry{}))
	return db
}

func TestForUpdateLocksOnPostgres(t *testing.T) {
	db := newPostgresDB(t)
	stmt := forUpdate(db.Session(&gorm.Session{DryRun: true})).
		Where("user_id = ?", "u").First(&models.LedgerEntry{}).Statement
	require.True(t, strings.HasSuffix(strings.TrimSpace(stmt.SQL.String()), "FOR UPDATE"), stmt.SQL.String())
}

func TestConcurrentPlayReportsAreAdditiveOnPostgres(t *testing.T) {
	db := newPostgresDB(t)
	ledger := NewLedgerService(db, nil)
	game := createGame(t, db, "Tic Tac Toe "+uuid.NewString()[:8], models.GameStatusPublished, "")
	userID := "pg-" + uuid.NewString()

	deltas := []int64{10, 15, 3, 7, 20, 1, 9, 5, 2, 4, 6, 8}
	var wg sync.WaitGroup
	errs := make(chan error, len(deltas))
	for _, d := range deltas {
		wg.Add(1)
		go func(d int64) {
			defer wg.Done()
			_, err := ledger.ApplyPlay(userID, game.ID, models.PlayReport{Points: d, UserPoints: int64Ptr(d)})
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
	require.Equal(t, sum, accountPoints(t, ledger, userID))
}
