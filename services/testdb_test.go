package services

import (
	"encoding/json"
	"testing"

	"minigame-arcade/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory database on a single connection, so
// concurrent transactions queue up the way row locks make them on postgres.
// forUpdate issues no lock on sqlite; the row-lock path is covered by the
// postgres-tagged tests in ledger_postgres_test.go.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.Category{},
		&models.Game{},
		&models.Account{},
		&models.LedgerEntry{},
		&models.BadgeType{},
		&models.UserBadge{},
	))
	return db
}

func createGame(t *testing.T, db *gorm.DB, name, status string, rules string) *models.Game {
	t.Helper()
	g := &models.Game{
		ID:     uuid.NewString(),
		Name:   name,
		Slug:   uuid.NewString(),
		Status: status,
	}
	if rules != "" {
		g.Rules = json.RawMessage(rules)
	}
	require.NoError(t, db.Create(g).Error)
	return g
}

func int64Ptr(v int64) *int64 { return &v }
