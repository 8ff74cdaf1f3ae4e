package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/orris-inc/tollgate/internal/domain/user"
	"github.com/orris-inc/tollgate/internal/infrastructure/persistence/models"
	"github.com/orris-inc/tollgate/internal/shared/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// Every new connection to :memory: is a separate database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// setupFileDB opens a sqlite file shared by several connections so that
// concurrent writers really race. Transactions begin IMMEDIATE and wait on
// busy_timeout instead of failing.
func setupFileDB(t *testing.T) *gorm.DB {
	path := filepath.Join(t.TempDir(), "ledger.db")
	dsn := "file:" + path + "?_journal_mode=WAL&_busy_timeout=10000&_txlock=immediate"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(8)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string, balance int64) *user.User {
	u, err := user.NewUser(email, "Test User")
	require.NoError(t, err)

	repo := NewUserRepository(db, logger.NewNopLogger())
	require.NoError(t, repo.Create(context.Background(), u))

	if balance != 0 {
		require.NoError(t, db.Model(&models.UserModel{}).
			Where("id = ?", u.ID()).
			Update("credits_balance", balance).Error)
	}
	return u
}
