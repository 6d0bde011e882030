// Package testutil holds helpers shared by package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chatwarden/chatwarden-backend/internal/domain"
	"github.com/chatwarden/chatwarden-backend/internal/migration"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// T0 fixed start time used by fake clocks in tests
var T0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// NewDB opens a private in-memory SQLite database with every table migrated
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:chatwarden_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migration.Run(db))
	return db
}

// SeedMember inserts a member with role, joined at T0
func SeedMember(t testing.TB, db *gorm.DB, id int64, nick string, role domain.Role) *domain.Member {
	t.Helper()
	m := &domain.Member{
		ID:           id,
		Nick:         nick,
		Role:         role,
		JoinTime:     T0,
		Achievements: domain.AchievementSet{domain.AchievementWelcome},
	}
	require.NoError(t, db.Create(m).Error)
	return m
}
