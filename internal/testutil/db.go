// Package testutil builds throwaway databases for package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/javajoker/lease-backend/internal/database"
)

var dbSeq atomic.Int64

// NewDB opens a private in-memory SQLite database with the audit plugin and all tables migrated.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:leasetest%d?mode=memory&cache=shared&_foreign_keys=off", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig("silent"))
	require.NoError(t, err)
	require.NoError(t, db.Use(database.AuditPlugin{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.Models()...))
	return db
}
