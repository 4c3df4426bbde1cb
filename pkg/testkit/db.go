package testkit

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/migration"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

// UseSQLite points the global connection at a fresh in-memory sqlite
// database with every registered migration applied. The test package must
// import its migrations for side effects. The previous connection is
// restored when the test ends.
func UseSQLite(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testkit%d?mode=memory&cache=shared&_foreign_keys=1", dbSeq.Add(1))
	db, err := database.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("testkit: open sqlite: %v", err)
	}
	if _, err := migration.New(db).Run(); err != nil {
		t.Fatalf("testkit: migrate: %v", err)
	}

	previous := database.DB
	database.Use(db)
	t.Cleanup(func() {
		database.Use(previous)
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
