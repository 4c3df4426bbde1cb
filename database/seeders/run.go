// Package seeders fills a fresh database with the storefront's starter
// data: roles, the admin account and the demo catalogue.
//
//	storefront seed
//
// Every seeder is idempotent, so seeding twice leaves one copy of each row.
package seeders

import (
	"fmt"
	"sync"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/logger"
	"gorm.io/gorm"
)

// SeederFunc is the signature for a seed function.
type SeederFunc func(db *gorm.DB) error

type seederEntry struct {
	name string
	fn   SeederFunc
}

var (
	mu      sync.Mutex
	entries []seederEntry
)

// Register adds a seeder to the global registry. Seeders run in
// registration order.
func Register(name string, fn SeederFunc) {
	mu.Lock()
	defer mu.Unlock()
	entries = append(entries, seederEntry{name: name, fn: fn})
}

func init() {
	Register("roles", SeedRoles)
	Register("admin", SeedAdmin)
	Register("catalog", SeedCatalog)
}

// Names lists the registered seeders.
func Names() []string {
	mu.Lock()
	defer mu.Unlock()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.name
	}
	return out
}

// RunAll executes every registered seeder, stopping on the first error.
func RunAll(db *gorm.DB) error {
	mu.Lock()
	current := make([]seederEntry, len(entries))
	copy(current, entries)
	mu.Unlock()

	for _, e := range current {
		start := time.Now()
		if err := e.fn(db); err != nil {
			return fmt.Errorf("seeder %q: %w", e.name, err)
		}
		logger.Info("seeded", "seeder", e.name, "took", time.Since(start).Round(time.Millisecond))
	}
	return nil
}
