// Package migration runs and tracks schema migrations.
//
// Migrations register themselves from init() in database/migrations:
//
//	func init() {
//	    migration.Register("20250101000000_create_users_table", &CreateUsersTable{})
//	}
//
// and are applied in name order by `storefront migrate`.
package migration

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/logger"
	"gorm.io/gorm"
)

// Migration is the interface every migration must implement.
type Migration interface {
	Up(db *gorm.DB) error
	Down(db *gorm.DB) error
}

type migrationRecord struct {
	ID    uint      `gorm:"primaryKey;autoIncrement"`
	Name  string    `gorm:"uniqueIndex;size:255;not null"`
	Batch int       `gorm:"not null"`
	RunAt time.Time `gorm:"autoCreateTime"`
}

func (migrationRecord) TableName() string { return "migrations" }

type registeredMigration struct {
	name string
	m    Migration
}

var (
	mu       sync.Mutex
	registry []registeredMigration
)

// ErrNotRegistered is returned when rolling back a migration whose code
// has been removed.
var ErrNotRegistered = errors.New("migration not registered")

// Register adds a migration. name should be timestamp-prefixed so that
// lexical order is chronological.
func Register(name string, m Migration) {
	mu.Lock()
	defer mu.Unlock()
	registry = append(registry, registeredMigration{name: name, m: m})
}

func sorted() []registeredMigration {
	mu.Lock()
	out := append([]registeredMigration(nil), registry...)
	mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Status is one row of `migrate:status`.
type Status struct {
	Name  string
	Ran   bool
	Batch int
}

// Runner executes and tracks migrations.
type Runner struct {
	db *gorm.DB
}

// New creates a Runner backed by db.
func New(db *gorm.DB) *Runner {
	return &Runner{db: db}
}

// EnsureTable creates the tracking table if it does not exist.
func (r *Runner) EnsureTable() error {
	return r.db.AutoMigrate(&migrationRecord{})
}

func (r *Runner) pending() ([]registeredMigration, error) {
	var ran []migrationRecord
	if err := r.db.Find(&ran).Error; err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(ran))
	for _, rec := range ran {
		done[rec.Name] = true
	}

	var out []registeredMigration
	for _, reg := range sorted() {
		if !done[reg.name] {
			out = append(out, reg)
		}
	}
	return out, nil
}

// Run applies every pending migration as one batch and returns the names
// it ran.
func (r *Runner) Run() ([]string, error) {
	if err := r.EnsureTable(); err != nil {
		return nil, fmt.Errorf("migration: ensure table: %w", err)
	}

	pending, err := r.pending()
	if err != nil {
		return nil, fmt.Errorf("migration: fetch pending: %w", err)
	}
	if len(pending) == 0 {
		return nil, nil
	}

	batch := r.lastBatch() + 1
	ran := make([]string, 0, len(pending))

	for _, reg := range pending {
		logger.Info("migration: running", "name", reg.name)
		if err := reg.m.Up(r.db); err != nil {
			return ran, fmt.Errorf("migration: %s up: %w", reg.name, err)
		}
		if err := r.db.Create(&migrationRecord{Name: reg.name, Batch: batch}).Error; err != nil {
			return ran, fmt.Errorf("migration: record %s: %w", reg.name, err)
		}
		ran = append(ran, reg.name)
	}

	logger.Info("migration: done", "ran", len(ran), "batch", batch)
	return ran, nil
}

// Rollback reverses the most recent batch and returns the names it
// rolled back, newest first.
func (r *Runner) Rollback() ([]string, error) {
	if err := r.EnsureTable(); err != nil {
		return nil, fmt.Errorf("migration: ensure table: %w", err)
	}

	batch := r.lastBatch()
	if batch == 0 {
		return nil, nil
	}

	var records []migrationRecord
	if err := r.db.Where("batch = ?", batch).Order("id desc").Find(&records).Error; err != nil {
		return nil, err
	}

	byName := make(map[string]Migration)
	for _, reg := range sorted() {
		byName[reg.name] = reg.m
	}

	var rolled []string
	for _, rec := range records {
		m, ok := byName[rec.Name]
		if !ok {
			return rolled, fmt.Errorf("migration: rollback %s: %w", rec.Name, ErrNotRegistered)
		}

		logger.Info("migration: rolling back", "name", rec.Name)
		if err := m.Down(r.db); err != nil {
			return rolled, fmt.Errorf("migration: %s down: %w", rec.Name, err)
		}
		if err := r.db.Delete(&rec).Error; err != nil {
			return rolled, err
		}
		rolled = append(rolled, rec.Name)
	}
	return rolled, nil
}

// Fresh rolls every batch back and migrates again from scratch.
func (r *Runner) Fresh() ([]string, error) {
	for {
		rolled, err := r.Rollback()
		if err != nil {
			return nil, err
		}
		if len(rolled) == 0 {
			break
		}
	}
	return r.Run()
}

// Status lists every registered migration with its batch.
func (r *Runner) Status() ([]Status, error) {
	if err := r.EnsureTable(); err != nil {
		return nil, err
	}

	var ran []migrationRecord
	if err := r.db.Find(&ran).Error; err != nil {
		return nil, err
	}
	batches := make(map[string]int, len(ran))
	for _, rec := range ran {
		batches[rec.Name] = rec.Batch
	}

	var out []Status
	for _, reg := range sorted() {
		b, ok := batches[reg.name]
		out = append(out, Status{Name: reg.name, Ran: ok, Batch: b})
	}
	return out, nil
}

func (r *Runner) lastBatch() int {
	var row struct{ Max int }
	r.db.Model(&migrationRecord{}).Select("COALESCE(MAX(batch), 0) as max").Scan(&row)
	return row.Max
}
