// Package migrations holds the storefront schema, one migration per
// aggregate. Each file registers itself from init(); importing the package
// for side effects is enough:
//
//	import _ "github.com/shashiranjanraj/storefront/database/migrations"
package migrations

import (
	"github.com/shashiranjanraj/storefront/pkg/migration"
	"gorm.io/gorm"
)

// autoMigrate is the Up/Down pair shared by every table-creating migration.
type autoMigrate struct {
	models []interface{}
	tables []string
}

func (m *autoMigrate) Up(db *gorm.DB) error {
	return db.AutoMigrate(m.models...)
}

// Down drops tables in reverse dependency order.
func (m *autoMigrate) Down(db *gorm.DB) error {
	for _, t := range m.tables {
		if err := db.Migrator().DropTable(t); err != nil {
			return err
		}
	}
	return nil
}

var _ migration.Migration = (*autoMigrate)(nil)
