package migrations

import (
	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/migration"
)

func init() {
	migration.Register("20260101000001_create_catalog_tables", &autoMigrate{
		models: []interface{}{&models.Category{}, &models.Product{}},
		tables: []string{"products", "categories"},
	})
}
