package migrations

import (
	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/migration"
)

func init() {
	migration.Register("20260101000002_create_carts_tables", &autoMigrate{
		models: []interface{}{&models.Cart{}, &models.CartItem{}},
		tables: []string{"cart_items", "carts"},
	})
}
