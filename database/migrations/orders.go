package migrations

import (
	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/migration"
)

func init() {
	migration.Register("20260101000003_create_orders_tables", &autoMigrate{
		models: []interface{}{&models.Order{}, &models.OrderItem{}, &models.Invoice{}},
		tables: []string{"invoices", "order_items", "orders"},
	})
	migration.Register("20260101000004_create_payments_table", &autoMigrate{
		models: []interface{}{&models.Payment{}},
		tables: []string{"payments"},
	})
}
