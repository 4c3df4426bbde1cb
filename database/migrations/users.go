package migrations

import (
	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/migration"
)

func init() {
	migration.Register("20260101000000_create_users_tables", &autoMigrate{
		models: []interface{}{&models.Role{}, &models.User{}, &models.TokenBlacklist{}},
		tables: []string{"user_roles", "token_blacklist", "users", "roles"},
	})
}
