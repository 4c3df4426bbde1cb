package migrations

import (
	"github.com/shashiranjanraj/storefront/pkg/migration"
	"github.com/shashiranjanraj/storefront/pkg/queue"
)

func init() {
	migration.Register("20260101000005_create_failed_jobs_table", &autoMigrate{
		models: []interface{}{&queue.FailedJobRecord{}},
		tables: []string{"failed_jobs"},
	})
}
