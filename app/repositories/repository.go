// Package repositories wraps the gorm queries the services need. Every
// repository runs on the global connection unless bound to a transaction
// with WithTx.
package repositories

import (
	"context"

	"github.com/shashiranjanraj/storefront/pkg/orm"
	"gorm.io/gorm"
)

type base struct {
	tx *gorm.DB
}

func (b base) q(ctx context.Context) *orm.Query {
	if b.tx != nil {
		return orm.On(b.tx).WithContext(ctx)
	}
	return orm.DB().WithContext(ctx)
}

// likePattern builds a case-insensitive LIKE argument.
func likePattern(s string) string {
	return "%" + s + "%"
}
