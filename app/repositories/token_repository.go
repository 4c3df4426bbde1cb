package repositories

import (
	"context"
	"time"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/database"
)

// TokenRepository stores revoked token ids.
type TokenRepository struct{ base }

func NewTokenRepository() *TokenRepository {
	return &TokenRepository{}
}

// Revoke blacklists jti until expiresAt. Revoking twice is not an error.
func (r *TokenRepository) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	err := r.q(ctx).Create(&models.TokenBlacklist{JTI: jti, ExpiresAt: expiresAt.UTC()})
	if database.IsUniqueViolation(err) {
		return nil
	}
	return err
}

func (r *TokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.q(ctx).Model(&models.TokenBlacklist{}).Where("jti = ?", jti).Count()
	return n > 0, err
}

// PurgeExpired deletes entries whose token has expired by now.
func (r *TokenRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.q(ctx).Gorm().Where("expires_at < ?", now.UTC()).Delete(&models.TokenBlacklist{})
	return res.RowsAffected, res.Error
}
