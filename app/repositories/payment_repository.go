package repositories

import (
	"context"
	"time"

	"github.com/shashiranjanraj/storefront/app/models"
	"gorm.io/gorm"
)

// PaymentRepository handles database operations for Payment.
type PaymentRepository struct{ base }

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{}
}

func (r *PaymentRepository) WithTx(tx *gorm.DB) *PaymentRepository {
	return &PaymentRepository{base{tx: tx}}
}

func (r *PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	return r.q(ctx).Create(p)
}

func (r *PaymentRepository) Save(ctx context.Context, p *models.Payment) error {
	return r.q(ctx).Save(p)
}

func (r *PaymentRepository) FindByCheckoutID(ctx context.Context, checkoutID string) (models.Payment, error) {
	var p models.Payment
	err := r.q(ctx).Where("checkout_request_id = ?", checkoutID).First(&p)
	return p, err
}

// LatestForOrder returns the most recent attempt for the order.
func (r *PaymentRepository) LatestForOrder(ctx context.Context, orderID uint) (models.Payment, error) {
	var p models.Payment
	err := r.q(ctx).Where("order_id = ?", orderID).Order("id DESC").First(&p)
	return p, err
}

// ExpireInitiated marks initiated payments created before cutoff as
// failed and returns them.
func (r *PaymentRepository) ExpireInitiated(ctx context.Context, cutoff time.Time) ([]models.Payment, error) {
	var stale []models.Payment
	err := r.q(ctx).
		Where("status = ? AND created_at < ?", models.PaymentInitiated, cutoff.UTC()).
		Get(&stale)
	if err != nil || len(stale) == 0 {
		return stale, err
	}
	ids := make([]uint, len(stale))
	for i, p := range stale {
		ids[i] = p.ID
	}
	err = r.q(ctx).Model(&models.Payment{}).Where("id IN ?", ids).Gorm().
		Updates(map[string]interface{}{"status": models.PaymentFailed, "result_desc": "Payment request expired"}).Error
	return stale, err
}
