package repositories

import (
	"context"
	"time"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/orm"
	"gorm.io/gorm"
)

// OrderFilter narrows the admin order listings.
type OrderFilter struct {
	Status string
	From   time.Time
	To     time.Time // exclusive
}

// OrderRepository handles database operations for orders, their items and
// invoices.
type OrderRepository struct{ base }

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{}
}

func (r *OrderRepository) WithTx(tx *gorm.DB) *OrderRepository {
	return &OrderRepository{base{tx: tx}}
}

// Create inserts the order together with its OrderItems.
func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	return r.q(ctx).Create(o)
}

func (r *OrderRepository) SetInvoiceNumber(ctx context.Context, o *models.Order, number string) error {
	if err := r.q(ctx).Model(o).Gorm().Update("invoice_number", number).Error; err != nil {
		return err
	}
	o.InvoiceNumber = &number
	return nil
}

func (r *OrderRepository) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	return r.q(ctx).Create(inv)
}

func (r *OrderRepository) InvoiceFor(ctx context.Context, orderID uint) (models.Invoice, error) {
	var inv models.Invoice
	err := r.q(ctx).Where("order_id = ?", orderID).First(&inv)
	return inv, err
}

func (r *OrderRepository) FindByID(ctx context.Context, id uint) (models.Order, error) {
	var o models.Order
	err := r.q(ctx).Preload("OrderItems").Where("id = ?", id).First(&o)
	return o, err
}

func (r *OrderRepository) FindByInvoice(ctx context.Context, number string) (models.Order, error) {
	var o models.Order
	err := r.q(ctx).Preload("OrderItems").Where("invoice_number = ?", number).First(&o)
	return o, err
}

// ForUser returns the user's orders newest first.
func (r *OrderRepository) ForUser(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.q(ctx).Preload("OrderItems").
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Get(&orders)
	return orders, err
}

func (r *OrderRepository) filtered(ctx context.Context, f OrderFilter) *orm.Query {
	return r.q(ctx).Model(&models.Order{}).
		WhereIf(f.Status != "", "status = ?", f.Status).
		WhereIf(!f.From.IsZero(), "created_at >= ?", f.From).
		WhereIf(!f.To.IsZero(), "created_at < ?", f.To)
}

// All returns every order matching f, newest first.
func (r *OrderRepository) All(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	var orders []models.Order
	err := r.filtered(ctx, f).Preload("OrderItems").Order("created_at DESC").Order("id DESC").Get(&orders)
	return orders, err
}

func (r *OrderRepository) Paginate(ctx context.Context, f OrderFilter, page, perPage int) ([]models.Order, orm.Pagination, error) {
	var orders []models.Order
	p, err := r.filtered(ctx, f).Order("created_at DESC").Order("id DESC").Paginate(page, perPage, &orders)
	return orders, p, err
}

// Recent returns the latest n orders.
func (r *OrderRepository) Recent(ctx context.Context, n int) ([]models.Order, error) {
	var orders []models.Order
	err := r.q(ctx).Order("created_at DESC").Order("id DESC").Limit(n).Get(&orders)
	return orders, err
}

// TransitionStatus sets the status only while the row still has status
// from. It reports false when another writer got there first.
func (r *OrderRepository) TransitionStatus(ctx context.Context, id uint, from, to string) (bool, error) {
	res := r.q(ctx).Model(&models.Order{}).Where("id = ? AND status = ?", id, from).Gorm().
		Update("status", to)
	return res.RowsAffected == 1, res.Error
}

// Update changes the given columns on the order.
func (r *OrderRepository) Update(ctx context.Context, o *models.Order, fields map[string]interface{}) error {
	return r.q(ctx).Model(o).Gorm().Updates(fields).Error
}
