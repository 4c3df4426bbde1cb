package repositories

import (
	"context"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"gorm.io/gorm"
)

// CartRepository handles database operations for Cart and CartItem.
type CartRepository struct{ base }

func NewCartRepository() *CartRepository {
	return &CartRepository{}
}

func (r *CartRepository) WithTx(tx *gorm.DB) *CartRepository {
	return &CartRepository{base{tx: tx}}
}

// ForUser returns the user's cart with its items, creating an empty cart
// on first use.
func (r *CartRepository) ForUser(ctx context.Context, userID uint) (models.Cart, error) {
	var cart models.Cart
	err := r.q(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("cart_items.id")
	}).Where("user_id = ?", userID).First(&cart)
	if err == nil {
		return cart, nil
	}
	if !database.IsNotFound(err) {
		return cart, err
	}

	cart = models.Cart{UserID: userID, Items: []models.CartItem{}}
	if err := r.q(ctx).Create(&cart); err != nil {
		// A concurrent request created it first.
		if database.IsUniqueViolation(err) {
			return r.ForUser(ctx, userID)
		}
		return cart, err
	}
	return cart, nil
}

// FindItem loads an item only if it belongs to cartID.
func (r *CartRepository) FindItem(ctx context.Context, cartID, itemID uint) (models.CartItem, error) {
	var item models.CartItem
	err := r.q(ctx).Where("id = ? AND cart_id = ?", itemID, cartID).First(&item)
	return item, err
}

func (r *CartRepository) AddItem(ctx context.Context, item *models.CartItem) error {
	return r.q(ctx).Create(item)
}

// SetQuantity sets a line's quantity and refreshes its price.
func (r *CartRepository) SetQuantity(ctx context.Context, itemID uint, qty int, unitPrice float64) error {
	return r.q(ctx).Model(&models.CartItem{}).Where("id = ?", itemID).Gorm().
		Updates(map[string]interface{}{"quantity": qty, "unit_price": unitPrice}).Error
}

func (r *CartRepository) RemoveItem(ctx context.Context, itemID uint) error {
	return r.q(ctx).Gorm().Where("id = ?", itemID).Delete(&models.CartItem{}).Error
}

func (r *CartRepository) Clear(ctx context.Context, cartID uint) error {
	return r.q(ctx).Gorm().Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}

// Count returns the number of units in the user's cart without creating
// one.
func (r *CartRepository) Count(ctx context.Context, userID uint) (int, error) {
	var n int
	err := r.q(ctx).Model(&models.CartItem{}).
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("carts.user_id = ?", userID).Gorm().
		Select("COALESCE(SUM(cart_items.quantity), 0)").
		Scan(&n).Error
	return n, err
}
