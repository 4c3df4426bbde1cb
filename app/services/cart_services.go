package services

import (
	"context"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// AddToCartInput is the body of POST /api/cart/add.
type AddToCartInput struct {
	ProductID uint   `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"nullable,gte=1"`
	Size      string `json:"size" validate:"nullable,max=20"`
	Color     string `json:"color" validate:"nullable,max=50"`
}

// UpdateCartInput is the body of PUT /api/cart/update.
type UpdateCartInput struct {
	ItemID   uint `json:"item_id"`
	Quantity *int `json:"quantity"`
}

type CartService struct {
	carts    *repositories.CartRepository
	products *repositories.ProductRepository
}

func NewCartService() *CartService {
	return &CartService{
		carts:    repositories.NewCartRepository(),
		products: repositories.NewProductRepository(),
	}
}

// Cart returns the user's cart, creating it on first use.
func (s *CartService) Cart(ctx context.Context, userID uint) (models.Cart, error) {
	return s.carts.ForUser(ctx, userID)
}

// Add puts quantity units of a product in the cart. A line with the same
// product, size and colour is topped up instead of duplicated.
func (s *CartService) Add(ctx context.Context, userID uint, in AddToCartInput) (models.Cart, error) {
	if in.Quantity <= 0 {
		in.Quantity = 1
	}

	product, err := s.products.FindByID(ctx, in.ProductID)
	if err != nil {
		return models.Cart{}, orNotFound(err, "Product not found")
	}
	if !product.IsActive {
		return models.Cart{}, badRequest("Product not available")
	}
	if product.StockQuantity < in.Quantity {
		return models.Cart{}, badRequest("Only %d items available", product.StockQuantity)
	}

	cart, err := s.carts.ForUser(ctx, userID)
	if err != nil {
		return cart, err
	}

	for _, it := range cart.Items {
		if it.ProductID != product.ID || it.Size != in.Size || it.Color != in.Color {
			continue
		}
		qty := it.Quantity + in.Quantity
		if qty > product.StockQuantity {
			return cart, badRequest("Cannot add more. Max available: %d", product.StockQuantity)
		}
		if err := s.carts.SetQuantity(ctx, it.ID, qty, product.CurrentPrice()); err != nil {
			return cart, err
		}
		logger.WithCtx(ctx).Info("cart line topped up", "user_id", userID, "product_id", product.ID, "quantity", qty)
		return s.carts.ForUser(ctx, userID)
	}

	item := models.CartItem{
		CartID:       cart.ID,
		ProductID:    product.ID,
		ProductName:  product.Name,
		ProductImage: product.ImageURL,
		Quantity:     in.Quantity,
		UnitPrice:    product.CurrentPrice(),
		Size:         in.Size,
		Color:        in.Color,
	}
	if err := s.carts.AddItem(ctx, &item); err != nil {
		return cart, err
	}
	logger.WithCtx(ctx).Info("cart line added", "user_id", userID, "product_id", product.ID, "quantity", in.Quantity)
	return s.carts.ForUser(ctx, userID)
}

// Update sets a line's quantity at the current price. Zero or less
// removes the line.
func (s *CartService) Update(ctx context.Context, userID uint, in UpdateCartInput) (models.Cart, error) {
	if in.ItemID == 0 || in.Quantity == nil {
		return models.Cart{}, badRequest("item_id and quantity required")
	}
	qty := *in.Quantity

	cart, err := s.carts.ForUser(ctx, userID)
	if err != nil {
		return cart, err
	}
	item, err := s.carts.FindItem(ctx, cart.ID, in.ItemID)
	if err != nil {
		return cart, orNotFound(err, "Cart item not found")
	}

	if qty <= 0 {
		if err := s.carts.RemoveItem(ctx, item.ID); err != nil {
			return cart, err
		}
		return s.carts.ForUser(ctx, userID)
	}

	product, err := s.products.FindByID(ctx, item.ProductID)
	if err != nil {
		return cart, orNotFound(err, "Product not found")
	}
	if qty > product.StockQuantity {
		return cart, badRequest("Only %d items available", product.StockQuantity)
	}
	if err := s.carts.SetQuantity(ctx, item.ID, qty, product.CurrentPrice()); err != nil {
		return cart, err
	}
	return s.carts.ForUser(ctx, userID)
}

func (s *CartService) Remove(ctx context.Context, userID, itemID uint) (models.Cart, error) {
	cart, err := s.carts.ForUser(ctx, userID)
	if err != nil {
		return cart, err
	}
	if _, err := s.carts.FindItem(ctx, cart.ID, itemID); err != nil {
		return cart, orNotFound(err, "Cart item not found")
	}
	if err := s.carts.RemoveItem(ctx, itemID); err != nil {
		return cart, err
	}
	return s.carts.ForUser(ctx, userID)
}

func (s *CartService) Clear(ctx context.Context, userID uint) (models.Cart, error) {
	cart, err := s.carts.ForUser(ctx, userID)
	if err != nil {
		return cart, err
	}
	if err := s.carts.Clear(ctx, cart.ID); err != nil {
		return cart, err
	}
	cart.Items = []models.CartItem{}
	return cart, nil
}

// Count is the number of units in the user's cart.
func (s *CartService) Count(ctx context.Context, userID uint) (int, error) {
	return s.carts.Count(ctx, userID)
}
