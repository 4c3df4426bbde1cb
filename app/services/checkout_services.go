package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/shashiranjanraj/storefront/app/events"
	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/event"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
	"gorm.io/gorm"
)

// Payment methods accepted at checkout.
const (
	MethodOnline = "online"
	MethodMpesa  = "mpesa"
)

const uncategorized = "Uncategorized"

// CheckoutInput is the body of POST /api/cart/checkout.
type CheckoutInput struct {
	ShippingAddress map[string]interface{} `json:"shipping_address"`
	BillingInfo     map[string]interface{} `json:"billing_info"`
	PaymentMethod   string                 `json:"payment_method" validate:"nullable,max=50"`
	PhoneNumber     string                 `json:"phone_number" validate:"nullable,phone"`
	Notes           string                 `json:"notes" validate:"nullable,max=1000"`
}

// DirectItem is one line of a direct order.
type DirectItem struct {
	ProductID uint   `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

// DirectOrderInput is the body of POST /api/orders. cart_items is accepted
// as an alias for items.
type DirectOrderInput struct {
	Items           []DirectItem           `json:"items"`
	CartItems       []DirectItem           `json:"cart_items"`
	ShippingAddress map[string]interface{} `json:"shipping_address" validate:"required"`
	BillingInfo     map[string]interface{} `json:"billing_info"`
	PhoneNumber     string                 `json:"phone_number" validate:"nullable,phone"`
	PaymentMethod   string                 `json:"payment_method" validate:"nullable,max=50"`
	Notes           string                 `json:"notes" validate:"nullable,max=1000"`
}

func (in DirectOrderInput) lines() []DirectItem {
	if len(in.CartItems) > 0 {
		return in.CartItems
	}
	return in.Items
}

// Placed is the outcome of a checkout.
type Placed struct {
	Order        models.Order     `json:"order"`
	Invoice      models.Invoice   `json:"invoice"`
	Mpesa        *STKPushResponse `json:"mpesa,omitempty"`
	PaymentError string           `json:"payment_error,omitempty"`
}

// draft is an order before it is written: the requested lines and the
// price each one is charged at.
type draft struct {
	userID   *uint
	source   string
	method   string
	phone    string
	notes    string
	shipping map[string]interface{}
	billing  map[string]interface{}
	lines    []draftLine
}

type draftLine struct {
	productID uint
	quantity  int
	size      string
	color     string
	// price is the snapshot to charge. Zero means the product's current
	// price at placement.
	price float64
	image string
	name  string
}

// CheckoutService turns carts and direct requests into orders.
type CheckoutService struct {
	orders   *repositories.OrderRepository
	products *repositories.ProductRepository
	carts    *repositories.CartRepository
	payments *PaymentService
}

func NewCheckoutService(payments *PaymentService) *CheckoutService {
	return &CheckoutService{
		orders:   repositories.NewOrderRepository(),
		products: repositories.NewProductRepository(),
		carts:    repositories.NewCartRepository(),
		payments: payments,
	}
}

// Checkout places an order from the user's cart and empties it. With the
// mpesa method an STK push is started once the order is committed; a
// failed push is reported in PaymentError and does not undo the order.
func (s *CheckoutService) Checkout(ctx context.Context, userID uint, in CheckoutInput) (Placed, error) {
	if in.PaymentMethod == "" {
		in.PaymentMethod = MethodOnline
	}
	if in.PaymentMethod == MethodMpesa && in.PhoneNumber == "" {
		return Placed{}, badRequest("phone_number is required for M-Pesa payments")
	}

	var placed Placed
	err := database.Transaction(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		cart, err := carts.ForUser(ctx, userID)
		if err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return badRequest("Cart is empty")
		}
		if len(in.ShippingAddress) == 0 {
			return invalid("shipping_address", "The shipping_address field is required.")
		}

		d := draft{
			userID:   &userID,
			source:   models.SourceCart,
			method:   in.PaymentMethod,
			phone:    in.PhoneNumber,
			notes:    in.Notes,
			shipping: in.ShippingAddress,
			billing:  in.BillingInfo,
		}
		for _, it := range cart.Items {
			d.lines = append(d.lines, draftLine{
				productID: it.ProductID,
				quantity:  it.Quantity,
				size:      it.Size,
				color:     it.Color,
				price:     it.UnitPrice,
				image:     it.ProductImage,
				name:      it.ProductName,
			})
		}

		placed, err = s.place(ctx, tx, d)
		if err != nil {
			return err
		}
		return carts.Clear(ctx, cart.ID)
	})
	if err != nil {
		s.recordFailure(err)
		return placed, err
	}

	s.afterPlace(ctx, &placed)
	return placed, nil
}

// PlaceDirectOrder places an order from an explicit item list. userID is
// nil for guests. Orders not paid through M-Pesa are marked completed and
// paid straight away.
func (s *CheckoutService) PlaceDirectOrder(ctx context.Context, userID *uint, in DirectOrderInput) (Placed, error) {
	lines := in.lines()
	if len(lines) == 0 {
		return Placed{}, badRequest("Missing cart_items/items or shipping_address")
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = MethodMpesa
	}
	if in.PaymentMethod == MethodMpesa && in.PhoneNumber == "" {
		return Placed{}, badRequest("phone_number is required for M-Pesa payments")
	}

	d := draft{
		userID:   userID,
		source:   models.SourceDirect,
		method:   in.PaymentMethod,
		phone:    in.PhoneNumber,
		notes:    in.Notes,
		shipping: in.ShippingAddress,
		billing:  in.BillingInfo,
	}
	if d.billing == nil {
		d.billing = in.ShippingAddress
	}
	for _, it := range lines {
		if it.Quantity <= 0 {
			return Placed{}, badRequest("Quantity must be at least 1")
		}
		d.lines = append(d.lines, draftLine{productID: it.ProductID, quantity: it.Quantity, size: it.Size, color: it.Color})
	}

	var placed Placed
	err := database.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		placed, err = s.place(ctx, tx, d)
		if err != nil {
			return err
		}
		if d.method == MethodMpesa {
			return nil
		}
		fields := map[string]interface{}{"status": models.StatusCompleted, "payment_status": models.PaymentPaid}
		if err := s.orders.WithTx(tx).Update(ctx, &placed.Order, fields); err != nil {
			return err
		}
		placed.Order.Status = models.StatusCompleted
		placed.Order.PaymentStatus = models.PaymentPaid
		return nil
	})
	if err != nil {
		s.recordFailure(err)
		return placed, err
	}

	s.afterPlace(ctx, &placed)
	return placed, nil
}

// place writes the order, its items and its invoice inside tx. Stock is
// taken line by line; any shortfall aborts the whole order.
func (s *CheckoutService) place(ctx context.Context, tx *gorm.DB, d draft) (Placed, error) {
	products := s.products.WithTx(tx)
	orders := s.orders.WithTx(tx)

	order := models.Order{
		UserID:          d.userID,
		Status:          models.StatusPending,
		PaymentStatus:   models.PaymentPending,
		PaymentMethod:   d.method,
		Source:          d.source,
		ShippingAddress: models.JSONMap(d.shipping),
		PhoneNumber:     d.phone,
		Notes:           d.notes,
	}
	if d.billing != nil {
		order.BillingInfo = models.SealedJSON(d.billing)
	}

	for _, line := range d.lines {
		product, err := products.FindByID(ctx, line.productID)
		if err != nil {
			return Placed{}, orNotFound(err, fmt.Sprintf("Product %d not found", line.productID))
		}
		name := product.Name
		if line.name != "" {
			name = line.name
		}
		if !product.InStock(line.quantity) {
			return Placed{}, badRequest("Insufficient stock for %s", name)
		}
		ok, err := products.DecrementStock(ctx, product.ID, line.quantity)
		if err != nil {
			return Placed{}, err
		}
		if !ok {
			return Placed{}, badRequest("Insufficient stock for %s", name)
		}

		price := line.price
		if price == 0 {
			price = product.CurrentPrice()
		}
		image := line.image
		if image == "" {
			image = product.ImageURL
		}
		category := uncategorized
		if product.Category != nil && product.Category.Name != "" {
			category = product.Category.Name
		}
		total := roundMoney(price * float64(line.quantity))

		order.Items = append(order.Items, models.LineItem{
			ProductID:    product.ID,
			ProductName:  name,
			ProductImage: image,
			Quantity:     line.quantity,
			Price:        price,
			Total:        total,
			Size:         line.size,
			Color:        line.color,
			CategoryName: category,
		})
		order.OrderItems = append(order.OrderItems, models.OrderItem{
			ProductID:    product.ID,
			ProductName:  name,
			ProductImage: image,
			Quantity:     line.quantity,
			UnitPrice:    price,
			TotalPrice:   total,
			Size:         line.size,
			Color:        line.color,
			CategoryName: category,
		})
		order.Subtotal += total
	}

	order.Subtotal = roundMoney(order.Subtotal)
	order.ShippingFee = config.ShippingFee()
	order.TotalAmount = roundMoney(order.Subtotal + order.ShippingFee)

	if err := orders.Create(ctx, &order); err != nil {
		return Placed{}, err
	}
	number := InvoiceNumber(order)
	if err := orders.SetInvoiceNumber(ctx, &order, number); err != nil {
		return Placed{}, err
	}

	invoice := models.Invoice{
		InvoiceNumber: number,
		OrderID:       order.ID,
		UserID:        order.UserID,
		Subtotal:      order.Subtotal,
		ShippingFee:   order.ShippingFee,
		Total:         order.TotalAmount,
	}
	if err := orders.CreateInvoice(ctx, &invoice); err != nil {
		return Placed{}, err
	}
	return Placed{Order: order, Invoice: invoice}, nil
}

// afterPlace runs once the order is committed.
func (s *CheckoutService) afterPlace(ctx context.Context, placed *Placed) {
	o := placed.Order
	logger.WithCtx(ctx).Info("order placed",
		"order_id", o.ID, "invoice", o.Invoice(), "total", o.TotalAmount, "method", o.PaymentMethod)
	metrics.RecordOrder(o.PaymentMethod, o.TotalAmount)
	event.FireAsync(ctx, events.OrderPlaced, events.OrderPlacedPayload{Order: o})

	if o.PaymentMethod != MethodMpesa || s.payments == nil {
		return
	}
	resp, err := s.payments.InitiateMpesa(ctx, o, o.PhoneNumber)
	if err != nil {
		placed.PaymentError = err.Error()
		return
	}
	placed.Mpesa = &resp
}

func (s *CheckoutService) recordFailure(err error) {
	var ve *ValidationError
	e, ok := AsError(err)
	switch {
	case errors.As(err, &ve):
		metrics.RecordCheckoutFailure("validation")
	case !ok:
		metrics.RecordCheckoutFailure("internal")
	case e.Status == http.StatusNotFound:
		metrics.RecordCheckoutFailure("not_found")
	case e.Message == "Cart is empty":
		metrics.RecordCheckoutFailure("empty_cart")
	default:
		metrics.RecordCheckoutFailure("rejected")
	}
}

// InvoiceNumber is INV-{created at, YmdHMS}-{order id}.
func InvoiceNumber(o models.Order) string {
	return fmt.Sprintf("INV-%s-%d", o.CreatedAt.UTC().Format("20060102150405"), o.ID)
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
