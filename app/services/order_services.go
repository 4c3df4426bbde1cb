package services

import (
	"context"

	"github.com/shashiranjanraj/storefront/app/events"
	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/event"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/orm"
	"github.com/shashiranjanraj/storefront/pkg/validate"
	"gorm.io/gorm"
)

// OrderQuery is the admin listing filter. Dates are YYYY-MM-DD and both
// ends are inclusive.
type OrderQuery struct {
	Status    string
	StartDate string
	EndDate   string
}

func (q OrderQuery) filter() (repositories.OrderFilter, error) {
	f := repositories.OrderFilter{Status: q.Status}
	if q.StartDate != "" {
		t, err := validate.ParseDate(q.StartDate)
		if err != nil {
			return f, badRequest("Invalid start_date")
		}
		f.From = t
	}
	if q.EndDate != "" {
		t, err := validate.ParseDate(q.EndDate)
		if err != nil {
			return f, badRequest("Invalid end_date")
		}
		f.To = t.AddDate(0, 0, 1)
	}
	return f, nil
}

type OrderService struct {
	orders   *repositories.OrderRepository
	products *repositories.ProductRepository
}

func NewOrderService() *OrderService {
	return &OrderService{
		orders:   repositories.NewOrderRepository(),
		products: repositories.NewProductRepository(),
	}
}

// MyOrders returns the user's orders, newest first.
func (s *OrderService) MyOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	return s.orders.ForUser(ctx, userID)
}

// Get returns an order to its owner or to an admin. Anyone else gets the
// same 404 as for a missing order.
func (s *OrderService) Get(ctx context.Context, userID uint, isAdmin bool, id uint) (models.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return o, orNotFound(err, "Order not found")
	}
	if !isAdmin && !o.OwnedBy(userID) {
		return models.Order{}, notFound("Order not found")
	}
	return o, nil
}

// ByInvoice looks an order up by invoice number.
func (s *OrderService) ByInvoice(ctx context.Context, number string) (models.Order, error) {
	o, err := s.orders.FindByInvoice(ctx, number)
	return o, orNotFound(err, "Order not found")
}

// Invoice returns the invoice issued for the order.
func (s *OrderService) Invoice(ctx context.Context, orderID uint) (models.Invoice, error) {
	inv, err := s.orders.InvoiceFor(ctx, orderID)
	return inv, orNotFound(err, "Invoice not found")
}

// All returns every order matching q, newest first.
func (s *OrderService) All(ctx context.Context, q OrderQuery) ([]models.Order, error) {
	f, err := q.filter()
	if err != nil {
		return nil, err
	}
	return s.orders.All(ctx, f)
}

func (s *OrderService) Paginate(ctx context.Context, q OrderQuery, page, perPage int) ([]models.Order, orm.Pagination, error) {
	f, err := q.filter()
	if err != nil {
		return nil, orm.Pagination{}, err
	}
	return s.orders.Paginate(ctx, f, page, perPage)
}

// UpdateStatus moves an order to status. Cancelling an order that has not
// shipped puts its units back in stock. A cancelled order is final.
func (s *OrderService) UpdateStatus(ctx context.Context, id uint, status string) (models.Order, error) {
	if !models.ValidStatus(status) {
		return models.Order{}, badRequest("Invalid status")
	}

	var (
		order models.Order
		old   string
	)
	err := database.Transaction(ctx, func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)
		var err error
		order, err = orders.FindByID(ctx, id)
		if err != nil {
			return orNotFound(err, "Order not found")
		}
		old = order.Status
		if old == status {
			return nil
		}
		if old == models.StatusCancelled {
			return badRequest("Cancelled orders cannot be reopened")
		}

		restock := status == models.StatusCancelled && !order.Shipped()
		moved, err := orders.TransitionStatus(ctx, order.ID, old, status)
		if err != nil {
			return err
		}
		if !moved {
			return conflict("Order status was changed by another request")
		}
		order.Status = status

		if restock {
			products := s.products.WithTx(tx)
			for _, it := range order.OrderItems {
				if err := products.Restock(ctx, it.ProductID, it.Quantity); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return order, err
	}
	if old == status {
		return order, nil
	}

	logger.WithCtx(ctx).Info("order status changed", "order_id", order.ID, "from", old, "to", status)
	event.FireAsync(ctx, events.OrderStatusChanged, events.OrderStatusChangedPayload{Order: order, OldStatus: old})
	return order, nil
}
