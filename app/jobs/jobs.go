// Package jobs holds the storefront's queued work. Every job registers
// itself by name so a worker process can decode it.
package jobs

import (
	"context"
	"errors"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/notifications"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/notification"
	"github.com/shashiranjanraj/storefront/pkg/queue"
)

const (
	SendOrderConfirmationName = "orders.send_confirmation"
	SendPaymentReceiptName    = "orders.send_payment_receipt"
	SendStatusUpdateName      = "orders.send_status_update"
	LowStockAlertName         = "inventory.low_stock_alert"
)

func init() {
	queue.Register(SendOrderConfirmationName, func() queue.Job { return &SendOrderConfirmation{} })
	queue.Register(SendPaymentReceiptName, func() queue.Job { return &SendPaymentReceipt{} })
	queue.Register(SendStatusUpdateName, func() queue.Job { return &SendStatusUpdate{} })
	queue.Register(LowStockAlertName, func() queue.Job { return &LowStockAlert{} })
}

// recipient resolves where an order's messages go: the account's email,
// and the checkout phone before the account phone.
func recipient(ctx context.Context, o models.Order) (notification.Recipient, string, error) {
	to := notification.Recipient{Phone: o.PhoneNumber}
	var name string
	if o.UserID != nil {
		u, err := repositories.NewUserRepository().FindByID(ctx, *o.UserID)
		switch {
		case err == nil:
			to.Email = u.Email
			name = u.Name
			if to.Phone == "" {
				to.Phone = u.Phone
			}
		case !database.IsNotFound(err):
			return to, "", err
		}
	}
	if to.Phone != "" {
		to.Phone = notification.InternationalPhone(to.Phone)
	}
	return to, name, nil
}

func loadOrder(ctx context.Context, id uint) (models.Order, bool, error) {
	o, err := repositories.NewOrderRepository().FindByID(ctx, id)
	if database.IsNotFound(err) {
		logger.WithCtx(ctx).Warn("job: order vanished", "order_id", id)
		return o, false, nil
	}
	return o, err == nil, err
}

// SendOrderConfirmation mails and texts the customer after checkout.
type SendOrderConfirmation struct {
	OrderID uint `json:"order_id"`
}

func (j *SendOrderConfirmation) JobName() string { return SendOrderConfirmationName }

func (j *SendOrderConfirmation) Handle(ctx context.Context) error {
	o, ok, err := loadOrder(ctx, j.OrderID)
	if !ok {
		return err
	}
	to, name, err := recipient(ctx, o)
	if err != nil {
		return err
	}
	if name == "" {
		name = "customer"
	}
	return notification.Send(ctx, to, notifications.OrderConfirmed{Order: o, Name: name})
}

// SendPaymentReceipt texts the customer once a payment settles.
type SendPaymentReceipt struct {
	OrderID       uint   `json:"order_id"`
	TransactionID string `json:"transaction_id"`
}

func (j *SendPaymentReceipt) JobName() string { return SendPaymentReceiptName }

func (j *SendPaymentReceipt) Handle(ctx context.Context) error {
	o, ok, err := loadOrder(ctx, j.OrderID)
	if !ok {
		return err
	}
	to, _, err := recipient(ctx, o)
	if err != nil {
		return err
	}
	return notification.Send(ctx, to, notifications.PaymentReceived{Order: o, TransactionID: j.TransactionID})
}

// SendStatusUpdate texts the customer when an admin moves the order.
type SendStatusUpdate struct {
	OrderID uint `json:"order_id"`
}

func (j *SendStatusUpdate) JobName() string { return SendStatusUpdateName }

func (j *SendStatusUpdate) Handle(ctx context.Context) error {
	o, ok, err := loadOrder(ctx, j.OrderID)
	if !ok {
		return err
	}
	to, _, err := recipient(ctx, o)
	if err != nil {
		return err
	}
	return notification.Send(ctx, to, notifications.StatusChanged{Order: o})
}

// LowStockAlert mails the admins the listed products. An empty list
// re-reads every product at or below the threshold.
type LowStockAlert struct {
	ProductIDs []uint `json:"product_ids"`
}

func (j *LowStockAlert) JobName() string { return LowStockAlertName }

func (j *LowStockAlert) Handle(ctx context.Context) error {
	products := repositories.NewProductRepository()
	threshold := config.LowStockThreshold()

	var (
		list []models.Product
		err  error
	)
	if len(j.ProductIDs) > 0 {
		list, err = products.FindByIDs(ctx, j.ProductIDs)
	} else {
		list, err = products.LowStock(ctx, threshold)
	}
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return nil
	}

	var errs []error
	n := notifications.LowStock{Products: list, Threshold: threshold}
	for _, addr := range config.AdminEmails() {
		errs = append(errs, notification.Send(ctx, notification.Recipient{Email: addr}, n))
	}
	return errors.Join(errs...)
}
