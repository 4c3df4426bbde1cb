// Package listeners wires domain events to their side effects: queued
// customer messages, the Kafka stream and the admin live feed.
package listeners

import (
	"context"

	"github.com/shashiranjanraj/storefront/app/events"
	"github.com/shashiranjanraj/storefront/app/jobs"
	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/app/resources"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/broker"
	"github.com/shashiranjanraj/storefront/pkg/event"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/queue"
	"github.com/shashiranjanraj/storefront/pkg/ws"
)

// Feed receives events for the admin live view. *ws.Hub satisfies it.
type Feed interface {
	Publish(eventType string, data interface{})
}

var _ Feed = (*ws.Hub)(nil)

// Register attaches every listener. feed may be nil when no live view is
// served (CLI commands).
func Register(feed Feed) {
	event.Listen(events.OrderPlaced, onOrderPlaced)
	event.Listen(events.OrderStatusChanged, onStatusChanged)
	event.Listen(events.PaymentCompleted, onPaymentCompleted)

	for _, name := range []string{events.OrderPlaced, events.OrderStatusChanged, events.PaymentCompleted} {
		name := name
		event.Listen(name, func(ctx context.Context, payload interface{}) {
			o, ok := orderOf(payload)
			if !ok {
				return
			}
			data := resources.OrderEvent(o)
			if feed != nil {
				feed.Publish(name, data)
			}
			if err := broker.Publish(ctx, name, o.Invoice(), data); err != nil {
				logger.WithCtx(ctx).Error("broker publish failed", "event", name, "order_id", o.ID, "error", err)
			}
		})
	}
}

func orderOf(payload interface{}) (models.Order, bool) {
	switch p := payload.(type) {
	case events.OrderPlacedPayload:
		return p.Order, true
	case events.OrderStatusChangedPayload:
		return p.Order, true
	case events.PaymentCompletedPayload:
		return p.Order, true
	}
	return models.Order{}, false
}

type namedJob interface {
	queue.Job
	queue.Named
}

func dispatch(ctx context.Context, job namedJob) {
	if err := queue.Dispatch(job); err != nil {
		logger.WithCtx(ctx).Error("dispatch failed", "job", job.JobName(), "error", err)
	}
}

func onOrderPlaced(ctx context.Context, payload interface{}) {
	p, ok := payload.(events.OrderPlacedPayload)
	if !ok {
		return
	}
	dispatch(ctx, &jobs.SendOrderConfirmation{OrderID: p.Order.ID})

	ids := make([]uint, 0, len(p.Order.Items))
	for _, it := range p.Order.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := repositories.NewProductRepository().FindByIDs(ctx, ids)
	if err != nil {
		logger.WithCtx(ctx).Error("low stock check failed", "order_id", p.Order.ID, "error", err)
		return
	}
	threshold := config.LowStockThreshold()
	var low []uint
	for _, pr := range products {
		if pr.StockQuantity <= threshold {
			low = append(low, pr.ID)
		}
	}
	if len(low) > 0 {
		dispatch(ctx, &jobs.LowStockAlert{ProductIDs: low})
	}
}

func onStatusChanged(ctx context.Context, payload interface{}) {
	p, ok := payload.(events.OrderStatusChangedPayload)
	if !ok {
		return
	}
	dispatch(ctx, &jobs.SendStatusUpdate{OrderID: p.Order.ID})
}

func onPaymentCompleted(ctx context.Context, payload interface{}) {
	p, ok := payload.(events.PaymentCompletedPayload)
	if !ok {
		return
	}
	dispatch(ctx, &jobs.SendPaymentReceipt{OrderID: p.Order.ID, TransactionID: p.Payment.TransactionID})
}
