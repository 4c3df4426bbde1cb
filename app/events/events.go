// Package events names the storefront's domain events and their payloads.
// Services fire them through pkg/event; app/listeners reacts.
package events

import "github.com/shashiranjanraj/storefront/app/models"

const (
	OrderPlaced        = "order.placed"
	OrderStatusChanged = "order.status_changed"
	PaymentCompleted   = "payment.completed"
)

// OrderPlacedPayload is fired once the checkout transaction has committed.
type OrderPlacedPayload struct {
	Order models.Order
}

// OrderStatusChangedPayload carries the status before and after an admin
// update.
type OrderStatusChangedPayload struct {
	Order     models.Order
	OldStatus string
}

// PaymentCompletedPayload is fired when money has been collected.
type PaymentCompletedPayload struct {
	Order   models.Order
	Payment models.Payment
}
