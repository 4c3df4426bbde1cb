package services

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/shashiranjanraj/storefront/app/events"
	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/event"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
	"gorm.io/gorm"
)

// MpesaCallback is what Daraja POSTs to the callback URL.
type MpesaCallback struct {
	Body struct {
		STKCallback STKCallback `json:"stkCallback"`
	} `json:"Body"`
}

type STKCallback struct {
	MerchantRequestID string `json:"MerchantRequestID"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResultCode        int    `json:"ResultCode"`
	ResultDesc        string `json:"ResultDesc"`
	CallbackMetadata  *struct {
		Item []CallbackItem `json:"Item"`
	} `json:"CallbackMetadata"`
}

type CallbackItem struct {
	Name  string      `json:"Name"`
	Value interface{} `json:"Value"`
}

// Meta returns the named metadata item as a string.
func (c STKCallback) Meta(name string) string {
	if c.CallbackMetadata == nil {
		return ""
	}
	for _, it := range c.CallbackMetadata.Item {
		if it.Name != name || it.Value == nil {
			continue
		}
		if f, ok := it.Value.(float64); ok {
			return fmt.Sprintf("%.0f", f)
		}
		return fmt.Sprint(it.Value)
	}
	return ""
}

// PaymentService starts, settles and expires payments.
type PaymentService struct {
	mpesa    *MpesaClient
	orders   *repositories.OrderRepository
	payments *repositories.PaymentRepository
}

func NewPaymentService(mpesa *MpesaClient) *PaymentService {
	return &PaymentService{
		mpesa:    mpesa,
		orders:   repositories.NewOrderRepository(),
		payments: repositories.NewPaymentRepository(),
	}
}

// InitiateMpesa sends an STK push for the order's total and records the
// attempt.
func (s *PaymentService) InitiateMpesa(ctx context.Context, order models.Order, phone string) (STKPushResponse, error) {
	log := logger.WithCtx(ctx).With("order_id", order.ID, "invoice", order.Invoice())

	resp, err := s.mpesa.STKPush(ctx, STKPushRequest{
		Phone:            phone,
		Amount:           order.TotalAmount,
		AccountReference: order.Invoice(),
		Description:      "Payment for order " + order.Invoice(),
	})
	if err != nil {
		metrics.RecordPayment(models.ProviderMpesa, "push_failed")
		log.Warn("stk push failed", "error", err)
		failed := models.Payment{
			OrderID:    order.ID,
			Provider:   models.ProviderMpesa,
			Phone:      NormalizePhone(phone),
			Amount:     order.TotalAmount,
			Status:     models.PaymentFailed,
			ResultDesc: truncate(err.Error(), 255),
		}
		if serr := s.payments.Create(ctx, &failed); serr != nil {
			log.Error("recording failed payment", "error", serr)
		}
		return resp, err
	}

	checkoutID := resp.CheckoutRequestID
	p := models.Payment{
		OrderID:           order.ID,
		Provider:          models.ProviderMpesa,
		MerchantRequestID: resp.MerchantRequestID,
		CheckoutRequestID: &checkoutID,
		Phone:             NormalizePhone(phone),
		Amount:            order.TotalAmount,
		Status:            models.PaymentInitiated,
		ResultDesc:        resp.ResponseDescription,
	}
	if err := s.payments.Create(ctx, &p); err != nil {
		return resp, err
	}
	metrics.RecordPayment(models.ProviderMpesa, models.PaymentInitiated)
	log.Info("stk push sent", "checkout_request_id", checkoutID)
	return resp, nil
}

// HandleCallback settles the payment Daraja reports on. Unknown requests
// are logged and ignored.
func (s *PaymentService) HandleCallback(ctx context.Context, cb MpesaCallback) error {
	res := cb.Body.STKCallback
	log := logger.WithCtx(ctx).With("checkout_request_id", res.CheckoutRequestID, "result_code", res.ResultCode)

	var (
		payment    models.Payment
		hasPayment bool
		order      models.Order
	)
	if res.CheckoutRequestID != "" {
		p, err := s.payments.FindByCheckoutID(ctx, res.CheckoutRequestID)
		switch {
		case err == nil:
			payment, hasPayment = p, true
		case !database.IsNotFound(err):
			return err
		}
	}

	var err error
	if hasPayment {
		order, err = s.orders.FindByID(ctx, payment.OrderID)
	} else if ref := res.Meta("AccountReference"); ref != "" {
		order, err = s.orders.FindByInvoice(ctx, ref)
	} else {
		log.Warn("mpesa callback for unknown request")
		return nil
	}
	if database.IsNotFound(err) {
		log.Warn("mpesa callback for unknown order")
		return nil
	}
	if err != nil {
		return err
	}

	code := res.ResultCode
	if !hasPayment {
		checkoutID := res.CheckoutRequestID
		payment = models.Payment{
			OrderID:           order.ID,
			Provider:          models.ProviderMpesa,
			MerchantRequestID: res.MerchantRequestID,
			Amount:            order.TotalAmount,
		}
		if checkoutID != "" {
			payment.CheckoutRequestID = &checkoutID
		}
	}
	payment.ResultCode = &code
	payment.ResultDesc = truncate(res.ResultDesc, 255)

	orderFields := map[string]interface{}{}
	if code == 0 {
		payment.Status = models.PaymentPaid
		payment.TransactionID = res.Meta("MpesaReceiptNumber")
		if phone := res.Meta("PhoneNumber"); phone != "" {
			payment.Phone = phone
		}
		orderFields["payment_status"] = models.PaymentPaid
		if order.Status == models.StatusPending {
			if order.Source == models.SourceDirect {
				orderFields["status"] = models.StatusCompleted
			} else {
				orderFields["status"] = models.StatusProcessing
			}
		}
	} else {
		payment.Status = models.PaymentFailed
		orderFields["payment_status"] = models.PaymentFailed
	}

	err = database.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.payments.WithTx(tx).Save(ctx, &payment); err != nil {
			return err
		}
		return s.orders.WithTx(tx).Update(ctx, &order, orderFields)
	})
	if err != nil {
		return err
	}
	order.PaymentStatus = orderFields["payment_status"].(string)
	if st, ok := orderFields["status"].(string); ok {
		order.Status = st
	}

	metrics.RecordPayment(models.ProviderMpesa, payment.Status)
	log.Info("mpesa callback applied", "order_id", order.ID, "payment_status", payment.Status)

	if code == 0 {
		event.FireAsync(ctx, events.PaymentCompleted, events.PaymentCompletedPayload{Order: order, Payment: payment})
	}
	return nil
}

// Simulate marks the user's order as paid without a provider.
func (s *PaymentService) Simulate(ctx context.Context, userID, orderID uint) (models.Order, string, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return order, "", orNotFound(err, "Order not found")
	}
	if !order.OwnedBy(userID) {
		return order, "", notFound("Order not found")
	}
	if order.PaymentStatus == models.PaymentPaid {
		return order, "", badRequest("Order is already paid")
	}
	if order.Status == models.StatusCancelled {
		return order, "", badRequest("Order has been cancelled")
	}

	txnID := fmt.Sprintf("TXN-%d-%s", order.ID, order.CreatedAt.UTC().Format("20060102150405"))
	payment := models.Payment{
		OrderID:       order.ID,
		Provider:      models.ProviderSimulated,
		TransactionID: txnID,
		Amount:        order.TotalAmount,
		Status:        models.PaymentPaid,
		ResultDesc:    "Simulated payment",
	}
	fields := map[string]interface{}{"payment_status": models.PaymentPaid}
	if order.Status == models.StatusPending {
		fields["status"] = models.StatusProcessing
	}
	err = database.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.payments.WithTx(tx).Create(ctx, &payment); err != nil {
			return err
		}
		return s.orders.WithTx(tx).Update(ctx, &order, fields)
	})
	if err != nil {
		return order, "", err
	}
	order.PaymentStatus = models.PaymentPaid
	if st, ok := fields["status"].(string); ok {
		order.Status = st
	}

	metrics.RecordPayment(models.ProviderSimulated, models.PaymentPaid)
	logger.WithCtx(ctx).Info("payment simulated", "order_id", order.ID, "transaction_id", txnID)
	event.FireAsync(ctx, events.PaymentCompleted, events.PaymentCompletedPayload{Order: order, Payment: payment})
	return order, txnID, nil
}

// ExpireStale fails STK pushes that were never answered within maxAge and
// marks their orders' payment as failed.
func (s *PaymentService) ExpireStale(ctx context.Context, maxAge time.Duration) (int, error) {
	stale, err := s.payments.ExpireInitiated(ctx, time.Now().Add(-maxAge))
	if err != nil {
		return 0, err
	}
	for _, p := range stale {
		order, err := s.orders.FindByID(ctx, p.OrderID)
		if err != nil {
			if database.IsNotFound(err) {
				continue
			}
			return 0, err
		}
		if order.PaymentStatus != models.PaymentPending {
			continue
		}
		if err := s.orders.Update(ctx, &order, map[string]interface{}{"payment_status": models.PaymentFailed}); err != nil {
			return 0, err
		}
	}
	if len(stale) > 0 {
		logger.WithCtx(ctx).Info("expired stale payments", "count", len(stale))
	}
	return len(stale), nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
