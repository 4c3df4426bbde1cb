package metrics

var (
	ordersPlaced     = counter("shop", "orders_placed_total", "Orders committed, by payment method.", "payment_method")
	revenue          = counter("shop", "revenue_kes_total", "Value of orders placed, in KES.")
	checkoutFailures = counter("shop", "checkout_failures_total", "Checkouts rejected, by reason.", "reason")
	payments         = counter("shop", "payments_total", "Payment outcomes by provider and status.", "provider", "status")
)

// RecordOrder counts a committed order and adds its total to revenue.
func RecordOrder(paymentMethod string, total float64) {
	ordersPlaced.WithLabelValues(paymentMethod).Inc()
	revenue.WithLabelValues().Add(total)
}

// RecordCheckoutFailure counts a rejected checkout by a short reason such
// as "empty_cart" or "validation".
func RecordCheckoutFailure(reason string) {
	checkoutFailures.WithLabelValues(reason).Inc()
}

func RecordPayment(provider, status string) {
	payments.WithLabelValues(provider, status).Inc()
}
