package config

// ── Catalog / orders ─────────────────────────────────────────────────────────

// LowStockThreshold is the inclusive upper bound for "low" stock.
func LowStockThreshold() int { return Int("LOW_STOCK_THRESHOLD", 10) }

// ShippingFee is added to every checkout total.
func ShippingFee() float64 { return Float("SHIPPING_FEE", 0) }

func CatalogCacheTTLSeconds() int { return Int("CATALOG_CACHE_TTL", 60) }

// AdminEmails receive inventory alerts.
func AdminEmails() []string { return List("ADMIN_EMAILS", []string{"admin@shop.com"}) }

// ── M-Pesa ───────────────────────────────────────────────────────────────────

func MpesaConsumerKey() string    { _ = Load(); return get("MPESA_CONSUMER_KEY", "") }
func MpesaConsumerSecret() string { _ = Load(); return get("MPESA_CONSUMER_SECRET", "") }
func MpesaShortcode() string      { _ = Load(); return get("MPESA_SHORTCODE", "174379") }
func MpesaPasskey() string        { _ = Load(); return get("MPESA_PASSKEY", "") }
func MpesaCallbackURL() string {
	_ = Load()
	return get("MPESA_CALLBACK_URL", AppURL()+"/api/orders/mpesa/callback")
}
func MpesaEnvironment() string { _ = Load(); return get("MPESA_ENVIRONMENT", "sandbox") }

// ── Messaging ────────────────────────────────────────────────────────────────

func KafkaBrokers() []string { return List("KAFKA_BROKERS", nil) }
func KafkaTopic() string     { _ = Load(); return get("KAFKA_TOPIC", "storefront.order.events") }

func SMSUsername() string { _ = Load(); return get("SMS_USERNAME", "sandbox") }
func SMSAPIKey() string   { _ = Load(); return get("SMS_API_KEY", "") }
func SMSBaseURL() string {
	_ = Load()
	return get("SMS_BASE_URL", "https://api.sandbox.africastalking.com/version1/messaging")
}

// ── Logging ──────────────────────────────────────────────────────────────────

func LogMongoURI() string { _ = Load(); return get("LOG_MONGO_URI", "") }
