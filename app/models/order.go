package models

import "time"

// Fulfilment states.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
	StatusCompleted  = "completed"
)

// Payment states on the order.
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

// Order sources. Direct orders come from POST /api/orders without a cart.
const (
	SourceCart   = "cart"
	SourceDirect = "direct"
)

// ValidStatus reports whether s is an order status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Order is the immutable record of a checkout.
type Order struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	UserID          *uint       `gorm:"index" json:"user_id"`
	InvoiceNumber   *string     `gorm:"uniqueIndex;size:50" json:"invoice_number"`
	Status          string      `gorm:"size:20;not null;default:pending;index" json:"status"`
	PaymentStatus   string      `gorm:"size:20;not null;default:pending" json:"payment_status"`
	PaymentMethod   string      `gorm:"size:50" json:"payment_method"`
	Source          string      `gorm:"size:20;not null;default:cart" json:"source"`
	Subtotal        float64     `gorm:"not null;default:0" json:"subtotal"`
	ShippingFee     float64     `gorm:"not null;default:0" json:"shipping_fee"`
	TotalAmount     float64     `gorm:"not null" json:"total_amount"`
	Items           LineItems   `gorm:"type:text;not null" json:"items"`
	ShippingAddress JSONMap     `gorm:"type:text" json:"shipping_address"`
	BillingInfo     SealedJSON  `gorm:"type:text" json:"billing_info"`
	PhoneNumber     string      `gorm:"size:20" json:"phone_number"`
	Notes           string      `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time   `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
	OrderItems      []OrderItem `gorm:"constraint:OnDelete:CASCADE" json:"order_items,omitempty"`
}

// Invoice returns the invoice number, or "" before it has been assigned.
func (o Order) Invoice() string {
	if o.InvoiceNumber == nil {
		return ""
	}
	return *o.InvoiceNumber
}

// OwnedBy reports whether userID placed the order.
func (o Order) OwnedBy(userID uint) bool {
	return o.UserID != nil && *o.UserID == userID
}

// Shipped reports whether the order has left the warehouse.
func (o Order) Shipped() bool {
	switch o.Status {
	case StatusShipped, StatusDelivered, StatusCompleted:
		return true
	}
	return false
}

// OrderItem is the relational copy of one line of Order.Items.
type OrderItem struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	OrderID      uint    `gorm:"index;not null" json:"order_id"`
	ProductID    uint    `gorm:"index" json:"product_id"`
	ProductName  string  `gorm:"size:200" json:"product_name"`
	ProductImage string  `gorm:"size:500" json:"product_image"`
	Quantity     int     `gorm:"not null" json:"quantity"`
	UnitPrice    float64 `gorm:"not null" json:"unit_price"`
	TotalPrice   float64 `gorm:"not null" json:"total_price"`
	Size         string  `gorm:"size:20" json:"size"`
	Color        string  `gorm:"size:50" json:"color"`
	CategoryName string  `gorm:"size:100" json:"category_name"`
}

// Invoice is issued once per order.
type Invoice struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	InvoiceNumber string    `gorm:"uniqueIndex;size:50;not null" json:"invoice_number"`
	OrderID       uint      `gorm:"uniqueIndex;not null" json:"order_id"`
	UserID        *uint     `gorm:"index" json:"user_id"`
	Subtotal      float64   `json:"subtotal"`
	Tax           float64   `json:"tax"`
	ShippingFee   float64   `json:"shipping_fee"`
	Total         float64   `json:"total"`
	PDFURL        string    `gorm:"column:pdf_url;size:500" json:"pdf_url"`
	CreatedAt     time.Time `json:"created_at"`
}

// Payment providers and attempt states.
const (
	ProviderMpesa     = "mpesa"
	ProviderSimulated = "simulated"

	PaymentInitiated = "initiated"
)

// Payment is one attempt to collect money for an order.
type Payment struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	OrderID           uint      `gorm:"index;not null" json:"order_id"`
	Provider          string    `gorm:"size:20;not null" json:"provider"`
	MerchantRequestID string    `gorm:"size:100" json:"merchant_request_id"`
	CheckoutRequestID *string   `gorm:"uniqueIndex;size:100" json:"checkout_request_id"`
	TransactionID     string    `gorm:"size:100" json:"transaction_id"`
	Phone             string    `gorm:"size:20" json:"phone"`
	Amount            float64   `json:"amount"`
	Status            string    `gorm:"size:20;not null;index" json:"status"`
	ResultCode        *int      `json:"result_code"`
	ResultDesc        string    `gorm:"size:255" json:"result_desc"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
