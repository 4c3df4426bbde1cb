package models

import "time"

// Cart belongs to exactly one user.
type Cart struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	Items     []CartItem `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Total is the sum of the line totals.
func (c Cart) Total() float64 {
	var sum float64
	for _, it := range c.Items {
		sum += it.Total()
	}
	return sum
}

// ItemCount is the number of units in the cart.
func (c Cart) ItemCount() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// CartItem snapshots the product name, image and price when it is added.
type CartItem struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CartID       uint      `gorm:"index;not null" json:"cart_id"`
	ProductID    uint      `gorm:"index;not null" json:"product_id"`
	ProductName  string    `gorm:"size:200" json:"product_name"`
	ProductImage string    `gorm:"size:500" json:"product_image"`
	Quantity     int       `gorm:"not null;default:1" json:"quantity"`
	UnitPrice    float64   `gorm:"not null" json:"unit_price"`
	Size         string    `gorm:"size:20" json:"size"`
	Color        string    `gorm:"size:50" json:"color"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (i CartItem) Total() float64 {
	return float64(i.Quantity) * i.UnitPrice
}
