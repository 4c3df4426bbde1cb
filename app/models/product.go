package models

import (
	"strings"
	"time"
)

// Category groups products. Categories nest through ParentID.
type Category struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Name          string     `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Slug          string     `gorm:"uniqueIndex;size:100;not null" json:"slug"`
	Description   string     `gorm:"type:text" json:"description"`
	ImageURL      string     `gorm:"size:500" json:"image_url"`
	ParentID      *uint      `gorm:"index" json:"parent_id"`
	IsActive      bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Subcategories []Category `gorm:"foreignKey:ParentID" json:"subcategories,omitempty"`
}

// Product is a catalogue item.
type Product struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:200;not null;index" json:"name"`
	Slug          string    `gorm:"uniqueIndex;size:200;not null" json:"slug"`
	Description   string    `gorm:"type:text" json:"description"`
	Price         float64   `gorm:"not null" json:"price"`
	SalePrice     *float64  `json:"sale_price"`
	SKU           *string   `gorm:"column:sku;uniqueIndex;size:50" json:"sku"`
	CategoryID    uint      `gorm:"index;not null" json:"category_id"`
	Category      *Category `gorm:"constraint:OnDelete:RESTRICT" json:"category,omitempty"`
	StockQuantity int       `gorm:"not null;default:0" json:"stock_quantity"`
	ImageURL      string    `gorm:"size:500" json:"image_url"`
	Images        string    `gorm:"type:text" json:"-"`
	Sizes         string    `gorm:"size:200" json:"-"`
	Colors        string    `gorm:"size:200" json:"-"`
	Material      string    `gorm:"size:100" json:"material"`
	IsActive      bool      `gorm:"not null;default:true;index" json:"is_active"`
	IsFeatured    bool      `gorm:"not null;default:false" json:"is_featured"`
	ViewCount     int       `gorm:"not null;default:0" json:"view_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CurrentPrice is the sale price when one is set, otherwise the list price.
func (p Product) CurrentPrice() float64 {
	if p.SalePrice != nil && *p.SalePrice > 0 {
		return *p.SalePrice
	}
	return p.Price
}

// InStock reports whether qty units can be sold.
func (p Product) InStock(qty int) bool {
	return p.IsActive && p.StockQuantity >= qty
}

func (p Product) ImageList() []string { return splitList(p.Images) }
func (p Product) SizeList() []string  { return splitList(p.Sizes) }
func (p Product) ColorList() []string { return splitList(p.Colors) }

// JoinList stores a list in one of the comma separated columns.
func JoinList(items []string) string {
	clean := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			clean = append(clean, s)
		}
	}
	return strings.Join(clean, ",")
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Slugify lowercases name and turns spaces and underscores into dashes.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "-")
	return strings.ReplaceAll(s, "_", "-")
}
