package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shashiranjanraj/storefront/pkg/crypt"
)

// JSONMap is a free-form object stored as JSON text.
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *JSONMap) Scan(src interface{}) error {
	raw, err := textOf(src)
	if err != nil || raw == nil {
		*m = nil
		return err
	}
	return json.Unmarshal(raw, m)
}

// SealedJSON is a JSONMap encrypted with pkg/crypt before it is written.
// Rows written before encryption was switched on hold plain JSON and are
// still read.
type SealedJSON map[string]interface{}

func (m SealedJSON) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return crypt.EncryptJSON(map[string]interface{}(m))
}

func (m *SealedJSON) Scan(src interface{}) error {
	raw, err := textOf(src)
	if err != nil || raw == nil {
		*m = nil
		return err
	}
	out := map[string]interface{}{}
	if len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &out); err != nil {
			return err
		}
		*m = out
		return nil
	}
	if err := crypt.DecryptJSON(string(raw), &out); err != nil {
		return err
	}
	*m = out
	return nil
}

// LineItem is one product line frozen into an order at checkout.
type LineItem struct {
	ProductID    uint    `json:"product_id"`
	ProductName  string  `json:"product_name"`
	ProductImage string  `json:"product_image,omitempty"`
	Quantity     int     `json:"quantity"`
	Price        float64 `json:"price"`
	Total        float64 `json:"total"`
	Size         string  `json:"size,omitempty"`
	Color        string  `json:"color,omitempty"`
	CategoryName string  `json:"category_name"`
}

// LineItems is the orders.items column.
type LineItems []LineItem

func (l LineItems) Value() (driver.Value, error) {
	if l == nil {
		l = LineItems{}
	}
	b, err := json.Marshal([]LineItem(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *LineItems) Scan(src interface{}) error {
	raw, err := textOf(src)
	if err != nil || raw == nil {
		*l = nil
		return err
	}
	return json.Unmarshal(raw, l)
}

func textOf(src interface{}) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case string:
		if v == "" {
			return nil, nil
		}
		return []byte(v), nil
	case []byte:
		if len(v) == 0 {
			return nil, nil
		}
		return v, nil
	default:
		return nil, fmt.Errorf("models: cannot scan %T as JSON text", src)
	}
}
