// Package resources shapes models into the storefront's JSON.
package resources

import (
	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/collection"
	"github.com/shashiranjanraj/storefront/pkg/resource"
)

var User resource.Transformer[models.User] = func(u models.User) resource.Map {
	return resource.Map{
		"id":         u.ID,
		"email":      u.Email,
		"name":       u.Name,
		"phone":      u.Phone,
		"is_active":  u.IsActive,
		"is_admin":   u.IsAdmin,
		"role":       u.RoleName(),
		"roles":      u.RoleNames(),
		"last_login": u.LastLogin,
		"created_at": u.CreatedAt,
	}
}

var Role resource.Transformer[models.Role] = func(r models.Role) resource.Map {
	return resource.Map{
		"id":          r.ID,
		"name":        r.Name,
		"description": r.Description,
		"created_at":  r.CreatedAt,
	}
}

var Category resource.Transformer[models.Category] = func(c models.Category) resource.Map {
	return resource.Map{
		"id":          c.ID,
		"name":        c.Name,
		"slug":        c.Slug,
		"description": c.Description,
		"image_url":   c.ImageURL,
		"parent_id":   c.ParentID,
		"is_active":   c.IsActive,
		"created_at":  c.CreatedAt,
	}
}

// CategoryTree renders a category with its product count and children.
var CategoryTree resource.Transformer[services.CategoryNode]

func init() {
	CategoryTree = func(n services.CategoryNode) resource.Map {
		return resource.Merge(Category(n.Category), resource.Map{
			"product_count": n.ProductCount,
			"subcategories": resource.Many(CategoryTree, n.Subcategories),
		})
	}
}

var Product resource.Transformer[models.Product] = func(p models.Product) resource.Map {
	out := resource.Map{
		"id":             p.ID,
		"name":           p.Name,
		"slug":           p.Slug,
		"description":    p.Description,
		"price":          p.Price,
		"sale_price":     p.SalePrice,
		"current_price":  p.CurrentPrice(),
		"sku":            p.SKU,
		"category_id":    p.CategoryID,
		"category":       nil,
		"stock_quantity": p.StockQuantity,
		"in_stock":       p.StockQuantity > 0,
		"image_url":      p.ImageURL,
		"images":         p.ImageList(),
		"sizes":          p.SizeList(),
		"colors":         p.ColorList(),
		"material":       p.Material,
		"is_active":      p.IsActive,
		"is_featured":    p.IsFeatured,
		"view_count":     p.ViewCount,
		"created_at":     p.CreatedAt,
		"updated_at":     p.UpdatedAt,
	}
	if p.Category != nil {
		out["category"] = p.Category.Name
	}
	return out
}

var CartItem resource.Transformer[models.CartItem] = func(i models.CartItem) resource.Map {
	return resource.Map{
		"id":            i.ID,
		"product_id":    i.ProductID,
		"product_name":  i.ProductName,
		"product_image": i.ProductImage,
		"quantity":      i.Quantity,
		"unit_price":    i.UnitPrice,
		"total":         i.Total(),
		"size":          i.Size,
		"color":         i.Color,
	}
}

var Cart resource.Transformer[models.Cart] = func(c models.Cart) resource.Map {
	return resource.Map{
		"id":         c.ID,
		"user_id":    c.UserID,
		"items":      resource.Many(CartItem, c.Items),
		"total":      c.Total(),
		"item_count": c.ItemCount(),
	}
}

var OrderItem resource.Transformer[models.OrderItem] = func(i models.OrderItem) resource.Map {
	return resource.Map{
		"id":            i.ID,
		"product_id":    i.ProductID,
		"product_name":  i.ProductName,
		"product_image": i.ProductImage,
		"quantity":      i.Quantity,
		"unit_price":    i.UnitPrice,
		"total_price":   i.TotalPrice,
		"size":          i.Size,
		"color":         i.Color,
		"category_name": i.CategoryName,
	}
}

var Order resource.Transformer[models.Order] = func(o models.Order) resource.Map {
	items := o.Items
	if items == nil {
		items = models.LineItems{}
	}
	return resource.Map{
		"id":               o.ID,
		"user_id":          o.UserID,
		"invoice_number":   o.InvoiceNumber,
		"status":           o.Status,
		"payment_status":   o.PaymentStatus,
		"payment_method":   o.PaymentMethod,
		"subtotal":         o.Subtotal,
		"shipping_fee":     o.ShippingFee,
		"total_amount":     o.TotalAmount,
		"items":            items,
		"item_count":       collection.Sum(items, func(l models.LineItem) int { return l.Quantity }),
		"order_items":      resource.Many(OrderItem, o.OrderItems),
		"shipping_address": o.ShippingAddress,
		"billing_info":     o.BillingInfo,
		"phone_number":     o.PhoneNumber,
		"notes":            o.Notes,
		"created_at":       o.CreatedAt,
		"updated_at":       o.UpdatedAt,
	}
}

// OrderEvent is the compact order shape sent to the live feed and the
// broker. It carries no addresses or billing details.
var OrderEvent resource.Transformer[models.Order] = func(o models.Order) resource.Map {
	return resource.Map{
		"id":             o.ID,
		"user_id":        o.UserID,
		"invoice_number": o.Invoice(),
		"status":         o.Status,
		"payment_status": o.PaymentStatus,
		"payment_method": o.PaymentMethod,
		"total_amount":   o.TotalAmount,
		"item_count":     collection.Sum(o.Items, func(l models.LineItem) int { return l.Quantity }),
		"created_at":     o.CreatedAt,
	}
}

var Invoice resource.Transformer[models.Invoice] = func(i models.Invoice) resource.Map {
	return resource.Map{
		"id":             i.ID,
		"invoice_number": i.InvoiceNumber,
		"order_id":       i.OrderID,
		"user_id":        i.UserID,
		"subtotal":       i.Subtotal,
		"tax":            i.Tax,
		"shipping_fee":   i.ShippingFee,
		"total":          i.Total,
		"pdf_url":        i.PDFURL,
		"date":           i.CreatedAt.Format("2006-01-02"),
		"created_at":     i.CreatedAt,
	}
}

var Payment resource.Transformer[models.Payment] = func(p models.Payment) resource.Map {
	return resource.Map{
		"id":                  p.ID,
		"order_id":            p.OrderID,
		"provider":            p.Provider,
		"checkout_request_id": p.CheckoutRequestID,
		"transaction_id":      p.TransactionID,
		"amount":              p.Amount,
		"status":              p.Status,
		"result_desc":         p.ResultDesc,
		"created_at":          p.CreatedAt,
	}
}
