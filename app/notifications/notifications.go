// Package notifications holds the storefront's customer and staff
// messages.
package notifications

import (
	"fmt"
	"html/template"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/notification"
)

var orderConfirmedTmpl = template.Must(template.New("order_confirmed").Parse(`
<h2>Thank you for your order, {{.Name}}!</h2>
<p>Invoice <strong>{{.Invoice}}</strong></p>
<table>
{{range .Items}}<tr><td>{{.ProductName}}{{if .Size}} ({{.Size}}){{end}}</td><td>x{{.Quantity}}</td><td>KES {{printf "%.2f" .Total}}</td></tr>
{{end}}</table>
<p>Shipping: KES {{printf "%.2f" .Shipping}}<br>
<strong>Total: KES {{printf "%.2f" .Total}}</strong></p>
<p>{{.Shop}}</p>
`))

// OrderConfirmed goes to the customer once an order is placed.
type OrderConfirmed struct {
	Order models.Order
	Name  string
}

func (n OrderConfirmed) Via() []string { return []string{notification.Mail, notification.SMS} }

func (n OrderConfirmed) ToMail() notification.MailData {
	return notification.MailData{
		Subject:  fmt.Sprintf("Order %s confirmed", n.Order.Invoice()),
		Template: orderConfirmedTmpl,
		Data: map[string]interface{}{
			"Name":     n.Name,
			"Invoice":  n.Order.Invoice(),
			"Items":    n.Order.Items,
			"Shipping": n.Order.ShippingFee,
			"Total":    n.Order.TotalAmount,
			"Shop":     config.AppName(),
		},
	}
}

func (n OrderConfirmed) ToSMS() string {
	return fmt.Sprintf("%s: order %s received. Total KES %.2f. Thank you!",
		config.AppName(), n.Order.Invoice(), n.Order.TotalAmount)
}

// PaymentReceived confirms a settled payment by SMS.
type PaymentReceived struct {
	Order         models.Order
	TransactionID string
}

func (n PaymentReceived) Via() []string { return []string{notification.SMS} }

func (n PaymentReceived) ToSMS() string {
	msg := fmt.Sprintf("%s: payment of KES %.2f for %s received.", config.AppName(), n.Order.TotalAmount, n.Order.Invoice())
	if n.TransactionID != "" {
		msg += " Ref " + n.TransactionID + "."
	}
	return msg
}

// StatusChanged tells the customer their order moved.
type StatusChanged struct {
	Order models.Order
}

func (n StatusChanged) Via() []string { return []string{notification.SMS} }

func (n StatusChanged) ToSMS() string {
	return fmt.Sprintf("%s: order %s is now %s.", config.AppName(), n.Order.Invoice(), n.Order.Status)
}

var lowStockTmpl = template.Must(template.New("low_stock").Parse(`
<h2>Low stock</h2>
<p>{{len .Products}} product(s) are at or below {{.Threshold}} units.</p>
<ul>
{{range .Products}}<li>#{{.ID}} {{.Name}}{{if .SKU}} [{{.SKU}}]{{end}}: {{.StockQuantity}} left</li>
{{end}}</ul>
`))

// LowStock goes to the shop admins.
type LowStock struct {
	Products  []models.Product
	Threshold int
}

func (n LowStock) Via() []string { return []string{notification.Mail} }

func (n LowStock) ToMail() notification.MailData {
	return notification.MailData{
		Subject:  fmt.Sprintf("[%s] %d products low on stock", config.AppName(), len(n.Products)),
		Template: lowStockTmpl,
		Data:     n,
	}
}
