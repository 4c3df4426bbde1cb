package controllers

import (
	"github.com/shashiranjanraj/storefront/app/resources"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
	"github.com/shashiranjanraj/storefront/pkg/resource"
)

type CartController struct {
	carts    *services.CartService
	checkout *services.CheckoutService
	payments *services.PaymentService
}

func NewCartController(carts *services.CartService, checkout *services.CheckoutService, payments *services.PaymentService) *CartController {
	return &CartController{carts: carts, checkout: checkout, payments: payments}
}

func (cc *CartController) Show(c *ctx.Context) {
	cart, err := cc.carts.Cart(c.Context(), c.UserID())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(resources.Cart(cart))
}

func (cc *CartController) Add(c *ctx.Context) {
	var in services.AddToCartInput
	if !c.BindJSON(&in) {
		return
	}
	cart, err := cc.carts.Add(c.Context(), c.UserID(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Message("Item added to cart", resources.Cart(cart))
}

func (cc *CartController) Update(c *ctx.Context) {
	var in services.UpdateCartInput
	if !c.BindJSON(&in) {
		return
	}
	cart, err := cc.carts.Update(c.Context(), c.UserID(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Message("Cart updated", resources.Cart(cart))
}

func (cc *CartController) Remove(c *ctx.Context) {
	itemID, ok := idParam(c, "item_id")
	if !ok {
		return
	}
	cart, err := cc.carts.Remove(c.Context(), c.UserID(), itemID)
	if err != nil {
		fail(c, err)
		return
	}
	c.Message("Item removed from cart", resources.Cart(cart))
}

func (cc *CartController) Clear(c *ctx.Context) {
	cart, err := cc.carts.Clear(c.Context(), c.UserID())
	if err != nil {
		fail(c, err)
		return
	}
	c.Message("Cart cleared", resources.Cart(cart))
}

func (cc *CartController) Count(c *ctx.Context) {
	n, err := cc.carts.Count(c.Context(), c.UserID())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(resource.Map{"count": n})
}

// Checkout turns the cart into an order. A failed M-Pesa push still
// answers 201; the order exists and payment_error says what went wrong.
func (cc *CartController) Checkout(c *ctx.Context) {
	var in services.CheckoutInput
	if !c.BindJSON(&in) {
		return
	}
	placed, err := cc.checkout.Checkout(c.Context(), c.UserID(), in)
	if err != nil {
		fail(c, err)
		return
	}

	out := resource.Map{
		"order":   resources.Order(placed.Order),
		"invoice": resources.Invoice(placed.Invoice),
	}
	if placed.Mpesa != nil {
		out["mpesa_response"] = placed.Mpesa
	}
	if placed.PaymentError != "" {
		out["payment_error"] = placed.PaymentError
	}
	c.CreatedWithMessage("Order placed successfully", out)
}

// SimulatePayment marks one of the caller's orders as paid without a
// payment provider.
func (cc *CartController) SimulatePayment(c *ctx.Context) {
	var in struct {
		OrderID uint `json:"order_id" validate:"required"`
	}
	if !c.BindJSON(&in) {
		return
	}
	order, txn, err := cc.payments.Simulate(c.Context(), c.UserID(), in.OrderID)
	if err != nil {
		fail(c, err)
		return
	}
	c.Message("Payment processed successfully", resource.Map{
		"order":          resources.Order(order),
		"transaction_id": txn,
	})
}
