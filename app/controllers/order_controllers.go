package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/shashiranjanraj/storefront/app/resources"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
	"github.com/shashiranjanraj/storefront/pkg/resource"
)

type OrderController struct {
	orders    *services.OrderService
	checkout  *services.CheckoutService
	payments  *services.PaymentService
	analytics *services.AnalyticsService
}

func NewOrderController(orders *services.OrderService, checkout *services.CheckoutService, payments *services.PaymentService, analytics *services.AnalyticsService) *OrderController {
	return &OrderController{orders: orders, checkout: checkout, payments: payments, analytics: analytics}
}

func (o *OrderController) MyOrders(c *ctx.Context) {
	orders, err := o.orders.MyOrders(c.Context(), c.UserID())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(resource.Many(resources.Order, orders))
}

func (o *OrderController) Show(c *ctx.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	order, err := o.orders.Get(c.Context(), c.UserID(), c.IsAdmin(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(resources.Order(order))
}

// Store places a direct order. Guests may order; the answer is a flat
// object rather than the usual envelope, as existing clients expect.
func (o *OrderController) Store(c *ctx.Context) {
	var in services.DirectOrderInput
	if !c.BindJSON(&in) {
		return
	}
	var userID *uint
	if id := c.UserID(); id != 0 {
		userID = &id
	}

	placed, err := o.checkout.PlaceDirectOrder(c.Context(), userID, in)
	if err != nil {
		fail(c, err)
		return
	}

	order := placed.Order
	out := resource.Map{
		"order_id":       order.ID,
		"invoice_number": order.Invoice(),
		"total":          order.TotalAmount,
		"status":         order.Status,
	}
	switch {
	case order.PaymentMethod == services.MethodMpesa && placed.PaymentError != "":
		out["message"] = "Order created but M-Pesa payment failed"
		out["error"] = placed.PaymentError
	case order.PaymentMethod == services.MethodMpesa:
		out["message"] = "M-Pesa payment initiated. Check your phone."
		out["mpesa_response"] = placed.Mpesa
	default:
		out["message"] = "Order placed successfully"
		out["invoice"] = resource.Merge(resources.Invoice(placed.Invoice), resource.Map{
			"billing_info":     order.BillingInfo,
			"shipping_address": order.ShippingAddress,
			"items":            order.Items,
		})
	}
	c.JSON(http.StatusCreated, out)
}

// MpesaCallback acknowledges every delivery so Safaricom stops retrying;
// problems are logged.
func (o *OrderController) MpesaCallback(c *ctx.Context) {
	var cb services.MpesaCallback
	if err := json.NewDecoder(c.R.Body).Decode(&cb); err != nil {
		c.Log().Warn("mpesa callback: undecodable body", "error", err)
	} else if err := o.payments.HandleCallback(c.Context(), cb); err != nil {
		c.Log().Error("mpesa callback failed", "checkout_request_id", cb.Body.STKCallback.CheckoutRequestID, "error", err)
	}
	c.JSON(http.StatusOK, map[string]interface{}{"ResultCode": 0, "ResultDesc": "Accepted"})
}

func orderQuery(c *ctx.Context) services.OrderQuery {
	return services.OrderQuery{
		Status:    c.Query("status"),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	}
}

// All lists every order, filtered by status and date range.
func (o *OrderController) All(c *ctx.Context) {
	orders, err := o.orders.All(c.Context(), orderQuery(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(resource.Many(resources.Order, orders))
}

func (o *OrderController) UpdateStatus(c *ctx.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in struct {
		Status string `json:"status" validate:"required"`
	}
	if !c.BindJSON(&in) {
		return
	}
	order, err := o.orders.UpdateStatus(c.Context(), id, in.Status)
	if err != nil {
		fail(c, err)
		return
	}
	c.Message("Order status updated", resources.Order(order))
}

func days(c *ctx.Context) int {
	return c.QueryInt("days", services.DefaultAnalyticsDays)
}

func (o *OrderController) TotalOrders(c *ctx.Context) {
	trend, total, err := o.analytics.OrdersTrend(c.Context(), days(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(resource.Map{"ordersTrend": trend, "totalOrders": total})
}

func (o *OrderController) Revenue(c *ctx.Context) {
	trend, sum, err := o.analytics.RevenueTrend(c.Context(), days(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(resource.Map{
		"revenueTrend":  trend,
		"totalRevenue":  sum.TotalRevenue,
		"avgOrderValue": sum.AvgOrderValue,
	})
}

func (o *OrderController) Categories(c *ctx.Context) {
	stats, err := o.analytics.CategoryStatistics(c.Context(), days(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(resource.Map{"categoryStatistics": stats})
}

// Dashboard is the full analytics report.
func (o *OrderController) Dashboard(c *ctx.Context) {
	report, err := o.analytics.Report(c.Context(), days(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(report)
}
