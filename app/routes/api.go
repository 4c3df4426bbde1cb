// Package routes maps the storefront's URLs onto controllers.
package routes

import (
	"net/http"
	"time"

	"github.com/shashiranjanraj/storefront/app/controllers"
	"github.com/shashiranjanraj/storefront/app/providers"
	"github.com/shashiranjanraj/storefront/app/schema"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/graphql"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/middleware"
	"github.com/shashiranjanraj/storefront/pkg/rbac"
	"github.com/shashiranjanraj/storefront/pkg/router"
)

// RegisterAPI mounts every endpoint on r.
func RegisterAPI(r *router.Router, s *providers.Services) {
	authn := middleware.Auth(s.Auth)
	optional := middleware.OptionalAuth(s.Auth)
	w := ctx.Wrap

	r.Get("/health", "health", w(health))

	// ─── Auth ────────────────────────────────────────────────────────────────
	authC := controllers.NewAuthController(s.Auth)
	a := r.Group("/api/auth", middleware.RateLimit(30, time.Minute))
	a.Post("/register", "auth.register", w(authC.Register), optional, rbac.Guest)
	a.Post("/login", "auth.login", w(authC.Login))
	a.Post("/refresh", "auth.refresh", w(authC.Refresh))
	a.Post("/oidc", "auth.oidc", w(authC.OIDC))

	me := a.Group("", authn)
	me.Post("/logout", "auth.logout", w(authC.Logout))
	me.Get("/me", "auth.me", w(authC.Me))
	me.Put("/me", "auth.me.update", w(authC.UpdateMe))
	me.Get("/users/{id}", "auth.users.show", w(authC.User))
	me.Get("/users", "auth.users", w(authC.Users), rbac.AdminOnly)

	// ─── Catalogue ───────────────────────────────────────────────────────────
	products := controllers.NewProductController(s.Catalog)
	p := r.Group("/api/products")
	p.Get("", "products.index", w(products.Index))
	p.Get("/recent", "products.recent", w(products.Recent))
	p.Get("/images/{filename}", "products.image", w(products.Image))
	p.Get("/{id}", "products.show", w(products.Show))

	pa := p.Group("", authn, rbac.AdminOnly)
	pa.Post("", "products.store", w(products.Store))
	pa.Put("/{id}", "products.update", w(products.Update))
	pa.Delete("/{id}", "products.destroy", w(products.Destroy))
	pa.Post("/{id}/image", "products.upload", w(products.UploadImage))

	categories := controllers.NewCategoryController(s.Catalog)
	r.Get("/api/categories", "categories.index", w(categories.Index))
	r.Post("/api/categories", "categories.store", w(categories.Store), authn, rbac.AdminOnly)

	// ─── Cart ────────────────────────────────────────────────────────────────
	cart := controllers.NewCartController(s.Cart, s.Checkout, s.Payments)
	c := r.Group("/api/cart", authn)
	c.Get("", "cart.show", w(cart.Show))
	c.Post("/add", "cart.add", w(cart.Add))
	c.Put("/update", "cart.update", w(cart.Update))
	c.Delete("/remove/{item_id}", "cart.remove", w(cart.Remove))
	c.Delete("/clear", "cart.clear", w(cart.Clear))
	c.Get("/count", "cart.count", w(cart.Count))
	c.Post("/checkout", "cart.checkout", w(cart.Checkout))
	c.Post("/payment/simulate", "cart.payment.simulate", w(cart.SimulatePayment))

	// ─── Orders ──────────────────────────────────────────────────────────────
	orders := controllers.NewOrderController(s.Orders, s.Checkout, s.Payments, s.Analytics)
	o := r.Group("/api/orders")
	o.Post("", "orders.store", w(orders.Store), optional)
	o.Post("/mpesa/callback", "orders.mpesa.callback", w(orders.MpesaCallback))
	o.Get("/my-orders", "orders.mine", w(orders.MyOrders), authn)
	o.Get("/{id}", "orders.show", w(orders.Show), authn)

	oa := o.Group("", authn, rbac.AdminOnly)
	oa.Get("/admin/all", "orders.admin.all", w(orders.All))
	oa.Patch("/admin/{id}/status", "orders.admin.status", w(orders.UpdateStatus))
	oa.Get("/admin/analytics", "orders.admin.analytics", w(orders.Dashboard))
	oa.Get("/analytics/total", "orders.analytics.total", w(orders.TotalOrders))
	oa.Get("/analytics/revenue", "orders.analytics.revenue", w(orders.Revenue))
	oa.Get("/analytics/categories", "orders.analytics.categories", w(orders.Categories))

	// ─── Admin ───────────────────────────────────────────────────────────────
	admin := controllers.NewAdminController(s.Admin, s.Orders)
	live := controllers.NewLiveController(s.Hub)
	ad := r.Group("/api/admin", authn, rbac.AdminOnly)
	ad.Get("/users", "admin.users", w(admin.Users))
	ad.Get("/users/{id}", "admin.users.show", w(admin.User))
	ad.Put("/users/{id}", "admin.users.update", w(admin.UpdateUser))
	ad.Delete("/users/{id}", "admin.users.destroy", w(admin.DeleteUser))
	ad.Put("/users/{id}/roles", "admin.users.roles", w(admin.AssignRoles))
	ad.Get("/roles", "admin.roles", w(admin.Roles))
	ad.Post("/roles", "admin.roles.store", w(admin.CreateRole))
	ad.Get("/orders", "admin.orders", w(admin.Orders))
	ad.Patch("/orders/{id}/status", "admin.orders.status", w(admin.UpdateOrderStatus))
	ad.Get("/inventory", "admin.inventory", w(admin.Inventory))
	ad.Patch("/inventory/{id}", "admin.inventory.update", w(admin.UpdateStock))
	ad.Get("/analytics/products", "admin.analytics.products", w(admin.ProductAnalytics))
	ad.Get("/analytics/dashboard", "admin.analytics.dashboard", w(admin.Dashboard))
	ad.Get("/live/ws", "admin.live.ws", w(live.Socket))
	ad.Get("/live/events", "admin.live.events", w(live.Events))

	// ─── GraphQL ─────────────────────────────────────────────────────────────
	gqlSchema, err := schema.New(s.Catalog)
	if err != nil {
		logger.Error("graphql schema disabled", "error", err)
		return
	}
	r.Post("/api/graphql", "graphql", graphql.Handler(gqlSchema))
}

func health(c *ctx.Context) {
	db := "ok"
	code := http.StatusOK
	if err := database.Ping(c.Context()); err != nil {
		db = "unavailable"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, map[string]string{"status": "ok", "database": db})
}
