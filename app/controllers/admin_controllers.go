package controllers

import (
	"github.com/shashiranjanraj/storefront/app/resources"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
	"github.com/shashiranjanraj/storefront/pkg/resource"
)

type AdminController struct {
	admin  *services.AdminService
	orders *services.OrderService
}

func NewAdminController(admin *services.AdminService, orders *services.OrderService) *AdminController {
	return &AdminController{admin: admin, orders: orders}
}

func (a *AdminController) Users(c *ctx.Context) {
	page, perPage := c.Page(20)
	users, p, err := a.admin.Users(c.Context(), c.Query("search"), page, perPage)
	if err != nil {
		fail(c, err)
		return
	}
	c.Paginated("users", resource.Many(resources.User, users), p)
}

func (a *AdminController) User(c *ctx.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	u, err := a.admin.User(c.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(resources.User(u))
}

func (a *AdminController) UpdateUser(c *ctx.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in services.UserUpdate
	if !c.BindJSON(&in) {
		return
	}
	u, err := a.admin.UpdateUser(c.Context(), id, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Message("User updated", resources.User(u))
}

func (a *AdminController) DeleteUser(c *ctx.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := a.admin.DeleteUser(c.Context(), c.UserID(), id); err != nil {
		fail(c, err)
		return
	}
	c.Message("User deleted", nil)
}

func (a *AdminController) Roles(c *ctx.Context) {
	roles, err := a.admin.Roles(c.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(resource.Many(resources.Role, roles))
}

func (a *AdminController) CreateRole(c *ctx.Context) {
	var in services.RoleInput
	if !c.BindJSON(&in) {
		return
	}
	role, err := a.admin.CreateRole(c.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.CreatedWithMessage("Role created", resources.Role(role))
}

func (a *AdminController) AssignRoles(c *ctx.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in services.AssignRolesInput
	if !c.BindJSON(&in) {
		return
	}
	u, err := a.admin.AssignRoles(c.Context(), id, in.Roles)
	if err != nil {
		fail(c, err)
		return
	}
	c.Message("Roles updated", resources.User(u))
}

func (a *AdminController) Orders(c *ctx.Context) {
	page, perPage := c.Page(20)
	orders, p, err := a.orders.Paginate(c.Context(), orderQuery(c), page, perPage)
	if err != nil {
		fail(c, err)
		return
	}
	c.Paginated("orders", resource.Many(resources.Order, orders), p)
}

func (a *AdminController) UpdateOrderStatus(c *ctx.Context) {
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
	order, err := a.orders.UpdateStatus(c.Context(), id, in.Status)
	if err != nil {
		fail(c, err)
		return
	}
	c.Message("Order status updated", resources.Order(order))
}

// Inventory lists products by ascending stock. stock=out|low|normal
// narrows the list.
func (a *AdminController) Inventory(c *ctx.Context) {
	page, perPage := c.Page(50)
	products, p, err := a.admin.Inventory(c.Context(), c.Query("stock"), page, perPage)
	if err != nil {
		fail(c, err)
		return
	}
	c.Paginated("products", resource.Many(resources.Product, products), p)
}

func (a *AdminController) UpdateStock(c *ctx.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in services.StockInput
	if !c.BindJSON(&in) {
		return
	}
	p, err := a.admin.SetStock(c.Context(), id, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Message("Stock updated", resources.Product(p))
}

func (a *AdminController) ProductAnalytics(c *ctx.Context) {
	out, err := a.admin.ProductAnalytics(c.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(resource.Map{
		"totalProducts":  out.TotalProducts,
		"activeProducts": out.ActiveProducts,
		"lowStock":       out.LowStock,
		"outOfStock":     out.OutOfStock,
		"featuredCount":  out.FeaturedCount,
		"mostViewed":     resource.Many(resources.Product, out.MostViewed),
		"byCategory":     out.ByCategory,
	})
}

func (a *AdminController) Dashboard(c *ctx.Context) {
	out, err := a.admin.Dashboard(c.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(resource.Map{
		"overview":     out.Overview,
		"orderStatus":  out.OrderStatus,
		"recentOrders": resource.Many(resources.OrderEvent, out.RecentOrders),
	})
}
