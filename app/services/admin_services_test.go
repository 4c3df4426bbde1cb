package services_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/app/services"
)

func TestAdminUsers(t *testing.T) {
	db := newDB(t)
	admin := customer(t, db, "admin@shop.com")
	shopper := customer(t, db, "shopper@example.com")
	svc := services.NewAdminService(nil, nil)

	users, page, err := svc.Users(bg, "SHOPPER@", 1, 20)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, shopper.ID, users[0].ID)
	assert.EqualValues(t, 1, page.Total)

	off, yes := false, true
	updated, err := svc.UpdateUser(bg, shopper.ID, services.UserUpdate{IsActive: &off, IsAdmin: &yes})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.True(t, updated.IsAdmin)
	assert.Equal(t, models.RoleAdmin, updated.RoleName())

	err = svc.DeleteUser(bg, admin.ID, admin.ID)
	assert.Equal(t, "Cannot delete your own account", serviceError(t, err).Message)

	require.NoError(t, svc.DeleteUser(bg, admin.ID, shopper.ID))
	_, err = svc.User(bg, shopper.ID)
	assert.Equal(t, http.StatusNotFound, serviceError(t, err).Status)
}

func TestAdminRoles(t *testing.T) {
	db := newDB(t)
	u := customer(t, db, "roles@example.com")
	svc := services.NewAdminService(nil, nil)

	_, err := svc.CreateRole(bg, services.RoleInput{Name: "merchandiser", Description: "Curates the catalogue"})
	require.NoError(t, err)
	_, err = svc.CreateRole(bg, services.RoleInput{Name: "merchandiser"})
	assert.Equal(t, "Role already exists", serviceError(t, err).Message)

	_, err = svc.AssignRoles(bg, u.ID, []string{"merchandiser", "wizard"})
	assert.Equal(t, "Unknown roles: wizard", serviceError(t, err).Message)

	updated, err := svc.AssignRoles(bg, u.ID, []string{"merchandiser", " merchandiser "})
	require.NoError(t, err)
	assert.Equal(t, []string{"merchandiser"}, updated.RoleNames())

	roles, err := svc.Roles(bg)
	require.NoError(t, err)
	names := []string{}
	for _, r := range roles {
		names = append(names, r.Name)
	}
	assert.Contains(t, names, "merchandiser")
}

func TestAdminInventory(t *testing.T) {
	db := newDB(t)
	cat := category(t, db, "Denim")
	product(t, db, cat, "Skinny Jeans", 3500, 0)
	low := product(t, db, cat, "Mom Jeans", 3800, 3)
	product(t, db, cat, "Denim Shorts", 2200, 40)
	svc := services.NewAdminService(services.NewCatalogService(), nil)

	all, page, err := svc.Inventory(bg, "", 1, 50)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.EqualValues(t, 3, page.Total)
	assert.Zero(t, all[0].StockQuantity, "lowest stock first")

	out, _, err := svc.Inventory(bg, repositories.StockOut, 1, 50)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Skinny Jeans", out[0].Name)

	lows, _, err := svc.Inventory(bg, repositories.StockLow, 1, 50)
	require.NoError(t, err)
	require.Len(t, lows, 1)
	assert.Equal(t, low.ID, lows[0].ID)

	_, _, err = svc.Inventory(bg, "plenty", 1, 50)
	assert.Equal(t, "Invalid stock filter", serviceError(t, err).Message)

	qty := 25
	p, err := svc.SetStock(bg, low.ID, services.StockInput{StockQuantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, 25, p.StockQuantity)
	assert.Equal(t, 25, stockOf(t, db, low.ID))

	_, err = svc.SetStock(bg, low.ID, services.StockInput{})
	assert.Equal(t, "stock_quantity is required", serviceError(t, err).Message)
}

func TestAdminProductAnalyticsAndDashboard(t *testing.T) {
	db := newDB(t)
	tops := category(t, db, "Tops")
	blouse := product(t, db, tops, "Silk Blouse", 4200, 2)
	product(t, db, tops, "Crop Top", 1100, 0)
	product(t, db, category(t, db, "Shoes"), "Loafers", 5600, 30)
	require.NoError(t, db.Model(&blouse).Updates(map[string]interface{}{"view_count": 42, "is_featured": true}).Error)
	customer(t, db, "buyer@example.com")
	recordOrder(t, db, nil, models.StatusPending, line(blouse, "Tops", 1))
	recordOrder(t, db, nil, models.StatusCancelled, line(blouse, "Tops", 1))
	svc := services.NewAdminService(nil, nil)

	pa, err := svc.ProductAnalytics(bg)
	require.NoError(t, err)
	assert.EqualValues(t, 3, pa.TotalProducts)
	assert.EqualValues(t, 3, pa.ActiveProducts)
	assert.EqualValues(t, 1, pa.LowStock)
	assert.EqualValues(t, 1, pa.OutOfStock)
	assert.EqualValues(t, 1, pa.FeaturedCount)
	require.NotEmpty(t, pa.MostViewed)
	assert.Equal(t, blouse.ID, pa.MostViewed[0].ID)
	assert.Equal(t, []services.CategoryCount{{Category: "Shoes", Count: 1}, {Category: "Tops", Count: 2}}, pa.ByCategory)

	dash, err := svc.Dashboard(bg)
	require.NoError(t, err)
	assert.EqualValues(t, 1, dash.Overview.TotalUsers)
	assert.EqualValues(t, 2, dash.Overview.TotalOrders)
	assert.EqualValues(t, 1, dash.Overview.PendingOrders)
	assert.Equal(t, 4200.0, dash.Overview.TotalRevenue)
	assert.Len(t, dash.RecentOrders, 2)
}
