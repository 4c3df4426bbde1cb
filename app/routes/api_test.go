package routes_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/providers"
	"github.com/shashiranjanraj/storefront/app/routes"
	"github.com/shashiranjanraj/storefront/app/services"
	_ "github.com/shashiranjanraj/storefront/database/migrations"
	"github.com/shashiranjanraj/storefront/pkg/app"
	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/router"
	"github.com/shashiranjanraj/storefront/pkg/testkit"
)

// seedShop gives every scenario the same shop: an admin (id 1), a
// customer (id 2) with two dresses in the cart, and one inactive product.
func seedShop(t *testing.T, db *gorm.DB, svcs *providers.Services) {
	t.Helper()
	hash, err := auth.HashPassword("secret123")
	require.NoError(t, err)

	admin := models.User{Email: "admin@shop.com", Name: "Shop Admin", Password: hash, IsActive: true, IsAdmin: true}
	require.NoError(t, db.Create(&admin).Error)
	shopper := models.User{Email: "shopper@example.com", Name: "Achieng Were", Password: hash, IsActive: true}
	require.NoError(t, db.Create(&shopper).Error)

	dresses := models.Category{Name: "Dresses", Slug: "dresses", IsActive: true}
	require.NoError(t, db.Create(&dresses).Error)
	midi := models.Product{Name: "Linen Midi Dress", Slug: "linen-midi-dress", Price: 3200, CategoryID: dresses.ID, StockQuantity: 5, IsActive: true}
	require.NoError(t, db.Create(&midi).Error)
	retired := models.Product{Name: "Velvet Maxi Dress", Slug: "velvet-maxi-dress", Price: 5400, CategoryID: dresses.ID, StockQuantity: 1}
	require.NoError(t, db.Create(&retired).Error)
	require.NoError(t, db.Model(&retired).Update("is_active", false).Error)

	_, err = svcs.Cart.Add(t.Context(), shopper.ID, services.AddToCartInput{ProductID: midi.ID, Quantity: 2})
	require.NoError(t, err)
}

func TestAPIScenarios(t *testing.T) {
	svcs := providers.New()
	t.Cleanup(svcs.Shutdown)
	handler := app.New().
		Routes(func(r *router.Router) { routes.RegisterAPI(r, svcs) }).
		Handler()

	adminToken, err := auth.GenerateToken(1, models.RoleAdmin)
	require.NoError(t, err)
	customerToken, err := auth.GenerateToken(2, models.RoleCustomer)
	require.NoError(t, err)

	testkit.RunDir(t, handler, "testdata",
		testkit.WithTokens(map[string]string{"admin": adminToken, "customer": customerToken}),
		testkit.BeforeEach(func(t *testing.T, _ *testkit.Scenario) {
			seedShop(t, testkit.UseSQLite(t), svcs)
		}),
	)
}

func TestRouteTableNamesAreUnique(t *testing.T) {
	svcs := providers.New()
	t.Cleanup(svcs.Shutdown)
	table := app.New().
		Routes(func(r *router.Router) { routes.RegisterAPI(r, svcs) }).
		RouteTable()

	seen := map[string]bool{}
	for _, rt := range table {
		if rt.Name == "" {
			continue
		}
		require.False(t, seen[rt.Name], "duplicate route name %q", rt.Name)
		seen[rt.Name] = true
	}
	require.True(t, seen["cart.checkout"])
	require.True(t, seen["orders.mpesa.callback"])
}
