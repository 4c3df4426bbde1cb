package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/config"
)

func TestSealedJSONRoundTrip(t *testing.T) {
	config.Set("APP_KEY", "models-test-key")

	billing := models.SealedJSON{"name": "Muthoni Kariuki", "phone": "0700111222"}
	v, err := billing.Value()
	require.NoError(t, err)
	stored, ok := v.(string)
	require.True(t, ok)
	assert.NotContains(t, stored, "Muthoni")

	var out models.SealedJSON
	require.NoError(t, out.Scan(stored))
	assert.Equal(t, billing, out)
}

func TestSealedJSONReadsPlainRows(t *testing.T) {
	var out models.SealedJSON
	require.NoError(t, out.Scan([]byte(`{"name":"Legacy Buyer"}`)))
	assert.Equal(t, "Legacy Buyer", out["name"])

	require.NoError(t, out.Scan(nil))
	assert.Nil(t, out)
}

func TestLineItemsNeverStoreNull(t *testing.T) {
	v, err := models.LineItems(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	var items models.LineItems
	require.NoError(t, items.Scan(`[{"product_id":3,"quantity":2,"price":150,"total":300}]`))
	require.Len(t, items, 1)
	assert.Equal(t, 300.0, items[0].Total)

	assert.Error(t, items.Scan(42))
}

func TestProductPricingAndLists(t *testing.T) {
	sale, zero := 900.0, 0.0
	p := models.Product{Price: 1200, Sizes: "S, M,,L ", IsActive: true, StockQuantity: 2}
	assert.Equal(t, 1200.0, p.CurrentPrice())
	p.SalePrice = &zero
	assert.Equal(t, 1200.0, p.CurrentPrice())
	p.SalePrice = &sale
	assert.Equal(t, 900.0, p.CurrentPrice())

	assert.Equal(t, []string{"S", "M", "L"}, p.SizeList())
	assert.Equal(t, []string{}, p.ColorList())
	assert.Equal(t, "Red,Blue", models.JoinList([]string{" Red", "", "Blue "}))

	assert.True(t, p.InStock(2))
	assert.False(t, p.InStock(3))
	p.IsActive = false
	assert.False(t, p.InStock(1))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "kitenge-maxi-dress", models.Slugify("  Kitenge Maxi_Dress "))
}

func TestCartTotals(t *testing.T) {
	c := models.Cart{Items: []models.CartItem{
		{Quantity: 2, UnitPrice: 1500},
		{Quantity: 1, UnitPrice: 800},
	}}
	assert.Equal(t, 3800.0, c.Total())
	assert.Equal(t, 3, c.ItemCount())
}

func TestOrderHelpers(t *testing.T) {
	owner := uint(7)
	number := "INV-20261018090000-1"
	o := models.Order{UserID: &owner, InvoiceNumber: &number, Status: models.StatusShipped}

	assert.Equal(t, number, o.Invoice())
	assert.Empty(t, models.Order{}.Invoice())
	assert.True(t, o.OwnedBy(7))
	assert.False(t, o.OwnedBy(8))
	assert.False(t, models.Order{}.OwnedBy(0), "guest orders have no owner")
	assert.True(t, o.Shipped())
	assert.True(t, models.ValidStatus(models.StatusCancelled))
	assert.False(t, models.ValidStatus("lost"))
}

func TestUserRoles(t *testing.T) {
	u := models.User{Roles: []models.Role{{Name: "merchandiser"}}}
	assert.Equal(t, models.RoleCustomer, u.RoleName())
	assert.Equal(t, []string{"merchandiser"}, u.RoleNames())

	u.IsAdmin = true
	assert.Equal(t, models.RoleAdmin, u.RoleName())
}
