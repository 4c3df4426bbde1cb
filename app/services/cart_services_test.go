package services_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/services"
)

func TestCartAddTopsUpMatchingLine(t *testing.T) {
	db := newDB(t)
	dress := product(t, db, category(t, db, "Dresses"), "Kitenge Maxi Dress", 2500, 5)
	user := customer(t, db, "wanjiru@example.com")
	carts := services.NewCartService()

	_, err := carts.Add(bg, user.ID, services.AddToCartInput{ProductID: dress.ID, Quantity: 2, Size: "M"})
	require.NoError(t, err)
	cart, err := carts.Add(bg, user.ID, services.AddToCartInput{ProductID: dress.ID, Quantity: 1, Size: "M"})
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, 7500.0, cart.Total())

	cart, err = carts.Add(bg, user.ID, services.AddToCartInput{ProductID: dress.ID, Size: "L"})
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2, "a different size is a separate line")

	n, err := carts.Count(bg, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestCartAddRejectsMoreThanStock(t *testing.T) {
	db := newDB(t)
	shirt := product(t, db, category(t, db, "Shirts"), "Linen Shirt", 1800, 2)
	user := customer(t, db, "otieno@example.com")
	carts := services.NewCartService()

	_, err := carts.Add(bg, user.ID, services.AddToCartInput{ProductID: shirt.ID, Quantity: 3})
	e := serviceError(t, err)
	assert.Equal(t, http.StatusBadRequest, e.Status)
	assert.Equal(t, "Only 2 items available", e.Message)

	_, err = carts.Add(bg, user.ID, services.AddToCartInput{ProductID: shirt.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = carts.Add(bg, user.ID, services.AddToCartInput{ProductID: shirt.ID, Quantity: 1})
	e = serviceError(t, err)
	assert.Equal(t, "Cannot add more. Max available: 2", e.Message)
}

func TestCartAddUnknownOrInactiveProduct(t *testing.T) {
	db := newDB(t)
	scarf := product(t, db, category(t, db, "Accessories"), "Silk Scarf", 900, 10)
	require.NoError(t, db.Model(&scarf).Update("is_active", false).Error)
	user := customer(t, db, "akinyi@example.com")
	carts := services.NewCartService()

	_, err := carts.Add(bg, user.ID, services.AddToCartInput{ProductID: 999})
	assert.Equal(t, http.StatusNotFound, serviceError(t, err).Status)

	_, err = carts.Add(bg, user.ID, services.AddToCartInput{ProductID: scarf.ID})
	assert.Equal(t, "Product not available", serviceError(t, err).Message)
}

func TestCartUpdateRemoveAndClear(t *testing.T) {
	db := newDB(t)
	cat := category(t, db, "Shoes")
	boots := product(t, db, cat, "Leather Boots", 6000, 4)
	sandals := product(t, db, cat, "Beaded Sandals", 1200, 10)
	user := customer(t, db, "njeri@example.com")
	carts := services.NewCartService()

	_, err := carts.Add(bg, user.ID, services.AddToCartInput{ProductID: boots.ID})
	require.NoError(t, err)
	cart, err := carts.Add(bg, user.ID, services.AddToCartInput{ProductID: sandals.ID})
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	bootsLine, sandalsLine := cart.Items[0], cart.Items[1]

	_, err = carts.Update(bg, user.ID, services.UpdateCartInput{ItemID: bootsLine.ID, Quantity: units(5)})
	assert.Equal(t, "Only 4 items available", serviceError(t, err).Message)

	cart, err = carts.Update(bg, user.ID, services.UpdateCartInput{ItemID: bootsLine.ID, Quantity: units(3)})
	require.NoError(t, err)
	assert.Equal(t, 3, cart.Items[0].Quantity)

	cart, err = carts.Update(bg, user.ID, services.UpdateCartInput{ItemID: bootsLine.ID, Quantity: units(0)})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, sandals.ID, cart.Items[0].ProductID)

	other := customer(t, db, "someone@example.com")
	_, err = carts.Remove(bg, other.ID, sandalsLine.ID)
	assert.Equal(t, http.StatusNotFound, serviceError(t, err).Status, "items of another cart are invisible")

	cart, err = carts.Clear(bg, user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	n, err := carts.Count(bg, user.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func units(n int) *int { return &n }

func TestCartUpdateNeedsItemAndQuantity(t *testing.T) {
	db := newDB(t)
	tote := product(t, db, category(t, db, "Bags"), "Canvas Tote", 1500, 6)
	user := customer(t, db, "amina@example.com")
	carts := services.NewCartService()
	cart, err := carts.Add(bg, user.ID, services.AddToCartInput{ProductID: tote.ID, Quantity: 2})
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	for _, in := range []services.UpdateCartInput{
		{ItemID: itemID},
		{Quantity: units(1)},
	} {
		_, err = carts.Update(bg, user.ID, in)
		e := serviceError(t, err)
		assert.Equal(t, http.StatusBadRequest, e.Status)
		assert.Equal(t, "item_id and quantity required", e.Message)
	}

	n, err := carts.Count(bg, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "a bad update leaves the line alone")
}

func TestCartUpdateRefreshesUnitPrice(t *testing.T) {
	db := newDB(t)
	tote := product(t, db, category(t, db, "Bags"), "Canvas Tote", 1500, 6)
	user := customer(t, db, "wanjiru@example.com")
	carts := services.NewCartService()
	cart, err := carts.Add(bg, user.ID, services.AddToCartInput{ProductID: tote.ID})
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", tote.ID).Update("price", 1800).Error)

	cart, err = carts.Update(bg, user.ID, services.UpdateCartInput{ItemID: cart.Items[0].ID, Quantity: units(2)})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 1800.0, cart.Items[0].UnitPrice)
	assert.Equal(t, 3600.0, cart.Total())
}
