//go:build integration

package services_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/testkit"
)

func TestConcurrentCheckoutSellsLastUnitOnce(t *testing.T) {
	db := testkit.UsePostgres(t)
	last := product(t, db, category(t, db, "Limited"), "Beaded Collar", 7500, 1)

	const buyers = 5
	carts := services.NewCartService()
	users := make([]models.User, buyers)
	for i := range users {
		users[i] = customer(t, db, fmt.Sprintf("buyer%d@example.com", i))
		_, err := carts.Add(bg, users[i].ID, services.AddToCartInput{ProductID: last.ID})
		require.NoError(t, err)
	}

	checkout := services.NewCheckoutService(nil)
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		placed  int
		refused []string
	)
	for _, u := range users {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			_, err := checkout.Checkout(bg, id, services.CheckoutInput{ShippingAddress: shipping()})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				placed++
				return
			}
			if e, ok := services.AsError(err); ok {
				refused = append(refused, e.Message)
			}
		}(u.ID)
	}
	wg.Wait()

	assert.Equal(t, 1, placed)
	assert.Len(t, refused, buyers-1)
	for _, msg := range refused {
		assert.Equal(t, "Insufficient stock for Beaded Collar", msg)
	}
	assert.Zero(t, stockOf(t, db, last.ID))

	var orders int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orders).Error)
	assert.EqualValues(t, 1, orders, "refused checkouts leave no order behind")
}

func TestConcurrentCancelRestocksOnce(t *testing.T) {
	db := testkit.UsePostgres(t)
	boots := product(t, db, category(t, db, "Shoes"), "Chelsea Boots", 9900, 2)
	o := recordOrder(t, db, nil, models.StatusPending, line(boots, "Shoes", 3))

	orders := services.NewOrderService()
	const admins = 4
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)
	for i := 0; i < admins; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := orders.UpdateStatus(bg, o.ID, models.StatusCancelled)
			if err == nil {
				mu.Lock()
				done++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, done, 1)
	assert.Equal(t, 5, stockOf(t, db, boots.ID))
}

func TestAnalyticsOnPostgres(t *testing.T) {
	db := testkit.UsePostgres(t)
	coat := product(t, db, category(t, db, "Outerwear"), "Rain Mac", 6400, 10)
	recordOrder(t, db, nil, models.StatusDelivered, line(coat, "Outerwear", 1))
	recordOrder(t, db, nil, models.StatusCancelled, line(coat, "Outerwear", 2))

	report, err := services.NewAnalyticsService(nil).Report(bg, 7)
	require.NoError(t, err)
	assert.Equal(t, 6400.0, report.Summary.TotalRevenue)
	require.Len(t, report.OrdersTrend, 1)
	assert.EqualValues(t, 2, report.OrdersTrend[0].Count)
}
