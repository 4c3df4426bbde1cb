package services_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/services"
)

// recordOrder writes an order straight to the table, bypassing checkout.
func recordOrder(t *testing.T, db *gorm.DB, userID *uint, status string, lines ...models.LineItem) models.Order {
	t.Helper()
	o := models.Order{
		UserID:        userID,
		Status:        status,
		PaymentStatus: models.PaymentPending,
		PaymentMethod: services.MethodOnline,
		Source:        models.SourceCart,
		Items:         lines,
	}
	for _, l := range lines {
		o.TotalAmount += l.Total
		o.OrderItems = append(o.OrderItems, models.OrderItem{
			ProductID:    l.ProductID,
			ProductName:  l.ProductName,
			Quantity:     l.Quantity,
			UnitPrice:    l.Price,
			TotalPrice:   l.Total,
			CategoryName: l.CategoryName,
		})
	}
	o.Subtotal = o.TotalAmount
	require.NoError(t, db.Create(&o).Error)
	return o
}

func line(p models.Product, category string, qty int) models.LineItem {
	return models.LineItem{
		ProductID:    p.ID,
		ProductName:  p.Name,
		Quantity:     qty,
		Price:        p.Price,
		Total:        p.Price * float64(qty),
		CategoryName: category,
	}
}

func TestOrderVisibility(t *testing.T) {
	db := newDB(t)
	owner := customer(t, db, "owner@example.com")
	other := customer(t, db, "other@example.com")
	dress := product(t, db, category(t, db, "Dresses"), "Shift Dress", 2000, 10)
	o := recordOrder(t, db, &owner.ID, models.StatusPending, line(dress, "Dresses", 1))
	orders := services.NewOrderService()

	got, err := orders.Get(bg, owner.ID, false, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
	assert.Len(t, got.OrderItems, 1)

	_, err = orders.Get(bg, other.ID, false, o.ID)
	assert.Equal(t, http.StatusNotFound, serviceError(t, err).Status)

	_, err = orders.Get(bg, other.ID, true, o.ID)
	assert.NoError(t, err, "admins see every order")

	mine, err := orders.MyOrders(bg, owner.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	theirs, err := orders.MyOrders(bg, other.ID)
	require.NoError(t, err)
	assert.Empty(t, theirs)
}

func TestUpdateStatusCancelRestocks(t *testing.T) {
	db := newDB(t)
	user := customer(t, db, "cancel@example.com")
	coat := product(t, db, category(t, db, "Outerwear"), "Trench Coat", 8000, 4)
	_, err := services.NewCartService().Add(bg, user.ID, services.AddToCartInput{ProductID: coat.ID, Quantity: 3})
	require.NoError(t, err)
	placed, err := services.NewCheckoutService(nil).Checkout(bg, user.ID, services.CheckoutInput{ShippingAddress: shipping()})
	require.NoError(t, err)
	require.Equal(t, 1, stockOf(t, db, coat.ID))

	orders := services.NewOrderService()
	o, err := orders.UpdateStatus(bg, placed.Order.ID, models.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, o.Status)
	assert.Equal(t, 4, stockOf(t, db, coat.ID))

	_, err = orders.UpdateStatus(bg, placed.Order.ID, models.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, 4, stockOf(t, db, coat.ID), "cancelling twice restocks once")
}

func TestUpdateStatusCancelledOrderIsFinal(t *testing.T) {
	db := newDB(t)
	skirt := product(t, db, category(t, db, "Skirts"), "Pleated Skirt", 2500, 5)
	o := recordOrder(t, db, nil, models.StatusPending, line(skirt, "Skirts", 2))
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", skirt.ID).
		Update("stock_quantity", 3).Error)

	orders := services.NewOrderService()
	_, err := orders.UpdateStatus(bg, o.ID, models.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, 5, stockOf(t, db, skirt.ID))

	for _, status := range []string{models.StatusPending, models.StatusProcessing} {
		_, err = orders.UpdateStatus(bg, o.ID, status)
		e := serviceError(t, err)
		assert.Equal(t, http.StatusBadRequest, e.Status)
		assert.Equal(t, "Cancelled orders cannot be reopened", e.Message)

		_, err = orders.UpdateStatus(bg, o.ID, models.StatusCancelled)
		require.NoError(t, err)
		assert.Equal(t, 5, stockOf(t, db, skirt.ID), "a cancelled order restocks only once")
	}

	var stored models.Order
	require.NoError(t, db.First(&stored, o.ID).Error)
	assert.Equal(t, models.StatusCancelled, stored.Status)
}

func TestUpdateStatusShippedOrderIsNotRestocked(t *testing.T) {
	db := newDB(t)
	bag := product(t, db, category(t, db, "Bags"), "Leather Satchel", 9000, 5)
	o := recordOrder(t, db, nil, models.StatusShipped, line(bag, "Bags", 2))

	_, err := services.NewOrderService().UpdateStatus(bg, o.ID, models.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, 5, stockOf(t, db, bag.ID))
}

func TestUpdateStatusValidation(t *testing.T) {
	newDB(t)
	orders := services.NewOrderService()

	_, err := orders.UpdateStatus(bg, 1, "teleported")
	assert.Equal(t, "Invalid status", serviceError(t, err).Message)

	_, err = orders.UpdateStatus(bg, 404, models.StatusShipped)
	assert.Equal(t, http.StatusNotFound, serviceError(t, err).Status)
}

func TestAllOrdersFilters(t *testing.T) {
	db := newDB(t)
	tee := product(t, db, category(t, db, "Tops"), "Graphic Tee", 900, 20)
	recordOrder(t, db, nil, models.StatusPending, line(tee, "Tops", 1))
	recordOrder(t, db, nil, models.StatusDelivered, line(tee, "Tops", 2))
	orders := services.NewOrderService()

	delivered, err := orders.All(bg, services.OrderQuery{Status: models.StatusDelivered})
	require.NoError(t, err)
	require.Len(t, delivered, 1)
	assert.Equal(t, 1800.0, delivered[0].TotalAmount)

	today := time.Now().UTC().Format("2006-01-02")
	all, err := orders.All(bg, services.OrderQuery{StartDate: today, EndDate: today})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = orders.All(bg, services.OrderQuery{StartDate: "18/10/2026"})
	assert.Equal(t, "Invalid start_date", serviceError(t, err).Message)
}

func TestAnalyticsExcludesCancelledRevenue(t *testing.T) {
	db := newDB(t)
	dress := product(t, db, category(t, db, "Dresses"), "Slip Dress", 1000, 50)
	shoe := product(t, db, category(t, db, "Shoes"), "Canvas Sneaker", 3000, 50)
	recordOrder(t, db, nil, models.StatusPending, line(dress, "Dresses", 2))
	recordOrder(t, db, nil, models.StatusDelivered, line(shoe, "Shoes", 1), line(dress, "Dresses", 1))
	recordOrder(t, db, nil, models.StatusCancelled, line(shoe, "Shoes", 5))

	report, err := services.NewAnalyticsService(nil).Report(bg, 30)
	require.NoError(t, err)

	assert.Equal(t, 30, report.Days)
	assert.EqualValues(t, 3, report.Summary.TotalOrders)
	assert.Equal(t, 6000.0, report.Summary.TotalRevenue)
	assert.Equal(t, 3000.0, report.Summary.AvgOrderValue)
	assert.EqualValues(t, 1, report.Summary.PendingOrders)

	require.Len(t, report.OrdersTrend, 1)
	assert.EqualValues(t, 3, report.OrdersTrend[0].Count)
	require.Len(t, report.RevenueTrend, 1)
	assert.Equal(t, 6000.0, report.RevenueTrend[0].Revenue)

	statuses := map[string]int64{}
	for _, s := range report.StatusDistribution {
		statuses[s.Status] = s.Count
	}
	assert.Equal(t, map[string]int64{"pending": 1, "delivered": 1, "cancelled": 1}, statuses)

	require.Len(t, report.CategoryStatistics, 2)
	// Equal revenue falls back to name order.
	assert.Equal(t, services.CategoryStat{Category: "Dresses", Count: 2, Revenue: 3000}, report.CategoryStatistics[0])
	assert.Equal(t, services.CategoryStat{Category: "Shoes", Count: 1, Revenue: 3000}, report.CategoryStatistics[1])
}

func TestAnalyticsTrendEndpoints(t *testing.T) {
	db := newDB(t)
	scarf := product(t, db, category(t, db, "Accessories"), "Cashmere Scarf", 2500, 10)
	recordOrder(t, db, nil, models.StatusPending, line(scarf, "Accessories", 1))
	recordOrder(t, db, nil, models.StatusProcessing, line(scarf, "", 1))
	analytics := services.NewAnalyticsService(nil)

	trend, total, err := analytics.OrdersTrend(bg, 7)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, trend, 1)

	revenue, summary, err := analytics.RevenueTrend(bg, 7)
	require.NoError(t, err)
	assert.Len(t, revenue, 1)
	assert.Equal(t, 5000.0, summary.TotalRevenue)
	assert.Equal(t, 2500.0, summary.AvgOrderValue)

	cats, err := analytics.CategoryStatistics(bg, 0)
	require.NoError(t, err)
	names := []string{}
	for _, c := range cats {
		names = append(names, c.Category)
	}
	assert.ElementsMatch(t, []string{"Accessories", "Uncategorized"}, names)
}

func TestAnalyticsEmptyWindow(t *testing.T) {
	newDB(t)
	report, err := services.NewAnalyticsService(nil).Report(bg, 0)
	require.NoError(t, err)
	assert.Equal(t, services.DefaultAnalyticsDays, report.Days)
	assert.Zero(t, report.Summary.TotalOrders)
	assert.Zero(t, report.Summary.AvgOrderValue)
	assert.Empty(t, report.OrdersTrend)
	assert.Empty(t, report.CategoryStatistics)
}
