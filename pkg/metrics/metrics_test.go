package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/api/products/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/api/products/{id}", "418"))
	for _, id := range []string{"1", "2", "3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/products/"+id, nil))
	}
	after := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/api/products/{id}", "418"))
	assert.Equal(t, 3.0, after-before)
}

func TestRecordOrderAddsRevenue(t *testing.T) {
	before := testutil.ToFloat64(revenue.WithLabelValues())
	RecordOrder("mpesa", 2500)
	RecordOrder("card", 1000)
	assert.Equal(t, 3500.0, testutil.ToFloat64(revenue.WithLabelValues())-before)
	assert.GreaterOrEqual(t, testutil.ToFloat64(ordersPlaced.WithLabelValues("mpesa")), 1.0)
}

func TestHandlerExposesShopCounters(t *testing.T) {
	RecordCheckoutFailure("empty_cart")
	RecordPayment("mpesa", "paid")

	rec := httptest.NewRecorder()
	Handler()(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	for _, name := range []string{
		"storefront_shop_checkout_failures_total",
		"storefront_shop_payments_total",
		"go_goroutines",
	} {
		assert.True(t, strings.Contains(body, name), name)
	}
}
