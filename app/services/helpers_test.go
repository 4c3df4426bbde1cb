package services_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/services"
	_ "github.com/shashiranjanraj/storefront/database/migrations"
	"github.com/shashiranjanraj/storefront/pkg/auth"
	outbound "github.com/shashiranjanraj/storefront/pkg/http"
	"github.com/shashiranjanraj/storefront/pkg/testkit"
)

const darajaURL = "https://daraja.test"

var bg = context.Background()

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testkit.UseSQLite(t)
}

func category(t *testing.T, db *gorm.DB, name string) models.Category {
	t.Helper()
	c := models.Category{Name: name, Slug: models.Slugify(name), IsActive: true}
	require.NoError(t, db.Where(models.Category{Name: name}).FirstOrCreate(&c).Error)
	return c
}

func product(t *testing.T, db *gorm.DB, cat models.Category, name string, price float64, stock int) models.Product {
	t.Helper()
	p := models.Product{
		Name:          name,
		Slug:          models.Slugify(name),
		Price:         price,
		CategoryID:    cat.ID,
		StockQuantity: stock,
		IsActive:      true,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func customer(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()
	hash, err := auth.HashPassword("secret123")
	require.NoError(t, err)
	u := models.User{Email: email, Name: "Test Shopper", Password: hash, IsActive: true}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func stockOf(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var p models.Product
	require.NoError(t, db.First(&p, id).Error)
	return p.StockQuantity
}

func mpesaClient() *services.MpesaClient {
	return services.NewMpesaClient(services.MpesaConfig{
		BaseURL:        darajaURL,
		ConsumerKey:    "consumer-key",
		ConsumerSecret: "consumer-secret",
		Shortcode:      "174379",
		Passkey:        "passkey",
		CallbackURL:    "https://shop.test/api/orders/mpesa/callback",
	})
}

// fakeDaraja answers the OAuth and STK push endpoints. checkoutID is the
// CheckoutRequestID handed back for the push.
func fakeDaraja(t *testing.T, checkoutID string) *testkit.MockTransport {
	t.Helper()
	mt := testkit.HTTPMock(
		testkit.JSONStep(darajaURL+"/oauth/v1/generate", 200,
			`{"access_token":"daraja-token","expires_in":"3599"}`),
		testkit.JSONStep(darajaURL+"/mpesa/stkpush/v1/processrequest", 200, fmt.Sprintf(
			`{"MerchantRequestID":"29115-34620561-1","CheckoutRequestID":%q,"ResponseCode":"0","ResponseDescription":"Success. Request accepted for processing","CustomerMessage":"Success. Request accepted for processing"}`,
			checkoutID)),
	)
	outbound.DefaultClient.Transport = mt
	t.Cleanup(outbound.ResetTransport)
	return mt
}

func shipping() map[string]interface{} {
	return map[string]interface{}{
		"name":    "Wanjiru Kamau",
		"street":  "Moi Avenue 12",
		"city":    "Nairobi",
		"country": "Kenya",
	}
}

func serviceError(t *testing.T, err error) *services.Error {
	t.Helper()
	require.Error(t, err)
	e, ok := services.AsError(err)
	require.True(t, ok, "expected *services.Error, got %T: %v", err, err)
	return e
}

func decodeJSONBody(t *testing.T, r *http.Request) map[string]interface{} {
	t.Helper()
	out := map[string]interface{}{}
	require.NoError(t, json.NewDecoder(r.Body).Decode(&out))
	return out
}
