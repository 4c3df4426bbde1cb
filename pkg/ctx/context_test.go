package ctx_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/pkg/auth"
	appctx "github.com/shashiranjanraj/storefront/pkg/ctx"
)

type envelope struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	appctx.Wrap(func(c *appctx.Context) {
		c.Success(map[string]any{"id": 7})
	})(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, 200, env.Status)
	assert.JSONEq(t, `{"id":7}`, string(env.Data))
}

func TestParamUint(t *testing.T) {
	r := chi.NewRouter()
	var got uint
	var ok bool
	r.Get("/orders/{id}", appctx.Wrap(func(c *appctx.Context) {
		got, ok = c.ParamUint("id")
		c.Success(nil)
	}))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/42", nil))
	assert.True(t, ok)
	assert.Equal(t, uint(42), got)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/abc", nil))
	assert.False(t, ok)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/0", nil))
	assert.False(t, ok)
}

func TestPageIsClamped(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=-3&per_page=5000", nil)
	appctx.Wrap(func(c *appctx.Context) {
		page, perPage := c.Page(20)
		assert.Equal(t, 1, page)
		assert.Equal(t, 100, perPage)
		c.Success(nil)
	})(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	appctx.Wrap(func(c *appctx.Context) {
		page, perPage := c.Page(50)
		assert.Equal(t, 1, page)
		assert.Equal(t, 50, perPage)
		c.Success(nil)
	})(httptest.NewRecorder(), req)
}

func TestQueryFloat(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?min_price=1500&max_price=oops", nil)
	appctx.Wrap(func(c *appctx.Context) {
		v, ok := c.QueryFloat("min_price")
		assert.True(t, ok)
		assert.Equal(t, 1500.0, v)

		_, ok = c.QueryFloat("max_price")
		assert.False(t, ok)

		_, ok = c.QueryFloat("absent")
		assert.False(t, ok)
		c.Success(nil)
	})(httptest.NewRecorder(), req)
}

func TestClaimsFromContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(auth.WithClaims(req.Context(), &auth.Claims{UserID: 9, Role: "admin"}))

	appctx.Wrap(func(c *appctx.Context) {
		assert.Equal(t, uint(9), c.UserID())
		assert.True(t, c.IsAdmin())
		c.Success(nil)
	})(httptest.NewRecorder(), req)

	appctx.Wrap(func(c *appctx.Context) {
		assert.Zero(t, c.UserID())
		assert.Empty(t, c.Role())
		c.Success(nil)
	})(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestBindJSONValidation(t *testing.T) {
	type addInput struct {
		ProductID uint `json:"product_id" validate:"required"`
		Quantity  int  `json:"quantity"   validate:"gte=1"`
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"product_id":3,"quantity":2}`))
	appctx.Wrap(func(c *appctx.Context) {
		var in addInput
		require.True(t, c.BindJSON(&in))
		assert.Equal(t, uint(3), in.ProductID)
		c.Success(nil)
	})(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":0}`))
	appctx.Wrap(func(c *appctx.Context) {
		var in addInput
		assert.False(t, c.BindJSON(&in))
	})(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decode(t, rec)
	assert.Contains(t, env.Errors, "product_id")
	assert.Contains(t, env.Errors, "quantity")
}

func TestBindJSONMalformed(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"product_id":`))
	appctx.Wrap(func(c *appctx.Context) {
		var in struct {
			ProductID uint `json:"product_id"`
		}
		assert.False(t, c.BindJSON(&in))
	})(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	appctx.Wrap(func(c *appctx.Context) {
		var in struct{}
		assert.False(t, c.BindJSON(&in))
	})(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "request body is empty", decode(t, rec).Message)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "41.90.1.2, 10.0.0.1")

	appctx.Wrap(func(c *appctx.Context) {
		assert.Equal(t, "41.90.1.2", c.ClientIP())
		c.Success(nil)
	})(httptest.NewRecorder(), req)
}

func TestErrorHelpers(t *testing.T) {
	rec := httptest.NewRecorder()
	appctx.Wrap(func(c *appctx.Context) {
		c.NotFound("Order not found")
	})(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Order not found", decode(t, rec).Message)

	rec = httptest.NewRecorder()
	appctx.Wrap(func(c *appctx.Context) {
		c.Unauthorized()
	})(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "Unauthorized", decode(t, rec).Message)
}
