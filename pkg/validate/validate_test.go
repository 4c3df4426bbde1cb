package validate_test

import (
	"testing"

	"github.com/shashiranjanraj/storefront/pkg/validate"
)

type registerInput struct {
	Name     string `json:"name"     validate:"required,min=2,max=100"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone"    validate:"nullable,phone"`
}

type productInput struct {
	Name       string   `json:"name"        validate:"required"`
	Price      float64  `json:"price"       validate:"required,gt=0"`
	SalePrice  *float64 `json:"sale_price"  validate:"gte=0"`
	CategoryID uint     `json:"category_id" validate:"required"`
	Stock      *int     `json:"stock_quantity" validate:"gte=0"`
}

func TestValidRegistration(t *testing.T) {
	errs := validate.Struct(registerInput{
		Name:     "Wanjiku",
		Email:    "wanjiku@example.com",
		Password: "secret123",
		Phone:    "0712345678",
	})
	if validate.HasErrors(errs) {
		t.Errorf("expected no errors, got: %v", errs)
	}
}

func TestRequiredFieldsAreKeyedByJSONName(t *testing.T) {
	errs := validate.Struct(&registerInput{})
	for _, f := range []string{"name", "email", "password"} {
		if _, ok := errs[f]; !ok {
			t.Errorf("expected %s to be required, got %v", f, errs)
		}
	}
	if _, ok := errs["phone"]; ok {
		t.Error("nullable phone should be skipped when empty")
	}
}

func TestEmailAndPhone(t *testing.T) {
	errs := validate.Struct(registerInput{Name: "Ann", Email: "nope", Password: "secret123", Phone: "12345"})
	if _, ok := errs["email"]; !ok {
		t.Error("expected email error")
	}
	if _, ok := errs["phone"]; !ok {
		t.Error("expected phone error")
	}

	for _, p := range []string{"+254712345678", "254712345678", "0112345678"} {
		errs := validate.Struct(registerInput{Name: "Ann", Email: "a@b.co", Password: "secret123", Phone: p})
		if validate.HasErrors(errs) {
			t.Errorf("phone %q should pass, got %v", p, errs)
		}
	}
}

func TestPointerFieldsAreOptionalUnlessRequired(t *testing.T) {
	errs := validate.Struct(productInput{Name: "Silk Scarf", Price: 1800, CategoryID: 2})
	if validate.HasErrors(errs) {
		t.Errorf("nil optional pointers should pass, got %v", errs)
	}

	neg := -1
	errs = validate.Struct(productInput{Name: "Silk Scarf", Price: 1800, CategoryID: 2, Stock: &neg})
	if _, ok := errs["stock_quantity"]; !ok {
		t.Errorf("expected negative stock to fail, got %v", errs)
	}
}

func TestPriceMustBePositive(t *testing.T) {
	errs := validate.Struct(productInput{Name: "Beanie Hat", Price: -5, CategoryID: 4})
	if _, ok := errs["price"]; !ok {
		t.Errorf("expected price error, got %v", errs)
	}
}

func TestInRuleWithPipesAndCommas(t *testing.T) {
	type in struct {
		Status string `json:"status" validate:"required,in=pending,processing,shipped,delivered,cancelled"`
		Stock  string `json:"stock"  validate:"nullable,in=out|low|normal"`
	}
	if errs := validate.Struct(in{Status: "shipped", Stock: "low"}); validate.HasErrors(errs) {
		t.Errorf("expected pass, got %v", errs)
	}
	errs := validate.Struct(in{Status: "lost", Stock: "some"})
	if len(errs) != 2 {
		t.Errorf("expected status and stock errors, got %v", errs)
	}
}

func TestDateRule(t *testing.T) {
	type in struct {
		Start string `json:"start_date" validate:"nullable,date"`
	}
	if errs := validate.Struct(in{Start: "2024-02-30x"}); !validate.HasErrors(errs) {
		t.Error("expected malformed date to fail")
	}
	if errs := validate.Struct(in{Start: "2024-02-01"}); validate.HasErrors(errs) {
		t.Errorf("expected date to pass, got %v", errs)
	}
}

func TestSliceMin(t *testing.T) {
	type in struct {
		Roles []string `json:"roles" validate:"required,min=1"`
	}
	if errs := validate.Struct(in{}); !validate.HasErrors(errs) {
		t.Error("expected empty roles to fail")
	}
	if errs := validate.Struct(in{Roles: []string{"admin"}}); validate.HasErrors(errs) {
		t.Errorf("expected pass, got %v", errs)
	}
}
