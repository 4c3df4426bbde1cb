// Package providers builds the storefront's services once per process and
// publishes them through pkg/container.
package providers

import (
	"github.com/shashiranjanraj/storefront/app/listeners"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/app/tasks"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/container"
	"github.com/shashiranjanraj/storefront/pkg/schedule"
	"github.com/shashiranjanraj/storefront/pkg/workerpool"
	"github.com/shashiranjanraj/storefront/pkg/ws"
)

// Key is the container key of the Services value.
const Key = "storefront.services"

// Services is every collaborator the HTTP, gRPC and CLI surfaces share.
type Services struct {
	Auth      *services.AuthService
	Catalog   *services.CatalogService
	Cart      *services.CartService
	Checkout  *services.CheckoutService
	Orders    *services.OrderService
	Payments  *services.PaymentService
	Analytics *services.AnalyticsService
	Admin     *services.AdminService

	Hub       *ws.Hub
	Pool      *workerpool.Pool
	Scheduler *schedule.Scheduler
}

// New builds the services on the current database connection.
func New() *Services {
	var oidc *auth.OIDCVerifier
	if config.OIDCIssuer() != "" && config.OIDCClientID() != "" {
		oidc = auth.NewOIDCVerifier(config.OIDCIssuer(), config.OIDCClientID())
	}

	pool := workerpool.New(8)
	catalog := services.NewCatalogService()
	payments := services.NewPaymentService(services.NewMpesaClient(services.MpesaConfigFromEnv()))

	s := &Services{
		Auth:      services.NewAuthService(oidc),
		Catalog:   catalog,
		Cart:      services.NewCartService(),
		Checkout:  services.NewCheckoutService(payments),
		Orders:    services.NewOrderService(),
		Payments:  payments,
		Analytics: services.NewAnalyticsService(pool),
		Admin:     services.NewAdminService(catalog, pool),
		Hub:       ws.NewHub(),
		Pool:      pool,
		Scheduler: schedule.New(),
	}
	tasks.Register(s.Scheduler, s.Auth, s.Payments)
	return s
}

// Boot builds the services, subscribes the event listeners to the live
// hub and registers the result in the container.
func Boot() *Services {
	s := New()
	listeners.Register(s.Hub)
	container.Instance(Key, s)
	return s
}

// Resolve returns the booted services.
func Resolve() (*Services, bool) {
	return container.Resolve[*Services](Key)
}

// Shutdown stops the worker pool.
func (s *Services) Shutdown() {
	s.Pool.Shutdown()
}
