package app

import (
	"net/http"
	"net/url"
	"time"

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
	"github.com/shashiranjanraj/storefront/pkg/middleware"
	"github.com/shashiranjanraj/storefront/pkg/reqid"
	"github.com/shashiranjanraj/storefront/pkg/router"
	"github.com/shashiranjanraj/storefront/pkg/session"
	"github.com/shashiranjanraj/storefront/pkg/ws"
)

// Handler builds the HTTP kernel: the global middleware stack, /metrics
// and every registered route.
func (a *Application) Handler() http.Handler {
	origins := config.CORSOrigins()
	ws.SetCheckOrigin(originChecker(origins))

	r := router.New()

	// Outermost first:
	//  1. metrics, so latency covers everything below
	//  2. recovery
	//  3. request id, before anything logs
	//  4. access log
	//  5. session cookie
	//  6. CORS
	//  7. rate limit
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(session.Middleware(session.DefaultOptions()))
	r.Use(middleware.CORS(middleware.DefaultCORSOptions(origins...)))
	r.Use(middleware.RateLimit(config.Int("RATE_LIMIT_PER_MINUTE", 200), time.Minute))

	r.Get("/metrics", "metrics", metrics.Handler())

	for _, fn := range a.routesFns {
		fn(r)
	}
	return r.Handler()
}

// originChecker allows websocket upgrades from the CORS origins. A "*"
// entry, or no Origin header at all, is accepted.
func originChecker(origins []string) func(*http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowed["*"] || allowed[origin] {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}
