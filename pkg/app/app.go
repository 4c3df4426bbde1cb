// Package app runs the storefront process: it connects the infrastructure,
// builds the HTTP kernel and serves HTTP and gRPC side by side.
//
//	a := app.New().
//	    Routes(func(r *router.Router) { routes.RegisterAPI(r, svc) }).
//	    GRPC(func(s *grpc.Server) { rpc.Register(s, rpcService) }).
//	    Background(svc.Hub.Run)
//	err := a.Serve(ctx)
//
// It imports no storefront code; everything project-specific is passed in.
package app

import (
	"context"

	"google.golang.org/grpc"

	"github.com/shashiranjanraj/storefront/pkg/router"
)

// Application collects what the servers need before they start.
type Application struct {
	routesFns  []func(*router.Router)
	grpcFns    []func(*grpc.Server)
	background []func(context.Context)
}

func New() *Application {
	return &Application{}
}

// Routes registers a route-registration callback. Callbacks run in order
// when the HTTP kernel is built.
func (a *Application) Routes(fn func(*router.Router)) *Application {
	a.routesFns = append(a.routesFns, fn)
	return a
}

// GRPC registers a callback that attaches services to the gRPC server.
func (a *Application) GRPC(fn func(*grpc.Server)) *Application {
	a.grpcFns = append(a.grpcFns, fn)
	return a
}

// Background adds a loop that runs for the lifetime of Serve.
func (a *Application) Background(fn func(context.Context)) *Application {
	a.background = append(a.background, fn)
	return a
}

// RouteTable lists the routes the callbacks register, without serving.
func (a *Application) RouteTable() []router.Route {
	r := router.New()
	for _, fn := range a.routesFns {
		fn(r)
	}
	return r.Routes()
}
