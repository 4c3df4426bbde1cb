// Command server is the container entry point. It is `storefront serve`
// with in-process queue workers and the scheduler always on.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"

	"github.com/shashiranjanraj/storefront/app/providers"
	"github.com/shashiranjanraj/storefront/app/routes"
	"github.com/shashiranjanraj/storefront/app/rpc"
	"github.com/shashiranjanraj/storefront/config"
	_ "github.com/shashiranjanraj/storefront/database/migrations"
	"github.com/shashiranjanraj/storefront/pkg/app"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/queue"
	"github.com/shashiranjanraj/storefront/pkg/router"
)

func main() {
	if err := run(); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := app.Boot(ctx)
	if err != nil {
		return err
	}
	defer shutdown()

	s := providers.Boot()
	defer s.Shutdown()

	workers := config.Int("QUEUE_WORKERS", 2)
	return app.New().
		Routes(func(r *router.Router) { routes.RegisterAPI(r, s) }).
		GRPC(func(srv *grpc.Server) { rpc.Register(srv, rpc.NewService(s.Catalog, s.Orders)) }).
		Background(s.Hub.Run).
		Background(s.Scheduler.Start).
		Background(func(ctx context.Context) { queue.StartWorkers(ctx, workers).Wait() }).
		Serve(ctx)
}
