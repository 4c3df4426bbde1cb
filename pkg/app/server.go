package app

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/database"
	grpcserver "github.com/shashiranjanraj/storefront/pkg/grpc"
	"github.com/shashiranjanraj/storefront/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// Serve runs HTTP on APP_PORT and gRPC on GRPC_PORT until ctx is
// cancelled or either server fails, then drains both.
func (a *Application) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	rpc := grpcserver.New(a.grpcFns...)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, 2)
	run := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	for _, fn := range a.background {
		fn := fn
		run(func() { fn(ctx) })
	}
	run(func() { rpc.WatchHealth(ctx, database.Ping, 15*time.Second) })
	run(func() {
		if err := rpc.Serve(ctx, ":"+config.GRPCPort()); err != nil {
			errCh <- err
		}
	})
	run(func() {
		logger.Info("http: listening", "addr", srv.Addr, "env", config.AppEnv())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	})

	var err error
	select {
	case <-ctx.Done():
	case err = <-errCh:
		logger.Error("server failed", "error", err)
	}
	cancel()

	logger.Info("http: shutting down")
	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	if serr := srv.Shutdown(shutdownCtx); serr != nil && err == nil {
		err = serr
	}
	wg.Wait()
	return err
}
