// Package tasks registers the storefront's periodic maintenance.
package tasks

import (
	"context"
	"time"

	"github.com/shashiranjanraj/storefront/app/jobs"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/queue"
	"github.com/shashiranjanraj/storefront/pkg/schedule"
)

const (
	PurgeTokens    = "tokens:purge"
	LowStock       = "inventory:low-stock"
	ExpirePayments = "payments:expire"
)

// PaymentTimeout is how long an STK push may stay unanswered.
const PaymentTimeout = 15 * time.Minute

// Register adds every task to s.
func Register(s *schedule.Scheduler, authSvc *services.AuthService, payments *services.PaymentService) {
	s.Hourly().Name(PurgeTokens).WithoutOverlapping().Run(func(ctx context.Context) error {
		n, err := authSvc.PurgeRevoked(ctx)
		if err != nil {
			return err
		}
		logger.WithCtx(ctx).Info("revoked tokens purged", "count", n)
		return nil
	})

	s.Cron("0 7 * * *").Name(LowStock).WithoutOverlapping().Run(func(ctx context.Context) error {
		return queue.Dispatch(&jobs.LowStockAlert{})
	})

	s.Every(PaymentTimeout).Name(ExpirePayments).WithoutOverlapping().Run(func(ctx context.Context) error {
		_, err := payments.ExpireStale(ctx, PaymentTimeout)
		return err
	})
}
