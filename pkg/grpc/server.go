// Package grpc hosts the storefront's gRPC listener: panic recovery, request
// logging, go-grpc-prometheus metrics, the standard health service and
// reflection.
//
//	srv := grpc.New(func(s *grpclib.Server) { rpc.Register(s) })
//	go srv.WatchHealth(ctx, database.Ping, 15*time.Second)
//	err := srv.Serve(ctx, ":"+config.GRPCPort())
package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime/debug"
	"time"

	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

var serverMetrics = registerMetrics()

func registerMetrics() *promgrpc.ServerMetrics {
	m := promgrpc.NewServerMetrics()
	m.EnableHandlingTimeHistogram()
	if err := metrics.Register(m); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*promgrpc.ServerMetrics); ok {
				return existing
			}
		}
		logger.Warn("grpc: metrics not registered", "error", err)
	}
	return m
}

func recoveryInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithCtx(ctx).Error("grpc: panic recovered",
				"method", info.FullMethod,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			err = status.Errorf(codes.Internal, "internal server error")
		}
	}()
	return handler(ctx, req)
}

func loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	logger.WithCtx(ctx).Info("grpc: request",
		"method", info.FullMethod,
		"duration_ms", time.Since(start).Milliseconds(),
		"code", status.Code(err).String(),
	)
	return resp, err
}

// Server is a grpc.Server plus its health service.
type Server struct {
	*grpc.Server
	health *health.Server
}

// New builds a server and lets each register func attach services.
func New(register ...func(*grpc.Server)) *Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			recoveryInterceptor,
			loggingInterceptor,
			serverMetrics.UnaryServerInterceptor(),
		),
		grpc.MaxRecvMsgSize(4*1024*1024),
		grpc.MaxSendMsgSize(4*1024*1024),
	)

	for _, fn := range register {
		fn(srv)
	}

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)
	serverMetrics.InitializeMetrics(srv)

	return &Server{Server: srv, health: hs}
}

// SetServing flips the overall health status.
func (s *Server) SetServing(ok bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
}

// WatchHealth runs check every interval and reports the result through the
// health service until ctx ends.
func (s *Server) WatchHealth(ctx context.Context, check func(context.Context) error, every time.Duration) {
	probe := func() {
		cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		err := check(cctx)
		if err != nil {
			logger.Warn("grpc: health check failed", "error", err)
		}
		s.SetServing(err == nil)
	}

	probe()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probe()
		}
	}
}

// Serve listens on addr and blocks until ctx ends or the listener fails.
// Shutdown is graceful with a 10s ceiling.
func (s *Server) Serve(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc: listen on %s: %w", addr, err)
	}
	return s.ServeListener(ctx, lis)
}

// ServeListener is Serve on an existing listener. Tests pass a bufconn.
func (s *Server) ServeListener(ctx context.Context, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("grpc: listening", "addr", lis.Addr().String())
		errCh <- s.Server.Serve(lis)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("grpc: shutting down")
	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(10 * time.Second):
		logger.Warn("grpc: graceful stop timed out, forcing")
		s.Stop()
	}
	return nil
}
