// Package logger wraps log/slog for the storefront.
//
// Handlers should log through WithCtx so that every line carries the
// request id injected by the Logger middleware:
//
//	logger.WithCtx(r.Context()).Info("order placed", "order_id", o.ID)
package logger

import (
	"context"
	"log/slog"
	"os"

	"github.com/shashiranjanraj/storefront/config"
)

// L is the process-wide base logger.
var L *slog.Logger

func init() {
	L = slog.New(consoleHandler())
	slog.SetDefault(L)
}

func consoleHandler() slog.Handler {
	switch config.AppEnv() {
	case "production", "prod":
		return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	case "testing", "test":
		return slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn})
	default:
		return slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
}

// Setup attaches the optional MongoDB sink when LOG_MONGO_URI is set.
// The returned func flushes and disconnects it.
func Setup() func() {
	uri := config.LogMongoURI()
	if uri == "" {
		return func() {}
	}

	h, err := NewMongoHandler(uri, config.Get("LOG_MONGO_DB", "storefront"), "logs", slog.LevelInfo)
	if err != nil {
		L.Warn("mongo log sink disabled", "error", err)
		return func() {}
	}

	L = slog.New(fanout{consoleHandler(), h}).With("service", config.AppName())
	slog.SetDefault(L)
	return h.Close
}

type ctxKey struct{}

// WithCtx returns the request-scoped logger stored by InjectLogger, or the
// base logger outside a request.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores log in ctx for WithCtx.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// With returns the base logger tagged with args. Background workers use it
// to label their component.
func With(args ...any) *slog.Logger { return L.With(args...) }

func Debug(msg string, args ...any) { L.Debug(msg, args...) }
func Info(msg string, args ...any)  { L.Info(msg, args...) }
func Warn(msg string, args ...any)  { L.Warn(msg, args...) }
func Error(msg string, args ...any) { L.Error(msg, args...) }
