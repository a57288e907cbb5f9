package middleware

import (
	"context"
	"strings"
	"time"

	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_zap "github.com/grpc-ecosystem/go-grpc-middleware/logging/zap"
	grpc_recovery "github.com/grpc-ecosystem/go-grpc-middleware/recovery"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const healthMethodPrefix = "/grpc.health.v1.Health/"

// RateLimit configures the per-peer limiter at the end of the chain.
type RateLimit struct {
	Limit     int
	Burst     int
	CacheSize int
	IdleTTL   time.Duration
}

// DefaultRateLimit keeps up to 10k peers, each forgotten after an idle hour.
func DefaultRateLimit(limit, burst int) RateLimit {
	return RateLimit{Limit: limit, Burst: burst, CacheSize: 10_000, IdleTTL: time.Hour}
}

// RecoveryInterceptor logs the panic and answers codes.Internal without leaking its value.
func RecoveryInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return grpc_recovery.UnaryServerInterceptor(
		grpc_recovery.WithRecoveryHandlerContext(func(ctx context.Context, p any) error {
			logger.Error("panic in gRPC handler", zap.Any("panic", p), zap.Stack("stack"))
			return status.Error(codes.Internal, "internal server error")
		}),
	)
}

// LogDecider drops successful health probes from the call log.
func LogDecider(fullMethod string, err error) bool {
	return err != nil || !strings.HasPrefix(fullMethod, healthMethodPrefix)
}

func LoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return grpc_zap.UnaryServerInterceptor(logger, grpc_zap.WithDecider(LogDecider))
}

// ChainUnaryServer orders the interceptors so panics anywhere below recovery become codes.Internal.
func ChainUnaryServer(logger *zap.Logger, rl RateLimit) grpc.UnaryServerInterceptor {
	return grpc_middleware.ChainUnaryServer(
		RecoveryInterceptor(logger),
		LoggingInterceptor(logger),
		grpc_prometheus.UnaryServerInterceptor,
		NewRateLimitPerIP(rl.Limit, rl.Burst, rl.CacheSize, rl.IdleTTL),
	)
}
