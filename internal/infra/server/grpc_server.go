package server

import (
	"context"
	"errors"
	"net"
	"time"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	grpctransport "github.com/mslee98/crawl-back/internal/adapters/transport/grpc"
	"github.com/mslee98/crawl-back/internal/adapters/transport/grpc/middleware"
	"github.com/mslee98/crawl-back/internal/infra/config"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const shutdownTimeout = 5 * time.Second

// NewGRPCServer builds the gRPC server with the interceptor chain, the health service and reflection.
func NewGRPCServer(cfg *config.Config, reporter *grpctransport.HealthReporter, logger *zap.Logger) (*grpc.Server, error) {
	opts := []grpc.ServerOption{
		grpc.UnaryInterceptor(middleware.ChainUnaryServer(logger, middleware.DefaultRateLimit(cfg.IPRateLimit, cfg.IPRateBurst))),
	}
	if cfg.TLSEnabled() {
		creds, err := credentials.NewServerTLSFromFile(cfg.HTTPSCertFile, cfg.HTTPSKeyFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, grpc.Creds(creds))
	}

	grpcServer := grpc.NewServer(opts...)
	healthpb.RegisterHealthServer(grpcServer, reporter.Server())
	grpc_prometheus.Register(grpcServer)
	grpc_prometheus.EnableHandlingTimeHistogram()
	reflection.Register(grpcServer)
	return grpcServer, nil
}

// ServeGRPC serves on lis until ctx is done, then stops gracefully within shutdownTimeout.
func ServeGRPC(ctx context.Context, grpcServer *grpc.Server, lis net.Listener, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("gRPC server listening", zap.String("addr", lis.Addr().String()))
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("ctx cancelled, stopping gRPC server")

	done := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-time.After(shutdownTimeout):
		grpcServer.Stop()
	case <-done:
	}
	logger.Info("gRPC server stopped")
	return nil
}

// StartGRPCServer listens on cfg.GRPCAddress and serves until ctx is done.
func StartGRPCServer(ctx context.Context, cfg *config.Config, reporter *grpctransport.HealthReporter, logger *zap.Logger) error {
	grpcServer, err := NewGRPCServer(cfg, reporter, logger)
	if err != nil {
		return err
	}
	lis, err := net.Listen("tcp", cfg.GRPCAddress)
	if err != nil {
		return err
	}
	return ServeGRPC(ctx, grpcServer, lis, logger)
}
