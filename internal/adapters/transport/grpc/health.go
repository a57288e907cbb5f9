package grpc

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name reported through the standard health service.
const ServiceName = "crawl-back.Auth"

// Check probes one dependency.
type Check func(ctx context.Context) error

// HealthReporter keeps a health.Server in sync with the service dependencies.
type HealthReporter struct {
	srv      *health.Server
	checks   map[string]Check
	interval time.Duration
	log      *zap.Logger
}

func NewHealthReporter(checks map[string]Check, interval time.Duration, log *zap.Logger) *HealthReporter {
	return &HealthReporter{
		srv:      health.NewServer(),
		checks:   checks,
		interval: interval,
		log:      log,
	}
}

func (h *HealthReporter) Server() *health.Server { return h.srv }

// Probe runs every check once and publishes the overall status.
func (h *HealthReporter) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	st := healthpb.HealthCheckResponse_SERVING
	for name, check := range h.checks {
		cctx, cancel := context.WithTimeout(ctx, h.interval)
		err := check(cctx)
		cancel()
		if err != nil {
			h.log.Warn("gRPC health check failed", zap.String("check", name), zap.Error(err))
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	h.srv.SetServingStatus("", st)
	h.srv.SetServingStatus(ServiceName, st)
	return st
}

// Run probes every interval until ctx is done, then marks the service as shutting down.
func (h *HealthReporter) Run(ctx context.Context) {
	h.Probe(ctx)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.srv.Shutdown()
			return
		case <-ticker.C:
			h.Probe(ctx)
		}
	}
}
