package middleware

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

func ctxIP(ip string) context.Context {
	return peer.NewContext(context.Background(), &peer.Peer{
		Addr: &net.TCPAddr{IP: net.ParseIP(ip), Port: 80},
	})
}

func ok(context.Context, any) (any, error) { return nil, nil }

func call(intc grpc.UnaryServerInterceptor, ctx context.Context) error {
	_, err := intc(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/test.Svc/Call"}, ok)
	return err
}

func TestChainUnaryServer_PanicRecovered(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	chain := ChainUnaryServer(zap.New(core), DefaultRateLimit(10, 10))

	_, err := chain(ctxIP("8.8.8.8"), nil, &grpc.UnaryServerInfo{FullMethod: "/test.Svc/Call"},
		func(ctx context.Context, req any) (any, error) {
			panic("boom")
		})
	require.Error(t, err)
	require.Equal(t, codes.Internal, status.Code(err))
	require.NotContains(t, err.Error(), "boom")

	panics := logs.FilterMessage("panic in gRPC handler").All()
	require.Len(t, panics, 1)
	require.Equal(t, "boom", panics[0].ContextMap()["panic"])
}

func TestChainUnaryServer_SkipsHealthyProbeLogs(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	chain := ChainUnaryServer(zap.New(core), DefaultRateLimit(10, 10))
	ctx := ctxIP("7.7.7.7")

	_, err := chain(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, ok)
	require.NoError(t, err)
	require.Zero(t, logs.Len())

	require.NoError(t, call(chain, ctx))
	require.Equal(t, 1, logs.Len())
}

func TestLogDecider(t *testing.T) {
	require.False(t, LogDecider("/grpc.health.v1.Health/Check", nil))
	require.True(t, LogDecider("/grpc.health.v1.Health/Check", status.Error(codes.Unavailable, "down")))
	require.True(t, LogDecider("/test.Svc/Call", nil))
}

func TestChainUnaryServer_RateLimitInsideChain(t *testing.T) {
	chain := ChainUnaryServer(zap.NewNop(), RateLimit{Limit: 1, Burst: 1, CacheSize: 10, IdleTTL: time.Hour})
	ctx := ctxIP("9.9.9.9")

	require.NoError(t, call(chain, ctx))
	err := call(chain, ctx)
	require.Equal(t, codes.ResourceExhausted, status.Code(err))

	require.Eventually(t, func() bool { return call(chain, ctx) == nil }, 3*time.Second, 100*time.Millisecond)
}

func TestRateLimitPerIP_BurstAllows(t *testing.T) {
	intc := NewRateLimitPerIP(1, 2, 100, time.Hour)
	ctx := ctxIP("192.0.2.1")

	require.NoError(t, call(intc, ctx))
	require.NoError(t, call(intc, ctx))
	require.Error(t, call(intc, ctx))
}

func TestRateLimitPerIP_SeparateCounters(t *testing.T) {
	intc := NewRateLimitPerIP(1, 1, 1000, time.Hour)

	require.NoError(t, call(intc, ctxIP("203.0.113.10")))
	require.Error(t, call(intc, ctxIP("203.0.113.10")))
	require.NoError(t, call(intc, ctxIP("198.51.100.5")))
}

func TestRateLimitPerIP_TTL_Evicts(t *testing.T) {
	ttl := 30 * time.Millisecond
	intc := NewRateLimitPerIP(1, 1, 10, ttl)
	ctx := ctxIP("10.10.10.10")

	require.NoError(t, call(intc, ctx))
	time.Sleep(2 * ttl)
	require.NoError(t, call(intc, ctx))
}

func TestRateLimitPerIP_NoPeer(t *testing.T) {
	intc := NewRateLimitPerIP(10, 10, 10, time.Hour)
	require.Equal(t, codes.ResourceExhausted, status.Code(call(intc, context.Background())))
}
