package middleware

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// NewRateLimitPerIP limits unary calls per peer IP. A visitor idle for ttl starts over with a full bucket.
func NewRateLimitPerIP(
	limit, burst int,
	cacheSize int,
	ttl time.Duration,
) grpc.UnaryServerInterceptor {

	visitors := expirable.NewLRU[string, *rate.Limiter](cacheSize, nil, ttl)
	var mu sync.Mutex

	return func(
		ctx context.Context,
		req any,
		_ *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {

		p, ok := peer.FromContext(ctx)
		if !ok {
			return nil, status.Error(codes.ResourceExhausted, "rate limit exceeded")
		}
		host, _, err := net.SplitHostPort(p.Addr.String())
		if err != nil {
			host = p.Addr.String()
		}

		mu.Lock()
		lim, ok := visitors.Get(host)
		if !ok {
			lim = rate.NewLimiter(rate.Limit(limit), burst)
		}
		// re-adding refreshes the idle deadline
		visitors.Add(host, lim)
		mu.Unlock()

		if !lim.Allow() {
			return nil, status.Error(codes.ResourceExhausted, "rate limit exceeded")
		}
		return handler(ctx, req)
	}
}
