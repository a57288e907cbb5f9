package server

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/mslee98/crawl-back/internal/infra/config"
	"go.uber.org/zap"
)

// ServeHTTP serves srv on lis until ctx is done, using TLS when the config carries a certificate.
func ServeHTTP(ctx context.Context, srv *http.Server, lis net.Listener, cfg *config.Config, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", lis.Addr().String()), zap.Bool("tls", cfg.TLSEnabled()))
		var err error
		if cfg.TLSEnabled() {
			err = srv.ServeTLS(lis, cfg.HTTPSCertFile, cfg.HTTPSKeyFile)
		} else {
			err = srv.Serve(lis)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	logger.Info("HTTP server stopped")
	return nil
}
