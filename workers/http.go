// Package workers holds the long-lived processes of the sequencer: the
// bid-receiving HTTP service, the per-domain subgraph pollers and the execute
// loop. Each worker isolates its own failures; only startup misconfiguration
// is fatal.
package workers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"goxbridge/auction"
	"goxbridge/registry"
	"goxbridge/workers/handlers"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"go.uber.org/zap"
)

type HTTPServer struct {
	logger    *zap.SugaredLogger
	engine    *auction.Engine
	transfers registry.TransferStore
	port      int
}

func NewHTTPServer(logger *zap.SugaredLogger, engine *auction.Engine, transfers registry.TransferStore, port int) *HTTPServer {
	return &HTTPServer{
		logger:    logger,
		engine:    engine,
		transfers: transfers,
		port:      port,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	s.logger.Infow("starting bid service", "port", s.port)

	h := handlers.New(s.logger, s.engine, s.transfers)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/ping", h.Ping)
	r.Post("/auctions", h.SubmitBid)
	r.Get("/queued", h.GetQueued)
	r.Get("/auctions/{transferId}", h.GetAuction)
	r.Get("/transfers/{domain}", h.GetTransfers)
	r.Post("/clear-cache", h.ClearCache)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	s.logger.Info("bid service started")

	select {
	case err := <-errCh:
		return fmt.Errorf("bid service listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("bid service shutdown: %w", err)
	}
	s.logger.Info("bid service stopped")
	return nil
}
