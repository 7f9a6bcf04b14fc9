// Package server is the HTTP API for classification, color ramps
// and map document rendering.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/paulmach/webmap/dataset"
	"github.com/paulmach/webmap/internal/log"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
)

// Version is reported by the health check.
const Version = "1.0.0"

// Config holds the server configuration.
type Config struct {
	Addr string

	// Store answers REST_DATA layers of rendered documents when set,
	// otherwise they are queried over http.
	Store *dataset.Store

	Logger *slog.Logger
}

// Server is the webmap HTTP server.
type Server struct {
	config Config
	mux    *http.ServeMux
	api    huma.API
	logger *slog.Logger
}

// New creates the server and registers the routes.
func New(cfg Config) *Server {
	mux := http.NewServeMux()

	humaConfig := huma.DefaultConfig("webmap API", Version)
	humaConfig.Info.Description = "Classification, color ramps and map document rendering."
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}

	logger := cfg.Logger
	if logger == nil {
		logger = log.WithComponent("server")
	}

	s := &Server{
		config: cfg,
		mux:    mux,
		api:    humago.New(mux, humaConfig),
		logger: logger,
	}

	Register(s.api, &Handler{store: cfg.Store, logger: logger})
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{Addr: s.config.Addr, Handler: s}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	s.logger.Info("listening", slog.String("addr", s.config.Addr))
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}

	return nil
}
