// Package httpapi serves the restaurant tools as a JSON HTTP API for the
// browser dashboard.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/NERVsystems/restaurantmcp/pkg/config"
	"github.com/NERVsystems/restaurantmcp/pkg/lookup"
	"github.com/NERVsystems/restaurantmcp/pkg/tools"
	"github.com/julienschmidt/httprouter"
	"github.com/justinas/alice"
	"github.com/rs/cors"
)

// Geocoder resolves an address for the dashboard's map view.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (lookup.ResolvedLocation, error)
}

// API is the HTTP front of the dispatcher.
type API struct {
	dispatcher *tools.Dispatcher
	geocoder   Geocoder
	apiKey     string
	port       int
	logger     *slog.Logger
}

// New creates an API. An empty cfg.APIKey disables the key check.
func New(cfg config.Config, d *tools.Dispatcher, g Geocoder, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		dispatcher: d,
		geocoder:   g,
		apiKey:     cfg.APIKey,
		port:       cfg.Port,
		logger:     logger.With("component", "httpapi"),
	}
}

// Handler returns the router wrapped in the middleware chain.
func (api *API) Handler() http.Handler {
	router := httprouter.New()
	router.GET("/api/tools", api.listTools)
	router.POST("/api/tools/call", api.callTool)
	router.GET("/api/geocode", api.geocode)
	router.GET("/api/version", api.versionInfo)
	router.NotFound = http.HandlerFunc(api.notFound)
	router.MethodNotAllowed = http.HandlerFunc(api.methodNotAllowed)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", headerAPIKey},
		ExposedHeaders: []string{headerRequestID},
		MaxAge:         300,
	})

	return alice.New(
		corsHandler.Handler,
		api.requestID,
		api.recoverPanic,
		api.logRequests,
		heartbeat("/healthz"),
		api.requireAPIKey,
	).Then(router)
}

// Run serves on the configured port until ctx is cancelled, then shuts
// down gracefully.
func (api *API) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", api.port),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		api.logger.Info("HTTP API listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	api.logger.Info("shutting down HTTP API")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
