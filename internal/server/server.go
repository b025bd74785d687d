// Package server serves the router over plain HTTP for local development.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/pricofy/translation-desk/internal/handler"
	"github.com/pricofy/translation-desk/internal/router"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 1 << 20

const shutdownTimeout = 5 * time.Second

// NewHandler mounts every route of r on a chi mux. Method and unknown-path
// handling stay with r so both entry points answer identically.
func NewHandler(r *router.Router, logger *zap.Logger) http.Handler {
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Recoverer)

	dispatch := adapt(r, logger.Named("server"))
	for _, route := range r.Routes() {
		mux.HandleFunc(route.Path, dispatch)
	}
	mux.NotFound(dispatch)
	mux.MethodNotAllowed(dispatch)
	return mux
}

func adapt(r *router.Router, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, req.Body, MaxBodyBytes))
		if err != nil {
			logger.Warn("Failed to read request body", zap.Error(err))
			write(w, logger, &handler.Response{
				StatusCode: http.StatusBadRequest,
				Body:       []byte(`{"error":"Invalid request body"}`),
			})
			return
		}

		resp := r.Dispatch(req.Context(), &handler.Request{
			Method:    req.Method,
			Path:      req.URL.Path,
			Headers:   req.Header,
			Query:     req.URL.Query(),
			Body:      body,
			RequestID: middleware.GetReqID(req.Context()),
		})
		write(w, logger, resp)
	}
}

func write(w http.ResponseWriter, logger *zap.Logger, resp *handler.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(resp.Body); err != nil {
		logger.Debug("Failed to write response", zap.Error(err))
	}
}

// Run serves h on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, addr string, h http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
