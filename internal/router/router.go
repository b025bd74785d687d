// Package router dispatches transport-neutral requests to the handler
// operations by method and path.
package router

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pricofy/translation-desk/internal/apperrors"
	"github.com/pricofy/translation-desk/internal/handler"
	"github.com/pricofy/translation-desk/internal/logging"
)

// HandlerFunc is one operation.
type HandlerFunc func(ctx context.Context, req *handler.Request) (any, error)

// Route binds a path to an operation.
type Route struct {
	Method string
	Path   string
	// Requires checks configuration before anything else runs. Nil means none.
	Requires func() error
	Handle   HandlerFunc
}

// Router holds the route table.
type Router struct {
	routes map[string]Route
	logger *zap.Logger
}

// New builds the route table for app.
func New(app *handler.App, logger *zap.Logger) *Router {
	store := app.RequireStore
	routes := []Route{
		{Method: http.MethodPost, Path: "/api/saveProject", Requires: store, Handle: app.SaveProject},
		{Method: http.MethodPost, Path: "/api/updateProject", Requires: store, Handle: app.UpdateProject},
		{Method: http.MethodPost, Path: "/api/deleteProject", Requires: store, Handle: app.DeleteProject},
		{Method: http.MethodGet, Path: "/api/getProjects", Requires: store, Handle: app.GetProjects},
		{Method: http.MethodGet, Path: "/api/getProject", Requires: store, Handle: app.GetProject},
		{Method: http.MethodPost, Path: "/api/translate", Requires: app.RequireTranslation, Handle: app.Translate},
		{Method: http.MethodGet, Path: "/api/getRole", Requires: store, Handle: app.GetRole},
		{Method: http.MethodGet, Path: "/api/getMyRole", Requires: store, Handle: app.GetMyRole},
		{Method: http.MethodPost, Path: "/api/adminSetRole", Requires: store, Handle: app.AdminSetRole},
		{Method: http.MethodGet, Path: "/api/adminListUsers", Requires: store, Handle: app.AdminListUsers},
		{Method: http.MethodGet, Path: "/api/admin/getAllProjects", Requires: store, Handle: app.AdminGetAllProjects},
		{Method: http.MethodPost, Path: "/api/admin/deleteProject", Requires: store, Handle: app.AdminDeleteProject},
		{Method: http.MethodPost, Path: "/api/admin/setProjectStatus", Requires: store, Handle: app.AdminSetProjectStatus},
		{Method: http.MethodGet, Path: "/health", Handle: app.Health},
	}
	return NewWithRoutes(routes, logger)
}

// NewWithRoutes builds a router over an explicit route table.
func NewWithRoutes(routes []Route, logger *zap.Logger) *Router {
	r := &Router{
		routes: make(map[string]Route, len(routes)),
		logger: logger.Named("router"),
	}
	for _, route := range routes {
		r.routes[route.Path] = route
	}
	return r
}

// Routes returns the route table ordered by path.
func (r *Router) Routes() []Route {
	out := make([]Route, 0, len(r.routes))
	for _, route := range r.routes {
		out = append(out, route)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Lookup returns the route registered for path.
func (r *Router) Lookup(path string) (Route, bool) {
	route, ok := r.routes[normalizePath(path)]
	return route, ok
}

// Dispatch runs the operation for req. The configuration check runs first,
// then the method check, then the operation itself. It always returns a
// response; failures become `{error}` bodies.
func (r *Router) Dispatch(ctx context.Context, req *handler.Request) *handler.Response {
	start := time.Now()
	resp := r.dispatch(ctx, req)

	fields := []zap.Field{
		zap.String("request_id", req.RequestID),
		zap.String("method", req.Method),
		zap.String("route", req.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	}
	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		r.logger.Error("Request failed", append(fields, zap.String("body", logging.Sanitize(string(resp.Body))))...)
	case resp.StatusCode >= http.StatusBadRequest:
		r.logger.Info("Request rejected", fields...)
	default:
		r.logger.Debug("Request completed", fields...)
	}
	return resp
}

func (r *Router) dispatch(ctx context.Context, req *handler.Request) *handler.Response {
	route, ok := r.Lookup(req.Path)
	if !ok {
		return handler.Error(apperrors.NotFound("Not found"))
	}

	if route.Requires != nil {
		if err := route.Requires(); err != nil {
			return handler.Error(err)
		}
	}
	if req.Method != route.Method {
		return handler.Error(apperrors.MethodNotAllowed(route.Method))
	}

	payload, err := route.Handle(ctx, req)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(http.StatusOK, payload)
}

// normalizePath drops a trailing slash so "/api/getProjects/" matches.
func normalizePath(path string) string {
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}
