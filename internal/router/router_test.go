package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pricofy/translation-desk/internal/apperrors"
	"github.com/pricofy/translation-desk/internal/config"
	"github.com/pricofy/translation-desk/internal/handler"
)

func decodeBody(t *testing.T, resp *handler.Response) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(resp.Body, &out))
	return out
}

func TestDispatch(t *testing.T) {
	calls := 0
	missingConfig := func() error { return apperrors.ConfigurationMissing("Missing Supabase env vars: SUPABASE_URL") }
	echo := func(_ context.Context, req *handler.Request) (any, error) {
		calls++
		return map[string]string{"path": req.Path}, nil
	}

	r := NewWithRoutes([]Route{
		{Method: http.MethodGet, Path: "/api/echo", Handle: echo},
		{Method: http.MethodPost, Path: "/api/write", Handle: echo},
		{Method: http.MethodPost, Path: "/api/unconfigured", Requires: missingConfig, Handle: echo},
		{Method: http.MethodGet, Path: "/api/broken", Handle: func(context.Context, *handler.Request) (any, error) {
			return nil, errors.New("boom")
		}},
		{Method: http.MethodGet, Path: "/api/denied", Handle: func(context.Context, *handler.Request) (any, error) {
			return nil, apperrors.Forbidden("Admin only")
		}},
	}, zap.NewNop())

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantError  string
		wantCall   bool
	}{
		{name: "success", method: http.MethodGet, path: "/api/echo", wantStatus: http.StatusOK, wantCall: true},
		{name: "trailing slash", method: http.MethodGet, path: "/api/echo/", wantStatus: http.StatusOK, wantCall: true},
		{name: "unknown path", method: http.MethodGet, path: "/api/nope", wantStatus: http.StatusNotFound, wantError: "Not found"},
		{name: "wrong method wants POST", method: http.MethodGet, path: "/api/write", wantStatus: http.StatusMethodNotAllowed, wantError: "Use POST"},
		{name: "wrong method wants GET", method: http.MethodPost, path: "/api/echo", wantStatus: http.StatusMethodNotAllowed, wantError: "Use GET"},
		{name: "config check before method", method: http.MethodGet, path: "/api/unconfigured", wantStatus: http.StatusInternalServerError, wantError: "Missing Supabase env vars: SUPABASE_URL"},
		{name: "unclassified error", method: http.MethodGet, path: "/api/broken", wantStatus: http.StatusInternalServerError, wantError: "boom"},
		{name: "classified error", method: http.MethodGet, path: "/api/denied", wantStatus: http.StatusForbidden, wantError: "Admin only"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls = 0
			resp := r.Dispatch(context.Background(), &handler.Request{Method: tt.method, Path: tt.path})
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			body := decodeBody(t, resp)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
			} else {
				assert.NotContains(t, body, "error")
			}
			assert.Equal(t, tt.wantCall, calls == 1)
		})
	}
}

func TestNew_RouteTable(t *testing.T) {
	app := handler.New(&config.Config{}, zap.NewNop())
	r := New(app, zap.NewNop())

	want := map[string]string{
		"/api/saveProject":            http.MethodPost,
		"/api/updateProject":          http.MethodPost,
		"/api/deleteProject":          http.MethodPost,
		"/api/getProjects":            http.MethodGet,
		"/api/getProject":             http.MethodGet,
		"/api/translate":              http.MethodPost,
		"/api/getRole":                http.MethodGet,
		"/api/getMyRole":              http.MethodGet,
		"/api/adminSetRole":           http.MethodPost,
		"/api/adminListUsers":         http.MethodGet,
		"/api/admin/getAllProjects":   http.MethodGet,
		"/api/admin/deleteProject":    http.MethodPost,
		"/api/admin/setProjectStatus": http.MethodPost,
		"/health":                     http.MethodGet,
	}

	routes := r.Routes()
	require.Len(t, routes, len(want))
	for i, route := range routes {
		if i > 0 {
			assert.Less(t, routes[i-1].Path, route.Path, "routes sorted by path")
		}
		assert.Equal(t, want[route.Path], route.Method, route.Path)
	}
}

func TestNew_HealthNeedsNoConfig(t *testing.T) {
	r := New(handler.New(&config.Config{}, zap.NewNop()), zap.NewNop())

	resp := r.Dispatch(context.Background(), &handler.Request{Method: http.MethodGet, Path: "/health"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(resp.Body))

	resp = r.Dispatch(context.Background(), &handler.Request{Method: http.MethodGet, Path: "/api/getProjects"})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Missing Supabase env vars: SUPABASE_URL, SUPABASE_SERVICE_ROLE_KEY"}`, string(resp.Body))
}
