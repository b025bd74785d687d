package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"bad request", BadRequest("Missing id"), http.StatusBadRequest},
		{"unauthenticated", Unauthenticated("Missing token"), http.StatusUnauthorized},
		{"forbidden", Forbidden("Admin only"), http.StatusForbidden},
		{"not found", NotFound("Project not found"), http.StatusNotFound},
		{"method", MethodNotAllowed(http.MethodPost), http.StatusMethodNotAllowed},
		{"upstream", Upstream(nil, "store error: boom"), http.StatusInternalServerError},
		{"config", ConfigurationMissing("Missing env"), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("create: %w", Forbidden("Admin only")), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func TestMessageOf(t *testing.T) {
	assert.Equal(t, "Use POST", MessageOf(MethodNotAllowed(http.MethodPost)))
	assert.Equal(t, "Admin only", MessageOf(fmt.Errorf("gate: %w", Forbidden("Admin only"))))
	assert.Equal(t, "boom", MessageOf(errors.New("boom")))
}

func TestUpstreamUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Upstream(cause, "store select projects error: %v", cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, Is(err, KindUpstream))
	assert.False(t, Is(nil, KindUpstream))
	assert.Equal(t, "upstream_failure", KindOf(err).String())
}
