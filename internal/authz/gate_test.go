package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pricofy/translation-desk/internal/apperrors"
	"github.com/pricofy/translation-desk/internal/domain"
)

type mockVerifier struct {
	users map[string]*domain.User
	calls int
}

func (m *mockVerifier) Verify(_ context.Context, token string) (*domain.User, error) {
	m.calls++
	if u, ok := m.users[token]; ok {
		return u, nil
	}
	return nil, apperrors.Unauthenticated("Invalid session: bad token")
}

type mockRoles struct {
	roles map[string]domain.Role
	err   error
	calls int
}

func (m *mockRoles) Resolve(_ context.Context, userID string) (domain.Role, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	if r, ok := m.roles[userID]; ok {
		return r, nil
	}
	return domain.RoleUser, nil
}

func newGate() (*Gate, *mockVerifier, *mockRoles) {
	v := &mockVerifier{users: map[string]*domain.User{
		"tok-admin":    {ID: "u-admin", Email: "admin@example.com"},
		"tok-reviewer": {ID: "u-rev"},
		"tok-user":     {ID: "u-user"},
	}}
	r := &mockRoles{roles: map[string]domain.Role{
		"u-admin": domain.RoleAdmin,
		"u-rev":   domain.RoleReviewer,
	}}
	return NewGate(v, r, zap.NewNop()), v, r
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		allowed  []domain.Role
		wantKind apperrors.Kind
		wantRole domain.Role
		wantErr  bool
	}{
		{name: "missing token", token: "", allowed: []domain.Role{domain.RoleAdmin}, wantErr: true, wantKind: apperrors.KindUnauthenticated},
		{name: "invalid token", token: "nope", allowed: []domain.Role{domain.RoleAdmin}, wantErr: true, wantKind: apperrors.KindUnauthenticated},
		{name: "user on admin op", token: "tok-user", allowed: []domain.Role{domain.RoleAdmin}, wantErr: true, wantKind: apperrors.KindForbidden},
		{name: "reviewer on admin op", token: "tok-reviewer", allowed: []domain.Role{domain.RoleAdmin}, wantErr: true, wantKind: apperrors.KindForbidden},
		{name: "admin on admin op", token: "tok-admin", allowed: []domain.Role{domain.RoleAdmin}, wantRole: domain.RoleAdmin},
		{name: "reviewer on review op", token: "tok-reviewer", allowed: []domain.Role{domain.RoleReviewer, domain.RoleAdmin}, wantRole: domain.RoleReviewer},
		{name: "any role", token: "tok-user", wantRole: domain.RoleUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate, _, _ := newGate()
			p, err := gate.Authorize(context.Background(), tt.token, tt.allowed...)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, apperrors.KindOf(err))
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRole, p.Role)
		})
	}
}

func TestAuthorize_MissingTokenMakesNoCalls(t *testing.T) {
	gate, v, r := newGate()

	_, err := gate.Authorize(context.Background(), "", domain.RoleAdmin)
	require.Error(t, err)
	assert.Equal(t, "Missing Authorization Bearer token", err.Error())
	assert.Zero(t, v.calls)
	assert.Zero(t, r.calls)
}

func TestAuthorize_ForbiddenMessages(t *testing.T) {
	gate, _, _ := newGate()

	_, err := gate.Authorize(context.Background(), "tok-user", domain.RoleAdmin)
	assert.Equal(t, "Admin only", err.Error())

	_, err = gate.Authorize(context.Background(), "tok-user", domain.RoleReviewer, domain.RoleAdmin)
	assert.Equal(t, "Requires role: reviewer or admin", err.Error())
}

func TestAuthenticate_RoleErrorPropagates(t *testing.T) {
	gate, _, r := newGate()
	r.err = apperrors.Upstream(errors.New("down"), "Role lookup failed: down")

	_, err := gate.Authenticate(context.Background(), "tok-admin")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindUpstream))
}

func TestAuthenticateWith(t *testing.T) {
	gate, _, _ := newGate()
	strict := &mockRoles{err: apperrors.Upstream(nil, "Role lookup failed: down")}

	_, err := gate.AuthenticateWith(context.Background(), "tok-admin", strict)
	require.Error(t, err)
	assert.Equal(t, 1, strict.calls)

	p, err := gate.Authenticate(context.Background(), "tok-admin")
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", p.Email)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"Bearer  abc ", "abc"},
		{"bearer abc", ""},
		{"Basic dXNlcjpwYXNz", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, BearerToken(tt.header))
		})
	}
}
