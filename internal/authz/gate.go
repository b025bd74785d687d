// Package authz is the authorization gate shared by every role-restricted
// operation: verify the caller's token, resolve its role, check the role.
package authz

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/pricofy/translation-desk/internal/apperrors"
	"github.com/pricofy/translation-desk/internal/domain"
)

// Verifier exchanges a bearer token for a user identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (*domain.User, error)
}

// RoleResolver looks up the role of a user id.
type RoleResolver interface {
	Resolve(ctx context.Context, userID string) (domain.Role, error)
}

// Principal is an authenticated caller.
type Principal struct {
	UserID string
	Email  string
	Role   domain.Role
}

// Gate composes a Verifier and a RoleResolver.
type Gate struct {
	verifier Verifier
	roles    RoleResolver
	logger   *zap.Logger
}

// NewGate creates a gate.
func NewGate(verifier Verifier, roles RoleResolver, logger *zap.Logger) *Gate {
	return &Gate{
		verifier: verifier,
		roles:    roles,
		logger:   logger.Named("authz"),
	}
}

// Authenticate verifies token and resolves the caller's role.
func (g *Gate) Authenticate(ctx context.Context, token string) (*Principal, error) {
	return g.authenticate(ctx, token, g.roles)
}

// AuthenticateWith is Authenticate with a different role resolver, for
// operations that need another lookup failure policy.
func (g *Gate) AuthenticateWith(ctx context.Context, token string, roles RoleResolver) (*Principal, error) {
	return g.authenticate(ctx, token, roles)
}

// Authorize authenticates token and rejects the caller unless its role is
// one of allowed. With no allowed roles any authenticated caller passes.
func (g *Gate) Authorize(ctx context.Context, token string, allowed ...domain.Role) (*Principal, error) {
	p, err := g.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	if len(allowed) == 0 {
		return p, nil
	}
	for _, r := range allowed {
		if p.Role == r {
			return p, nil
		}
	}

	g.logger.Info("Caller role not allowed",
		zap.String("user_id", p.UserID),
		zap.String("role", string(p.Role)))
	return nil, forbidden(allowed)
}

func (g *Gate) authenticate(ctx context.Context, token string, roles RoleResolver) (*Principal, error) {
	if token == "" {
		return nil, apperrors.Unauthenticated("Missing Authorization Bearer token")
	}

	user, err := g.verifier.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	role, err := roles.Resolve(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &Principal{UserID: user.ID, Email: user.Email, Role: role}, nil
}

func forbidden(allowed []domain.Role) error {
	if len(allowed) == 1 && allowed[0] == domain.RoleAdmin {
		return apperrors.Forbidden("Admin only")
	}
	names := make([]string, len(allowed))
	for i, r := range allowed {
		names[i] = string(r)
	}
	return apperrors.Forbidden("Requires role: %s", strings.Join(names, " or "))
}

// BearerToken extracts the token from an Authorization header value.
// It returns "" unless the value uses the Bearer scheme.
func BearerToken(header string) string {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}
