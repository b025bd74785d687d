package handler

import (
	"context"
	"strings"

	"github.com/pricofy/translation-desk/internal/apperrors"
	"github.com/pricofy/translation-desk/internal/config"
	"github.com/pricofy/translation-desk/internal/domain"
)

type roleResponse struct {
	Role   domain.Role `json:"role"`
	UserID string      `json:"userId"`
	Email  string      `json:"email"`
}

// GetRole returns the caller's role under the configured lookup policy.
func (a *App) GetRole(ctx context.Context, req *Request) (any, error) {
	p, err := a.gate.Authenticate(ctx, req.BearerToken())
	if err != nil {
		return nil, err
	}
	return roleResponse{Role: p.Role, UserID: p.UserID, Email: p.Email}, nil
}

// GetMyRole returns the caller's role. A failed role lookup is reported
// instead of falling back to the baseline role.
func (a *App) GetMyRole(ctx context.Context, req *Request) (any, error) {
	p, err := a.gate.AuthenticateWith(ctx, req.BearerToken(), a.resolver.WithPolicy(config.RoleLookupFailClosed))
	if err != nil {
		return nil, err
	}
	return roleResponse{Role: p.Role, UserID: p.UserID, Email: p.Email}, nil
}

type setRoleBody struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// AdminSetRole stores the role of a user.
func (a *App) AdminSetRole(ctx context.Context, req *Request) (any, error) {
	if _, err := a.gate.Authorize(ctx, req.BearerToken(), domain.RoleAdmin); err != nil {
		return nil, err
	}

	var body setRoleBody
	if err := req.Decode(&body); err != nil {
		return nil, err
	}
	userID := strings.TrimSpace(body.UserID)
	if userID == "" || body.Role == "" {
		return nil, apperrors.BadRequest("Missing userId or role")
	}
	role, err := domain.ParseRole(body.Role)
	if err != nil {
		return nil, apperrors.BadRequest("Invalid role")
	}

	if err := a.resolver.Set(ctx, userID, role); err != nil {
		return nil, err
	}
	return OK{OK: true}, nil
}

type listUsersResponse struct {
	Users     []domain.UserWithRole `json:"users"`
	Truncated bool                  `json:"truncated"`
}

// AdminListUsers lists identity provider users joined with their roles.
func (a *App) AdminListUsers(ctx context.Context, req *Request) (any, error) {
	if _, err := a.gate.Authorize(ctx, req.BearerToken(), domain.RoleAdmin); err != nil {
		return nil, err
	}

	listing, err := a.directory.List(ctx)
	if err != nil {
		return nil, err
	}
	users := listing.Users
	if users == nil {
		users = []domain.UserWithRole{}
	}
	return listUsersResponse{Users: users, Truncated: listing.Truncated}, nil
}
