// Package roles resolves and maintains the role stored for each user.
package roles

import (
	"context"

	"go.uber.org/zap"

	"github.com/pricofy/translation-desk/internal/apperrors"
	"github.com/pricofy/translation-desk/internal/config"
	"github.com/pricofy/translation-desk/internal/domain"
	"github.com/pricofy/translation-desk/internal/logging"
	"github.com/pricofy/translation-desk/internal/store"
)

// Store is the subset of the store client the resolver needs.
type Store interface {
	Select(ctx context.Context, table string, q *store.Query, out any) error
	Upsert(ctx context.Context, table string, rows any, onConflict string) error
}

// Resolver maps user ids to roles.
type Resolver struct {
	store  Store
	policy config.RoleLookupPolicy
	logger *zap.Logger
}

// NewResolver creates a resolver applying policy when the lookup fails.
func NewResolver(s Store, policy config.RoleLookupPolicy, logger *zap.Logger) *Resolver {
	return &Resolver{
		store:  s,
		policy: policy,
		logger: logger.Named("roles"),
	}
}

// WithPolicy returns a copy of r using policy.
func (r *Resolver) WithPolicy(policy config.RoleLookupPolicy) *Resolver {
	clone := *r
	clone.policy = policy
	return &clone
}

// Policy returns the lookup failure policy in effect.
func (r *Resolver) Policy() config.RoleLookupPolicy {
	return r.policy
}

// Resolve returns the role of userID. A missing row yields RoleUser.
// A failed lookup yields RoleUser under fail-open and the error under fail-closed.
func (r *Resolver) Resolve(ctx context.Context, userID string) (domain.Role, error) {
	var rows []struct {
		Role string `json:"role"`
	}
	q := store.NewQuery().Eq("user_id", userID).Select("role")
	if err := r.store.Select(ctx, domain.TableUserRoles, q, &rows); err != nil {
		if r.policy == config.RoleLookupFailClosed {
			r.logger.Error("Role lookup failed",
				zap.String("user_id", userID),
				zap.String("error", logging.SanitizeError(err)))
			return "", apperrors.Upstream(err, "Role lookup failed: %s", apperrors.MessageOf(err))
		}
		r.logger.Warn("Role lookup failed, using baseline role",
			zap.String("user_id", userID),
			zap.String("error", logging.SanitizeError(err)))
		return domain.RoleUser, nil
	}

	if len(rows) == 0 || rows[0].Role == "" {
		return domain.RoleUser, nil
	}
	return r.normalize(userID, rows[0].Role), nil
}

// Set stores role for userID, replacing any existing row.
func (r *Resolver) Set(ctx context.Context, userID string, role domain.Role) error {
	rows := []domain.UserRole{{UserID: userID, Role: role}}
	if err := r.store.Upsert(ctx, domain.TableUserRoles, rows, "user_id"); err != nil {
		return err
	}
	r.logger.Info("Role updated", zap.String("user_id", userID), zap.String("role", string(role)))
	return nil
}

// All returns every stored role keyed by user id.
func (r *Resolver) All(ctx context.Context) (map[string]domain.Role, error) {
	var rows []struct {
		UserID string `json:"user_id"`
		Role   string `json:"role"`
	}
	if err := r.store.Select(ctx, domain.TableUserRoles, store.NewQuery().Select("user_id", "role"), &rows); err != nil {
		return nil, err
	}

	out := make(map[string]domain.Role, len(rows))
	for _, row := range rows {
		out[row.UserID] = r.normalize(row.UserID, row.Role)
	}
	return out, nil
}

func (r *Resolver) normalize(userID, value string) domain.Role {
	role, err := domain.ParseRole(value)
	if err != nil {
		r.logger.Warn("Unknown stored role, using baseline role",
			zap.String("user_id", userID),
			zap.String("role", value))
		return domain.RoleUser
	}
	return role
}
