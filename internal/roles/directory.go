package roles

import (
	"context"

	"go.uber.org/zap"

	"github.com/pricofy/translation-desk/internal/domain"
)

// UserLister pages through the identity provider's users.
type UserLister interface {
	ListUsers(ctx context.Context, page, perPage int) ([]domain.User, error)
}

// Directory joins identity provider users with their stored roles.
type Directory struct {
	users    UserLister
	roles    *Resolver
	pageSize int
	maxPages int
	logger   *zap.Logger
}

// Listing is the result of Directory.List.
type Listing struct {
	Users []domain.UserWithRole
	// Truncated is set when the page limit was reached on a full page,
	// so more users may exist than were returned.
	Truncated bool
}

// NewDirectory creates a directory reading up to maxPages pages of pageSize users.
func NewDirectory(users UserLister, roles *Resolver, pageSize, maxPages int, logger *zap.Logger) *Directory {
	if pageSize <= 0 {
		pageSize = 200
	}
	if maxPages <= 0 {
		maxPages = 1
	}
	return &Directory{
		users:    users,
		roles:    roles,
		pageSize: pageSize,
		maxPages: maxPages,
		logger:   logger.Named("directory"),
	}
}

// List returns users with their materialized roles; absent roles are RoleUser.
func (d *Directory) List(ctx context.Context) (*Listing, error) {
	var users []domain.User
	truncated := false
	for page := 1; page <= d.maxPages; page++ {
		batch, err := d.users.ListUsers(ctx, page, d.pageSize)
		if err != nil {
			return nil, err
		}
		users = append(users, batch...)
		if len(batch) < d.pageSize {
			break
		}
		if page == d.maxPages {
			truncated = true
		}
	}

	if truncated {
		d.logger.Warn("User listing hit the page limit, result may be incomplete",
			zap.Int("page_size", d.pageSize),
			zap.Int("max_pages", d.maxPages))
	}

	roleMap, err := d.roles.All(ctx)
	if err != nil {
		return nil, err
	}

	listing := &Listing{
		Users:     make([]domain.UserWithRole, 0, len(users)),
		Truncated: truncated,
	}
	for _, u := range users {
		role, ok := roleMap[u.ID]
		if !ok {
			role = domain.RoleUser
		}
		listing.Users = append(listing.Users, domain.UserWithRole{
			ID:        u.ID,
			Email:     u.Email,
			CreatedAt: u.CreatedAt,
			Role:      role,
		})
	}
	return listing, nil
}
