// Package identity talks to the external auth provider: it exchanges bearer
// tokens for user identities and lists users for administrators.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/pricofy/translation-desk/internal/apperrors"
	"github.com/pricofy/translation-desk/internal/domain"
	"github.com/pricofy/translation-desk/internal/logging"
)

// DefaultTimeout is the maximum time to wait for the auth provider.
const DefaultTimeout = 30 * time.Second

// Client calls the auth provider endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string // sent as apikey when verifying user tokens
	serviceKey string // admin credential for listing users
	now        func() time.Time
	logger     *zap.Logger
}

// Config holds the settings for an identity client.
type Config struct {
	BaseURL    string
	APIKey     string
	ServiceKey string
	Timeout    time.Duration
}

// New creates an identity client.
func New(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		serviceKey: cfg.ServiceKey,
		now:        time.Now,
		logger:     logger.Named("identity"),
	}
}

// Verify resolves the user behind token. A rejected token is Unauthenticated;
// failing to reach or read the provider is an Upstream failure.
func (c *Client) Verify(ctx context.Context, token string) (*domain.User, error) {
	if c.expired(token) {
		return nil, apperrors.Unauthenticated("Invalid session: token is expired")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Auth provider unreachable", zap.String("error", logging.SanitizeError(err)))
		return nil, apperrors.Upstream(err, "Auth provider error: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Upstream(err, "Auth provider error: failed to read response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Info("Token rejected by auth provider",
			zap.Int("status", resp.StatusCode),
			zap.String("body", logging.Sanitize(string(body))))
		return nil, apperrors.Unauthenticated("Invalid session: %s", string(body))
	}

	var user domain.User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, apperrors.Upstream(err, "Auth provider error: %v", err)
	}
	if user.ID == "" {
		return nil, apperrors.Unauthenticated("Invalid user")
	}

	return &user, nil
}

// ListUsers returns one page of users (1-based) from the admin endpoint.
func (c *Client) ListUsers(ctx context.Context, page, perPage int) ([]domain.User, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))
	endpoint := c.baseURL + "/auth/v1/admin/users?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Upstream(err, "Auth list users error: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Upstream(err, "Auth list users error: failed to read response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Auth provider returned error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", logging.Sanitize(string(body))))
		return nil, apperrors.Upstream(nil, "Auth list users error: %s", string(body))
	}

	var response struct {
		Users []domain.User `json:"users"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, apperrors.Upstream(err, "Auth list users response could not be parsed: %v", err)
	}

	return response.Users, nil
}

// expired reports whether token is a JWT whose exp claim has passed.
// Opaque or malformed tokens are left for the provider to judge.
func (c *Client) expired(token string) bool {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	claims := jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !c.now().Before(claims.ExpiresAt.Time)
}
