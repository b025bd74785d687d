// Package store is a client for the PostgREST-style data store that holds
// projects, project rows and user roles.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pricofy/translation-desk/internal/apperrors"
	"github.com/pricofy/translation-desk/internal/logging"
)

// DefaultTimeout is the maximum time to wait for a store response.
const DefaultTimeout = 30 * time.Second

const restPrefix = "/rest/v1/"

// Client issues collection requests against the store with the service credential.
// It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	serviceKey string
	logger     *zap.Logger
}

// Config holds the settings for a store client.
type Config struct {
	BaseURL    string // e.g. "https://xyz.supabase.co"
	ServiceKey string
	Timeout    time.Duration
}

// New creates a store client.
func New(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		serviceKey: cfg.ServiceKey,
		logger:     logger.Named("store"),
	}
}

// Select reads rows of table matching q into out.
func (c *Client) Select(ctx context.Context, table string, q *Query, out any) error {
	resp, err := c.do(ctx, "select", http.MethodGet, table, q.Values(), nil, "")
	if err != nil {
		return err
	}
	return decode(resp, table, out)
}

// Insert adds rows to table and decodes the stored representation into out.
// rows should marshal to a JSON array.
func (c *Client) Insert(ctx context.Context, table string, rows any, out any) error {
	resp, err := c.do(ctx, "insert", http.MethodPost, table, nil, rows, "return=representation")
	if err != nil {
		return err
	}
	return decode(resp, table, out)
}

// Update applies patch to the rows of table matching q. When out is non-nil
// the updated rows are decoded into it.
func (c *Client) Update(ctx context.Context, table string, q *Query, patch any, out any) error {
	if !q.HasFilters() {
		return fmt.Errorf("refusing to update every row of %s", table)
	}
	prefer := "return=minimal"
	if out != nil {
		prefer = "return=representation"
	}
	resp, err := c.do(ctx, "update", http.MethodPatch, table, q.Values(), patch, prefer)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decode(resp, table, out)
}

// Delete removes the rows of table matching q and returns how many matched.
// Matching zero rows is not an error.
func (c *Client) Delete(ctx context.Context, table string, q *Query) (int, error) {
	if !q.HasFilters() {
		return 0, fmt.Errorf("refusing to delete every row of %s", table)
	}
	resp, err := c.do(ctx, "delete", http.MethodDelete, table, q.Values(), nil, "return=representation")
	if err != nil {
		return 0, err
	}
	if len(bytes.TrimSpace(resp)) == 0 {
		return 0, nil
	}
	var deleted []json.RawMessage
	if err := json.Unmarshal(resp, &deleted); err != nil {
		return 0, fmt.Errorf("failed to parse %s delete response: %w", table, err)
	}
	return len(deleted), nil
}

// Upsert inserts rows, merging with existing rows that share onConflict.
func (c *Client) Upsert(ctx context.Context, table string, rows any, onConflict string) error {
	params := url.Values{}
	params.Set("on_conflict", onConflict)
	_, err := c.do(ctx, "upsert", http.MethodPost, table, params, rows, "resolution=merge-duplicates,return=minimal")
	return err
}

// do sends one request and returns the response body of a 2xx answer.
// Any other status becomes an upstream failure carrying the body verbatim.
func (c *Client) do(ctx context.Context, op, method, table string, params url.Values, body any, prefer string) ([]byte, error) {
	endpoint := c.baseURL + restPrefix + table
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s %s body: %w", op, table, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Store request failed",
			zap.String("op", op),
			zap.String("table", table),
			zap.String("error", logging.SanitizeError(err)))
		return nil, apperrors.Upstream(err, "Store %s %s error: %v", op, table, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Upstream(err, "Store %s %s error: failed to read response: %v", op, table, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("Store returned error",
			zap.String("op", op),
			zap.String("table", table),
			zap.Int("status", resp.StatusCode),
			zap.String("body", logging.Sanitize(string(respBody))))
		return nil, apperrors.Upstream(nil, "Store %s %s error: %s", op, table, string(respBody))
	}

	c.logger.Debug("Store request completed",
		zap.String("op", op),
		zap.String("table", table),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	return respBody, nil
}

func decode(body []byte, table string, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.Upstream(err, "Store %s response could not be parsed: %v", table, err)
	}
	return nil
}
