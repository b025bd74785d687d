package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricofy/translation-desk/internal/apperrors"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://example.supabase.co/")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "service-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://example.supabase.co", cfg.Store.URL)
	assert.Equal(t, "service-key", cfg.Auth.APIKey, "auth key falls back to service key")
	assert.Equal(t, RoleLookupFailOpen, cfg.Auth.RoleLookupPolicy)
	assert.Equal(t, 200, cfg.Auth.UserPageSize)
	assert.Equal(t, 1, cfg.Auth.UserMaxPages)
	assert.Equal(t, "gpt-4o-mini", cfg.Translation.Model)
	assert.InDelta(t, 0.2, cfg.Translation.Temperature, 0.0001)
	assert.Equal(t, 120*time.Millisecond, cfg.Translation.Delay)
	assert.Equal(t, 30*time.Second, cfg.Store.Timeout)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoad_ExplicitAuthKey(t *testing.T) {
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "service-key")
	t.Setenv("SUPABASE_AUTH_API_KEY", "anon-key")
	t.Setenv("ROLE_LOOKUP_POLICY", "fail-closed")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "anon-key", cfg.Auth.APIKey)
	assert.Equal(t, RoleLookupFailClosed, cfg.Auth.RoleLookupPolicy)
}

func TestLoad_InvalidPolicy(t *testing.T) {
	t.Setenv("ROLE_LOOKUP_POLICY", "maybe")

	_, err := Load()
	assert.ErrorContains(t, err, "ROLE_LOOKUP_POLICY")
}

func TestLoad_InvalidPageSize(t *testing.T) {
	t.Setenv("ADMIN_USER_PAGE_SIZE", "0")

	_, err := Load()
	assert.ErrorContains(t, err, "ADMIN_USER_PAGE_SIZE")
}

func TestRequireStore(t *testing.T) {
	cfg := &Config{}
	err := cfg.RequireStore()
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindConfigurationMissing))
	assert.Contains(t, err.Error(), "SUPABASE_URL")
	assert.Contains(t, err.Error(), "SUPABASE_SERVICE_ROLE_KEY")

	cfg.Store = StoreConfig{URL: "https://example.supabase.co", ServiceKey: "k"}
	assert.NoError(t, cfg.RequireStore())
}

func TestRequireTranslation(t *testing.T) {
	cfg := &Config{}
	assert.True(t, apperrors.Is(cfg.RequireTranslation(), apperrors.KindConfigurationMissing))

	cfg.Translation.APIKey = "sk-test"
	assert.NoError(t, cfg.RequireTranslation())
}
