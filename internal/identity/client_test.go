package identity

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pricofy/translation-desk/internal/apperrors"
	"github.com/pricofy/translation-desk/internal/storetest"
)

func newTestClient(t *testing.T) (*Client, *storetest.Server) {
	t.Helper()
	fake := storetest.New()
	t.Cleanup(fake.Close)

	client := New(Config{
		BaseURL:    fake.URL,
		APIKey:     "anon-key",
		ServiceKey: storetest.ServiceKey,
	}, zap.NewNop())
	return client, fake
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestVerify_Success(t *testing.T) {
	client, fake := newTestClient(t)
	fake.AddUser("tok-1", storetest.User{ID: "u-1", Email: "ana@example.com"})

	user, err := client.Verify(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
	assert.Equal(t, "ana@example.com", user.Email)
}

func TestVerify_ProviderUnreachable(t *testing.T) {
	client := New(Config{BaseURL: "http://127.0.0.1:1", APIKey: "anon-key", Timeout: time.Second}, zap.NewNop())

	_, err := client.Verify(context.Background(), "tok-1")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindUpstream), "an outage is not a bad session")
	assert.Contains(t, err.Error(), "Auth provider error: ")
}

func TestVerify_RejectedPropagatesProviderText(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.Verify(context.Background(), "unknown")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindUnauthenticated))
	assert.Contains(t, err.Error(), "Invalid session: ")
	assert.Contains(t, err.Error(), "unable to parse or verify signature")
}

func TestVerify_MissingUserID(t *testing.T) {
	client, fake := newTestClient(t)
	fake.AddUser("tok-blank", storetest.User{ID: "", Email: "ghost@example.com"})

	_, err := client.Verify(context.Background(), "tok-blank")
	require.Error(t, err)
	assert.Equal(t, "Invalid user", err.Error())
}

func TestVerify_ExpiredJWTRejectedLocally(t *testing.T) {
	client, fake := newTestClient(t)
	token := signedToken(t, time.Now().Add(-time.Hour))
	fake.AddUser(token, storetest.User{ID: "u-1"})

	_, err := client.Verify(context.Background(), token)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindUnauthenticated))
	assert.Empty(t, fake.Calls())
}

func TestVerify_LiveJWTGoesToProvider(t *testing.T) {
	client, fake := newTestClient(t)
	token := signedToken(t, time.Now().Add(time.Hour))
	fake.AddUser(token, storetest.User{ID: "u-1"})

	user, err := client.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
	assert.Len(t, fake.Calls(), 1)
}

func TestListUsers_Paging(t *testing.T) {
	client, fake := newTestClient(t)
	fake.AddUser("", storetest.User{ID: "u-1", Email: "a@example.com"})
	fake.AddUser("", storetest.User{ID: "u-2", Email: "b@example.com"})
	fake.AddUser("", storetest.User{ID: "u-3", Email: "c@example.com"})

	first, err := client.ListUsers(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "u-1", first[0].ID)

	second, err := client.ListUsers(context.Background(), 2, 2)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "u-3", second[0].ID)
	assert.NotNil(t, second[0].CreatedAt)
}

func TestListUsers_Failure(t *testing.T) {
	client, fake := newTestClient(t)
	fake.FailNext(http.MethodGet, "auth/v1/admin/users", http.StatusInternalServerError, `{"msg":"boom"}`)

	_, err := client.ListUsers(context.Background(), 1, 200)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindUpstream))
	assert.Contains(t, err.Error(), `{"msg":"boom"}`)
}
