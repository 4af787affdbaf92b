package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grantscope/internal/domain"
)

type fakeKeyRepo struct {
	byHash map[string]string
}

func (f *fakeKeyRepo) GetPrincipalByHash(_ context.Context, hash string) (string, error) {
	if name, ok := f.byHash[hash]; ok {
		return name, nil
	}
	return "", domain.ErrNotFound("api key not found")
}

func (f *fakeKeyRepo) Insert(_ context.Context, hash, principalName string) error {
	f.byHash[hash] = principalName
	return nil
}

func hashFor(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func signToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	require.NoError(t, err)
	return signed
}

func authHandler(secret []byte, repo domain.APIKeyRepository) (http.Handler, *domain.Caller) {
	var seen domain.Caller
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = domain.CallerFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return Auth(secret, repo)(inner), &seen
}

func TestAuth_NoCredentials(t *testing.T) {
	h, _ := authHandler([]byte("secret"), nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "unauthorized")
}

func TestAuth_ValidJWT(t *testing.T) {
	secret := []byte("secret")
	h, seen := authHandler(secret, nil)

	token := signToken(t, secret, jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", seen.Name)
}

func TestAuth_RejectsBadJWT(t *testing.T) {
	h, _ := authHandler([]byte("secret"), nil)

	// Wrong signing secret.
	token := signToken(t, []byte("other-secret"), jwt.MapClaims{"sub": "alice"})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Expired token.
	token = signToken(t, []byte("secret"), jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_APIKey(t *testing.T) {
	repo := &fakeKeyRepo{byHash: map[string]string{}}
	require.NoError(t, repo.Insert(context.Background(), hashFor("collector-key"), "collector-1"))

	h, seen := authHandler([]byte("secret"), repo)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", "collector-key")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "collector-1", seen.Name)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", "wrong-key")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
