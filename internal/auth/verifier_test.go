package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"

	"github.com/craverscorner/food-ordering-website/internal/common"
)

var testSecret = []byte("test-signing-secret")

func fixedNow() time.Time {
	return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
}

func signToken(t *testing.T, mutate func(b *jwt.Builder) *jwt.Builder) string {
	t.Helper()
	builder := jwt.NewBuilder().
		Subject("user-1").
		Issuer("food-ordering").
		IssuedAt(fixedNow().Add(-time.Minute)).
		Expiration(fixedNow().Add(time.Hour)).
		Claim("email", "ada@example.com")
	if mutate != nil {
		builder = mutate(builder)
	}
	tok, err := builder.Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, testSecret))
	require.NoError(t, err)
	return string(signed)
}

func testVerifier() Verifier {
	return Verifier{Secret: testSecret, Issuer: "food-ordering", Now: fixedNow}
}

func TestVerifyValidToken(t *testing.T) {
	principal, err := testVerifier().Verify(signToken(t, nil))
	require.NoError(t, err)
	require.Equal(t, "user-1", principal.UserID)
	require.Equal(t, "ada@example.com", principal.Email)
	require.Equal(t, "customer", principal.Role)
	require.False(t, principal.IsAdmin())
}

func TestVerifyAdminRoleClaim(t *testing.T) {
	token := signToken(t, func(b *jwt.Builder) *jwt.Builder {
		return b.Claim("role", "admin")
	})
	principal, err := testVerifier().Verify(token)
	require.NoError(t, err)
	require.True(t, principal.IsAdmin())
}

func TestVerifyExpiredToken(t *testing.T) {
	token := signToken(t, func(b *jwt.Builder) *jwt.Builder {
		return b.Expiration(fixedNow().Add(-time.Minute))
	})
	_, err := testVerifier().Verify(token)
	require.Error(t, err)
}

func TestVerifyWrongSecret(t *testing.T) {
	v := Verifier{Secret: []byte("other-secret"), Issuer: "food-ordering", Now: fixedNow}
	_, err := v.Verify(signToken(t, nil))
	require.Error(t, err)
}

func TestVerifyWrongIssuer(t *testing.T) {
	token := signToken(t, func(b *jwt.Builder) *jwt.Builder {
		return b.Issuer("someone-else")
	})
	_, err := testVerifier().Verify(token)
	require.Error(t, err)
}

func TestVerifyGarbage(t *testing.T) {
	_, err := testVerifier().Verify("not-a-token")
	require.Error(t, err)
	_, err = testVerifier().Verify("")
	require.Error(t, err)
}

func TestRequireAuthMiddleware(t *testing.T) {
	m := Middleware{Verifier: testVerifier()}
	var seen common.Principal
	handler := m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = common.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, nil))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "user-1", seen.UserID)
}

func TestRequireRoleMiddleware(t *testing.T) {
	m := Middleware{Verifier: testVerifier()}
	handler := m.RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, nil))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	admin := signToken(t, func(b *jwt.Builder) *jwt.Builder { return b.Claim("role", "admin") })
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticatePassThrough(t *testing.T) {
	m := Middleware{Verifier: testVerifier()}
	handler := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := common.UserID(r.Context()); ok {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, nil))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
