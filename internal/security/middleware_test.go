package security_test

import (
	"auth-web-server/config"
	"auth-web-server/internal/model"
	"auth-web-server/internal/repository"
	"auth-web-server/internal/security"
	"auth-web-server/internal/service"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const externalIssuer = "https://idp.example.com"
const externalSecret = "external-idp-secret"

func newTestVerifiers(t *testing.T, authority *security.TokenAuthority) []security.TokenVerifier {
	t.Helper()
	return []security.TokenVerifier{
		security.NewSelfIssuedVerifier(authority, "auth-web-server"),
		security.NewExternalVerifier(&config.ExternalAuthConfig{
			Enabled:   true,
			SecretKey: externalSecret,
			Issuer:    externalIssuer,
		}),
	}
}

func echoClaimsHandler(t *testing.T, gotClaims **security.Claims) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := security.GetClaimsFromContext(r.Context())
		require.NoError(t, err)
		*gotClaims = claims
		w.WriteHeader(http.StatusOK)
	})
}

func externalToken(t *testing.T, secret string, role string) string {
	t.Helper()

	claims := jwt.MapClaims{
		"iss":  externalIssuer,
		"sub":  "external-user",
		"exp":  time.Now().Add(time.Hour).Unix(),
		"iat":  time.Now().Unix(),
		"role": role,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	authority := newTestAuthority(t)
	mw := security.AuthMiddleware(newTestVerifiers(t, authority))

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("запрос не должен был дойти до обработчика")
	})).ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, "Bearer", recorder.Header().Get("WWW-Authenticate"))
}

func TestAuthMiddlewareInvalidToken(t *testing.T) {
	authority := newTestAuthority(t)
	mw := security.AuthMiddleware(newTestVerifiers(t, authority))

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	request.Header.Set("Authorization", "Bearer garbage")

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("запрос не должен был дойти до обработчика")
	})).ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	authority := newTestAuthority(t)
	mw := security.AuthMiddleware(newTestVerifiers(t, authority))

	token, err := authority.CreateAccessToken("doctor1", model.RoleSpecialist, 15*time.Minute)
	require.NoError(t, err)

	var gotClaims *security.Claims
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	request.Header.Set("Authorization", "Bearer "+token)

	mw(echoClaimsHandler(t, &gotClaims)).ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, gotClaims)
	assert.Equal(t, "doctor1", gotClaims.Subject)
	assert.Equal(t, model.RoleSpecialist, gotClaims.Role)
}

func TestAuthMiddlewareRejectsRefreshToken(t *testing.T) {
	authority := newTestAuthority(t)
	mw := security.AuthMiddleware(newTestVerifiers(t, authority))

	refreshToken, err := authority.CreateRefreshToken("doctor1", model.RoleGP, time.Hour)
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	request.Header.Set("Authorization", "Bearer "+refreshToken)

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("refresh токен не должен проходить как access")
	})).ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestAuthMiddlewareRoleGate(t *testing.T) {
	authority := newTestAuthority(t)
	verifiers := newTestVerifiers(t, authority)

	token, err := authority.CreateAccessToken("nurse1", model.RoleGP, 15*time.Minute)
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/api/admin", nil)
	request.Header.Set("Authorization", "Bearer "+token)

	security.AuthMiddleware(verifiers, model.RoleAdmin, model.RoleAuditor)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("роль gp не должна проходить admin-гейт")
		})).ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusForbidden, recorder.Code)

	adminToken, err := authority.CreateAccessToken("admin1", model.RoleAdmin, 15*time.Minute)
	require.NoError(t, err)

	var gotClaims *security.Claims
	recorder = httptest.NewRecorder()
	request = httptest.NewRequest(http.MethodGet, "/api/admin", nil)
	request.Header.Set("Authorization", "Bearer "+adminToken)

	security.AuthMiddleware(verifiers, model.RoleAdmin, model.RoleAuditor)(
		echoClaimsHandler(t, &gotClaims)).ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestAuthMiddlewareExternalToken(t *testing.T) {
	authority := newTestAuthority(t)
	mw := security.AuthMiddleware(newTestVerifiers(t, authority))

	var gotClaims *security.Claims
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	request.Header.Set("Authorization", "Bearer "+externalToken(t, externalSecret, model.RoleAuditor))

	mw(echoClaimsHandler(t, &gotClaims)).ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, gotClaims)
	assert.Equal(t, "external-user", gotClaims.Subject)
	assert.Equal(t, model.RoleAuditor, gotClaims.Role)
}

func TestAuthMiddlewareExternalTokenUnknownRole(t *testing.T) {
	authority := newTestAuthority(t)
	mw := security.AuthMiddleware(newTestVerifiers(t, authority))

	for _, role := range []string{"", "superuser"} {
		var gotClaims *security.Claims
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		request.Header.Set("Authorization", "Bearer "+externalToken(t, externalSecret, role))

		mw(echoClaimsHandler(t, &gotClaims)).ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
		require.NotNil(t, gotClaims)
		// незнакомая стороннему провайдеру роль понижается до gp
		assert.Equal(t, model.RoleGP, gotClaims.Role)
	}
}

func TestAuthMiddlewareExternalTokenBadSignature(t *testing.T) {
	authority := newTestAuthority(t)
	mw := security.AuthMiddleware(newTestVerifiers(t, authority))

	// issuer совпадает, подпись нет: жёсткий отказ, а не fallthrough
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	request.Header.Set("Authorization", "Bearer "+externalToken(t, "wrong-secret", model.RoleGP))

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("токен с плохой подписью не должен проходить")
	})).ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := service.NewRateLimitService(
		&config.RateLimitConfig{Enabled: true},
		repository.NewMemoryRateLimitRepository(),
		nil,
	)
	mw := security.RateLimitMiddleware(limiter, "login")

	handlerCalls := 0
	wrapped := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalls++
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		recorder := httptest.NewRecorder()
		wrapped.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/api/auth", nil))
		assert.Equal(t, http.StatusOK, recorder.Code)
	}
	assert.Equal(t, 5, handlerCalls)

	recorder := httptest.NewRecorder()
	wrapped.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/api/auth", nil))

	assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
	assert.Equal(t, "300", recorder.Header().Get("Retry-After"))
	assert.Equal(t, "0", recorder.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, 5, handlerCalls)
}

func TestRateLimitMiddlewareDisabled(t *testing.T) {
	limiter := service.NewRateLimitService(
		&config.RateLimitConfig{Enabled: false},
		repository.NewMemoryRateLimitRepository(),
		nil,
	)
	wrapped := security.RateLimitMiddleware(limiter, "login")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	for i := 0; i < 20; i++ {
		recorder := httptest.NewRecorder()
		wrapped.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/api/auth", nil))
		assert.Equal(t, http.StatusOK, recorder.Code)
	}
}
