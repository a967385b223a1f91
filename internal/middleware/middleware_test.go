package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/config"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type mwErrorResponse struct {
	Error string `json:"error"`
}

type mwOKResponse struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func mustMakeJWT(t *testing.T, secret string, claims jwt.MapClaims, method jwt.SigningMethod) string {
	t.Helper()
	tok := jwt.NewWithClaims(method, claims)
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func newTestEcho(mw ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		uid, _ := c.Get(CtxUserIDKey).(string)
		role, _ := c.Get(CtxUserRoleKey).(string)
		return c.JSON(http.StatusOK, mwOKResponse{UserID: uid, Role: role})
	}, mw...)
	return e
}

func doGet(e *echo.Echo, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuthJWT_OK(t *testing.T) {
	e := newTestEcho(AuthJWT(config.Config{JWTSecret: testSecret}))
	token := mustMakeJWT(t, testSecret, jwt.MapClaims{
		"sub":  "user-42",
		"role": RoleAdmin,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}, jwt.SigningMethodHS256)

	rec := doGet(e, "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)

	var out mwOKResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, mwOKResponse{UserID: "user-42", Role: RoleAdmin}, out)
}

func TestAuthJWT_DefaultsRoleToUser(t *testing.T) {
	e := newTestEcho(AuthJWT(config.Config{JWTSecret: testSecret}))
	token := mustMakeJWT(t, testSecret, jwt.MapClaims{"sub": float64(7)}, jwt.SigningMethodHS256)

	rec := doGet(e, "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)

	var out mwOKResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, mwOKResponse{UserID: "7", Role: RoleUser}, out)
}

func TestAuthJWT_Unauthorized(t *testing.T) {
	e := newTestEcho(AuthJWT(config.Config{JWTSecret: testSecret}))

	tests := []struct {
		name  string
		authz string
	}{
		{name: "missing header", authz: ""},
		{name: "not bearer", authz: "Basic abc"},
		{name: "empty token", authz: "Bearer  "},
		{name: "wrong secret", authz: "Bearer " + mustMakeJWT(t, "other", jwt.MapClaims{"sub": "u1"}, jwt.SigningMethodHS256)},
		{name: "wrong method", authz: "Bearer " + mustMakeJWT(t, testSecret, jwt.MapClaims{"sub": "u1"}, jwt.SigningMethodHS384)},
		{name: "expired", authz: "Bearer " + mustMakeJWT(t, testSecret, jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(-time.Minute).Unix()}, jwt.SigningMethodHS256)},
		{name: "empty sub", authz: "Bearer " + mustMakeJWT(t, testSecret, jwt.MapClaims{"sub": ""}, jwt.SigningMethodHS256)},
		{name: "unknown role", authz: "Bearer " + mustMakeJWT(t, testSecret, jwt.MapClaims{"sub": "u1", "role": "ROOT"}, jwt.SigningMethodHS256)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doGet(e, tt.authz)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			var out mwErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
			assert.Equal(t, "unauthorized", out.Error)
		})
	}
}

func TestAdminRoleGuard(t *testing.T) {
	e := newTestEcho(AuthJWT(config.Config{JWTSecret: testSecret}), AdminRoleGuard())

	user := mustMakeJWT(t, testSecret, jwt.MapClaims{"sub": "u1", "role": RoleUser}, jwt.SigningMethodHS256)
	rec := doGet(e, "Bearer "+user)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin := mustMakeJWT(t, testSecret, jwt.MapClaims{"sub": "a1", "role": RoleAdmin}, jwt.SigningMethodHS256)
	rec = doGet(e, "Bearer "+admin)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRole_AllowsListedRoles(t *testing.T) {
	e := newTestEcho(AuthJWT(config.Config{JWTSecret: testSecret}), RequireRole(RoleUser, RoleAdmin))

	for _, role := range []string{RoleUser, RoleAdmin} {
		tok := mustMakeJWT(t, testSecret, jwt.MapClaims{"sub": "u1", "role": role}, jwt.SigningMethodHS256)
		rec := doGet(e, "Bearer "+tok)
		assert.Equal(t, http.StatusOK, rec.Code, role)
	}
}
