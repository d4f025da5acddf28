package auth

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/ecommerce/internal/tokens"
)

var secret = []byte("test-jwt-secret")

func newServer() *echo.Echo {
	e := echo.New()
	a := NewBearerAuth(secret)
	e.GET("/me", func(c echo.Context) error {
		id, ok := UserID(c)
		if !ok {
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.String(http.StatusOK, strconv.FormatUint(uint64(id), 10))
	}, a.RequireAuth)
	return e
}

func do(e *echo.Echo, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func signed(t *testing.T, claims jwt.Claims, method jwt.SigningMethod, key any) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestRequireAuth_ValidToken(t *testing.T) {
	e := newServer()
	tok, _, err := tokens.Issue(42, secret, time.Hour, time.Now())
	require.NoError(t, err)

	rec := do(e, "Bearer "+tok)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "42", rec.Body.String())
}

func TestRequireAuth_Rejects(t *testing.T) {
	now := time.Now()
	valid, _, err := tokens.Issue(1, secret, time.Hour, now)
	require.NoError(t, err)
	otherSecret, _, err := tokens.Issue(1, []byte("other"), time.Hour, now)
	require.NoError(t, err)
	expired, _, err := tokens.Issue(1, secret, time.Minute, now.Add(-time.Hour))
	require.NoError(t, err)

	noExp := signed(t, jwt.RegisteredClaims{Subject: "1"}, jwt.SigningMethodHS256, secret)
	badSubject := signed(t, jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}, jwt.SigningMethodHS256, secret)
	hs512 := signed(t, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}, jwt.SigningMethodHS512, secret)

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Token " + valid},
		{name: "garbage", header: "Bearer not-a-jwt"},
		{name: "other secret", header: "Bearer " + otherSecret},
		{name: "expired", header: "Bearer " + expired},
		{name: "no expiry", header: "Bearer " + noExp},
		{name: "non numeric subject", header: "Bearer " + badSubject},
		{name: "unexpected algorithm", header: "Bearer " + hs512},
	}

	e := newServer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, tt.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestUserID_Unset(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	_, ok := UserID(c)
	assert.False(t, ok)
}
