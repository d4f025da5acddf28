package auth

import (
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/ecommerce/internal/logging"
	"github.com/Skotchmaster/ecommerce/internal/tokens"
)

const (
	CtxClaims = "claims"
	CtxUserID = "user_id"
)

const msgUnauthorized = "Missing or invalid token"

type BearerAuth struct {
	secret []byte
	jwt    echo.MiddlewareFunc
}

func NewBearerAuth(secret []byte) *BearerAuth {
	a := &BearerAuth{secret: secret}
	a.jwt = echojwt.WithConfig(echojwt.Config{
		ContextKey:  CtxClaims,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return tokens.AccessClaimsFromToken(auth, a.secret)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			logging.FromContext(c.Request().Context()).Warn("auth_error", "status", 401, "reason", "bearer token rejected", "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, msgUnauthorized)
		},
	})
	return a
}

// RequireAuth verifies the bearer token and stores the caller's user id
// under CtxUserID.
func (a *BearerAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return a.jwt(func(c echo.Context) error {
		claims, ok := c.Get(CtxClaims).(*tokens.AccessClaims)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, msgUnauthorized)
		}
		id, err := claims.UserID()
		if err != nil {
			logging.FromContext(c.Request().Context()).Warn("auth_error", "status", 401, "reason", "bad subject", "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, msgUnauthorized)
		}
		c.Set(CtxUserID, id)
		return next(c)
	})
}

func UserID(c echo.Context) (uint, bool) {
	id, ok := c.Get(CtxUserID).(uint)
	return id, ok
}
