package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/nurbakyt/phone_app/internal/tokens"
)

// Guard validates bearer access tokens statelessly. The ledger is never
// consulted here; only refresh operations are stateful.
type Guard struct {
	Codec *tokens.Codec
}

func (g *Guard) RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
		}

		claims, err := g.Codec.Decode(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}

		c.Set("username", claims.Subject)
		return next(c)
	}
}
