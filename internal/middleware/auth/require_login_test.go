package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/nurbakyt/phone_app/internal/tokens"
)

func runGuard(t *testing.T, header string) (error, echo.Context) {
	t.Helper()
	codec := &tokens.Codec{Secret: []byte("test_secret")}
	guard := &Guard{Codec: codec}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	return guard.RequireLogin(next)(c), c
}

func TestRequireLoginValidToken(t *testing.T) {
	codec := &tokens.Codec{Secret: []byte("test_secret")}
	tok, err := codec.Encode("alice", time.Hour)
	require.NoError(t, err)

	err, c := runGuard(t, "Bearer "+tok)
	require.NoError(t, err)
	require.Equal(t, "alice", c.Get("username"))
}

func TestRequireLoginMissingToken(t *testing.T) {
	err, _ := runGuard(t, "")
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestRequireLoginExpiredToken(t *testing.T) {
	codec := &tokens.Codec{Secret: []byte("test_secret")}
	tok, err := codec.Encode("alice", -time.Minute)
	require.NoError(t, err)

	err, _ = runGuard(t, "Bearer "+tok)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestRequireLoginGarbageToken(t *testing.T) {
	err, _ := runGuard(t, "Bearer not.a.jwt")
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, he.Code)
}
