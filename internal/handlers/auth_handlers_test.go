package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nurbakyt/phone_app/internal/models"
	"github.com/nurbakyt/phone_app/internal/mykafka"
	"github.com/nurbakyt/phone_app/internal/ratelimit"
	"github.com/nurbakyt/phone_app/internal/repo"
	"github.com/nurbakyt/phone_app/internal/service"
	"github.com/nurbakyt/phone_app/internal/tokens"
)

func InitTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.RefreshToken{}, &models.PhoneFeatures{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	return db
}

type authEnv struct {
	E     *echo.Echo
	H     *AuthHandler
	Codec *tokens.Codec
}

func newAuthEnv(t *testing.T) *authEnv {
	db := InitTestDB(t)
	codec := &tokens.Codec{Secret: []byte("test_secret")}

	svc := &service.AuthService{
		Repo:       &repo.GormRepo{DB: db},
		Codec:      codec,
		Limiter:    ratelimit.NewSlidingWindow(3, 200*time.Second),
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
		OpTimeout:  5 * time.Second,
	}

	return &authEnv{
		E:     echo.New(),
		H:     &AuthHandler{Svc: svc, Producer: &mykafka.Producer{}},
		Codec: codec,
	}
}

func (env *authEnv) jsonRequest(t *testing.T, path string, body interface{}) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return rec, env.E.NewContext(req, rec)
}

func (env *authEnv) formRequest(path string, form url.Values) (*httptest.ResponseRecorder, echo.Context) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	return rec, env.E.NewContext(req, rec)
}

func (env *authEnv) register(t *testing.T, username, email, password string) {
	t.Helper()
	rec, c := env.jsonRequest(t, "/auth/register", map[string]string{
		"first_name": "Test",
		"username":   username,
		"email":      email,
		"password":   password,
	})
	require.NoError(t, env.H.Register(c))
	require.Equal(t, http.StatusOK, rec.Code)
}

func (env *authEnv) login(t *testing.T, username, password string) (string, string) {
	t.Helper()
	rec, c := env.formRequest("/auth/login", url.Values{
		"username": {username},
		"password": {password},
	})
	require.NoError(t, env.H.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "bearer", resp.TokenType)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
	return resp.AccessToken, resp.RefreshToken
}

func httpErrorCode(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError, got %v", err)
	return he.Code
}

func TestRegisterAndDuplicates(t *testing.T) {
	env := newAuthEnv(t)
	env.register(t, "alice", "alice@x.com", "secret1")

	_, c := env.jsonRequest(t, "/auth/register", map[string]string{
		"first_name": "Other",
		"username":   "alice",
		"email":      "other@x.com",
		"password":   "pw",
	})
	err := env.H.Register(c)
	require.Equal(t, http.StatusBadRequest, httpErrorCode(t, err))

	_, c = env.jsonRequest(t, "/auth/register", map[string]string{
		"first_name": "Other",
		"username":   "other",
		"email":      "alice@x.com",
		"password":   "pw",
	})
	err = env.H.Register(c)
	require.Equal(t, http.StatusBadRequest, httpErrorCode(t, err))
}

func TestRegisterMissingFields(t *testing.T) {
	env := newAuthEnv(t)

	_, c := env.jsonRequest(t, "/auth/register", map[string]string{"username": "x"})
	err := env.H.Register(c)
	require.Equal(t, http.StatusBadRequest, httpErrorCode(t, err))
}

func TestLoginReturnsTokenPair(t *testing.T) {
	env := newAuthEnv(t)
	env.register(t, "alice", "alice@x.com", "secret1")

	access, refresh := env.login(t, "alice", "secret1")
	require.NotEqual(t, access, refresh)

	claims, err := env.Codec.Decode(access)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Subject)

	claims, err = env.Codec.Decode(refresh)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Subject)
}

func TestLoginFailuresLookTheSame(t *testing.T) {
	env := newAuthEnv(t)
	env.register(t, "alice", "alice@x.com", "secret1")

	_, c := env.formRequest("/auth/login", url.Values{
		"username": {"alice"},
		"password": {"wrong"},
	})
	errWrongPassword := env.H.Login(c)

	_, c = env.formRequest("/auth/login", url.Values{
		"username": {"nobody"},
		"password": {"secret1"},
	})
	errUnknownUser := env.H.Login(c)

	require.Equal(t, http.StatusUnauthorized, httpErrorCode(t, errWrongPassword))
	require.Equal(t, http.StatusUnauthorized, httpErrorCode(t, errUnknownUser))
	require.Equal(t,
		errWrongPassword.(*echo.HTTPError).Message,
		errUnknownUser.(*echo.HTTPError).Message,
	)
}

func TestLoginRateLimited(t *testing.T) {
	env := newAuthEnv(t)
	env.register(t, "alice", "alice@x.com", "secret1")

	form := url.Values{
		"username": {"alice"},
		"password": {"wrong"},
	}

	// three attempts, success or failure, consume the budget
	for i := 0; i < 3; i++ {
		_, c := env.formRequest("/auth/login", form)
		err := env.H.Login(c)
		require.Equal(t, http.StatusUnauthorized, httpErrorCode(t, err))
	}

	// fourth is throttled even with correct credentials
	_, c := env.formRequest("/auth/login", url.Values{
		"username": {"alice"},
		"password": {"secret1"},
	})
	err := env.H.Login(c)
	require.Equal(t, http.StatusTooManyRequests, httpErrorCode(t, err))
}

func TestLogoutOnceThenInvalid(t *testing.T) {
	env := newAuthEnv(t)
	env.register(t, "alice", "alice@x.com", "secret1")
	_, refresh := env.login(t, "alice", "secret1")

	rec, c := env.formRequest("/auth/logout", url.Values{"refresh_token": {refresh}})
	require.NoError(t, env.H.Logout(c))
	require.Equal(t, http.StatusOK, rec.Code)

	_, c = env.formRequest("/auth/logout", url.Values{"refresh_token": {refresh}})
	err := env.H.Logout(c)
	require.Equal(t, http.StatusUnauthorized, httpErrorCode(t, err))
}

func TestRefresh(t *testing.T) {
	env := newAuthEnv(t)
	env.register(t, "alice", "alice@x.com", "secret1")
	_, refresh := env.login(t, "alice", "secret1")

	rec, c := env.formRequest("/auth/refresh", url.Values{"refresh_token": {refresh}})
	require.NoError(t, env.H.Refresh(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "bearer", resp.TokenType)

	claims, err := env.Codec.Decode(resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Subject)

	_, c = env.formRequest("/auth/refresh", url.Values{"refresh_token": {"some-random-string"}})
	require.Equal(t, http.StatusUnauthorized, httpErrorCode(t, env.H.Refresh(c)))
}

func TestLoginLogoutRefreshScenario(t *testing.T) {
	env := newAuthEnv(t)

	env.register(t, "alice", "alice@x.com", "secret1")
	_, refresh := env.login(t, "alice", "secret1")

	rec, c := env.formRequest("/auth/logout", url.Values{"refresh_token": {refresh}})
	require.NoError(t, env.H.Logout(c))
	require.Equal(t, http.StatusOK, rec.Code)

	_, c = env.formRequest("/auth/refresh", url.Values{"refresh_token": {refresh}})
	err := env.H.Refresh(c)
	require.Equal(t, http.StatusUnauthorized, httpErrorCode(t, err))
}
