package service

import (
	"context"
	"errors"
	"time"

	"github.com/nurbakyt/phone_app/internal/hash"
	"github.com/nurbakyt/phone_app/internal/logging"
	"github.com/nurbakyt/phone_app/internal/models"
	"github.com/nurbakyt/phone_app/internal/ratelimit"
	"github.com/nurbakyt/phone_app/internal/repo"
	"github.com/nurbakyt/phone_app/internal/tokens"
)

var (
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrRateLimited        = errors.New("too many login attempts")
	ErrInvalidToken       = errors.New("invalid refresh token")
	ErrTimeout            = errors.New("store operation timed out")
)

// dummy bcrypt hash compared against when the username is unknown, so the
// failure path does the same work either way.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

type RegisterInput struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password  string
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService owns the refresh-token lifecycle. All durable state lives in the
// repo; the service itself keeps nothing between requests.
type AuthService struct {
	Repo    *repo.GormRepo
	Codec   *tokens.Codec
	Limiter ratelimit.Limiter

	AccessTTL  time.Duration
	RefreshTTL time.Duration
	OpTimeout  time.Duration
}

func (s *AuthService) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.OpTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return err
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) error {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		l.Error("register_failed", "reason", "cannot hash password", "error", err)
		return err
	}

	user := models.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: pwHash,
	}

	opctx, cancel := s.opCtx(ctx)
	defer cancel()

	if err := s.Repo.CreateUser(opctx, &user); err != nil {
		l.Warn("register_failed", "username", in.Username, "error", err)
		return classify(err)
	}

	l.Info("user_registered", "username", in.Username)
	return nil
}

// Login verifies credentials and issues an access/refresh pair, persisting the
// refresh token. The limiter is consulted before credentials are touched, and
// unknown-user and wrong-password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, clientKey, username, password string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	if s.Limiter != nil && !s.Limiter.Allow(clientKey) {
		l.Warn("login_throttled", "client", clientKey)
		return nil, ErrRateLimited
	}

	opctx, cancel := s.opCtx(ctx)
	defer cancel()

	user, err := s.Repo.FindUserByUsername(opctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			hash.CheckPassword(dummyHash, password)
			return nil, ErrInvalidCredentials
		}
		l.Error("login_failed", "error", err)
		return nil, classify(err)
	}

	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.Codec.Encode(user.Username, s.AccessTTL)
	if err != nil {
		l.Error("login_failed", "reason", "cannot sign access token", "error", err)
		return nil, err
	}

	refreshToken, err := s.Codec.Encode(user.Username, s.RefreshTTL)
	if err != nil {
		l.Error("login_failed", "reason", "cannot sign refresh token", "error", err)
		return nil, err
	}

	if err := s.Repo.StoreRefresh(opctx, refreshToken, user.ID); err != nil {
		l.Error("login_failed", "reason", "cannot persist refresh token", "error", err)
		return nil, classify(err)
	}

	l.Info("login_successful", "username", username)
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Logout revokes the refresh token. Only the first call for a given value
// succeeds; once the row is gone the token is invalid.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	opctx, cancel := s.opCtx(ctx)
	defer cancel()

	if err := s.Repo.RevokeRefresh(opctx, refreshToken); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrInvalidToken
		}
		l.Error("logout_failed", "error", err)
		return classify(err)
	}

	l.Info("logout_successful")
	return nil
}

// Refresh mints a new access token for the owner of a ledger-backed refresh
// token. The ledger is the source of truth for revocation, but a ledger hit
// whose embedded expiry has passed is rejected and pruned on the spot.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	opctx, cancel := s.opCtx(ctx)
	defer cancel()

	row, err := s.Repo.FindRefresh(opctx, refreshToken)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", ErrInvalidToken
		}
		l.Error("refresh_failed", "error", err)
		return "", classify(err)
	}

	if _, err := s.Codec.Decode(refreshToken); err != nil {
		if errors.Is(err, tokens.ErrExpired) {
			if rerr := s.Repo.RevokeRefresh(opctx, refreshToken); rerr != nil && !errors.Is(rerr, repo.ErrNotFound) {
				l.Warn("refresh_prune_failed", "error", rerr)
			}
		}
		return "", ErrInvalidToken
	}

	user, err := s.Repo.FindUserByID(opctx, row.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", ErrInvalidToken
		}
		l.Error("refresh_failed", "error", err)
		return "", classify(err)
	}

	accessToken, err := s.Codec.Encode(user.Username, s.AccessTTL)
	if err != nil {
		l.Error("refresh_failed", "reason", "cannot sign access token", "error", err)
		return "", err
	}

	l.Info("refresh_successful", "username", user.Username)
	return accessToken, nil
}

// RunSweeper prunes refresh tokens older than the refresh TTL until ctx is
// cancelled.
func (s *AuthService) RunSweeper(ctx context.Context, period time.Duration) {
	l := logging.FromContext(ctx).With("svc", "auth.sweeper")
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			opctx, cancel := s.opCtx(ctx)
			n, err := s.Repo.PruneExpiredBefore(opctx, time.Now().Add(-s.RefreshTTL))
			cancel()
			if err != nil {
				l.Error("sweep_failed", "error", err)
				continue
			}
			if n > 0 {
				l.Info("sweep_done", "pruned", n)
			}
		}
	}
}
