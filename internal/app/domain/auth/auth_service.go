package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/helixlab/helixdash/internal/app/models"
	"github.com/helixlab/helixdash/internal/app/observability/metrics"
	"github.com/helixlab/helixdash/internal/pkg/backend"
	"github.com/helixlab/helixdash/internal/pkg/config"
)

// Ensure implementation satisfies the interface
var _ AuthService = (*AuthServiceImpl)(nil)

// AuthService is what the handlers and guards need from the session layer.
type AuthService interface {
	SignIn(ctx context.Context, email, password string) (backend.TokenPair, *models.User, error)
	SignUp(ctx context.Context, name, email, password string) (backend.TokenPair, *models.User, error)
	SignOut(ctx context.Context, tokens backend.TokenStore) error
	Refresh(ctx context.Context, refreshToken string) (backend.TokenPair, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
	CurrentUser(pair backend.TokenPair) (*models.User, time.Time, error)
}

// AuthServiceImpl delegates credential checks to the backend and decodes the
// returned tokens locally.
type AuthServiceImpl struct {
	logger *zap.Logger
	client *backend.Client
	jwt    config.JWTConfig
	tracer trace.Tracer
	now    func() time.Time
}

func NewAuthService(client *backend.Client, jwtCfg config.JWTConfig, logger *zap.Logger) *AuthServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthServiceImpl{
		logger: logger.Named("auth"),
		client: client,
		jwt:    jwtCfg,
		tracer: otel.Tracer("helixdash/auth"),
		now:    time.Now,
	}
}

// SignIn exchanges credentials for a token pair.
func (s *AuthServiceImpl) SignIn(ctx context.Context, email, password string) (backend.TokenPair, *models.User, error) {
	l := s.logger.With(zap.String("method", "SignIn"), zap.String("email", email))
	ctx, span := s.tracer.Start(ctx, "AuthService.SignIn")
	defer span.End()

	pair, err := s.client.Login(ctx, backend.Credentials{Email: email, Password: password})
	if err != nil {
		l.Warn("Login failed", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		metrics.RecordAuth(ctx, "signin", "failed")
		return backend.TokenPair{}, nil, fmt.Errorf("sign in: %w", err)
	}

	user, _, err := s.decode(pair.AccessToken)
	if err != nil {
		l.Error("Backend issued an unreadable access token", zap.Error(err))
		span.RecordError(err)
		metrics.RecordAuth(ctx, "signin", "failed")
		return backend.TokenPair{}, nil, fmt.Errorf("sign in: %w", err)
	}

	span.SetAttributes(attribute.String("user.id", user.ID))
	metrics.RecordAuth(ctx, "signin", "ok")
	l.Info("Login successful", zap.String("userID", user.ID))
	return pair, user, nil
}

// SignUp registers the account. Backends that do not return tokens on
// registration are followed by a sign-in with the same credentials.
func (s *AuthServiceImpl) SignUp(ctx context.Context, name, email, password string) (backend.TokenPair, *models.User, error) {
	l := s.logger.With(zap.String("method", "SignUp"), zap.String("email", email))
	ctx, span := s.tracer.Start(ctx, "AuthService.SignUp")
	defer span.End()

	pair, err := s.client.Register(ctx, backend.Registration{Name: name, Email: email, Password: password})
	switch {
	case errors.Is(err, backend.ErrNoAccessToken):
		l.Debug("Registration returned no tokens, signing in")
		return s.SignIn(ctx, email, password)
	case err != nil:
		l.Warn("Registration failed", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "registration failed")
		metrics.RecordAuth(ctx, "signup", "failed")
		return backend.TokenPair{}, nil, fmt.Errorf("sign up: %w", err)
	}

	user, _, err := s.decode(pair.AccessToken)
	if err != nil {
		span.RecordError(err)
		metrics.RecordAuth(ctx, "signup", "failed")
		return backend.TokenPair{}, nil, fmt.Errorf("sign up: %w", err)
	}
	metrics.RecordAuth(ctx, "signup", "ok")
	l.Info("Registration successful", zap.String("userID", user.ID))
	return pair, user, nil
}

// SignOut revokes the refresh token on the backend. The caller clears
// cookies whatever the outcome.
func (s *AuthServiceImpl) SignOut(ctx context.Context, tokens backend.TokenStore) error {
	ctx, span := s.tracer.Start(ctx, "AuthService.SignOut")
	defer span.End()

	if tokens.Tokens().Empty() {
		return nil
	}
	if err := s.client.Logout(ctx, tokens); err != nil {
		span.RecordError(err)
		metrics.RecordAuth(ctx, "signout", "failed")
		return err
	}
	metrics.RecordAuth(ctx, "signout", "ok")
	return nil
}

func (s *AuthServiceImpl) Refresh(ctx context.Context, refreshToken string) (backend.TokenPair, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Refresh")
	defer span.End()

	if refreshToken == "" {
		return backend.TokenPair{}, models.ErrSessionExpired
	}
	pair, err := s.client.RefreshShared(ctx, refreshToken)
	if err != nil {
		s.logger.Info("Session refresh failed", zap.Error(err))
		span.RecordError(err)
		metrics.RecordAuth(ctx, "refresh", "failed")
		return backend.TokenPair{}, fmt.Errorf("%w: %w", models.ErrSessionExpired, err)
	}
	metrics.RecordAuth(ctx, "refresh", "ok")
	return pair, nil
}

func (s *AuthServiceImpl) ForgotPassword(ctx context.Context, email string) error {
	ctx, span := s.tracer.Start(ctx, "AuthService.ForgotPassword")
	defer span.End()

	if err := s.client.ForgotPassword(ctx, email); err != nil {
		span.RecordError(err)
		metrics.RecordAuth(ctx, "forgot_password", "failed")
		return fmt.Errorf("forgot password: %w", err)
	}
	metrics.RecordAuth(ctx, "forgot_password", "ok")
	return nil
}

func (s *AuthServiceImpl) ResetPassword(ctx context.Context, token, password string) error {
	ctx, span := s.tracer.Start(ctx, "AuthService.ResetPassword")
	defer span.End()

	if err := s.client.ResetPassword(ctx, token, password); err != nil {
		span.RecordError(err)
		metrics.RecordAuth(ctx, "reset_password", "failed")
		return fmt.Errorf("reset password: %w", err)
	}
	metrics.RecordAuth(ctx, "reset_password", "ok")
	return nil
}

// CurrentUser decodes the session's access token. It returns
// ErrUnauthenticated when there is no usable token and ErrSessionExpired when
// the token has expired, along with the expiry it used.
func (s *AuthServiceImpl) CurrentUser(pair backend.TokenPair) (*models.User, time.Time, error) {
	if pair.AccessToken == "" {
		return nil, time.Time{}, models.ErrUnauthenticated
	}
	user, exp, err := s.decode(pair.AccessToken)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: %w", models.ErrUnauthenticated, err)
	}
	if exp.IsZero() && !pair.IssuedAt.IsZero() && s.jwt.AccessTokenTTL > 0 {
		exp = pair.IssuedAt.Add(s.jwt.AccessTokenTTL)
	}
	if !exp.IsZero() && !s.now().Before(exp) {
		return nil, exp, models.ErrSessionExpired
	}
	return user, exp, nil
}

func (s *AuthServiceImpl) decode(token string) (*models.User, time.Time, error) {
	return DecodeUser(token, s.jwt.Secret)
}
