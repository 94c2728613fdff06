package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecomops/logiscan-backend/internal/users"
	pkgauth "github.com/ecomops/logiscan-backend/pkg/auth"
	"github.com/ecomops/logiscan-backend/pkg/config"
	"github.com/ecomops/logiscan-backend/pkg/db/models"
	pkgerrors "github.com/ecomops/logiscan-backend/pkg/errors"
	"github.com/ecomops/logiscan-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*RefreshResponse, error)
	Logout(ctx context.Context, userID, tenantID uuid.UUID) error
}

type userRepository interface {
	FindActiveByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type tokenStore interface {
	StoreRefreshToken(ctx context.Context, userID, tenantID, token string, ttl time.Duration) error
	GetRefreshToken(ctx context.Context, userID, tenantID string) (string, error)
	RevokeRefreshToken(ctx context.Context, userID, tenantID string) error
}

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo      userRepository
	TokenStore    tokenStore
	RateLimiter   rateLimiter
	JWTConfig     config.JWTConfig
	RateLimitConf config.AuthRateLimitConfig
}

type service struct {
	users     userRepository
	tokens    tokenStore
	limiter   rateLimiter
	jwtCfg    config.JWTConfig
	limitConf config.AuthRateLimitConfig
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.TokenStore == nil {
		return nil, fmt.Errorf("token store is required")
	}
	return &service{
		users:     params.UserRepo,
		tokens:    params.TokenStore,
		limiter:   params.RateLimiter,
		jwtCfg:    params.JWTConfig,
		limitConf: params.RateLimitConf,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	if err := s.checkRateLimits(ctx, email, req.ClientIP); err != nil {
		return nil, err
	}

	user, err := s.authenticate(ctx, email, req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update last login")
	}
	user.LastLogin = &now

	access, refresh, err := s.mintTokenPair(ctx, user, now)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         users.FromModel(user),
	}, nil
}

// Refresh validates the presented refresh token against the stored copy and
// rotates the pair. A token that no longer matches the store is treated as
// revoked.
func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*RefreshResponse, error) {
	claims, err := pkgauth.ParseAccessToken(s.jwtCfg, req.RefreshToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
	}
	if claims.TokenType != pkgauth.TokenTypeRefresh {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
	}

	stored, err := s.tokens.GetRefreshToken(ctx, claims.UserID.String(), claims.TenantID.String())
	if err != nil || stored != req.RefreshToken {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "refresh token revoked")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "refresh token revoked")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "refresh token revoked")
	}

	access, refresh, err := s.mintTokenPair(ctx, user, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return &RefreshResponse{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *service) Logout(ctx context.Context, userID, tenantID uuid.UUID) error {
	if err := s.tokens.RevokeRefreshToken(ctx, userID.String(), tenantID.String()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke refresh token")
	}
	return nil
}

func (s *service) checkRateLimits(ctx context.Context, email, clientIP string) error {
	if s.limiter == nil {
		return nil
	}
	window := s.limitConf.LoginWindow
	if window <= 0 {
		window = time.Minute
	}
	if s.limitConf.LoginEmailLimit > 0 {
		allowed, _, err := s.limiter.FixedWindowAllow(ctx, "login:email:"+email, int64(s.limitConf.LoginEmailLimit), window)
		if err == nil && !allowed {
			return pkgerrors.New(pkgerrors.CodeRateLimit, "too many login attempts")
		}
	}
	if clientIP != "" && s.limitConf.LoginIPLimit > 0 {
		allowed, _, err := s.limiter.FixedWindowAllow(ctx, "login:ip:"+clientIP, int64(s.limitConf.LoginIPLimit), window)
		if err == nil && !allowed {
			return pkgerrors.New(pkgerrors.CodeRateLimit, "too many login attempts")
		}
	}
	return nil
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.FindActiveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.HashedPassword)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}

func (s *service) mintTokenPair(ctx context.Context, user *models.User, now time.Time) (string, string, error) {
	payload := pkgauth.AccessTokenPayload{
		UserID:      user.ID,
		TenantID:    user.TenantID,
		WarehouseID: user.WarehouseID,
		Email:       user.Email,
		Role:        user.Role,
	}
	access, err := pkgauth.MintAccessToken(s.jwtCfg, now, payload)
	if err != nil {
		return "", "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	refresh, err := pkgauth.MintRefreshToken(s.jwtCfg, now, payload)
	if err != nil {
		return "", "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint refresh token")
	}
	if err := s.tokens.StoreRefreshToken(ctx, user.ID.String(), user.TenantID.String(), refresh, s.jwtCfg.RefreshTokenTTL()); err != nil {
		return "", "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh token")
	}
	return access, refresh, nil
}
