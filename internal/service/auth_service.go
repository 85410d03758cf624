package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"recipeapi/internal/auth"
	apperrors "recipeapi/internal/errors"
	"recipeapi/internal/metrics"
	"recipeapi/internal/model"
	"recipeapi/internal/repository"
)

// TokenPair is the result of a successful login.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService handles authentication operations.
type AuthService interface {
	Login(ctx context.Context, email, password string) (TokenPair, *model.User, error)
	RefreshToken(ctx context.Context, refreshToken string) (accessToken string, err error)
	// Logout revokes the access token described by claims and, when given, the refresh token.
	Logout(ctx context.Context, claims *auth.Claims, refreshToken string) error
	// Authenticate resolves verified access token claims to an active user.
	Authenticate(ctx context.Context, claims *auth.Claims) (*model.User, error)
}

type authService struct {
	userRepo   repository.UserRepository
	users      UserService
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	now        func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, users UserService, jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface) AuthService {
	return &authService{
		userRepo:   userRepo,
		users:      users,
		jwtService: jwtService,
		tokenStore: tokenStore,
		now:        time.Now,
	}
}

// Login authenticates a user and returns access and refresh tokens.
func (s *authService) Login(ctx context.Context, email, password string) (TokenPair, *model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			metrics.LoginAttempts.WithLabelValues("rejected").Inc()
			return TokenPair{}, nil, apperrors.ErrInvalidCredentials
		}
		return TokenPair{}, nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil || !user.IsActive {
		metrics.LoginAttempts.WithLabelValues("rejected").Inc()
		return TokenPair{}, nil, apperrors.ErrInvalidCredentials
	}

	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return TokenPair{}, nil, fmt.Errorf("generate access token: %w", err)
	}

	tokenID, refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return TokenPair{}, nil, fmt.Errorf("generate refresh token: %w", err)
	}

	if err := s.tokenStore.StoreRefreshToken(ctx, tokenID, user.ID, user.Email, s.jwtService.RefreshTTL()); err != nil {
		return TokenPair{}, nil, fmt.Errorf("store refresh token: %w", err)
	}

	now := s.now()
	if err := s.userRepo.TouchLastLogin(ctx, user.ID, now); err != nil {
		slog.WarnContext(ctx, "record last login failed", slog.Uint64("user_id", uint64(user.ID)), slog.Any("error", err))
	} else {
		user.LastLogin = &now
	}

	metrics.LoginAttempts.WithLabelValues("accepted").Inc()
	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, user, nil
}

// RefreshToken validates a refresh token and returns a new access token.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", apperrors.ErrInvalidToken
	}

	storedUserID, storedEmail, err := s.tokenStore.GetRefreshToken(ctx, claims.ID)
	if err != nil {
		return "", apperrors.ErrInvalidToken
	}
	if storedUserID != claims.UserID || storedEmail != claims.Email {
		return "", apperrors.ErrInvalidToken
	}

	user, err := s.users.GetUser(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		return "", apperrors.ErrInvalidToken
	}

	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return accessToken, nil
}

// Logout blacklists the access token until it expires and deletes the refresh token.
func (s *authService) Logout(ctx context.Context, claims *auth.Claims, refreshToken string) error {
	if claims == nil {
		return apperrors.ErrUnauthenticated
	}

	var refreshID string
	if refreshToken != "" {
		refresh, err := s.jwtService.ValidateRefreshToken(refreshToken)
		if err != nil || refresh.UserID != claims.UserID {
			return apperrors.ErrInvalidToken
		}
		refreshID = refresh.ID
	}

	if err := s.tokenStore.BlacklistAccessToken(ctx, claims.ID, claims.TTL(s.now())); err != nil {
		return fmt.Errorf("blacklist access token: %w", err)
	}
	if refreshID != "" {
		if err := s.tokenStore.DeleteRefreshToken(ctx, refreshID); err != nil {
			return fmt.Errorf("delete refresh token: %w", err)
		}
	}
	return nil
}

func (s *authService) Authenticate(ctx context.Context, claims *auth.Claims) (*model.User, error) {
	if claims == nil || claims.Type != auth.TokenTypeAccess || claims.ID == "" {
		return nil, apperrors.ErrUnauthenticated
	}

	revoked, err := s.tokenStore.IsAccessTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check token blacklist: %w", err)
	}
	if revoked {
		return nil, apperrors.ErrUnauthenticated
	}

	user, err := s.users.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnauthenticated
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.ErrUnauthenticated
	}
	return user, nil
}
