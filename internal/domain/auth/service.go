package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sharespace/sharespace-api/internal/domain/user"
	"github.com/sharespace/sharespace-api/internal/pkg/jwt"
	"github.com/sharespace/sharespace-api/internal/pkg/password"
)

// Service handles authentication business logic
type Service struct {
	userRepo    user.Repository
	jwtService  *jwt.Service
	refreshRepo RefreshTokenStore
}

// NewService creates auth service
func NewService(userRepo user.Repository, jwtService *jwt.Service, refreshRepo RefreshTokenStore) *Service {
	return &Service{
		userRepo:    userRepo,
		jwtService:  jwtService,
		refreshRepo: refreshRepo,
	}
}

// Register creates a member account and signs it in
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	req.Email = canonicalEmail(req.Email)

	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyExists
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	u := &user.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: hash,
		FullName:     req.FullName,
		Phone:        req.Phone,
		Role:         user.RoleMember,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, u); err != nil {
		if errors.Is(err, user.ErrEmailAlreadyExists) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}

	log.Info().Str("user_id", u.ID.String()).Msg("User registered")
	return s.generateTokens(ctx, u)
}

// Login authenticates user
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	req.Email = canonicalEmail(req.Email)

	u, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if u == nil || !password.Verify(req.Password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if u.IsBanned {
		return nil, ErrUserBanned
	}

	return s.generateTokens(ctx, u)
}

// Refresh exchanges a refresh token for a new pair. The old token is revoked.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	if refreshToken == "" {
		return nil, ErrRefreshTokenRequired
	}

	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	refreshHash := jwt.HashRefreshToken(refreshToken)
	rec, err := s.refreshRepo.GetByTokenHash(ctx, refreshHash)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.UserID != claims.UserID || !rec.IsActive(time.Now()) {
		return nil, ErrInvalidRefreshToken
	}

	// rotation: a token revoked concurrently is treated as reused
	revoked, err := s.refreshRepo.Revoke(ctx, refreshHash)
	if err != nil {
		return nil, err
	}
	if !revoked {
		return nil, ErrInvalidRefreshToken
	}

	u, err := s.userRepo.GetByID(ctx, rec.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	if u.IsBanned {
		return nil, ErrUserBanned
	}

	return s.generateTokens(ctx, u)
}

// Logout invalidates refresh token
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	_, err := s.refreshRepo.Revoke(ctx, jwt.HashRefreshToken(refreshToken))
	return err
}

// RevokeAll signs a user out everywhere
func (s *Service) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	return s.refreshRepo.RevokeAllByUserID(ctx, userID)
}

// GetCurrentUser returns current user by ID
func (s *Service) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}

	resp := NewUserResponse(u)
	return &resp, nil
}

func (s *Service) generateTokens(ctx context.Context, u *user.User) (*AuthResponse, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(u.ID, string(u.Role), u.IsBanned)
	if err != nil {
		return nil, err
	}

	refreshToken, jti, expiresAt, err := s.jwtService.GenerateRefreshToken(u.ID)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(jti)
	if err != nil {
		return nil, err
	}

	err = s.refreshRepo.Create(ctx, &RefreshTokenRecord{
		ID:        id,
		UserID:    u.ID,
		TokenHash: jwt.HashRefreshToken(refreshToken),
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		User: NewUserResponse(u),
		Tokens: TokensResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresIn:    int(s.jwtService.GetAccessTTL().Seconds()),
			TokenType:    "Bearer",
		},
	}, nil
}

// canonicalEmail is the lookup key for accounts; emails are unique case-insensitively.
func canonicalEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
