package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/iliyamo/taskboard/internal/model"
	"github.com/iliyamo/taskboard/internal/repository"
	"github.com/iliyamo/taskboard/internal/utils"
	"github.com/iliyamo/taskboard/internal/validation"
)

// UserStore is the credential store's user table.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash string, role model.Role) (uint64, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

// TokenStore is the credential store's refresh token table.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	FindByHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	RevokeByHash(ctx context.Context, tokenHash string, at time.Time) error
}

// AuthConfig carries the token and hashing parameters.
type AuthConfig struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	BcryptCost int
}

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role,omitempty"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is returned by Login. ExpiresAt is the access token expiry.
type LoginResult struct {
	Access    string    `json:"access"`
	Refresh   string    `json:"refresh"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// RefreshResult is returned by Refresh.
type RefreshResult struct {
	Access    string    `json:"access"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AuthService registers users and issues and verifies tokens.
type AuthService struct {
	users  UserStore
	tokens TokenStore
	cfg    AuthConfig
	log    *slog.Logger

	// Now is the clock used for issuing and checking tokens.
	Now func() time.Time
}

func NewAuthService(users UserStore, tokens TokenStore, cfg AuthConfig, logger *slog.Logger) *AuthService {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = utils.DefaultBcryptCost
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{users: users, tokens: tokens, cfg: cfg, log: logger, Now: time.Now}
}

// Register creates a user. The role defaults to USER.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Email = repository.NormalizeEmail(in.Email)
	role := model.Role(in.Role)
	if role == "" {
		role = model.RoleUser
	}
	err := validation.Struct(in)
	if !role.Valid() {
		verr := &validation.Error{}
		if err != nil && !errors.As(err, &verr) {
			return nil, err
		}
		return nil, verr.Add("role", "must be one of: USER ADMIN")
	}
	if err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	id, err := s.users.Create(ctx, in.Email, hash, role)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.Info("user registered", "user_id", id, "role", role)
	return &model.User{ID: id, Email: in.Email, Role: role}, nil
}

// Login checks the credentials and issues an access/refresh token pair.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	in.Email = repository.NormalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	u, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, in.Password) {
		return nil, ErrUnauthorized
	}

	now := s.Now()
	access, err := utils.NewAccessToken(s.cfg.Secret, u.ID, string(u.Role), now, s.cfg.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := utils.NewRefreshToken(now, s.cfg.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	if err := s.tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &LoginResult{Access: access.Token, Refresh: refresh.Raw, ExpiresAt: access.Exp}, nil
}

// Refresh exchanges a refresh token for a new access token carrying the
// user's current role. The refresh token itself is left untouched.
func (s *AuthService) Refresh(ctx context.Context, raw string) (*RefreshResult, error) {
	now := s.Now()
	tok, err := s.usableToken(ctx, raw, now)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, tok.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("refresh token %d references user %d: %w", tok.ID, tok.UserID, ErrInconsistent)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	access, err := utils.NewAccessToken(s.cfg.Secret, u.ID, string(u.Role), now, s.cfg.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	return &RefreshResult{Access: access.Token, ExpiresAt: access.Exp}, nil
}

// Logout revokes a refresh token so it can no longer be exchanged.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	now := s.Now()
	tok, err := s.usableToken(ctx, raw, now)
	if err != nil {
		return err
	}
	if err := s.tokens.RevokeByHash(ctx, tok.TokenHash, now); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// usableToken loads a refresh token and rejects missing, revoked and
// expired ones alike.
func (s *AuthService) usableToken(ctx context.Context, raw string, now time.Time) (*model.RefreshToken, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrUnauthorized
	}
	tok, err := s.tokens.FindByHash(ctx, utils.HashRefreshRaw(raw))
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("load refresh token: %w", err)
	}
	if tok.Revoked() || tok.Expired(now) {
		return nil, ErrUnauthorized
	}
	return tok, nil
}

// Verify checks an access token without touching any store.
func (s *AuthService) Verify(raw string) (model.Identity, error) {
	claims, err := utils.ParseAccessToken(s.cfg.Secret, raw, s.Now)
	if err != nil {
		return model.Identity{}, ErrUnauthorized
	}
	return model.Identity{UserID: claims.UID, Role: model.Role(claims.Role)}, nil
}
