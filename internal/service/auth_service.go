package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"thumbforge/internal/config"
	"thumbforge/internal/ids"
	"thumbforge/internal/models"
	"thumbforge/internal/repository"
	"thumbforge/internal/security"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthService struct {
	users  *repository.UserRepository
	tokens *repository.TokenRepository
	cfg    *config.AppConfig
	log    zerolog.Logger
}

func NewAuthService(users *repository.UserRepository, tokens *repository.TokenRepository, cfg *config.AppConfig, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		cfg:    cfg,
		log:    log,
	}
}

type RegisterInput struct {
	Username string
	Password string
}

// Register creates an account with no tier assigned; tier-gated
// operations stay unavailable until an admin attaches one.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (models.User, error) {
	input.Username = strings.TrimSpace(strings.ToLower(input.Username))
	if input.Username == "" || input.Password == "" {
		return models.User{}, NewValidationError("username", "username and password required")
	}

	if _, err := s.users.FindByUsername(ctx, input.Username); err == nil {
		return models.User{}, NewValidationError("username", "already registered")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return models.User{}, err
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		ID:           ids.New(),
		Username:     input.Username,
		PasswordHash: passwordHash,
		Role:         models.UserRoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Login verifies the password and mints a JWT, the first of the two
// accepted credential kinds.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, models.User, error) {
	username = strings.TrimSpace(strings.ToLower(username))

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", models.User{}, ErrInvalidCredentials
		}
		return "", models.User{}, err
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return "", models.User{}, ErrInvalidCredentials
	}

	token, err := security.GenerateAccessToken(s.cfg.Security.JWTSecret, user.ID, string(user.Role), s.cfg.Security.JWTTTL)
	if err != nil {
		return "", models.User{}, err
	}
	return token, user, nil
}

// IssueToken mints a static API token, the second accepted credential
// kind. The plaintext is returned once; only its hash is stored.
func (s *AuthService) IssueToken(ctx context.Context, user models.User, name string) (string, error) {
	plaintext, hash, err := security.GenerateAPIToken(s.cfg.Security.APITokenLength)
	if err != nil {
		return "", err
	}

	token := models.APIToken{
		ID:        ids.New(),
		UserID:    user.ID,
		TokenHash: hash,
		Name:      name,
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return "", err
	}

	s.log.Info().Str("user_id", user.ID).Str("token_id", token.ID).Msg("api token issued")
	return plaintext, nil
}
