package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/orm"
	"gorm.io/gorm"
)

// RegisterInput is the body of POST /api/auth/register.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=120"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required,max=100"`
	Phone    string `json:"phone" validate:"nullable,phone"`
}

// ProfileInput is the body of PUT /api/auth/me. Nil fields are left alone.
type ProfileInput struct {
	Name     *string `json:"name" validate:"nullable,max=100"`
	Phone    *string `json:"phone" validate:"nullable,phone"`
	Password *string `json:"password" validate:"nullable,min=6"`
}

// LogoutInput is the optional body of POST /api/auth/logout.
type LogoutInput struct {
	RefreshToken string `json:"refresh_token"`
}

// Session is a signed-in user and their tokens.
type Session struct {
	User models.User
	auth.TokenPair
}

type AuthService struct {
	users  *repositories.UserRepository
	tokens *repositories.TokenRepository
	oidc   *auth.OIDCVerifier
}

// NewAuthService builds the service. oidc may be nil, which disables
// external sign-in.
func NewAuthService(oidc *auth.OIDCVerifier) *AuthService {
	return &AuthService{
		users:  repositories.NewUserRepository(),
		tokens: repositories.NewTokenRepository(),
		oidc:   oidc,
	}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (Session, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return Session{}, badRequest("Email already registered")
	} else if !database.IsNotFound(err) {
		return Session{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return Session{}, err
	}
	user, err := s.createCustomer(ctx, email, strings.TrimSpace(in.Name), strings.TrimSpace(in.Phone), hash)
	if err != nil {
		return Session{}, err
	}

	logger.WithCtx(ctx).Info("user registered", "user_id", user.ID)
	return s.issue(user)
}

func (s *AuthService) createCustomer(ctx context.Context, email, name, phone, hash string) (models.User, error) {
	var user models.User
	err := database.Transaction(ctx, func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)
		role, err := users.EnsureRole(ctx, models.RoleCustomer)
		if err != nil {
			return err
		}
		user = models.User{
			Email:    email,
			Name:     name,
			Phone:    phone,
			Password: hash,
			IsActive: true,
			Roles:    []models.Role{role},
		}
		return users.Create(ctx, &user)
	})
	if database.IsUniqueViolation(err) {
		return user, badRequest("Email already registered")
	}
	return user, err
}

func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if database.IsNotFound(err) {
			return Session{}, unauthorized("Invalid email or password")
		}
		return Session{}, err
	}
	if !auth.CheckPassword(user.Password, password) {
		return Session{}, unauthorized("Invalid email or password")
	}
	if !user.IsActive {
		return Session{}, unauthorized("Account is deactivated")
	}

	now := time.Now().UTC()
	if err := s.users.TouchLogin(ctx, user.ID, now); err != nil {
		return Session{}, err
	}
	user.LastLogin = &now
	return s.issue(user)
}

// Refresh exchanges a refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := auth.ValidateTyped(refreshToken, auth.TypeRefresh)
	if err != nil {
		return "", unauthorized("Invalid refresh token")
	}
	revoked, err := s.tokens.IsRevoked(ctx, claims.JTI())
	if err != nil {
		return "", err
	}
	if revoked {
		return "", unauthorized("Token has been revoked")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if database.IsNotFound(err) {
			return "", unauthorized("User not found")
		}
		return "", err
	}
	if !user.IsActive {
		return "", unauthorized("Account is deactivated")
	}
	return auth.GenerateToken(user.ID, user.RoleName())
}

// Logout revokes the presented access token and, when given, the refresh
// token of the same user so it can no longer mint access tokens.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims, refreshToken string) error {
	revoke := []*auth.Claims{claims}
	if refreshToken != "" {
		rc, err := auth.ValidateTyped(refreshToken, auth.TypeRefresh)
		if err != nil || rc.UserID != claims.UserID {
			return unauthorized("Invalid refresh token")
		}
		revoke = append(revoke, rc)
	}
	for _, c := range revoke {
		if err := s.tokens.Revoke(ctx, c.JTI(), c.Expiry()); err != nil {
			return err
		}
	}
	logger.WithCtx(ctx).Info("user logged out", "user_id", claims.UserID)
	return nil
}

// IsRevoked implements middleware.RevocationChecker.
func (s *AuthService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return s.tokens.IsRevoked(ctx, jti)
}

// PurgeRevoked drops blacklist rows for tokens that have expired anyway.
func (s *AuthService) PurgeRevoked(ctx context.Context) (int64, error) {
	return s.tokens.PurgeExpired(ctx, time.Now())
}

func (s *AuthService) User(ctx context.Context, id uint) (models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	return user, orNotFound(err, "User not found")
}

func (s *AuthService) UpdateProfile(ctx context.Context, id uint, in ProfileInput) (models.User, error) {
	user, err := s.User(ctx, id)
	if err != nil {
		return user, err
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		user.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Password != nil && *in.Password != "" {
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return user, err
		}
		user.Password = hash
	}
	if err := s.users.Update(ctx, &user); err != nil {
		return user, err
	}
	return user, nil
}

// ListUsers pages through every account.
func (s *AuthService) ListUsers(ctx context.Context, page, perPage int) ([]models.User, orm.Pagination, error) {
	return s.users.Paginate(ctx, "", page, perPage)
}

// SignInWithOIDC verifies an ID token from the configured provider and
// signs in the matching user, creating a customer account on first use.
func (s *AuthService) SignInWithOIDC(ctx context.Context, idToken string) (Session, error) {
	id, err := s.oidc.Verify(ctx, idToken)
	if err != nil {
		if errors.Is(err, auth.ErrOIDCDisabled) {
			return Session{}, &Error{Status: ErrNotConfigured.Status, Message: "OIDC sign-in is not configured"}
		}
		if errors.Is(err, auth.ErrInvalidToken) {
			return Session{}, unauthorized("Invalid ID token")
		}
		return Session{}, err
	}
	if id.Email == "" || !id.EmailVerified {
		return Session{}, unauthorized("ID token has no verified email")
	}

	email := strings.ToLower(id.Email)
	user, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
	case database.IsNotFound(err):
		// The account can only be reached through the provider until the
		// user sets a password.
		hash, herr := auth.HashPassword(id.Subject + time.Now().String())
		if herr != nil {
			return Session{}, herr
		}
		name := id.Name
		if name == "" {
			name = strings.SplitN(email, "@", 2)[0]
		}
		if user, err = s.createCustomer(ctx, email, name, "", hash); err != nil {
			return Session{}, err
		}
		logger.WithCtx(ctx).Info("user registered via oidc", "user_id", user.ID)
	default:
		return Session{}, err
	}

	if !user.IsActive {
		return Session{}, unauthorized("Account is deactivated")
	}
	return s.issue(user)
}

func (s *AuthService) issue(user models.User) (Session, error) {
	pair, err := auth.GeneratePair(user.ID, user.RoleName())
	if err != nil {
		return Session{}, err
	}
	return Session{User: user, TokenPair: pair}, nil
}
