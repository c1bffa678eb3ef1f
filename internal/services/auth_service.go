package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"shuttlebus/internal/auth"
	"shuttlebus/internal/domain"
	"shuttlebus/internal/domain/models"
	"shuttlebus/internal/utils"
)

const minPasswordLen = 6

// AuthService registers users and issues access tokens.
type AuthService struct {
	Users  UserStore
	Secret string
	TTL    time.Duration
}

// Register creates a regular user. Admin accounts are only created by EnsureAdmin.
func (s AuthService) Register(ctx context.Context, name, email, password string) (models.User, error) {
	return s.create(ctx, name, email, password, domain.RoleUser)
}

func (s AuthService) create(ctx context.Context, name, email, password, role string) (models.User, error) {
	name = utils.NormalizeSpace(name)
	email = utils.NormalizeEmail(email)
	switch {
	case name == "":
		return models.User{}, domain.ValidationError{Field: "name", Msg: "name is required"}
	case email == "" || !strings.Contains(email, "@"):
		return models.User{}, domain.ValidationError{Field: "email", Msg: "a valid email is required"}
	case len(password) < minPasswordLen:
		return models.User{}, domain.ValidationError{Field: "password", Msg: "password must be at least 6 characters"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, domain.InternalError{Msg: "hash password", Err: err}
	}
	u := models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Role:         role,
		PasswordHash: string(hash),
	}
	if err := s.Users.Create(ctx, u); err != nil {
		return models.User{}, domain.Internalize(err)
	}
	utils.LogEvent(utils.RequestID(ctx), "auth", "register", "user="+u.ID+" role="+role)
	return u, nil
}

// Login checks the password and returns a signed token. Unknown email and wrong
// password give the same error.
func (s AuthService) Login(ctx context.Context, email, password string) (string, models.User, error) {
	invalid := domain.UnauthorizedError{Msg: "invalid email or password"}

	u, err := s.Users.GetByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		if domain.IsNotFound(err) {
			return "", models.User{}, invalid
		}
		return "", models.User{}, domain.Internalize(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", models.User{}, invalid
	}

	ttl := s.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	token, err := auth.GenerateToken(u.ID, u.Role, s.Secret, ttl)
	if err != nil {
		return "", models.User{}, domain.InternalError{Msg: "sign token", Err: err}
	}
	return token, u, nil
}

// EnsureAdmin creates the bootstrap administrator when no account uses email yet.
func (s AuthService) EnsureAdmin(ctx context.Context, name, email, password string) error {
	if strings.TrimSpace(email) == "" {
		return nil
	}
	_, err := s.Users.GetByEmail(ctx, utils.NormalizeEmail(email))
	if err == nil {
		return nil
	}
	if !domain.IsNotFound(err) {
		return err
	}
	_, err = s.create(ctx, utils.FirstNonEmpty(name, "Administrator"), email, password, domain.RoleAdmin)
	return err
}
