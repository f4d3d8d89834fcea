package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

type AuthService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.Repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrUnauthorized, ErrInvalidCredentials, "invalid credentials")
		}
		return nil, err
	}
	if !hash.CheckPassword(user.Password, password) {
		return nil, newError(ErrUnauthorized, ErrInvalidCredentials, "invalid credentials")
	}
	return user, nil
}

func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.signup")

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("signup_error", "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		Name:     name,
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Password: pwHash,
		Role:     models.RoleCustomer,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, newError(ErrConflict, ErrEmailTaken, "email %s is already registered", user.Email)
		}
		return nil, err
	}

	events.Emit(ctx, s.Events, events.TopicUser, user.ID, events.New("user_registered", map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
	}))
	return user, nil
}

// EnsureAdmin makes sure an ADMIN account exists for email.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) error {
	if email == "" || password == "" {
		return validationf("admin email and password are required")
	}
	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return err
	}
	return s.Repo.EnsureAdmin(ctx, &models.User{
		Name:     name,
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Password: pwHash,
		Role:     models.RoleAdmin,
	})
}

func (s *AuthService) GetContact(ctx context.Context, actor Actor, userID uint) (*models.User, error) {
	target, err := actor.TargetUser(&userID)
	if err != nil {
		return nil, err
	}
	user, err := s.Repo.GetUser(ctx, target)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrNotFound, ErrUserNotFound, "user %d not found", target)
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) UpdateContact(ctx context.Context, actor Actor, userID *uint, address, phone string) (*models.User, error) {
	target, err := actor.TargetUser(userID)
	if err != nil {
		return nil, err
	}
	address, phone = strings.TrimSpace(address), strings.TrimSpace(phone)
	if address == "" || phone == "" {
		return nil, newError(ErrValidation, ErrAddressRequired, "address and phone are required")
	}
	user, err := s.Repo.UpdateUserContact(ctx, target, address, phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrNotFound, ErrUserNotFound, "user %d not found", target)
		}
		return nil, err
	}
	return user, nil
}
