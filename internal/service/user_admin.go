package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/fjod/go_cart/purchase-service/internal/domain"
	"go.uber.org/zap"
)

// ListUsers returns every account as a profile, ordered by email.
func (s *AccountService) ListUsers(ctx context.Context) ([]domain.Profile, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	profiles := make([]domain.Profile, len(users))
	for i, u := range users {
		profiles[i] = u.Profile()
	}
	return profiles, nil
}

func (s *AccountService) GetUser(ctx context.Context, id string) (*domain.Profile, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	profile := user.Profile()
	return &profile, nil
}

// CreateUser registers an account on behalf of an admin. The new user gets
// a cart exactly like a self-registered one.
func (s *AccountService) CreateUser(ctx context.Context, in RegisterInput) (*domain.Profile, error) {
	user, err := s.Register(ctx, in)
	if err != nil {
		return nil, err
	}
	profile := user.Profile()
	return &profile, nil
}

func (s *AccountService) UpdateUser(ctx context.Context, id string, patch domain.UserPatch) (*domain.Profile, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	user, err := s.users.UpdateUser(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user updated", zap.String("userId", user.ID))
	profile := user.Profile()
	return &profile, nil
}

func (s *AccountService) DeleteUser(ctx context.Context, id string) error {
	if err := s.users.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deleted", zap.String("userId", id))
	return nil
}

func validatePatch(patch domain.UserPatch) error {
	for _, name := range []*string{patch.FirstName, patch.LastName} {
		if name != nil && strings.TrimSpace(*name) == "" {
			return fmt.Errorf("%w: names cannot be blank", ErrInvalidInput)
		}
	}
	if patch.Email != nil {
		if _, err := mail.ParseAddress(*patch.Email); err != nil {
			return fmt.Errorf("%w: malformed email", ErrInvalidInput)
		}
	}
	if patch.Age != nil && *patch.Age <= 0 {
		return fmt.Errorf("%w: age must be positive", ErrInvalidInput)
	}
	if patch.Role != nil && !patch.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, *patch.Role)
	}
	return nil
}
