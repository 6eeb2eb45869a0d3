package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/fjod/go_cart/purchase-service/internal/domain"
	"github.com/fjod/go_cart/purchase-service/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const resetTokenTTL = time.Hour

type TokenIssuer interface {
	Issue(user *domain.User) (string, error)
}

type CartCreator interface {
	CreateCart(ctx context.Context) (*domain.Cart, error)
}

type RegisterInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Age       int    `json:"age"`
	Password  string `json:"password"`
}

func (in RegisterInput) Validate() error {
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" ||
		strings.TrimSpace(in.Email) == "" || in.Age <= 0 || in.Password == "" {
		return fmt.Errorf("%w: all fields are required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return fmt.Errorf("%w: malformed email", ErrInvalidInput)
	}
	return nil
}

type LoginResult struct {
	Token string         `json:"token"`
	User  domain.Profile `json:"user"`
}

type AccountService struct {
	users    repository.UserRepository
	carts    CartCreator
	tokens   TokenIssuer
	mailer   Mailer
	logger   *zap.Logger
	now      func() time.Time
	hashCost int
}

func NewAccountService(users repository.UserRepository, carts CartCreator, tokens TokenIssuer, mailer Mailer, logger *zap.Logger) *AccountService {
	return &AccountService{
		users:    users,
		carts:    carts,
		tokens:   tokens,
		mailer:   mailer,
		logger:   logger,
		now:      time.Now,
		hashCost: bcrypt.DefaultCost,
	}
}

// Register creates a user with a fresh cart linked to it.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	_, err := s.users.FindByEmail(ctx, in.Email)
	if err == nil {
		return nil, repository.ErrEmailTaken
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	cart, err := s.carts.CreateCart(ctx)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		Age:          in.Age,
		PasswordHash: string(hash),
		CartID:       cart.ID,
		Role:         domain.RoleUser,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.String("userId", user.ID), zap.String("cartId", cart.ID))
	return user, nil
}

func (s *AccountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrInvalidCredential
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredential
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &LoginResult{Token: token, User: user.Profile()}, nil
}

func (s *AccountService) Current(ctx context.Context, userID string) (*domain.Profile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := user.Profile()
	return &profile, nil
}

// ForgotPassword stores a one-hour reset token for the user and mails it.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	token, err := newResetToken()
	if err != nil {
		return err
	}
	if err := s.users.SetResetToken(ctx, user.ID, token, s.now().Add(resetTokenTTL)); err != nil {
		return err
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, token); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}
	return nil
}

func (s *AccountService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return fmt.Errorf("%w: token and new password are required", ErrInvalidInput)
	}

	user, err := s.users.FindByResetToken(ctx, token, s.now())
	if errors.Is(err, repository.ErrUserNotFound) {
		return ErrInvalidResetToken
	}
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(newPassword)) == nil {
		return ErrSamePassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.hashCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.ResetPassword(ctx, user.ID, string(hash)); err != nil {
		return err
	}

	s.logger.Info("password reset", zap.String("userId", user.ID))
	return nil
}

func newResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
