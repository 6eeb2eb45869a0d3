package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fjod/go_cart/purchase-service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

type accountFixture struct {
	sut    *AccountService
	users  *mockUserRepository
	carts  *mockCartRepository
	mailer *recordingMailer
}

func newAccountFixture(t *testing.T) accountFixture {
	users := newMockUserRepository()
	carts := &mockCartRepository{}
	mailer := &recordingMailer{}
	sut := NewAccountService(users, carts, stubTokenIssuer{}, mailer, zaptest.NewLogger(t))
	sut.hashCost = bcrypt.MinCost
	return accountFixture{sut: sut, users: users, carts: carts, mailer: mailer}
}

func validRegistration() RegisterInput {
	return RegisterInput{
		FirstName: "Ana",
		LastName:  "Diaz",
		Email:     "ana@example.com",
		Age:       30,
		Password:  "s3cret",
	}
}

func TestRegister(t *testing.T) {
	f := newAccountFixture(t)

	user, err := f.sut.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "new-cart", user.CartID)
	assert.Equal(t, "user", string(user.Role))
	assert.NotEqual(t, "s3cret", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret")))

	_, err = f.sut.Register(context.Background(), validRegistration())
	assert.ErrorIs(t, err, repository.ErrEmailTaken)
}

func TestRegister_Validation(t *testing.T) {
	f := newAccountFixture(t)

	in := validRegistration()
	in.Age = 0
	_, err := f.sut.Register(context.Background(), in)
	assert.ErrorIs(t, err, ErrInvalidInput)

	in = validRegistration()
	in.Email = "not-an-email"
	_, err = f.sut.Register(context.Background(), in)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLogin(t *testing.T) {
	f := newAccountFixture(t)
	user, err := f.sut.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	result, err := f.sut.Login(context.Background(), "ana@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "token-for-"+user.ID, result.Token)
	assert.Equal(t, user.ID, result.User.ID)

	_, err = f.sut.Login(context.Background(), "ana@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = f.sut.Login(context.Background(), "nobody@example.com", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestCurrent(t *testing.T) {
	f := newAccountFixture(t)
	user, err := f.sut.Register(context.Background(), validRegistration())
	require.NoError(t, err)

	profile, err := f.sut.Current(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", profile.Email)

	_, err = f.sut.Current(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestForgotAndResetPassword(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	_, err := f.sut.Register(ctx, validRegistration())
	require.NoError(t, err)

	require.NoError(t, f.sut.ForgotPassword(ctx, "ana@example.com"))
	assert.Equal(t, "ana@example.com", f.mailer.email)
	assert.Len(t, f.mailer.token, 64)

	err = f.sut.ResetPassword(ctx, f.mailer.token, "s3cret")
	assert.ErrorIs(t, err, ErrSamePassword)

	require.NoError(t, f.sut.ResetPassword(ctx, f.mailer.token, "n3w-secret"))

	_, err = f.sut.Login(ctx, "ana@example.com", "n3w-secret")
	assert.NoError(t, err)

	// the token is consumed
	err = f.sut.ResetPassword(ctx, f.mailer.token, "another")
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestResetPassword_ExpiredToken(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	_, err := f.sut.Register(ctx, validRegistration())
	require.NoError(t, err)
	require.NoError(t, f.sut.ForgotPassword(ctx, "ana@example.com"))

	f.sut.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	err = f.sut.ResetPassword(ctx, f.mailer.token, "n3w-secret")
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestForgotPassword_Errors(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.sut.ForgotPassword(ctx, ""), ErrInvalidInput)
	assert.ErrorIs(t, f.sut.ForgotPassword(ctx, "nobody@example.com"), repository.ErrUserNotFound)

	_, err := f.sut.Register(ctx, validRegistration())
	require.NoError(t, err)
	f.mailer.err = errors.New("smtp down")
	assert.ErrorContains(t, f.sut.ForgotPassword(ctx, "ana@example.com"), "smtp down")
}
