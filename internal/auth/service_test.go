package auth

import (
	"context"
	"testing"
	"time"

	"cinebook/internal/shared/config"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeUserRepo struct {
	byEmail map[string]*User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: make(map[string]*User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	f.byEmail[user.Email] = user
	return nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	for _, user := range f.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func authTestConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:       "test-secret",
			JWTExpiresIn: time.Hour,
		},
	}
}

func TestRegisterIssuesAccessToken(t *testing.T) {
	svc := NewService(newFakeUserRepo(), authTestConfig())

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Asha",
		Email:    "asha@example.com",
		Password: "hunter22",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)

	token, err := jwt.Parse(resp.AccessToken, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "access", claims["type"])
	assert.Equal(t, "asha@example.com", claims["email"])
	assert.Equal(t, resp.UserID, claims["user_id"])
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc := NewService(newFakeUserRepo(), authTestConfig())
	ctx := context.Background()

	req := RegisterRequest{Name: "Asha", Email: "asha@example.com", Password: "hunter22"}
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	_, err = svc.Register(ctx, req)
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestLoginVerifiesPassword(t *testing.T) {
	svc := NewService(newFakeUserRepo(), authTestConfig())
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Name: "Asha", Email: "asha@example.com", Password: "hunter22"})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, LoginRequest{Email: "asha@example.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)

	_, err = svc.Login(ctx, LoginRequest{Email: "asha@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "hunter22"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
