package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/access"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/models"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/pkg/utils"
)

type memoryUserStore struct {
	users     []*models.User
	createErr error
}

func (s *memoryUserStore) GetByID(_ context.Context, id int64) (*models.User, error) {
	for _, user := range s.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *memoryUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *memoryUserStore) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	for _, user := range s.users {
		if user.Username == login {
			return user, nil
		}
	}
	return s.GetByEmail(ctx, login)
}

func (s *memoryUserStore) UsernameExists(_ context.Context, username string) (bool, error) {
	for _, user := range s.users {
		if user.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryUserStore) CreateUser(_ context.Context, user *models.User) error {
	if s.createErr != nil {
		return s.createErr
	}
	user.ID = int64(len(s.users) + 1)
	s.users = append(s.users, user)
	return nil
}

type stubGoogleVerifier struct {
	identity *GoogleIdentity
	err      error
}

func (v stubGoogleVerifier) Verify(context.Context, string) (*GoogleIdentity, error) {
	return v.identity, v.err
}

var testTokens = TokenSettings{Secret: "secret", AccessTTL: time.Minute, RefreshTTL: time.Hour}

func TestRegisterValidatesFields(t *testing.T) {
	service := NewAuthService(&memoryUserStore{}, nil, testTokens)

	_, err := service.Register(context.Background(), RegisterInput{
		Email:     "not-an-email",
		Password:  "a",
		Password2: "b",
		Role:      "admin",
	})

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "username")
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "password")
	assert.Contains(t, verr.Fields, "role")
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	store := &memoryUserStore{users: []*models.User{{ID: 1, Username: "jane", Email: "jane@example.com"}}}
	service := NewAuthService(store, nil, testTokens)

	_, err := service.Register(context.Background(), RegisterInput{
		Username:  "jane",
		Email:     "JANE@example.com",
		Password:  "pw",
		Password2: "pw",
	})

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "username")
}

func TestRegisterMapsUniqueViolationRace(t *testing.T) {
	store := &memoryUserStore{createErr: &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"}}
	service := NewAuthService(store, nil, testTokens)

	_, err := service.Register(context.Background(), RegisterInput{
		Username:  "jane",
		Email:     "jane@example.com",
		Password:  "pw",
		Password2: "pw",
	})

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "username")
}

func TestRegisterAndLogin(t *testing.T) {
	store := &memoryUserStore{}
	service := NewAuthService(store, nil, testTokens)
	ctx := context.Background()

	user, err := service.Register(ctx, RegisterInput{
		Username:  "jane",
		Email:     "Jane@Example.com",
		Password:  "pw",
		Password2: "pw",
	})
	require.NoError(t, err)
	assert.Equal(t, access.RoleUser, user.Role)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.NotEqual(t, "pw", user.PasswordHash)

	pair, err := service.Login(ctx, "jane", "pw")
	require.NoError(t, err)

	claims, err := utils.ValidateToken(pair.Access, testTokens.Secret)
	require.NoError(t, err)
	assert.Equal(t, "1", claims.UserID)

	_, err = service.Login(ctx, "jane", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = service.Login(ctx, "nobody", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = service.Login(ctx, "", "pw")
	assert.ErrorIs(t, err, ErrInvalidInput)

	accessToken, err := service.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)
	assert.NoError(t, service.Verify(accessToken))

	_, err = service.Refresh(ctx, pair.Access)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorIs(t, service.Verify(pair.Refresh), ErrInvalidCredentials)
}

func TestGoogleLoginCreatesUserOnce(t *testing.T) {
	store := &memoryUserStore{users: []*models.User{{ID: 1, Username: "jane", Email: "other@example.com"}}}
	google := stubGoogleVerifier{identity: &GoogleIdentity{Email: "Jane@gmail.com", EmailVerified: true}}
	service := NewAuthService(store, google, testTokens)
	ctx := context.Background()

	pair, user, err := service.GoogleLogin(ctx, "token")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.Access)
	assert.Equal(t, "jane@gmail.com", user.Email)
	assert.Equal(t, access.RoleUser, user.Role)
	assert.True(t, strings.HasPrefix(user.Username, "jane_"))

	_, again, err := service.GoogleLogin(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
	assert.Len(t, store.users, 2)
}

func TestGoogleLoginRejectsBadTokens(t *testing.T) {
	ctx := context.Background()

	service := NewAuthService(&memoryUserStore{}, stubGoogleVerifier{err: errors.New("expired")}, testTokens)
	_, _, err := service.GoogleLogin(ctx, "token")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = service.GoogleLogin(ctx, " ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = NewAuthService(&memoryUserStore{}, nil, testTokens).GoogleLogin(ctx, "token")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
