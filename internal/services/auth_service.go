package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/access"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/models"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/repository"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/pkg/utils"
)

type authUserStore interface {
	userReader
	CreateUser(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByLogin(ctx context.Context, login string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
}

type TokenSettings struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type AuthService struct {
	users  authUserStore
	google GoogleVerifier
	tokens TokenSettings
}

func NewAuthService(users authUserStore, google GoogleVerifier, tokens TokenSettings) *AuthService {
	return &AuthService{users: users, google: google, tokens: tokens}
}

type RegisterInput struct {
	Username   string
	Email      string
	Password   string
	Password2  string
	Role       string
	Height     *float64
	Weight     *float64
	Age        *int
	HealthGoal *string
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	role := strings.TrimSpace(input.Role)
	if role == "" {
		role = access.RoleUser
	}

	verr := newValidationError()
	if username == "" {
		verr.add("username", "This field is required.")
	}
	if email == "" {
		verr.add("email", "This field is required.")
	} else if !emailPattern.MatchString(email) {
		verr.add("email", "Enter a valid email address.")
	}
	if input.Password == "" {
		verr.add("password", "This field is required.")
	}
	if input.Password != input.Password2 {
		verr.add("password", "Passwords do not match.")
	}
	if !access.ValidRole(role) {
		verr.add("role", "Role must be user or expert.")
	}
	if input.Height != nil && *input.Height <= 0 {
		verr.add("height", "Height must be positive.")
	}
	if input.Weight != nil && *input.Weight <= 0 {
		verr.add("weight", "Weight must be positive.")
	}
	if input.Age != nil && *input.Age <= 0 {
		verr.add("age", "Age must be positive.")
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		verr.add("email", "A user with that email already exists.")
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	exists, err := s.users.UsernameExists(ctx, username)
	if err != nil {
		return nil, err
	}
	if exists {
		verr.add("username", "A user with that username already exists.")
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Height:       input.Height,
		Weight:       input.Weight,
		Age:          input.Age,
		HealthGoal:   input.HealthGoal,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, duplicateUserError(err)
		}
		return nil, err
	}

	return user, nil
}

func (s *AuthService) Login(ctx context.Context, login, password string) (*utils.TokenPair, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !utils.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

// Refresh returns a new access token. The role is re-read so a role change
// takes effect on the next refresh.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := utils.ValidateRefreshToken(refreshToken, s.tokens.Secret)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	userID, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	pair, err := s.issue(user)
	if err != nil {
		return "", err
	}
	return pair.Access, nil
}

func (s *AuthService) Verify(token string) error {
	if _, err := utils.ValidateToken(token, s.tokens.Secret); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// GoogleLogin finds or creates the account for a verified Google ID token.
func (s *AuthService) GoogleLogin(ctx context.Context, idToken string) (*utils.TokenPair, *models.User, error) {
	if strings.TrimSpace(idToken) == "" {
		return nil, nil, ErrInvalidInput
	}
	if s.google == nil {
		return nil, nil, ErrInvalidCredentials
	}

	identity, err := s.google.Verify(ctx, idToken)
	if err != nil {
		log.WithError(err).Info("google token rejected")
		return nil, nil, ErrInvalidCredentials
	}
	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if email == "" {
		return nil, nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, err
	}
	if user == nil {
		user, err = s.createGoogleUser(ctx, email)
		if err != nil {
			return nil, nil, err
		}
		log.WithFields(log.Fields{"user_id": user.ID}).Info("created user from google login")
	}

	pair, err := s.issue(user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

func (s *AuthService) createGoogleUser(ctx context.Context, email string) (*models.User, error) {
	username, err := s.availableUsername(ctx, usernameFromEmail(email))
	if err != nil {
		return nil, err
	}

	// Nobody knows this password; the account signs in through Google or OTP reset.
	hash, err := utils.HashPassword(uuid.NewString())
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         access.RoleUser,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) availableUsername(ctx context.Context, base string) (string, error) {
	candidate := base
	for i := 0; i < 5; i++ {
		exists, err := s.users.UsernameExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%s", base, uuid.NewString()[:6])
	}
	return fmt.Sprintf("%s_%s", base, uuid.NewString()[:8]), nil
}

func (s *AuthService) issue(user *models.User) (*utils.TokenPair, error) {
	return utils.GenerateTokenPair(
		strconv.FormatInt(user.ID, 10),
		user.Role,
		s.tokens.Secret,
		s.tokens.AccessTTL,
		s.tokens.RefreshTTL,
	)
}

var usernameCleaner = regexp.MustCompile(`[^a-z0-9_.]+`)

func usernameFromEmail(email string) string {
	local := email
	if at := strings.Index(email, "@"); at >= 0 {
		local = email[:at]
	}
	local = usernameCleaner.ReplaceAllString(strings.ToLower(local), "")
	if local == "" {
		local = "user"
	}
	if len(local) > 30 {
		local = local[:30]
	}
	return local
}

func duplicateUserError(err error) error {
	verr := newValidationError()
	switch repository.ConstraintName(err) {
	case "users_email_key":
		verr.add("email", "A user with that email already exists.")
	case "users_username_key":
		verr.add("username", "A user with that username already exists.")
	default:
		return ErrConflict
	}
	return verr
}
