package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/models"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/services"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/pkg/utils"
)

type stubAuthService struct {
	registerResult *models.User
	registerErr    error
	loginResult    *utils.TokenPair
	loginErr       error
	refreshResult  string
	refreshErr     error
	verifyErr      error
	googleResult   *utils.TokenPair
	googleUser     *models.User
	googleErr      error
	lastRegister   services.RegisterInput
	lastLogin      string
	lastPassword   string
}

func (s *stubAuthService) Register(_ context.Context, input services.RegisterInput) (*models.User, error) {
	s.lastRegister = input
	return s.registerResult, s.registerErr
}

func (s *stubAuthService) Login(_ context.Context, login, password string) (*utils.TokenPair, error) {
	s.lastLogin = login
	s.lastPassword = password
	return s.loginResult, s.loginErr
}

func (s *stubAuthService) Refresh(_ context.Context, _ string) (string, error) {
	return s.refreshResult, s.refreshErr
}

func (s *stubAuthService) Verify(_ string) error {
	return s.verifyErr
}

func (s *stubAuthService) GoogleLogin(_ context.Context, _ string) (*utils.TokenPair, *models.User, error) {
	return s.googleResult, s.googleUser, s.googleErr
}

type stubOTPService struct {
	sendErr      error
	confirmErr   error
	lastEmail    string
	lastCode     string
	lastPassword string
}

func (s *stubOTPService) SendOTP(_ context.Context, email string) error {
	s.lastEmail = email
	return s.sendErr
}

func (s *stubOTPService) ConfirmOTP(_ context.Context, email, code, newPassword string) error {
	s.lastEmail = email
	s.lastCode = code
	s.lastPassword = newPassword
	return s.confirmErr
}

// newRequesterApp mounts routes behind a middleware that plays the part of
// AuthRequired for the given caller.
func newRequesterApp(role string, userID int64) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", role)
		c.Locals("user_id", fmt.Sprint(userID))
		return c.Next()
	})
	return app
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestRegisterReturnsCreatedUser(t *testing.T) {
	auth := &stubAuthService{registerResult: &models.User{ID: 3, Username: "lan", Email: "lan@example.com", Role: "user"}}
	handler := NewAuthHandler(auth, &stubOTPService{})

	app := fiber.New()
	app.Post("/api/register", handler.Register)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/register", `{
		"username": "lan",
		"email": "lan@example.com",
		"password": "Str0ngPass!",
		"password2": "Str0ngPass!",
		"height": 160
	}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if auth.lastRegister.Password2 != "Str0ngPass!" {
		t.Fatalf("expected password2 to be forwarded, got %q", auth.lastRegister.Password2)
	}
	if auth.lastRegister.Height == nil || *auth.lastRegister.Height != 160 {
		t.Fatalf("expected height 160, got %v", auth.lastRegister.Height)
	}

	var body struct {
		Message string      `json:"message"`
		User    models.User `json:"user"`
	}
	decodeBody(t, resp, &body)
	if body.User.ID != 3 || body.Message == "" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestRegisterReturnsFieldErrors(t *testing.T) {
	auth := &stubAuthService{registerErr: &services.ValidationError{Fields: map[string]string{"password": "Password fields didn't match."}}}
	handler := NewAuthHandler(auth, &stubOTPService{})

	app := fiber.New()
	app.Post("/api/register", handler.Register)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/register", `{"username":"lan"}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var body struct {
		Errors map[string]string `json:"errors"`
	}
	decodeBody(t, resp, &body)
	if body.Errors["password"] == "" {
		t.Fatalf("expected password error, got %+v", body.Errors)
	}
}

func TestTokenFallsBackToEmail(t *testing.T) {
	auth := &stubAuthService{loginResult: &utils.TokenPair{Access: "a", Refresh: "r"}}
	handler := NewAuthHandler(auth, &stubOTPService{})

	app := fiber.New()
	app.Post("/api/auth/jwt/token", handler.Token)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/jwt/token", `{"email":" lan@example.com ","password":"pw"}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if auth.lastLogin != "lan@example.com" {
		t.Fatalf("expected trimmed email login, got %q", auth.lastLogin)
	}

	var pair utils.TokenPair
	decodeBody(t, resp, &pair)
	if pair.Access != "a" || pair.Refresh != "r" {
		t.Fatalf("unexpected pair %+v", pair)
	}
}

func TestTokenRejectsBadCredentials(t *testing.T) {
	auth := &stubAuthService{loginErr: services.ErrInvalidCredentials}
	handler := NewAuthHandler(auth, &stubOTPService{})

	app := fiber.New()
	app.Post("/api/auth/jwt/token", handler.Token)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/jwt/token", `{"username":"lan","password":"nope"}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestRefreshRequiresToken(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{}, &stubOTPService{})

	app := fiber.New()
	app.Post("/api/auth/jwt/refresh", handler.Refresh)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/jwt/refresh", `{}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestRefreshRejectsExpiredToken(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{refreshErr: services.ErrInvalidCredentials}, &stubOTPService{})

	app := fiber.New()
	app.Post("/api/auth/jwt/refresh", handler.Refresh)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/jwt/refresh", `{"refresh":"stale"}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestGoogleLoginRejectsInvalidToken(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{googleErr: services.ErrInvalidCredentials}, &stubOTPService{})

	app := fiber.New()
	app.Post("/api/auth/google-login", handler.GoogleLogin)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/google-login", `{"access_token":"forged"}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestSendOTPReportsMailFailure(t *testing.T) {
	otp := &stubOTPService{sendErr: fmt.Errorf("%w: smtp down", services.ErrUpstream)}
	handler := NewAuthHandler(&stubAuthService{}, otp)

	app := fiber.New()
	app.Post("/api/auth/password/send-otp", handler.SendOTP)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/password/send-otp", `{"email":"lan@example.com"}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if otp.lastEmail != "lan@example.com" {
		t.Fatalf("expected email to be forwarded, got %q", otp.lastEmail)
	}
}

func TestConfirmOTPMapsErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{name: "success", wantStatus: http.StatusOK},
		{name: "missing fields", err: services.ErrInvalidInput, wantStatus: http.StatusBadRequest, wantError: "Missing required fields."},
		{name: "wrong code", err: services.ErrInvalidCode, wantStatus: http.StatusBadRequest, wantError: "Invalid OTP."},
		{name: "expired", err: services.ErrCodeExpired, wantStatus: http.StatusBadRequest, wantError: "OTP expired."},
		{name: "unknown user", err: pgx.ErrNoRows, wantStatus: http.StatusNotFound, wantError: "User not found."},
		{name: "storage failure", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			otp := &stubOTPService{confirmErr: tt.err}
			handler := NewAuthHandler(&stubAuthService{}, otp)

			app := fiber.New()
			app.Post("/api/auth/password/confirm-otp", handler.ConfirmOTP)

			resp, err := app.Test(jsonRequest(http.MethodPost, "/api/auth/password/confirm-otp", `{
				"email": "lan@example.com",
				"otp": "123456",
				"new_password": "N3wPassword!"
			}`))
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, resp.StatusCode)
			}
			if otp.lastCode != "123456" || otp.lastPassword != "N3wPassword!" {
				t.Fatalf("unexpected forwarded values %+v", otp)
			}
			if tt.wantError == "" {
				return
			}

			var body map[string]string
			decodeBody(t, resp, &body)
			if body["error"] != tt.wantError {
				t.Fatalf("expected error %q, got %q", tt.wantError, body["error"])
			}
		})
	}
}
