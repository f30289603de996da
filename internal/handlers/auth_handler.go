package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/models"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/services"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/pkg/utils"
)

type authApplicationService interface {
	Register(ctx context.Context, input services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, login, password string) (*utils.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Verify(token string) error
	GoogleLogin(ctx context.Context, idToken string) (*utils.TokenPair, *models.User, error)
}

type otpApplicationService interface {
	SendOTP(ctx context.Context, email string) error
	ConfirmOTP(ctx context.Context, email, code, newPassword string) error
}

type AuthHandler struct {
	auth authApplicationService
	otp  otpApplicationService
}

func NewAuthHandler(auth authApplicationService, otp otpApplicationService) *AuthHandler {
	return &AuthHandler{auth: auth, otp: otp}
}

type registerRequest struct {
	Username   string   `json:"username"`
	Email      string   `json:"email"`
	Password   string   `json:"password"`
	Password2  string   `json:"password2"`
	Role       string   `json:"role"`
	Height     *float64 `json:"height"`
	Weight     *float64 `json:"weight"`
	Age        *int     `json:"age"`
	HealthGoal *string  `json:"health_goal"`
}

type tokenRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type verifyRequest struct {
	Token string `json:"token"`
}

type googleLoginRequest struct {
	AccessToken string `json:"access_token"`
}

type sendOTPRequest struct {
	Email string `json:"email"`
}

type confirmOTPRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"new_password"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	user, err := h.auth.Register(c.UserContext(), services.RegisterInput{
		Username:   req.Username,
		Email:      req.Email,
		Password:   req.Password,
		Password2:  req.Password2,
		Role:       req.Role,
		Height:     req.Height,
		Weight:     req.Weight,
		Age:        req.Age,
		HealthGoal: req.HealthGoal,
	})
	if err != nil {
		return mapAuthError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    user,
	})
}

// Token accepts either a username or an email as the login.
func (h *AuthHandler) Token(c *fiber.Ctx) error {
	var req tokenRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	login := strings.TrimSpace(req.Username)
	if login == "" {
		login = strings.TrimSpace(req.Email)
	}

	pair, err := h.auth.Login(c.UserContext(), login, req.Password)
	if err != nil {
		return mapAuthError(c, err)
	}
	return c.JSON(pair)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Refresh) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": fiber.Map{"refresh": "This field is required."}})
	}

	access, err := h.auth.Refresh(c.UserContext(), req.Refresh)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token is invalid or expired"})
		}
		return mapAuthError(c, err)
	}
	return c.JSON(fiber.Map{"access": access})
}

func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": fiber.Map{"token": "This field is required."}})
	}

	if err := h.auth.Verify(req.Token); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token is invalid or expired"})
	}
	return c.JSON(fiber.Map{})
}

func (h *AuthHandler) GoogleLogin(c *fiber.Ctx) error {
	var req googleLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	pair, user, err := h.auth.GoogleLogin(c.UserContext(), req.AccessToken)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "access_token is required"})
		case errors.Is(err, services.ErrInvalidCredentials):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid Google token"})
		default:
			return mapAuthError(c, err)
		}
	}

	return c.JSON(fiber.Map{
		"access":  pair.Access,
		"refresh": pair.Refresh,
		"user":    user,
	})
}

func (h *AuthHandler) SendOTP(c *fiber.Ctx) error {
	var req sendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	if err := h.otp.SendOTP(c.UserContext(), req.Email); err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Email is required."})
		}
		return mapAuthError(c, err)
	}
	return c.JSON(fiber.Map{"message": "OTP sent to email."})
}

func (h *AuthHandler) ConfirmOTP(c *fiber.Ctx) error {
	var req confirmOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	err := h.otp.ConfirmOTP(c.UserContext(), req.Email, req.OTP, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing required fields."})
		case errors.Is(err, services.ErrInvalidCode):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid OTP."})
		case errors.Is(err, services.ErrCodeExpired):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "OTP expired."})
		case errors.Is(err, pgx.ErrNoRows):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found."})
		default:
			return mapAuthError(c, err)
		}
	}
	return c.JSON(fiber.Map{"message": "Password reset successful."})
}

func mapAuthError(c *fiber.Ctx, err error) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return validationFailed(c, verr)
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrConflict):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "User already exists"})
	case errors.Is(err, services.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "No active account found with the given credentials"})
	case errors.Is(err, services.ErrUpstream):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to send email"})
	default:
		log.WithError(err).Error("auth request failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process request"})
	}
}
