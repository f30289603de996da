package handlers

import (
	"errors"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/access"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/services"
)

const maxImageSizeBytes = 5 * 1024 * 1024

var errInvalidToken = errors.New("invalid token")

func parseProfileUserID(c *fiber.Ctx) (int64, error) {
	userIDStr, ok := c.Locals("user_id").(string)
	if !ok {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseInt(userIDStr, 10, 64)
}

// currentRequester builds the caller identity from the locals set by
// middleware.AuthRequired.
func currentRequester(c *fiber.Ctx) (access.Requester, error) {
	role, _ := c.Locals("role").(string)
	userID, err := parseProfileUserID(c)
	if err != nil || userID <= 0 || !access.ValidRole(role) {
		return access.Requester{}, errInvalidToken
	}
	return access.Requester{ID: userID, Role: role}, nil
}

func parseIDParam(c *fiber.Ctx, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// parseOptionalIDQuery returns nil when the query key is absent.
func parseOptionalIDQuery(c *fiber.Ctx, key string) (*int64, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, false
	}
	return &id, true
}

func parsePositiveInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func invalidToken(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
}

func invalidID(c *fiber.Ctx, what string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid " + what + " id"})
}

func validationFailed(c *fiber.Ctx, verr *services.ValidationError) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": verr.Fields})
}

// optionalImage reads an image part from a multipart request. A missing part
// is not an error. The caller closes the returned file.
func optionalImage(c *fiber.Ctx, field string) (*services.ImageUpload, string) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, ""
	}

	fileHeader, err := c.FormFile(field)
	if err != nil {
		return nil, ""
	}
	if fileHeader.Size <= 0 {
		return nil, field + " file is empty"
	}
	if fileHeader.Size > maxImageSizeBytes {
		return nil, field + " file exceeds 5MB limit"
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return nil, field + " must be a jpg, jpeg, png, or webp file"
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, "Failed to open " + field + " file"
	}
	return &services.ImageUpload{File: file, Filename: fileHeader.Filename}, ""
}

func closeImage(upload *services.ImageUpload) {
	if upload != nil && upload.File != nil {
		_ = upload.File.Close()
	}
}
