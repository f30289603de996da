package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/access"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/models"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/services"
	chatws "github.com/KhoaNguyenNe/QuanLySucKhoe/internal/websocket"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/pkg/utils"
)

type chatApplicationService interface {
	ListConversations(ctx context.Context, requester access.Requester) ([]models.ConversationSummary, error)
	History(ctx context.Context, requester access.Requester, userID int64, expertID int64) ([]models.ChatMessage, error)
	SendMessage(ctx context.Context, requester access.Requester, receiverID int64, content string) (*services.ChatDelivery, error)
}

type ChatHandler struct {
	service   chatApplicationService
	hub       *chatws.Hub
	jwtSecret string
	// socketCtx bounds the service calls made from websocket read loops.
	socketCtx context.Context
}

type sendMessageRequest struct {
	ReceiverID int64  `json:"receiver_id"`
	Content    string `json:"content"`
}

func NewChatHandler(ctx context.Context, service chatApplicationService, hub *chatws.Hub, jwtSecret string) *ChatHandler {
	if ctx == nil {
		ctx = context.Background()
	}
	return &ChatHandler{
		service:   service,
		hub:       hub,
		jwtSecret: jwtSecret,
		socketCtx: ctx,
	}
}

func (h *ChatHandler) ListConversations(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}

	conversations, err := h.service.ListConversations(c.UserContext(), requester)
	if err != nil {
		return mapChatError(c, err)
	}
	return c.JSON(conversations)
}

func (h *ChatHandler) History(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}
	userID, ok := parseIDParam(c, "user_id")
	if !ok {
		return invalidID(c, "user")
	}
	expertID, ok := parseIDParam(c, "expert_id")
	if !ok {
		return invalidID(c, "expert")
	}

	messages, err := h.service.History(c.UserContext(), requester, userID, expertID)
	if err != nil {
		return mapChatError(c, err)
	}
	return c.JSON(messages)
}

func (h *ChatHandler) Send(c *fiber.Ctx) error {
	requester, err := currentRequester(c)
	if err != nil {
		return invalidToken(c)
	}

	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	delivery, err := h.service.SendMessage(c.UserContext(), requester, req.ReceiverID, req.Content)
	if err != nil {
		return mapChatError(c, err)
	}

	if h.hub != nil {
		h.hub.Publish(delivery)
	}
	return c.Status(fiber.StatusCreated).JSON(delivery.Message)
}

func (h *ChatHandler) WebSocketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}

	claims, err := h.parseWSClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	c.Locals("user_id", claims.UserID)
	c.Locals("role", claims.Role)
	return c.Next()
}

func (h *ChatHandler) HandleWebSocket(conn *websocket.Conn) {
	rawID, _ := conn.Locals("user_id").(string)
	role, _ := conn.Locals("role").(string)
	userID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || userID <= 0 || !access.ValidRole(role) {
		_ = conn.Close()
		return
	}

	client := chatws.NewClient(h.hub, conn, userID)
	if !h.hub.Register(client) {
		_ = conn.Close()
		return
	}
	go client.WritePump()
	client.ReadPump(h.socketCtx, h.service, access.Requester{ID: userID, Role: role})
}

func (h *ChatHandler) parseWSClaims(c *fiber.Ctx) (*utils.Claims, error) {
	tokenString := strings.TrimSpace(c.Query("token"))
	if tokenString == "" {
		parts := strings.Fields(c.Get("Authorization"))
		if len(parts) == 2 && parts[0] == "Bearer" {
			tokenString = parts[1]
		}
	}

	if tokenString == "" {
		return nil, errors.New("missing token")
	}

	return utils.ValidateToken(tokenString, h.jwtSecret)
}

func mapChatError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Conversation not found"})
	default:
		log.WithError(err).Error("chat request failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process chat request"})
	}
}
