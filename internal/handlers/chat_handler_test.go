package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/access"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/models"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/services"
	chatws "github.com/KhoaNguyenNe/QuanLySucKhoe/internal/websocket"
)

type stubChatService struct {
	delivery        *services.ChatDelivery
	sendErr         error
	history         []models.ChatMessage
	historyErr      error
	lastRequester   access.Requester
	lastReceiverID  int64
	lastContent     string
	lastHistoryUser int64
	lastHistoryExp  int64
}

func (s *stubChatService) ListConversations(_ context.Context, requester access.Requester) ([]models.ConversationSummary, error) {
	s.lastRequester = requester
	return []models.ConversationSummary{}, nil
}

func (s *stubChatService) History(_ context.Context, requester access.Requester, userID int64, expertID int64) ([]models.ChatMessage, error) {
	s.lastRequester = requester
	s.lastHistoryUser = userID
	s.lastHistoryExp = expertID
	return s.history, s.historyErr
}

func (s *stubChatService) SendMessage(_ context.Context, requester access.Requester, receiverID int64, content string) (*services.ChatDelivery, error) {
	s.lastRequester = requester
	s.lastReceiverID = receiverID
	s.lastContent = content
	return s.delivery, s.sendErr
}

// recordingConn captures frames written by a client's write pump.
type recordingConn struct {
	frames chan []byte
	once   sync.Once
	closed chan struct{}
}

func newRecordingConn() *recordingConn {
	return &recordingConn{frames: make(chan []byte, 4), closed: make(chan struct{})}
}

func (c *recordingConn) ReadMessage() (int, []byte, error) {
	<-c.closed
	return 0, nil, errors.New("closed")
}

func (c *recordingConn) WriteMessage(_ int, data []byte) error {
	c.frames <- data
	return nil
}

func (c *recordingConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func TestSendMessagePublishesToReceiver(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := chatws.NewHub()
	hubDone := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(hubDone)
	}()
	defer func() {
		cancel()
		<-hubDone
	}()

	conn := newRecordingConn()
	receiver := chatws.NewClient(hub, conn, 7)
	if !hub.Register(receiver) {
		t.Fatalf("expected hub to accept client")
	}
	go receiver.WritePump()

	service := &stubChatService{delivery: &services.ChatDelivery{
		Conversation: &models.Conversation{ID: 3},
		Message: &models.ChatMessage{
			ID:             11,
			ConversationID: 3,
			SenderID:       42,
			ReceiverID:     7,
			Content:        "hello expert",
			CreatedAt:      time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
		},
		RecipientID: 7,
	}}
	handler := NewChatHandler(ctx, service, hub, "secret")

	app := newRequesterApp("user", 42)
	app.Post("/api/chat-messages", handler.Send)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/chat-messages", `{"receiver_id": 7, "content": "hello expert"}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastReceiverID != 7 || service.lastContent != "hello expert" || service.lastRequester.ID != 42 {
		t.Fatalf("unexpected forwarded values %+v", service)
	}

	select {
	case frame := <-conn.frames:
		var message chatws.Message
		if err := json.Unmarshal(frame, &message); err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		if message.Type != "message" || message.ID != 11 || message.SenderID != 42 {
			t.Fatalf("unexpected frame %+v", message)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("receiver did not get the message")
	}
}

func TestSendMessageToUnlinkedUserIsForbidden(t *testing.T) {
	service := &stubChatService{sendErr: services.ErrForbidden}
	handler := NewChatHandler(context.Background(), service, nil, "secret")

	app := newRequesterApp("user", 42)
	app.Post("/api/chat-messages", handler.Send)

	resp, err := app.Test(jsonRequest(http.MethodPost, "/api/chat-messages", `{"receiver_id": 99, "content": "hi"}`))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestChatHistoryForwardsPair(t *testing.T) {
	service := &stubChatService{history: []models.ChatMessage{{ID: 1}, {ID: 2}}}
	handler := NewChatHandler(context.Background(), service, nil, "secret")

	app := newRequesterApp("expert", 7)
	app.Get("/api/chat-history/:user_id/:expert_id", handler.History)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/chat-history/42/7", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastHistoryUser != 42 || service.lastHistoryExp != 7 {
		t.Fatalf("unexpected pair %d/%d", service.lastHistoryUser, service.lastHistoryExp)
	}

	var messages []models.ChatMessage
	decodeBody(t, resp, &messages)
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
}

func TestWebSocketAuthRequiresUpgrade(t *testing.T) {
	handler := NewChatHandler(context.Background(), &stubChatService{}, nil, "secret")

	app := newRequesterApp("user", 42)
	app.Get("/api/ws", handler.WebSocketAuth)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/ws?token=abc", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUpgradeRequired {
		t.Fatalf("expected 426, got %d", resp.StatusCode)
	}
}
