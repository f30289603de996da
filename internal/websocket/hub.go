package chatws

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/access"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/services"
)

const clientBuffer = 32

type Hub struct {
	clients    map[int64]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	direct     chan directMessage
	done       chan struct{}
}

type directMessage struct {
	client  *Client
	payload []byte
}

// Conn is the part of *websocket.Conn a client uses.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type Client struct {
	hub    *Hub
	conn   Conn
	userID int64
	send   chan []byte
}

type sender interface {
	SendMessage(
		ctx context.Context,
		requester access.Requester,
		receiverID int64,
		content string,
	) (*services.ChatDelivery, error)
}

type Message struct {
	Type           string `json:"type"`
	ID             int64  `json:"id,omitempty"`
	ConversationID int64  `json:"conversation_id,omitempty"`
	SenderID       int64  `json:"sender_id,omitempty"`
	ReceiverID     int64  `json:"receiver_id,omitempty"`
	Content        string `json:"content"`
	Timestamp      string `json:"timestamp"`
}

type incomingMessage struct {
	Type       string          `json:"type"`
	ReceiverID json.RawMessage `json:"receiver_id"`
	Content    string          `json:"content"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 64),
		direct:     make(chan directMessage),
		done:       make(chan struct{}),
	}
}

func NewClient(hub *Hub, conn Conn, userID int64) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, clientBuffer),
	}
}

// Run serves registrations and deliveries until ctx is cancelled, then
// closes every client's send channel.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for userID, set := range h.clients {
				for client := range set {
					close(client.send)
				}
				delete(h.clients, userID)
			}
			return
		case client := <-h.register:
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			h.remove(client)
		case message := <-h.broadcast:
			h.deliver(message)
		case message := <-h.direct:
			if set, ok := h.clients[message.client.userID]; ok {
				if _, registered := set[message.client]; registered {
					select {
					case message.client.send <- message.payload:
					default:
					}
				}
			}
		}
	}
}

func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish pushes a stored message to both participants' open connections.
func (h *Hub) Publish(delivery *services.ChatDelivery) {
	if delivery == nil || delivery.Message == nil {
		return
	}

	message := &Message{
		Type:           "message",
		ID:             delivery.Message.ID,
		ConversationID: delivery.Message.ConversationID,
		SenderID:       delivery.Message.SenderID,
		ReceiverID:     delivery.RecipientID,
		Content:        delivery.Message.Content,
		Timestamp:      services.FormatChatTimestamp(delivery.Message.CreatedAt),
	}

	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}

func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, exists := set[client]; exists {
		delete(set, client)
		close(client.send)
	}
	if len(set) == 0 {
		delete(h.clients, client.userID)
	}
}

func (h *Hub) deliver(message *Message) {
	encoded, err := json.Marshal(message)
	if err != nil {
		log.WithError(err).Error("chat hub: encode message")
		return
	}

	h.sendToUser(message.SenderID, encoded)
	if message.ReceiverID != 0 && message.ReceiverID != message.SenderID {
		h.sendToUser(message.ReceiverID, encoded)
	}
}

func (h *Hub) sendToUser(userID int64, payload []byte) {
	set, ok := h.clients[userID]
	if !ok {
		return
	}

	for client := range set {
		select {
		case client.send <- payload:
		default:
			// Slow consumer.
			delete(set, client)
			close(client.send)
		}
	}
	if len(set) == 0 {
		delete(h.clients, userID)
	}
}

// ReadPump reads frames until the connection fails. Each message frame is
// stored through service and then published.
func (c *Client) ReadPump(ctx context.Context, service sender, requester access.Requester) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var incoming incomingMessage
		if err := json.Unmarshal(payload, &incoming); err != nil {
			c.writeError("invalid message payload")
			continue
		}
		if incoming.Type != "message" {
			c.writeError("unsupported message type")
			continue
		}

		receiverID, ok := parseID(incoming.ReceiverID)
		if !ok {
			c.writeError("invalid receiver id")
			continue
		}

		delivery, err := service.SendMessage(ctx, requester, receiverID, incoming.Content)
		if err != nil {
			log.WithError(err).WithField("user_id", requester.ID).Debug("chat message rejected")
			c.writeError("failed to send message")
			continue
		}

		c.hub.Publish(delivery)
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

func (c *Client) writeError(message string) {
	payload, err := json.Marshal(Message{
		Type:      "error",
		Content:   message,
		Timestamp: services.FormatChatTimestamp(time.Now()),
	})
	if err != nil {
		return
	}

	select {
	case c.hub.direct <- directMessage{client: c, payload: payload}:
	case <-c.hub.done:
	}
}

// parseID accepts the receiver as a JSON number or a numeric string.
func parseID(raw json.RawMessage) (int64, bool) {
	var number int64
	if err := json.Unmarshal(raw, &number); err == nil && number > 0 {
		return number, true
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if parsed, err := strconv.ParseInt(text, 10, 64); err == nil && parsed > 0 {
			return parsed, true
		}
	}
	return 0, false
}
