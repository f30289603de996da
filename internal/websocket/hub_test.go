package chatws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/access"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/models"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/services"
)

type fakeConn struct {
	incoming chan []byte
	written  chan []byte
	once     sync.Once
	closed   chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		incoming: make(chan []byte, 8),
		written:  make(chan []byte, 8),
		closed:   make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case payload, ok := <-c.incoming:
		if !ok {
			return 0, nil, errors.New("connection closed")
		}
		return 1, payload, nil
	case <-c.closed:
		return 0, nil, errors.New("connection closed")
	}
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	select {
	case c.written <- data:
		return nil
	case <-c.closed:
		return errors.New("connection closed")
	}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

type stubSender struct {
	lastRequester access.Requester
	lastReceiver  int64
	lastContent   string
}

func (s *stubSender) SendMessage(
	_ context.Context,
	requester access.Requester,
	receiverID int64,
	content string,
) (*services.ChatDelivery, error) {
	s.lastRequester = requester
	s.lastReceiver = receiverID
	s.lastContent = content
	return &services.ChatDelivery{
		Message: &models.ChatMessage{
			ID:             11,
			ConversationID: 3,
			SenderID:       requester.ID,
			ReceiverID:     receiverID,
			Content:        content,
			CreatedAt:      time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
		},
		RecipientID: receiverID,
	}, nil
}

func startHub(t *testing.T) (*Hub, func()) {
	t.Helper()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.Run(ctx)
	}()

	return hub, func() {
		cancel()
		wg.Wait()
	}
}

func receive(t *testing.T, ch <-chan []byte) Message {
	t.Helper()

	select {
	case payload := <-ch:
		var message Message
		require.NoError(t, json.Unmarshal(payload, &message))
		return message
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}

func TestHubPublishReachesBothParticipants(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub, stop := startHub(t)
	defer stop()

	sender := NewClient(hub, newFakeConn(), 1)
	receiver := NewClient(hub, newFakeConn(), 2)
	bystander := NewClient(hub, newFakeConn(), 3)
	for _, client := range []*Client{sender, receiver, bystander} {
		require.True(t, hub.Register(client))
	}

	hub.Publish(&services.ChatDelivery{
		Message:     &models.ChatMessage{ID: 5, ConversationID: 9, SenderID: 1, Content: "hi"},
		RecipientID: 2,
	})

	for _, client := range []*Client{sender, receiver} {
		message := receive(t, client.send)
		assert.Equal(t, "message", message.Type)
		assert.Equal(t, int64(2), message.ReceiverID)
		assert.Equal(t, "hi", message.Content)
	}

	hub.Unregister(bystander)
	_, open := <-bystander.send
	assert.False(t, open)
}

func TestHubStopClosesClients(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub, stop := startHub(t)
	client := NewClient(hub, newFakeConn(), 1)
	require.True(t, hub.Register(client))

	stop()

	_, open := <-client.send
	assert.False(t, open)
	assert.False(t, hub.Register(NewClient(hub, newFakeConn(), 2)))
	hub.Publish(&services.ChatDelivery{Message: &models.ChatMessage{SenderID: 1}})
}

func TestClientPumps(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub, stop := startHub(t)
	defer stop()

	conn := newFakeConn()
	client := NewClient(hub, conn, 1)
	require.True(t, hub.Register(client))

	service := &stubSender{}
	requester := access.Requester{ID: 1, Role: access.RoleUser}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		client.WritePump()
	}()
	go func() {
		defer wg.Done()
		client.ReadPump(context.Background(), service, requester)
	}()

	conn.incoming <- []byte(`not json`)
	conn.incoming <- []byte(`{"type":"message","receiver_id":"2","content":"hello"}`)

	errorFrame := receive(t, conn.written)
	assert.Equal(t, "error", errorFrame.Type)

	messageFrame := receive(t, conn.written)
	assert.Equal(t, "message", messageFrame.Type)
	assert.Equal(t, "hello", messageFrame.Content)
	assert.Equal(t, int64(11), messageFrame.ID)
	assert.Equal(t, "2024-05-01T08:00:00Z", messageFrame.Timestamp)

	assert.Equal(t, requester, service.lastRequester)
	assert.Equal(t, int64(2), service.lastReceiver)

	close(conn.incoming)
	wg.Wait()
}

func TestParseID(t *testing.T) {
	for raw, want := range map[string]int64{`7`: 7, `"8"`: 8, `0`: 0, `"x"`: 0, `-1`: 0, `null`: 0} {
		got, ok := parseID(json.RawMessage(raw))
		assert.Equal(t, want, got, raw)
		assert.Equal(t, want > 0, ok, raw)
	}
}
