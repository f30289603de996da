package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/access"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/models"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/repository"
)

const maxMessageLength = 4000

type ChatService struct {
	db               Database
	userRepo         *repository.UserRepository
	conversationRepo *repository.ConversationRepository
	messageRepo      *repository.MessageRepository
}

type ChatDelivery struct {
	Conversation *models.Conversation
	Message      *models.ChatMessage
	RecipientID  int64
}

func NewChatService(db Database) *ChatService {
	return &ChatService{
		db:               db,
		userRepo:         repository.NewUserRepository(db),
		conversationRepo: repository.NewConversationRepository(db),
		messageRepo:      repository.NewMessageRepository(db),
	}
}

func (s *ChatService) ListConversations(
	ctx context.Context,
	requester access.Requester,
) ([]models.ConversationSummary, error) {
	if !access.ValidRole(requester.Role) {
		return nil, ErrForbidden
	}
	return s.conversationRepo.ListForParticipant(ctx, requester.ID)
}

// History returns the messages between a user and their linked expert,
// oldest first, and marks the requester's incoming messages read.
func (s *ChatService) History(
	ctx context.Context,
	requester access.Requester,
	userID int64,
	expertID int64,
) ([]models.ChatMessage, error) {
	switch requester.Role {
	case access.RoleUser:
		if requester.ID != userID {
			return nil, ErrForbidden
		}
	case access.RoleExpert:
		if requester.ID != expertID {
			return nil, ErrForbidden
		}
	default:
		return nil, ErrForbidden
	}

	if err := s.ensureLinked(ctx, userID, expertID); err != nil {
		return nil, err
	}

	var messages []models.ChatMessage
	err := withTx(ctx, s.db, func(tx pgx.Tx) error {
		txConversationRepo := repository.NewConversationRepository(tx)
		txMessageRepo := repository.NewMessageRepository(tx)

		conversation, err := txConversationRepo.GetByPair(ctx, userID, expertID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				messages = []models.ChatMessage{}
				return nil
			}
			return err
		}

		messages, err = txMessageRepo.ListByConversation(ctx, conversation)
		if err != nil {
			return err
		}
		if err := txMessageRepo.MarkConversationRead(ctx, conversation.ID, requester.ID); err != nil {
			return err
		}
		for i := range messages {
			if messages[i].SenderID != requester.ID {
				messages[i].IsRead = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return messages, nil
}

// SendMessage delivers content between a user and their linked expert in
// either direction.
func (s *ChatService) SendMessage(
	ctx context.Context,
	requester access.Requester,
	receiverID int64,
	content string,
) (*ChatDelivery, error) {
	trimmed := strings.TrimSpace(content)
	if receiverID <= 0 || receiverID == requester.ID || trimmed == "" || len(trimmed) > maxMessageLength {
		return nil, ErrInvalidInput
	}

	var userID, expertID int64
	switch requester.Role {
	case access.RoleUser:
		userID, expertID = requester.ID, receiverID
	case access.RoleExpert:
		userID, expertID = receiverID, requester.ID
	default:
		return nil, ErrForbidden
	}

	if err := s.ensureLinked(ctx, userID, expertID); err != nil {
		return nil, err
	}

	var delivery ChatDelivery
	err := withTx(ctx, s.db, func(tx pgx.Tx) error {
		txConversationRepo := repository.NewConversationRepository(tx)
		txMessageRepo := repository.NewMessageRepository(tx)

		conversation, err := txConversationRepo.CreateOrGet(ctx, userID, expertID)
		if err != nil {
			return err
		}
		message, err := txMessageRepo.Create(ctx, conversation, requester.ID, trimmed)
		if err != nil {
			return err
		}
		if err := txConversationRepo.Touch(ctx, conversation.ID); err != nil {
			return err
		}

		delivery = ChatDelivery{
			Conversation: conversation,
			Message:      message,
			RecipientID:  receiverID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &delivery, nil
}

// ensureLinked requires userID to be a regular user whose expert is expertID.
func (s *ChatService) ensureLinked(ctx context.Context, userID, expertID int64) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrForbidden
		}
		return err
	}
	if user.Role != access.RoleUser || user.ExpertID == nil || *user.ExpertID != expertID {
		return ErrForbidden
	}
	return nil
}

func FormatChatTimestamp(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339)
}
