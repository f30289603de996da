package repository

import (
	"context"
	"database/sql"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/models"
)

type ConversationRepository struct {
	db DBTX
}

func NewConversationRepository(db DBTX) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func scanConversation(row scanner) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := row.Scan(
		&conversation.ID,
		&conversation.UserID,
		&conversation.ExpertID,
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *ConversationRepository) CreateOrGet(
	ctx context.Context,
	userID int64,
	expertID int64,
) (*models.Conversation, error) {
	query := `
		INSERT INTO conversations (user_id, expert_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, expert_id)
		DO UPDATE SET updated_at = conversations.updated_at
		RETURNING id, user_id, expert_id, created_at, updated_at
	`
	return scanConversation(r.db.QueryRow(ctx, query, userID, expertID))
}

func (r *ConversationRepository) GetByPair(
	ctx context.Context,
	userID int64,
	expertID int64,
) (*models.Conversation, error) {
	query := `
		SELECT id, user_id, expert_id, created_at, updated_at
		FROM conversations
		WHERE user_id = $1 AND expert_id = $2
	`
	return scanConversation(r.db.QueryRow(ctx, query, userID, expertID))
}

func (r *ConversationRepository) ListForParticipant(
	ctx context.Context,
	participantID int64,
) ([]models.ConversationSummary, error) {
	query := `
		SELECT
			c.id,
			c.user_id,
			c.expert_id,
			c.created_at,
			c.updated_at,
			lm.id,
			lm.sender_id,
			lm.content,
			lm.is_read,
			lm.created_at,
			COALESCE(uc.unread_count, 0)
		FROM conversations c
		LEFT JOIN LATERAL (
			SELECT id, sender_id, content, is_read, created_at
			FROM messages
			WHERE conversation_id = c.id
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		) lm ON TRUE
		LEFT JOIN LATERAL (
			SELECT COUNT(*) AS unread_count
			FROM messages
			WHERE conversation_id = c.id
			  AND sender_id <> $1
			  AND is_read = FALSE
		) uc ON TRUE
		WHERE c.user_id = $1 OR c.expert_id = $1
		ORDER BY COALESCE(lm.created_at, c.updated_at) DESC, c.id DESC
	`

	rows, err := r.db.Query(ctx, query, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]models.ConversationSummary, 0)
	for rows.Next() {
		var summary models.ConversationSummary
		var messageID sql.NullInt64
		var messageSenderID sql.NullInt64
		var messageContent sql.NullString
		var messageIsRead sql.NullBool
		var messageCreatedAt sql.NullTime

		if err := rows.Scan(
			&summary.ID,
			&summary.UserID,
			&summary.ExpertID,
			&summary.CreatedAt,
			&summary.UpdatedAt,
			&messageID,
			&messageSenderID,
			&messageContent,
			&messageIsRead,
			&messageCreatedAt,
			&summary.UnreadCount,
		); err != nil {
			return nil, err
		}

		if messageID.Valid {
			receiverID := summary.ExpertID
			if messageSenderID.Int64 == summary.ExpertID {
				receiverID = summary.UserID
			}
			summary.LastMessage = &models.ChatMessage{
				ID:             messageID.Int64,
				ConversationID: summary.ID,
				SenderID:       messageSenderID.Int64,
				ReceiverID:     receiverID,
				Content:        messageContent.String,
				IsRead:         messageIsRead.Bool,
				CreatedAt:      messageCreatedAt.Time,
			}
		}

		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return summaries, nil
}

func (r *ConversationRepository) Touch(ctx context.Context, conversationID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE conversations
		SET updated_at = NOW()
		WHERE id = $1
	`, conversationID)
	return err
}
