package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"messaging-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines durable persistence for direct messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, senderID, receiverID, content string) (models.Message, error)
	ListConversation(ctx context.Context, userID, otherUserID string, offset, limit int) ([]models.Message, error)
	CountConversation(ctx context.Context, userID, otherUserID string) (int, error)
	GetMessage(ctx context.Context, messageID string) (models.Message, error)
	UpdateContent(ctx context.Context, messageID, content string) (models.Message, error)
	UpdateStatus(ctx context.Context, messageID string, status models.MessageStatus) (models.Message, error)
	DeleteMessage(ctx context.Context, messageID string) error
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage stores a new message with status 'sent'.
func (r *MessageRepo) CreateMessage(ctx context.Context, senderID, receiverID, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (id, sender_id, receiver_id, content, status)
        VALUES ($1, $2, $3, $4, 'sent')
        RETURNING id, sender_id, receiver_id, content, status, created_at`,
		uuid.NewString(), senderID, receiverID, content).
		Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Content, &msg.Status, &msg.CreatedAt)
	return msg, err
}

// ListConversation returns messages between the unordered participant pair,
// newest first, windowed by offset/limit.
func (r *MessageRepo) ListConversation(ctx context.Context, userID, otherUserID string, offset, limit int) ([]models.Message, error) {
	query := `SELECT id, sender_id, receiver_id, content, status, created_at
        FROM messages
        WHERE (sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1)
        ORDER BY created_at DESC
        OFFSET $3 LIMIT $4`
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, query, userID, otherUserID, offset, limit)
	return msgs, err
}

// CountConversation counts all messages between the unordered pair.
func (r *MessageRepo) CountConversation(ctx context.Context, userID, otherUserID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM messages
        WHERE (sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1)`,
		userID, otherUserID)
	return count, err
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID string) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT id, sender_id, receiver_id, content, status, created_at
        FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// UpdateContent replaces the text of an existing message.
func (r *MessageRepo) UpdateContent(ctx context.Context, messageID, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `UPDATE messages SET content=$2 WHERE id=$1
        RETURNING id, sender_id, receiver_id, content, status, created_at`,
		messageID, content).
		Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Content, &msg.Status, &msg.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// UpdateStatus moves a message to a new delivery status.
func (r *MessageRepo) UpdateStatus(ctx context.Context, messageID string, status models.MessageStatus) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `UPDATE messages SET status=$2 WHERE id=$1
        RETURNING id, sender_id, receiver_id, content, status, created_at`,
		messageID, status).
		Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Content, &msg.Status, &msg.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// DeleteMessage removes a message permanently.
func (r *MessageRepo) DeleteMessage(ctx context.Context, messageID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id=$1`, messageID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}
