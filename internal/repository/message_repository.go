package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/teacherlink/teacherlink-api/internal/models"
)

// MessageRepository manages persistence for direct messages.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository constructs a new repository.
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a new message.
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO messages (id, sender_id, recipient_id, body, sentiment, created_at)
VALUES (:id, :sender_id, :recipient_id, :body, :sentiment, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, msg); err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// ListConversation returns messages exchanged between two participants,
// newest first.
func (r *MessageRepository) ListConversation(ctx context.Context, filter models.MessageFilter) ([]models.Message, int, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size
	where := `(sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1)`
	query := fmt.Sprintf(`SELECT id, sender_id, recipient_id, body, sentiment, read_at, created_at
FROM messages WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, where, size, offset)
	var messages []models.Message
	if err := r.db.SelectContext(ctx, &messages, query, filter.ParticipantID, filter.PeerID); err != nil {
		return nil, 0, fmt.Errorf("list conversation: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM messages WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, filter.ParticipantID, filter.PeerID); err != nil {
		return nil, 0, fmt.Errorf("count conversation: %w", err)
	}
	return messages, total, nil
}

// MarkRead stamps a message as read.
func (r *MessageRepository) MarkRead(ctx context.Context, id string, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE messages SET read_at = $1 WHERE id = $2 AND read_at IS NULL", at, id); err != nil {
		return fmt.Errorf("mark message read: %w", err)
	}
	return nil
}

// SentimentCounts tallies the messages a parent has sent per sentiment bucket.
func (r *MessageRepository) SentimentCounts(ctx context.Context, senderID string) (*models.SentimentCounts, error) {
	query := `SELECT COALESCE(SUM(CASE WHEN sentiment = 'positive' THEN 1 ELSE 0 END),0) AS positive_count,
        COALESCE(SUM(CASE WHEN sentiment = 'neutral' THEN 1 ELSE 0 END),0) AS neutral_count,
        COALESCE(SUM(CASE WHEN sentiment = 'negative' THEN 1 ELSE 0 END),0) AS negative_count
FROM messages
WHERE sender_id = $1`
	var counts models.SentimentCounts
	if err := r.db.QueryRowxContext(ctx, query, senderID).Scan(&counts.Positive, &counts.Neutral, &counts.Negative); err != nil {
		return nil, fmt.Errorf("message sentiment counts: %w", err)
	}
	return &counts, nil
}
