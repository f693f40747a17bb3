package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teacherlink/teacherlink-api/internal/models"
)

func newMessageMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestMessageRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMessageMock(t)
	defer cleanup()
	repo := NewMessageRepository(db)

	mock.ExpectExec("INSERT INTO messages").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	msg := &models.Message{SenderID: "parent-1", RecipientID: "teacher-1", Body: "hello", Sentiment: models.SentimentNeutral}
	err := repo.Create(context.Background(), msg)
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepositoryListConversation(t *testing.T) {
	db, mock, cleanup := newMessageMock(t)
	defer cleanup()
	repo := NewMessageRepository(db)

	rows := sqlmock.NewRows([]string{"id", "sender_id", "recipient_id", "body", "sentiment", "read_at", "created_at"}).
		AddRow("m1", "parent-1", "teacher-1", "hello", "neutral", nil, time.Now())
	mock.ExpectQuery("SELECT id, sender_id, recipient_id, body, sentiment, read_at, created_at").
		WithArgs("teacher-1", "parent-1").
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("teacher-1", "parent-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	messages, total, err := repo.ListConversation(context.Background(), models.MessageFilter{ParticipantID: "teacher-1", PeerID: "parent-1"})
	require.NoError(t, err)
	assert.Len(t, messages, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepositorySentimentCounts(t *testing.T) {
	db, mock, cleanup := newMessageMock(t)
	defer cleanup()
	repo := NewMessageRepository(db)

	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("parent-1").
		WillReturnRows(sqlmock.NewRows([]string{"positive_count", "neutral_count", "negative_count"}).AddRow(2, 5, 3))

	counts, err := repo.SentimentCounts(context.Background(), "parent-1")
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Positive)
	assert.Equal(t, 5, counts.Neutral)
	assert.Equal(t, 3, counts.Negative)
	assert.NoError(t, mock.ExpectationsWereMet())
}
