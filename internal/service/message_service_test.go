package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/teacherlink/teacherlink-api/internal/models"
)

type mockMessageRepo struct {
	messages []models.Message
	readIDs  []string
}

func (m *mockMessageRepo) Create(ctx context.Context, msg *models.Message) error {
	msg.ID = "m1"
	msg.CreatedAt = time.Now().UTC()
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *mockMessageRepo) ListConversation(ctx context.Context, filter models.MessageFilter) ([]models.Message, int, error) {
	return m.messages, len(m.messages), nil
}

func (m *mockMessageRepo) MarkRead(ctx context.Context, id string, at time.Time) error {
	m.readIDs = append(m.readIDs, id)
	return nil
}

func TestKeywordClassifier(t *testing.T) {
	classifier := KeywordClassifier{}
	assert.Equal(t, models.SentimentPositive, classifier.Classify("Thank you so much for the update!"))
	assert.Equal(t, models.SentimentNegative, classifier.Classify("This is UNACCEPTABLE, I will call my lawyer."))
	assert.Equal(t, models.SentimentNeutral, classifier.Classify("Will homework be posted tonight?"))
}

func TestMessageServiceSendStampsSentiment(t *testing.T) {
	repo := &mockMessageRepo{}
	svc := NewMessageService(repo, nil, nil, zap.NewNop())

	msg, err := svc.Send(context.Background(), "teacher-1", SendMessageRequest{
		RecipientID: "parent-1",
		Body:        "I really appreciate your help with the field trip.",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SentimentPositive, msg.Sentiment)
	assert.Equal(t, "teacher-1", msg.SenderID)
	assert.Len(t, repo.messages, 1)
}

func TestMessageServiceRejectsSelfMessage(t *testing.T) {
	svc := NewMessageService(&mockMessageRepo{}, nil, nil, zap.NewNop())
	_, err := svc.Send(context.Background(), "u1", SendMessageRequest{RecipientID: "u1", Body: "hi"})
	require.Error(t, err)
}

func TestMessageServiceConversationRequiresParticipants(t *testing.T) {
	svc := NewMessageService(&mockMessageRepo{}, nil, nil, zap.NewNop())
	_, _, err := svc.Conversation(context.Background(), models.MessageFilter{ParticipantID: "u1"})
	require.Error(t, err)
}

func TestMessageServiceMarkRead(t *testing.T) {
	repo := &mockMessageRepo{}
	svc := NewMessageService(repo, nil, nil, zap.NewNop())

	require.NoError(t, svc.MarkRead(context.Background(), "m1"))
	assert.Equal(t, []string{"m1"}, repo.readIDs)
}
