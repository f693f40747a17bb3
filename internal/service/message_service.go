package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/teacherlink/teacherlink-api/internal/models"
	appErrors "github.com/teacherlink/teacherlink-api/pkg/errors"
)

type messageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	ListConversation(ctx context.Context, filter models.MessageFilter) ([]models.Message, int, error)
	MarkRead(ctx context.Context, id string, at time.Time) error
}

// SentimentClassifier assigns a tone bucket to outgoing message bodies.
// Production wires an external scoring collaborator; KeywordClassifier is
// the built-in fallback.
type SentimentClassifier interface {
	Classify(body string) models.MessageSentiment
}

// KeywordClassifier buckets messages on simple keyword hits. Deliberately
// coarse: unknown text lands in neutral, which the hostility score treats
// as benign.
type KeywordClassifier struct{}

var negativeMarkers = []string{"angry", "unacceptable", "lawyer", "complain", "furious", "ridiculous", "incompetent"}
var positiveMarkers = []string{"thank", "appreciate", "great", "wonderful", "love", "grateful"}

// Classify implements SentimentClassifier.
func (KeywordClassifier) Classify(body string) models.MessageSentiment {
	lower := strings.ToLower(body)
	for _, marker := range negativeMarkers {
		if strings.Contains(lower, marker) {
			return models.SentimentNegative
		}
	}
	for _, marker := range positiveMarkers {
		if strings.Contains(lower, marker) {
			return models.SentimentPositive
		}
	}
	return models.SentimentNeutral
}

// SendMessageRequest is the payload for sending a direct message.
type SendMessageRequest struct {
	RecipientID string `json:"recipient_id" validate:"required"`
	Body        string `json:"body" validate:"required,max=4000"`
}

// MessageService handles teacher/parent direct messaging.
type MessageService struct {
	repo       messageRepository
	classifier SentimentClassifier
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewMessageService constructs the service.
func NewMessageService(repo messageRepository, classifier SentimentClassifier, validate *validator.Validate, logger *zap.Logger) *MessageService {
	if classifier == nil {
		classifier = KeywordClassifier{}
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageService{repo: repo, classifier: classifier, validator: validate, logger: logger}
}

// Send stores a new message with its sentiment stamped at write time.
func (s *MessageService) Send(ctx context.Context, senderID string, req SendMessageRequest) (*models.Message, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid message payload")
	}
	if senderID == req.RecipientID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot message yourself")
	}

	msg := &models.Message{
		SenderID:    senderID,
		RecipientID: req.RecipientID,
		Body:        req.Body,
		Sentiment:   s.classifier.Classify(req.Body),
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store message")
	}
	return msg, nil
}

// Conversation returns the message history between the caller and a peer.
func (s *MessageService) Conversation(ctx context.Context, filter models.MessageFilter) ([]models.Message, *models.Pagination, error) {
	if filter.ParticipantID == "" || filter.PeerID == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "both participants are required")
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	messages, total, err := s.repo.ListConversation(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list conversation")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return messages, pagination, nil
}

// MarkRead stamps a message as read.
func (s *MessageService) MarkRead(ctx context.Context, messageID string) error {
	if messageID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "message id is required")
	}
	if err := s.repo.MarkRead(ctx, messageID, time.Now().UTC()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark message read")
	}
	return nil
}
