package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teacherlink/teacherlink-api/internal/models"
	"github.com/teacherlink/teacherlink-api/pkg/jobs"
)

const jobTypeAwardNotification = "award_notification"

// AwardNotification is the payload handed to the push delivery collaborator
// when a student receives points.
type AwardNotification struct {
	StudentID     string `json:"student_id"`
	ClassID       string `json:"class_id"`
	BehaviorName  string `json:"behavior_name"`
	Points        int    `json:"points"`
	AwardedByName string `json:"awarded_by_name"`
}

// NotificationSender delivers one notification. Push transport (APNs/FCM
// relay) is an external collaborator; the default sender only logs.
type NotificationSender interface {
	Send(ctx context.Context, notification AwardNotification) error
}

// LogSender writes notifications to the application log. Used in development
// and as the fallback when no push relay is configured.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender constructs a logging sender.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// Send implements NotificationSender.
func (s *LogSender) Send(_ context.Context, n AwardNotification) error {
	s.logger.Info("award notification",
		zap.String("student_id", n.StudentID),
		zap.String("class_id", n.ClassID),
		zap.String("behavior", n.BehaviorName),
		zap.Int("points", n.Points),
		zap.String("awarded_by", n.AwardedByName))
	return nil
}

// NotificationService fans award notifications out to parents through a
// background queue so award latency never includes push delivery.
type NotificationService struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewNotificationService constructs the service and its queue.
func NewNotificationService(sender NotificationSender, cfg jobs.QueueConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sender == nil {
		sender = NewLogSender(logger)
	}
	handler := func(ctx context.Context, job jobs.Job) error {
		notification, ok := job.Payload.(AwardNotification)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", job.Payload)
		}
		return sender.Send(ctx, notification)
	}
	cfg.Logger = logger
	return &NotificationService{
		queue:  jobs.NewQueue("notifications", handler, cfg),
		logger: logger,
	}
}

// Start launches the dispatch workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the dispatch workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// NotifyAwards enqueues one notification per created record. Enqueue failures
// are logged and dropped; notifications are best effort. A nil service is a
// no-op so callers need no wiring when notifications are disabled.
func (s *NotificationService) NotifyAwards(records []models.PointRecord) {
	if s == nil {
		return
	}
	for _, record := range records {
		job := jobs.Job{
			ID:   uuid.NewString(),
			Type: jobTypeAwardNotification,
			Payload: AwardNotification{
				StudentID:     record.StudentID,
				ClassID:       record.ClassID,
				BehaviorName:  record.BehaviorName,
				Points:        record.Points,
				AwardedByName: record.AwardedByName,
			},
		}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Warn("enqueue award notification",
				zap.String("student_id", record.StudentID),
				zap.Error(err))
		}
	}
}
