package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/teacherlink/teacherlink-api/internal/models"
)

// FeedService pushes point-ledger change notifications over Redis Pub/Sub,
// one channel per classroom. Dashboard and mobile sessions subscribe to the
// classes they display and fold the events into their local summaries; the
// fold converges with a full re-fetch, so a dropped subscription only costs
// latency, never correctness.
type FeedService struct {
	client  *redis.Client
	prefix  string
	metrics *MetricsService
	logger  *zap.Logger
	enabled bool
}

// NewFeedService constructs the feed service.
func NewFeedService(client *redis.Client, prefix string, metrics *MetricsService, logger *zap.Logger, enabled bool) *FeedService {
	if prefix == "" {
		prefix = "points"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedService{client: client, prefix: prefix, metrics: metrics, logger: logger, enabled: enabled}
}

// Enabled indicates whether the feed is active.
func (s *FeedService) Enabled() bool {
	return s != nil && s.enabled && s.client != nil
}

func (s *FeedService) channel(classID string) string {
	return fmt.Sprintf("%s:class:%s", s.prefix, classID)
}

// Publish sends one event to the classroom channel. Publish failures are
// logged and swallowed: the feed is a latency optimisation, the ledger rows
// remain the ground truth.
func (s *FeedService) Publish(ctx context.Context, event models.PointEvent) {
	if !s.Enabled() {
		return
	}
	if event.EmittedAt.IsZero() {
		event.EmittedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("marshal point event", zap.Error(err))
		return
	}
	if err := s.client.Publish(ctx, s.channel(event.ClassID), payload).Err(); err != nil {
		s.logger.Warn("publish point event",
			zap.String("class_id", event.ClassID),
			zap.Error(err))
		return
	}
	if s.metrics != nil {
		s.metrics.RecordFeedEvent(string(event.Type))
	}
}

// Subscribe opens a change feed for one classroom. Events arrive on the
// returned channel until cancel is called or ctx is done; the channel is
// closed on teardown. Callers own the subscription and must cancel it when
// the owning view goes away.
func (s *FeedService) Subscribe(ctx context.Context, classID string) (<-chan models.PointEvent, func(), error) {
	if !s.Enabled() {
		return nil, nil, fmt.Errorf("points feed disabled")
	}

	pubsub := s.client.Subscribe(ctx, s.channel(classID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe points feed: %w", err)
	}

	events := make(chan models.PointEvent, 16)
	done := make(chan struct{})

	go func() {
		defer close(events)
		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var event models.PointEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					s.logger.Warn("decode point event", zap.Error(err))
					continue
				}
				select {
				case events <- event:
				case <-ctx.Done():
					return
				case <-done:
					return
				}
			}
		}
	}()

	cancel := func() {
		close(done)
		_ = pubsub.Close()
	}
	return events, cancel, nil
}
