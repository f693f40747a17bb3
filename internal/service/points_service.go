package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/teacherlink/teacherlink-api/internal/models"
	appErrors "github.com/teacherlink/teacherlink-api/pkg/errors"
)

type pointRecordRepository interface {
	Create(ctx context.Context, record *models.PointRecord) error
	List(ctx context.Context, filter models.PointRecordFilter) ([]models.PointRecord, int, error)
	DeleteByStudent(ctx context.Context, studentID, classID string) (int64, error)
	Summary(ctx context.Context, studentID, classID string) (*models.StudentPointsSummary, error)
	ClassSummary(ctx context.Context, classID string) ([]models.StudentPointsSummary, error)
}

type rosterReader interface {
	ListIDsByClass(ctx context.Context, classID string) ([]string, error)
}

type pointEventPublisher interface {
	Publish(ctx context.Context, event models.PointEvent)
}

type awardNotifier interface {
	NotifyAwards(records []models.PointRecord)
}

// PointsService implements the behavior-points ledger: awards, resets,
// summaries and history. Summaries are always derived from persisted records;
// the cache is invalidated on every mutation and repopulated on read.
type PointsService struct {
	repo      pointRecordRepository
	roster    rosterReader
	catalog   models.Catalog
	cache     *CacheService
	feed      pointEventPublisher
	notifier  awardNotifier
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPointsService constructs the service. Catalog is injected as a value so
// tests can exercise alternative behavior sets.
func NewPointsService(
	repo pointRecordRepository,
	roster rosterReader,
	catalog models.Catalog,
	cache *CacheService,
	feed pointEventPublisher,
	notifier awardNotifier,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *PointsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PointsService{
		repo:      repo,
		roster:    roster,
		catalog:   catalog,
		cache:     cache,
		feed:      feed,
		notifier:  notifier,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// Catalog returns the injected behavior catalog.
func (s *PointsService) Catalog() models.Catalog {
	return s.catalog
}

// AwardRequest describes a multi-student award.
type AwardRequest struct {
	StudentIDs []string `json:"student_ids" validate:"required,min=1,dive,required"`
	ClassID    string   `json:"class_id" validate:"required"`
	BehaviorID string   `json:"behavior_id" validate:"required"`
}

// Actor identifies the authenticated teacher performing an operation.
type Actor struct {
	ID   string
	Name string
}

// Award creates one point record per student. The fan-out is best effort:
// records persisted before a failure stay persisted, and the result names
// every failed student so the caller can retry just that subset. Behavior
// name and points are snapshotted onto each record at call time.
func (s *PointsService) Award(ctx context.Context, req AwardRequest, actor Actor) (*models.AwardResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid award payload")
	}

	behavior, ok := s.catalog.Find(req.BehaviorID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnknownBehavior, fmt.Sprintf("behavior %q not present in catalog", req.BehaviorID))
	}

	result := &models.AwardResult{}
	seen := make(map[string]struct{}, len(req.StudentIDs))
	for _, studentID := range req.StudentIDs {
		if _, dup := seen[studentID]; dup {
			continue
		}
		seen[studentID] = struct{}{}

		record := models.PointRecord{
			StudentID:     studentID,
			ClassID:       req.ClassID,
			BehaviorID:    behavior.ID,
			BehaviorName:  behavior.Name,
			Points:        behavior.Points,
			AwardedBy:     actor.ID,
			AwardedByName: actor.Name,
		}
		if err := s.repo.Create(ctx, &record); err != nil {
			s.logger.Warn("award fan-out failure",
				zap.String("student_id", studentID),
				zap.String("class_id", req.ClassID),
				zap.Error(err))
			if s.metrics != nil {
				s.metrics.RecordAwardFailure()
			}
			result.Failed = append(result.Failed, models.AwardFailure{StudentID: studentID, Reason: err.Error()})
			continue
		}
		if s.metrics != nil {
			s.metrics.RecordAward(record.Points)
		}
		result.Records = append(result.Records, record)
	}

	if len(result.Records) > 0 {
		s.invalidateSummaries(ctx, req.ClassID)
		for i := range result.Records {
			record := result.Records[i]
			if s.feed != nil {
				s.feed.Publish(ctx, models.PointEvent{
					Type:      models.PointEventCreated,
					StudentID: record.StudentID,
					ClassID:   record.ClassID,
					Record:    &record,
				})
			}
		}
		if s.notifier != nil {
			s.notifier.NotifyAwards(result.Records)
		}
	}

	if len(result.Records) == 0 && len(result.Failed) > 0 {
		return result, appErrors.Wrap(fmt.Errorf("%d of %d students failed", len(result.Failed), len(seen)),
			appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "award failed for every student")
	}
	return result, nil
}

// Reset wipes a student's point history within one classroom and returns the
// summary recomputed from the rows that remain, which is the zero summary
// when the delete fully succeeded.
func (s *PointsService) Reset(ctx context.Context, studentID, classID string, actor Actor) (*models.StudentPointsSummary, error) {
	if studentID == "" || classID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id and class id are required")
	}

	deleted, err := s.repo.DeleteByStudent(ctx, studentID, classID)
	if err != nil {
		// The delete may have removed some rows before failing. Recompute
		// from ground truth so the caller sees what actually remains.
		s.invalidateSummaries(ctx, classID)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset points")
	}

	s.invalidateSummaries(ctx, classID)
	if s.metrics != nil {
		s.metrics.RecordReset()
	}
	s.logger.Info("points reset",
		zap.String("student_id", studentID),
		zap.String("class_id", classID),
		zap.String("actor_id", actor.ID),
		zap.Int64("records_deleted", deleted))

	if s.feed != nil {
		s.feed.Publish(ctx, models.PointEvent{
			Type:      models.PointEventReset,
			StudentID: studentID,
			ClassID:   classID,
		})
	}

	summary, err := s.repo.Summary(ctx, studentID, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to recompute summary")
	}
	return summary, nil
}

// Summary returns the aggregate for one (student, class) pair, cache-aside.
func (s *PointsService) Summary(ctx context.Context, studentID, classID string) (*models.StudentPointsSummary, error) {
	key := summaryCacheKey(classID, studentID)
	if s.cache.Enabled() {
		var cached models.StudentPointsSummary
		if hit, _ := s.cache.Get(ctx, key, &cached); hit {
			return &cached, nil
		}
	}

	summary, err := s.repo.Summary(ctx, studentID, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarise points")
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, key, summary, 0); err != nil {
			s.logger.Warn("cache summary", zap.Error(err))
		}
	}
	return summary, nil
}

// ClassSummary returns one summary per rostered student. Students with no
// records get the zero summary, never an absent entry.
func (s *PointsService) ClassSummary(ctx context.Context, classID string) ([]models.StudentPointsSummary, error) {
	studentIDs, err := s.roster.ListIDsByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}

	aggregated, err := s.repo.ClassSummary(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarise class points")
	}

	byStudent := make(map[string]models.StudentPointsSummary, len(aggregated))
	for _, summary := range aggregated {
		byStudent[summary.StudentID] = summary
	}

	summaries := make([]models.StudentPointsSummary, 0, len(studentIDs))
	for _, id := range studentIDs {
		if summary, ok := byStudent[id]; ok {
			summaries = append(summaries, summary)
			continue
		}
		summaries = append(summaries, models.StudentPointsSummary{StudentID: id, ClassID: classID})
	}
	return summaries, nil
}

// History lists point records per filter with pagination.
func (s *PointsService) History(ctx context.Context, filter models.PointRecordFilter) ([]models.PointRecord, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list point records")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return records, pagination, nil
}

func (s *PointsService) invalidateSummaries(ctx context.Context, classID string) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, summaryCachePattern(classID)); err != nil {
		s.logger.Warn("invalidate summaries", zap.String("class_id", classID), zap.Error(err))
	}
}

func summaryCacheKey(classID, studentID string) string {
	return fmt.Sprintf("points:summary:%s:%s", classID, studentID)
}

func summaryCachePattern(classID string) string {
	return fmt.Sprintf("points:summary:%s:*", classID)
}
