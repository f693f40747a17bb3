package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/teacherlink/teacherlink-api/internal/models"
	appErrors "github.com/teacherlink/teacherlink-api/pkg/errors"
)

type mockPointRepo struct {
	records   []models.PointRecord
	failFor   map[string]error
	deleteErr error
}

func (m *mockPointRepo) Create(ctx context.Context, record *models.PointRecord) error {
	if err, ok := m.failFor[record.StudentID]; ok {
		return err
	}
	// Mirror the store contract: the repository assigns id and timestamp.
	record.ID = fmt.Sprintf("record-%d", len(m.records)+1)
	record.CreatedAt = time.Now().UTC()
	m.records = append(m.records, *record)
	return nil
}

func (m *mockPointRepo) List(ctx context.Context, filter models.PointRecordFilter) ([]models.PointRecord, int, error) {
	var out []models.PointRecord
	for _, r := range m.records {
		if filter.StudentID != "" && r.StudentID != filter.StudentID {
			continue
		}
		if filter.ClassID != "" && r.ClassID != filter.ClassID {
			continue
		}
		out = append(out, r)
	}
	return out, len(out), nil
}

func (m *mockPointRepo) DeleteByStudent(ctx context.Context, studentID, classID string) (int64, error) {
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	var kept []models.PointRecord
	var deleted int64
	for _, r := range m.records {
		if r.StudentID == studentID && r.ClassID == classID {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	m.records = kept
	return deleted, nil
}

func (m *mockPointRepo) Summary(ctx context.Context, studentID, classID string) (*models.StudentPointsSummary, error) {
	var records []models.PointRecord
	for _, r := range m.records {
		if r.StudentID == studentID && r.ClassID == classID {
			records = append(records, r)
		}
	}
	summary := Summarize(studentID, classID, records)
	return &summary, nil
}

func (m *mockPointRepo) ClassSummary(ctx context.Context, classID string) ([]models.StudentPointsSummary, error) {
	grouped := map[string][]models.PointRecord{}
	for _, r := range m.records {
		if r.ClassID == classID {
			grouped[r.StudentID] = append(grouped[r.StudentID], r)
		}
	}
	var out []models.StudentPointsSummary
	for studentID, records := range grouped {
		out = append(out, Summarize(studentID, classID, records))
	}
	return out, nil
}

type mockRoster struct {
	ids []string
}

func (m *mockRoster) ListIDsByClass(ctx context.Context, classID string) ([]string, error) {
	return m.ids, nil
}

type mockFeed struct {
	events []models.PointEvent
}

func (m *mockFeed) Publish(ctx context.Context, event models.PointEvent) {
	m.events = append(m.events, event)
}

type mockNotifier struct {
	notified []models.PointRecord
}

func (m *mockNotifier) NotifyAwards(records []models.PointRecord) {
	m.notified = append(m.notified, records...)
}

func newPointsService(repo *mockPointRepo, roster *mockRoster, feed *mockFeed, notifier *mockNotifier) *PointsService {
	// Wrap into the dependency interfaces only when set; a typed nil pointer
	// would defeat the service's nil guards.
	var feedDep pointEventPublisher
	if feed != nil {
		feedDep = feed
	}
	var notifierDep awardNotifier
	if notifier != nil {
		notifierDep = notifier
	}
	return NewPointsService(repo, roster, models.DefaultCatalog(), nil, feedDep, notifierDep, nil, nil, zap.NewNop())
}

func TestAwardFanOutCreatesOneRecordPerStudent(t *testing.T) {
	repo := &mockPointRepo{}
	feed := &mockFeed{}
	notifier := &mockNotifier{}
	svc := newPointsService(repo, &mockRoster{}, feed, notifier)

	result, err := svc.Award(context.Background(), AwardRequest{
		StudentIDs: []string{"emma", "liam", "ava"},
		ClassID:    "class-1",
		BehaviorID: "helping-others",
	}, Actor{ID: "t1", Name: "Ms. Rivera"})
	require.NoError(t, err)

	assert.Len(t, result.Records, 3)
	assert.Empty(t, result.Failed)
	for _, r := range result.Records {
		assert.Equal(t, "helping-others", r.BehaviorID)
		assert.Equal(t, "Helping others", r.BehaviorName)
		assert.Equal(t, 2, r.Points)
		assert.Equal(t, "t1", r.AwardedBy)
		assert.Equal(t, "Ms. Rivera", r.AwardedByName)
		assert.NotEmpty(t, r.ID)
	}
	assert.Len(t, feed.events, 3)
	assert.Len(t, notifier.notified, 3)
}

func TestAwardUnknownBehaviorRejected(t *testing.T) {
	repo := &mockPointRepo{}
	svc := newPointsService(repo, &mockRoster{}, nil, nil)

	_, err := svc.Award(context.Background(), AwardRequest{
		StudentIDs: []string{"emma"},
		ClassID:    "class-1",
		BehaviorID: "does-not-exist",
	}, Actor{})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnknownBehavior.Code, appErr.Code)
	assert.Empty(t, repo.records)
}

func TestAwardPartialFailureReportsPerStudent(t *testing.T) {
	repo := &mockPointRepo{failFor: map[string]error{"liam": errors.New("connection reset")}}
	feed := &mockFeed{}
	svc := newPointsService(repo, &mockRoster{}, feed, nil)

	result, err := svc.Award(context.Background(), AwardRequest{
		StudentIDs: []string{"emma", "liam", "ava"},
		ClassID:    "class-1",
		BehaviorID: "teamwork",
	}, Actor{ID: "t1"})
	require.NoError(t, err)

	assert.Len(t, result.Records, 2)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "liam", result.Failed[0].StudentID)
	assert.Contains(t, result.Failed[0].Reason, "connection reset")
	// Persisted records stay persisted; only created events are published.
	assert.Len(t, repo.records, 2)
	assert.Len(t, feed.events, 2)
}

func TestAwardWithoutFeedOrNotifierConfigured(t *testing.T) {
	repo := &mockPointRepo{failFor: map[string]error{"liam": errors.New("connection reset")}}
	svc := newPointsService(repo, &mockRoster{}, nil, nil)

	result, err := svc.Award(context.Background(), AwardRequest{
		StudentIDs: []string{"emma", "liam"},
		ClassID:    "class-1",
		BehaviorID: "teamwork",
	}, Actor{ID: "t1"})
	require.NoError(t, err)

	assert.Len(t, result.Records, 1)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "liam", result.Failed[0].StudentID)
}

func TestAwardAllFailedReturnsError(t *testing.T) {
	repo := &mockPointRepo{failFor: map[string]error{"emma": errors.New("down")}}
	svc := newPointsService(repo, &mockRoster{}, nil, nil)

	result, err := svc.Award(context.Background(), AwardRequest{
		StudentIDs: []string{"emma"},
		ClassID:    "class-1",
		BehaviorID: "teamwork",
	}, Actor{})
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Len(t, result.Failed, 1)
	assert.Empty(t, result.Records)
}

func TestAwardSnapshotSurvivesCatalogChange(t *testing.T) {
	repo := &mockPointRepo{}
	custom := models.NewCatalog([]models.Behavior{{ID: "effort", Name: "Great effort", Points: 2}})
	svc := NewPointsService(repo, &mockRoster{}, custom, nil, nil, nil, nil, nil, zap.NewNop())

	_, err := svc.Award(context.Background(), AwardRequest{
		StudentIDs: []string{"emma"},
		ClassID:    "class-1",
		BehaviorID: "effort",
	}, Actor{})
	require.NoError(t, err)

	// A later service generation with a changed catalog value must not
	// affect the persisted record or its summary.
	changed := models.NewCatalog([]models.Behavior{{ID: "effort", Name: "Great effort", Points: 5}})
	svc2 := NewPointsService(repo, &mockRoster{}, changed, nil, nil, nil, nil, nil, zap.NewNop())

	summary, err := svc2.Summary(context.Background(), "emma", "class-1")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalPoints)
	assert.Equal(t, "Great effort", repo.records[0].BehaviorName)
	assert.Equal(t, 2, repo.records[0].Points)
}

func TestAwardDeduplicatesStudentIDs(t *testing.T) {
	repo := &mockPointRepo{}
	svc := newPointsService(repo, &mockRoster{}, nil, nil)

	result, err := svc.Award(context.Background(), AwardRequest{
		StudentIDs: []string{"emma", "emma", "liam"},
		ClassID:    "class-1",
		BehaviorID: "kindness",
	}, Actor{})
	require.NoError(t, err)
	assert.Len(t, result.Records, 2)
}

func TestResetReturnsZeroSummaryAndPublishesEvent(t *testing.T) {
	repo := &mockPointRepo{}
	feed := &mockFeed{}
	svc := newPointsService(repo, &mockRoster{}, feed, nil)

	_, err := svc.Award(context.Background(), AwardRequest{
		StudentIDs: []string{"emma"},
		ClassID:    "class-1",
		BehaviorID: "disrespect",
	}, Actor{})
	require.NoError(t, err)

	summary, err := svc.Reset(context.Background(), "emma", "class-1", Actor{ID: "t1"})
	require.NoError(t, err)

	assert.Equal(t, 0, summary.TotalPoints)
	assert.Equal(t, 0, summary.PositiveCount)
	assert.Equal(t, 0, summary.NegativeCount)
	assert.Empty(t, repo.records)

	last := feed.events[len(feed.events)-1]
	assert.Equal(t, models.PointEventReset, last.Type)
	assert.Equal(t, "emma", last.StudentID)
}

func TestResetScopedToClassroom(t *testing.T) {
	repo := &mockPointRepo{}
	svc := newPointsService(repo, &mockRoster{}, nil, nil)

	for _, classID := range []string{"class-1", "class-2"} {
		_, err := svc.Award(context.Background(), AwardRequest{
			StudentIDs: []string{"emma"},
			ClassID:    classID,
			BehaviorID: "on-task",
		}, Actor{})
		require.NoError(t, err)
	}

	_, err := svc.Reset(context.Background(), "emma", "class-1", Actor{})
	require.NoError(t, err)

	other, err := svc.Summary(context.Background(), "emma", "class-2")
	require.NoError(t, err)
	assert.Equal(t, 1, other.TotalPoints)
}

func TestClassSummaryIncludesZeroRecordStudents(t *testing.T) {
	repo := &mockPointRepo{}
	roster := &mockRoster{ids: []string{"emma", "liam", "ava"}}
	svc := newPointsService(repo, roster, nil, nil)

	_, err := svc.Award(context.Background(), AwardRequest{
		StudentIDs: []string{"emma"},
		ClassID:    "class-1",
		BehaviorID: "leadership",
	}, Actor{})
	require.NoError(t, err)

	summaries, err := svc.ClassSummary(context.Background(), "class-1")
	require.NoError(t, err)
	require.Len(t, summaries, 3)

	byStudent := map[string]models.StudentPointsSummary{}
	for _, s := range summaries {
		byStudent[s.StudentID] = s
	}
	assert.Equal(t, 3, byStudent["emma"].TotalPoints)
	assert.Equal(t, models.StudentPointsSummary{StudentID: "liam", ClassID: "class-1"}, byStudent["liam"])
	assert.Equal(t, models.StudentPointsSummary{StudentID: "ava", ClassID: "class-1"}, byStudent["ava"])
}

func TestAwardThenSummaryScenario(t *testing.T) {
	repo := &mockPointRepo{}
	svc := newPointsService(repo, &mockRoster{}, nil, nil)

	awards := []string{"helping-others", "great-listening", "talking-out-of-turn"}
	for _, behaviorID := range awards {
		_, err := svc.Award(context.Background(), AwardRequest{
			StudentIDs: []string{"emma"},
			ClassID:    "class-1",
			BehaviorID: behaviorID,
		}, Actor{})
		require.NoError(t, err)
	}

	summary, err := svc.Summary(context.Background(), "emma", "class-1")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalPoints) // +2 +1 -1
	assert.Equal(t, 2, summary.PositiveCount)
	assert.Equal(t, 1, summary.NegativeCount)
}
