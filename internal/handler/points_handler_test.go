package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/teacherlink/teacherlink-api/internal/middleware"
	"github.com/teacherlink/teacherlink-api/internal/models"
	"github.com/teacherlink/teacherlink-api/internal/service"
	"github.com/teacherlink/teacherlink-api/pkg/response"
)

type stubPointRepo struct {
	records []models.PointRecord
	failFor map[string]error
}

func (s *stubPointRepo) Create(ctx context.Context, record *models.PointRecord) error {
	if err, ok := s.failFor[record.StudentID]; ok {
		return err
	}
	s.records = append(s.records, *record)
	return nil
}

func (s *stubPointRepo) List(ctx context.Context, filter models.PointRecordFilter) ([]models.PointRecord, int, error) {
	return s.records, len(s.records), nil
}

func (s *stubPointRepo) DeleteByStudent(ctx context.Context, studentID, classID string) (int64, error) {
	deleted := int64(len(s.records))
	s.records = nil
	return deleted, nil
}

func (s *stubPointRepo) Summary(ctx context.Context, studentID, classID string) (*models.StudentPointsSummary, error) {
	summary := models.StudentPointsSummary{StudentID: studentID, ClassID: classID}
	for _, r := range s.records {
		summary.TotalPoints += r.Points
		if r.Points > 0 {
			summary.PositiveCount++
		} else if r.Points < 0 {
			summary.NegativeCount++
		}
	}
	return &summary, nil
}

func (s *stubPointRepo) ClassSummary(ctx context.Context, classID string) ([]models.StudentPointsSummary, error) {
	return nil, nil
}

type stubRoster struct{}

func (stubRoster) ListIDsByClass(ctx context.Context, classID string) ([]string, error) {
	return nil, nil
}

func newTestPointsHandler(repo *stubPointRepo) *PointsHandler {
	svc := service.NewPointsService(repo, stubRoster{}, models.DefaultCatalog(), nil, nil, nil, nil, nil, zap.NewNop())
	return NewPointsHandler(svc, nil)
}

func teacherClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "t1", FullName: "Ms. Rivera", Role: models.RoleTeacher}
}

func TestPointsHandlerAwardSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &stubPointRepo{}
	handler := newTestPointsHandler(repo)

	payload := `{"student_ids":["emma","liam"],"class_id":"class-1","behavior_id":"teamwork"}`
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/points/awards", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, teacherClaims())

	handler.Award(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Len(t, repo.records, 2)
	assert.Equal(t, "t1", repo.records[0].AwardedBy)
	assert.Equal(t, "Ms. Rivera", repo.records[0].AwardedByName)
}

func TestPointsHandlerAwardPartialFailureReturns207(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &stubPointRepo{failFor: map[string]error{"liam": errors.New("down")}}
	handler := newTestPointsHandler(repo)

	payload := `{"student_ids":["emma","liam"],"class_id":"class-1","behavior_id":"teamwork"}`
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/points/awards", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, teacherClaims())

	handler.Award(c)
	require.Equal(t, http.StatusMultiStatus, w.Code)
	assert.Contains(t, w.Body.String(), "liam")
}

func TestPointsHandlerAwardUnknownBehavior(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestPointsHandler(&stubPointRepo{})

	payload := `{"student_ids":["emma"],"class_id":"class-1","behavior_id":"nope"}`
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/points/awards", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, teacherClaims())

	handler.Award(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "UNKNOWN_BEHAVIOR")
}

func TestPointsHandlerAwardInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTestPointsHandler(&stubPointRepo{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/points/awards", bytes.NewBufferString(`{"student_ids":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, teacherClaims())

	handler.Award(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPointsHandlerResetReturnsZeroSummary(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &stubPointRepo{records: []models.PointRecord{{StudentID: "emma", ClassID: "class-1", Points: 3}}}
	handler := newTestPointsHandler(repo)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/classes/class-1/students/emma/points", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "classId", Value: "class-1"}, {Key: "studentId", Value: "emma"}}
	c.Set(middleware.ContextUserKey, teacherClaims())

	handler.Reset(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_points":0`)
	assert.Empty(t, repo.records)
}

func TestBehaviorHandlerListSplitsPolarity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewBehaviorHandler(models.DefaultCatalog())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/behaviors", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "helping-others")
	assert.Contains(t, w.Body.String(), "disrespect")
}

func TestBehaviorHandlerRejectsBadPolarity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewBehaviorHandler(models.DefaultCatalog())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/behaviors?polarity=sideways", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
