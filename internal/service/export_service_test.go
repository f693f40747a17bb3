package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/teacherlink/teacherlink-api/internal/models"
	"github.com/teacherlink/teacherlink-api/pkg/jobs"
	"github.com/teacherlink/teacherlink-api/pkg/storage"
)

type mockExportRepo struct {
	jobs map[string]*models.ExportJob
}

func newMockExportRepo() *mockExportRepo {
	return &mockExportRepo{jobs: map[string]*models.ExportJob{}}
}

func (m *mockExportRepo) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = "job-1"
	}
	m.jobs[job.ID] = job
	return nil
}

func (m *mockExportRepo) FindByID(ctx context.Context, id string) (*models.ExportJob, error) {
	job := *m.jobs[id]
	return &job, nil
}

func (m *mockExportRepo) UpdateStatus(ctx context.Context, id string, status models.ExportStatus) error {
	m.jobs[id].Status = status
	return nil
}

func (m *mockExportRepo) MarkFinished(ctx context.Context, id, filePath, downloadURL string, finishedAt time.Time) error {
	job := m.jobs[id]
	job.Status = models.ExportStatusFinished
	job.FilePath = &filePath
	job.DownloadURL = &downloadURL
	job.FinishedAt = &finishedAt
	return nil
}

func (m *mockExportRepo) MarkFailed(ctx context.Context, id, reason string, finishedAt time.Time) error {
	job := m.jobs[id]
	job.Status = models.ExportStatusFailed
	job.ErrorMessage = &reason
	job.FinishedAt = &finishedAt
	return nil
}

type mockSummarizer struct {
	summaries []models.StudentPointsSummary
}

func (m *mockSummarizer) ClassSummary(ctx context.Context, classID string) ([]models.StudentPointsSummary, error) {
	return m.summaries, nil
}

func newExportService(t *testing.T, repo *mockExportRepo) *ExportService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	points := &mockSummarizer{summaries: []models.StudentPointsSummary{
		{StudentID: "emma", ClassID: "class-1", TotalPoints: 5, PositiveCount: 3, NegativeCount: 1},
		{StudentID: "liam", ClassID: "class-1"},
	}}
	return NewExportService(repo, points, store, signer, jobs.QueueConfig{Workers: 1}, zap.NewNop(), true)
}

func TestExportServiceRendersCSVReport(t *testing.T) {
	repo := newMockExportRepo()
	svc := newExportService(t, repo)

	job := &models.ExportJob{ID: "job-1", ClassID: "class-1", Format: models.ExportFormatCSV, Status: models.ExportStatusQueued}
	repo.jobs[job.ID] = job

	err := svc.handleJob(context.Background(), jobs.Job{ID: job.ID, Type: jobTypeClassReport, Payload: job.ID})
	require.NoError(t, err)

	stored := repo.jobs["job-1"]
	assert.Equal(t, models.ExportStatusFinished, stored.Status)
	require.NotNil(t, stored.DownloadURL)
	assert.Contains(t, *stored.DownloadURL, "/exports/download/")

	file, relPath, err := svc.ResolveDownload(tokenFromURL(t, *stored.DownloadURL))
	require.NoError(t, err)
	defer file.Close() //nolint:errcheck
	assert.Contains(t, relPath, "class-1")

	buf := make([]byte, 256)
	n, _ := file.Read(buf)
	content := string(buf[:n])
	assert.Contains(t, content, "Student ID")
	assert.Contains(t, content, "emma")
}

func TestExportServiceRejectsBadToken(t *testing.T) {
	svc := newExportService(t, newMockExportRepo())
	_, _, err := svc.ResolveDownload("tampered.token.value.sig")
	require.Error(t, err)
}

func TestExportServiceDisabled(t *testing.T) {
	svc := NewExportService(newMockExportRepo(), &mockSummarizer{}, nil, nil, jobs.QueueConfig{}, zap.NewNop(), false)
	_, err := svc.Request(context.Background(), "class-1", models.ExportFormatCSV, "u1")
	require.Error(t, err)
}

func TestExportServiceValidatesFormat(t *testing.T) {
	svc := newExportService(t, newMockExportRepo())
	_, err := svc.Request(context.Background(), "class-1", models.ExportFormat("xlsx"), "u1")
	require.Error(t, err)
}

func tokenFromURL(t *testing.T, url string) string {
	t.Helper()
	idx := strings.LastIndex(url, "/")
	require.GreaterOrEqual(t, idx, 0)
	return url[idx+1:]
}
