package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/teacherlink/teacherlink-api/internal/models"
	appErrors "github.com/teacherlink/teacherlink-api/pkg/errors"
	"github.com/teacherlink/teacherlink-api/pkg/export"
	"github.com/teacherlink/teacherlink-api/pkg/jobs"
	"github.com/teacherlink/teacherlink-api/pkg/storage"
)

const jobTypeClassReport = "class_points_report"

type exportJobRepository interface {
	Create(ctx context.Context, job *models.ExportJob) error
	FindByID(ctx context.Context, id string) (*models.ExportJob, error)
	UpdateStatus(ctx context.Context, id string, status models.ExportStatus) error
	MarkFinished(ctx context.Context, id, filePath, downloadURL string, finishedAt time.Time) error
	MarkFailed(ctx context.Context, id, reason string, finishedAt time.Time) error
}

type classSummarizer interface {
	ClassSummary(ctx context.Context, classID string) ([]models.StudentPointsSummary, error)
}

// ExportService renders class points reports asynchronously: a request queues
// a render job, the worker writes the artifact to storage and stamps a signed
// download URL on the job row.
type ExportService struct {
	repo    exportJobRepository
	points  classSummarizer
	store   *storage.LocalStorage
	signer  *storage.SignedURLSigner
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	queue   *jobs.Queue
	logger  *zap.Logger
	enabled bool
}

// NewExportService constructs the service and its render queue.
func NewExportService(
	repo exportJobRepository,
	points classSummarizer,
	store *storage.LocalStorage,
	signer *storage.SignedURLSigner,
	queueCfg jobs.QueueConfig,
	logger *zap.Logger,
	enabled bool,
) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ExportService{
		repo:    repo,
		points:  points,
		store:   store,
		signer:  signer,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
		enabled: enabled,
	}
	queueCfg.Logger = logger
	s.queue = jobs.NewQueue("exports", s.handleJob, queueCfg)
	return s
}

// Enabled indicates whether exports are active.
func (s *ExportService) Enabled() bool {
	return s != nil && s.enabled && s.store != nil && s.signer != nil
}

// Start launches the render workers.
func (s *ExportService) Start(ctx context.Context) {
	if s.Enabled() {
		s.queue.Start(ctx)
	}
}

// Stop drains the render workers.
func (s *ExportService) Stop() {
	if s.Enabled() {
		s.queue.Stop()
	}
}

// Request queues a class points report and returns the job metadata.
func (s *ExportService) Request(ctx context.Context, classID string, format models.ExportFormat, createdBy string) (*models.ExportJob, error) {
	if !s.Enabled() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled")
	}
	if classID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class id is required")
	}
	if format != models.ExportFormatCSV && format != models.ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", format))
	}

	job := &models.ExportJob{
		ClassID:   classID,
		Format:    format,
		Status:    models.ExportStatusQueued,
		CreatedBy: createdBy,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: jobTypeClassReport, Payload: job.ID}); err != nil {
		now := time.Now().UTC()
		if markErr := s.repo.MarkFailed(ctx, job.ID, "enqueue failed", now); markErr != nil {
			s.logger.Warn("mark export failed", zap.String("job_id", job.ID), zap.Error(markErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	return job, nil
}

// Status returns the job metadata including the download URL once finished.
func (s *ExportService) Status(ctx context.Context, jobID string) (*models.ExportJob, error) {
	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch export job")
	}
	return job, nil
}

// ResolveDownload validates a signed token and opens the referenced artifact.
func (s *ExportService) ResolveDownload(token string) (*os.File, string, error) {
	if !s.Enabled() {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "exports are disabled")
	}
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export artifact not found")
	}
	return file, relPath, nil
}

func (s *ExportService) handleJob(ctx context.Context, job jobs.Job) error {
	jobID, ok := job.Payload.(string)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}

	record, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load export job: %w", err)
	}
	if err := s.repo.UpdateStatus(ctx, jobID, models.ExportStatusProcessing); err != nil {
		s.logger.Warn("mark export processing", zap.String("job_id", jobID), zap.Error(err))
	}

	if err := s.render(ctx, record); err != nil {
		now := time.Now().UTC()
		if markErr := s.repo.MarkFailed(ctx, jobID, err.Error(), now); markErr != nil {
			s.logger.Warn("mark export failed", zap.String("job_id", jobID), zap.Error(markErr))
		}
		return err
	}
	return nil
}

func (s *ExportService) render(ctx context.Context, job *models.ExportJob) error {
	summaries, err := s.points.ClassSummary(ctx, job.ClassID)
	if err != nil {
		return fmt.Errorf("summarise class: %w", err)
	}

	dataset := export.Dataset{
		Headers: []string{"Student ID", "Total Points", "Positive", "Negative"},
	}
	for _, summary := range summaries {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student ID":   summary.StudentID,
			"Total Points": strconv.Itoa(summary.TotalPoints),
			"Positive":     strconv.Itoa(summary.PositiveCount),
			"Negative":     strconv.Itoa(summary.NegativeCount),
		})
	}

	var payload []byte
	switch job.Format {
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, fmt.Sprintf("Class %s points report", job.ClassID))
	default:
		payload, err = s.csv.Render(dataset)
	}
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	relPath := fmt.Sprintf("points/%s-%s.%s", job.ClassID, job.ID, job.Format)
	if _, err := s.store.Save(relPath, payload); err != nil {
		return fmt.Errorf("store report: %w", err)
	}

	token, _, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return fmt.Errorf("sign download url: %w", err)
	}
	downloadURL := fmt.Sprintf("/api/v1/exports/download/%s", token)

	if err := s.repo.MarkFinished(ctx, job.ID, relPath, downloadURL, time.Now().UTC()); err != nil {
		return fmt.Errorf("finish export job: %w", err)
	}
	s.logger.Info("export finished",
		zap.String("job_id", job.ID),
		zap.String("class_id", job.ClassID),
		zap.String("format", string(job.Format)))
	return nil
}
