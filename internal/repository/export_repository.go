package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/teacherlink/teacherlink-api/internal/models"
)

// ExportRepository manages persistence for export job metadata.
type ExportRepository struct {
	db *sqlx.DB
}

// NewExportRepository constructs a new repository.
func NewExportRepository(db *sqlx.DB) *ExportRepository {
	return &ExportRepository{db: db}
}

// Create inserts a new export job.
func (r *ExportRepository) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	if job.Status == "" {
		job.Status = models.ExportStatusQueued
	}
	query := `INSERT INTO export_jobs (id, class_id, format, status, file_path, download_url, created_by, created_at, finished_at, error_message)
VALUES (:id, :class_id, :format, :status, :file_path, :download_url, :created_by, :created_at, :finished_at, :error_message)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create export job: %w", err)
	}
	return nil
}

// FindByID fetches one export job.
func (r *ExportRepository) FindByID(ctx context.Context, id string) (*models.ExportJob, error) {
	query := `SELECT id, class_id, format, status, file_path, download_url, created_by, created_at, finished_at, error_message
FROM export_jobs WHERE id = $1`
	var job models.ExportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// UpdateStatus transitions a job to the given status.
func (r *ExportRepository) UpdateStatus(ctx context.Context, id string, status models.ExportStatus) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE export_jobs SET status = $1 WHERE id = $2", status, id); err != nil {
		return fmt.Errorf("update export status: %w", err)
	}
	return nil
}

// MarkFinished records a successful render with its artifact location.
func (r *ExportRepository) MarkFinished(ctx context.Context, id, filePath, downloadURL string, finishedAt time.Time) error {
	query := `UPDATE export_jobs SET status = $1, file_path = $2, download_url = $3, finished_at = $4 WHERE id = $5`
	if _, err := r.db.ExecContext(ctx, query, models.ExportStatusFinished, filePath, downloadURL, finishedAt, id); err != nil {
		return fmt.Errorf("finish export job: %w", err)
	}
	return nil
}

// MarkFailed records a failed render with the failure reason.
func (r *ExportRepository) MarkFailed(ctx context.Context, id, reason string, finishedAt time.Time) error {
	query := `UPDATE export_jobs SET status = $1, error_message = $2, finished_at = $3 WHERE id = $4`
	if _, err := r.db.ExecContext(ctx, query, models.ExportStatusFailed, reason, finishedAt, id); err != nil {
		return fmt.Errorf("fail export job: %w", err)
	}
	return nil
}
