package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/teacherlink/teacherlink-api/internal/models"
)

// PointRecordRepository manages persistence for behavior point records.
type PointRecordRepository struct {
	db *sqlx.DB
}

// NewPointRecordRepository constructs a new repository.
func NewPointRecordRepository(db *sqlx.DB) *PointRecordRepository {
	return &PointRecordRepository{db: db}
}

// Create inserts a new point record. Records are append-only; there is no
// update path by design.
func (r *PointRecordRepository) Create(ctx context.Context, record *models.PointRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO point_records (id, student_id, class_id, behavior_id, behavior_name, points, awarded_by, awarded_by_name, created_at)
VALUES (:id, :student_id, :class_id, :behavior_id, :behavior_name, :points, :awarded_by, :awarded_by_name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create point record: %w", err)
	}
	return nil
}

// List returns point records per provided filter, newest first.
func (r *PointRecordRepository) List(ctx context.Context, filter models.PointRecordFilter) ([]models.PointRecord, int, error) {
	base := "FROM point_records"
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.StudentID != "" {
		where = append(where, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ClassID != "" {
		where = append(where, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	whereClause := strings.Join(where, " AND ")
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size
	query := fmt.Sprintf(`SELECT id, student_id, class_id, behavior_id, behavior_name, points, awarded_by, awarded_by_name, created_at
%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, base, whereClause, size, offset)
	var records []models.PointRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list point records: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count point records: %w", err)
	}
	return records, total, nil
}

// DeleteByStudent removes every record for (studentID, classID) and returns
// the number of rows wiped. Used exclusively by the reset operation.
func (r *PointRecordRepository) DeleteByStudent(ctx context.Context, studentID, classID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM point_records WHERE student_id = $1 AND class_id = $2", studentID, classID)
	if err != nil {
		return 0, fmt.Errorf("reset point records: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset point records affected: %w", err)
	}
	return affected, nil
}

// Summary aggregates point metrics for one student within one classroom.
// Always derived from the rows currently persisted, never from a cache.
func (r *PointRecordRepository) Summary(ctx context.Context, studentID, classID string) (*models.StudentPointsSummary, error) {
	query := `SELECT COALESCE(SUM(points),0) AS total_points,
        COALESCE(SUM(CASE WHEN points > 0 THEN 1 ELSE 0 END),0) AS positive_count,
        COALESCE(SUM(CASE WHEN points < 0 THEN 1 ELSE 0 END),0) AS negative_count
FROM point_records
WHERE student_id = $1 AND class_id = $2`
	summary := models.StudentPointsSummary{StudentID: studentID, ClassID: classID}
	if err := r.db.QueryRowxContext(ctx, query, studentID, classID).Scan(&summary.TotalPoints, &summary.PositiveCount, &summary.NegativeCount); err != nil {
		return nil, fmt.Errorf("point summary: %w", err)
	}
	return &summary, nil
}

// ClassSummary aggregates per-student metrics for a whole classroom. Students
// without records are absent here; the service layer fills in zero summaries
// from the roster.
func (r *PointRecordRepository) ClassSummary(ctx context.Context, classID string) ([]models.StudentPointsSummary, error) {
	query := `SELECT student_id,
        class_id,
        COALESCE(SUM(points),0) AS total_points,
        COALESCE(SUM(CASE WHEN points > 0 THEN 1 ELSE 0 END),0) AS positive_count,
        COALESCE(SUM(CASE WHEN points < 0 THEN 1 ELSE 0 END),0) AS negative_count
FROM point_records
WHERE class_id = $1
GROUP BY student_id, class_id`
	var summaries []models.StudentPointsSummary
	if err := r.db.SelectContext(ctx, &summaries, query, classID); err != nil {
		return nil, fmt.Errorf("class point summary: %w", err)
	}
	return summaries, nil
}
