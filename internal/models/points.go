package models

import "time"

// PointRecord is an immutable event recording one behavior award to one
// student. Behavior fields are copied at award time so later catalog edits
// never change historical totals. Records are only ever deleted in bulk by a
// reset.
type PointRecord struct {
	ID            string    `db:"id" json:"id"`
	StudentID     string    `db:"student_id" json:"student_id"`
	ClassID       string    `db:"class_id" json:"class_id"`
	BehaviorID    string    `db:"behavior_id" json:"behavior_id"`
	BehaviorName  string    `db:"behavior_name" json:"behavior_name"`
	Points        int       `db:"points" json:"points"`
	AwardedBy     string    `db:"awarded_by" json:"awarded_by"`
	AwardedByName string    `db:"awarded_by_name" json:"awarded_by_name"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// PointRecordFilter selects records for history listings.
type PointRecordFilter struct {
	StudentID string
	ClassID   string
	Page      int
	PageSize  int
}

// StudentPointsSummary aggregates a student's records within one classroom.
type StudentPointsSummary struct {
	StudentID     string `db:"student_id" json:"student_id"`
	ClassID       string `db:"class_id" json:"class_id"`
	TotalPoints   int    `db:"total_points" json:"total_points"`
	PositiveCount int    `db:"positive_count" json:"positive_count"`
	NegativeCount int    `db:"negative_count" json:"negative_count"`
}

// AwardFailure names a student whose record could not be persisted.
type AwardFailure struct {
	StudentID string `json:"student_id"`
	Reason    string `json:"reason"`
}

// AwardResult reports the outcome of a multi-student award fan-out. Records
// already created are never rolled back; callers may retry the failed subset.
type AwardResult struct {
	Records []PointRecord  `json:"records"`
	Failed  []AwardFailure `json:"failed,omitempty"`
}

// PointEventType enumerates ledger change notifications.
type PointEventType string

const (
	PointEventCreated PointEventType = "created"
	PointEventReset   PointEventType = "reset"
)

// PointEvent is the payload pushed on the realtime feed whenever the record
// set for a (student, class) pair changes.
type PointEvent struct {
	Type      PointEventType `json:"type"`
	StudentID string         `json:"student_id"`
	ClassID   string         `json:"class_id"`
	Record    *PointRecord   `json:"record,omitempty"`
	EmittedAt time.Time      `json:"emitted_at"`
}
