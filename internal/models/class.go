package models

import "time"

// Classroom groups students under one teacher within a school.
type Classroom struct {
	ID         string    `db:"id" json:"id"`
	SchoolID   string    `db:"school_id" json:"school_id"`
	Name       string    `db:"name" json:"name"`
	GradeLevel string    `db:"grade_level" json:"grade_level"`
	TeacherID  string    `db:"teacher_id" json:"teacher_id"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// ClassroomFilter selects classrooms for listings.
type ClassroomFilter struct {
	SchoolID  string
	TeacherID string
	Active    *bool
	Page      int
	PageSize  int
}
