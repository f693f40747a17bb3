package models

import "time"

// Student represents a learner enrolled in a classroom.
type Student struct {
	ID        string    `db:"id" json:"id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	FullName  string    `db:"full_name" json:"full_name"`
	ParentID  *string   `db:"parent_id" json:"parent_id,omitempty"`
	AvatarURL *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	ClassID  string
	Search   string
	Active   *bool
	Page     int
	PageSize int
}
