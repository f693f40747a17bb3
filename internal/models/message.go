package models

import "time"

// MessageSentiment is the tone bucket assigned to a message by the external
// sentiment collaborator. It is stored on the row, never computed here.
type MessageSentiment string

const (
	SentimentPositive MessageSentiment = "positive"
	SentimentNeutral  MessageSentiment = "neutral"
	SentimentNegative MessageSentiment = "negative"
)

// Message is one direct message between a teacher and a parent.
type Message struct {
	ID          string           `db:"id" json:"id"`
	SenderID    string           `db:"sender_id" json:"sender_id"`
	RecipientID string           `db:"recipient_id" json:"recipient_id"`
	Body        string           `db:"body" json:"body"`
	Sentiment   MessageSentiment `db:"sentiment" json:"sentiment"`
	ReadAt      *time.Time       `db:"read_at" json:"read_at,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
}

// MessageFilter selects a conversation slice.
type MessageFilter struct {
	ParticipantID string
	PeerID        string
	Page          int
	PageSize      int
}

// SentimentCounts tallies a parent's sent messages per sentiment bucket.
type SentimentCounts struct {
	Positive int `db:"positive_count" json:"positive"`
	Neutral  int `db:"neutral_count" json:"neutral"`
	Negative int `db:"negative_count" json:"negative"`
}

// HostilityLevel is the coarse classification of a parent's communication tone.
type HostilityLevel string

const (
	HostilityFriendly   HostilityLevel = "friendly"
	HostilityNeutral    HostilityLevel = "neutral"
	HostilityConcerning HostilityLevel = "concerning"
	HostilityHostile    HostilityLevel = "hostile"
)

// Severity orders hostility levels from friendliest (0) to most hostile (3).
func (h HostilityLevel) Severity() int {
	switch h {
	case HostilityFriendly:
		return 0
	case HostilityNeutral:
		return 1
	case HostilityConcerning:
		return 2
	case HostilityHostile:
		return 3
	default:
		return 1
	}
}

// ParentScore is the derived tone report for one parent.
type ParentScore struct {
	ParentID string          `json:"parent_id"`
	Counts   SentimentCounts `json:"counts"`
	Level    HostilityLevel  `json:"level"`
}
