package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/teacherlink/teacherlink-api/internal/models"
)

type mockSentiments struct {
	counts models.SentimentCounts
}

func (m *mockSentiments) SentimentCounts(ctx context.Context, parentID string) (*models.SentimentCounts, error) {
	counts := m.counts
	return &counts, nil
}

func TestClassifyHostilityLevels(t *testing.T) {
	cases := []struct {
		name     string
		pos, neu, neg int
		want     models.HostilityLevel
	}{
		{"no messages", 0, 0, 0, models.HostilityNeutral},
		{"only neutral", 0, 5, 0, models.HostilityNeutral},
		{"only positive", 4, 1, 0, models.HostilityFriendly},
		{"one negative few positives", 1, 0, 1, models.HostilityConcerning},
		{"negatives below half of positives", 10, 0, 2, models.HostilityFriendly},
		{"negatives reach half of positives", 10, 0, 5, models.HostilityConcerning},
		{"negatives outnumber, at least three", 2, 0, 3, models.HostilityHostile},
		{"many negatives no positives", 0, 0, 6, models.HostilityHostile},
		{"two negatives no positives stays concerning", 0, 0, 2, models.HostilityConcerning},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyHostility(tc.pos, tc.neu, tc.neg))
		})
	}
}

func TestClassifyHostilityMonotonicInNegatives(t *testing.T) {
	for pos := 0; pos <= 10; pos++ {
		prev := ClassifyHostility(pos, 0, 0)
		for neg := 1; neg <= 15; neg++ {
			level := ClassifyHostility(pos, 0, neg)
			assert.GreaterOrEqual(t, level.Severity(), prev.Severity(),
				"adding a negative message lowered the level at pos=%d neg=%d", pos, neg)
			prev = level
		}
	}
}

func TestClassifyHostilityTotal(t *testing.T) {
	known := map[models.HostilityLevel]bool{
		models.HostilityFriendly:   true,
		models.HostilityNeutral:    true,
		models.HostilityConcerning: true,
		models.HostilityHostile:    true,
	}
	for pos := 0; pos <= 6; pos++ {
		for neu := 0; neu <= 3; neu++ {
			for neg := 0; neg <= 6; neg++ {
				level := ClassifyHostility(pos, neu, neg)
				assert.True(t, known[level], "unknown level %q for (%d,%d,%d)", level, pos, neu, neg)
			}
		}
	}
}

func TestParentScoreServiceScore(t *testing.T) {
	svc := NewParentScoreService(&mockSentiments{counts: models.SentimentCounts{Positive: 1, Neutral: 2, Negative: 4}}, zap.NewNop())

	score, err := svc.Score(context.Background(), "parent-1")
	require.NoError(t, err)
	assert.Equal(t, "parent-1", score.ParentID)
	assert.Equal(t, models.HostilityHostile, score.Level)
	assert.Equal(t, 4, score.Counts.Negative)
}

func TestParentScoreServiceRequiresID(t *testing.T) {
	svc := NewParentScoreService(&mockSentiments{}, zap.NewNop())
	_, err := svc.Score(context.Background(), "")
	require.Error(t, err)
}
