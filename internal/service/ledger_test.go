package service

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teacherlink/teacherlink-api/internal/models"
)

func record(studentID string, points int) models.PointRecord {
	return models.PointRecord{StudentID: studentID, ClassID: "class-1", Points: points}
}

func TestSummarizeEmptyIsZero(t *testing.T) {
	summary := Summarize("s1", "class-1", nil)
	assert.Equal(t, models.StudentPointsSummary{StudentID: "s1", ClassID: "class-1"}, summary)
}

func TestSummarizeCountsAndTotal(t *testing.T) {
	records := []models.PointRecord{
		record("s1", 2),
		record("s1", 1),
		record("s1", -3),
		record("s1", 2),
	}
	summary := Summarize("s1", "class-1", records)
	assert.Equal(t, 2, summary.TotalPoints)
	assert.Equal(t, 3, summary.PositiveCount)
	assert.Equal(t, 1, summary.NegativeCount)
}

func TestSummarizeOrderIndependent(t *testing.T) {
	records := []models.PointRecord{
		record("s1", 2), record("s1", -1), record("s1", 3),
		record("s1", -3), record("s1", 1), record("s1", 1),
	}
	want := Summarize("s1", "class-1", records)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 25; i++ {
		shuffled := make([]models.PointRecord, len(records))
		copy(shuffled, records)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		assert.Equal(t, want, Summarize("s1", "class-1", shuffled))
	}
}

func TestSummarizeClassFillsZeroSummaries(t *testing.T) {
	records := []models.PointRecord{
		record("s1", 2),
		record("s2", -1),
	}
	summaries := SummarizeClass("class-1", records, []string{"s1", "s2", "s3"})

	assert.Len(t, summaries, 3)
	assert.Equal(t, 2, summaries["s1"].TotalPoints)
	assert.Equal(t, -1, summaries["s2"].TotalPoints)
	assert.Equal(t, models.StudentPointsSummary{StudentID: "s3", ClassID: "class-1"}, summaries["s3"])
}

func TestApplyEventConvergesWithFold(t *testing.T) {
	records := []models.PointRecord{
		record("s1", 2), record("s1", -3), record("s1", 1),
	}
	want := Summarize("s1", "class-1", records)

	got := models.StudentPointsSummary{StudentID: "s1", ClassID: "class-1"}
	for i := range records {
		got = ApplyEvent(got, models.PointEvent{
			Type:      models.PointEventCreated,
			StudentID: "s1",
			ClassID:   "class-1",
			Record:    &records[i],
		})
	}
	assert.Equal(t, want, got)
}

func TestApplyEventReset(t *testing.T) {
	summary := models.StudentPointsSummary{StudentID: "s1", ClassID: "class-1", TotalPoints: 7, PositiveCount: 4, NegativeCount: 1}
	got := ApplyEvent(summary, models.PointEvent{Type: models.PointEventReset, StudentID: "s1", ClassID: "class-1"})
	assert.Equal(t, models.StudentPointsSummary{StudentID: "s1", ClassID: "class-1"}, got)
}
