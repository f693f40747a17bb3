package service

import "github.com/teacherlink/teacherlink-api/internal/models"

// The ledger fold is the in-process counterpart of the SQL aggregates in
// PointRecordRepository. Both paths must converge on the same summary for the
// same record set: the repository recomputes from ground truth after a
// mutation, while feed subscribers apply events incrementally. The fold is
// commutative and associative in the point delta, so record order never
// affects the result.

// Summarize folds a record sequence into a summary. An empty sequence yields
// the zero summary.
func Summarize(studentID, classID string, records []models.PointRecord) models.StudentPointsSummary {
	summary := models.StudentPointsSummary{StudentID: studentID, ClassID: classID}
	for _, record := range records {
		accumulate(&summary, record.Points)
	}
	return summary
}

// SummarizeClass groups records by student and folds each group. Every id in
// studentIDs is present in the result; students with no records map to the
// zero summary rather than an absent entry.
func SummarizeClass(classID string, records []models.PointRecord, studentIDs []string) map[string]models.StudentPointsSummary {
	summaries := make(map[string]models.StudentPointsSummary, len(studentIDs))
	for _, id := range studentIDs {
		summaries[id] = models.StudentPointsSummary{StudentID: id, ClassID: classID}
	}
	for _, record := range records {
		summary, ok := summaries[record.StudentID]
		if !ok {
			summary = models.StudentPointsSummary{StudentID: record.StudentID, ClassID: classID}
		}
		accumulate(&summary, record.Points)
		summaries[record.StudentID] = summary
	}
	return summaries
}

// ApplyEvent folds one feed event into a previously computed summary. A
// created event adds the record's delta; a reset event zeroes the summary.
// Applying the events for a record set in any order yields the same summary
// as Summarize over that set.
func ApplyEvent(summary models.StudentPointsSummary, event models.PointEvent) models.StudentPointsSummary {
	switch event.Type {
	case models.PointEventCreated:
		if event.Record != nil {
			accumulate(&summary, event.Record.Points)
		}
	case models.PointEventReset:
		summary.TotalPoints = 0
		summary.PositiveCount = 0
		summary.NegativeCount = 0
	}
	return summary
}

func accumulate(summary *models.StudentPointsSummary, points int) {
	summary.TotalPoints += points
	if points > 0 {
		summary.PositiveCount++
	} else if points < 0 {
		summary.NegativeCount++
	}
}
