package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/teacherlink/teacherlink-api/internal/models"
	appErrors "github.com/teacherlink/teacherlink-api/pkg/errors"
)

type sentimentReader interface {
	SentimentCounts(ctx context.Context, parentID string) (*models.SentimentCounts, error)
}

// ParentScoreService classifies the tone of a parent's message history so
// teachers can see at a glance which conversations need care.
type ParentScoreService struct {
	messages sentimentReader
	logger   *zap.Logger
}

// NewParentScoreService constructs the service.
func NewParentScoreService(messages sentimentReader, logger *zap.Logger) *ParentScoreService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ParentScoreService{messages: messages, logger: logger}
}

// ClassifyHostility maps sentiment counts onto a hostility level. The
// classification is total (every count triple maps to a level) and monotonic
// in the negative count: adding negative messages never lowers the level.
//
//	no negatives          -> friendly when any positives exist, else neutral
//	negatives >= half the
//	positives (min. one)  -> concerning
//	negatives outnumber
//	positives, at least 3 -> hostile
func ClassifyHostility(positive, neutral, negative int) models.HostilityLevel {
	switch {
	case negative >= 3 && negative > positive:
		return models.HostilityHostile
	case negative > 0 && negative >= max(1, positive/2):
		return models.HostilityConcerning
	case positive > 0:
		return models.HostilityFriendly
	default:
		return models.HostilityNeutral
	}
}

// Score computes the hostility score for one parent from their stored
// message sentiments.
func (s *ParentScoreService) Score(ctx context.Context, parentID string) (*models.ParentScore, error) {
	if parentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "parent id is required")
	}
	counts, err := s.messages.SentimentCounts(ctx, parentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sentiment counts")
	}
	level := ClassifyHostility(counts.Positive, counts.Neutral, counts.Negative)
	return &models.ParentScore{
		ParentID: parentID,
		Counts:   *counts,
		Level:    level,
	}, nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
