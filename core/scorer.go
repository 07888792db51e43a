package core

import (
	"context"

	"github.com/huangsam/fragmeter/core/algo"
	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/huangsam/fragmeter/schema"
)

// FallbackSuffix marks summaries of scores substituted by FallbackScorer.
const FallbackSuffix = " (fallback score)"

// Scorer produces a ScoreResult for one user's activities over one window.
// Alternative strategies, such as a model-backed scorer, implement the same interface.
type Scorer interface {
	Score(ctx context.Context, userID string, activities []schema.ActivityItem, windowDays int) (schema.ScoreResult, error)
}

// EngineScorer is the deterministic scoring engine.
type EngineScorer struct {
	Weights schema.Weights
}

var _ Scorer = &EngineScorer{} // Compile-time check

// Score runs the engine and stamps the user id.
func (s *EngineScorer) Score(_ context.Context, userID string, activities []schema.ActivityItem, windowDays int) (schema.ScoreResult, error) {
	result, err := algo.ScoreWithWeights(activities, windowDays, s.Weights)
	if err != nil {
		return schema.ScoreResult{}, err
	}
	result.UserID = userID
	return result, nil
}

// FallbackScorer substitutes a best-effort constant when the next scorer reports a
// ComputationAnomaly. Every other error passes through unchanged.
type FallbackScorer struct {
	Next     Scorer
	Fallback schema.FallbackScores
}

var _ Scorer = &FallbackScorer{} // Compile-time check

// Score delegates to Next and replaces non-finite results with the fallback constants.
func (s *FallbackScorer) Score(ctx context.Context, userID string, activities []schema.ActivityItem, windowDays int) (schema.ScoreResult, error) {
	result, err := s.Next.Score(ctx, userID, activities, windowDays)
	if err == nil || !contract.IsComputationAnomaly(err) {
		return result, err
	}

	value := s.Fallback.Active
	if len(activities) == 0 {
		value = s.Fallback.Empty
	}
	value = algo.Round1(algo.Clamp(value, schema.MinScore, schema.MaxScore))
	return schema.ScoreResult{
		UserID:             userID,
		FragmentationScore: schema.Score(value),
		Summary:            algo.Summarize(schema.Breakdown{}, value) + FallbackSuffix,
		RiskLevel:          algo.ClassifyRisk(value),
		ActivitiesCount:    len(activities),
		WindowDays:         windowDays,
	}, nil
}

// NewScorer builds the scorer configured by cfg. Unset weights and fallback
// constants resolve to their defaults.
func NewScorer(cfg *contract.Config) Scorer {
	weights := cfg.Weights
	if weights == (schema.Weights{}) {
		weights = schema.DefaultWeights()
	}
	var scorer Scorer = &EngineScorer{Weights: weights}

	if cfg.FallbackOnAnomaly {
		fallback := cfg.Fallback
		if fallback == (schema.FallbackScores{}) {
			fallback = schema.DefaultFallbackScores()
		}
		scorer = &FallbackScorer{Next: scorer, Fallback: fallback}
	}
	return scorer
}
