package storage

import (
	"context"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/quizdeck/internal/models"
	"github.com/samber/lo"
)

// Scores returns the scores of topic ordered by score, highest first. Equal
// scores keep their insertion order. At most limit scores are returned;
// limit <= 0 returns all of them.
func (m *Manager) Scores(ctx context.Context, topic string, limit int) ([]models.Score, error) {
	scores, err := m.loadScores(ctx)
	if err != nil {
		return nil, err
	}

	if !models.IsAllTopics(topic) {
		scores = lo.Filter(scores, func(s models.Score, _ int) bool {
			return s.Topic == topic
		})
	}

	slices.SortStableFunc(scores, func(a, b models.Score) int {
		return b.Score - a.Score
	})

	if limit > 0 && len(scores) > limit {
		scores = scores[:limit]
	}
	return scores, nil
}

// AddScore stamps s with an id and the current time and stores it.
func (m *Manager) AddScore(ctx context.Context, s models.Score) (models.Score, error) {
	scores, _, err := m.scores.Load(ctx)
	if err != nil {
		return models.Score{}, err
	}

	now := m.now()
	s.ID = models.NextTimeID(now, lo.Map(scores, func(existing models.Score, _ int) int64 {
		return existing.ID
	}))
	s.Timestamp = now.UTC()
	scores = append(scores, s)

	if err := m.scores.Save(ctx, scores); err != nil {
		return models.Score{}, err
	}

	log.Debug("Recorded score", "id", s.ID, "username", s.Username, "score", s.Score, "topic", s.Topic)
	return s, nil
}

// ClearScores removes every score.
func (m *Manager) ClearScores(ctx context.Context) error {
	if err := m.scores.Save(ctx, []models.Score{}); err != nil {
		return err
	}
	log.Info("Cleared all scores")
	return nil
}

// loadScores returns the stored scores, dropping records with a negative score.
func (m *Manager) loadScores(ctx context.Context) ([]models.Score, error) {
	scores, _, err := m.scores.Load(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(scores, func(s models.Score, _ int) bool {
		if err := s.Validate(); err != nil {
			log.Warn("Skipping malformed stored score", "id", s.ID, "error", err)
			return false
		}
		return true
	}), nil
}
