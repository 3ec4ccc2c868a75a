package storage

import (
	"context"
	"fmt"
	"math"

	"github.com/ccoveille/go-safecast"
	"github.com/jon4hz/quizdeck/internal/models"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// snapshot holds all three collections read at once.
type snapshot struct {
	questions []models.Question
	scores    []models.Score
	settings  models.Settings
}

func (m *Manager) snapshot(ctx context.Context) (snapshot, error) {
	var s snapshot

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		s.questions, err = m.loadQuestions(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		s.scores, err = m.loadScores(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		s.settings, err = m.Settings(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return snapshot{}, err
	}
	return s, nil
}

// Stats summarizes the stored questions and scores.
func (m *Manager) Stats(ctx context.Context) (models.Stats, error) {
	s, err := m.snapshot(ctx)
	if err != nil {
		return models.Stats{}, err
	}

	average, err := averageScore(s.scores)
	if err != nil {
		return models.Stats{}, err
	}

	return models.Stats{
		TotalQuestions: len(s.questions),
		TotalScores:    len(s.scores),
		AverageScore:   average,
		TopicStats: lo.CountValuesBy(s.questions, func(q models.Question) string {
			return q.Topic
		}),
		Settings: s.settings,
	}, nil
}

// Export returns a snapshot of every collection. It never writes.
func (m *Manager) Export(ctx context.Context) (models.Export, error) {
	s, err := m.snapshot(ctx)
	if err != nil {
		return models.Export{}, err
	}
	return models.Export{
		Questions:  s.questions,
		Scores:     s.scores,
		Settings:   s.settings,
		ExportDate: m.now().UTC(),
	}, nil
}

// averageScore is the mean score rounded to the nearest integer, 0 without scores.
func averageScore(scores []models.Score) (int, error) {
	if len(scores) == 0 {
		return 0, nil
	}
	sum := lo.SumBy(scores, func(s models.Score) int {
		return s.Score
	})
	average, err := safecast.Convert[int](math.Round(float64(sum) / float64(len(scores))))
	if err != nil {
		return 0, fmt.Errorf("failed to compute average score: %w", err)
	}
	return average, nil
}
