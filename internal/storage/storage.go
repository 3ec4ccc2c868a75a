// Package storage is the persistence layer for the question bank, the
// leaderboard and the quiz settings.
//
// Every collection is one JSON document in the key-value backend and is read
// and replaced as a whole. Missing or corrupt documents read as empty; only
// failures of the backend itself are returned as errors.
package storage

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/quizdeck/internal/kvstore"
	"github.com/jon4hz/quizdeck/internal/models"
	"github.com/samber/lo"
)

// Storage keys of the persisted collections.
const (
	QuestionsKey = "quizQuestions"
	ScoresKey    = "quizScores"
	SettingsKey  = "quizSettings"
)

// Manager reads and writes the quiz collections.
type Manager struct {
	questions *kvstore.Document[[]models.Question]
	scores    *kvstore.Document[[]models.Score]
	settings  *kvstore.Document[models.Settings]

	seed []models.Question
	now  func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the time source used for ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithSeedQuestions replaces the default question set merged in by Initialize.
func WithSeedQuestions(seed []models.Question) Option {
	return func(m *Manager) {
		m.seed = seed
	}
}

// New creates a Manager on top of backend.
func New(backend kvstore.Backend, opts ...Option) *Manager {
	m := &Manager{
		questions: kvstore.NewDocument(backend, QuestionsKey, func() []models.Question { return []models.Question{} }),
		scores:    kvstore.NewDocument(backend, ScoresKey, func() []models.Score { return []models.Score{} }),
		settings:  kvstore.NewDocument(backend, SettingsKey, models.DefaultSettings),
		seed:      DefaultQuestions(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Initialize seeds the store. It is safe to call on every start: default
// questions are merged by question text, stored questions are never removed
// or replaced, and scores and settings are only created if absent.
func (m *Manager) Initialize(ctx context.Context) error {
	stored, found, err := m.questions.Load(ctx)
	if err != nil {
		return err
	}

	merged, added := mergeSeed(stored, m.seed)
	if !found || len(stored) == 0 || added > 0 {
		if err := m.questions.Save(ctx, merged); err != nil {
			return err
		}
		log.Debug("Seeded questions", "added", added, "total", len(merged))
	}

	if _, found, err := m.scores.Load(ctx); err != nil {
		return err
	} else if !found {
		if err := m.scores.Save(ctx, []models.Score{}); err != nil {
			return err
		}
	}

	if _, found, err := m.settings.Load(ctx); err != nil {
		return err
	} else if !found {
		if err := m.settings.Save(ctx, models.DefaultSettings()); err != nil {
			return err
		}
	}

	return nil
}

// mergeSeed appends every seed question whose text is not yet present.
// A seed keeps its id unless that id is already taken.
func mergeSeed(stored, seed []models.Question) ([]models.Question, int) {
	merged := make([]models.Question, 0, len(stored)+len(seed))
	merged = append(merged, stored...)

	var added int
	for _, q := range seed {
		if lo.ContainsBy(merged, func(existing models.Question) bool { return existing.Question == q.Question }) {
			continue
		}
		if q.ID <= 0 || lo.ContainsBy(merged, func(existing models.Question) bool { return existing.ID == q.ID }) {
			q.ID = nextQuestionID(merged)
		}
		q.Options = append([]string(nil), q.Options...)
		merged = append(merged, q)
		added++
	}
	return merged, added
}
