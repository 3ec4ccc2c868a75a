package storage

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/quizdeck/internal/models"
	"github.com/samber/lo"
)

// Questions returns the stored questions of topic in insertion order.
// An empty topic or models.TopicAll returns every question.
func (m *Manager) Questions(ctx context.Context, topic string) ([]models.Question, error) {
	questions, err := m.loadQuestions(ctx)
	if err != nil {
		return nil, err
	}
	if models.IsAllTopics(topic) {
		return questions, nil
	}
	return lo.Filter(questions, func(q models.Question, _ int) bool {
		return q.Topic == topic
	}), nil
}

// Topics returns the distinct question topics in the order they first appear.
func (m *Manager) Topics(ctx context.Context) ([]string, error) {
	questions, err := m.loadQuestions(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Uniq(lo.Map(questions, func(q models.Question, _ int) string {
		return q.Topic
	})), nil
}

// AddQuestion stores q with a new id one above the highest stored id.
// The caller is responsible for validating q.
func (m *Manager) AddQuestion(ctx context.Context, q models.Question) (models.Question, error) {
	questions, _, err := m.questions.Load(ctx)
	if err != nil {
		return models.Question{}, err
	}

	q.ID = nextQuestionID(questions)
	q.Options = append([]string(nil), q.Options...)
	questions = append(questions, q)

	if err := m.questions.Save(ctx, questions); err != nil {
		return models.Question{}, err
	}

	log.Debug("Added question", "id", q.ID, "topic", q.Topic)
	return q, nil
}

// loadQuestions returns the stored questions, dropping records that fail
// validation.
func (m *Manager) loadQuestions(ctx context.Context) ([]models.Question, error) {
	questions, _, err := m.questions.Load(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(questions, func(q models.Question, _ int) bool {
		if err := q.Validate(); err != nil {
			log.Warn("Skipping malformed stored question", "id", q.ID, "error", err)
			return false
		}
		return true
	}), nil
}

func nextQuestionID(questions []models.Question) int {
	return lo.Max(lo.Map(questions, func(q models.Question, _ int) int {
		return q.ID
	})) + 1
}
