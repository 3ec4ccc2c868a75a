// Package admin implements the question bank and leaderboard administration.
package admin

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/quizdeck/internal/models"
	"github.com/samber/lo"
)

// ScoresOverviewLimit is the number of scores listed by ScoresOverview.
const ScoresOverviewLimit = 50

var (
	ErrMissingFields      = errors.New("please fill in all fields")
	ErrTooFewOptions      = errors.New("provide at least 2 options")
	ErrAnswerNotInOptions = errors.New("correct answer must be one of the options")
	ErrSettingsOutOfRange = errors.New("setting out of range")
)

// Store is the persistence layer used by the admin operations.
type Store interface {
	AddQuestion(ctx context.Context, q models.Question) (models.Question, error)
	Scores(ctx context.Context, topic string, limit int) ([]models.Score, error)
	ClearScores(ctx context.Context) error
	UpdateSettings(ctx context.Context, patch models.SettingsPatch) (models.Settings, error)
}

// Service validates admin input before it reaches the store.
type Service struct {
	store Store
}

// New creates a new admin service.
func New(store Store) *Service {
	return &Service{store: store}
}

// NewQuestionInput is a question as typed by an admin. Options is a comma
// separated list.
type NewQuestionInput struct {
	Question string
	Answer   string
	Options  string
	Topic    string
}

// AddQuestion validates in and adds it to the question bank.
func (s *Service) AddQuestion(ctx context.Context, in NewQuestionInput) (models.Question, error) {
	question := strings.TrimSpace(in.Question)
	answer := strings.TrimSpace(in.Answer)
	optionsText := strings.TrimSpace(in.Options)
	topic := strings.TrimSpace(in.Topic)
	if question == "" || answer == "" || optionsText == "" || topic == "" {
		return models.Question{}, ErrMissingFields
	}

	options := ParseOptions(optionsText)
	if len(options) < 2 {
		return models.Question{}, ErrTooFewOptions
	}
	if !slices.Contains(options, answer) {
		return models.Question{}, ErrAnswerNotInOptions
	}

	q, err := s.store.AddQuestion(ctx, models.Question{
		Question: question,
		Options:  options,
		Answer:   answer,
		Topic:    topic,
	})
	if err != nil {
		return models.Question{}, err
	}

	log.Info("Question added", "id", q.ID, "topic", q.Topic)
	return q, nil
}

// ParseOptions splits a comma separated option list, dropping empty entries.
func ParseOptions(text string) []string {
	return lo.FilterMap(strings.Split(text, ","), func(opt string, _ int) (string, bool) {
		opt = strings.TrimSpace(opt)
		return opt, opt != ""
	})
}

// SaveSettings checks the bounds of every set field and applies the patch.
func (s *Service) SaveSettings(ctx context.Context, patch models.SettingsPatch) (models.Settings, error) {
	if v := patch.QuestionsPerQuiz; v != nil && (*v < models.MinQuestionsPerQuiz || *v > models.MaxQuestionsPerQuiz) {
		return models.Settings{}, fmt.Errorf("%w: questions per quiz must be between %d and %d",
			ErrSettingsOutOfRange, models.MinQuestionsPerQuiz, models.MaxQuestionsPerQuiz)
	}
	if v := patch.PointsPerAnswer; v != nil && (*v < models.MinPointsPerAnswer || *v > models.MaxPointsPerAnswer) {
		return models.Settings{}, fmt.Errorf("%w: points per answer must be between %d and %d",
			ErrSettingsOutOfRange, models.MinPointsPerAnswer, models.MaxPointsPerAnswer)
	}

	settings, err := s.store.UpdateSettings(ctx, patch)
	if err != nil {
		return models.Settings{}, err
	}

	log.Info("Settings saved", "questionsPerQuiz", settings.QuestionsPerQuiz, "pointsPerAnswer", settings.PointsPerAnswer)
	return settings, nil
}

// LeaderboardEntry is a score with its position. Equal scores share a rank.
type LeaderboardEntry struct {
	Rank int `json:"rank"`
	models.Score
}

// Leaderboard returns the best scores of topic with their ranks.
func (s *Service) Leaderboard(ctx context.Context, topic string, limit int) ([]LeaderboardEntry, error) {
	scores, err := s.store.Scores(ctx, topic, limit)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, len(scores))
	for i, score := range scores {
		rank := i + 1
		if i > 0 && score.Score == scores[i-1].Score {
			rank = entries[i-1].Rank
		}
		entries[i] = LeaderboardEntry{Rank: rank, Score: score}
	}
	return entries, nil
}

// ScoreSummary is a score without its timestamp.
type ScoreSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Score    int    `json:"score"`
	Topic    string `json:"topic"`
}

// ScoresOverview returns the best scores across all topics without timestamps.
func (s *Service) ScoresOverview(ctx context.Context) ([]ScoreSummary, error) {
	scores, err := s.store.Scores(ctx, models.TopicAll, ScoresOverviewLimit)
	if err != nil {
		return nil, err
	}
	return lo.Map(scores, func(score models.Score, _ int) ScoreSummary {
		return ScoreSummary{
			ID:       score.ID,
			Username: score.Username,
			Score:    score.Score,
			Topic:    score.Topic,
		}
	}), nil
}

// ClearScores removes every score from the leaderboard.
func (s *Service) ClearScores(ctx context.Context) error {
	return s.store.ClearScores(ctx)
}
