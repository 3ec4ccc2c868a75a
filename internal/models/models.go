// Package models defines the records quizdeck persists and the derived views
// built from them.
package models

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
)

// TopicAll selects every topic when used as a filter.
const TopicAll = "all"

// Settings bounds and defaults.
const (
	DefaultQuestionsPerQuiz = 5
	DefaultPointsPerAnswer  = 20

	MinQuestionsPerQuiz = 1
	MaxQuestionsPerQuiz = 20
	MinPointsPerAnswer  = 1
	MaxPointsPerAnswer  = 100
)

var (
	// ErrInvalidQuestion is returned for a question that cannot be stored or asked.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrInvalidScore is returned for a negative score.
	ErrInvalidScore = errors.New("invalid score")
)

// NextTimeID derives an id from the creation time that is strictly greater
// than every id in existing.
func NextTimeID(now time.Time, existing []int64) int64 {
	id := now.UnixMilli()
	if maxID := lo.Max(existing); id <= maxID {
		id = maxID + 1
	}
	return id
}

// IsAllTopics reports whether topic selects every topic.
func IsAllTopics(topic string) bool {
	return topic == "" || topic == TopicAll
}

// User is a registered account.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	// Password is the cleartext password of records written before hashing was introduced.
	// It is only ever read, and dropped as soon as the user logs in again.
	Password     string    `json:"password,omitempty"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Public returns a copy of the user without any credentials.
func (u User) Public() User {
	u.Password = ""
	u.PasswordHash = ""
	return u
}

// Valid reports whether the record can identify an account.
func (u User) Valid() bool {
	return u.Email != "" && (u.Password != "" || u.PasswordHash != "")
}

// Question is a multiple-choice question. Answer always equals one of Options.
type Question struct {
	ID       int      `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
	Topic    string   `json:"topic"`
}

// Validate reports whether the question can be asked.
func (q Question) Validate() error {
	switch {
	case strings.TrimSpace(q.Question) == "":
		return errors.Join(ErrInvalidQuestion, errors.New("question text is empty"))
	case len(q.Options) < 2:
		return errors.Join(ErrInvalidQuestion, errors.New("at least 2 options are required"))
	case !slices.Contains(q.Options, q.Answer):
		return errors.Join(ErrInvalidQuestion, errors.New("answer is not one of the options"))
	case strings.TrimSpace(q.Topic) == "":
		return errors.Join(ErrInvalidQuestion, errors.New("topic is empty"))
	}
	return nil
}

// Score is one finished quiz attempt on the leaderboard.
// Username is free text and not linked to a User.
type Score struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Score     int       `json:"score"`
	Topic     string    `json:"topic"`
	Timestamp time.Time `json:"timestamp"`
}

// Validate rejects negative scores.
func (s Score) Validate() error {
	if s.Score < 0 {
		return ErrInvalidScore
	}
	return nil
}

// Settings is the singleton quiz configuration.
type Settings struct {
	QuestionsPerQuiz int `json:"questionsPerQuiz"`
	PointsPerAnswer  int `json:"pointsPerAnswer"`
}

// DefaultSettings returns the settings used on first run.
func DefaultSettings() Settings {
	return Settings{
		QuestionsPerQuiz: DefaultQuestionsPerQuiz,
		PointsPerAnswer:  DefaultPointsPerAnswer,
	}
}

// Repaired returns the settings with every out of bounds field reset to its default.
func (s Settings) Repaired() Settings {
	if s.QuestionsPerQuiz < MinQuestionsPerQuiz || s.QuestionsPerQuiz > MaxQuestionsPerQuiz {
		s.QuestionsPerQuiz = DefaultQuestionsPerQuiz
	}
	if s.PointsPerAnswer < MinPointsPerAnswer || s.PointsPerAnswer > MaxPointsPerAnswer {
		s.PointsPerAnswer = DefaultPointsPerAnswer
	}
	return s
}

// SettingsPatch is a partial settings update. Nil fields keep their value.
type SettingsPatch struct {
	QuestionsPerQuiz *int `json:"questionsPerQuiz,omitempty"`
	PointsPerAnswer  *int `json:"pointsPerAnswer,omitempty"`
}

// Apply merges the patch over s.
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.QuestionsPerQuiz != nil {
		s.QuestionsPerQuiz = *p.QuestionsPerQuiz
	}
	if p.PointsPerAnswer != nil {
		s.PointsPerAnswer = *p.PointsPerAnswer
	}
	return s
}

// Stats is a derived summary of the stored data.
type Stats struct {
	TotalQuestions int            `json:"totalQuestions"`
	TotalScores    int            `json:"totalScores"`
	AverageScore   int            `json:"averageScore"`
	TopicStats     map[string]int `json:"topicStats"`
	Settings       Settings       `json:"settings"`
}

// Export is a full snapshot of the quiz data.
type Export struct {
	Questions  []Question `json:"questions"`
	Scores     []Score    `json:"scores"`
	Settings   Settings   `json:"settings"`
	ExportDate time.Time  `json:"exportDate"`
}
