// Package quiz drives a single quiz attempt from topic selection to the
// recorded score.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	"github.com/jon4hz/quizdeck/internal/models"
)

// DefaultFeedbackDelay is how long the answer feedback is shown before the
// next question.
const DefaultFeedbackDelay = 1500 * time.Millisecond

var (
	// ErrEmptyName is returned when starting a quiz without a player name.
	ErrEmptyName = errors.New("please enter your name")
	// ErrNoQuestions is returned when the selected topic has no questions.
	ErrNoQuestions = errors.New("no questions available for this topic")
	// ErrNotInProgress is returned when answering outside of a running quiz.
	ErrNotInProgress = errors.New("no quiz in progress")
	// ErrAwaitingAdvance is returned when answering while feedback for the
	// previous answer is still shown.
	ErrAwaitingAdvance = errors.New("question already answered")
)

// State is the lifecycle state of a Session.
type State int

const (
	StateIdle State = iota
	StateSelecting
	StateInProgress
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSelecting:
		return "selecting"
	case StateInProgress:
		return "in progress"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Store is the subset of the persistence layer a quiz needs.
type Store interface {
	Questions(ctx context.Context, topic string) ([]models.Question, error)
	Settings(ctx context.Context) (models.Settings, error)
	AddScore(ctx context.Context, score models.Score) (models.Score, error)
}

// Scheduler runs fn once after delay. cancel reports whether fn was stopped
// before it started.
type Scheduler interface {
	After(delay time.Duration, fn func()) (cancel func() bool, err error)
}

// Feedback describes the outcome of one answer.
type Feedback struct {
	Selected string
	// Answer is the correct option.
	Answer  string
	Correct bool
	// Score is the running score after this answer.
	Score int
	// Last is true if this was the final question.
	Last bool
}

// Progress is the position within a running quiz.
type Progress struct {
	// Number is the 1-based number of the current question.
	Number int
	Total  int
	Score  int
}

// Result is the outcome of a completed quiz.
type Result struct {
	Username        string
	Topic           string
	Score           int
	Total           int
	PointsPerAnswer int
	Percentage      int
	// Record is the persisted leaderboard entry. Its ID is zero if saving failed.
	Record models.Score
}

// Session is the state of one player's quiz. It is safe for concurrent use,
// but only one attempt runs at a time.
type Session struct {
	mu sync.Mutex

	store         Store
	scheduler     Scheduler
	rand          *rand.Rand
	feedbackDelay time.Duration

	state     State
	name      string
	topic     string
	questions []models.Question
	index     int
	score     int
	points    int

	cancelAdvance func() bool
	advanced      chan struct{}
	advanceErr    error

	result *Result
}

// Option configures a Session.
type Option func(*Session)

// WithRand sets the random source used to pick questions.
func WithRand(r *rand.Rand) Option {
	return func(s *Session) {
		s.rand = r
	}
}

// WithFeedbackDelay sets the delay between an answer and the next question.
// A delay <= 0 advances immediately.
func WithFeedbackDelay(d time.Duration) Option {
	return func(s *Session) {
		s.feedbackDelay = d
	}
}

// New creates an idle session.
func New(store Store, scheduler Scheduler, opts ...Option) *Session {
	s := &Session{
		store:         store,
		scheduler:     scheduler,
		rand:          rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		feedbackDelay: DefaultFeedbackDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Select moves to topic selection with the given defaults. Any running
// attempt is abandoned without recording a score.
func (s *Session) Select(name, topic string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelPendingAdvance()
	s.name = strings.TrimSpace(name)
	s.topic = topic
	s.state = StateSelecting
}

// Start begins a new attempt on topic. On error the session is left unchanged.
func (s *Session) Start(ctx context.Context, name, topic string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if models.IsAllTopics(topic) {
		topic = models.TopicAll
	}

	available, err := s.store.Questions(ctx, topic)
	if err != nil {
		return fmt.Errorf("failed to load questions: %w", err)
	}
	if len(available) == 0 {
		return ErrNoQuestions
	}
	settings, err := s.store.Settings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelPendingAdvance()

	available = slices.Clone(available)
	total := min(len(available), settings.QuestionsPerQuiz)
	s.rand.Shuffle(len(available), func(i, j int) {
		available[i], available[j] = available[j], available[i]
	})

	s.name = name
	s.topic = topic
	s.questions = available[:total]
	s.index = 0
	s.score = 0
	s.points = settings.PointsPerAnswer
	s.advanceErr = nil
	s.state = StateInProgress

	log.Debug("Quiz started", "name", name, "topic", topic, "questions", total, "pointsPerAnswer", s.points)
	return nil
}

// Current returns the question being asked.
func (s *Session) Current() (models.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress || s.index >= len(s.questions) {
		return models.Question{}, false
	}
	return s.questions[s.index], true
}

// Progress returns the position within the running attempt.
func (s *Session) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Progress{
		Number: min(s.index+1, len(s.questions)),
		Total:  len(s.questions),
		Score:  s.score,
	}
}

// Answer scores option against the current question and schedules the
// advance to the next one.
func (s *Session) Answer(ctx context.Context, option string) (Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress || s.index >= len(s.questions) {
		return Feedback{}, ErrNotInProgress
	}
	if s.advanced != nil {
		return Feedback{}, ErrAwaitingAdvance
	}

	q := s.questions[s.index]
	correct := option == q.Answer
	if correct {
		s.score += s.points
	}

	feedback := Feedback{
		Selected: option,
		Answer:   q.Answer,
		Correct:  correct,
		Score:    s.score,
		Last:     s.index == len(s.questions)-1,
	}
	s.advanceErr = nil

	if s.feedbackDelay <= 0 || s.scheduler == nil {
		s.advanceErr = s.advance(ctx)
		return feedback, s.advanceErr
	}

	done := make(chan struct{})
	ctx = context.WithoutCancel(ctx)
	cancel, err := s.scheduler.After(s.feedbackDelay, func() {
		s.runAdvance(ctx, done)
	})
	if err != nil {
		log.Warn("Failed to schedule next question, advancing now", "error", err)
		s.advanceErr = s.advance(ctx)
		return feedback, s.advanceErr
	}
	s.advanced = done
	s.cancelAdvance = cancel
	return feedback, nil
}

// WaitAdvance blocks until the scheduled advance has run. It returns the
// error of recording the score if the quiz completed and saving failed.
func (s *Session) WaitAdvance(ctx context.Context) error {
	s.mu.Lock()
	done := s.advanced
	s.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advanceErr
}

// Restart returns to topic selection, keeping the previous name and topic
// as defaults. The last result stays available.
func (s *Session) Restart() (name, topic string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelPendingAdvance()
	s.state = StateSelecting
	return s.name, s.topic
}

// Result returns the outcome of the last completed attempt.
func (s *Session) Result() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.result == nil {
		return Result{}, false
	}
	return *s.result, true
}

func (s *Session) runAdvance(ctx context.Context, done chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// superseded by Start, Select or Restart
	if s.advanced != done {
		return
	}
	s.advanced = nil
	s.cancelAdvance = nil
	s.advanceErr = s.advance(ctx)
	close(done)
}

// cancelPendingAdvance drops a scheduled advance and releases its waiters.
func (s *Session) cancelPendingAdvance() {
	if s.cancelAdvance != nil {
		s.cancelAdvance()
		s.cancelAdvance = nil
	}
	if s.advanced != nil {
		close(s.advanced)
		s.advanced = nil
	}
}

// advance moves to the next question and completes the quiz after the last one.
func (s *Session) advance(ctx context.Context) error {
	s.index++
	if s.index < len(s.questions) {
		return nil
	}
	return s.complete(ctx)
}

func (s *Session) complete(ctx context.Context) error {
	s.state = StateCompleted

	total := len(s.questions)
	result := &Result{
		Username:        s.name,
		Topic:           s.topic,
		Score:           s.score,
		Total:           total,
		PointsPerAnswer: s.points,
	}

	percentage, err := percentage(s.score, total*s.points)
	if err != nil {
		log.Warn("Failed to compute percentage", "error", err)
	}
	result.Percentage = percentage
	s.result = result

	record, err := s.store.AddScore(ctx, models.Score{
		Username: s.name,
		Score:    s.score,
		Topic:    s.topic,
	})
	if err != nil {
		return fmt.Errorf("failed to save score: %w", err)
	}
	result.Record = record

	log.Info("Quiz completed", "name", s.name, "topic", s.topic, "score", s.score, "percentage", result.Percentage)
	return nil
}

func percentage(score, maxScore int) (int, error) {
	if maxScore <= 0 {
		return 0, nil
	}
	return safecast.Convert[int](math.Round(float64(score) / float64(maxScore) * 100))
}
