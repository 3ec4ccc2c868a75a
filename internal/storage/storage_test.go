package storage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jon4hz/quizdeck/internal/kvstore/mock"
	"github.com/jon4hz/quizdeck/internal/models"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

var testNow = time.UnixMilli(1_700_000_000_000)

// StorageTestSuite exercises the persistence manager on the mock backend.
type StorageTestSuite struct {
	suite.Suite
	ctx     context.Context
	backend *mock.MockBackend
	manager *Manager
}

func TestStorageTestSuite(t *testing.T) {
	suite.Run(t, new(StorageTestSuite))
}

func (s *StorageTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.backend = mock.NewMockBackend()
	s.manager = New(s.backend, WithClock(func() time.Time { return testNow }))
}

func (s *StorageTestSuite) put(key string, v any) {
	data, err := json.Marshal(v)
	s.Require().NoError(err)
	s.backend.Put(key, string(data))
}

func (s *StorageTestSuite) question(text, topic string) models.Question {
	return models.Question{Question: text, Options: []string{"a", "b"}, Answer: "a", Topic: topic}
}

func (s *StorageTestSuite) TestInitialize_FirstRun() {
	s.Require().NoError(s.manager.Initialize(s.ctx))

	questions, err := s.manager.Questions(s.ctx, "")
	s.Require().NoError(err)
	s.Len(questions, len(DefaultQuestions()))

	scores, err := s.manager.Scores(s.ctx, "", 0)
	s.Require().NoError(err)
	s.Empty(scores)

	raw, ok := s.backend.Raw(ScoresKey)
	s.True(ok)
	s.JSONEq(`[]`, raw)

	settings, err := s.manager.Settings(s.ctx)
	s.Require().NoError(err)
	s.Equal(models.Settings{QuestionsPerQuiz: 5, PointsPerAnswer: 20}, settings)
}

func (s *StorageTestSuite) TestInitialize_Idempotent() {
	s.Require().NoError(s.manager.Initialize(s.ctx))
	first, err := s.manager.Questions(s.ctx, "")
	s.Require().NoError(err)

	s.Require().NoError(s.manager.Initialize(s.ctx))
	second, err := s.manager.Questions(s.ctx, "")
	s.Require().NoError(err)

	s.Equal(first, second)
	s.Equal(1, s.backend.Writes(QuestionsKey), "second run must not rewrite questions")
	s.Equal(1, s.backend.Writes(ScoresKey))
	s.Equal(1, s.backend.Writes(SettingsKey))
}

func (s *StorageTestSuite) TestInitialize_MergesNewSeedAndKeepsUserQuestions() {
	s.Require().NoError(s.manager.Initialize(s.ctx))

	userAdded, err := s.manager.AddQuestion(s.ctx, s.question("Who wrote Hamlet?", "literature"))
	s.Require().NoError(err)
	s.Equal(15, userAdded.ID)

	seed := append(DefaultQuestions(),
		models.Question{ID: 15, Question: "What is 3+3?", Options: []string{"5", "6"}, Answer: "6", Topic: "math"},
	)
	reseeded := New(s.backend, WithSeedQuestions(seed))
	s.Require().NoError(reseeded.Initialize(s.ctx))

	questions, err := reseeded.Questions(s.ctx, "")
	s.Require().NoError(err)
	s.Len(questions, len(DefaultQuestions())+2)
	s.Contains(questions, userAdded)

	last := questions[len(questions)-1]
	s.Equal("What is 3+3?", last.Question)
	s.Equal(16, last.ID, "seed id already taken by the user question")

	ids := lo.Map(questions, func(q models.Question, _ int) int { return q.ID })
	s.Len(lo.Uniq(ids), len(ids))
}

func (s *StorageTestSuite) TestInitialize_DoesNotOverwriteEditedSeed() {
	edited := DefaultQuestions()[0]
	edited.Options = []string{"4", "22"}
	s.put(QuestionsKey, []models.Question{edited})

	s.Require().NoError(s.manager.Initialize(s.ctx))

	questions, err := s.manager.Questions(s.ctx, "math")
	s.Require().NoError(err)
	s.Equal(edited, questions[0])
	s.Len(questions, 2)
}

func (s *StorageTestSuite) TestInitialize_RecoversCorruptDocuments() {
	s.backend.Put(QuestionsKey, "{not json")
	s.backend.Put(ScoresKey, `"oops"`)
	s.backend.Put(SettingsKey, `[1,2]`)

	s.Require().NoError(s.manager.Initialize(s.ctx))

	questions, err := s.manager.Questions(s.ctx, "")
	s.Require().NoError(err)
	s.Len(questions, len(DefaultQuestions()))

	raw, _ := s.backend.Raw(ScoresKey)
	s.JSONEq(`[]`, raw)

	settings, err := s.manager.Settings(s.ctx)
	s.Require().NoError(err)
	s.Equal(models.DefaultSettings(), settings)
}

func (s *StorageTestSuite) TestInitialize_BackendFailure() {
	s.backend.GetError = errors.New("connection refused")
	s.Error(s.manager.Initialize(s.ctx))

	s.backend.GetError = nil
	s.backend.SetError = errors.New("disk full")
	s.Error(s.manager.Initialize(s.ctx))
}

func (s *StorageTestSuite) TestQuestions_TopicFilter() {
	s.Require().NoError(s.manager.Initialize(s.ctx))

	all, err := s.manager.Questions(s.ctx, models.TopicAll)
	s.Require().NoError(err)
	s.Len(all, 14)

	math, err := s.manager.Questions(s.ctx, "math")
	s.Require().NoError(err)
	s.Equal([]int{1, 10}, lo.Map(math, func(q models.Question, _ int) int { return q.ID }))

	none, err := s.manager.Questions(s.ctx, "astrology")
	s.Require().NoError(err)
	s.NotNil(none)
	s.Empty(none)
}

func (s *StorageTestSuite) TestQuestions_DropsInvalidRecords() {
	s.put(QuestionsKey, []models.Question{
		{ID: 1, Question: "ok", Options: []string{"a", "b"}, Answer: "a", Topic: "t"},
		{ID: 2, Question: "bad answer", Options: []string{"a", "b"}, Answer: "c", Topic: "t"},
		{ID: 3, Question: "one option", Options: []string{"a"}, Answer: "a", Topic: "t"},
	})

	questions, err := s.manager.Questions(s.ctx, "")
	s.Require().NoError(err)
	s.Len(questions, 1)
	s.Equal(1, questions[0].ID)
}

func (s *StorageTestSuite) TestTopics() {
	s.Require().NoError(s.manager.Initialize(s.ctx))

	topics, err := s.manager.Topics(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"math", "general", "programming", "science", "history", "sports", "movies", "geography", "technology"}, topics)
}

func (s *StorageTestSuite) TestAddQuestion_MonotonicIDs() {
	var last int
	for i := range 5 {
		q, err := s.manager.AddQuestion(s.ctx, s.question("q"+string(rune('a'+i)), "t"))
		s.Require().NoError(err)
		s.Greater(q.ID, last)
		last = q.ID
	}
	s.Equal(5, last)

	s.put(QuestionsKey, []models.Question{{ID: 41, Question: "x", Options: []string{"a", "b"}, Answer: "a", Topic: "t"}})
	q, err := s.manager.AddQuestion(s.ctx, s.question("y", "t"))
	s.Require().NoError(err)
	s.Equal(42, q.ID)
}

func (s *StorageTestSuite) TestAddQuestion_WriteFailure() {
	s.backend.SetError = errors.New("read only")
	_, err := s.manager.AddQuestion(s.ctx, s.question("q", "t"))
	s.Error(err)
}

func (s *StorageTestSuite) TestScores_FilterSortLimit() {
	for _, v := range []int{10, 50, 30, 20, 40} {
		_, err := s.manager.AddScore(s.ctx, models.Score{Username: "u", Score: v, Topic: "math"})
		s.Require().NoError(err)
	}
	for _, v := range []int{100, 60} {
		_, err := s.manager.AddScore(s.ctx, models.Score{Username: "u", Score: v, Topic: "science"})
		s.Require().NoError(err)
	}

	scores, err := s.manager.Scores(s.ctx, "math", 3)
	s.Require().NoError(err)
	s.Equal([]int{50, 40, 30}, lo.Map(scores, func(sc models.Score, _ int) int { return sc.Score }))

	all, err := s.manager.Scores(s.ctx, "", 0)
	s.Require().NoError(err)
	s.Len(all, 7)
	s.Equal(100, all[0].Score)
}

func (s *StorageTestSuite) TestScores_StableTies() {
	for _, name := range []string{"first", "second", "third"} {
		_, err := s.manager.AddScore(s.ctx, models.Score{Username: name, Score: 20, Topic: "all"})
		s.Require().NoError(err)
	}

	scores, err := s.manager.Scores(s.ctx, "", 10)
	s.Require().NoError(err)
	s.Equal([]string{"first", "second", "third"}, lo.Map(scores, func(sc models.Score, _ int) string { return sc.Username }))
}

func (s *StorageTestSuite) TestAddScore_StampsIDAndTimestamp() {
	first, err := s.manager.AddScore(s.ctx, models.Score{Username: "a", Score: 20, Topic: "math"})
	s.Require().NoError(err)
	second, err := s.manager.AddScore(s.ctx, models.Score{Username: "b", Score: 40, Topic: "math"})
	s.Require().NoError(err)

	s.Equal(testNow.UnixMilli(), first.ID)
	s.Equal(testNow.UnixMilli()+1, second.ID, "same clock tick must still yield a unique id")
	s.True(first.Timestamp.Equal(testNow))
}

func (s *StorageTestSuite) TestScores_DropsNegativeRecords() {
	s.put(ScoresKey, []models.Score{
		{ID: 1, Username: "a", Score: 20, Topic: "math"},
		{ID: 2, Username: "b", Score: -20, Topic: "math"},
	})

	scores, err := s.manager.Scores(s.ctx, "", 0)
	s.Require().NoError(err)
	s.Len(scores, 1)
}

func (s *StorageTestSuite) TestClearScores() {
	_, err := s.manager.AddScore(s.ctx, models.Score{Username: "a", Score: 20, Topic: "math"})
	s.Require().NoError(err)

	s.Require().NoError(s.manager.ClearScores(s.ctx))

	scores, err := s.manager.Scores(s.ctx, "", 0)
	s.Require().NoError(err)
	s.Empty(scores)
}

func (s *StorageTestSuite) TestUpdateSettings_PartialMerge() {
	s.Require().NoError(s.manager.Initialize(s.ctx))

	updated, err := s.manager.UpdateSettings(s.ctx, models.SettingsPatch{PointsPerAnswer: lo.ToPtr(50)})
	s.Require().NoError(err)
	s.Equal(models.Settings{QuestionsPerQuiz: 5, PointsPerAnswer: 50}, updated)

	settings, err := s.manager.Settings(s.ctx)
	s.Require().NoError(err)
	s.Equal(5, settings.QuestionsPerQuiz)
	s.Equal(50, settings.PointsPerAnswer)
}

func (s *StorageTestSuite) TestUpdateSettings_ReturnsWhatSettingsReads() {
	s.Require().NoError(s.manager.Initialize(s.ctx))

	updated, err := s.manager.UpdateSettings(s.ctx, models.SettingsPatch{
		QuestionsPerQuiz: lo.ToPtr(8),
		PointsPerAnswer:  lo.ToPtr(500),
	})
	s.Require().NoError(err)
	s.Equal(models.Settings{QuestionsPerQuiz: 8, PointsPerAnswer: 20}, updated)

	settings, err := s.manager.Settings(s.ctx)
	s.Require().NoError(err)
	s.Equal(updated, settings)
}

func (s *StorageTestSuite) TestSettings_RepairsOutOfBounds() {
	s.put(SettingsKey, models.Settings{QuestionsPerQuiz: 0, PointsPerAnswer: 30})

	settings, err := s.manager.Settings(s.ctx)
	s.Require().NoError(err)
	s.Equal(models.Settings{QuestionsPerQuiz: 5, PointsPerAnswer: 30}, settings)
}

func (s *StorageTestSuite) TestStats() {
	s.Require().NoError(s.manager.Initialize(s.ctx))

	stats, err := s.manager.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(14, stats.TotalQuestions)
	s.Equal(0, stats.TotalScores)
	s.Equal(0, stats.AverageScore)
	s.Equal(2, stats.TopicStats["math"])
	s.Equal(1, stats.TopicStats["history"])
	s.Equal(models.DefaultSettings(), stats.Settings)

	for _, v := range []int{10, 15} {
		_, err := s.manager.AddScore(s.ctx, models.Score{Username: "u", Score: v, Topic: "math"})
		s.Require().NoError(err)
	}

	stats, err = s.manager.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, stats.TotalScores)
	s.Equal(13, stats.AverageScore, "12.5 rounds up")
}

func (s *StorageTestSuite) TestStats_BackendFailure() {
	s.backend.GetError = errors.New("unavailable")
	_, err := s.manager.Stats(s.ctx)
	s.Error(err)
}

func (s *StorageTestSuite) TestExport_IsReadOnly() {
	s.Require().NoError(s.manager.Initialize(s.ctx))
	_, err := s.manager.AddScore(s.ctx, models.Score{Username: "u", Score: 20, Topic: "math"})
	s.Require().NoError(err)

	writes := s.backend.Writes(QuestionsKey) + s.backend.Writes(ScoresKey) + s.backend.Writes(SettingsKey)

	export, err := s.manager.Export(s.ctx)
	s.Require().NoError(err)
	s.Len(export.Questions, 14)
	s.Len(export.Scores, 1)
	s.Equal(models.DefaultSettings(), export.Settings)
	s.True(export.ExportDate.Equal(testNow))

	s.Equal(writes, s.backend.Writes(QuestionsKey)+s.backend.Writes(ScoresKey)+s.backend.Writes(SettingsKey))
}
