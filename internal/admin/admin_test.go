package admin

import (
	"context"
	"errors"
	"testing"

	"github.com/jon4hz/quizdeck/internal/kvstore/mock"
	"github.com/jon4hz/quizdeck/internal/models"
	"github.com/jon4hz/quizdeck/internal/storage"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *storage.Manager, *mock.MockBackend) {
	t.Helper()
	backend := mock.NewMockBackend()
	store := storage.New(backend)
	require.NoError(t, store.Initialize(context.Background()))
	return New(store), store, backend
}

func TestAddQuestion(t *testing.T) {
	tests := []struct {
		name    string
		input   NewQuestionInput
		wantErr error
	}{
		{
			name:  "valid",
			input: NewQuestionInput{Question: " Largest planet? ", Answer: "Jupiter", Options: "Mars, Jupiter ,, Venus", Topic: "science"},
		},
		{
			name:    "missing question",
			input:   NewQuestionInput{Question: " ", Answer: "a", Options: "a,b", Topic: "t"},
			wantErr: ErrMissingFields,
		},
		{
			name:    "missing answer",
			input:   NewQuestionInput{Question: "q", Answer: "", Options: "a,b", Topic: "t"},
			wantErr: ErrMissingFields,
		},
		{
			name:    "missing options",
			input:   NewQuestionInput{Question: "q", Answer: "a", Options: "   ", Topic: "t"},
			wantErr: ErrMissingFields,
		},
		{
			name:    "missing topic",
			input:   NewQuestionInput{Question: "q", Answer: "a", Options: "a,b", Topic: ""},
			wantErr: ErrMissingFields,
		},
		{
			name:    "one option",
			input:   NewQuestionInput{Question: "q", Answer: "a", Options: "a, ,", Topic: "t"},
			wantErr: ErrTooFewOptions,
		},
		{
			name:    "answer not an option",
			input:   NewQuestionInput{Question: "q", Answer: "c", Options: "a,b", Topic: "t"},
			wantErr: ErrAnswerNotInOptions,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := newTestService(t)
			ctx := context.Background()

			before, err := store.Questions(ctx, "")
			require.NoError(t, err)

			q, err := svc.AddQuestion(ctx, tt.input)
			after, listErr := store.Questions(ctx, "")
			require.NoError(t, listErr)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Len(t, after, len(before), "rejected input must not be stored")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "Largest planet?", q.Question)
			assert.Equal(t, []string{"Mars", "Jupiter", "Venus"}, q.Options)
			assert.Equal(t, 15, q.ID)
			assert.NoError(t, q.Validate())
			assert.Len(t, after, len(before)+1)
		})
	}
}

func TestParseOptions(t *testing.T) {
	assert.Equal(t, []string{"a", "b c", "d"}, ParseOptions(" a, b c ,,d,"))
	assert.Empty(t, ParseOptions(" , ,"))
}

func TestSaveSettings(t *testing.T) {
	tests := []struct {
		name    string
		patch   models.SettingsPatch
		want    models.Settings
		wantErr bool
	}{
		{"both", models.SettingsPatch{QuestionsPerQuiz: lo.ToPtr(10), PointsPerAnswer: lo.ToPtr(5)}, models.Settings{QuestionsPerQuiz: 10, PointsPerAnswer: 5}, false},
		{"lower bounds", models.SettingsPatch{QuestionsPerQuiz: lo.ToPtr(1), PointsPerAnswer: lo.ToPtr(1)}, models.Settings{QuestionsPerQuiz: 1, PointsPerAnswer: 1}, false},
		{"upper bounds", models.SettingsPatch{QuestionsPerQuiz: lo.ToPtr(20), PointsPerAnswer: lo.ToPtr(100)}, models.Settings{QuestionsPerQuiz: 20, PointsPerAnswer: 100}, false},
		{"points only", models.SettingsPatch{PointsPerAnswer: lo.ToPtr(50)}, models.Settings{QuestionsPerQuiz: 5, PointsPerAnswer: 50}, false},
		{"too few questions", models.SettingsPatch{QuestionsPerQuiz: lo.ToPtr(0)}, models.Settings{}, true},
		{"too many questions", models.SettingsPatch{QuestionsPerQuiz: lo.ToPtr(21)}, models.Settings{}, true},
		{"too many points", models.SettingsPatch{QuestionsPerQuiz: lo.ToPtr(5), PointsPerAnswer: lo.ToPtr(101)}, models.Settings{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := newTestService(t)
			ctx := context.Background()

			got, err := svc.SaveSettings(ctx, tt.patch)
			stored, getErr := store.Settings(ctx)
			require.NoError(t, getErr)

			if tt.wantErr {
				assert.ErrorIs(t, err, ErrSettingsOutOfRange)
				assert.Equal(t, models.DefaultSettings(), stored, "settings must stay untouched")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, stored)
		})
	}
}

func TestLeaderboard(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	for _, s := range []models.Score{
		{Username: "a", Score: 40, Topic: "math"},
		{Username: "b", Score: 80, Topic: "math"},
		{Username: "c", Score: 40, Topic: "math"},
		{Username: "d", Score: 20, Topic: "math"},
		{Username: "e", Score: 100, Topic: "science"},
	} {
		_, err := store.AddScore(ctx, s)
		require.NoError(t, err)
	}

	entries, err := svc.Leaderboard(ctx, "math", 10)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 2, 4}, lo.Map(entries, func(e LeaderboardEntry, _ int) int { return e.Rank }))
	assert.Equal(t, []string{"b", "a", "c", "d"}, lo.Map(entries, func(e LeaderboardEntry, _ int) string { return e.Username }))

	top, err := svc.Leaderboard(ctx, models.TopicAll, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "e", top[0].Username)
}

func TestScoresOverview(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	for i := range ScoresOverviewLimit + 5 {
		_, err := store.AddScore(ctx, models.Score{Username: "u", Score: i, Topic: "math"})
		require.NoError(t, err)
	}

	overview, err := svc.ScoresOverview(ctx)
	require.NoError(t, err)
	assert.Len(t, overview, ScoresOverviewLimit)
	assert.Equal(t, ScoresOverviewLimit+4, overview[0].Score)
}

func TestClearScores(t *testing.T) {
	svc, store, backend := newTestService(t)
	ctx := context.Background()

	_, err := store.AddScore(ctx, models.Score{Username: "u", Score: 20, Topic: "math"})
	require.NoError(t, err)

	require.NoError(t, svc.ClearScores(ctx))
	entries, err := svc.Leaderboard(ctx, "", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)

	backend.SetError = errors.New("read only")
	assert.Error(t, svc.ClearScores(ctx))
}
