package storage

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/quizdeck/internal/models"
)

// Settings returns the current settings. Fields outside their bounds read as defaults.
func (m *Manager) Settings(ctx context.Context) (models.Settings, error) {
	settings, _, err := m.settings.Load(ctx)
	if err != nil {
		return models.Settings{}, err
	}
	return settings.Repaired(), nil
}

// UpdateSettings merges patch over the current settings and stores the result.
// Bounds are not checked here; callers validate user input first. The
// returned settings are repaired the same way Settings reads them back.
func (m *Manager) UpdateSettings(ctx context.Context, patch models.SettingsPatch) (models.Settings, error) {
	current, err := m.Settings(ctx)
	if err != nil {
		return models.Settings{}, err
	}

	updated := patch.Apply(current)
	if err := m.settings.Save(ctx, updated); err != nil {
		return models.Settings{}, err
	}

	log.Debug("Updated settings", "questionsPerQuiz", updated.QuestionsPerQuiz, "pointsPerAnswer", updated.PointsPerAnswer)
	return updated.Repaired(), nil
}
