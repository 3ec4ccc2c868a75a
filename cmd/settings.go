package cmd

import (
	"fmt"
	"io"

	"github.com/jon4hz/quizdeck/internal/models"
	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show the quiz settings",
	RunE:  withApp(true, showSettings),
}

var settingsSetCmdFlags struct {
	QuestionsPerQuiz int
	PointsPerAnswer  int
}

var settingsSetCmd = &cobra.Command{
	Use:     "set",
	Short:   "Change the quiz settings",
	Example: `quizdeck settings set --questions 10 --points 50`,
	RunE:    withApp(true, setSettings),
}

func init() {
	settingsSetCmd.Flags().IntVar(&settingsSetCmdFlags.QuestionsPerQuiz, "questions", 0,
		fmt.Sprintf("Questions per quiz (%d-%d)", models.MinQuestionsPerQuiz, models.MaxQuestionsPerQuiz))
	settingsSetCmd.Flags().IntVar(&settingsSetCmdFlags.PointsPerAnswer, "points", 0,
		fmt.Sprintf("Points per correct answer (%d-%d)", models.MinPointsPerAnswer, models.MaxPointsPerAnswer))

	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func showSettings(cmd *cobra.Command, a *app, _ []string) error {
	settings, err := a.store.Settings(cmd.Context())
	if err != nil {
		return err
	}
	printSettings(cmd.OutOrStdout(), settings)
	return nil
}

func setSettings(cmd *cobra.Command, a *app, _ []string) error {
	var patch models.SettingsPatch
	if cmd.Flags().Changed("questions") {
		patch.QuestionsPerQuiz = &settingsSetCmdFlags.QuestionsPerQuiz
	}
	if cmd.Flags().Changed("points") {
		patch.PointsPerAnswer = &settingsSetCmdFlags.PointsPerAnswer
	}
	if patch.QuestionsPerQuiz == nil && patch.PointsPerAnswer == nil {
		return fmt.Errorf("nothing to change, use --questions or --points")
	}

	settings, err := a.admin.SaveSettings(cmd.Context(), patch)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Settings saved successfully!")
	printSettings(cmd.OutOrStdout(), settings)
	return nil
}

func printSettings(out io.Writer, s models.Settings) {
	fmt.Fprintf(out, "Questions per quiz: %d\n", s.QuestionsPerQuiz)
	fmt.Fprintf(out, "Points per answer:  %d\n", s.PointsPerAnswer)
}
