package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Seed the question bank and default settings",
	Long:  `Seeds the storage with the default questions, an empty leaderboard and the default settings. Safe to run repeatedly: questions you added are kept and default questions are never duplicated.`,
	RunE:  withApp(false, initialize),
}

func init() {
	rootCmd.AddCommand(initCmd)
}

// initialize only reports; storage is seeded whenever the app is opened.
func initialize(cmd *cobra.Command, a *app, _ []string) error {
	stats, err := a.store.Stats(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Storage ready (%s): %d questions in %d topics, %d scores.\n",
		a.cfg.Storage.Type, stats.TotalQuestions, len(stats.TopicStats), stats.TotalScores)
	return nil
}
