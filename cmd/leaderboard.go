package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/jon4hz/quizdeck/internal/admin"
	"github.com/mergestat/timediff"
	"github.com/spf13/cobra"
)

var leaderboardCmdFlags struct {
	Topic string
	Limit int
}

var leaderboardCmd = &cobra.Command{
	Use:     "leaderboard",
	Aliases: []string{"scores"},
	Short:   "Show the best scores",
	Example: `quizdeck leaderboard --topic math --limit 5`,
	RunE:    withApp(true, leaderboard),
}

var leaderboardClearCmdFlags struct {
	Yes bool
}

var leaderboardClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all scores",
	Long:  `Deletes every score from the leaderboard. This cannot be undone.`,
	RunE:  withApp(true, clearLeaderboard),
}

var leaderboardOverviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Print the top scores of all topics as JSON",
	RunE:  withApp(true, leaderboardOverview),
}

func init() {
	leaderboardCmd.Flags().StringVarP(&leaderboardCmdFlags.Topic, "topic", "t", "all", "Only show scores of this topic")
	leaderboardCmd.Flags().IntVarP(&leaderboardCmdFlags.Limit, "limit", "n", 0, "Number of scores to show (default from config)")

	leaderboardClearCmd.Flags().BoolVarP(&leaderboardClearCmdFlags.Yes, "yes", "y", false, "Do not ask for confirmation")

	leaderboardCmd.AddCommand(leaderboardClearCmd, leaderboardOverviewCmd)
	rootCmd.AddCommand(leaderboardCmd)
}

func leaderboard(cmd *cobra.Command, a *app, _ []string) error {
	limit := leaderboardCmdFlags.Limit
	if limit <= 0 {
		limit = a.cfg.Quiz.LeaderboardLimit
	}

	entries, err := a.admin.Leaderboard(cmd.Context(), leaderboardCmdFlags.Topic, limit)
	if err != nil {
		return err
	}
	return renderLeaderboard(cmd.OutOrStdout(), entries)
}

func renderLeaderboard(out io.Writer, entries []admin.LeaderboardEntry) error {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No scores yet. Be the first to take the quiz!")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, e := range entries {
		when := ""
		if !e.Timestamp.IsZero() {
			when = timediff.TimeDiff(e.Timestamp)
		}
		fmt.Fprintf(w, "%s\t%s\t%d pts\t%s\t%s\n", humanize.Ordinal(e.Rank), e.Username, e.Score.Score, e.Topic, when)
	}
	return w.Flush()
}

func clearLeaderboard(cmd *cobra.Command, a *app, _ []string) error {
	if !leaderboardClearCmdFlags.Yes {
		ok, err := newPrompter(cmd).Confirm("Clear all scores? This cannot be undone!")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	}

	if err := a.admin.ClearScores(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "All scores cleared!")
	return nil
}

func leaderboardOverview(cmd *cobra.Command, a *app, _ []string) error {
	overview, err := a.admin.ScoresOverview(cmd.Context())
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(overview)
}
