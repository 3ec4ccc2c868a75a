package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var statsCmdFlags struct {
	JSON bool
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show question bank and leaderboard statistics",
	RunE:  withApp(true, stats),
}

var exportCmdFlags struct {
	Output string
}

var exportCmd = &cobra.Command{
	Use:     "export",
	Short:   "Export all quiz data as JSON",
	Example: `quizdeck export -o backup.json`,
	RunE:    withApp(true, export),
}

func init() {
	statsCmd.Flags().BoolVar(&statsCmdFlags.JSON, "json", false, "Print as JSON")
	exportCmd.Flags().StringVarP(&exportCmdFlags.Output, "output", "o", "", "Write to this file instead of stdout")

	rootCmd.AddCommand(statsCmd, exportCmd)
}

func stats(cmd *cobra.Command, a *app, _ []string) error {
	s, err := a.store.Stats(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if statsCmdFlags.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}

	fmt.Fprintln(out, titleStyle.Render("Statistics"))
	fmt.Fprintf(out, "Total questions: %d\n", s.TotalQuestions)
	fmt.Fprintf(out, "Total scores:    %d\n", s.TotalScores)
	fmt.Fprintf(out, "Average score:   %d\n", s.AverageScore)
	fmt.Fprintln(out, "Questions per topic:")
	topics := lo.Keys(s.TopicStats)
	slices.Sort(topics)
	for _, topic := range topics {
		fmt.Fprintf(out, "  %-12s %d\n", topic, s.TopicStats[topic])
	}
	printSettings(out, s.Settings)
	return nil
}

func export(cmd *cobra.Command, a *app, _ []string) error {
	data, err := a.store.Export(cmd.Context())
	if err != nil {
		return err
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	raw = append(raw, '\n')

	if exportCmdFlags.Output == "" {
		_, err := cmd.OutOrStdout().Write(raw)
		return err
	}

	if dir := filepath.Dir(exportCmdFlags.Output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	if err := os.WriteFile(exportCmdFlags.Output, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	log.Info("Exported quiz data", "file", exportCmdFlags.Output, "questions", len(data.Questions), "scores", len(data.Scores))
	return nil
}
