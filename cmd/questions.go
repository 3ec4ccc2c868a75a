package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jon4hz/quizdeck/internal/admin"
	"github.com/spf13/cobra"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Manage the question bank",
}

var questionsListCmdFlags struct {
	Topic string
	JSON  bool
}

var questionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List questions",
	RunE:  withApp(true, listQuestions),
}

var questionsAddCmdFlags admin.NewQuestionInput

var questionsAddCmd = &cobra.Command{
	Use:     "add",
	Short:   "Add a question",
	Example: `quizdeck questions add --question "Largest planet?" --options "Mars, Jupiter, Venus" --answer Jupiter --topic science`,
	RunE:    withApp(true, addQuestion),
}

var questionsTopicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List the question topics",
	RunE:  withApp(true, listTopics),
}

func init() {
	questionsListCmd.Flags().StringVarP(&questionsListCmdFlags.Topic, "topic", "t", "all", "Only list questions of this topic")
	questionsListCmd.Flags().BoolVar(&questionsListCmdFlags.JSON, "json", false, "Print as JSON")

	questionsAddCmd.Flags().StringVar(&questionsAddCmdFlags.Question, "question", "", "Question text")
	questionsAddCmd.Flags().StringVar(&questionsAddCmdFlags.Options, "options", "", "Comma separated answer options")
	questionsAddCmd.Flags().StringVar(&questionsAddCmdFlags.Answer, "answer", "", "Correct answer, must be one of the options")
	questionsAddCmd.Flags().StringVar(&questionsAddCmdFlags.Topic, "topic", "", "Topic of the question")

	questionsCmd.AddCommand(questionsListCmd, questionsAddCmd, questionsTopicsCmd)
	rootCmd.AddCommand(questionsCmd)
}

func listQuestions(cmd *cobra.Command, a *app, _ []string) error {
	questions, err := a.store.Questions(cmd.Context(), questionsListCmdFlags.Topic)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if questionsListCmdFlags.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(questions)
	}

	for _, q := range questions {
		fmt.Fprintf(out, "%s %s %s\n", mutedStyle.Render(fmt.Sprintf("#%d", q.ID)), q.Question, mutedStyle.Render("["+q.Topic+"]"))
		for _, opt := range q.Options {
			marker := " "
			if opt == q.Answer {
				marker = correctStyle.Render("*")
			}
			fmt.Fprintf(out, "  %s %s\n", marker, opt)
		}
	}
	return nil
}

func addQuestion(cmd *cobra.Command, a *app, _ []string) error {
	q, err := a.admin.AddQuestion(cmd.Context(), questionsAddCmdFlags)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Question added successfully! (id %d)\n", q.ID)
	return nil
}

func listTopics(cmd *cobra.Command, a *app, _ []string) error {
	topics, err := a.store.Topics(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.Join(topics, "\n"))
	return nil
}
