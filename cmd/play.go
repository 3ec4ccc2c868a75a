package cmd

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/quizdeck/internal/models"
	"github.com/jon4hz/quizdeck/internal/quiz"
	"github.com/jon4hz/quizdeck/internal/scheduler"
	"github.com/spf13/cobra"
)

var playCmdFlags struct {
	Name  string
	Topic string
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Take a quiz",
	Example: `quizdeck play
quizdeck play --topic science --name "Team Rocket"`,
	RunE: withApp(true, play),
}

func init() {
	playCmd.Flags().StringVar(&playCmdFlags.Name, "name", "", "Name shown on the leaderboard (default: your account name)")
	playCmd.Flags().StringVarP(&playCmdFlags.Topic, "topic", "t", "", "Topic to play, or 'all'")

	rootCmd.AddCommand(playCmd)
}

func play(cmd *cobra.Command, a *app, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	p := newPrompter(cmd)

	sched, err := scheduler.New()
	if err != nil {
		return err
	}
	sched.Start()
	defer func() {
		if err := sched.Stop(); err != nil {
			log.Warn("failed to stop scheduler", "error", err)
		}
	}()

	session := quiz.New(a.store, sched, quiz.WithFeedbackDelay(a.cfg.Quiz.FeedbackDelay))

	name := playCmdFlags.Name
	if name == "" {
		user, _ := a.auth.CurrentUser()
		name = user.Name
	}
	session.Select(name, playCmdFlags.Topic)

	topic := playCmdFlags.Topic
	for {
		if topic == "" {
			if topic, err = selectTopic(cmd, a, p); err != nil {
				return err
			}
		}

		err := session.Start(ctx, name, topic)
		switch {
		case errors.Is(err, quiz.ErrEmptyName):
			fmt.Fprintln(out, incorrectStyle.Render(err.Error()))
			if name, err = p.Ask("Name"); err != nil {
				return err
			}
			continue
		case errors.Is(err, quiz.ErrNoQuestions):
			fmt.Fprintln(out, incorrectStyle.Render(err.Error()))
			topic = ""
			continue
		case err != nil:
			return err
		}

		if err := runQuiz(cmd, session, p); err != nil {
			return err
		}

		again, err := p.Confirm("Play again?")
		if err != nil || !again {
			return err
		}
		name, topic = session.Restart()
		if topic, err = p.AskDefault("Topic", topic); err != nil {
			return err
		}
	}
}

func selectTopic(cmd *cobra.Command, a *app, p *prompter) (string, error) {
	topics, err := a.store.Topics(cmd.Context())
	if err != nil {
		return "", err
	}
	fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("Topics: all, "+strings.Join(topics, ", ")))
	return p.AskDefault("Topic", models.TopicAll)
}

func runQuiz(cmd *cobra.Command, session *quiz.Session, p *prompter) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	for session.State() == quiz.StateInProgress {
		q, ok := session.Current()
		if !ok {
			break
		}
		progress := session.Progress()

		fmt.Fprintln(out)
		fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Question %d of %d", progress.Number, progress.Total)))
		fmt.Fprintln(out, q.Question)
		for i, opt := range q.Options {
			fmt.Fprintf(out, "  %d) %s\n", i+1, opt)
		}

		option, err := askOption(p, q)
		if err != nil {
			return err
		}

		feedback, err := session.Answer(ctx, option)
		if err != nil {
			return err
		}
		if feedback.Correct {
			fmt.Fprintln(out, correctStyle.Render(fmt.Sprintf("Correct! Score: %d", feedback.Score)))
		} else {
			fmt.Fprintln(out, incorrectStyle.Render("Wrong! The correct answer was: "+feedback.Answer))
		}

		if err := session.WaitAdvance(ctx); err != nil {
			return err
		}
	}

	result, ok := session.Result()
	if !ok {
		return nil
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, titleStyle.Render("Quiz complete!"))
	fmt.Fprintf(out, "%s scored %d points on %d questions (%d%%)\n", result.Username, result.Score, result.Total, result.Percentage)
	return nil
}

// askOption prompts until the user picks an option by number or text.
func askOption(p *prompter, q models.Question) (string, error) {
	for {
		answer, err := p.Ask("Your answer")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", errors.New("quiz aborted")
			}
			return "", err
		}
		if option, ok := parseChoice(answer, q.Options); ok {
			return option, nil
		}
		fmt.Fprintf(p.out, "Please enter a number between 1 and %d.\n", len(q.Options))
	}
}

// parseChoice resolves a 1-based option number, or else an exact option text.
// A valid number always selects by position, even if an option has that text.
func parseChoice(answer string, options []string) (string, bool) {
	if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(options) {
		return options[n-1], true
	}
	if slices.Contains(options, answer) {
		return answer, true
	}
	return "", false
}
