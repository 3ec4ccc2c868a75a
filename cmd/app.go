package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/quizdeck/internal/admin"
	"github.com/jon4hz/quizdeck/internal/auth"
	"github.com/jon4hz/quizdeck/internal/config"
	"github.com/jon4hz/quizdeck/internal/gravatar"
	"github.com/jon4hz/quizdeck/internal/kvstore"
	"github.com/jon4hz/quizdeck/internal/storage"
	"github.com/spf13/cobra"
)

var errNotLoggedIn = errors.New("you are not logged in, run 'quizdeck login' or 'quizdeck signup' first")

// app bundles everything a command needs.
type app struct {
	cfg     *config.Config
	backend kvstore.Backend
	store   *storage.Manager
	auth    *auth.Manager
	admin   *admin.Service
	avatars *gravatar.Resolver
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if rootCmdPersistentFlags.LogLevel == "" {
		setLogLevel(cfg.LogLevel)
	}
	if err := gravatar.Validate(cfg.Gravatar); err != nil {
		return nil, err
	}

	backend, err := kvstore.Open(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	store := storage.New(backend)
	if err := store.Initialize(ctx); err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	authManager, err := auth.New(ctx, backend,
		auth.WithBcryptCost(cfg.Auth.BcryptCost),
		auth.WithMinPasswordLength(cfg.Auth.MinPasswordLength),
	)
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	return &app{
		cfg:     cfg,
		backend: backend,
		store:   store,
		auth:    authManager,
		admin:   admin.New(store),
		avatars: gravatar.New(cfg.Gravatar),
	}, nil
}

func (a *app) Close() error {
	return a.backend.Close()
}

type runFunc func(cmd *cobra.Command, a *app, args []string) error

// withApp opens the app for fn. If requireLogin is set, fn only runs for a
// signed in user.
func withApp(requireLogin bool, fn runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer func() {
			if err := a.Close(); err != nil {
				log.Warn("failed to close storage", "error", err)
			}
		}()

		if requireLogin && !a.auth.Authenticated() {
			return errNotLoggedIn
		}
		return fn(cmd, a, args)
	}
}

// prompter reads answers from the command input line by line.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{
		in:  bufio.NewReader(cmd.InOrStdin()),
		out: cmd.OutOrStdout(),
	}
}

// Ask prints label and returns the trimmed line typed by the user.
func (p *prompter) Ask(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	line, err := p.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// AskDefault is Ask with a value used when the user enters nothing.
func (p *prompter) AskDefault(label, def string) (string, error) {
	if def == "" {
		return p.Ask(label)
	}
	answer, err := p.Ask(fmt.Sprintf("%s [%s]", label, def))
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// Confirm asks a yes/no question. Anything but y or yes is a no.
func (p *prompter) Confirm(label string) (bool, error) {
	answer, err := p.Ask(label + " [y/N]")
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// valueOrAsk returns value, or prompts for it if it is empty.
func (p *prompter) valueOrAsk(value, label string) (string, error) {
	if strings.TrimSpace(value) != "" {
		return value, nil
	}
	return p.Ask(label)
}
