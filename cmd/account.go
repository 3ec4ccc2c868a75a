package cmd

import (
	"errors"
	"fmt"

	"github.com/jon4hz/quizdeck/internal/auth"
	"github.com/mergestat/timediff"
	"github.com/spf13/cobra"
)

var signupCmdFlags struct {
	Name     string
	Email    string
	Password string
}

var signupCmd = &cobra.Command{
	Use:     "signup",
	Short:   "Create an account and log in",
	Example: `quizdeck signup --name Alice --email alice@example.com`,
	RunE:    withApp(false, signup),
}

var loginCmdFlags struct {
	Email    string
	Password string
}

var loginCmd = &cobra.Command{
	Use:     "login",
	Short:   "Log in to an existing account",
	Example: `quizdeck login --email alice@example.com`,
	RunE:    withApp(false, login),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out",
	RunE:  withApp(true, logout),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in user",
	RunE:  withApp(true, whoami),
}

func init() {
	signupCmd.Flags().StringVar(&signupCmdFlags.Name, "name", "", "Display name")
	signupCmd.Flags().StringVar(&signupCmdFlags.Email, "email", "", "Email address")
	signupCmd.Flags().StringVar(&signupCmdFlags.Password, "password", "", "Password (prompted if omitted)")

	loginCmd.Flags().StringVar(&loginCmdFlags.Email, "email", "", "Email address")
	loginCmd.Flags().StringVar(&loginCmdFlags.Password, "password", "", "Password (prompted if omitted)")

	rootCmd.AddCommand(signupCmd, loginCmd, logoutCmd, whoamiCmd)
}

func signup(cmd *cobra.Command, a *app, _ []string) error {
	p := newPrompter(cmd)

	name, err := p.valueOrAsk(signupCmdFlags.Name, "Name")
	if err != nil {
		return err
	}
	email, err := p.valueOrAsk(signupCmdFlags.Email, "Email")
	if err != nil {
		return err
	}
	password := signupCmdFlags.Password
	if password == "" {
		if password, err = p.Ask("Password"); err != nil {
			return err
		}
		confirm, err := p.Ask("Confirm password")
		if err != nil {
			return err
		}
		if password != confirm {
			return errors.New("passwords do not match")
		}
	}

	user, err := a.auth.Signup(cmd.Context(), name, email, password)
	if errors.Is(err, auth.ErrEmailTaken) {
		return fmt.Errorf("%w, please login instead", err)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s! You are now logged in.\n", user.Name)
	return nil
}

func login(cmd *cobra.Command, a *app, _ []string) error {
	p := newPrompter(cmd)

	email, err := p.valueOrAsk(loginCmdFlags.Email, "Email")
	if err != nil {
		return err
	}
	password, err := p.valueOrAsk(loginCmdFlags.Password, "Password")
	if err != nil {
		return err
	}

	user, err := a.auth.Login(cmd.Context(), email, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Welcome back, %s!\n", user.Name)
	return nil
}

func logout(cmd *cobra.Command, a *app, _ []string) error {
	if err := a.auth.Logout(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
	return nil
}

func whoami(cmd *cobra.Command, a *app, _ []string) error {
	user, _ := a.auth.CurrentUser()
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "%s <%s>\n", user.Name, user.Email)
	if !user.CreatedAt.IsZero() {
		fmt.Fprintf(out, "Member since %s\n", timediff.TimeDiff(user.CreatedAt))
	}
	if avatar := a.avatars.URL(user); avatar != "" {
		fmt.Fprintf(out, "Avatar: %s\n", avatar)
	}
	return nil
}
