package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zulandar/flightbag/internal/auth"
	"golang.org/x/term"
)

func newLoginCmd(configPath *string) *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in locally without the airline (mock login)",
		Long: "Stores the pilot id and a mock session. The password is read from the terminal\n" +
			"without echo, or from stdin when stdin is not a terminal. Use 'efb oauth url' for\n" +
			"the airline sign-in.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, *configPath, user)
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "pilot id (defaults to the configured pilot)")
	return cmd
}

func runLogin(cmd *cobra.Command, configPath, user string) error {
	out := cmd.OutOrStdout()
	a, err := openApp(configPath)
	if err != nil {
		return err
	}
	if user == "" {
		user = a.session.User()
	}

	password, err := readPassword(cmd)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	if err := a.auth.MockLogin(user, password); err != nil {
		return err
	}
	fmt.Fprintf(out, "Signed in as %s (%s)\n", a.session.User(), auth.MockSession)
	return nil
}

// readPassword prompts without echo on a terminal and otherwise reads one
// line from stdin.
func readPassword(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.OutOrStdout(), "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func newOAuthCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oauth",
		Short: "Sign in through the airline's OAuth flow",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "url",
		Short: "Start a sign-in and print the authorize URL to open",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOAuthURL(cmd, *configPath)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "callback <redirect-url>",
		Short: "Finish a sign-in with the URL the browser was redirected to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOAuthCallback(cmd, *configPath, args[0])
		},
	})
	return cmd
}

func runOAuthURL(cmd *cobra.Command, configPath string) error {
	a, err := openApp(configPath)
	if err != nil {
		return err
	}
	login, err := a.auth.BeginLogin()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Open this URL to sign in, then run 'efb oauth callback <redirect-url>':")
	fmt.Fprintln(out, login.URL)
	return nil
}

func runOAuthCallback(cmd *cobra.Command, configPath, raw string) error {
	a, err := openApp(configPath)
	if err != nil {
		return err
	}
	params, err := auth.ParseCallback(raw)
	if err != nil {
		return err
	}
	id, err := a.auth.CompleteLogin(cmd.Context(), params)
	if err != nil {
		return err
	}
	user := id.User
	if user == "" {
		user = a.session.User()
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", user)
	return nil
}

func newLogoutCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			if err := a.auth.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}
