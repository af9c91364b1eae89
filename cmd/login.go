package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fleetdash/fleetdash/internal/api"
	"github.com/fleetdash/fleetdash/internal/demo"
	"github.com/fleetdash/fleetdash/internal/store"
)

var (
	loginUsername      string
	loginPassword      string
	loginPasswordStdin bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and remember the session",
	Long: `Log in to the configured server and save the session token locally.

The password is prompted for when stdin is a terminal, or read from the
first line of stdin with --password-stdin.

Example:
  fleetdash login --username admin
  echo "$PASSWORD" | fleetdash login --username admin --password-stdin

Exit codes:
  0: Logged in
  1: Error (bad credentials, server unreachable)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword()
		if err != nil {
			return err
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		server := cfg.ServerURL()
		sess, err := api.NewClient(server).Login(cmd.Context(), loginUsername, password)
		if api.IsUnauthorized(err) {
			return errors.New("invalid username or password")
		}
		if err != nil {
			return fmt.Errorf("failed to log in: %w", err)
		}

		if err := st.SaveSession(store.Session{
			Server:    server,
			Username:  sess.Username,
			Token:     sess.Token,
			CreatedAt: time.Now(),
		}); err != nil {
			return err
		}
		fmt.Printf("Logged in to %s as %s\n", server, sess.Username)
		return nil
	},
}

func readPassword() (string, error) {
	if loginPassword != "" {
		return loginPassword, nil
	}
	if !loginPasswordStdin && term.IsTerminal(os.Stdin.Fd()) {
		fmt.Fprint(os.Stderr, "Password: ")
		b, err := term.ReadPassword(os.Stdin.Fd())
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("no password on stdin")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", demo.DefaultUsername, "user to log in as")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "password (prefer the prompt or --password-stdin)")
	loginCmd.Flags().BoolVar(&loginPasswordStdin, "password-stdin", false, "read the password from stdin")
	loginCmd.MarkFlagsMutuallyExclusive("password", "password-stdin")
	RootCmd.AddCommand(loginCmd)
}
