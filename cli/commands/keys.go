package commands

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/petal-labs/wit/cli/keystore"
	"github.com/petal-labs/wit/core"
)

func (a *App) newKeysCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage stored API tokens",
		Long: `Manage API tokens in the encrypted keystore.

Tokens are looked up by name. The name used for requests is token_ref from
the config file, or "default".`,
	}
	cmd.AddCommand(a.newKeysSetCommand())
	cmd.AddCommand(a.newKeysListCommand())
	cmd.AddCommand(a.newKeysDeleteCommand())
	return cmd
}

func (a *App) newKeysSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set [name]",
		Short: "Store an API token",
		Long:  `Store an API token. The token is prompted without echo.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := a.cfg.TokenName()
			if len(args) == 1 {
				name = args[0]
			}

			fmt.Fprintf(a.stderr, "Enter API token for %s: ", name)
			token, err := a.readSecret()
			if err != nil {
				return a.handleError(fmt.Errorf("failed to read token: %w", err))
			}
			if token == "" {
				return a.handleError(fmt.Errorf("%w: token cannot be empty", core.ErrConfig))
			}

			ks, err := a.newKeystore()
			if err != nil {
				return a.handleError(fmt.Errorf("failed to open keystore: %w", err))
			}
			if err := ks.Set(name, token); err != nil {
				return a.handleError(fmt.Errorf("failed to store token: %w", err))
			}

			fmt.Fprintf(a.stdout, "Token %s stored.\n", name)
			return nil
		},
	}
}

func (a *App) newKeysListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored token names",
		Long:  `List stored token names. Token values are never shown.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := a.newKeystore()
			if err != nil {
				return a.handleError(fmt.Errorf("failed to open keystore: %w", err))
			}
			names, err := ks.List()
			if err != nil {
				return a.handleError(fmt.Errorf("failed to list tokens: %w", err))
			}

			if a.jsonOutput {
				if names == nil {
					names = []string{}
				}
				return json.NewEncoder(a.stdout).Encode(names)
			}
			if len(names) == 0 {
				fmt.Fprintln(a.stdout, "No tokens stored.")
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(a.stdout, name)
			}
			return nil
		},
	}
}

func (a *App) newKeysDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a stored token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			ks, err := a.newKeystore()
			if err != nil {
				return a.handleError(fmt.Errorf("failed to open keystore: %w", err))
			}
			if err := ks.Delete(name); err != nil {
				var nf *keystore.ErrKeyNotFound
				if errors.As(err, &nf) {
					return a.handleError(fmt.Errorf("%w: no token stored for %s", core.ErrConfig, name))
				}
				return a.handleError(fmt.Errorf("failed to delete token: %w", err))
			}

			fmt.Fprintf(a.stdout, "Token %s deleted.\n", name)
			return nil
		},
	}
}

// readSecret reads one line from stdin, without echo when it is a terminal.
func (a *App) readSecret() (string, error) {
	if f, ok := a.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.stderr)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(a.stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
