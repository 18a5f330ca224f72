package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/teemow/inboxdraft/internal/config"
)

func newCredentialsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage the mailbox password in the system keyring",
		Long: `Store or remove the mailbox application password in the system keyring.

With EMAIL_USE_KEYRING=true, serve reads the password from the keyring when
EMAIL_APP_PASSWORD is not set.`,
	}

	cmd.AddCommand(newCredentialsSetCmd(config.NewKeyringStore()))
	cmd.AddCommand(newCredentialsDeleteCmd(config.NewKeyringStore()))
	return cmd
}

func newCredentialsSetCmd(store config.SecretStore) *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store the mailbox password",
		Long: `Store the mailbox password for the account. The password is read from the
terminal without echo, or as the first line of standard input when it is
not a terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := resolveAccount(cmd, account)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Password for %s: ", account)
			secret, err := readSecret(cmd.InOrStdin())
			fmt.Fprintln(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			if err := store.Set(account, secret); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored password for %s in the system keyring\n", account)
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "Mailbox address (default: EMAIL_USER)")
	return cmd
}

func newCredentialsDeleteCmd(store config.SecretStore) *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove the stored mailbox password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := resolveAccount(cmd, account)
			if err != nil {
				return err
			}

			if err := store.Delete(account); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed password for %s from the system keyring\n", account)
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "Mailbox address (default: EMAIL_USER)")
	return cmd
}

// resolveAccount returns the --account flag, or the configured mailbox address
func resolveAccount(cmd *cobra.Command, account string) (string, error) {
	if account = strings.TrimSpace(account); account != "" {
		return account, nil
	}

	configFile, envFile := configOptions(cmd)
	cfg, err := config.Load(config.Options{ConfigFile: configFile, EnvFile: envFile, Partial: true})
	if err != nil {
		return "", err
	}
	if cfg.EmailUser == "" {
		return "", errors.New("no account given: use --account or set EMAIL_USER")
	}
	return cfg.EmailUser, nil
}

func readSecret(in io.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return validSecret(string(b))
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return validSecret(line)
}

func validSecret(s string) (string, error) {
	s = strings.TrimRight(s, "\r\n")
	if s == "" {
		return "", errors.New("password must not be empty")
	}
	return s, nil
}
