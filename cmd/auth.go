package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxdraft/internal/config"
	"github.com/teemow/inboxdraft/internal/docs"
	"github.com/teemow/inboxdraft/internal/google"
	"github.com/teemow/inboxdraft/internal/logging"
)

func newAuthCmd() *cobra.Command {
	var (
		credentialsFile string
		tokenFile       string
		timeout         time.Duration
		documentID      string
	)

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize read access to the guidelines Google Doc",
		Long: `Run the Google OAuth flow for read-only access to Google Docs and cache the
token, so that serve can fetch the guidelines document without interaction.

The OAuth client secrets come from a credentials.json file of a "Desktop app"
OAuth client created in the Google Cloud console. The consent URL is printed
to stderr; the browser redirect is received on a local port.

With --document (or GUIDELINES_DOC_ID) the document is fetched once to check
access.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile, envFile := configOptions(cmd)
			cfg, err := config.Load(config.Options{ConfigFile: configFile, EnvFile: envFile, Partial: true})
			if err != nil {
				return err
			}
			if credentialsFile != "" {
				cfg.GoogleCredentialsFile = credentialsFile
			}
			if tokenFile != "" {
				cfg.GoogleTokenFile = tokenFile
			}
			if documentID == "" {
				documentID = cfg.GuidelinesDocID
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runAuth(ctx, cmd, cfg, documentID, timeout)
		},
	}

	cmd.Flags().StringVar(&credentialsFile, "credentials-file", "", "OAuth client secrets file (default: GOOGLE_CREDENTIALS_FILE)")
	cmd.Flags().StringVar(&tokenFile, "token-file", "", "Token cache file (default: GOOGLE_TOKEN_FILE)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "How long to wait for the browser redirect")
	cmd.Flags().StringVar(&documentID, "document", "", "Document ID to test access with (default: GUIDELINES_DOC_ID)")

	return cmd
}

func runAuth(ctx context.Context, cmd *cobra.Command, cfg *config.Config, documentID string, timeout time.Duration) error {
	logger := logging.NewSlogAdapter(logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat))

	client := docs.NewClient(docs.Config{
		CredentialsFile: cfg.GoogleCredentialsFile,
		TokenFile:       cfg.GoogleTokenFile,
		Authorizer: &google.LoopbackAuthorizer{
			Out:     cmd.ErrOrStderr(),
			Timeout: timeout,
		},
		Logger: logger,
	})

	if err := client.Authenticate(ctx); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w\n\nDownload the OAuth client secrets of a Desktop app client to %s", err, cfg.GoogleCredentialsFile)
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Google Docs token cached at %s\n", cfg.GoogleTokenFile)

	if documentID == "" {
		return nil
	}

	text, err := client.GetDocumentText(ctx, documentID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Guidelines document readable (%d characters)\n", len([]rune(text)))
	return nil
}
