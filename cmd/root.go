package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the inboxdraft application
var rootCmd = &cobra.Command{
	Use:   "inboxdraft",
	Short: "Drafts replies to unread email with an AI assistant",
	Long: `inboxdraft is an MCP (Model Context Protocol) server that reads unread
messages from your mailbox, generates replies with Anthropic's Claude using
the writing guidelines kept in a Google Doc, and saves them as drafts.

Nothing is ever sent: replies land in the drafts folder for you to review.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "inboxdraft version %s\n" .Version}}`)

	// Serving is the only long-running mode, so it is the default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (keys as in the environment, lower case)")
	rootCmd.PersistentFlags().String("env-file", ".env", "Path to a dotenv file loaded before reading the environment")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newCredentialsCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// configOptions reads the persistent config flags of cmd
func configOptions(cmd *cobra.Command) (string, string) {
	configFile, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")
	return configFile, envFile
}
