package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shockz09/uni-cli-sub002/internal/services"
	"github.com/shockz09/uni-cli-sub002/internal/version"
)

var (
	flagConfigPath      string
	flagCredentialsPath string
	flagTokenPath       string
)

var rootCmd = &cobra.Command{
	Use:   "unicli",
	Short: "Command line client for Google Workspace services",
	Long: `unicli talks to Google APIs from the terminal.

The mail commands work against the Gmail account configured under
~/.config/unicli/: listing and searching the inbox, reading messages
and threads, sending and drafting replies, managing labels, saving
attachments, extracting links and summarizing messages.

Examples:
  unicli mail list
  unicli mail search "from:billing@example.com is:unread"
  unicli mail read 19c2d20451b4bb54
  unicli mail send --to bob@example.com --subject "Status" --body "All green."`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println(version.Detailed())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "Path to configuration file (default: ~/.config/unicli/config.json)")
	rootCmd.PersistentFlags().StringVar(&flagCredentialsPath, "credentials", "", "Path to OAuth client credentials JSON (default: ~/.config/unicli/credentials.json)")
	rootCmd.PersistentFlags().StringVar(&flagTokenPath, "token", "", "Path to cached OAuth token JSON (default: ~/.config/unicli/token.json)")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if services.IsRetryableError(err) {
			fmt.Fprintln(os.Stderr, "The Gmail API reported a transient condition; the same command may succeed in a moment.")
		}
		// Exit 2 for errors a retry cannot fix, so scripts can tell the
		// two apart.
		if services.IsPermanentError(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
