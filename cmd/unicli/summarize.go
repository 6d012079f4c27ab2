package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shockz09/uni-cli-sub002/internal/services"
)

var mailSummarizeCmd = &cobra.Command{
	Use:   "summarize <message-id>",
	Short: "Summarize a message with the configured LLM",
	Long: `Summarize the resolved text body of a message with the configured
LLM provider (Ollama or Amazon Bedrock, see the llm block of the
configuration). Summaries are cached per account and message; --force
regenerates the summary even when a cached one exists.`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		messageID := args[0]
		force, _ := cmd.Flags().GetBool("force")

		msg, err := a.emails.GetMessageContent(ctx, messageID)
		if err != nil {
			return err
		}

		result, err := a.ai.GenerateSummary(ctx, msg.PlainText, services.SummaryOptions{
			UseCache:        a.cache != nil,
			ForceRegenerate: force,
			MessageID:       messageID,
			AccountEmail:    a.accountEmail,
		})
		if err != nil {
			return err
		}

		fmt.Println(result.Summary)
		if result.FromCache {
			fmt.Fprintln(os.Stderr, "(cached summary)")
		}

		return nil
	}),
}

func init() {
	mailCmd.AddCommand(mailSummarizeCmd)

	mailSummarizeCmd.Flags().Bool("force", false, "Regenerate the summary even if one is cached")
}
