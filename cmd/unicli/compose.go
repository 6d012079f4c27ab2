package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var mailSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a message",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, _ []string) error {
		to, _ := cmd.Flags().GetString("to")
		subject, _ := cmd.Flags().GetString("subject")
		body, _ := cmd.Flags().GetString("body")
		cc, _ := cmd.Flags().GetStringSlice("cc")

		if err := a.emails.SendMessage(ctx, a.accountEmail, to, subject, body, cc); err != nil {
			return err
		}

		fmt.Printf("Sent message to %s\n", to)
		return nil
	}),
}

var mailReplyCmd = &cobra.Command{
	Use:   "reply <message-id>",
	Short: "Reply to a message",
	Long: `Reply to a message. The reply goes to the original sender with the
subject prefixed by "Re:" and the References headers set so mail clients
keep the thread together. With --draft the reply is stored as a draft
instead of being sent.`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		body, _ := cmd.Flags().GetString("body")
		cc, _ := cmd.Flags().GetStringSlice("cc")
		asDraft, _ := cmd.Flags().GetBool("draft")

		if err := a.emails.ReplyToMessage(ctx, args[0], body, !asDraft, cc); err != nil {
			return err
		}

		if asDraft {
			fmt.Println("Reply saved as draft.")
		} else {
			fmt.Println("Reply sent.")
		}
		return nil
	}),
}

var mailDraftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Work with drafts",
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

var mailDraftListCmd = &cobra.Command{
	Use:   "list",
	Short: "List drafts",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, _ []string) error {
		max, _ := cmd.Flags().GetInt64("max")

		drafts, err := a.repo.GetDrafts(ctx, max)
		if err != nil {
			return err
		}

		if len(drafts) == 0 {
			fmt.Println("No drafts found.")
			return nil
		}

		for _, draft := range drafts {
			snippet := ""
			if draft.Message != nil {
				snippet = draft.Message.Snippet
			}
			if snippet == "" {
				fmt.Println(draft.Id)
			} else {
				fmt.Printf("%s  %s\n", draft.Id, snippet)
			}
		}

		return nil
	}),
}

var mailDraftViewCmd = &cobra.Command{
	Use:   "view <draft-id>",
	Short: "Show a draft",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		wrap, _ := cmd.Flags().GetInt("wrap")

		draft, err := a.repo.GetDraft(ctx, args[0])
		if err != nil {
			return err
		}

		printResolvedMessage(a, draft, wrap)
		return nil
	}),
}

var mailDraftCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a draft",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, _ []string) error {
		to, _ := cmd.Flags().GetString("to")
		subject, _ := cmd.Flags().GetString("subject")
		body, _ := cmd.Flags().GetString("body")
		cc, _ := cmd.Flags().GetStringSlice("cc")

		draftID, err := a.emails.CreateDraft(ctx, to, subject, body, cc)
		if err != nil {
			return err
		}

		fmt.Printf("Created draft %s\n", draftID)
		return nil
	}),
}

func init() {
	mailCmd.AddCommand(mailSendCmd)
	mailCmd.AddCommand(mailReplyCmd)
	mailCmd.AddCommand(mailDraftCmd)

	mailDraftCmd.AddCommand(mailDraftListCmd)
	mailDraftCmd.AddCommand(mailDraftViewCmd)
	mailDraftCmd.AddCommand(mailDraftCreateCmd)

	mailSendCmd.Flags().String("to", "", "Recipient address")
	mailSendCmd.Flags().String("subject", "", "Message subject")
	mailSendCmd.Flags().String("body", "", "Message body")
	mailSendCmd.Flags().StringSlice("cc", nil, "Carbon copy recipients")

	mailReplyCmd.Flags().String("body", "", "Reply body")
	mailReplyCmd.Flags().StringSlice("cc", nil, "Carbon copy recipients")
	mailReplyCmd.Flags().Bool("draft", false, "Save the reply as a draft instead of sending it")

	mailDraftListCmd.Flags().Int64P("max", "n", 25, "Maximum number of drafts to list")
	mailDraftViewCmd.Flags().Int("wrap", 0, "Wrap the body at this width (0 disables wrapping)")

	mailDraftCreateCmd.Flags().String("to", "", "Recipient address")
	mailDraftCreateCmd.Flags().String("subject", "", "Draft subject")
	mailDraftCreateCmd.Flags().String("body", "", "Draft body")
	mailDraftCreateCmd.Flags().StringSlice("cc", nil, "Carbon copy recipients")
}
