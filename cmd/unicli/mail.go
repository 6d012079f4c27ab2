package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shockz09/uni-cli-sub002/internal/gmail"
	"github.com/shockz09/uni-cli-sub002/internal/render"
	"github.com/shockz09/uni-cli-sub002/internal/services"
)

const listMetadataWorkers = 5

var mailCmd = &cobra.Command{
	Use:   "mail",
	Short: "Gmail operations",
	Long: `Gmail operations for the configured account.

Examples:
  unicli mail list --max 20
  unicli mail search "is:unread has:attachment"
  unicli mail read 19c2d20451b4bb54
  unicli mail thread 19c2d20451b4bb54
  unicli mail summarize 19c2d20451b4bb54`,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

var mailListCmd = &cobra.Command{
	Use:   "list",
	Short: "List inbox messages",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, _ []string) error {
		max, _ := cmd.Flags().GetInt64("max")
		pageToken, _ := cmd.Flags().GetString("page")
		width, _ := cmd.Flags().GetInt("width")
		allLabels, _ := cmd.Flags().GetBool("all-labels")

		a.renderer.SetShowSystemLabelsInList(allLabels)

		page, err := a.emails.ListInbox(ctx, services.QueryOptions{MaxResults: max, PageToken: pageToken})
		if err != nil {
			return err
		}

		return a.printMessageList(ctx, page, width)
	}),
}

var mailSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search messages using Gmail query syntax",
	Long: `Search messages using Gmail query syntax.

Query examples:
  from:someone@example.com     Messages from a specific sender
  subject:meeting              Messages with "meeting" in the subject
  is:unread                    Unread messages
  has:attachment               Messages with attachments
  label:important              Messages with a specific label
  after:2025/01/01             Messages after a date`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		max, _ := cmd.Flags().GetInt64("max")
		pageToken, _ := cmd.Flags().GetString("page")
		width, _ := cmd.Flags().GetInt("width")
		allLabels, _ := cmd.Flags().GetBool("all-labels")

		a.renderer.SetShowSystemLabelsInList(allLabels)

		page, err := a.emails.SearchMessages(ctx, args[0], services.QueryOptions{MaxResults: max, PageToken: pageToken})
		if err != nil {
			return err
		}

		return a.printMessageList(ctx, page, width)
	}),
}

var mailReadCmd = &cobra.Command{
	Use:   "read <message-id>",
	Short: "Read a message",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		messageID := args[0]
		showHTML, _ := cmd.Flags().GetBool("html")
		savePath, _ := cmd.Flags().GetString("save")
		wrap, _ := cmd.Flags().GetInt("wrap")

		if savePath != "" {
			if err := a.emails.SaveMessageToFile(ctx, messageID, savePath); err != nil {
				return err
			}
			fmt.Printf("Saved message %s to %s\n", messageID, savePath)
			return nil
		}

		if showHTML {
			msg, err := a.emails.GetMessageWithHTML(ctx, messageID)
			if err != nil {
				return err
			}
			if strings.TrimSpace(msg.HTML) == "" {
				return fmt.Errorf("message %s has no HTML part", messageID)
			}
			fmt.Println(msg.HTML)
			return nil
		}

		msg, err := a.emails.GetMessageContent(ctx, messageID)
		if err != nil {
			return err
		}

		printResolvedMessage(a, msg, wrap)
		return nil
	}),
}

var mailThreadCmd = &cobra.Command{
	Use:   "thread <thread-id>",
	Short: "Read every message of a thread",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		wrap, _ := cmd.Flags().GetInt("wrap")

		messages, err := a.emails.GetThreadMessages(ctx, args[0])
		if err != nil {
			return err
		}

		if len(messages) == 0 {
			fmt.Println("No messages in this thread.")
			return nil
		}

		for i, msg := range messages {
			if i > 0 {
				fmt.Println()
				fmt.Println(strings.Repeat("-", 72))
				fmt.Println()
			}
			printResolvedMessage(a, msg, wrap)
		}

		return nil
	}),
}

var mailProfileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show the Gmail account profile",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, _ *cobra.Command, _ []string) error {
		profile, err := a.gmailClient.GetProfile(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Email:    %s\n", profile.EmailAddress)
		fmt.Printf("Messages: %d\n", profile.MessagesTotal)
		fmt.Printf("Threads:  %d\n", profile.ThreadsTotal)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(mailCmd)

	mailCmd.AddCommand(mailListCmd)
	mailCmd.AddCommand(mailSearchCmd)
	mailCmd.AddCommand(mailReadCmd)
	mailCmd.AddCommand(mailThreadCmd)
	mailCmd.AddCommand(mailProfileCmd)

	mailListCmd.Flags().Int64P("max", "n", 25, "Maximum number of messages to list")
	mailListCmd.Flags().String("page", "", "Page token from a previous listing")
	mailListCmd.Flags().Int("width", 100, "Display width of the listing")
	mailListCmd.Flags().Bool("all-labels", false, "Show system labels (Inbox, Sent, ...) as chips")

	mailSearchCmd.Flags().Int64P("max", "n", 25, "Maximum number of results")
	mailSearchCmd.Flags().String("page", "", "Page token from a previous search")
	mailSearchCmd.Flags().Int("width", 100, "Display width of the listing")
	mailSearchCmd.Flags().Bool("all-labels", false, "Show system labels (Inbox, Sent, ...) as chips")

	mailReadCmd.Flags().Bool("html", false, "Print the raw HTML part instead of the text rendering")
	mailReadCmd.Flags().String("save", "", "Write the message to a file instead of printing it")
	mailReadCmd.Flags().Int("wrap", 0, "Wrap the body at this width (0 disables wrapping)")

	mailThreadCmd.Flags().Int("wrap", 0, "Wrap bodies at this width (0 disables wrapping)")
}

// printMessageList renders one line per message, resolving metadata in
// parallel. Messages whose metadata fetch failed are skipped.
func (a *app) printMessageList(ctx context.Context, page *services.MessagePage, width int) error {
	if page == nil || len(page.Messages) == 0 {
		fmt.Println("No messages found.")
		return nil
	}

	a.renderer.SetLabelMap(a.labelMap(ctx))

	ids := make([]string, 0, len(page.Messages))
	for _, msg := range page.Messages {
		ids = append(ids, msg.Id)
	}

	metas, err := a.gmailClient.GetMessagesMetadataParallel(ids, listMetadataWorkers)
	if err != nil {
		return fmt.Errorf("failed to load message metadata: %w", err)
	}

	for _, meta := range metas {
		if meta == nil {
			continue
		}
		fmt.Printf("%s  %s\n", meta.Id, a.renderer.FormatEmailList(meta.Message, width))
	}

	if page.NextPageToken != "" {
		fmt.Printf("\nNext page: --page %s\n", page.NextPageToken)
	}

	return nil
}

// printResolvedMessage prints the plain header block followed by the resolved
// text body.
func printResolvedMessage(a *app, msg *gmail.Message, wrap int) {
	header := a.renderer.FormatHeaderPlain(msg.Subject, msg.From, msg.To, msg.Cc, msg.Date, msg.Labels)

	body := render.SanitizeForTerminal(render.NormalizeNewlines(msg.PlainText))
	if wrap > 0 {
		body = render.WrapTextPreserving(body, wrap)
	}

	fmt.Println(header)
	if line := attachmentSummary(msg); line != "" {
		fmt.Println(line)
	}
	fmt.Println()
	fmt.Println(body)
}

// attachmentSummary builds a one-line overview of a message's attachments.
// Messages served from the body cache carry no payload and yield "".
func attachmentSummary(msg *gmail.Message) string {
	atts, images := render.CollectAttachments(msg.Message)
	if len(atts) == 0 && len(images) == 0 {
		return ""
	}

	parts := make([]string, 0, len(atts)+1)
	for _, att := range atts {
		parts = append(parts, fmt.Sprintf("%s (%s)", att.Filename, formatSize(att.Size)))
	}
	if n := len(images); n > 0 {
		if n == 1 {
			parts = append(parts, "1 inline image")
		} else {
			parts = append(parts, fmt.Sprintf("%d inline images", n))
		}
	}
	return "Attachments: " + strings.Join(parts, ", ")
}
