package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var mailLabelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "List labels",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, a *app, _ *cobra.Command, _ []string) error {
		labels, err := a.labels.ListLabels(ctx)
		if err != nil {
			return err
		}

		sort.Slice(labels, func(i, j int) bool {
			if labels[i].Type != labels[j].Type {
				return labels[i].Type == "system"
			}
			return labels[i].Name < labels[j].Name
		})

		for _, label := range labels {
			if label.Type == "system" {
				fmt.Printf("%-24s %s (system)\n", label.Id, label.Name)
			} else {
				fmt.Printf("%-24s %s\n", label.Id, label.Name)
			}
		}

		return nil
	}),
}

var mailLabelsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a label",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, _ *cobra.Command, args []string) error {
		label, err := a.labels.CreateLabel(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Created label %s (%s)\n", label.Name, label.Id)
		return nil
	}),
}

var mailLabelsRenameCmd = &cobra.Command{
	Use:   "rename <label> <new-name>",
	Short: "Rename a label",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(ctx context.Context, a *app, _ *cobra.Command, args []string) error {
		labelID, err := a.resolveLabel(ctx, args[0])
		if err != nil {
			return err
		}

		label, err := a.labels.RenameLabel(ctx, labelID, args[1])
		if err != nil {
			return err
		}

		fmt.Printf("Renamed label to %s\n", label.Name)
		return nil
	}),
}

var mailLabelsDeleteCmd = &cobra.Command{
	Use:   "delete <label>",
	Short: "Delete a label",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, _ *cobra.Command, args []string) error {
		labelID, err := a.resolveLabel(ctx, args[0])
		if err != nil {
			return err
		}

		if err := a.labels.DeleteLabel(ctx, labelID); err != nil {
			return err
		}

		fmt.Printf("Deleted label %s\n", args[0])
		return nil
	}),
}

var mailLabelCmd = &cobra.Command{
	Use:   "label",
	Short: "Apply or remove a label on messages",
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

var mailLabelAddCmd = &cobra.Command{
	Use:   "add <label> <message-id> [message-id...]",
	Short: "Apply a label to messages",
	Args:  cobra.MinimumNArgs(2),
	RunE: withApp(func(ctx context.Context, a *app, _ *cobra.Command, args []string) error {
		labelID, err := a.resolveLabel(ctx, args[0])
		if err != nil {
			return err
		}

		messageIDs := args[1:]
		if len(messageIDs) == 1 {
			if err := a.labels.ApplyLabel(ctx, messageIDs[0], labelID); err != nil {
				return err
			}
		} else if err := a.labels.BulkApplyLabel(ctx, messageIDs, labelID); err != nil {
			return err
		}

		fmt.Printf("Applied %s to %d message(s)\n", args[0], len(messageIDs))
		return nil
	}),
}

var mailLabelRmCmd = &cobra.Command{
	Use:   "rm <label> <message-id> [message-id...]",
	Short: "Remove a label from messages",
	Args:  cobra.MinimumNArgs(2),
	RunE: withApp(func(ctx context.Context, a *app, _ *cobra.Command, args []string) error {
		labelID, err := a.resolveLabel(ctx, args[0])
		if err != nil {
			return err
		}

		messageIDs := args[1:]
		if len(messageIDs) == 1 {
			if err := a.labels.RemoveLabel(ctx, messageIDs[0], labelID); err != nil {
				return err
			}
		} else if err := a.labels.BulkRemoveLabel(ctx, messageIDs, labelID); err != nil {
			return err
		}

		fmt.Printf("Removed %s from %d message(s)\n", args[0], len(messageIDs))
		return nil
	}),
}

var mailMarkCmd = &cobra.Command{
	Use:   "mark",
	Short: "Mark messages read or unread",
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

var mailMarkReadCmd = &cobra.Command{
	Use:   "read <message-id> [message-id...]",
	Short: "Mark messages as read",
	Args:  cobra.MinimumNArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, _ *cobra.Command, args []string) error {
		if len(args) == 1 {
			if err := a.emails.MarkAsRead(ctx, args[0]); err != nil {
				return err
			}
		} else if err := a.emails.BulkMarkAsRead(ctx, args); err != nil {
			return err
		}

		fmt.Printf("Marked %d message(s) as read\n", len(args))
		return nil
	}),
}

var mailMarkUnreadCmd = &cobra.Command{
	Use:   "unread <message-id> [message-id...]",
	Short: "Mark messages as unread",
	Args:  cobra.MinimumNArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, _ *cobra.Command, args []string) error {
		if len(args) == 1 {
			if err := a.emails.MarkAsUnread(ctx, args[0]); err != nil {
				return err
			}
		} else if err := a.emails.BulkMarkAsUnread(ctx, args); err != nil {
			return err
		}

		fmt.Printf("Marked %d message(s) as unread\n", len(args))
		return nil
	}),
}

var mailArchiveCmd = &cobra.Command{
	Use:   "archive <message-id> [message-id...]",
	Short: "Archive messages",
	Args:  cobra.MinimumNArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, _ *cobra.Command, args []string) error {
		if len(args) == 1 {
			if err := a.emails.ArchiveMessage(ctx, args[0]); err != nil {
				return err
			}
		} else if err := a.emails.BulkArchive(ctx, args); err != nil {
			return err
		}

		fmt.Printf("Archived %d message(s)\n", len(args))
		return nil
	}),
}

var mailTrashCmd = &cobra.Command{
	Use:   "trash <message-id> [message-id...]",
	Short: "Move messages to the trash",
	Args:  cobra.MinimumNArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, _ *cobra.Command, args []string) error {
		if len(args) == 1 {
			if err := a.emails.TrashMessage(ctx, args[0]); err != nil {
				return err
			}
		} else if err := a.emails.BulkTrash(ctx, args); err != nil {
			return err
		}

		fmt.Printf("Trashed %d message(s)\n", len(args))
		return nil
	}),
}

func init() {
	mailCmd.AddCommand(mailLabelsCmd)
	mailCmd.AddCommand(mailLabelCmd)
	mailCmd.AddCommand(mailMarkCmd)
	mailCmd.AddCommand(mailArchiveCmd)
	mailCmd.AddCommand(mailTrashCmd)

	mailLabelsCmd.AddCommand(mailLabelsCreateCmd)
	mailLabelsCmd.AddCommand(mailLabelsRenameCmd)
	mailLabelsCmd.AddCommand(mailLabelsDeleteCmd)

	mailLabelCmd.AddCommand(mailLabelAddCmd)
	mailLabelCmd.AddCommand(mailLabelRmCmd)

	mailMarkCmd.AddCommand(mailMarkReadCmd)
	mailMarkCmd.AddCommand(mailMarkUnreadCmd)
}
