package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var mailAttachmentsCmd = &cobra.Command{
	Use:   "attachments <message-id>",
	Short: "List or save message attachments",
	Long: `List the attachments of a message.

With --save every attachment is downloaded; --output picks the target
directory (default: the configured download path, or the current
directory). --open downloads as well and hands each file to the system
default application.`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		messageID := args[0]
		save, _ := cmd.Flags().GetBool("save")
		open, _ := cmd.Flags().GetBool("open")
		outputDir, _ := cmd.Flags().GetString("output")

		attachments, err := a.attachments.GetMessageAttachments(ctx, messageID)
		if err != nil {
			return err
		}

		if len(attachments) == 0 {
			fmt.Println("No attachments found in this message.")
			return nil
		}

		for _, att := range attachments {
			inline := ""
			if att.Inline {
				inline = ", inline"
			}
			fmt.Printf("[%d] %s (%s, %s%s) %s\n", att.Index, att.Filename, att.MimeType, formatSize(att.Size), inline, att.Type)
		}

		if !save && !open {
			return nil
		}

		if outputDir == "" {
			outputDir = a.attachments.GetDefaultDownloadPath()
		}

		fmt.Println()
		for _, att := range attachments {
			if att.AttachmentID == "" {
				fmt.Printf("Skipping %s: no downloadable content\n", att.Filename)
				continue
			}

			savePath := filepath.Join(outputDir, att.Filename)
			written, err := a.attachments.DownloadAttachmentWithFilename(ctx, messageID, att.AttachmentID, savePath, att.Filename)
			if err != nil {
				return fmt.Errorf("failed to save %s: %w", att.Filename, err)
			}
			fmt.Printf("Saved %s\n", written)

			if open {
				if err := a.attachments.OpenAttachment(ctx, written); err != nil {
					fmt.Printf("Could not open %s: %v\n", written, err)
				}
			}
		}

		return nil
	}),
}

func init() {
	mailCmd.AddCommand(mailAttachmentsCmd)

	mailAttachmentsCmd.Flags().Bool("save", false, "Download every attachment")
	mailAttachmentsCmd.Flags().Bool("open", false, "Download and open each attachment with the system handler")
	mailAttachmentsCmd.Flags().StringP("output", "o", "", "Directory to save attachments into")
}

// formatSize renders a byte count in a compact human readable form
func formatSize(size int64) string {
	if size < 1024 {
		return fmt.Sprintf("%d B", size)
	}

	value := float64(size)
	suffix := "B"
	for _, larger := range []string{"KB", "MB", "GB", "TB", "PB", "EB"} {
		value /= 1024
		suffix = larger
		if value < 1024 {
			break
		}
	}
	return fmt.Sprintf("%.1f %s", value, suffix)
}
