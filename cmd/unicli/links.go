package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var mailLinksCmd = &cobra.Command{
	Use:   "links <message-id>",
	Short: "List the links found in a message",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(ctx context.Context, a *app, _ *cobra.Command, args []string) error {
		links, err := a.links.GetMessageLinks(ctx, args[0])
		if err != nil {
			return err
		}

		if len(links) == 0 {
			fmt.Println("No links found in this message.")
			return nil
		}

		for _, link := range links {
			if link.Text != "" && link.Text != link.URL {
				fmt.Printf("[%d] %s %q (%s)\n", link.Index, link.URL, link.Text, link.Type)
			} else {
				fmt.Printf("[%d] %s (%s)\n", link.Index, link.URL, link.Type)
			}
		}

		return nil
	}),
}

func init() {
	mailCmd.AddCommand(mailLinksCmd)
}
