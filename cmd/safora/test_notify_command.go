package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"safora/internal/ipc"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Publish a test event to the configured ntfy topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TestNotification()
				if err != nil {
					return fmt.Errorf("test notification: %w", err)
				}
				message := resp.Message
				switch {
				case message != "":
				case resp.Sent:
					message = "Test notification sent"
				default:
					message = "Notification not sent"
				}
				fmt.Fprintln(cmd.OutOrStdout(), message)
				return nil
			})
		},
	}
}
