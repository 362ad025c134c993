package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"safora/internal/invocation"
	"safora/internal/ipc"
	"safora/internal/presence"
)

func newPresenceCommand(ctx *commandContext) *cobra.Command {
	presenceCmd := &cobra.Command{
		Use:   "presence",
		Short: "Control the background presence notice",
	}

	presenceCmd.AddCommand(newPresenceRequestCommand(ctx, "start", presence.OperationStart, "Request background presence"))
	presenceCmd.AddCommand(newPresenceRequestCommand(ctx, "stop", presence.OperationStop, "Release background presence"))

	var asJSON bool
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the presence lifecycle state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				p, err := client.Presence()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, p)
				}
				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)
				fmt.Fprintln(stdout, renderStatusLine("Presence", presenceKind(p.State), presenceMessage(*p), colorize))
				if p.UpdatedAt != "" {
					fmt.Fprintln(stdout, renderStatusLine("Updated", statusInfo, p.UpdatedAt, colorize))
				}
				return nil
			})
		},
	}
	statusCmd.Flags().BoolVar(&asJSON, "json", false, "Emit the presence record as JSON")
	presenceCmd.AddCommand(statusCmd)

	return presenceCmd
}

func newPresenceRequestCommand(ctx *commandContext, use, operation, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Invoke(ipc.InvokeRequest{
					Channel:   string(presence.ChannelID),
					Operation: operation,
				})
				if err != nil {
					return err
				}
				if resp.Outcome != invocation.OutcomeSuccess.String() {
					return printInvokeResponse(cmd.OutOrStdout(), resp)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Presence %s requested\n", use)
				return nil
			})
		},
	}
}
