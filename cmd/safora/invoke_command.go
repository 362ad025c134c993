package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"safora/internal/api"
	"safora/internal/invocation"
	"safora/internal/ipc"
)

func newInvokeCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var correlationID string

	cmd := &cobra.Command{
		Use:   "invoke <channel> <operation> [key=value | key:=json ...]",
		Short: "Invoke a channel operation through the daemon",
		Long: "Invoke a channel operation through the daemon.\n\n" +
			"Arguments are given as key=value pairs, which always produce strings,\n" +
			"or key:=json pairs for booleans, numbers, and null.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := api.ParseArgs(args[2:])
			if err != nil {
				return err
			}
			req := ipc.InvokeRequest{
				Channel:       args[0],
				Operation:     args[1],
				Args:          parsed,
				CorrelationID: strings.TrimSpace(correlationID),
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Invoke(req)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}
				return printInvokeResponse(cmd.OutOrStdout(), resp)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the raw result as JSON")
	cmd.Flags().StringVar(&correlationID, "correlation-id", "", "Correlation id to attach to the invocation")
	return cmd
}

// printInvokeResponse renders a result and turns failures into command errors
// so scripts can rely on the exit status.
func printInvokeResponse(out io.Writer, resp *ipc.InvokeResponse) error {
	switch resp.Outcome {
	case invocation.OutcomeSuccess.String():
		fmt.Fprintf(out, "%s (correlation %s)\n", formatValue(resp.Value), resp.CorrelationID)
		return nil
	case invocation.OutcomeNotImplemented.String():
		return fmt.Errorf("operation not implemented (correlation %s)", resp.CorrelationID)
	default:
		reason := strings.TrimSpace(resp.Reason)
		if reason == "" {
			reason = "unknown failure"
		}
		return fmt.Errorf("invocation failed: %s (correlation %s)", reason, resp.CorrelationID)
	}
}

func formatValue(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprint(v)
}
