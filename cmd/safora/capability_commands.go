package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"safora/internal/api"
	"safora/internal/ipc"
)

func newCapabilityCommand(ctx *commandContext) *cobra.Command {
	capCmd := &cobra.Command{
		Use:     "capability",
		Aliases: []string{"cap"},
		Short:   "Inspect and answer capability authorizations",
	}

	var listJSON bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List known capabilities",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				caps, err := client.Capabilities()
				if err != nil {
					return err
				}
				if listJSON {
					return writeJSON(cmd, caps)
				}
				stdout := cmd.OutOrStdout()
				if len(caps) == 0 {
					fmt.Fprintln(stdout, "No capabilities recorded")
					return nil
				}
				fmt.Fprint(stdout, renderTable(capabilityColumns, capabilityRows(caps)))
				fmt.Fprintln(stdout)
				return nil
			})
		},
	}
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Emit the capabilities as JSON")

	statusCmd := &cobra.Command{
		Use:   "status <name>",
		Short: "Show one capability without prompting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				c, err := client.Capability(strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				printCapability(cmd, c)
				return nil
			})
		},
	}

	requestsCmd := &cobra.Command{
		Use:   "requests <name>",
		Short: "Show recent authorization requests for a capability",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				reqs, err := client.AuthorizationRequests(strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(reqs) == 0 {
					fmt.Fprintln(stdout, "No authorization requests")
					return nil
				}
				fmt.Fprint(stdout, renderTable([]tableColumn{
					{Header: "ID"},
					{Header: "Requested"},
					{Header: "Resolved", Empty: "-"},
					{Header: "Outcome", Empty: "pending"},
				}, requestRows(reqs)))
				fmt.Fprintln(stdout)
				return nil
			})
		},
	}

	capCmd.AddCommand(listCmd)
	capCmd.AddCommand(statusCmd)
	capCmd.AddCommand(newCapabilityResolveCommand(ctx, "grant", true))
	capCmd.AddCommand(newCapabilityResolveCommand(ctx, "deny", false))
	capCmd.AddCommand(requestsCmd)
	return capCmd
}

func newCapabilityResolveCommand(ctx *commandContext, use string, granted bool) *cobra.Command {
	short := "Grant a capability and resolve its pending requests"
	if !granted {
		short = "Deny a capability and resolve its pending requests"
	}
	return &cobra.Command{
		Use:   use + " <name>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return errors.New("capability name is required")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				c, err := client.ResolveAuthorization(name, granted)
				if err != nil {
					return err
				}
				printCapability(cmd, c)
				return nil
			})
		},
	}
}

func printCapability(cmd *cobra.Command, c *api.Capability) {
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)
	message := c.State
	if c.PendingRequests > 0 {
		message = fmt.Sprintf("%s (%d pending)", c.State, c.PendingRequests)
	}
	fmt.Fprintln(stdout, renderStatusLine(c.Name, capabilityKind(c.State), message, colorize))
}

func requestRows(reqs []api.AuthorizationRequest) [][]string {
	rows := make([][]string, 0, len(reqs))
	for _, r := range reqs {
		rows = append(rows, []string{r.ID, r.RequestedAt, r.ResolvedAt, r.Outcome})
	}
	return rows
}
