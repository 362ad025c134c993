package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"safora/internal/ipc"
)

func newNoticesCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "notices",
		Short: "List the notices currently posted by the host",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				list, err := client.Notices()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, list)
				}
				stdout := cmd.OutOrStdout()
				if len(list) == 0 {
					fmt.Fprintln(stdout, "No active notices")
					return nil
				}
				rows := make([][]string, 0, len(list))
				for _, n := range list {
					rows = append(rows, []string{
						strconv.Itoa(n.ID),
						n.ChannelID,
						n.Title,
						n.Priority,
						yesNo(n.Ongoing),
						n.PostedAt,
					})
				}
				fmt.Fprint(stdout, renderTable([]tableColumn{
					{Header: "ID", Align: alignRight},
					{Header: "Channel"},
					{Header: "Title"},
					{Header: "Priority"},
					{Header: "Ongoing"},
					{Header: "Posted", Empty: "-"},
				}, rows))
				fmt.Fprintln(stdout)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the notices as JSON")
	return cmd
}
