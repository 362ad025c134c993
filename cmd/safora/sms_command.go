package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"safora/internal/invocation"
	"safora/internal/ipc"
	"safora/internal/messaging"
)

func newSMSCommand(ctx *commandContext) *cobra.Command {
	smsCmd := &cobra.Command{
		Use:   "sms",
		Short: "Send text messages through the messaging channel",
	}

	sendCmd := &cobra.Command{
		Use:   "send <destination> <body>",
		Short: "Send a message, splitting it into parts when needed",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			destination := strings.TrimSpace(args[0])
			body := strings.Join(args[1:], " ")
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Invoke(ipc.InvokeRequest{
					Channel:   string(messaging.ChannelID),
					Operation: messaging.OperationSend,
					Args: map[string]any{
						messaging.ArgDestination: destination,
						messaging.ArgBody:        body,
					},
				})
				if err != nil {
					return err
				}
				if resp.Outcome != invocation.OutcomeSuccess.String() {
					return printInvokeResponse(cmd.OutOrStdout(), resp)
				}
				if sent, _ := resp.Value.(bool); !sent {
					return errors.New("message not sent; the send capability is not granted (see `safora capability list`)")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Message sent to %s\n", destination)
				return nil
			})
		},
	}

	smsCmd.AddCommand(sendCmd)
	return smsCmd
}
