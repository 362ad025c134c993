package messaging

import (
	"context"

	"safora/internal/invocation"
)

const (
	ChannelID      invocation.ChannelID = "messaging"
	OperationSend                       = "sendMultipartMessage"
	ArgDestination                      = "destination"
	ArgBody                             = "body"

	// DefaultCapability guards OperationSend unless configured otherwise.
	DefaultCapability = "send_sms"
)

// Channel returns the messaging channel table backed by sender.
func Channel(sender *Sender, capabilityID string) invocation.ChannelSpec {
	if capabilityID == "" {
		capabilityID = DefaultCapability
	}
	return invocation.ChannelSpec{
		ID: ChannelID,
		Operations: []invocation.Operation{{
			Name: OperationSend,
			Args: []invocation.ArgSpec{
				{Name: ArgDestination, Kind: invocation.KindString, Required: true},
				{Name: ArgBody, Kind: invocation.KindString, Required: true},
			},
			Result:     invocation.ResultBool,
			Capability: capabilityID,
			Run: func(ctx context.Context, args invocation.Arguments) (any, error) {
				return sender.SendMultipartMessage(ctx, args.String(ArgDestination), args.String(ArgBody))
			},
		}},
	}
}
