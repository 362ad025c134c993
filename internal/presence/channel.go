package presence

import (
	"context"

	"safora/internal/invocation"
)

const (
	ChannelID      invocation.ChannelID = "system-presence"
	OperationStart                      = "startPresence"
	OperationStop                       = "stopPresence"
)

// Channel returns the system-presence channel table. Both operations hand
// the transition to m's Run loop and answer before it is applied.
func Channel(m *Manager) invocation.ChannelSpec {
	return invocation.ChannelSpec{
		ID: ChannelID,
		Operations: []invocation.Operation{
			{
				Name:   OperationStart,
				Result: invocation.ResultNull,
				Run: func(context.Context, invocation.Arguments) (any, error) {
					m.RequestStart()
					return nil, nil
				},
			},
			{
				Name:   OperationStop,
				Result: invocation.ResultNull,
				Run: func(context.Context, invocation.Arguments) (any, error) {
					m.RequestStop()
					return nil, nil
				},
			},
		},
	}
}
