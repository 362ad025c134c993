package messaging

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"safora/internal/config"
	"safora/internal/services"
)

const userAgent = "safora/0.1.0"

// Transmitter hands a divided message to the carrier side.
type Transmitter interface {
	SendMultipart(ctx context.Context, destination string, parts []string) error
}

// NewTransmitter returns the gateway transmitter when a gateway is
// configured and an always-failing transmitter otherwise.
func NewTransmitter(cfg *config.Config) Transmitter {
	if cfg == nil || strings.TrimSpace(cfg.Messaging.GatewayURL) == "" {
		return unavailableTransmitter{}
	}
	return NewGatewayTransmitter(cfg.Messaging.GatewayURL, cfg.Messaging.GatewayToken, cfg.Messaging.SenderID, resty.New().SetTimeout(cfg.GatewayTimeout()))
}

// GatewayTransmitter posts messages to an HTTP SMS gateway.
type GatewayTransmitter struct {
	endpoint string
	token    string
	sender   string
	client   *resty.Client
}

// NewGatewayTransmitter builds a transmitter for endpoint. A nil client gets
// resty defaults.
func NewGatewayTransmitter(endpoint, token, sender string, client *resty.Client) *GatewayTransmitter {
	if client == nil {
		client = resty.New()
	}
	client.SetHeader("User-Agent", userAgent)
	return &GatewayTransmitter{
		endpoint: strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		token:    strings.TrimSpace(token),
		sender:   strings.TrimSpace(sender),
		client:   client,
	}
}

type gatewayRequest struct {
	To        string   `json:"to"`
	From      string   `json:"from,omitempty"`
	Parts     []string `json:"parts"`
	Reference string   `json:"reference"`
}

// SendMultipart posts all parts in one request. Any non-2xx answer is a
// failure.
func (g *GatewayTransmitter) SendMultipart(ctx context.Context, destination string, parts []string) error {
	req := g.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(gatewayRequest{
			To:        destination,
			From:      g.sender,
			Parts:     parts,
			Reference: uuid.NewString(),
		})
	if g.token != "" {
		req.SetAuthToken(g.token)
	}

	resp, err := req.Post(g.endpoint)
	if err != nil {
		return services.Wrap(services.ErrTransmission, string(ChannelID), OperationSend, "post to gateway", err)
	}
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		body := strings.TrimSpace(string(resp.Body()))
		if len(body) > 512 {
			body = body[:512]
		}
		msg := fmt.Sprintf("gateway returned %d", resp.StatusCode())
		if body != "" {
			msg += ": " + body
		}
		return services.Wrap(services.ErrTransmission, string(ChannelID), OperationSend, msg, nil)
	}
	return nil
}

type unavailableTransmitter struct{}

func (unavailableTransmitter) SendMultipart(context.Context, string, []string) error {
	return services.Wrap(services.ErrUnavailable, string(ChannelID), OperationSend, "no sms gateway configured", nil)
}
