package messaging

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"safora/internal/logging"
	"safora/internal/services"
)

// Sender validates, divides, and transmits messages.
type Sender struct {
	tx     Transmitter
	logger *slog.Logger
}

// NewSender wraps tx.
func NewSender(tx Transmitter, logger *slog.Logger) *Sender {
	if tx == nil {
		tx = unavailableTransmitter{}
	}
	return &Sender{tx: tx, logger: logging.NewComponentLogger(logger, "messaging")}
}

// SendMultipartMessage reports true once the transmitter accepted every
// part. Blank input and transmission failures report false with a tagged
// error.
func (s *Sender) SendMultipartMessage(ctx context.Context, destination, body string) (bool, error) {
	destination = strings.TrimSpace(destination)
	if destination == "" || strings.TrimSpace(body) == "" {
		return false, services.Wrap(services.ErrValidation, string(ChannelID), OperationSend, "destination and body are required", nil)
	}

	parts := Divide(body)
	if err := s.tx.SendMultipart(ctx, destination, parts); err != nil {
		if !errors.Is(err, services.ErrUnavailable) && !errors.Is(err, services.ErrTransmission) {
			err = services.Wrap(services.ErrTransmission, string(ChannelID), OperationSend, "transmit", err)
		}
		return false, err
	}

	logging.WithContext(ctx, s.logger).Info("message handed to transmitter",
		logging.Int("parts", len(parts)),
		logging.String("encoding", DetectEncoding(body).String()),
		logging.String(logging.FieldEventType, "message_sent"),
	)
	return true, nil
}
