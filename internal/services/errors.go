package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrUnauthorized  = errors.New("capability not granted")
	ErrTransmission  = errors.New("transmission failure")
	ErrUnavailable   = errors.New("missing system service")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
)

// Wrap builds an error message that includes channel and operation context
// while tagging it with the provided marker for later classification. The
// marker should be one of the exported sentinel errors above.
func Wrap(marker error, channel, operation, message string, err error) error {
	detail := buildDetail(channel, operation, message)
	if marker == nil {
		marker = ErrTransmission
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// EventType maps an operation error to the event_type recorded in logs.
func EventType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "invalid_arguments"
	case errors.Is(err, ErrUnauthorized):
		return "capability_denied"
	case errors.Is(err, ErrUnavailable):
		return "service_unavailable"
	case errors.Is(err, ErrConfiguration):
		return "configuration_error"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "transmission_failed"
	}
}

// ErrorHint returns the operator-facing next step for an operation error.
func ErrorHint(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "check invocation arguments"
	case errors.Is(err, ErrUnauthorized):
		return "grant the capability with 'safora capability grant'"
	case errors.Is(err, ErrUnavailable):
		return "configure messaging.gateway_url"
	case errors.Is(err, ErrConfiguration):
		return "review the config file"
	default:
		return "check gateway connectivity and retry"
	}
}

func buildDetail(channel, operation, message string) string {
	parts := make([]string, 0, 3)
	if channel = strings.TrimSpace(channel); channel != "" {
		parts = append(parts, channel)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "operation failure"
	}
	return strings.Join(parts, ": ")
}
