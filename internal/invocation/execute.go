package invocation

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"safora/internal/capability"
	"safora/internal/logging"
	"safora/internal/services"
)

// execute runs one invocation on the lane's worker goroutine.
func (d *Dispatcher) execute(parent context.Context, channel ChannelID, op *Operation, inv Invocation) Result {
	ctx := context.WithoutCancel(parent)
	ctx = services.WithChannel(ctx, string(channel))
	ctx = services.WithOperation(ctx, inv.Operation)
	ctx = services.WithCorrelationID(ctx, inv.CorrelationID)
	logger := logging.WithContext(ctx, d.logger)
	started := time.Now()

	if op == nil {
		logger.Info("operation not implemented",
			logging.String(logging.FieldEventType, "operation_not_implemented"),
		)
		return NotImplemented()
	}

	args := inv.Args.clone()
	if err := checkArgs(op.Args, args); err != nil {
		err = services.Wrap(services.ErrValidation, string(channel), op.Name, "reject invocation", err)
		logging.WarnWithContext(logger, "invocation arguments rejected", services.EventType(err),
			logging.Error(err),
			logging.Hint(services.ErrorHint(err)),
			logging.Impact("operation not run"),
		)
		return softResult(op, reasonInvalidArgs)
	}

	if op.Capability != "" {
		if state := d.gate.EnsureGranted(ctx, op.Capability); state != capability.Granted {
			return softResult(op, reasonNotGranted)
		}
	}

	value, err := runGuarded(ctx, logger, op, args)
	result := d.mapResult(op, value, err)
	attrs := []logging.Attr{
		logging.String("outcome", result.Outcome.String()),
		logging.Duration("elapsed", time.Since(started)),
	}
	if err != nil {
		attrs = append(attrs,
			logging.Error(err),
			logging.String(logging.FieldEventType, services.EventType(err)),
			logging.Hint(services.ErrorHint(err)),
		)
		logging.WarnWithContext(logger, "operation failed", services.EventType(err), attrs...)
		return result
	}
	attrs = append(attrs, logging.String(logging.FieldEventType, "operation_completed"))
	logger.Info("operation completed", logging.Args(attrs...)...)
	return result
}

func (d *Dispatcher) mapResult(op *Operation, value any, err error) Result {
	if err != nil {
		return softResult(op, err.Error())
	}
	switch op.Result {
	case ResultBool:
		b, ok := value.(bool)
		if !ok {
			return Success(false)
		}
		return Success(b)
	default:
		return Success(nil)
	}
}

// softResult is the caller-visible answer when an operation could not run
// or failed: bool operations report false, null operations report a failure.
func softResult(op *Operation, reason string) Result {
	if op.Result == ResultBool {
		return Success(false)
	}
	return Failure(reason)
}

func runGuarded(ctx context.Context, logger *slog.Logger, op *Operation, args Arguments) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("operation %s panicked: %v", op.Name, r)
			logging.ErrorWithContext(logger, "operation panicked", "operation_panic",
				logging.Any("panic", r),
				logging.String("stack", string(debug.Stack())),
			)
		}
	}()
	return op.Run(ctx, args)
}
