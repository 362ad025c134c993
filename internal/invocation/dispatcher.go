package invocation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"safora/internal/capability"
	"safora/internal/logging"
)

const defaultLaneBuffer = 32

// Gate is the capability check consulted before guarded operations.
type Gate interface {
	EnsureGranted(ctx context.Context, capability string) capability.State
}

// Dispatcher owns the channel table and one lane per bound channel.
type Dispatcher struct {
	mu         sync.RWMutex
	lanes      map[ChannelID]*lane
	retired    map[*lane]struct{}
	gate       Gate
	logger     *slog.Logger
	laneBuffer int
	closed     bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLaneBuffer sets how many invocations may queue per channel before
// Dispatch blocks.
func WithLaneBuffer(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.laneBuffer = n
		}
	}
}

// NewDispatcher builds a dispatcher and binds the provided specs. Any invalid
// spec aborts construction.
func NewDispatcher(gate Gate, logger *slog.Logger, specs []ChannelSpec, opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{
		lanes:      make(map[ChannelID]*lane),
		retired:    make(map[*lane]struct{}),
		gate:       gate,
		logger:     logging.NewComponentLogger(logger, "dispatcher"),
		laneBuffer: defaultLaneBuffer,
	}
	for _, opt := range opts {
		opt(d)
	}
	for _, spec := range specs {
		if err := d.Bind(spec); err != nil {
			d.Close()
			return nil, err
		}
	}
	return d, nil
}

// Bind attaches spec to its channel, replacing any existing binding.
// Invocations already accepted by a replaced binding still complete.
func (d *Dispatcher) Bind(spec ChannelSpec) error {
	needsGate, err := Validate(spec)
	if err != nil {
		return err
	}
	if needsGate && d.gate == nil {
		return fmt.Errorf("%w: channel %s requires a capability gate", ErrInvalidSpec, spec.ID)
	}

	next := newLane(spec, d.laneBuffer, d.execute)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		next.close()
		return errors.New("dispatcher closed")
	}
	prev := d.lanes[spec.ID]
	d.lanes[spec.ID] = next
	d.retireLocked(prev)
	d.mu.Unlock()

	d.logger.Info("channel bound",
		logging.String(logging.FieldChannel, string(spec.ID)),
		logging.Int("operations", len(spec.Operations)),
		logging.Bool("replaced", prev != nil),
		logging.String(logging.FieldEventType, "channel_bound"),
	)
	return nil
}

// Unbind detaches the channel. It reports whether a binding existed.
func (d *Dispatcher) Unbind(id ChannelID) bool {
	d.mu.Lock()
	prev := d.lanes[id]
	delete(d.lanes, id)
	d.retireLocked(prev)
	d.mu.Unlock()

	if prev == nil {
		return false
	}
	d.logger.Info("channel unbound",
		logging.String(logging.FieldChannel, string(id)),
		logging.String(logging.FieldEventType, "channel_unbound"),
	)
	return true
}

// retireLocked closes l and tracks it until its queued invocations finish,
// so Close can wait for them. d.mu must be held.
func (d *Dispatcher) retireLocked(l *lane) {
	if l == nil {
		return
	}
	l.close()
	d.retired[l] = struct{}{}
	go func() {
		l.wait()
		d.mu.Lock()
		delete(d.retired, l)
		d.mu.Unlock()
	}()
}

// Bound lists the currently bound channels in name order.
func (d *Dispatcher) Bound() []ChannelID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]ChannelID, 0, len(d.lanes))
	for id := range d.lanes {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Dispatch runs inv on channel and returns its single result. The call blocks
// until the operation finishes; caller cancellation does not interrupt an
// accepted invocation.
func (d *Dispatcher) Dispatch(ctx context.Context, channel ChannelID, inv Invocation) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	// A lookup can race with Bind replacing the lane; retry against the
	// current table before giving up.
	for attempt := 0; attempt < 2; attempt++ {
		d.mu.RLock()
		l := d.lanes[channel]
		closed := d.closed
		d.mu.RUnlock()

		if closed {
			return Failure(reasonDispatcherClose)
		}
		if l == nil {
			break
		}
		if reply, ok := l.submit(ctx, inv); ok {
			return <-reply
		}
	}

	logging.WarnWithContext(logging.WithContext(ctx, d.logger), "invocation on unbound channel", "channel_not_bound",
		logging.String(logging.FieldChannel, string(channel)),
		logging.String(logging.FieldOperation, inv.Operation),
		logging.String(logging.FieldCorrelationID, inv.CorrelationID),
		logging.Hint("check the channel name"),
		logging.Impact("invocation rejected"),
	)
	return Failure(reasonNotBound)
}

// Close unbinds every channel and waits for queued invocations to finish,
// including those accepted by bindings already replaced or unbound.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	lanes := make([]*lane, 0, len(d.lanes)+len(d.retired))
	for _, l := range d.lanes {
		l.close()
		lanes = append(lanes, l)
	}
	for l := range d.retired {
		lanes = append(lanes, l)
	}
	d.lanes = make(map[ChannelID]*lane)
	d.mu.Unlock()

	for _, l := range lanes {
		l.wait()
	}
}
