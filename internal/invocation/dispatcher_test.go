package invocation_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"safora/internal/capability"
	"safora/internal/invocation"
	"safora/internal/logging"
)

type stubGate struct {
	mu    sync.Mutex
	state capability.State
	calls []string
}

func (g *stubGate) EnsureGranted(_ context.Context, name string) capability.State {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, name)
	return g.state
}

func (g *stubGate) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func newDispatcher(t *testing.T, gate invocation.Gate, specs ...invocation.ChannelSpec) *invocation.Dispatcher {
	t.Helper()
	d, err := invocation.NewDispatcher(gate, logging.NewNop(), specs)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}
	t.Cleanup(d.Close)
	return d
}

func boolOp(name string, run invocation.RunFunc, args ...invocation.ArgSpec) invocation.Operation {
	return invocation.Operation{Name: name, Args: args, Result: invocation.ResultBool, Run: run}
}

func nullOp(name string, run invocation.RunFunc) invocation.Operation {
	return invocation.Operation{Name: name, Result: invocation.ResultNull, Run: run}
}

func returns(v any, err error) invocation.RunFunc {
	return func(context.Context, invocation.Arguments) (any, error) { return v, err }
}

func TestNewDispatcherRejectsInvalidSpecs(t *testing.T) {
	ok := returns(true, nil)
	tests := []struct {
		name string
		gate invocation.Gate
		spec invocation.ChannelSpec
	}{
		{name: "empty id", spec: invocation.ChannelSpec{Operations: []invocation.Operation{boolOp("a", ok)}}},
		{name: "no operations", spec: invocation.ChannelSpec{ID: "c"}},
		{name: "duplicate operation", spec: invocation.ChannelSpec{ID: "c", Operations: []invocation.Operation{boolOp("a", ok), boolOp("a", ok)}}},
		{name: "blank operation name", spec: invocation.ChannelSpec{ID: "c", Operations: []invocation.Operation{boolOp(" ", ok)}}},
		{name: "missing run", spec: invocation.ChannelSpec{ID: "c", Operations: []invocation.Operation{{Name: "a", Result: invocation.ResultBool}}}},
		{name: "missing result kind", spec: invocation.ChannelSpec{ID: "c", Operations: []invocation.Operation{{Name: "a", Run: ok}}}},
		{name: "unnamed argument", spec: invocation.ChannelSpec{ID: "c", Operations: []invocation.Operation{boolOp("a", ok, invocation.ArgSpec{Kind: invocation.KindString})}}},
		{name: "argument without kind", spec: invocation.ChannelSpec{ID: "c", Operations: []invocation.Operation{boolOp("a", ok, invocation.ArgSpec{Name: "x"})}}},
		{name: "capability without gate", spec: invocation.ChannelSpec{ID: "c", Operations: []invocation.Operation{{Name: "a", Result: invocation.ResultBool, Capability: "send_sms", Run: ok}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := invocation.NewDispatcher(tt.gate, logging.NewNop(), []invocation.ChannelSpec{tt.spec})
			if !errors.Is(err, invocation.ErrInvalidSpec) {
				t.Fatalf("expected ErrInvalidSpec, got %v", err)
			}
		})
	}
}

func TestDispatchOutcomes(t *testing.T) {
	spec := invocation.ChannelSpec{
		ID: "test",
		Operations: []invocation.Operation{
			boolOp("yes", returns(true, nil)),
			boolOp("no", returns(false, nil)),
			boolOp("broken", returns(nil, errors.New("gateway down"))),
			boolOp("wrongType", returns("true", nil)),
			boolOp("panics", func(context.Context, invocation.Arguments) (any, error) { panic("boom") }),
			nullOp("stop", returns(nil, nil)),
			nullOp("stopBroken", returns(nil, errors.New("notice board unavailable"))),
			nullOp("stopPanics", func(context.Context, invocation.Arguments) (any, error) { panic("boom") }),
		},
	}
	d := newDispatcher(t, nil, spec)

	tests := []struct {
		op          string
		wantOutcome invocation.Outcome
		wantValue   any
		wantReason  string
	}{
		{op: "yes", wantOutcome: invocation.OutcomeSuccess, wantValue: true},
		{op: "no", wantOutcome: invocation.OutcomeSuccess, wantValue: false},
		{op: "broken", wantOutcome: invocation.OutcomeSuccess, wantValue: false},
		{op: "wrongType", wantOutcome: invocation.OutcomeSuccess, wantValue: false},
		{op: "panics", wantOutcome: invocation.OutcomeSuccess, wantValue: false},
		{op: "stop", wantOutcome: invocation.OutcomeSuccess, wantValue: nil},
		{op: "stopBroken", wantOutcome: invocation.OutcomeFailure, wantReason: "notice board unavailable"},
		{op: "stopPanics", wantOutcome: invocation.OutcomeFailure, wantReason: "panicked"},
		{op: "unknownOperation", wantOutcome: invocation.OutcomeNotImplemented},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			res := d.Dispatch(context.Background(), "test", invocation.NewInvocation(tt.op, nil))
			if res.Outcome != tt.wantOutcome {
				t.Fatalf("outcome = %s, want %s (reason %q)", res.Outcome, tt.wantOutcome, res.Reason)
			}
			if res.Value != tt.wantValue {
				t.Fatalf("value = %#v, want %#v", res.Value, tt.wantValue)
			}
			if !strings.Contains(res.Reason, tt.wantReason) {
				t.Fatalf("reason = %q, want substring %q", res.Reason, tt.wantReason)
			}
		})
	}
}

func TestDispatchUnboundChannel(t *testing.T) {
	d := newDispatcher(t, nil)
	res := d.Dispatch(context.Background(), "nowhere", invocation.NewInvocation("anything", nil))
	if res.Outcome != invocation.OutcomeFailure || res.Reason != "channel not bound" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestDispatchValidatesArguments(t *testing.T) {
	var runs atomic.Int32
	run := func(_ context.Context, args invocation.Arguments) (any, error) {
		runs.Add(1)
		return args.String("destination") != "", nil
	}
	spec := invocation.ChannelSpec{
		ID: "test",
		Operations: []invocation.Operation{
			boolOp("send", run,
				invocation.ArgSpec{Name: "destination", Kind: invocation.KindString, Required: true},
				invocation.ArgSpec{Name: "body", Kind: invocation.KindString, Required: true, AllowBlank: true},
				invocation.ArgSpec{Name: "retries", Kind: invocation.KindNumber},
			),
		},
	}
	d := newDispatcher(t, nil, spec)

	tests := []struct {
		name    string
		args    map[string]any
		want    bool
		wantRun bool
	}{
		{name: "valid", args: map[string]any{"destination": "+15550100", "body": "hi"}, want: true, wantRun: true},
		{name: "blank body allowed", args: map[string]any{"destination": "+15550100", "body": ""}, want: true, wantRun: true},
		{name: "optional number", args: map[string]any{"destination": "+15550100", "body": "hi", "retries": 2}, want: true, wantRun: true},
		{name: "missing destination", args: map[string]any{"body": "hi"}},
		{name: "nil destination", args: map[string]any{"destination": nil, "body": "hi"}},
		{name: "blank destination", args: map[string]any{"destination": "   ", "body": "hi"}},
		{name: "wrong type", args: map[string]any{"destination": 5550100, "body": "hi"}},
		{name: "optional wrong type", args: map[string]any{"destination": "+15550100", "body": "hi", "retries": "two"}},
		{name: "array for declared string", args: map[string]any{"destination": []any{"+15550100"}, "body": "hi"}},
		{name: "undeclared array", args: map[string]any{"destination": "+15550100", "body": "hi", "extra": []any{1, 2}}},
		{name: "undeclared object", args: map[string]any{"destination": "+15550100", "body": "hi", "extra": map[string]any{"k": "v"}}},
		{name: "undeclared primitive ignored", args: map[string]any{"destination": "+15550100", "body": "hi", "extra": true}, want: true, wantRun: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := runs.Load()
			res := d.Dispatch(context.Background(), "test", invocation.NewInvocation("send", tt.args))
			if res.Outcome != invocation.OutcomeSuccess || res.Value != tt.want {
				t.Fatalf("unexpected result %+v", res)
			}
			if ran := runs.Load() != before; ran != tt.wantRun {
				t.Fatalf("operation ran = %v, want %v", ran, tt.wantRun)
			}
		})
	}
}

func TestDispatchNullOperationRejectsBadArguments(t *testing.T) {
	spec := invocation.ChannelSpec{
		ID: "test",
		Operations: []invocation.Operation{{
			Name:   "configure",
			Args:   []invocation.ArgSpec{{Name: "enabled", Kind: invocation.KindBool, Required: true}},
			Result: invocation.ResultNull,
			Run:    returns(nil, nil),
		}},
	}
	d := newDispatcher(t, nil, spec)
	for _, args := range []map[string]any{
		{"enabled": "yes"},
		{"enabled": true, "labels": []any{"a"}},
	} {
		res := d.Dispatch(context.Background(), "test", invocation.NewInvocation("configure", args))
		if res.Outcome != invocation.OutcomeFailure || res.Reason != "invalid arguments" {
			t.Fatalf("args %v: unexpected result %+v", args, res)
		}
	}
}

func TestDispatchConsultsGate(t *testing.T) {
	tests := []struct {
		name    string
		state   capability.State
		want    bool
		wantRun bool
	}{
		{name: "granted", state: capability.Granted, want: true, wantRun: true},
		{name: "denied", state: capability.Denied, want: false},
		{name: "unknown", state: capability.Unknown, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ran atomic.Bool
			gate := &stubGate{state: tt.state}
			spec := invocation.ChannelSpec{
				ID: "messaging",
				Operations: []invocation.Operation{
					{
						Name:       "send",
						Result:     invocation.ResultBool,
						Capability: "send_sms",
						Run: func(context.Context, invocation.Arguments) (any, error) {
							ran.Store(true)
							return true, nil
						},
					},
					boolOp("ping", returns(true, nil)),
				},
			}
			d := newDispatcher(t, gate, spec)

			res := d.Dispatch(context.Background(), "messaging", invocation.NewInvocation("send", nil))
			if res.Outcome != invocation.OutcomeSuccess || res.Value != tt.want {
				t.Fatalf("unexpected result %+v", res)
			}
			if ran.Load() != tt.wantRun {
				t.Fatalf("operation ran = %v, want %v", ran.Load(), tt.wantRun)
			}
			if gate.callCount() != 1 {
				t.Fatalf("expected one gate call, got %d", gate.callCount())
			}

			d.Dispatch(context.Background(), "messaging", invocation.NewInvocation("ping", nil))
			if gate.callCount() != 1 {
				t.Fatalf("unguarded operation consulted the gate")
			}
		})
	}
}

func TestDispatchPreservesOrderPerChannel(t *testing.T) {
	var (
		mu    sync.Mutex
		order []int
	)
	spec := invocation.ChannelSpec{
		ID: "test",
		Operations: []invocation.Operation{{
			Name:   "record",
			Args:   []invocation.ArgSpec{{Name: "n", Kind: invocation.KindNumber, Required: true}},
			Result: invocation.ResultNull,
			Run: func(_ context.Context, args invocation.Arguments) (any, error) {
				mu.Lock()
				order = append(order, int(args.Number("n")))
				mu.Unlock()
				return nil, nil
			},
		}},
	}
	d := newDispatcher(t, nil, spec)

	// Each dispatch is issued only after the previous one has been queued, so
	// arrival order is 0..n-1.
	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		queued := make(chan struct{})
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			close(queued)
			d.Dispatch(context.Background(), "test", invocation.NewInvocation("record", map[string]any{"n": i}))
		}(i)
		<-queued
		time.Sleep(5 * time.Millisecond)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(order) != n {
		t.Fatalf("expected %d runs, got %d", n, len(order))
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("out of order at %d: %v", i, order)
		}
	}
}

func TestDispatchChannelsRunIndependently(t *testing.T) {
	release := make(chan struct{})
	slow := invocation.ChannelSpec{
		ID: "slow",
		Operations: []invocation.Operation{boolOp("wait", func(context.Context, invocation.Arguments) (any, error) {
			<-release
			return true, nil
		})},
	}
	fast := invocation.ChannelSpec{ID: "fast", Operations: []invocation.Operation{boolOp("ping", returns(true, nil))}}
	d := newDispatcher(t, nil, slow, fast)

	slowDone := make(chan invocation.Result, 1)
	go func() {
		slowDone <- d.Dispatch(context.Background(), "slow", invocation.NewInvocation("wait", nil))
	}()

	fastDone := make(chan invocation.Result, 1)
	go func() {
		fastDone <- d.Dispatch(context.Background(), "fast", invocation.NewInvocation("ping", nil))
	}()
	select {
	case res := <-fastDone:
		if res.Value != true {
			t.Fatalf("unexpected fast result %+v", res)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("fast channel blocked behind slow channel")
	}

	close(release)
	select {
	case res := <-slowDone:
		if res.Value != true {
			t.Fatalf("unexpected slow result %+v", res)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("slow channel never completed")
	}
}

func TestDispatchIgnoresCallerCancellation(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var sawCancel atomic.Bool
	spec := invocation.ChannelSpec{
		ID: "test",
		Operations: []invocation.Operation{boolOp("wait", func(ctx context.Context, _ invocation.Arguments) (any, error) {
			close(started)
			<-release
			sawCancel.Store(ctx.Err() != nil)
			return true, nil
		})},
	}
	d := newDispatcher(t, nil, spec)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan invocation.Result, 1)
	go func() {
		done <- d.Dispatch(ctx, "test", invocation.NewInvocation("wait", nil))
	}()
	<-started
	cancel()
	close(release)

	res := <-done
	if res.Value != true {
		t.Fatalf("unexpected result %+v", res)
	}
	if sawCancel.Load() {
		t.Fatal("operation observed caller cancellation")
	}
}

func TestBindReplacesAndUnbind(t *testing.T) {
	d := newDispatcher(t, nil, invocation.ChannelSpec{ID: "c", Operations: []invocation.Operation{boolOp("v", returns(false, nil))}})

	if err := d.Bind(invocation.ChannelSpec{ID: "c", Operations: []invocation.Operation{boolOp("v", returns(true, nil))}}); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if res := d.Dispatch(context.Background(), "c", invocation.NewInvocation("v", nil)); res.Value != true {
		t.Fatalf("replacement binding not used: %+v", res)
	}
	if got := d.Bound(); len(got) != 1 || got[0] != "c" {
		t.Fatalf("Bound = %v", got)
	}

	if !d.Unbind("c") {
		t.Fatal("expected Unbind to report an existing binding")
	}
	if d.Unbind("c") {
		t.Fatal("expected second Unbind to report false")
	}
	if res := d.Dispatch(context.Background(), "c", invocation.NewInvocation("v", nil)); res.Outcome != invocation.OutcomeFailure {
		t.Fatalf("expected failure after unbind, got %+v", res)
	}
}

func TestCloseDrainsQueuedInvocations(t *testing.T) {
	var runs atomic.Int32
	release := make(chan struct{})
	spec := invocation.ChannelSpec{
		ID: "test",
		Operations: []invocation.Operation{boolOp("work", func(context.Context, invocation.Arguments) (any, error) {
			<-release
			runs.Add(1)
			return true, nil
		})},
	}
	d, err := invocation.NewDispatcher(nil, logging.NewNop(), []invocation.ChannelSpec{spec})
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}

	results := make(chan invocation.Result, 3)
	for i := 0; i < 3; i++ {
		go func() {
			results <- d.Dispatch(context.Background(), "test", invocation.NewInvocation("work", nil))
		}()
	}
	time.Sleep(50 * time.Millisecond)

	closed := make(chan struct{})
	go func() {
		d.Close()
		close(closed)
	}()
	close(release)
	<-closed

	for i := 0; i < 3; i++ {
		res := <-results
		if res.Outcome == invocation.OutcomeSuccess && res.Value != true {
			t.Fatalf("unexpected result %+v", res)
		}
	}
	if res := d.Dispatch(context.Background(), "test", invocation.NewInvocation("work", nil)); res.Reason != "dispatcher closed" {
		t.Fatalf("expected dispatcher closed, got %+v", res)
	}
	if err := d.Bind(spec); err == nil {
		t.Fatal("expected Bind to fail after Close")
	}
}

func TestCloseWaitsForRetiredBindings(t *testing.T) {
	started := make(chan struct{}, 2)
	var finished atomic.Int32
	slow := func(context.Context, invocation.Arguments) (any, error) {
		started <- struct{}{}
		time.Sleep(200 * time.Millisecond)
		finished.Add(1)
		return true, nil
	}
	spec := func(id invocation.ChannelID) invocation.ChannelSpec {
		return invocation.ChannelSpec{ID: id, Operations: []invocation.Operation{boolOp("work", slow)}}
	}
	d, err := invocation.NewDispatcher(nil, logging.NewNop(), []invocation.ChannelSpec{spec("unbound"), spec("replaced")})
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}

	for _, id := range []invocation.ChannelID{"unbound", "replaced"} {
		go d.Dispatch(context.Background(), id, invocation.NewInvocation("work", nil))
	}
	<-started
	<-started

	d.Unbind("unbound")
	if err := d.Bind(spec("replaced")); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	d.Close()

	if got := finished.Load(); got != 2 {
		t.Fatalf("Close returned with %d of 2 accepted invocations finished", got)
	}
}
