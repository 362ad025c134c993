package invocation

import (
	"context"
	"sync"
)

type job struct {
	ctx   context.Context
	inv   Invocation
	reply chan Result
}

type executeFunc func(ctx context.Context, channel ChannelID, op *Operation, inv Invocation) Result

// lane is the FIFO queue and single worker serving one channel binding.
type lane struct {
	channel ChannelID
	ops     map[string]*Operation
	exec    executeFunc

	mu     sync.RWMutex
	closed bool
	jobs   chan job
	done   chan struct{}
}

func newLane(spec ChannelSpec, buffer int, exec executeFunc) *lane {
	ops := make(map[string]*Operation, len(spec.Operations))
	for i := range spec.Operations {
		op := spec.Operations[i]
		ops[op.Name] = &op
	}
	l := &lane{
		channel: spec.ID,
		ops:     ops,
		exec:    exec,
		jobs:    make(chan job, buffer),
		done:    make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *lane) run() {
	defer close(l.done)
	for j := range l.jobs {
		j.reply <- l.exec(j.ctx, l.channel, l.ops[j.inv.Operation], j.inv)
	}
}

// submit enqueues inv. It returns false when the lane no longer accepts work.
func (l *lane) submit(ctx context.Context, inv Invocation) (<-chan Result, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return nil, false
	}
	reply := make(chan Result, 1)
	l.jobs <- job{ctx: ctx, inv: inv, reply: reply}
	return reply, true
}

// close stops accepting work; queued jobs still run.
func (l *lane) close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	close(l.jobs)
}

func (l *lane) wait() {
	<-l.done
}
