package executor

import (
	"sync"
)

// Output is the bounded queue between a process's reader goroutines and
// its consumer. Producers block when it is full; consumers never do.
type Output struct {
	ch      chan Message
	discard chan struct{}
	once    sync.Once
}

func newOutput(size int) *Output {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Output{
		ch:      make(chan Message, size),
		discard: make(chan struct{}),
	}
}

// Lines returns the message channel. It is closed after the terminal
// message.
func (o *Output) Lines() <-chan Message {
	return o.ch
}

// Drain returns up to max buffered messages without blocking. A max of
// zero or less returns everything currently buffered.
func (o *Output) Drain(max int) []Message {
	var out []Message
	for max <= 0 || len(out) < max {
		select {
		case m, ok := <-o.ch:
			if !ok {
				return out
			}
			out = append(out, m)
		default:
			return out
		}
	}
	return out
}

// Discard tells producers to drop messages instead of waiting for a
// consumer that went away.
func (o *Output) Discard() {
	o.once.Do(func() { close(o.discard) })
}

func (o *Output) send(m Message) {
	select {
	case o.ch <- m:
	case <-o.discard:
	}
}

func (o *Output) finish(m Message) {
	o.send(m)
	close(o.ch)
}
