// Package effects executes the effect tokens produced by the desktop reducer.
//
// The reducer never performs I/O. It returns effects, the shell queues them in
// an Outbox, and a Runner drains the outbox and calls the host collaborators.
package effects

import "github.com/1broseidon/deskshell/internal/desktop"

// Outbox queues effects between a reduction and the runner that performs them.
// The zero value is ready to use. It is not safe for concurrent use; the shell
// only touches it from its serialized dispatch path.
type Outbox struct {
	pending []desktop.Effect
}

// Push appends effects in the order they were generated.
func (o *Outbox) Push(effects ...desktop.Effect) {
	o.pending = append(o.pending, effects...)
}

// Drain swaps the queue out and returns it. Effects pushed while the caller
// iterates the returned batch land in the next Drain.
func (o *Outbox) Drain() []desktop.Effect {
	batch := o.pending
	o.pending = nil
	return batch
}

// Len reports how many effects are waiting.
func (o *Outbox) Len() int {
	return len(o.pending)
}
