package bridge

import "context"

// Handler processes one inbound Message, using emit to send zero or more
// reply messages back to the UI thread.
type Handler func(ctx context.Context, msg Message, emit func(Message))

// ChannelWorker is the in-process transport for the wasm build: a single
// goroutine reading from a buffered inbox, guaranteeing in-order, sequential
// processing of posted messages (spec §5 ordering guarantees) without any
// real OS thread boundary.
type ChannelWorker struct {
	inbox  chan Message
	cancel context.CancelFunc
	done   chan struct{}
}

// NewChannelWorker starts the worker goroutine. emit is called from the
// worker goroutine and must be safe to invoke concurrently with Post calls
// from the UI goroutine (a reactive-state writer satisfies this trivially).
func NewChannelWorker(handler Handler, emit func(Message)) *ChannelWorker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &ChannelWorker{
		inbox:  make(chan Message, 16),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go w.run(ctx, handler, emit)
	return w
}

func (w *ChannelWorker) run(ctx context.Context, handler Handler, emit func(Message)) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-w.inbox:
			if !ok {
				return
			}
			handler(ctx, msg, emit)
		}
	}
}

// Post enqueues msg for sequential processing. It blocks if the inbox is
// full, applying backpressure to the caller rather than dropping messages.
func (w *ChannelWorker) Post(msg Message) {
	w.inbox <- msg
}

// Close stops accepting messages, waits until every message already posted
// has been processed in order (an in-flight message is allowed to finish,
// per spec §5's cancellation policy), then stops the worker goroutine.
func (w *ChannelWorker) Close() {
	close(w.inbox)
	<-w.done
	w.cancel()
}
