package monitor

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/docuwatchco/docuwatch/pkg/client"
	"github.com/docuwatchco/docuwatch/pkg/poller"
	"github.com/docuwatchco/docuwatch/pkg/progress"
	"github.com/docuwatchco/docuwatch/pkg/sse"
	"github.com/docuwatchco/docuwatch/pkg/stream"
)

// reducible is the shape shared by all progress states: a pure event fold
// with a terminal latch.
type reducible[S any] interface {
	Apply(sse.Event) (S, error)
	Terminal() bool
	Failed() bool
}

// Watch is one tracked operation instance. Snapshots arrive on Updates
// while the operation runs; Done closes when it ends, after which Result
// holds the final state and outcome.
type Watch[S reducible[S]] struct {
	id   string
	kind progress.OperationKind

	updates chan S
	done    chan struct{}
	cancel  context.CancelFunc

	mu       sync.Mutex
	latest   S
	err      error
	finished bool
}

func newWatch[S reducible[S]](kind progress.OperationKind, cancel context.CancelFunc) *Watch[S] {
	return &Watch[S]{
		id:      uuid.NewString(),
		kind:    kind,
		updates: make(chan S, 1),
		done:    make(chan struct{}),
		cancel:  cancel,
	}
}

// ID is the watch's unique instance id.
func (w *Watch[S]) ID() string { return w.id }

// Kind is the operation kind this watch tracks.
func (w *Watch[S]) Kind() progress.OperationKind { return w.kind }

// Updates delivers progress snapshots. The channel keeps only the latest
// snapshot when the consumer lags; every snapshot is cumulative, so a
// dropped intermediate loses nothing. It is closed when the watch ends.
func (w *Watch[S]) Updates() <-chan S { return w.updates }

// Done is closed when the operation reaches its single final outcome.
func (w *Watch[S]) Done() <-chan struct{} { return w.done }

// Latest returns the most recent snapshot.
func (w *Watch[S]) Latest() S {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.latest
}

// Result returns the final state and outcome. Valid once Done is closed;
// before that it returns the latest snapshot and a nil error.
func (w *Watch[S]) Result() (S, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.latest, w.err
}

// Wait blocks until the watch ends or ctx is cancelled.
func (w *Watch[S]) Wait(ctx context.Context) (S, error) {
	select {
	case <-w.done:
		return w.Result()
	case <-ctx.Done():
		w.mu.Lock()
		defer w.mu.Unlock()
		return w.latest, ctx.Err()
	}
}

// Stop abandons the watch. The operation keeps running server-side.
func (w *Watch[S]) Stop() {
	w.cancel()
}

// publish records the snapshot and offers it on the updates channel,
// displacing a stale undelivered one.
func (w *Watch[S]) publish(s S) {
	w.mu.Lock()
	if w.finished {
		w.mu.Unlock()
		return
	}
	w.latest = s
	w.mu.Unlock()

	select {
	case w.updates <- s:
	default:
		select {
		case <-w.updates:
		default:
		}
		select {
		case w.updates <- s:
		default:
		}
	}
}

// finish records the single final outcome. Later calls are no-ops, which is
// what makes the stream and poll paths mutually exclusive at the edge.
func (w *Watch[S]) finish(s S, err error) {
	w.mu.Lock()
	if w.finished {
		w.mu.Unlock()
		return
	}
	w.finished = true
	w.latest = s
	w.err = err
	w.mu.Unlock()

	close(w.updates)
	close(w.done)
}

// plan describes how one operation kind is tracked: where its stream lives,
// how to fetch its plain status, and how terminal information folds back
// into the state.
type plan[S reducible[S]] struct {
	initial   S
	streamURL string

	// status fetches the plain snapshot for the polling fallback. Nil
	// disables the fallback.
	status func(context.Context) (client.OperationStatus, error)

	// merge folds a polled snapshot into the state so live progress keeps
	// moving while polling.
	merge func(S, client.OperationStatus) S

	// failure extracts the operation's failure message from a terminal
	// state, empty on success.
	failure func(S) string

	// result, when set, fetches the operation's final payload after the
	// poll path observes success. The stream path never needs it; terminal
	// events are self-contained.
	result func(context.Context, S) (S, error)
}

// track resolves the credential, spawns the watch goroutine and returns the
// handle. The credential is resolved before anything is opened so auth
// problems surface synchronously.
func track[S reducible[S]](ctx context.Context, m *Monitor, kind progress.OperationKind, p plan[S]) (*Watch[S], error) {
	token, err := m.client.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoCredential, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	w := newWatch[S](kind, cancel)
	w.latest = p.initial

	go func() {
		defer cancel()
		follow(ctx, m, w, p, token)
	}()

	return w, nil
}

// follow runs the stream phase and, when it ends without a terminal state,
// hands off to the poll phase.
func follow[S reducible[S]](ctx context.Context, m *Monitor, w *Watch[S], p plan[S], token string) {
	cur := p.initial

	if m.disableStream {
		poll(ctx, m, w, p, cur)
		return
	}

	conn, err := stream.New(stream.Config{
		URL:    p.streamURL,
		Token:  token,
		Logger: m.log,
	})
	if err != nil {
		w.finish(cur, err)
		return
	}

	terminal := make(chan S, 1)
	for _, eventType := range w.kind.Events() {
		conn.On(eventType, func(ev sse.Event) {
			next, err := cur.Apply(ev)
			if err != nil {
				m.log.Warn("discarding malformed event",
					"watch", w.id, "type", ev.Type, "err", err)
				return
			}
			cur = next
			w.publish(cur)
			if cur.Terminal() {
				select {
				case terminal <- cur:
				default:
				}
				conn.Close()
			}
		})
	}

	streamErr := make(chan error, 1)
	conn.OnError(func(err error) {
		select {
		case streamErr <- err:
		default:
		}
	})

	conn.Connect(ctx)
	<-conn.Done()

	select {
	case final := <-terminal:
		w.finish(final, outcome(p, final))
		return
	default:
	}

	if ctx.Err() != nil {
		w.finish(cur, ctx.Err())
		return
	}

	// The stream failed or closed before a terminal event. Whatever
	// progress it delivered stays; polling picks up from here.
	select {
	case err := <-streamErr:
		m.log.Debug("stream lost, falling back to polling", "watch", w.id, "err", err)
	default:
		m.log.Debug("stream closed without terminal event, falling back to polling", "watch", w.id)
	}
	poll(ctx, m, w, p, cur)
}

// poll drives the fallback status loop to the watch's final outcome.
func poll[S reducible[S]](ctx context.Context, m *Monitor, w *Watch[S], p plan[S], cur S) {
	if p.status == nil {
		w.finish(cur, fmt.Errorf("stream lost and no status endpoint to poll"))
		return
	}

	loop := &poller.Poller{
		Interval:    m.pollInterval,
		MaxAttempts: m.pollAttempts,
		Logger:      m.log,
		Fetch: func(ctx context.Context) (poller.Snapshot, error) {
			status, err := p.status(ctx)
			if err != nil {
				return poller.Snapshot{}, err
			}
			if p.merge != nil {
				cur = p.merge(cur, status)
				w.publish(cur)
			}
			switch {
			case status.TerminalFailure():
				return poller.Snapshot{Outcome: poller.OutcomeFailed, Message: status.FailureMessage()}, nil
			case status.TerminalSuccess():
				return poller.Snapshot{Outcome: poller.OutcomeCompleted, Message: status.Message}, nil
			default:
				return poller.Snapshot{Outcome: poller.OutcomePending, Message: status.Message}, nil
			}
		},
	}

	snap, err := loop.Run(ctx)
	switch {
	case err != nil:
		w.finish(cur, err)
	case snap.Outcome == poller.OutcomeFailed:
		w.finish(cur, &OperationError{Message: snap.Message})
	default:
		if p.result != nil {
			enriched, err := p.result(ctx, cur)
			if err != nil {
				m.log.Warn("fetching final result failed", "watch", w.id, "err", err)
			} else {
				cur = enriched
				w.publish(cur)
			}
		}
		w.finish(cur, nil)
	}
}

// outcome converts a terminal state into the watch's final error value.
func outcome[S reducible[S]](p plan[S], final S) error {
	if !final.Failed() {
		return nil
	}
	msg := ""
	if p.failure != nil {
		msg = p.failure(final)
	}
	return &OperationError{Message: msg}
}
