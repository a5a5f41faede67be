// Package poller implements the fallback path for when a progress stream
// cannot be sustained: repeatedly fetch the operation's status snapshot at a
// fixed interval until a terminal state is observed or the attempt budget
// runs out.
//
// The poller and the stream are mutually exclusive paths to the same
// terminal callback; whichever reaches terminal first wins, and the
// reducers' post-terminal latch makes the loser a no-op.
package poller

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/docuwatchco/docuwatch/pkg/logger"
)

const (
	// DefaultInterval is the wait between status fetches.
	DefaultInterval = 3 * time.Second

	// DefaultMaxAttempts bounds the poll loop; past it the operation is
	// reported as timed out.
	DefaultMaxAttempts = 60
)

// ErrExhausted is returned when the attempt ceiling is reached without
// observing a terminal status. Callers surface it as a timeout, distinct
// from an operation-reported failure.
var ErrExhausted = errors.New("no terminal status within the polling attempt budget")

// Outcome classifies one fetched status snapshot.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeCompleted
	OutcomeFailed
)

// Snapshot is the result of one status fetch, reduced to the terminal-state
// vocabulary shared with the stream path.
type Snapshot struct {
	Outcome Outcome

	// Message carries the server's status or failure message.
	Message string
}

// Terminal reports whether the snapshot ends the poll loop.
func (s Snapshot) Terminal() bool {
	return s.Outcome != OutcomePending
}

// FetchFunc fetches the operation's current status. Implementations
// translate the resource's REST status payload into a Snapshot.
type FetchFunc func(ctx context.Context) (Snapshot, error)

// Poller drives the fetch loop for one operation instance. Zero-value
// Interval and MaxAttempts take the defaults.
type Poller struct {
	Interval    time.Duration
	MaxAttempts int
	Fetch       FetchFunc

	// OnSnapshot, when set, observes every successfully fetched snapshot,
	// terminal included. Used to keep live progress moving while polling.
	OnSnapshot func(Snapshot)

	Logger *slog.Logger
}

// Run polls until a terminal snapshot, the attempt ceiling, or context
// cancellation. On cancellation it returns ctx.Err() without reporting any
// outcome; a deliberate stop, not a failure. A failed fetch consumes an
// attempt and the loop continues; only the ceiling turns repeated failures
// into ErrExhausted.
func (p *Poller) Run(ctx context.Context) (Snapshot, error) {
	if p.Fetch == nil {
		return Snapshot{}, errors.New("poller: Fetch is required")
	}

	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	log := p.Logger
	if log == nil {
		log = logger.Nop()
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Snapshot{}, err
		}

		snap, err := p.Fetch(ctx)
		switch {
		case err != nil && ctx.Err() != nil:
			return Snapshot{}, ctx.Err()
		case err != nil:
			log.Debug("status fetch failed", "attempt", attempt, "err", err)
		default:
			if p.OnSnapshot != nil {
				p.OnSnapshot(snap)
			}
			if snap.Terminal() {
				log.Debug("terminal status observed", "attempt", attempt)
				return snap, nil
			}
		}

		select {
		case <-ctx.Done():
			return Snapshot{}, ctx.Err()
		case <-time.After(interval):
		}
	}

	return Snapshot{}, ErrExhausted
}
