// Package monitor drives long-running backend operations end to end: it
// starts the operation over REST, follows its live event stream through the
// matching progress reducer, and falls back to status polling when the
// stream cannot be sustained. Each operation instance is tracked by one
// Watch handle that reports snapshots while running and exactly one final
// result.
package monitor

import (
	"errors"
	"log/slog"
	"time"

	"github.com/docuwatchco/docuwatch/pkg/client"
	"github.com/docuwatchco/docuwatch/pkg/logger"
	"github.com/docuwatchco/docuwatch/pkg/poller"
)

// ErrNoCredential is returned when the credential source fails before an
// operation is started. Authentication problems are surfaced up front, not
// as a mid-stream failure.
var ErrNoCredential = errors.New("no credential available")

// ErrExhausted mirrors the poller's timeout sentinel so callers can match
// it without importing the poller package.
var ErrExhausted = poller.ErrExhausted

// OperationError is a failure reported by the operation itself, through a
// stream error event or a failed status snapshot. It is distinct from
// transport errors and from ErrExhausted.
type OperationError struct {
	Message string
}

func (e *OperationError) Error() string {
	if e.Message == "" {
		return "operation failed"
	}
	return e.Message
}

// Monitor creates watches against one backend.
type Monitor struct {
	client        *client.Client
	log           *slog.Logger
	pollInterval  time.Duration
	pollAttempts  int
	disableStream bool
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithLogger sets the monitor logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Monitor) { m.log = log }
}

// WithPollInterval sets the wait between fallback status fetches.
func WithPollInterval(d time.Duration) Option {
	return func(m *Monitor) { m.pollInterval = d }
}

// WithPollAttempts sets the fallback poll attempt ceiling.
func WithPollAttempts(n int) Option {
	return func(m *Monitor) { m.pollAttempts = n }
}

// WithoutStream skips the event stream entirely and tracks operations by
// polling alone.
func WithoutStream() Option {
	return func(m *Monitor) { m.disableStream = true }
}

// New creates a Monitor on top of the given backend client.
func New(c *client.Client, opts ...Option) *Monitor {
	m := &Monitor{
		client:       c,
		log:          logger.Nop(),
		pollInterval: poller.DefaultInterval,
		pollAttempts: poller.DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}
