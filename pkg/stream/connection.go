// Package stream implements the client side of the docuwatch backend's
// server-push channel: one authenticated HTTP request per logical operation,
// expecting text/event-stream, with typed listener dispatch.
//
// The surface mirrors the browser EventSource API (listener registration per
// event type, a single error signal, idempotent close) so call sites do not
// care which transport backs them. Listeners run on the connection's read
// goroutine, so all state folded from events is serialized without locking.
package stream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/docuwatchco/docuwatch/pkg/logger"
	"github.com/docuwatchco/docuwatch/pkg/sse"
)

// State is the lifecycle state of a Connection.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

// String implements fmt.Stringer for log output.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Handler consumes one dispatched event.
type Handler func(sse.Event)

// Config describes how to open a Connection.
type Config struct {
	// URL is the stream endpoint.
	URL string

	// Method defaults to GET. Operations started by the stream request
	// itself (summarize, QA) use POST with a JSON body.
	Method string

	// Body is the optional JSON request body for POST streams.
	Body []byte

	// Token is the bearer credential attached at open time as an
	// Authorization header. The connection never refreshes it mid-stream;
	// a credential expiring mid-connection surfaces as an error and is
	// recovered by the caller re-opening.
	Token string

	// Client defaults to a client with no timeout: a healthy stream may
	// stay open indefinitely while the operation runs.
	Client *http.Client

	// Logger defaults to a nop logger.
	Logger *slog.Logger
}

// Connection is one open (or closing) server-push channel. It is owned
// exclusively by the call site that opened it and closed exactly once:
// by a terminal event, by caller cancellation, or by unmount of the owner.
type Connection struct {
	cfg Config

	mu        sync.Mutex
	listeners map[string][]Handler
	onOpen    []func()
	onError   []func(error)

	state     atomic.Int32
	cancel    context.CancelFunc
	closeOnce sync.Once
	errOnce   sync.Once
	done      chan struct{}
}

// New creates a Connection in the connecting state. Listeners must be
// registered before Connect so no event can slip past them.
func New(cfg Config) (*Connection, error) {
	if cfg.URL == "" {
		return nil, errors.New("stream: URL is required")
	}
	if cfg.Method == "" {
		cfg.Method = http.MethodGet
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}

	return &Connection{
		cfg:       cfg,
		listeners: make(map[string][]Handler),
		done:      make(chan struct{}),
	}, nil
}

// On registers a listener for the given event type. Listeners registered for
// different types never see each other's events; listeners for the same type
// run in registration order.
func (c *Connection) On(eventType string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners[eventType] = append(c.listeners[eventType], h)
}

// OnOpen registers a callback fired once headers are received and the body
// stream begins.
func (c *Connection) OnOpen(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onOpen = append(c.onOpen, fn)
}

// OnError registers a callback for the connection's single error signal:
// request rejection, a non-success status, or a read failure not caused by
// cancellation. Deliberate Close never fires it.
func (c *Connection) OnError(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = append(c.onError, fn)
}

// State returns the connection's lifecycle state.
func (c *Connection) State() State {
	return State(c.state.Load())
}

// Done is closed when the read loop has fully stopped, whatever the cause.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Connect opens the HTTP request and starts the read loop in its own
// goroutine. It returns immediately; outcomes arrive through the registered
// listeners and the OnOpen/OnError callbacks.
func (c *Connection) Connect(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	go c.run(ctx)
}

// Close cancels the in-flight read cooperatively and marks the connection
// closed. Safe to call multiple times and after natural stream completion;
// it never triggers the error signal.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		c.state.Store(int32(StateClosed))

		c.mu.Lock()
		cancel := c.cancel
		c.mu.Unlock()

		if cancel != nil {
			cancel()
		}
	})
}

func (c *Connection) run(ctx context.Context) {
	defer close(c.done)
	defer c.state.Store(int32(StateClosed))

	req, err := c.newRequest(ctx)
	if err != nil {
		c.fail(ctx, fmt.Errorf("creating stream request: %w", err))
		return
	}

	resp, err := c.cfg.Client.Do(req)
	if err != nil {
		c.fail(ctx, fmt.Errorf("opening stream: %w", err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little of the body for the error message, then give up.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.fail(ctx, fmt.Errorf("stream returned status %d: %s", resp.StatusCode, snippet))
		return
	}

	if resp.Body == http.NoBody {
		c.fail(ctx, errors.New("stream response has no body"))
		return
	}

	c.state.Store(int32(StateOpen))
	c.emitOpen()
	c.cfg.Logger.Debug("stream open", "url", c.cfg.URL)

	dec := sse.NewDecoder()
	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			for _, ev := range dec.Feed(buf[:n]) {
				c.dispatch(ev)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				// Natural end of stream; an unterminated trailing frame
				// still counts.
				if ev, ok := dec.Flush(); ok {
					c.dispatch(ev)
				}
				c.cfg.Logger.Debug("stream ended", "url", c.cfg.URL)
				return
			}
			c.fail(ctx, fmt.Errorf("reading stream: %w", err))
			return
		}
	}
}

func (c *Connection) newRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if len(c.cfg.Body) > 0 {
		body = bytes.NewReader(c.cfg.Body)
	}

	req, err := http.NewRequestWithContext(ctx, c.cfg.Method, c.cfg.URL, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if len(c.cfg.Body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	return req, nil
}

// dispatch delivers one event to every listener registered for its type,
// in registration order, on the read goroutine.
func (c *Connection) dispatch(ev sse.Event) {
	c.mu.Lock()
	handlers := append([]Handler(nil), c.listeners[ev.Type]...)
	c.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}

func (c *Connection) emitOpen() {
	c.mu.Lock()
	callbacks := append([]func(){}, c.onOpen...)
	c.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

// fail signals the connection's single error. Cancellation is a deliberate
// close, not a failure, so it is swallowed here.
func (c *Connection) fail(ctx context.Context, err error) {
	if ctx.Err() != nil {
		return
	}

	c.errOnce.Do(func() {
		c.cfg.Logger.Debug("stream error", "url", c.cfg.URL, "err", err)

		c.mu.Lock()
		callbacks := append([]func(error){}, c.onError...)
		c.mu.Unlock()

		for _, fn := range callbacks {
			fn(err)
		}
	})
}
