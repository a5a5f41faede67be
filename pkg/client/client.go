// Package client talks to the docuwatch analysis backend over REST. It
// starts long-running operations, fetches plain status snapshots for the
// polling fallback, and builds the stream URLs the event transport
// connects to.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/docuwatchco/docuwatch/pkg/credentials"
	"github.com/docuwatchco/docuwatch/pkg/logger"
)

// DefaultTimeout bounds plain REST calls. Stream requests are not made
// through this client and carry no timeout.
const DefaultTimeout = 30 * time.Second

// Client is a docuwatch backend REST client.
type Client struct {
	target   string
	http     *http.Client
	provider credentials.Provider
	log      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the REST call timeout on the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithProvider sets the credential source used to authorize requests.
func WithProvider(p credentials.Provider) Option {
	return func(c *Client) { c.provider = p }
}

// WithLogger sets the client logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a client for the backend at target, e.g.
// "http://localhost:8000".
func New(target string, opts ...Option) (*Client, error) {
	if target == "" {
		return nil, fmt.Errorf("target is required")
	}
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parsing target: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("target %q must include scheme and host", target)
	}

	c := &Client{
		target: strings.TrimRight(target, "/"),
		http:   &http.Client{Timeout: DefaultTimeout},
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Token resolves the current auth token, or returns an empty string when no
// provider is configured.
func (c *Client) Token(ctx context.Context) (string, error) {
	if c.provider == nil {
		return "", nil
	}
	return c.provider.Token(ctx)
}

// ListDocuments returns all documents known to the backend.
func (c *Client) ListDocuments(ctx context.Context) ([]Document, error) {
	var docs []Document
	if err := c.get(ctx, "/api/documents", &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// ListMeetings returns all meetings known to the backend.
func (c *Client) ListMeetings(ctx context.Context) ([]Meeting, error) {
	var meetings []Meeting
	if err := c.get(ctx, "/api/meetings", &meetings); err != nil {
		return nil, err
	}
	return meetings, nil
}

// DocumentStatus fetches the plain processing status of one document.
func (c *Client) DocumentStatus(ctx context.Context, documentID string) (OperationStatus, error) {
	var status OperationStatus
	err := c.get(ctx, "/api/documents/"+url.PathEscape(documentID)+"/status", &status)
	return status, err
}

// StartBatch submits documents for processing and returns the tracking job.
func (c *Client) StartBatch(ctx context.Context, documentIDs []string) (Job, error) {
	if len(documentIDs) == 0 {
		return Job{}, fmt.Errorf("at least one document id is required")
	}
	var job Job
	err := c.post(ctx, "/api/documents/batch", batchRequest{DocumentIDs: documentIDs}, &job)
	return job, err
}

// StartMeetingSummary starts summarization of one meeting's documents.
func (c *Client) StartMeetingSummary(ctx context.Context, meetingID string) (Job, error) {
	if meetingID == "" {
		return Job{}, fmt.Errorf("meeting id is required")
	}
	var job Job
	err := c.post(ctx, "/api/meetings/"+url.PathEscape(meetingID)+"/summarize", nil, &job)
	return job, err
}

// StartMultiMeetingSummary starts summarization across several meetings,
// ending in one integrated report.
func (c *Client) StartMultiMeetingSummary(ctx context.Context, meetingIDs []string) (Job, error) {
	if len(meetingIDs) == 0 {
		return Job{}, fmt.Errorf("at least one meeting id is required")
	}
	var job Job
	err := c.post(ctx, "/api/meetings/summarize", multiMeetingRequest{MeetingIDs: meetingIDs}, &job)
	return job, err
}

// StartQA starts a question-answering job against the indexed corpus.
func (c *Client) StartQA(ctx context.Context, req QARequest) (Job, error) {
	if req.Question == "" {
		return Job{}, fmt.Errorf("question is required")
	}
	var job Job
	err := c.post(ctx, "/api/qa", req, &job)
	return job, err
}

// JobStatus fetches the plain status snapshot of a job.
func (c *Client) JobStatus(ctx context.Context, jobID string) (OperationStatus, error) {
	var status OperationStatus
	err := c.get(ctx, "/api/jobs/"+url.PathEscape(jobID)+"/status", &status)
	return status, err
}

// JobResult fetches the final payload of a completed job. The shape depends
// on the operation; callers decode it themselves.
func (c *Client) JobResult(ctx context.Context, jobID string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "/api/jobs/"+url.PathEscape(jobID)+"/result", &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// DocumentStreamURL returns the event stream URL for one document's
// processing progress.
func (c *Client) DocumentStreamURL(documentID string) string {
	return c.target + "/api/documents/" + url.PathEscape(documentID) + "/stream"
}

// JobStreamURL returns the event stream URL for a job.
func (c *Client) JobStreamURL(jobID string) string {
	return c.target + "/api/jobs/" + url.PathEscape(jobID) + "/stream"
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.target+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.Token(ctx)
	if err != nil {
		return fmt.Errorf("resolving credential: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.log.Debug("request", "method", method, "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *Client) statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var payload errorResponse
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, payload.Error)
		}
		if payload.Message != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, payload.Message)
		}
	}
	if trimmed := strings.TrimSpace(string(raw)); trimmed != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, trimmed)
	}
	return fmt.Errorf("server returned %d", resp.StatusCode)
}
