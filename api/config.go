// Package api provides the docuwatch demo backend: an HTTP server that
// plays back scripted document-analysis operations over REST and SSE so the
// client side can be exercised end to end without the real analysis
// pipeline.
package api

import "time"

// Config is the demo server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8000")
	ListenAddr string

	// StepDelay is the pause between scripted stream events. Zero plays
	// scripts back as fast as the client consumes them.
	StepDelay time.Duration
}
