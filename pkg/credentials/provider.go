package credentials

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/docuwatchco/docuwatch/pkg/logger"
)

// Provider hands the current bearer token to a call site that is about to
// open a connection. An empty token with a nil error means no credential is
// available; callers reject the operation before opening anything.
//
// The transport never holds a Provider; it receives the resolved token
// value at open time. A token refreshed mid-stream only affects connections
// opened afterwards.
type Provider interface {
	Token(ctx context.Context) (string, error)
}

// StaticProvider returns the same token forever. Useful for tests and for
// tokens passed on the command line.
type StaticProvider string

// Token implements Provider.
func (p StaticProvider) Token(ctx context.Context) (string, error) {
	return string(p), nil
}

// FileProvider serves the token from credentials.toml and reloads it when
// the file changes on disk, so a re-login while a long watch command is
// running takes effect on the next connection without restarting.
type FileProvider struct {
	manager *Manager
	watcher *fsnotify.Watcher
	log     *slog.Logger

	mu    sync.RWMutex
	token string
}

// NewFileProvider loads the current token and starts watching the
// credentials file's directory (watching the directory, not the file,
// survives the rename-replace most editors and Save use).
func NewFileProvider(manager *Manager, log *slog.Logger) (*FileProvider, error) {
	if log == nil {
		log = logger.Nop()
	}

	tok, err := manager.Token()
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating credentials watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(manager.Path())); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching credentials dir: %w", err)
	}

	p := &FileProvider{
		manager: manager,
		watcher: watcher,
		log:     log,
		token:   tok,
	}

	go p.watch()

	return p, nil
}

// Token implements Provider.
func (p *FileProvider) Token(ctx context.Context) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.token, nil
}

// Close stops the file watcher.
func (p *FileProvider) Close() error {
	return p.watcher.Close()
}

func (p *FileProvider) watch() {
	target := p.manager.Path()

	for {
		select {
		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if event.Name != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			tok, err := p.manager.Token()
			if err != nil {
				p.log.Warn("reloading credentials failed", "err", err)
				continue
			}

			p.mu.Lock()
			changed := tok != p.token
			p.token = tok
			p.mu.Unlock()

			if changed {
				p.log.Debug("credentials reloaded", "path", target)
			}

		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.log.Warn("credentials watcher error", "err", err)
		}
	}
}
