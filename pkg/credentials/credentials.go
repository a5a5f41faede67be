// Package credentials manages the bearer token used to open authenticated
// connections to the docuwatch backend, and the providers that hand the
// current token to the transport at connection-open time.
package credentials

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/docuwatchco/docuwatch/pkg/dotdir"
)

const (
	credentialsFile = "credentials.toml"

	currentVersion = 0

	// EnvToken overrides the stored token when set.
	EnvToken = "DOCUWATCH_TOKEN"
)

// Manager manages reading and writing credentials.toml in the .docuwatch/
// directory.
type Manager struct {
	targetPath string
}

// NewManager creates a new credentials Manager. If override is non-empty it
// is used as the .docuwatch/ directory; otherwise the standard dotdir
// resolution applies.
func NewManager(override string) (*Manager, error) {
	ddm := dotdir.NewManager()

	target, err := ddm.Target(override)
	if err != nil {
		return nil, err
	}

	return &Manager{
		targetPath: filepath.Join(target, credentialsFile),
	}, nil
}

// Path returns the absolute path of the credentials file.
func (m *Manager) Path() string {
	return m.targetPath
}

// Load reads credentials.toml. Returns empty Credentials if the file does
// not exist.
func (m *Manager) Load() (*Credentials, error) {
	data, err := os.ReadFile(m.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Credentials{Version: currentVersion}, nil
		}
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	creds := &Credentials{}
	if err := toml.Unmarshal(data, creds); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}

	return creds, nil
}

// Save writes credentials to credentials.toml with 0600 permissions.
func (m *Manager) Save(creds *Credentials) error {
	if creds == nil {
		return errors.New("cannot save nil credentials")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(creds); err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	if err := os.WriteFile(m.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}

	return nil
}

// SetToken stores a bearer token for the given server.
func (m *Manager) SetToken(server, token string) error {
	creds, err := m.Load()
	if err != nil {
		return err
	}

	creds.Version = currentVersion
	creds.Server = server
	creds.Token = token

	return m.Save(creds)
}

// Token returns the stored bearer token, preferring the DOCUWATCH_TOKEN
// environment variable when set. An empty string means no credential is
// available.
func (m *Manager) Token() (string, error) {
	if tok := os.Getenv(EnvToken); tok != "" {
		return tok, nil
	}

	creds, err := m.Load()
	if err != nil {
		return "", err
	}

	return creds.Token, nil
}
