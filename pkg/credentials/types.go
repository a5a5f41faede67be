package credentials

// Credentials is the on-disk shape of credentials.toml.
type Credentials struct {
	Version int `toml:"version"`

	// Server is the backend the token belongs to, for display and sanity
	// checks; the client's target still comes from config.
	Server string `toml:"server,omitempty"`

	// Token is the bearer credential attached to every connection.
	Token string `toml:"token"`
}
