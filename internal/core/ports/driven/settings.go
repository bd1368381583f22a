package driven

// SettingsStore persists operator-level settings that live outside the
// pipeline config file (default data directory, worker count,
// verbosity). Keys use dot notation for nested values.
type SettingsStore interface {
	// Get retrieves a value by key, reporting whether it exists.
	Get(key string) (any, bool)

	// GetString retrieves a string value, or "" if unset.
	GetString(key string) string

	// GetInt retrieves an integer value, or 0 if unset.
	GetInt(key string) int

	// GetBool retrieves a boolean value, or false if unset.
	GetBool(key string) bool

	// Set stores a value and persists immediately.
	Set(key string, value any) error

	// Save persists the current settings to disk.
	Save() error
}
