package port

// KV is the host environment's persistent string-keyed store. Drivers are
// expected to survive process restarts (best effort) and to be safe for
// use from multiple goroutines.
type KV interface {
	// GetItem returns the stored value and whether the key exists.
	GetItem(key string) (string, bool, error)

	// SetItem stores or replaces a value.
	SetItem(key, value string) error

	// RemoveItem deletes a key. Removing a missing key is not an error.
	RemoveItem(key string) error

	// Keys lists stored keys with the given prefix.
	Keys(prefix string) ([]string, error)

	// Connection management
	Close() error
}
