package driven

// ConfigStore is the operator-editable configuration. Keys use dot notation
// ("pricing.hour"); typed getters return the zero value when a key is absent
// or holds another type.
type ConfigStore interface {
	// Get returns the raw value and whether the key is set.
	Get(key string) (any, bool)

	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool

	// GetStringSlice also accepts integer items, since caller IDs are
	// often numeric.
	GetStringSlice(key string) []string

	// Keys returns every set key in sorted order.
	Keys() []string

	// Set stores a value and writes the file. On a write failure the
	// previous value is restored.
	Set(key string, value any) error

	// Path is the backing file.
	Path() string
}
