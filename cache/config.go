package cache

import "time"

// Config holds the cache policy for the guest resource: key prefix and the
// TTL of each namespace.
type Config struct {
	Prefix     string
	ListTTL    time.Duration
	DetailTTL  time.Duration
	StatsTTL   time.Duration
	HistoryTTL time.Duration
}

// DefaultConfig returns the stock namespace TTLs.
func DefaultConfig() Config {
	return Config{
		Prefix:     "guests",
		ListTTL:    5 * time.Minute,
		DetailTTL:  10 * time.Minute,
		StatsTTL:   3 * time.Minute,
		HistoryTTL: 5 * time.Minute,
	}
}

// MaxTTL returns the longest namespace TTL. In-process backends size their
// own expiry from it.
func (c Config) MaxTTL() time.Duration {
	return max(c.ListTTL, c.DetailTTL, c.StatsTTL, c.HistoryTTL)
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	if c.Prefix == "" {
		return &ConfigError{Field: "Prefix", Message: "cannot be empty"}
	}
	for _, ttl := range []struct {
		field string
		value time.Duration
	}{
		{"ListTTL", c.ListTTL},
		{"DetailTTL", c.DetailTTL},
		{"StatsTTL", c.StatsTTL},
		{"HistoryTTL", c.HistoryTTL},
	} {
		if ttl.value <= 0 {
			return &ConfigError{Field: ttl.field, Message: "must be greater than 0"}
		}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}
