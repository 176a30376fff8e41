package thumbcrop

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidConfig is returned (wrapped in a *ConfigError) for malformed
	// pixel buffers, non-positive target dimensions and invalid analyzer settings.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNoCandidate is returned when no crop window fits inside the image.
	ErrNoCandidate = errors.New("no crop candidate found")
)

// ConfigError describes which setting was rejected and why.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s %s", ErrInvalidConfig, e.Field, e.Reason)
}

// Unwrap makes errors.Is(err, ErrInvalidConfig) hold for every *ConfigError.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

func configErrorf(field, format string, args ...interface{}) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
