package onebeat

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is matched by every ConfigurationError.
	ErrConfiguration = errors.New("onebeat: configuration error")
	// ErrInvalidWindow indicates an empty or inverted report window.
	ErrInvalidWindow = errors.New("onebeat: invalid window")
	// ErrExportInProgress is returned when another run holds the company lock.
	ErrExportInProgress = errors.New("onebeat: export already running for company")
)

// ConfigurationError aborts an export before any data is computed.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("onebeat: invalid %s: %s", e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrConfiguration) match.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}
