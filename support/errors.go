package support

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration is matched by every error reporting a mining
// parameter that cannot be used, such as an unrecognized minimum support
// or a non-positive number of partitions.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ConfigurationError describes which parameter was rejected and why.
type ConfigurationError struct {
	Parameter string
	Value     string
	Reason    string
}

// NewConfigurationError returns a ConfigurationError for the given parameter,
// offending value and reason.
func NewConfigurationError(parameter, value, reason string) *ConfigurationError {
	return &ConfigurationError{Parameter: parameter, Value: value, Reason: reason}
}

func (e *ConfigurationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%v: %s: %s", ErrInvalidConfiguration, e.Parameter, e.Reason)
	}
	return fmt.Sprintf("%v: %s %q: %s", ErrInvalidConfiguration, e.Parameter, e.Value, e.Reason)
}

// Is reports whether target is ErrInvalidConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

// ValidatePartitions returns a ConfigurationError unless n is at least 1.
func ValidatePartitions(n int) error {
	if n < 1 {
		return NewConfigurationError("partitions", fmt.Sprintf("%d", n), "must be at least 1")
	}
	return nil
}
