package atlas

import "errors"

// Sentinel errors for the atlas package.
var (
	// ErrCapacityExceeded is returned when the required surface size
	// exceeds the configured maximum in either dimension. No mutation
	// occurs; the caller may retry after releasing slots.
	ErrCapacityExceeded = errors.New("atlas: required surface size exceeds configured maximum")

	// ErrPackingInfeasible is returned when the packer cannot place the
	// requested sprites even at the maximum permitted surface size.
	// Handled like ErrCapacityExceeded: no mutation, safe to retry.
	ErrPackingInfeasible = errors.New("atlas: sprites cannot be packed within the maximum surface size")

	// ErrNilProvider is returned when an allocator is constructed
	// without a surface provider.
	ErrNilProvider = errors.New("atlas: surface provider is nil")
)

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "atlas: invalid config." + e.Field + ": " + e.Reason
}
