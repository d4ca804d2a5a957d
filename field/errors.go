package field

import (
	"errors"
	"fmt"
)

var (
	ErrNoGeometry      = errors.New("field has no bounding geometry")
	ErrUnsupportedKind = errors.New("unsupported field kind")
)

// ConfigError reports a field that cannot be evaluated at all. It is fatal
// for that field until the field is edited.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("field %q: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
