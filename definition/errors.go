package definition

import "fmt"

// ConfigurationError reports an invalid or incomplete target or strategy.
// Key is empty when the problem is not tied to one convention key.
type ConfigurationError struct {
	Key            ConventionKey
	InstrumentType InstrumentType
	Reason         string
}

func (e *ConfigurationError) Error() string {
	msg := "configuration error"
	if e.Key != "" {
		msg += fmt.Sprintf(": key %q", string(e.Key))
	}
	if e.InstrumentType != "" {
		msg += fmt.Sprintf(" (instrument %s)", e.InstrumentType)
	}
	return msg + ": " + e.Reason
}

func configError(key ConventionKey, it InstrumentType, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Key: key, InstrumentType: it, Reason: fmt.Sprintf(format, args...)}
}
