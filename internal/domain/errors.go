package domain

import "fmt"

// Configuration error kinds.
const (
	KindBasin    = "basin"
	KindQuantity = "quantity"
	KindProduct  = "product"
	KindLayer    = "layer"
	KindYears    = "years"
)

// ConfigError reports a configuration mistake such as an unknown basin name.
// It is never a data condition and is not retried.
type ConfigError struct {
	Kind  string
	Value string
	Msg   string
}

func (e *ConfigError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("invalid %s %q: %s", e.Kind, e.Value, e.Msg)
	}
	return fmt.Sprintf("unknown %s %q", e.Kind, e.Value)
}

// FileAccessError reports an expected source file that could not be opened or read.
type FileAccessError struct {
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("cannot read %s: %v", e.Path, e.Err)
}

func (e *FileAccessError) Unwrap() error {
	return e.Err
}

// TimeUnitsError reports a time axis whose units or calendar cannot be decoded.
type TimeUnitsError struct {
	Units    string
	Calendar string
	Msg      string
}

func (e *TimeUnitsError) Error() string {
	if e.Calendar != "" {
		return fmt.Sprintf("cannot decode time units %q (calendar %q): %s", e.Units, e.Calendar, e.Msg)
	}
	return fmt.Sprintf("cannot decode time units %q: %s", e.Units, e.Msg)
}
