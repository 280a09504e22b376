package options

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfigExists is returned by WriteDefault when the file is already there.
var ErrConfigExists = errors.New("config file already exists")

// ValidationError reports a bad option value. It is always fatal.
type ValidationError struct {
	Flag   string // Flag name without dashes.
	Value  string
	Source string // Layer that supplied the value; empty for CLI flags.
	Reason string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid --%s value %q: %s", e.Flag, e.Value, e.Reason)
	if e.Source != "" {
		msg += " (from " + e.Source + ")"
	}
	return msg
}

// NotFoundError reports an unknown preset or environment name.
type NotFoundError struct {
	Kind      string // "preset" or "environment".
	Name      string
	Available []string
}

func (e *NotFoundError) Error() string {
	available := "none"
	if len(e.Available) > 0 {
		available = strings.Join(e.Available, ", ")
	}
	return fmt.Sprintf("unknown %s %q (available: %s)", e.Kind, e.Name, available)
}
