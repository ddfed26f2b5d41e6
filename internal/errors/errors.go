package errors

import (
	"errors"
	"fmt"
	"strings"
)

// UserError represents an error with user-friendly message and suggestions
type UserError struct {
	Message     string   // User-friendly error message
	Suggestions []string // Possible solutions
	Err         error    // Underlying error (can be nil)
}

// Error implements the error interface
func (e *UserError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)

	if len(e.Suggestions) > 0 {
		sb.WriteString("\n\nPossible solutions:")
		for _, suggestion := range e.Suggestions {
			sb.WriteString("\n  • ")
			sb.WriteString(suggestion)
		}
	}

	if e.Err != nil {
		sb.WriteString("\n\nTechnical details: ")
		sb.WriteString(e.Err.Error())
	}

	return sb.String()
}

// Unwrap returns the underlying error
func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error
func NewUserError(message string, suggestions []string, err error) *UserError {
	return &UserError{
		Message:     message,
		Suggestions: suggestions,
		Err:         err,
	}
}

// IsUserError checks if an error is a UserError
func IsUserError(err error) bool {
	var userErr *UserError
	return errors.As(err, &userErr)
}

// Common error constructors for typical scenarios

// ConnectionError creates an error for connection failures
func ConnectionError(url string, err error) error {
	return NewUserError(
		fmt.Sprintf("Failed to connect to %s", url),
		[]string{
			"Check if the server is running",
			"Verify the URL is correct",
			"Check firewall settings",
			"Try: fetchtrace serve (to run the bundled demo server)",
		},
		err,
	)
}

// SourceNotFoundError creates an error for sources that cannot be opened
func SourceNotFoundError(source string, err error) error {
	return NewUserError(
		fmt.Sprintf("Cannot open source: %s", source),
		[]string{
			"Check if the path or URL is correct",
			"Verify you have read permissions",
			"For blob sources, check the store root (fetchtrace config show)",
		},
		err,
	)
}

// UnsupportedSchemeError creates an error for URLs no variant handles
func UnsupportedSchemeError(source string) error {
	return NewUserError(
		fmt.Sprintf("No remote file variant handles: %s", source),
		[]string{
			"Supported schemes: http://, https://, ws://, blob://, or a local path",
			"Check the URL for typos",
		},
		nil,
	)
}

// PatternError creates an error for malformed read patterns
func PatternError(pattern string, err error) error {
	return NewUserError(
		fmt.Sprintf("Invalid read pattern: %s", pattern),
		[]string{
			"Patterns are comma-separated steps like seek:100,read:80",
			"Offsets and lengths must be non-negative integers",
		},
		err,
	)
}

// ConfigError creates an error for configuration issues
func ConfigError(message string, err error) error {
	return NewUserError(
		message,
		[]string{
			"Check your config file at ~/.config/fetchtrace/fetchtrace.yaml",
			"Verify the YAML syntax is correct",
			"Try running 'fetchtrace config show' to see current settings",
			"Delete the config file to reset to defaults",
		},
		err,
	)
}
