package errors

import (
	"errors"
	"fmt"
)

// Common error types shared across the BFF
var (
	// Session errors
	ErrInvalidToken = errors.New("invalid token")

	// Platform errors
	ErrUnknownPlatform = errors.New("unknown platform")

	// Storage errors
	ErrEmptyBrowserID = errors.New("browser id cannot be empty")
	ErrEmptyKey       = errors.New("key cannot be empty")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
