package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks malformed input rejected before any mutation.
	ErrValidation = errors.New("validation error")
	// ErrConflict marks an attempted second concurrently-active step for a work order.
	ErrConflict = errors.New("conflict error")
	// ErrDataStore marks an underlying read or write failure, fatal for the call.
	ErrDataStore = errors.New("data store error")
	// ErrConfiguration marks unusable configuration or settings values.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks a lookup that resolved to no record.
	ErrNotFound = errors.New("not found")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrDataStore
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether the caller may usefully retry after resolving
// state on its side. Conflicts clear once the other step is paused or
// completed; validation and store failures do not.
func Retryable(err error) bool {
	return errors.Is(err, ErrConflict)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
