package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Common validation errors
var (
	ErrInvalidUUID   = fmt.Errorf("invalid UUID format")
	ErrInvalidSymbol = fmt.Errorf("invalid security symbol")
	ErrEmptySlice    = fmt.Errorf("slice cannot be empty")
)

// Error is a validation failure carrying per-field messages.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

// symbolPattern matches exchange ticker symbols: 1-16 uppercase letters or
// digits after canonicalization.
var symbolPattern = regexp.MustCompile(`^[A-Z0-9]{1,16}$`)

// ValidateUUID checks if a string is a valid UUID
func ValidateUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidUUID, id)
	}
	return nil
}

// ValidateSymbol checks that a security symbol is well-formed.
func ValidateSymbol(symbol string) error {
	canonical := strings.ToUpper(strings.TrimSpace(symbol))
	if !symbolPattern.MatchString(canonical) {
		return fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	return nil
}
