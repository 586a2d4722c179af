package db

import "strings"

// Unique violation markers for the drivers the repository runs against:
// Postgres in production, SQLite in the test suite.
var uniqueViolationMarkers = []string{
	"duplicate key value",      // postgres
	"UNIQUE constraint failed", // sqlite
}

// IsUniqueViolation reports whether the provided error references a
// unique-index violation. When constraintName is given, the helper also
// requires the constraint text to appear in the error message.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()

	violated := false
	for _, marker := range uniqueViolationMarkers {
		if strings.Contains(msg, marker) {
			violated = true
			break
		}
	}
	if !violated {
		return false
	}
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return true
}
