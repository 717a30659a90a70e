package tracker

import (
	"sort"
	"strings"

	"timetracker/internal/metrics"
	"timetracker/internal/models"
)

// ErrNotFound is returned for missing entities and for entities owned by
// another user; callers never learn which.
var ErrNotFound = models.ErrNotFound

// Field error messages shared by the API and the web forms.
const (
	MsgRequired       = "This field is required."
	MsgTaskNotOwned   = "Task not found or you don't have permission to access it."
	MsgWorkedPositive = "Worked time must be greater than zero."
	MsgWorkedFloor    = "Ensure this value is greater than or equal to 00:01:00."
	MsgFutureDate     = "Record date cannot be in the future."
)

// ValidationError carries one message per rejected field.
type ValidationError struct {
	Fields map[string]string
}

// Add records msg for field unless the field already has a message.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; exists {
		return
	}
	e.Fields[field] = msg
}

// Has reports whether field already failed.
func (e *ValidationError) Has(field string) bool {
	_, ok := e.Fields[field]
	return ok
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// err returns nil when no field failed, so callers can return it directly.
func (e *ValidationError) err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	for field := range e.Fields {
		metrics.ValidationFailures.WithLabelValues(field).Inc()
	}
	return e
}
