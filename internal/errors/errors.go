// Package errors provides classified errors for the build pipeline.
//
// Every error carries a category (what subsystem failed), a severity
// (whether the build can continue) and a context map holding at least the
// originating source path or template name.
package errors

import (
	"errors"
	"fmt"
	"maps"
)

// Category represents the broad category of an error for classification and routing.
type Category string

const (
	// CategoryConfig represents user-facing configuration errors. Fatal at
	// pipeline construction.
	CategoryConfig Category = "config"
	// CategoryValidation covers content that fails its kind's contract
	// (missing mandatory metadata, disallowed status, output escape).
	CategoryValidation Category = "validation"
	// CategoryReader covers failures raised by a source file reader.
	CategoryReader Category = "reader"
	// CategoryTemplate covers template lookup and render failures.
	CategoryTemplate Category = "template"
	// CategoryWrite covers output collisions (double writes).
	CategoryWrite Category = "write"
	// CategoryCache covers unreadable cache blobs; recovered as a miss.
	CategoryCache Category = "cache"
	// CategoryLink covers unresolvable intra-site references.
	CategoryLink Category = "link"

	CategoryFileSystem Category = "filesystem"
	CategoryInternal   Category = "internal"
)

// Severity indicates the impact level of an error.
type Severity string

const (
	SeverityFatal   Severity = "fatal"   // Stops the build completely
	SeverityError   Severity = "error"   // Fails the current item, build continues
	SeverityWarning Severity = "warning" // Continues with degraded output
)

// Context carries structured key/value metadata on an error.
type Context map[string]any

// Set returns a copy with key set.
func (c Context) Set(key string, value any) Context {
	out := make(Context, len(c)+1)
	maps.Copy(out, c)
	out[key] = value
	return out
}

// Classified is a structured error with category, severity, and context.
type Classified struct {
	category Category
	severity Severity
	message  string
	cause    error
	context  Context
}

// Error implements the standard error interface.
func (e *Classified) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.category, e.severity, e.message, e.cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.category, e.severity, e.message)
}

// Unwrap implements error unwrapping.
func (e *Classified) Unwrap() error { return e.cause }

func (e *Classified) Category() Category { return e.category }
func (e *Classified) Severity() Severity { return e.severity }
func (e *Classified) Message() string    { return e.message }
func (e *Classified) Context() Context   { return e.context }

// IsCategory checks if the error belongs to a specific category.
func (e *Classified) IsCategory(category Category) bool { return e.category == category }

// IsFatal checks if the error should stop the build.
func (e *Classified) IsFatal() bool { return e.severity == SeverityFatal }

// Is implements error comparison: two classified errors match when their
// category and message agree.
func (e *Classified) Is(target error) bool {
	if other, ok := target.(*Classified); ok {
		return e.category == other.category && e.message == other.message
	}
	return false
}

// AsClassified extracts a Classified from an error chain.
func AsClassified(err error) (*Classified, bool) {
	var ce *Classified
	ok := errors.As(err, &ce)
	return ce, ok
}

// IsCategory reports whether err (anywhere in its chain) carries the category.
func IsCategory(err error, category Category) bool {
	ce, ok := AsClassified(err)
	return ok && ce.IsCategory(category)
}
