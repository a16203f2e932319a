package errors

// Builder provides a fluent API for creating Classified instances.
// This makes error creation consistent and discoverable throughout the codebase.
type Builder struct {
	category Category
	severity Severity
	message  string
	cause    error
	context  Context
}

// New creates a new Builder with the specified category and message.
func New(category Category, message string) *Builder {
	return &Builder{
		category: category,
		severity: SeverityError,
		message:  message,
		context:  make(Context),
	}
}

// Wrap creates a new Builder that wraps an existing error.
func Wrap(err error, category Category, message string) *Builder {
	b := New(category, message)
	b.cause = err
	return b
}

// WithSeverity sets the error severity.
func (b *Builder) WithSeverity(severity Severity) *Builder {
	b.severity = severity
	return b
}

// WithContext adds a context key-value pair.
func (b *Builder) WithContext(key string, value any) *Builder {
	b.context = b.context.Set(key, value)
	return b
}

// Fatal sets the severity to fatal.
func (b *Builder) Fatal() *Builder { return b.WithSeverity(SeverityFatal) }

// Warning sets the severity to warning.
func (b *Builder) Warning() *Builder { return b.WithSeverity(SeverityWarning) }

// Build creates the final Classified error.
func (b *Builder) Build() *Classified {
	return &Classified{
		category: b.category,
		severity: b.severity,
		message:  b.message,
		cause:    b.cause,
		context:  b.context,
	}
}

// Convenience constructors for common error patterns

// ConfigError creates a configuration error (fatal at pipeline construction).
func ConfigError(message string) *Builder {
	return New(CategoryConfig, message).Fatal()
}

// ValidationError creates a content validation error.
func ValidationError(message string) *Builder {
	return New(CategoryValidation, message)
}

// ReaderError creates a reader failure error.
func ReaderError(message string) *Builder {
	return New(CategoryReader, message)
}

// TemplateError creates a template lookup or render error.
func TemplateError(message string) *Builder {
	return New(CategoryTemplate, message).Fatal()
}

// WriteError creates an output collision error.
func WriteError(message string) *Builder {
	return New(CategoryWrite, message).Fatal()
}

// CacheError creates a cache error (recovered as a miss by callers).
func CacheError(message string) *Builder {
	return New(CategoryCache, message).Warning()
}

// LinkError creates a link resolution error.
func LinkError(message string) *Builder {
	return New(CategoryLink, message).Warning()
}

// FileSystemError creates a filesystem error.
func FileSystemError(message string) *Builder {
	return New(CategoryFileSystem, message)
}

// InternalError creates an internal error.
func InternalError(message string) *Builder {
	return New(CategoryInternal, message).Fatal()
}
