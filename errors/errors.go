package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Fatal indicates the error terminates the pipeline.
	Fatal bool `json:"fatal"`
	// ExitCode is the recommended process exit status for this error.
	ExitCode int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with fatal and exit code derived from the code.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		Fatal:    IsFatalCode(code),
		ExitCode: ExitCodeFor(code),
	}
}

// Newf is New with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// --- Common Error Constructors ---

// Configuration creates an error for inconsistent or missing operator arguments.
func Configuration(operator, reason string) *AppError {
	err := New(ErrCodeConfiguration, reason)
	if operator != "" {
		err.Message = fmt.Sprintf("%s: %s", operator, reason)
		err.WithDetail("operator", operator)
	}
	return err
}

// Composition creates an error for a malformed pipeline description.
// pos is the zero-based index of the offending token, or -1 when the
// error concerns the sequence as a whole.
func Composition(pos int, token, reason string) *AppError {
	err := New(ErrCodeComposition, reason)
	if pos >= 0 {
		err.Message = fmt.Sprintf("token %d (%q): %s", pos, token, reason)
		err.WithDetails(map[string]any{"position": pos, "token": token})
	}
	return err
}

// DataShape creates the non-fatal warning for a ragged row.
func DataShape(line, got, want int) *AppError {
	return New(ErrCodeDataShape,
		fmt.Sprintf("wrong number of columns (%d) in line %d, expected %d", got, line, want),
	).WithDetails(map[string]any{"line": line, "got": got, "want": want})
}

// InvalidData creates an error for a field value an operator cannot use.
func InvalidData(operator, reason string) *AppError {
	return New(ErrCodeInvalidData, fmt.Sprintf("%s: %s", operator, reason)).
		WithDetail("operator", operator)
}

// ResourceExhausted creates an error for an exceeded safety limit.
func ResourceExhausted(resource string, limit int) *AppError {
	return New(ErrCodeResourceExhausted,
		fmt.Sprintf("too many %s created, limit=%d", resource, limit),
	).WithDetails(map[string]any{"resource": resource, "limit": limit})
}

// IO creates an error for a failed read or write of a table.
func IO(path string, cause error) *AppError {
	return New(ErrCodeIO, fmt.Sprintf("i/o failure on %s", path)).
		WithDetail("path", path).
		WithCause(cause)
}

// Internal creates an error for an unexpected failure.
func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "unexpected failure").WithCause(cause)
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the code of the first AppError in err's chain, or
// ErrCodeInternal for foreign errors.
func CodeOf(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

// Wrap converts any error into an AppError, returning existing AppErrors unchanged.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Internal(err)
}
