package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Setup errors, detected before any row is read.
const (
	// ErrCodeConfiguration indicates inconsistent or missing operator arguments.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
	// ErrCodeComposition indicates a malformed pipeline token sequence.
	ErrCodeComposition ErrorCode = "COMPOSITION_ERROR"
)

// Row processing errors
const (
	// ErrCodeDataShape indicates a row whose field count disagrees with its stream.
	ErrCodeDataShape ErrorCode = "DATA_SHAPE"
	// ErrCodeInvalidData indicates a field value an operator cannot interpret.
	ErrCodeInvalidData ErrorCode = "INVALID_DATA"
	// ErrCodeResourceExhausted indicates a safety limit was exceeded.
	ErrCodeResourceExhausted ErrorCode = "RESOURCE_EXHAUSTED"
)

// Environment errors
const (
	// ErrCodeIO indicates a failure reading or writing a table.
	ErrCodeIO ErrorCode = "IO_ERROR"
	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var nonFatalCodes = map[ErrorCode]bool{
	ErrCodeDataShape: true,
}

// IsFatalCode returns true if the code terminates the whole pipeline.
func IsFatalCode(code ErrorCode) bool {
	return !nonFatalCodes[code]
}

var exitCodes = map[ErrorCode]int{
	ErrCodeConfiguration:     2,
	ErrCodeComposition:       2,
	ErrCodeInvalidData:       3,
	ErrCodeResourceExhausted: 4,
	ErrCodeIO:                5,
}

// ExitCodeFor returns the process exit status the CLI uses for a code.
func ExitCodeFor(code ErrorCode) int {
	if c, ok := exitCodes[code]; ok {
		return c
	}
	return 1
}
