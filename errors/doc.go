// Package errors provides the error taxonomy shared by every tabletool package.
// Each failure is an AppError carrying a machine-readable code, a message, a
// fatal flag, a process exit code and structured details for logging.
package errors
