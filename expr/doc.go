// Package expr compiles per-row expressions into sandboxed starlark
// lambdas.
//
// An expression whose text starts with '?' is a filter; any other
// expression is a generator. For each row the expressions run left to
// right: a false filter drops the row, and a generator appends one output
// field, or one field per element when it yields a list or tuple. With no
// generators the input passes through unchanged.
//
// Unary programs see the current row as IN; binary programs, used to shape
// join output, see IN1 and IN2. Rows are tuples of strings. Besides the
// starlark universe the predeclared names are math and the helpers num,
// lower, upper, strip, join, split and contains. There is no I/O and no
// load(); each evaluation is bounded by a step budget.
package expr
