// Package xl is the typed-argument engine behind the formula functions: the
// spreadsheet value model (numbers, text, booleans, blanks, errors and
// rectangular ranges), the coercion rules that turn host input into declared
// parameter types, and the registry that invokes functions by name.
//
// Spreadsheet errors are ordinary values. a call only returns a Go error
// when an implementation reports a contract violation, e.g. a parameter
// combination it does not implement.
package xl
