package xl

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents standard spreadsheet error codes following
// Excel conventions
type ErrorCode uint8

const (
	ErrorCodeNull  ErrorCode = 1 // #NULL! - no cells in common between ranges
	ErrorCodeDiv0  ErrorCode = 2 // #DIV/0! - division by zero
	ErrorCodeValue ErrorCode = 3 // #VALUE! - wrong type of argument or operand
	ErrorCodeRef   ErrorCode = 4 // #REF! - invalid cell reference
	ErrorCodeName  ErrorCode = 5 // #NAME? - unrecognized function name
	ErrorCodeNum   ErrorCode = 6 // #NUM! - number too large or small to be represented
	ErrorCodeNA    ErrorCode = 7 // #N/A - value not available, wrong argument count
)

// ErrorMapper maps error codes to their display strings
var ErrorMapper = map[ErrorCode]string{
	ErrorCodeNull:  "#NULL!",
	ErrorCodeDiv0:  "#DIV/0!",
	ErrorCodeValue: "#VALUE!",
	ErrorCodeRef:   "#REF!",
	ErrorCodeName:  "#NAME?",
	ErrorCodeNum:   "#NUM!",
	ErrorCodeNA:    "#N/A",
}

func (c ErrorCode) String() string {
	if s, ok := ErrorMapper[c]; ok {
		return s
	}
	return fmt.Sprintf("ErrorCode(%d)", uint8(c))
}

// ParseErrorCode maps display text such as "#N/A" back to its code
func ParseErrorCode(s string) (ErrorCode, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for code, display := range ErrorMapper {
		if display == s {
			return code, true
		}
	}
	return 0, false
}

// Error is a spreadsheet error value. it is returned like any other cell
// value and is never used for control flow.
type Error struct {
	Code    ErrorCode
	Message string
}

func (Error) arg()       {}
func (Error) Kind() Kind { return KindError }

// String returns the display form of the error, e.g. "#VALUE!"
func (e Error) String() string {
	return e.Code.String()
}

func (e Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code.String()
}

// Is matches any other Error with the same code so that errors.Is works
// regardless of message
func (e Error) Is(target error) bool {
	t, ok := target.(Error)
	return ok && t.Code == e.Code
}

// NewError builds an error value, optionally formatting a message
func NewError(code ErrorCode, format string, args ...any) Error {
	message := format
	if len(args) > 0 {
		message = fmt.Sprintf(format, args...)
	}
	return Error{Code: code, Message: message}
}

func ValueError(format string, args ...any) Error { return NewError(ErrorCodeValue, format, args...) }
func NumError(format string, args ...any) Error   { return NewError(ErrorCodeNum, format, args...) }
func Div0Error(format string, args ...any) Error  { return NewError(ErrorCodeDiv0, format, args...) }
func RefError(format string, args ...any) Error   { return NewError(ErrorCodeRef, format, args...) }
func NameError(format string, args ...any) Error  { return NewError(ErrorCodeName, format, args...) }
func NAError(format string, args ...any) Error    { return NewError(ErrorCodeNA, format, args...) }

// AppErrorCode represents gRPC-style error codes for application-level
// errors. these never appear in a cell, they describe misuse of the engine.
type AppErrorCode int

const (
	// OK indicates the operation completed successfully.
	OK AppErrorCode = 0

	// InvalidArgument indicates the caller specified an invalid argument,
	// e.g. a malformed parameter list at registration.
	InvalidArgument AppErrorCode = 3

	// NotFound means a requested entity (e.g., a sheet) was not found.
	NotFound AppErrorCode = 5

	// AlreadyExists means a function name was registered twice.
	AlreadyExists AppErrorCode = 6

	// ResourceExhausted means a request would read more data than allowed,
	// e.g. a whole-sheet range.
	ResourceExhausted AppErrorCode = 8

	// FailedPrecondition indicates the registry is not in a state required
	// for the operation, e.g. registering after Build.
	FailedPrecondition AppErrorCode = 9

	// Unimplemented indicates a parameter combination the function does not
	// support. the call is aborted instead of producing a cell value.
	Unimplemented AppErrorCode = 12

	// Internal errors. Means some invariants expected by underlying
	// system has been broken.
	Internal AppErrorCode = 13
)

// sentinels matched with errors.Is
var (
	ErrShape       = errors.New("xl: range rows must be non-empty and of equal length")
	ErrDuplicate   = errors.New("xl: function already registered")
	ErrFrozen      = errors.New("xl: registry already built")
	ErrUnsupported = errors.New("xl: unsupported parameter combination")
	ErrBadParams   = errors.New("xl: invalid parameter list")
)

// AppError represents errors at the application level (not
// spreadsheet formula errors)
type AppError struct {
	Code    AppErrorCode
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil && e.Message == "" {
		return e.Cause.Error()
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewApplicationError creates a new application error
func NewApplicationError(code AppErrorCode, cause error, format string, args ...any) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Unsupported reports a caller contract violation: a parameter value the
// function declares it cannot handle. the registry aborts the call with it.
func Unsupported(format string, args ...any) *AppError {
	return NewApplicationError(Unimplemented, ErrUnsupported, format, args...)
}
