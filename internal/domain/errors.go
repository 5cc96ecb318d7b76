package domain

import (
	"errors"
	"fmt"
)

// Category sentinels. Adapters wrap these so that callers can classify a
// failure with errors.Is without knowing which backend produced it.
var (
	ErrNotFound         = fmt.Errorf("not found")
	ErrInvalidParameter = fmt.Errorf("invalid parameter")
	ErrDeserialization  = fmt.Errorf("deserialization failed")
	ErrPermissionDenied = fmt.Errorf("permission denied")
	ErrConfigLoad       = fmt.Errorf("failed to load configuration")
)

// Operation sentinels for the book store.
var (
	ErrBookSave   = fmt.Errorf("book save failed")
	ErrBookLoad   = fmt.Errorf("book load failed")
	ErrBookDelete = fmt.Errorf("book delete failed")
)

// DomainError wraps a sentinel error with context.
type DomainError struct {
	Op     string // operation name (e.g., "FileStore.Save")
	Err    error  // underlying sentinel
	Detail string // human-readable detail
	Cause  error  // optional lower-level error, also matched by errors.Is
}

func (e *DomainError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

// Unwrap exposes both the sentinel and the cause to errors.Is / errors.As.
func (e *DomainError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// NewDomainError creates a new DomainError.
func NewDomainError(op string, err error, detail string) *DomainError {
	return &DomainError{Op: op, Err: err, Detail: detail}
}

// CauseError creates a DomainError whose detail is taken from cause and
// which keeps cause reachable through errors.Is.
func CauseError(op string, err error, cause error) *DomainError {
	de := &DomainError{Op: op, Err: err, Cause: cause}
	if cause != nil {
		de.Detail = cause.Error()
	}
	return de
}

// ErrorCode is a machine-parseable error category for log attributes.
type ErrorCode string

const (
	CodeUnknown          ErrorCode = "UNKNOWN"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeInvalidParameter ErrorCode = "INVALID_PARAMETER"
	CodeDeserialization  ErrorCode = "DESERIALIZATION"
	CodePermissionDenied ErrorCode = "PERMISSION_DENIED"
	CodeConfigLoad       ErrorCode = "CONFIG_LOAD"
	CodeBookSave         ErrorCode = "BOOK_SAVE"
	CodeBookLoad         ErrorCode = "BOOK_LOAD"
	CodeBookDelete       ErrorCode = "BOOK_DELETE"
)

var errorCodeMap = map[error]ErrorCode{
	ErrNotFound:         CodeNotFound,
	ErrInvalidParameter: CodeInvalidParameter,
	ErrDeserialization:  CodeDeserialization,
	ErrPermissionDenied: CodePermissionDenied,
	ErrConfigLoad:       CodeConfigLoad,
	ErrBookSave:         CodeBookSave,
	ErrBookLoad:         CodeBookLoad,
	ErrBookDelete:       CodeBookDelete,
}

// codePriority orders the chain walk so that the most specific category wins
// when an error matches several sentinels.
var codePriority = []error{
	ErrNotFound,
	ErrDeserialization,
	ErrPermissionDenied,
	ErrBookSave,
	ErrBookLoad,
	ErrBookDelete,
	ErrInvalidParameter,
	ErrConfigLoad,
}

// ErrorCodeOf returns the machine-parseable error code for the given error.
// Returns CodeUnknown if no matching sentinel is found.
func ErrorCodeOf(err error) ErrorCode {
	if err == nil {
		return CodeUnknown
	}
	if code, ok := errorCodeMap[err]; ok {
		return code
	}
	var de *DomainError
	if errors.As(err, &de) {
		if code, ok := errorCodeMap[de.Err]; ok {
			return code
		}
	}
	for _, sentinel := range codePriority {
		if errors.Is(err, sentinel) {
			return errorCodeMap[sentinel]
		}
	}
	return CodeUnknown
}
