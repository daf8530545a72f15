package consistency

import (
	"strings"
)

// Error codes used in OperationResult errors.
const (
	CodeValidation   = "ValidationError"
	CodeDuplicateKey = "DuplicateKey"
	CodeNotFound     = "NotFound"
	CodeStoreFailure = "StoreFailure"
	// CodeCanceled is reserved: cancellation is returned as context.Canceled and never
	// placed inside an OperationResult.
	CodeCanceled = "Canceled"
)

const codeUnknown = "Unknown"

// Error is a single structured failure carried by an OperationResult.
type Error struct {
	Code        string
	Description string
}

// OperationResult is the outcome of a mutating Manager operation.
//
// The zero value is neither a success nor a failure and is only returned together
// with a non-nil error.
type OperationResult struct {
	succeeded bool
	errors    []Error
}

var success = OperationResult{succeeded: true}

// Success returns a successful result with no errors.
func Success() OperationResult {
	return success
}

// Failed returns a failed result carrying the provided errors.
// A call without errors records a single Unknown error so that a failed result never
// has an empty error list.
func Failed(errs ...Error) OperationResult {
	if len(errs) == 0 {
		errs = []Error{{Code: codeUnknown, Description: "An unknown failure has occurred."}}
	}
	out := make([]Error, len(errs))
	copy(out, errs)

	return OperationResult{errors: out}
}

// Succeeded reports whether the operation succeeded.
func (r OperationResult) Succeeded() bool {
	return r.succeeded
}

// Errors returns a copy of the result errors in order.
func (r OperationResult) Errors() []Error {
	if len(r.errors) == 0 {
		return nil
	}
	out := make([]Error, len(r.errors))
	copy(out, r.errors)

	return out
}

// HasCode reports whether any error in the result carries the code.
func (r OperationResult) HasCode(code string) bool {
	for _, e := range r.errors {
		if e.Code == code {
			return true
		}
	}

	return false
}

// Err converts a failed result into an error. It returns nil for a successful result.
func (r OperationResult) Err() error {
	if r.succeeded || len(r.errors) == 0 {
		return nil
	}

	return &ResultError{Errors: r.Errors()}
}

// String renders "Succeeded" or "Failed : code1,code2".
func (r OperationResult) String() string {
	if r.succeeded {
		return "Succeeded"
	}
	codes := make([]string, 0, len(r.errors))
	for _, e := range r.errors {
		codes = append(codes, e.Code)
	}

	return "Failed : " + strings.Join(codes, ",")
}

// ResultError wraps the errors of a failed OperationResult.
type ResultError struct {
	Errors []Error
}

// Error implements error.
func (e *ResultError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, item := range e.Errors {
		parts = append(parts, item.Code+": "+item.Description)
	}

	return "consistency: " + strings.Join(parts, "; ")
}
