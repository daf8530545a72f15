package consistency

import "fmt"

// Describer builds the user-facing errors placed in failed results.
type Describer interface {
	// MessageRequired describes a nil message argument.
	MessageRequired() Error
	// InvalidMessage describes a message rejected by a validator.
	InvalidMessage(reason error) Error
	// DuplicateKey describes an identity collision. id may be empty when the store
	// did not report it.
	DuplicateKey(id string) Error
	// NotFound describes a missing message.
	NotFound(id string) Error
	// StoreFailure describes a recognized backend failure.
	StoreFailure(err error) Error
}

// DefaultDescriber produces English descriptions.
type DefaultDescriber struct{}

var _ Describer = DefaultDescriber{}

// MessageRequired implements Describer.
func (DefaultDescriber) MessageRequired() Error {
	return Error{Code: CodeValidation, Description: "A message is required."}
}

// InvalidMessage implements Describer.
func (DefaultDescriber) InvalidMessage(reason error) Error {
	if reason == nil {
		return Error{Code: CodeValidation, Description: "The message is invalid."}
	}

	return Error{Code: CodeValidation, Description: fmt.Sprintf("The message is invalid: %v.", reason)}
}

// DuplicateKey implements Describer.
func (DefaultDescriber) DuplicateKey(id string) Error {
	if id == "" {
		return Error{Code: CodeDuplicateKey, Description: "A message with the same id already exists."}
	}

	return Error{Code: CodeDuplicateKey, Description: fmt.Sprintf("Message id '%s' already exists.", id)}
}

// NotFound implements Describer.
func (DefaultDescriber) NotFound(id string) Error {
	if id == "" {
		return Error{Code: CodeNotFound, Description: "The message does not exist."}
	}

	return Error{Code: CodeNotFound, Description: fmt.Sprintf("Message id '%s' does not exist.", id)}
}

// StoreFailure implements Describer.
func (DefaultDescriber) StoreFailure(err error) Error {
	if err == nil {
		return Error{Code: CodeStoreFailure, Description: "The message store failed."}
	}

	return Error{Code: CodeStoreFailure, Description: fmt.Sprintf("The message store failed: %v.", err)}
}
