package promptledger

import (
	"errors"
	"fmt"

	"github.com/xraph/promptledger/program"
	"github.com/xraph/promptledger/runtime"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrInvalidInput = errors.New("promptledger: invalid input")

	// Account errors
	ErrAccountNotFound = errors.New("promptledger: account not found")
	ErrUserNotFound    = errors.New("promptledger: user record not found")
	ErrNotUserRecord   = errors.New("promptledger: account is not a user record")

	// Transition errors
	ErrSignatureRequired = errors.New("promptledger: signed transaction required")

	// Journal errors
	ErrJournalBufferFull = errors.New("promptledger: interaction journal buffer full")
	ErrDuplicateEvent    = errors.New("promptledger: duplicate interaction event")

	// Store errors
	ErrStoreNotReady     = errors.New("promptledger: store not ready")
	ErrStoreClosed       = errors.New("promptledger: store is closed")
	ErrTransactionFailed = errors.New("promptledger: transaction failed")
	ErrMigrationFailed   = errors.New("promptledger: migration failed")

	// Config errors
	ErrMissingProgramID = errors.New("promptledger: program id not configured")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("promptledger: validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e ValidationError) Unwrap() error { return ErrInvalidInput }

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "promptledger: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("promptledger: %d errors occurred", len(e.Errors))
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error { return e.Errors }

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsProgramError returns true if the error was raised by the ledger program
// itself (a rule or constraint violation) rather than by the host.
func IsProgramError(err error) bool {
	_, ok := program.AsError(err)
	return ok || errors.Is(err, program.ErrAccountAlreadyInitialized)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrJournalBufferFull) ||
		errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrTransactionFailed) ||
		errors.Is(err, runtime.ErrCommitFailed)
}
