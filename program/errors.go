package program

import (
	"errors"
	"fmt"
)

// Error is a program failure with a stable numeric code.
// Two Errors match under errors.Is when their codes are equal.
type Error struct {
	Code uint32
	Name string
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("program: %s (%d): %s", e.Name, e.Code, e.Msg)
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Ledger errors, numbered in declaration order from 6000.
var (
	ErrUnauthorizedAuthority = &Error{Code: 6000, Name: "UnauthorizedAuthority", Msg: "The provided authority does not match the user account owner."}
	ErrMathOverflow          = &Error{Code: 6001, Name: "MathOverflow", Msg: "Math overflow detected."}
	ErrInvalidFee            = &Error{Code: 6002, Name: "InvalidFee", Msg: "The provided fee must be greater than zero."}
)

// Instruction and account constraint errors.
var (
	ErrInstructionMissing           = &Error{Code: 100, Name: "InstructionMissing", Msg: "8 byte instruction identifier not provided"}
	ErrInstructionFallbackNotFound  = &Error{Code: 101, Name: "InstructionFallbackNotFound", Msg: "Fallback functions are not supported"}
	ErrInstructionDidNotDeserialize = &Error{Code: 102, Name: "InstructionDidNotDeserialize", Msg: "The program could not deserialize the given instruction"}
	ErrConstraintMut                = &Error{Code: 2000, Name: "ConstraintMut", Msg: "A mut constraint was violated"}
	ErrConstraintSeeds              = &Error{Code: 2006, Name: "ConstraintSeeds", Msg: "A seeds constraint was violated"}
	ErrAccountDiscriminatorMismatch = &Error{Code: 3002, Name: "AccountDiscriminatorMismatch", Msg: "Account discriminator did not match what was expected"}
	ErrAccountDidNotDeserialize     = &Error{Code: 3003, Name: "AccountDidNotDeserialize", Msg: "Failed to deserialize the account"}
	ErrAccountNotEnoughKeys         = &Error{Code: 3005, Name: "AccountNotEnoughKeys", Msg: "Not enough account keys given to the instruction"}
	ErrAccountOwnedByWrongProgram   = &Error{Code: 3007, Name: "AccountOwnedByWrongProgram", Msg: "The given account is owned by a different program than expected"}
	ErrInvalidProgramID             = &Error{Code: 3008, Name: "InvalidProgramId", Msg: "Program ID was not as expected"}
	ErrAccountNotSigner             = &Error{Code: 3010, Name: "AccountNotSigner", Msg: "The given account did not sign"}
	ErrAccountNotSystemOwned        = &Error{Code: 3011, Name: "AccountNotSystemOwned", Msg: "The given account is not owned by the system program"}
	ErrAccountNotInitialized        = &Error{Code: 3012, Name: "AccountNotInitialized", Msg: "The program expected this account to be already initialized"}
)

// ErrAccountAlreadyInitialized is returned when InitializeUser observes an
// existing record at the derived address.
var ErrAccountAlreadyInitialized = errors.New("program: user record already initialized")

// AsError extracts the *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsLedgerError reports whether err is one of the ledger's own 6000-range errors.
func IsLedgerError(err error) bool {
	pe, ok := AsError(err)
	return ok && pe.Code >= 6000
}
