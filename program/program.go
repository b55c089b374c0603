// Package program implements the interaction ledger's two state transitions.
//
// Transitions operate on account handles supplied by a host. Every check
// and every checked sum is evaluated before the single side effect the
// program requests from the host (the fee transfer), and record changes are
// written to an owned handle only after all fallible steps succeed. The host
// commits the working set as one unit, so a failed transition leaves no
// observable change.
//
// The package holds no locks; the host is expected to run one transition at
// a time to completion.
package program

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/xraph/promptledger/address"
	"github.com/xraph/promptledger/record"
)

// Account is the view of one storage slot handed to a transition.
type Account interface {
	Key() address.PublicKey
	Owner() address.PublicKey
	Data() []byte
	IsSigner() bool
	IsWritable() bool
	SetData(data []byte) error
}

// Host is the execution environment a transition runs in.
type Host interface {
	// Slot returns the current monotonic slot.
	Slot() uint64
	// Transfer moves lamports between two system-owned balances.
	Transfer(from, to Account, lamports uint64) error
	// CreateAccount allocates space bytes at acct and assigns it to owner.
	CreateAccount(acct Account, space int, owner address.PublicKey) error
	// Log appends a message to the transition's log.
	Log(msg string)
}

// InitializeUserAccounts are the accounts of an InitializeUser instruction, in order.
type InitializeUserAccounts struct {
	Authority     Account
	UserRecord    Account
	SystemProgram Account
}

// LogInteractionAccounts are the accounts of a LogInteraction instruction, in order.
type LogInteractionAccounts struct {
	Authority     Account
	UserRecord    Account
	Treasury      Account
	SystemProgram Account
}

// Program is the ledger state machine bound to one program identity.
type Program struct {
	deriver *address.Deriver
}

// New returns a Program that derives addresses with d.
func New(d *address.Deriver) *Program {
	return &Program{deriver: d}
}

// ID returns the program identity.
func (p *Program) ID() address.PublicKey { return p.deriver.ProgramID() }

// Deriver returns the address deriver bound to this program.
func (p *Program) Deriver() *address.Deriver { return p.deriver }

// Process decodes data and dispatches to the matching transition.
func (p *Program) Process(host Host, accounts []Account, data []byte) error {
	kind, args, err := Decode(data)
	if err != nil {
		return err
	}

	switch kind {
	case KindInitializeUser:
		if len(accounts) < InitializeUserAccountCount {
			return ErrAccountNotEnoughKeys
		}
		return p.InitializeUser(host, InitializeUserAccounts{
			Authority:     accounts[0],
			UserRecord:    accounts[1],
			SystemProgram: accounts[2],
		})

	case KindLogInteraction:
		if len(accounts) < LogInteractionAccountCount {
			return ErrAccountNotEnoughKeys
		}
		return p.LogInteraction(host, LogInteractionAccounts{
			Authority:     accounts[0],
			UserRecord:    accounts[1],
			Treasury:      accounts[2],
			SystemProgram: accounts[3],
		}, args)

	default:
		return ErrInstructionFallbackNotFound
	}
}

// InitializeUser creates the caller's ledger record at its derived address.
func (p *Program) InitializeUser(host Host, accts InitializeUserAccounts) error {
	host.Log("Instruction: InitializeUser")

	if err := requireSigner(accts.Authority); err != nil {
		return err
	}
	if err := requireWritable(accts.Authority, accts.UserRecord); err != nil {
		return err
	}
	if err := requireSystemProgram(accts.SystemProgram); err != nil {
		return err
	}

	authority := accts.Authority.Key()
	addr, bump := p.deriver.UserAddress(authority)
	if accts.UserRecord.Key() != addr {
		return fmt.Errorf("%w: user record %s, expected %s", ErrConstraintSeeds, accts.UserRecord.Key(), addr)
	}

	if accts.UserRecord.Owner() == p.ID() && record.IsInitialized(accts.UserRecord.Data()) {
		return ErrAccountAlreadyInitialized
	}

	if err := host.CreateAccount(accts.UserRecord, record.Size, p.ID()); err != nil {
		return err
	}

	return record.Store(accts.UserRecord, record.New(authority, bump))
}

// LogInteraction records one interaction against the caller's ledger and
// moves fee lamports from the caller into the treasury.
func (p *Program) LogInteraction(host Host, accts LogInteractionAccounts, args LogInteractionArgs) error {
	host.Log("Instruction: LogInteraction")

	if err := requireSigner(accts.Authority); err != nil {
		return err
	}
	if err := requireWritable(accts.Authority, accts.UserRecord, accts.Treasury); err != nil {
		return err
	}
	if err := requireSystemProgram(accts.SystemProgram); err != nil {
		return err
	}

	rec, err := p.loadUser(accts.UserRecord)
	if err != nil {
		return err
	}

	authority := accts.Authority.Key()
	if rec.Authority != authority {
		return fmt.Errorf("%w: record authority %s, signer %s", ErrUnauthorizedAuthority, rec.Authority, authority)
	}

	if err := p.deriver.VerifyProgramAddress([][]byte{address.UserSeed, authority[:]}, rec.Bump, accts.UserRecord.Key()); err != nil {
		return fmt.Errorf("%w: %v", ErrConstraintSeeds, err)
	}

	treasury, _ := p.deriver.TreasuryAddress()
	if accts.Treasury.Key() != treasury {
		return fmt.Errorf("%w: treasury %s, expected %s", ErrConstraintSeeds, accts.Treasury.Key(), treasury)
	}
	if accts.Treasury.Owner() != address.SystemProgramID {
		return ErrAccountNotSystemOwned
	}

	if args.Fee == 0 {
		return ErrInvalidFee
	}

	queries, carry := bits.Add64(rec.TotalQueries, 1, 0)
	if carry != 0 {
		return ErrMathOverflow
	}
	fees, carry := bits.Add64(rec.TotalFeesPaid, args.Fee, 0)
	if carry != 0 {
		return ErrMathOverflow
	}

	if err := host.Transfer(accts.Authority, accts.Treasury, args.Fee); err != nil {
		return err
	}

	rec.TotalQueries = queries
	rec.TotalFeesPaid = fees
	rec.LastPromptHash = args.PromptHash
	rec.LastResponseHash = args.ResponseHash
	rec.LastLogSlot = host.Slot()

	return record.Store(accts.UserRecord, rec)
}

// loadUser decodes the user record. A slot that holds no record yet is
// reported as an authority failure: nobody is bound to it.
func (p *Program) loadUser(acct Account) (record.UserLedger, error) {
	if len(acct.Data()) == 0 && acct.Owner() == address.SystemProgramID {
		return record.UserLedger{}, fmt.Errorf("%w: user record %s not initialized", ErrUnauthorizedAuthority, acct.Key())
	}

	rec, err := record.Load(acct, p.ID())
	switch {
	case err == nil:
		return rec, nil
	case errors.Is(err, record.ErrOwnerMismatch):
		return record.UserLedger{}, ErrAccountOwnedByWrongProgram
	case errors.Is(err, record.ErrNotInitialized):
		return record.UserLedger{}, ErrAccountNotInitialized
	case errors.Is(err, record.ErrDiscriminatorMismatch):
		return record.UserLedger{}, ErrAccountDiscriminatorMismatch
	default:
		return record.UserLedger{}, fmt.Errorf("%w: %v", ErrAccountDidNotDeserialize, err)
	}
}

func requireSigner(acct Account) error {
	if !acct.IsSigner() {
		return fmt.Errorf("%w: %s", ErrAccountNotSigner, acct.Key())
	}
	return nil
}

func requireWritable(accts ...Account) error {
	for _, a := range accts {
		if !a.IsWritable() {
			return fmt.Errorf("%w: %s", ErrConstraintMut, a.Key())
		}
	}
	return nil
}

func requireSystemProgram(acct Account) error {
	if acct.Key() != address.SystemProgramID {
		return fmt.Errorf("%w: %s", ErrInvalidProgramID, acct.Key())
	}
	return nil
}
