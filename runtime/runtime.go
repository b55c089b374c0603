// Package runtime is an in-process host for the ledger program.
//
// It resolves an instruction's accounts from storage into an arena, hands
// the program privileged handles, provides the system primitives (transfer,
// account creation, clock) and commits the arena's dirty accounts in one
// atomic store call. A failed instruction commits nothing.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/xraph/promptledger/account"
	"github.com/xraph/promptledger/address"
	"github.com/xraph/promptledger/id"
	"github.com/xraph/promptledger/program"
	"github.com/xraph/promptledger/types"
)

var (
	ErrInsufficientFunds     = errors.New("runtime: insufficient funds for transfer")
	ErrAccountAlreadyInUse   = errors.New("runtime: account already in use")
	ErrTransferFromNonSystem = errors.New("runtime: transfer source is not system-owned")
	ErrTransferToNonSystem   = errors.New("runtime: transfer destination is not system-owned")
	ErrTransferNotSigned     = errors.New("runtime: transfer source did not sign")
	ErrUnknownProgram        = errors.New("runtime: unknown program id")
	ErrExternalDataModified  = errors.New("runtime: instruction modified data of an account it does not own")
	ErrForeignHandle         = errors.New("runtime: account handle not issued by this runtime")
	ErrCommitFailed          = errors.New("runtime: commit failed")
	ErrInvalidAirdrop        = errors.New("runtime: airdrop amount must be positive")
)

// Store is the persistence the runtime needs.
type Store interface {
	account.Getter
	CommitAccounts(ctx context.Context, accounts []*account.Account) error
}

// Receipt describes a committed instruction.
type Receipt struct {
	ID        id.ReceiptID        `json:"id"`
	Slot      uint64              `json:"slot"`
	Signer    address.PublicKey   `json:"signer"`
	Signature string              `json:"signature,omitempty"`
	Kind      program.Kind        `json:"kind"`
	Logs      []string            `json:"logs"`
	Accounts  []address.PublicKey `json:"accounts"`

	// Committed holds the accounts as written by this instruction.
	Committed []*account.Account `json:"-"`
}

// Account returns the committed state of addr, if the instruction wrote it.
func (r *Receipt) Account(addr address.PublicKey) (*account.Account, bool) {
	for _, a := range r.Committed {
		if a.Address == addr {
			return a, true
		}
	}
	return nil, false
}

// Runtime executes ledger instructions one at a time.
type Runtime struct {
	mu      sync.Mutex
	store   Store
	program *program.Program
	clock   Clock
	logger  *slog.Logger
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithClock sets the slot source.
func WithClock(c Clock) Option {
	return func(r *Runtime) { r.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runtime) { r.logger = l }
}

// New returns a runtime hosting prog over s.
func New(s Store, prog *program.Program, opts ...Option) *Runtime {
	r := &Runtime{
		store:   s,
		program: prog,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.clock == nil {
		r.clock = NewManualClock(0)
	}
	return r
}

// Program returns the hosted program.
func (r *Runtime) Program() *program.Program { return r.program }

// Clock returns the slot source.
func (r *Runtime) Clock() Clock { return r.clock }

// Execute verifies tx's signatures and runs its instruction.
func (r *Runtime) Execute(ctx context.Context, tx *Transaction) (*Receipt, error) {
	if err := tx.Verify(); err != nil {
		return nil, err
	}

	receipt, err := r.Process(ctx, tx.Instruction)
	if err != nil {
		return nil, err
	}
	if sig, ok := tx.PrimarySignature(); ok {
		receipt.Signature = sig.String()
	}
	return receipt, nil
}

// Process runs ix trusting its signer flags as declared.
func (r *Runtime) Process(ctx context.Context, ix Instruction) (*Receipt, error) {
	if ix.ProgramID != r.program.ID() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProgram, ix.ProgramID)
	}

	kind, _, err := program.Decode(ix.Data)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	keys, flags := resolve(ix.Accounts)
	arena, err := account.Load(ctx, r.store, keys)
	if err != nil {
		return nil, err
	}

	handles := make([]program.Account, 0, len(ix.Accounts))
	for _, m := range ix.Accounts {
		f := flags[m.PublicKey]
		h, err := arena.Handle(m.PublicKey, f.signer, f.writable)
		if err != nil {
			return nil, err
		}
		handles = append(handles, h)
	}

	inv := &invocation{slot: r.clock.Slot()}
	if err := r.program.Process(inv, handles, ix.Data); err != nil {
		r.logger.Debug("instruction failed",
			"kind", kind.String(),
			"slot", inv.slot,
			"error", err,
		)
		return nil, err
	}

	dirty := arena.Dirty()
	for _, a := range dirty {
		if len(a.Data) > 0 && a.Owner != r.program.ID() {
			return nil, fmt.Errorf("%w: %s", ErrExternalDataModified, a.Address)
		}
	}

	if err := r.commit(ctx, dirty); err != nil {
		return nil, err
	}

	receipt := &Receipt{
		ID:   id.NewReceiptID(),
		Slot: inv.slot,
		Kind: kind,
		Logs: inv.logs,
	}
	if signers := ix.Signers(); len(signers) > 0 {
		receipt.Signer = signers[0]
	}
	for _, a := range dirty {
		receipt.Accounts = append(receipt.Accounts, a.Address)
		receipt.Committed = append(receipt.Committed, a.Clone())
	}

	r.logger.Debug("instruction committed",
		"kind", kind.String(),
		"slot", receipt.Slot,
		"accounts", len(dirty),
	)

	return receipt, nil
}

// Airdrop credits lamports to addr from outside the ledger and returns the
// new balance.
func (r *Runtime) Airdrop(ctx context.Context, addr address.PublicKey, lamports types.Lamports) (types.Lamports, error) {
	if lamports == 0 {
		return 0, ErrInvalidAirdrop
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	arena, err := account.Load(ctx, r.store, []address.PublicKey{addr})
	if err != nil {
		return 0, err
	}

	h, err := arena.Handle(addr, false, true)
	if err != nil {
		return 0, err
	}
	if err := h.Credit(lamports); err != nil {
		return 0, err
	}

	if err := r.commit(ctx, arena.Dirty()); err != nil {
		return 0, err
	}
	return h.Lamports(), nil
}

func (r *Runtime) commit(ctx context.Context, dirty []*account.Account) error {
	if len(dirty) == 0 {
		return nil
	}
	if err := r.store.CommitAccounts(ctx, dirty); err != nil {
		return fmt.Errorf("%w: %w", ErrCommitFailed, err)
	}
	return nil
}

type metaFlags struct {
	signer   bool
	writable bool
}

// resolve returns the distinct keys of metas with their privileges merged.
func resolve(metas []AccountMeta) ([]address.PublicKey, map[address.PublicKey]metaFlags) {
	keys := make([]address.PublicKey, 0, len(metas))
	flags := make(map[address.PublicKey]metaFlags, len(metas))
	for _, m := range metas {
		f, seen := flags[m.PublicKey]
		if !seen {
			keys = append(keys, m.PublicKey)
		}
		f.signer = f.signer || m.IsSigner
		f.writable = f.writable || m.IsWritable
		flags[m.PublicKey] = f
	}
	return keys, flags
}

// invocation is the program.Host for one instruction.
type invocation struct {
	slot uint64
	logs []string
}

func (in *invocation) Slot() uint64 { return in.slot }

func (in *invocation) Log(msg string) {
	in.logs = append(in.logs, "Program log: "+msg)
}

func (in *invocation) Transfer(from, to program.Account, lamports uint64) error {
	src, err := handleOf(from)
	if err != nil {
		return err
	}
	dst, err := handleOf(to)
	if err != nil {
		return err
	}

	if !src.IsSigner() {
		return fmt.Errorf("%w: %s", ErrTransferNotSigned, src.Key())
	}
	if src.Owner() != address.SystemProgramID || len(src.Data()) > 0 {
		return fmt.Errorf("%w: %s", ErrTransferFromNonSystem, src.Key())
	}
	if dst.Owner() != address.SystemProgramID {
		return fmt.Errorf("%w: %s", ErrTransferToNonSystem, dst.Key())
	}

	amount := types.Lamports(lamports)
	if src.Lamports() < amount {
		return fmt.Errorf("%w: need %d, have %d", ErrInsufficientFunds, amount, src.Lamports())
	}
	if _, err := dst.Lamports().CheckedAdd(amount); err != nil {
		return err
	}

	if err := src.Debit(amount); err != nil {
		return err
	}
	if err := dst.Credit(amount); err != nil {
		return err
	}

	in.logs = append(in.logs, fmt.Sprintf("Transfer: %d lamports %s -> %s", lamports, src.Key(), dst.Key()))
	return nil
}

func (in *invocation) CreateAccount(acct program.Account, space int, owner address.PublicKey) error {
	h, err := handleOf(acct)
	if err != nil {
		return err
	}

	if len(h.Data()) > 0 || h.Owner() != address.SystemProgramID {
		return fmt.Errorf("%w: %s", ErrAccountAlreadyInUse, h.Key())
	}
	if err := h.Allocate(space); err != nil {
		return err
	}
	return h.Assign(owner)
}

func handleOf(a program.Account) (*account.Handle, error) {
	h, ok := a.(*account.Handle)
	if !ok {
		return nil, ErrForeignHandle
	}
	return h, nil
}
