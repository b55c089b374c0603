package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/promptledger/address"
	"github.com/xraph/promptledger/types"
)

var (
	// ErrNotWritable is returned when mutating through a read-only handle.
	ErrNotWritable = errors.New("account: handle is not writable")
	// ErrNotInArena is returned when a key was never loaded into the arena.
	ErrNotInArena = errors.New("account: not loaded in arena")
)

type slot struct {
	acct  *Account
	dirty bool
}

// Arena is the working set of one transition. Accounts are copied in on
// Load, mutated only through handles and read back out with Dirty once the
// transition has succeeded. Discarding the arena discards every change.
type Arena struct {
	slots map[address.PublicKey]*slot
	order []address.PublicKey
}

// NewArena returns an arena holding copies of accts.
func NewArena(accts ...*Account) *Arena {
	a := &Arena{slots: make(map[address.PublicKey]*slot, len(accts))}
	for _, acct := range accts {
		a.put(acct.Clone())
	}
	return a
}

// Load fetches keys from src into a new arena. Keys with no stored account
// are materialized as empty system-owned accounts.
func Load(ctx context.Context, src Getter, keys []address.PublicKey) (*Arena, error) {
	found, err := src.GetAccounts(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("account: load: %w", err)
	}

	a := NewArena(found...)
	for _, k := range keys {
		if _, ok := a.slots[k]; !ok {
			a.put(Empty(k))
		}
	}
	return a, nil
}

func (a *Arena) put(acct *Account) {
	if _, ok := a.slots[acct.Address]; !ok {
		a.order = append(a.order, acct.Address)
	}
	a.slots[acct.Address] = &slot{acct: acct}
}

// Get returns a copy of the current state of key.
func (a *Arena) Get(key address.PublicKey) (*Account, bool) {
	s, ok := a.slots[key]
	if !ok {
		return nil, false
	}
	return s.acct.Clone(), true
}

// Handle returns a view of key with the given privileges. Handles to the
// same key share state.
func (a *Arena) Handle(key address.PublicKey, signer, writable bool) (*Handle, error) {
	s, ok := a.slots[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotInArena, key)
	}
	return &Handle{slot: s, signer: signer, writable: writable}, nil
}

// Dirty returns copies of every account modified through a handle, in
// load order.
func (a *Arena) Dirty() []*Account {
	var out []*Account
	for _, k := range a.order {
		if s := a.slots[k]; s.dirty {
			out = append(out, s.acct.Clone())
		}
	}
	return out
}

// Handle is a privileged view of one account inside an arena.
type Handle struct {
	slot     *slot
	signer   bool
	writable bool
}

func (h *Handle) Key() address.PublicKey   { return h.slot.acct.Address }
func (h *Handle) Owner() address.PublicKey { return h.slot.acct.Owner }
func (h *Handle) Lamports() types.Lamports { return h.slot.acct.Lamports }
func (h *Handle) IsSigner() bool           { return h.signer }
func (h *Handle) IsWritable() bool         { return h.writable }

// Data returns the account data. Callers must not modify the returned slice.
func (h *Handle) Data() []byte { return h.slot.acct.Data }

// SetData replaces the account data. The length may not change once allocated.
func (h *Handle) SetData(data []byte) error {
	if err := h.mutable(); err != nil {
		return err
	}
	if len(data) != len(h.slot.acct.Data) {
		return fmt.Errorf("account: data length %d does not match allocation %d", len(data), len(h.slot.acct.Data))
	}
	h.slot.acct.Data = append(h.slot.acct.Data[:0], data...)
	h.slot.dirty = true
	return nil
}

// Allocate sizes the data to space zero bytes.
func (h *Handle) Allocate(space int) error {
	if err := h.mutable(); err != nil {
		return err
	}
	h.slot.acct.Data = make([]byte, space)
	h.slot.dirty = true
	return nil
}

// Assign changes the owning program.
func (h *Handle) Assign(owner address.PublicKey) error {
	if err := h.mutable(); err != nil {
		return err
	}
	h.slot.acct.Owner = owner
	h.slot.dirty = true
	return nil
}

// Credit adds lamports to the balance.
func (h *Handle) Credit(amount types.Lamports) error {
	if err := h.mutable(); err != nil {
		return err
	}
	next, err := h.slot.acct.Lamports.CheckedAdd(amount)
	if err != nil {
		return err
	}
	h.slot.acct.Lamports = next
	h.slot.dirty = true
	return nil
}

// Debit removes lamports from the balance.
func (h *Handle) Debit(amount types.Lamports) error {
	if err := h.mutable(); err != nil {
		return err
	}
	next, err := h.slot.acct.Lamports.CheckedSub(amount)
	if err != nil {
		return err
	}
	h.slot.acct.Lamports = next
	h.slot.dirty = true
	return nil
}

func (h *Handle) mutable() error {
	if !h.writable {
		return fmt.Errorf("%w: %s", ErrNotWritable, h.slot.acct.Address)
	}
	return nil
}
