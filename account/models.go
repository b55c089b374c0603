package account

import (
	"github.com/xraph/promptledger/address"
	"github.com/xraph/promptledger/types"
)

// Account is a persisted storage slot: a balance, an owning program and
// opaque data only the owner may write.
type Account struct {
	Address  address.PublicKey `json:"address"`
	Owner    address.PublicKey `json:"owner"`
	Lamports types.Lamports    `json:"lamports"`
	Data     []byte            `json:"data,omitempty"`
	types.Entity
}

// Empty returns an unfunded, system-owned account at addr.
func Empty(addr address.PublicKey) *Account {
	return &Account{Address: addr, Owner: address.SystemProgramID}
}

// IsEmpty reports whether the account is indistinguishable from one that
// was never created.
func (a *Account) IsEmpty() bool {
	return a.Lamports == 0 && len(a.Data) == 0 && a.Owner == address.SystemProgramID
}

// Clone returns a deep copy.
func (a *Account) Clone() *Account {
	c := *a
	if a.Data != nil {
		c.Data = append([]byte(nil), a.Data...)
	}
	return &c
}
