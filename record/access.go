package record

import (
	"fmt"

	"github.com/xraph/promptledger/address"
)

// Source is a read view of a storage slot.
type Source interface {
	Owner() address.PublicKey
	Data() []byte
}

// Sink is a writable storage slot.
type Sink interface {
	SetData(data []byte) error
}

// Load validates that src is owned by programID and holds an initialized
// user record, then decodes it into an owned value. Mutations on the result
// reach storage only through Store.
func Load(src Source, programID address.PublicKey) (UserLedger, error) {
	if src.Owner() != programID {
		return UserLedger{}, fmt.Errorf("%w: owner %s", ErrOwnerMismatch, src.Owner())
	}

	data := src.Data()
	if len(data) == 0 {
		return UserLedger{}, ErrNotInitialized
	}
	return Unmarshal(data)
}

// Store encodes r and writes it back to dst.
func Store(dst Sink, r UserLedger) error {
	return dst.SetData(r.Marshal())
}
