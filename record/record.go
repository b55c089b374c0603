// Package record defines the persisted user ledger record and its fixed
// binary layout: an 8-byte discriminator followed by a 121-byte body.
//
// Layout (little-endian, no padding), offsets from the start of account data:
//
//	[0:8]     discriminator       sha256("account:UserAccount")[:8]
//	[8:40]    authority
//	[40:48]   total_queries
//	[48:56]   total_fees_paid
//	[56:88]   last_prompt_hash
//	[88:120]  last_response_hash
//	[120:128] last_log_slot
//	[128]     bump
package record

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/xraph/promptledger/address"
)

const (
	// DiscriminatorSize is the width of the record-type tag.
	DiscriminatorSize = 8
	// BodySize is the width of the record fields after the discriminator.
	BodySize = 32 + 8 + 8 + HashSize + HashSize + 8 + 1
	// Size is the total on-ledger size of a user record.
	Size = DiscriminatorSize + BodySize
)

// AccountName is the type name hashed into the record discriminator.
const AccountName = "UserAccount"

// UserDiscriminator tags user ledger records.
var UserDiscriminator = AccountDiscriminator(AccountName)

var (
	ErrInvalidLength         = errors.New("record: invalid record length")
	ErrDiscriminatorMismatch = errors.New("record: discriminator mismatch")
	ErrNotInitialized        = errors.New("record: account not initialized")
	ErrOwnerMismatch         = errors.New("record: account not owned by program")
)

// UserLedger is the per-owner interaction ledger record.
type UserLedger struct {
	Authority        address.PublicKey `json:"authority"`
	TotalQueries     uint64            `json:"total_queries"`
	TotalFeesPaid    uint64            `json:"total_fees_paid"`
	LastPromptHash   Hash              `json:"last_prompt_hash"`
	LastResponseHash Hash              `json:"last_response_hash"`
	LastLogSlot      uint64            `json:"last_log_slot"`
	Bump             uint8             `json:"bump"`
}

// New returns a freshly initialized record bound to authority.
func New(authority address.PublicKey, bump uint8) UserLedger {
	return UserLedger{Authority: authority, Bump: bump}
}

// Marshal encodes r into its 129-byte account layout: the 8-byte
// discriminator followed by the 121-byte body.
func (r UserLedger) Marshal() []byte {
	buf := make([]byte, Size)
	r.encode(buf)
	return buf
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (r UserLedger) MarshalBinary() ([]byte, error) {
	return r.Marshal(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (r *UserLedger) UnmarshalBinary(data []byte) error {
	parsed, err := Unmarshal(data)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Unmarshal decodes a user record. Data must be exactly Size bytes and
// carry the user discriminator.
func Unmarshal(data []byte) (UserLedger, error) {
	if len(data) != Size {
		return UserLedger{}, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidLength, len(data), Size)
	}
	if !bytes.Equal(data[:DiscriminatorSize], UserDiscriminator[:]) {
		return UserLedger{}, ErrDiscriminatorMismatch
	}

	body := data[DiscriminatorSize:]
	var r UserLedger
	copy(r.Authority[:], body[0:32])
	r.TotalQueries = binary.LittleEndian.Uint64(body[32:40])
	r.TotalFeesPaid = binary.LittleEndian.Uint64(body[40:48])
	copy(r.LastPromptHash[:], body[48:80])
	copy(r.LastResponseHash[:], body[80:112])
	r.LastLogSlot = binary.LittleEndian.Uint64(body[112:120])
	r.Bump = body[120]
	return r, nil
}

func (r UserLedger) encode(buf []byte) {
	copy(buf[:DiscriminatorSize], UserDiscriminator[:])

	body := buf[DiscriminatorSize:]
	copy(body[0:32], r.Authority[:])
	binary.LittleEndian.PutUint64(body[32:40], r.TotalQueries)
	binary.LittleEndian.PutUint64(body[40:48], r.TotalFeesPaid)
	copy(body[48:80], r.LastPromptHash[:])
	copy(body[80:112], r.LastResponseHash[:])
	binary.LittleEndian.PutUint64(body[112:120], r.LastLogSlot)
	body[120] = r.Bump
}

// IsInitialized reports whether data starts with the user discriminator.
func IsInitialized(data []byte) bool {
	return len(data) >= DiscriminatorSize && bytes.Equal(data[:DiscriminatorSize], UserDiscriminator[:])
}

// AccountDiscriminator returns sha256("account:<name>")[:8].
func AccountDiscriminator(name string) [DiscriminatorSize]byte {
	return Sighash("account", name)
}

// Sighash returns the first eight bytes of sha256("<namespace>:<name>").
func Sighash(namespace, name string) [DiscriminatorSize]byte {
	sum := sha256.Sum256([]byte(namespace + ":" + name))
	var out [DiscriminatorSize]byte
	copy(out[:], sum[:DiscriminatorSize])
	return out
}
