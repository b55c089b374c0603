// Package address defines public-key identities and the program-derived
// address scheme used to locate ledger records.
//
// A derived address is computed from a list of seeds, a one-byte bump and
// the owning program's identity. The result is accepted only when it does not
// decode to a point on the ed25519 curve, so no private key exists for it and
// only the owning program can authorize writes to it.
package address

import (
	"bytes"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// Size is the length in bytes of a PublicKey.
const Size = 32

// PublicKey is a 32-byte account identity.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type PublicKey [Size]byte

// Zero is the all-zero key.
var Zero PublicKey

// SystemProgramID owns every plain balance account (base58 "11111111111111111111111111111111").
var SystemProgramID PublicKey

var (
	ErrInvalidKey    = errors.New("address: invalid public key")
	ErrInvalidLength = errors.New("address: invalid public key length")
)

// Parse decodes a base58 string into a PublicKey.
func Parse(s string) (PublicKey, error) {
	if s == "" {
		return Zero, fmt.Errorf("%w: empty string", ErrInvalidKey)
	}

	raw, err := base58.Decode(s)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q: %v", ErrInvalidKey, s, err)
	}

	return FromBytes(raw)
}

// MustParse is like Parse but panics on error. Use for hardcoded keys.
func MustParse(s string) PublicKey {
	k, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return k
}

// FromBytes copies a 32-byte slice into a PublicKey.
func FromBytes(b []byte) (PublicKey, error) {
	if len(b) != Size {
		return Zero, fmt.Errorf("%w: %d", ErrInvalidLength, len(b))
	}

	var k PublicKey
	copy(k[:], b)
	return k, nil
}

// String returns the base58 form of the key.
func (k PublicKey) String() string {
	return base58.Encode(k[:])
}

// Bytes returns a copy of the key bytes.
func (k PublicKey) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, k[:])
	return out
}

// IsZero reports whether every byte of the key is zero.
func (k PublicKey) IsZero() bool {
	return k == Zero
}

// Equal reports whether two keys are identical.
func (k PublicKey) Equal(other PublicKey) bool {
	return bytes.Equal(k[:], other[:])
}

// MarshalText implements encoding.TextMarshaler.
func (k PublicKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *PublicKey) UnmarshalText(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Value implements driver.Valuer; keys are stored in their base58 form.
func (k PublicKey) Value() (driver.Value, error) {
	return k.String(), nil
}

// Scan implements sql.Scanner.
func (k *PublicKey) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return k.UnmarshalText([]byte(v))
	case []byte:
		return k.UnmarshalText(v)
	default:
		return fmt.Errorf("address: cannot scan %T into PublicKey", src)
	}
}
