package record

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// HashSize is the width of a prompt or response digest.
const HashSize = 32

// ErrInvalidHash is returned for malformed hex digests.
var ErrInvalidHash = errors.New("record: invalid hash")

// Hash is a 32-byte digest of a prompt or response.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText.
type Hash [HashSize]byte

// HashText returns the sha256 digest of s.
func HashText(s string) Hash {
	return sha256.Sum256([]byte(s))
}

// ParseHash decodes a 64-character hex digest. A "0x" prefix is accepted.
func ParseHash(s string) (Hash, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if len(s) != HashSize*2 {
		return Hash{}, fmt.Errorf("%w: want %d hex characters, got %d", ErrInvalidHash, HashSize*2, len(s))
	}

	var h Hash
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return Hash{}, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
	return h, nil
}

// String returns the lowercase hex form.
func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// IsZero reports whether the digest is all zeros.
func (h Hash) IsZero() bool { return h == Hash{} }

// MarshalText implements encoding.TextMarshaler.
func (h Hash) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(data []byte) error {
	parsed, err := ParseHash(string(data))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
