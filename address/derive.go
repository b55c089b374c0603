package address

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
)

const (
	// MaxSeeds is the maximum number of seeds, bump included.
	MaxSeeds = 16
	// MaxSeedLength is the maximum length of a single seed.
	MaxSeedLength = 32
)

// Seed namespaces used by the ledger.
var (
	UserSeed     = []byte("user")
	TreasurySeed = []byte("treasury")
)

// pdaMarker is appended to every derivation preimage.
var pdaMarker = []byte("ProgramDerivedAddress")

var (
	ErrMaxSeedLength    = errors.New("address: seed exceeds maximum length")
	ErrTooManySeeds     = errors.New("address: too many seeds")
	ErrOnCurve          = errors.New("address: derived address lies on the ed25519 curve")
	ErrNoViableBump     = errors.New("address: unable to find a viable bump")
	ErrAddressMismatch  = errors.New("address: derived address does not match")
	ErrMissingProgramID = errors.New("address: program id is required")
)

// Deriver computes derived addresses owned by a single program identity.
type Deriver struct {
	programID PublicKey
}

// NewDeriver returns a Deriver bound to programID.
func NewDeriver(programID PublicKey) (*Deriver, error) {
	if programID.IsZero() {
		return nil, ErrMissingProgramID
	}
	return &Deriver{programID: programID}, nil
}

// ProgramID returns the identity the deriver is bound to.
func (d *Deriver) ProgramID() PublicKey { return d.programID }

// CreateProgramAddress derives the address for seeds plus an explicit bump.
func (d *Deriver) CreateProgramAddress(seeds [][]byte, bump uint8) (PublicKey, error) {
	return CreateProgramAddress(append(cloneSeeds(seeds), []byte{bump}), d.programID)
}

// FindProgramAddress searches bumps from 255 down to 0 and returns the first
// address that falls off the curve together with that bump.
func (d *Deriver) FindProgramAddress(seeds [][]byte) (PublicKey, uint8, error) {
	return FindProgramAddress(seeds, d.programID)
}

// VerifyProgramAddress re-derives with a stored bump and compares against addr.
func (d *Deriver) VerifyProgramAddress(seeds [][]byte, bump uint8, addr PublicKey) error {
	derived, err := d.CreateProgramAddress(seeds, bump)
	if err != nil {
		return err
	}
	if derived != addr {
		return fmt.Errorf("%w: expected %s, got %s", ErrAddressMismatch, derived, addr)
	}
	return nil
}

// UserAddress returns the record address and bump for owner.
func (d *Deriver) UserAddress(owner PublicKey) (PublicKey, uint8) {
	addr, bump, err := d.FindProgramAddress([][]byte{UserSeed, owner[:]})
	if err != nil {
		// Unreachable in practice: the chance of 256 consecutive on-curve
		// hashes is negligible.
		panic(err)
	}
	return addr, bump
}

// TreasuryAddress returns the shared treasury address and bump.
func (d *Deriver) TreasuryAddress() (PublicKey, uint8) {
	addr, bump, err := d.FindProgramAddress([][]byte{TreasurySeed})
	if err != nil {
		panic(err)
	}
	return addr, bump
}

// CreateProgramAddress hashes seeds with programID and rejects on-curve results.
func CreateProgramAddress(seeds [][]byte, programID PublicKey) (PublicKey, error) {
	if len(seeds) > MaxSeeds {
		return Zero, ErrTooManySeeds
	}

	h := sha256.New()
	for _, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return Zero, ErrMaxSeedLength
		}
		h.Write(seed)
	}
	h.Write(programID[:])
	h.Write(pdaMarker)

	var out PublicKey
	copy(out[:], h.Sum(nil))

	if IsOnCurve(out) {
		return Zero, ErrOnCurve
	}
	return out, nil
}

// FindProgramAddress returns the canonical (highest) bump for seeds.
func FindProgramAddress(seeds [][]byte, programID PublicKey) (PublicKey, uint8, error) {
	if len(seeds) >= MaxSeeds {
		return Zero, 0, ErrTooManySeeds
	}

	withBump := append(cloneSeeds(seeds), []byte{0})
	for bump := 255; bump >= 0; bump-- {
		withBump[len(withBump)-1][0] = uint8(bump)

		addr, err := CreateProgramAddress(withBump, programID)
		switch {
		case err == nil:
			return addr, uint8(bump), nil
		case errors.Is(err, ErrOnCurve):
			continue
		default:
			return Zero, 0, err
		}
	}
	return Zero, 0, ErrNoViableBump
}

// IsOnCurve reports whether k decodes to a valid ed25519 point.
func IsOnCurve(k PublicKey) bool {
	_, err := new(edwards25519.Point).SetBytes(k[:])
	return err == nil
}

func cloneSeeds(seeds [][]byte) [][]byte {
	out := make([][]byte, len(seeds), len(seeds)+1)
	copy(out, seeds)
	return out
}
