// Package types provides common value types used across the ledger.
package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/bits"
)

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL uint64 = 1_000_000_000

// ErrOverflow is returned when checked arithmetic would wrap.
var ErrOverflow = errors.New("types: arithmetic overflow")

// ErrUnderflow is returned when a checked subtraction would go below zero.
var ErrUnderflow = errors.New("types: arithmetic underflow")

// Lamports is a native balance in the smallest unit.
// All arithmetic is unsigned and checked; values never wrap.
type Lamports uint64

// SOL converts a whole number of SOL into Lamports. Panics on overflow.
func SOL(whole uint64) Lamports {
	hi, lo := bits.Mul64(whole, LamportsPerSOL)
	if hi != 0 {
		panic(fmt.Sprintf("lamports: %d SOL overflows", whole))
	}
	return Lamports(lo)
}

// CheckedAdd returns l + other or ErrOverflow.
func (l Lamports) CheckedAdd(other Lamports) (Lamports, error) {
	sum, carry := bits.Add64(uint64(l), uint64(other), 0)
	if carry != 0 {
		return 0, ErrOverflow
	}
	return Lamports(sum), nil
}

// CheckedSub returns l - other or ErrUnderflow.
func (l Lamports) CheckedSub(other Lamports) (Lamports, error) {
	diff, borrow := bits.Sub64(uint64(l), uint64(other), 0)
	if borrow != 0 {
		return 0, ErrUnderflow
	}
	return Lamports(diff), nil
}

// IsZero returns true if the amount is zero.
func (l Lamports) IsZero() bool { return l == 0 }

// Uint64 returns the raw amount.
func (l Lamports) Uint64() uint64 { return uint64(l) }

// FormatSOL returns the amount in SOL with nine decimals, e.g. "0.001000000".
func (l Lamports) FormatSOL() string {
	whole := uint64(l) / LamportsPerSOL
	frac := uint64(l) % LamportsPerSOL
	return fmt.Sprintf("%d.%09d", whole, frac)
}

// String returns a human-readable form, e.g. "1000000 lamports (0.001000000 SOL)".
func (l Lamports) String() string {
	return fmt.Sprintf("%d lamports (%s SOL)", uint64(l), l.FormatSOL())
}

// MarshalJSON implements json.Marshaler.
func (l Lamports) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Lamports uint64 `json:"lamports"`
		SOL      string `json:"sol"`
	}{
		Lamports: uint64(l),
		SOL:      l.FormatSOL(),
	})
}

// UnmarshalJSON accepts either a bare number or the object form produced by MarshalJSON.
func (l *Lamports) UnmarshalJSON(data []byte) error {
	var n uint64
	if err := json.Unmarshal(data, &n); err == nil {
		*l = Lamports(n)
		return nil
	}

	var obj struct {
		Lamports uint64 `json:"lamports"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("lamports: %w", err)
	}
	*l = Lamports(obj.Lamports)
	return nil
}

// Sum adds values with overflow checking.
func Sum(values ...Lamports) (Lamports, error) {
	var total Lamports
	for _, v := range values {
		next, err := total.CheckedAdd(v)
		if err != nil {
			return 0, err
		}
		total = next
	}
	return total, nil
}
