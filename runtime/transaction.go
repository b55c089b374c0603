package runtime

import (
	"crypto/ed25519"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/xraph/promptledger/address"
)

// SignatureSize is the length of an ed25519 signature.
const SignatureSize = ed25519.SignatureSize

var (
	ErrMissingSignature = errors.New("runtime: missing signature for signer")
	ErrInvalidSignature = errors.New("runtime: signature verification failed")
	ErrInvalidKeyLength = errors.New("runtime: invalid private key length")
)

// AccountMeta references one account of an instruction.
type AccountMeta struct {
	PublicKey  address.PublicKey `json:"pubkey"`
	IsSigner   bool              `json:"is_signer"`
	IsWritable bool              `json:"is_writable"`
}

// Instruction is a single program invocation.
type Instruction struct {
	ProgramID address.PublicKey `json:"program_id"`
	Accounts  []AccountMeta     `json:"accounts"`
	Data      []byte            `json:"data"`
}

// Message returns the canonical byte encoding signed by every signer:
// program id, a u16 account count, each key followed by a flag byte, a u32
// data length and the data.
func (ix Instruction) Message() []byte {
	buf := make([]byte, 0, address.Size+2+len(ix.Accounts)*(address.Size+1)+4+len(ix.Data))
	buf = append(buf, ix.ProgramID[:]...)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(ix.Accounts)))
	for _, m := range ix.Accounts {
		var flags byte
		if m.IsSigner {
			flags |= 1
		}
		if m.IsWritable {
			flags |= 2
		}
		buf = append(buf, m.PublicKey[:]...)
		buf = append(buf, flags)
	}
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(ix.Data)))
	buf = append(buf, ix.Data...)
	return buf
}

// Signers returns the distinct signer keys in account order.
func (ix Instruction) Signers() []address.PublicKey {
	var out []address.PublicKey
	seen := make(map[address.PublicKey]bool)
	for _, m := range ix.Accounts {
		if m.IsSigner && !seen[m.PublicKey] {
			seen[m.PublicKey] = true
			out = append(out, m.PublicKey)
		}
	}
	return out
}

// Signature is an ed25519 signature; its text form is base58.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText.
type Signature [SignatureSize]byte

func (s Signature) String() string { return base58.Encode(s[:]) }

// MarshalText implements encoding.TextMarshaler.
func (s Signature) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Signature) UnmarshalText(data []byte) error {
	raw, err := base58.Decode(string(data))
	if err != nil {
		return fmt.Errorf("runtime: invalid signature: %w", err)
	}
	if len(raw) != SignatureSize {
		return fmt.Errorf("runtime: invalid signature length %d", len(raw))
	}
	copy(s[:], raw)
	return nil
}

// SignaturePair binds a signature to the key that produced it.
type SignaturePair struct {
	PublicKey address.PublicKey `json:"pubkey"`
	Signature Signature         `json:"signature"`
}

// Transaction is an instruction with signatures from its signers.
type Transaction struct {
	Instruction Instruction     `json:"instruction"`
	Signatures  []SignaturePair `json:"signatures"`
}

// NewTransaction wraps ix in an unsigned transaction.
func NewTransaction(ix Instruction) *Transaction {
	return &Transaction{Instruction: ix}
}

// Sign adds a signature by priv over the instruction message.
func (tx *Transaction) Sign(priv ed25519.PrivateKey) error {
	if len(priv) != ed25519.PrivateKeySize {
		return fmt.Errorf("%w: %d", ErrInvalidKeyLength, len(priv))
	}

	pub, err := address.FromBytes(priv.Public().(ed25519.PublicKey))
	if err != nil {
		return err
	}

	var sig Signature
	copy(sig[:], ed25519.Sign(priv, tx.Instruction.Message()))
	tx.Signatures = append(tx.Signatures, SignaturePair{PublicKey: pub, Signature: sig})
	return nil
}

// Verify checks that every signer of the instruction has a valid signature.
func (tx *Transaction) Verify() error {
	msg := tx.Instruction.Message()
	for _, signer := range tx.Instruction.Signers() {
		pair, ok := tx.signatureOf(signer)
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingSignature, signer)
		}
		if !ed25519.Verify(ed25519.PublicKey(signer[:]), msg, pair.Signature[:]) {
			return fmt.Errorf("%w: %s", ErrInvalidSignature, signer)
		}
	}
	return nil
}

// PrimarySignature returns the first signature, the transaction's identifier.
func (tx *Transaction) PrimarySignature() (Signature, bool) {
	if len(tx.Signatures) == 0 {
		return Signature{}, false
	}
	return tx.Signatures[0].Signature, true
}

func (tx *Transaction) signatureOf(key address.PublicKey) (SignaturePair, bool) {
	for _, p := range tx.Signatures {
		if p.PublicKey == key {
			return p, true
		}
	}
	return SignaturePair{}, false
}
