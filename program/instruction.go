package program

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/xraph/promptledger/record"
)

// Kind identifies a ledger instruction.
type Kind uint8

const (
	KindInitializeUser Kind = iota + 1
	KindLogInteraction
)

// Instruction discriminators: sha256("global:<name>")[:8].
var (
	InitializeUserDiscriminator = record.Sighash("global", "initialize_user")
	LogInteractionDiscriminator = record.Sighash("global", "log_interaction")
)

// Encoded instruction sizes.
const (
	InitializeUserDataSize = record.DiscriminatorSize
	LogInteractionDataSize = record.DiscriminatorSize + record.HashSize + record.HashSize + 8
)

// Account counts per instruction.
const (
	InitializeUserAccountCount = 3 // authority, user_record, system_program
	LogInteractionAccountCount = 4 // authority, user_record, treasury, system_program
)

func (k Kind) String() string {
	switch k {
	case KindInitializeUser:
		return "InitializeUser"
	case KindLogInteraction:
		return "LogInteraction"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// LogInteractionArgs are the arguments of a LogInteraction instruction.
type LogInteractionArgs struct {
	PromptHash   record.Hash `json:"prompt_hash"`
	ResponseHash record.Hash `json:"response_hash"`
	Fee          uint64      `json:"fee"`
}

// EncodeInitializeUser returns the instruction data for InitializeUser.
func EncodeInitializeUser() []byte {
	out := make([]byte, InitializeUserDataSize)
	copy(out, InitializeUserDiscriminator[:])
	return out
}

// EncodeLogInteraction returns the instruction data for LogInteraction.
func EncodeLogInteraction(args LogInteractionArgs) []byte {
	out := make([]byte, LogInteractionDataSize)
	copy(out[0:8], LogInteractionDiscriminator[:])
	copy(out[8:40], args.PromptHash[:])
	copy(out[40:72], args.ResponseHash[:])
	binary.LittleEndian.PutUint64(out[72:80], args.Fee)
	return out
}

// Decode identifies the instruction in data and parses its arguments.
// Args is only meaningful for KindLogInteraction.
func Decode(data []byte) (Kind, LogInteractionArgs, error) {
	if len(data) < record.DiscriminatorSize {
		return 0, LogInteractionArgs{}, ErrInstructionMissing
	}

	tag := data[:record.DiscriminatorSize]
	switch {
	case bytes.Equal(tag, InitializeUserDiscriminator[:]):
		if len(data) != InitializeUserDataSize {
			return 0, LogInteractionArgs{}, ErrInstructionDidNotDeserialize
		}
		return KindInitializeUser, LogInteractionArgs{}, nil

	case bytes.Equal(tag, LogInteractionDiscriminator[:]):
		if len(data) != LogInteractionDataSize {
			return 0, LogInteractionArgs{}, ErrInstructionDidNotDeserialize
		}
		var args LogInteractionArgs
		copy(args.PromptHash[:], data[8:40])
		copy(args.ResponseHash[:], data[40:72])
		args.Fee = binary.LittleEndian.Uint64(data[72:80])
		return KindLogInteraction, args, nil

	default:
		return 0, LogInteractionArgs{}, ErrInstructionFallbackNotFound
	}
}
