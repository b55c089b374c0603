package promptledger

import (
	"github.com/xraph/promptledger/address"
	"github.com/xraph/promptledger/program"
	"github.com/xraph/promptledger/record"
	"github.com/xraph/promptledger/runtime"
	"github.com/xraph/promptledger/types"
)

// Re-export common types for convenience so users don't have to import
// the leaf packages.

// PublicKey is re-exported from address package.
type PublicKey = address.PublicKey

// Hash is re-exported from record package.
type Hash = record.Hash

// UserLedger is re-exported from record package.
type UserLedger = record.UserLedger

// LogInteractionArgs is re-exported from program package.
type LogInteractionArgs = program.LogInteractionArgs

// Receipt is re-exported from runtime package.
type Receipt = runtime.Receipt

// Lamports is re-exported from types package.
type Lamports = types.Lamports

// Entity is re-exported from types package.
type Entity = types.Entity

// Re-export constructors
var (
	ParsePublicKey = address.Parse
	HashText       = record.HashText
	ParseHash      = record.ParseHash
	SOL            = types.SOL
	Sum            = types.Sum
	NewEntity      = types.NewEntity
)
