// Package interaction defines the journal of logged interactions.
//
// The journal is a host-side history: each successful LogInteraction appends
// one Event after its transition has committed. The ledger record only keeps
// the latest hashes; the journal keeps all of them.
package interaction

import (
	"time"

	"github.com/xraph/promptledger/address"
	"github.com/xraph/promptledger/id"
	"github.com/xraph/promptledger/record"
	"github.com/xraph/promptledger/types"
)

// Event is one journaled interaction.
type Event struct {
	ID           id.InteractionID  `json:"id"`
	Authority    address.PublicKey `json:"authority"`
	Record       address.PublicKey `json:"record"`
	PromptHash   record.Hash       `json:"prompt_hash"`
	ResponseHash record.Hash       `json:"response_hash"`
	Fee          types.Lamports    `json:"fee"`
	Slot         uint64            `json:"slot"`
	TotalQueries uint64            `json:"total_queries"`
	Signature    string            `json:"signature,omitempty"`
	Timestamp    time.Time         `json:"timestamp"`
}
