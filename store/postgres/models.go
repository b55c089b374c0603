package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/promptledger/account"
	"github.com/xraph/promptledger/address"
	"github.com/xraph/promptledger/id"
	"github.com/xraph/promptledger/interaction"
	"github.com/xraph/promptledger/record"
	"github.com/xraph/promptledger/types"
)

// ==================== Account models ====================

// Lamport amounts are stored as the int64 with the same bit pattern, since
// Postgres has no unsigned 64-bit integer.
type accountModel struct {
	grove.BaseModel `grove:"table:promptledger_accounts"`

	Address   string    `grove:"address,pk"`
	Owner     string    `grove:"owner"`
	Lamports  int64     `grove:"lamports"`
	Data      []byte    `grove:"data,type:bytea"`
	DataSize  int       `grove:"data_size"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
}

func toAccountModel(a *account.Account) accountModel {
	return accountModel{
		Address:   a.Address.String(),
		Owner:     a.Owner.String(),
		Lamports:  int64(a.Lamports),
		Data:      a.Data,
		DataSize:  len(a.Data),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func fromAccountModel(m *accountModel) (*account.Account, error) {
	addr, err := address.Parse(m.Address)
	if err != nil {
		return nil, err
	}
	owner, err := address.Parse(m.Owner)
	if err != nil {
		return nil, err
	}

	return &account.Account{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Address:  addr,
		Owner:    owner,
		Lamports: types.Lamports(uint64(m.Lamports)),
		Data:     m.Data,
	}, nil
}

// ==================== Interaction models ====================

type interactionModel struct {
	grove.BaseModel `grove:"table:promptledger_interactions"`

	ID           string    `grove:"id,pk"`
	Authority    string    `grove:"authority"`
	Record       string    `grove:"record"`
	PromptHash   string    `grove:"prompt_hash"`
	ResponseHash string    `grove:"response_hash"`
	Fee          int64     `grove:"fee"`
	Slot         int64     `grove:"slot"`
	TotalQueries int64     `grove:"total_queries"`
	Signature    string    `grove:"signature"`
	Timestamp    time.Time `grove:"timestamp"`
}

func toInteractionModel(e *interaction.Event) interactionModel {
	return interactionModel{
		ID:           e.ID.String(),
		Authority:    e.Authority.String(),
		Record:       e.Record.String(),
		PromptHash:   e.PromptHash.String(),
		ResponseHash: e.ResponseHash.String(),
		Fee:          int64(e.Fee),
		Slot:         int64(e.Slot),
		TotalQueries: int64(e.TotalQueries),
		Signature:    e.Signature,
		Timestamp:    e.Timestamp,
	}
}

func fromInteractionModel(m *interactionModel) (*interaction.Event, error) {
	evtID, err := id.ParseInteractionID(m.ID)
	if err != nil {
		return nil, err
	}
	authority, err := address.Parse(m.Authority)
	if err != nil {
		return nil, err
	}
	rec, err := address.Parse(m.Record)
	if err != nil {
		return nil, err
	}
	prompt, err := record.ParseHash(m.PromptHash)
	if err != nil {
		return nil, err
	}
	response, err := record.ParseHash(m.ResponseHash)
	if err != nil {
		return nil, err
	}

	return &interaction.Event{
		ID:           evtID,
		Authority:    authority,
		Record:       rec,
		PromptHash:   prompt,
		ResponseHash: response,
		Fee:          types.Lamports(uint64(m.Fee)),
		Slot:         uint64(m.Slot),
		TotalQueries: uint64(m.TotalQueries),
		Signature:    m.Signature,
		Timestamp:    m.Timestamp,
	}, nil
}
