package promptledger

import "github.com/xraph/promptledger/id"

// ID is the identifier type for journal entries and receipts.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
