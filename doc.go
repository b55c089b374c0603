// Package promptledger provides a per-user interaction ledger for Go applications.
//
// Every user owns one record at an address derived from the program identity
// and the user's public key. Logging an interaction stores the hashes of the
// prompt and the response, bumps the user's counters and moves a fee into a
// shared treasury, all in one atomic step:
//
//   - Deterministic off-curve record and treasury addresses
//   - Fixed 129-byte record layout with an 8-byte type discriminator
//   - Checked counters that refuse to wrap
//   - Signed transactions verified with ed25519
//   - Asynchronous interaction journal with batched ingestion
//   - Audit trail and Prometheus metrics through plugins
//
// # Quick Start
//
// Create a ledger with your preferred store:
//
//	import (
//	    "github.com/xraph/promptledger"
//	    "github.com/xraph/promptledger/store/memory"
//	)
//
//	cfg, err := promptledger.LoadProgramConfig("config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pid, _ := cfg.ProgramID()
//
//	l, err := promptledger.New(memory.New(), pid)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Start the ledger (runs migrations and the journal worker)
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
// # Core Concepts
//
// A user registers once:
//
//	receipt, err := l.InitializeUser(ctx, user)
//
// and then pays for each interaction:
//
//	_, err = l.LogInteraction(ctx, user, promptledger.LogInteractionArgs{
//	    PromptHash:   promptledger.HashText(prompt),
//	    ResponseHash: promptledger.HashText(response),
//	    Fee:          1_000,
//	})
//
// Callers holding their own keys build an instruction, sign it and submit
// the transaction instead:
//
//	tx := runtime.NewTransaction(l.BuildLogInteraction(user, args))
//	_ = tx.Sign(privateKey)
//	receipt, err := l.Submit(ctx, tx)
//
// Every rejected transition leaves storage untouched. Program failures carry
// stable numeric codes:
//
//	6000 UnauthorizedAuthority
//	6001 MathOverflow
//	6002 InvalidFee
//
// # TypeID
//
// Journal entries and receipts use TypeID identifiers:
//
//	ixn_01h2xcejqtf2nbrexx3vqjhp41  // Interaction ID
//	txn_01h455vb4pex5vsknk084sn02q  // Receipt ID
package promptledger
