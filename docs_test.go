package promptledger_test

import (
	"context"
	"crypto/ed25519"
	"log"
	"testing"
	"time"

	"github.com/xraph/promptledger"
	"github.com/xraph/promptledger/address"
	"github.com/xraph/promptledger/runtime"
	"github.com/xraph/promptledger/store/memory"
	"github.com/xraph/promptledger/types"
)

// TestDocumentationExamples verifies that the examples in the package
// documentation compile and run.
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		cfg, err := promptledger.ParseProgramConfig([]byte(`
solana:
  program:
    id: 8pMVJamgnZKWmYJQQ8gvPaT7UFVg5BAr3Rg5HY8epYyh
`))
		if err != nil {
			t.Fatal(err)
		}
		pid, _ := cfg.ProgramID()

		l, err := promptledger.New(memory.New(), pid,
			promptledger.WithLogger(quietLogger()),
			promptledger.WithEventConfig(100, 5*time.Second),
		)
		if err != nil {
			t.Fatal(err)
		}

		ctx := context.Background()
		if err := l.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer l.Stop()

		user := key(11)
		if _, err := l.Airdrop(ctx, user, promptledger.SOL(1)); err != nil {
			t.Fatal(err)
		}

		if _, err := l.InitializeUser(ctx, user); err != nil {
			t.Fatal(err)
		}

		receipt, err := l.LogInteraction(ctx, user, promptledger.LogInteractionArgs{
			PromptHash:   promptledger.HashText("What is a PDA?"),
			ResponseHash: promptledger.HashText("An address with no private key."),
			Fee:          1_000,
		})
		if err != nil {
			t.Fatal(err)
		}
		log.Printf("interaction committed at slot %d\n", receipt.Slot)
	})

	t.Run("SignedTransactionExample", func(t *testing.T) {
		l, _ := newLedger(t)
		ctx := context.Background()

		seed := make([]byte, ed25519.SeedSize)
		seed[0] = 42
		privateKey := ed25519.NewKeyFromSeed(seed)
		user, _ := address.FromBytes(privateKey.Public().(ed25519.PublicKey))

		tx := runtime.NewTransaction(l.BuildInitializeUser(user))
		_ = tx.Sign(privateKey)
		if _, err := l.Submit(ctx, tx); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("LamportsExamples", func(t *testing.T) {
		one := types.SOL(1)
		_ = one.FormatSOL() // "1.000000000"

		total, err := promptledger.Sum(one, 500)
		if err != nil {
			t.Fatal(err)
		}
		if total.Uint64() != 1_000_000_500 {
			t.Errorf("Sum = %d", total)
		}
	})
}
