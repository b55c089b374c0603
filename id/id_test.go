package id_test

import (
	"strings"
	"testing"

	"github.com/xraph/promptledger/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"InteractionID", id.NewInteractionID, "ixn_"},
		{"ReceiptID", id.NewReceiptID, "txn_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestNew(t *testing.T) {
	i := id.New(id.PrefixInteraction)
	if i.IsNil() {
		t.Fatal("expected non-nil ID")
	}
	if i.Prefix() != id.PrefixInteraction {
		t.Errorf("expected prefix %q, got %q", id.PrefixInteraction, i.Prefix())
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
	}{
		{"InteractionID", id.NewInteractionID, id.ParseInteractionID},
		{"ReceiptID", id.NewReceiptID, id.ParseReceiptID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newFn()
			parsed, err := tt.parseFn(original.String())
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if parsed.String() != original.String() {
				t.Errorf("round-trip mismatch: %q != %q", parsed.String(), original.String())
			}
		})
	}
}

func TestCrossTypeRejection(t *testing.T) {
	if _, err := id.ParseInteractionID(id.NewReceiptID().String()); err == nil {
		t.Error("expected ParseInteractionID to reject txn_")
	}
	if _, err := id.ParseReceiptID(id.NewInteractionID().String()); err == nil {
		t.Error("expected ParseReceiptID to reject ixn_")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"no separator", "notanid"},
		{"bad suffix", "ixn_!!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := id.Parse(tt.input); err == nil {
				t.Errorf("expected error for %q", tt.input)
			}
		})
	}
}

func TestNilID(t *testing.T) {
	var i id.ID
	if !i.IsNil() {
		t.Error("zero ID should be nil")
	}
	if i.String() != "" {
		t.Errorf("expected empty string, got %q", i.String())
	}

	v, err := i.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if v != nil {
		t.Errorf("expected nil driver value, got %v", v)
	}
}

func TestScan(t *testing.T) {
	original := id.NewReceiptID()

	var scanned id.ID
	if err := scanned.Scan(original.String()); err != nil {
		t.Fatalf("Scan string: %v", err)
	}
	if scanned.String() != original.String() {
		t.Errorf("Scan mismatch: %q != %q", scanned.String(), original.String())
	}

	if err := scanned.Scan(nil); err != nil {
		t.Fatalf("Scan nil: %v", err)
	}
	if !scanned.IsNil() {
		t.Error("expected nil after scanning NULL")
	}

	if err := scanned.Scan(42); err == nil {
		t.Error("expected error scanning int")
	}
}
