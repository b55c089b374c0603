package types

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestSOL(t *testing.T) {
	tests := []struct {
		name    string
		value   Lamports
		want    uint64
		display string
	}{
		{"Zero", SOL(0), 0, "0.000000000"},
		{"One", SOL(1), 1_000_000_000, "1.000000000"},
		{"Ten", SOL(10), 10_000_000_000, "10.000000000"},
		{"Raw fee", Lamports(1_000_000), 1_000_000, "0.001000000"},
		{"One lamport", Lamports(1), 1, "0.000000001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value.Uint64() != tt.want {
				t.Errorf("Uint64: got %d, want %d", tt.value.Uint64(), tt.want)
			}
			if got := tt.value.FormatSOL(); got != tt.display {
				t.Errorf("FormatSOL: got %s, want %s", got, tt.display)
			}
		})
	}
}

func TestSOLOverflowPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for overflow")
		}
	}()

	_ = SOL(math.MaxUint64 / 2)
}

func TestCheckedArithmetic(t *testing.T) {
	tests := []struct {
		name    string
		op      func() (Lamports, error)
		want    Lamports
		wantErr error
	}{
		{"Add", func() (Lamports, error) { return Lamports(100).CheckedAdd(200) }, 300, nil},
		{"Add to max", func() (Lamports, error) { return Lamports(math.MaxUint64 - 1).CheckedAdd(1) }, math.MaxUint64, nil},
		{"Add overflow", func() (Lamports, error) { return Lamports(math.MaxUint64).CheckedAdd(1) }, 0, ErrOverflow},
		{"Sub", func() (Lamports, error) { return Lamports(500).CheckedSub(200) }, 300, nil},
		{"Sub to zero", func() (Lamports, error) { return Lamports(5).CheckedSub(5) }, 0, nil},
		{"Sub underflow", func() (Lamports, error) { return Lamports(5).CheckedSub(6) }, 0, ErrUnderflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.op()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error: got %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLamportsJSON(t *testing.T) {
	data, err := json.Marshal(Lamports(1_500_000_000))
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	expected := `{"lamports":1500000000,"sol":"1.500000000"}`
	if string(data) != expected {
		t.Errorf("JSON: got %s, want %s", string(data), expected)
	}

	var back Lamports
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal object error: %v", err)
	}
	if back != 1_500_000_000 {
		t.Errorf("object round trip: got %d", back)
	}

	if err := json.Unmarshal([]byte("42"), &back); err != nil {
		t.Fatalf("Unmarshal number error: %v", err)
	}
	if back != 42 {
		t.Errorf("number form: got %d, want 42", back)
	}
}

func TestSum(t *testing.T) {
	tests := []struct {
		name    string
		values  []Lamports
		want    Lamports
		wantErr error
	}{
		{"Empty", nil, 0, nil},
		{"Single", []Lamports{100}, 100, nil},
		{"Multiple", []Lamports{100, 200, 300}, 600, nil},
		{"Overflow", []Lamports{math.MaxUint64, 1}, 0, ErrOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Sum(tt.values...)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error: got %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Sum: got %d, want %d", got, tt.want)
			}
		})
	}
}

func BenchmarkCheckedAdd(b *testing.B) {
	l := Lamports(100)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = l.CheckedAdd(200)
	}
}
